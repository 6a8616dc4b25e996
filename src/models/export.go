package models

// ExportRow is one normalized line of the accounting ledger produced by an
// export batch. Beneficiary fields are populated only when the transaction
// carries bank transfer details.
type ExportRow struct {
	Date           string  `json:"date"`
	Branch         string  `json:"branch"`
	Representative string  `json:"representative"`
	Category       string  `json:"category"`
	Subject        string  `json:"subject"`
	Amount         float64 `json:"amount"`
	Notes          string  `json:"notes,omitempty"`
	Beneficiary    string  `json:"beneficiary,omitempty"`
	BankNumber     string  `json:"bank_number,omitempty"`
	BranchNumber   string  `json:"branch_number,omitempty"`
	AccountNumber  string  `json:"account_number,omitempty"`
}

// ExportFile is a single attachment scheduled for archival packaging, named by
// its category folder inside the bundle.
type ExportFile struct {
	Name    string `json:"name"`
	Content []byte `json:"-"`
}
