package models

import (
	"errors"
	"strings"
	"time"
)

// TransactionKind carries the direction of a transaction. The amount itself is
// always a non-negative magnitude.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// TransactionStatus is the review state of a transaction.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusApproved TransactionStatus = "approved"
	StatusRejected TransactionStatus = "rejected"
)

// Category is the accounting bucket a transaction is exported under.
// It is derived on read, never stored.
type Category string

const (
	CategoryActivity      Category = "activity"
	CategoryRefund        Category = "refund"
	CategorySupplierNew   Category = "supplier_new"
	CategorySupplierExist Category = "supplier_exist"
)

// DetailsMode tags the variant of the details payload.
type DetailsMode string

const (
	ModeActivity           DetailsMode = "activity"
	ModeRefund             DetailsMode = "refund"
	ModeSupplier           DetailsMode = "supplier"
	ModeSubscriptionCharge DetailsMode = "subscription_charge"
	ModeManualAdminAction  DetailsMode = "manual_admin_action"
)

// Audience splits activity participant counts for reporting.
type Audience string

const (
	AudienceBoys  Audience = "boys"
	AudienceGirls Audience = "girls"
)

// BankTransferDetails identifies the beneficiary account for a supplier payment.
type BankTransferDetails struct {
	Beneficiary   string `json:"beneficiary,omitempty"`
	BankNumber    string `json:"bank_number,omitempty"`
	BranchNumber  string `json:"branch_number,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

// Complete reports whether the details are sufficient to register a new supplier,
// meaning both an account number and a bank number are present.
func (b *BankTransferDetails) Complete() bool {
	if b == nil {
		return false
	}
	return strings.TrimSpace(b.AccountNumber) != "" && strings.TrimSpace(b.BankNumber) != ""
}

// TransactionDetails is the mode-tagged payload attached to a transaction.
// Only the fields relevant to the Mode are populated; everything else stays
// at its zero value and is omitted from JSON. An empty Mode is allowed for
// legacy rows and resolves through the classifier's default branch.
type TransactionDetails struct {
	Mode DetailsMode `json:"mode,omitempty"`

	// ModeActivity
	ActivityTypeID int64             `json:"activity_type_id,omitempty"`
	Participants   int               `json:"participants,omitempty"`
	Audience       Audience          `json:"audience,omitempty"`
	CustomAnswers  map[string]string `json:"custom_answers,omitempty"`

	// ModeSupplier
	SupplierName string               `json:"supplier_name,omitempty"`
	BankDetails  *BankTransferDetails `json:"bank_details,omitempty"`

	// ModeSubscriptionCharge
	SubscriptionTypeID int64  `json:"subscription_type_id,omitempty"`
	Period             string `json:"period,omitempty"`

	// ModeRefund / ModeManualAdminAction
	Note    string `json:"note,omitempty"`
	AdminID int64  `json:"admin_id,omitempty"`
}

// Transaction is a single entry in a representative's ledger: an income report
// or an expense/reimbursement request.
type Transaction struct {
	ID                   int64              `json:"id,omitempty"`
	UserID               int64              `json:"user_id"`
	Kind                 TransactionKind    `json:"kind"`
	Status               TransactionStatus  `json:"status"`
	Amount               float64            `json:"amount"`
	Title                string             `json:"title"`
	Date                 time.Time          `json:"date"` // effective date, not creation time
	RejectionReason      string             `json:"rejection_reason,omitempty"`
	AttachmentPath       string             `json:"attachment_path,omitempty"`
	BankConfirmationPath string             `json:"bank_confirmation_path,omitempty"`
	IsExported           bool               `json:"is_exported"`
	BillingKey           string             `json:"billing_key,omitempty"`
	Details              TransactionDetails `json:"details"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

var (
	// ErrInvalidTransition is returned when a status change is not allowed from
	// the transaction's current status.
	ErrInvalidTransition = errors.New("status transition not allowed")

	// ErrRejectionReasonRequired is returned when a rejection is attempted
	// without a non-empty reason.
	ErrRejectionReasonRequired = errors.New("rejection requires a non-empty reason")
)

// Approve moves a pending transaction to approved and clears any rejection
// reason. Rejected transactions are terminal; approved transactions never
// return to pending.
func (t *Transaction) Approve() error {
	if t.Status != StatusPending {
		return ErrInvalidTransition
	}
	t.Status = StatusApproved
	t.RejectionReason = ""
	return nil
}

// Reject moves a pending transaction to rejected. The reason must be non-empty
// and is recorded atomically with the transition; on refusal the transaction is
// left untouched.
func (t *Transaction) Reject(reason string) error {
	if t.Status != StatusPending {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(reason) == "" {
		return ErrRejectionReasonRequired
	}
	t.Status = StatusRejected
	t.RejectionReason = reason
	return nil
}

// SignedAmount returns the transaction's contribution to a running balance:
// positive for income, negative for expense.
func (t *Transaction) SignedAmount() float64 {
	if t.Kind == KindExpense {
		return -t.Amount
	}
	return t.Amount
}
