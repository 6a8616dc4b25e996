package processors

import (
	"testing"

	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	completeBank := &models.BankTransferDetails{
		Beneficiary:   "ספק בע\"מ",
		BankNumber:    "12",
		BranchNumber:  "034",
		AccountNumber: "123456",
	}

	testCases := []struct {
		name     string
		tx       models.Transaction
		expected models.Category
	}{
		{
			name: "refund stays refund even with complete bank details",
			tx: models.Transaction{
				Kind:    models.KindExpense,
				Details: models.TransactionDetails{Mode: models.ModeRefund, BankDetails: completeBank},
			},
			expected: models.CategoryRefund,
		},
		{
			name: "supplier with complete bank details is a new supplier",
			tx: models.Transaction{
				Kind:    models.KindExpense,
				Details: models.TransactionDetails{Mode: models.ModeSupplier, BankDetails: completeBank},
			},
			expected: models.CategorySupplierNew,
		},
		{
			name: "supplier missing account number falls back to existing supplier",
			tx: models.Transaction{
				Kind: models.KindExpense,
				Details: models.TransactionDetails{
					Mode:        models.ModeSupplier,
					BankDetails: &models.BankTransferDetails{BankNumber: "12"},
				},
			},
			expected: models.CategorySupplierExist,
		},
		{
			name: "supplier without any bank details is an existing supplier",
			tx: models.Transaction{
				Kind:    models.KindExpense,
				Details: models.TransactionDetails{Mode: models.ModeSupplier},
			},
			expected: models.CategorySupplierExist,
		},
		{
			name: "income resolves to activity",
			tx: models.Transaction{
				Kind:    models.KindIncome,
				Details: models.TransactionDetails{Mode: models.ModeActivity, ActivityTypeID: 7},
			},
			expected: models.CategoryActivity,
		},
		{
			name:     "income with no details still resolves to activity",
			tx:       models.Transaction{Kind: models.KindIncome},
			expected: models.CategoryActivity,
		},
		{
			name: "subscription charge defaults to existing supplier",
			tx: models.Transaction{
				Kind:    models.KindExpense,
				Details: models.TransactionDetails{Mode: models.ModeSubscriptionCharge},
			},
			expected: models.CategorySupplierExist,
		},
		{
			name:     "legacy expense with empty mode defaults to existing supplier",
			tx:       models.Transaction{Kind: models.KindExpense},
			expected: models.CategorySupplierExist,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.tx))
		})
	}
}
