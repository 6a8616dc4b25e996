package processors

import (
	"github.com/merkaz770/shluchim/backend/src/models"
)

// Classify maps a transaction to exactly one accounting category for export
// grouping. The function is total: every transaction resolves to a category,
// never an error, and it never mutates its input.
//
// Rules, in order:
//   - refund details → CategoryRefund, regardless of any bank details present
//   - supplier details with a complete bank record (account + bank number)
//     → CategorySupplierNew
//   - any other expense, including supplier details without full bank details
//     and unrecognized or legacy modes → CategorySupplierExist. This default
//     is a policy choice carried over from how the books have always been
//     kept, not an oversight.
//   - income → CategoryActivity
func Classify(tx models.Transaction) models.Category {
	switch tx.Details.Mode {
	case models.ModeRefund:
		return models.CategoryRefund
	case models.ModeSupplier:
		if tx.Details.BankDetails.Complete() {
			return models.CategorySupplierNew
		}
		return models.CategorySupplierExist
	}
	if tx.Kind == models.KindIncome {
		return models.CategoryActivity
	}
	return models.CategorySupplierExist
}
