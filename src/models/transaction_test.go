package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove(t *testing.T) {
	tx := Transaction{Status: StatusPending}
	require.NoError(t, tx.Approve())
	assert.Equal(t, StatusApproved, tx.Status)

	// Approving again is not allowed.
	assert.ErrorIs(t, tx.Approve(), ErrInvalidTransition)
}

func TestApproveClearsRejectionReason(t *testing.T) {
	// A stale reason from an earlier edit must not survive an approval.
	tx := Transaction{Status: StatusPending, RejectionReason: "חסרה קבלה"}
	require.NoError(t, tx.Approve())
	assert.Empty(t, tx.RejectionReason)
}

func TestReject(t *testing.T) {
	tx := Transaction{Status: StatusPending}
	require.NoError(t, tx.Reject("חסרה קבלה"))
	assert.Equal(t, StatusRejected, tx.Status)
	assert.Equal(t, "חסרה קבלה", tx.RejectionReason)
}

func TestRejectRequiresReason(t *testing.T) {
	for _, reason := range []string{"", "   ", "\t\n"} {
		tx := Transaction{Status: StatusPending}
		err := tx.Reject(reason)
		assert.ErrorIs(t, err, ErrRejectionReasonRequired)
		// Refusal leaves the transaction untouched.
		assert.Equal(t, StatusPending, tx.Status)
		assert.Empty(t, tx.RejectionReason)
	}
}

func TestRejectedIsTerminal(t *testing.T) {
	tx := Transaction{Status: StatusPending}
	require.NoError(t, tx.Reject("סכום שגוי"))

	assert.ErrorIs(t, tx.Approve(), ErrInvalidTransition)
	assert.ErrorIs(t, tx.Reject("סיבה אחרת"), ErrInvalidTransition)
	assert.Equal(t, StatusRejected, tx.Status)
	assert.Equal(t, "סכום שגוי", tx.RejectionReason)
}

func TestApprovedCannotBeRejected(t *testing.T) {
	tx := Transaction{Status: StatusApproved}
	assert.ErrorIs(t, tx.Reject("מאוחר מדי"), ErrInvalidTransition)
	assert.Equal(t, StatusApproved, tx.Status)
}

func TestSignedAmount(t *testing.T) {
	income := Transaction{Kind: KindIncome, Amount: 250}
	assert.Equal(t, float64(250), income.SignedAmount())

	expense := Transaction{Kind: KindExpense, Amount: 250}
	assert.Equal(t, float64(-250), expense.SignedAmount())
}

func TestBankTransferDetailsComplete(t *testing.T) {
	var nilDetails *BankTransferDetails
	assert.False(t, nilDetails.Complete())

	assert.False(t, (&BankTransferDetails{AccountNumber: "123456"}).Complete())
	assert.False(t, (&BankTransferDetails{BankNumber: "12"}).Complete())
	assert.False(t, (&BankTransferDetails{AccountNumber: "  ", BankNumber: "12"}).Complete())
	assert.True(t, (&BankTransferDetails{AccountNumber: "123456", BankNumber: "12"}).Complete())
}
