package processors

import (
	"testing"
	"time"

	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/stretchr/testify/assert"
)

func TestBalance(t *testing.T) {
	calc := NewBalanceCalculator()

	transactions := []models.Transaction{
		{Kind: models.KindIncome, Status: models.StatusApproved, Amount: 500},
		{Kind: models.KindExpense, Status: models.StatusApproved, Amount: 120},
		{Kind: models.KindIncome, Status: models.StatusPending, Amount: 1000},
		{Kind: models.KindExpense, Status: models.StatusRejected, Amount: 9999},
	}

	assert.Equal(t, float64(380), calc.Balance(transactions, models.StatusApproved))
	assert.Equal(t, float64(1000), calc.Balance(transactions, models.StatusPending))
	assert.Equal(t, float64(1380), calc.Balance(transactions, models.StatusApproved, models.StatusPending))
	assert.Equal(t, float64(0), calc.Balance(nil, models.StatusApproved))
	assert.Equal(t, float64(0), calc.Balance(transactions))
}

func TestProjected(t *testing.T) {
	calc := NewBalanceCalculator()

	pendingIncome := models.Transaction{Kind: models.KindIncome, Status: models.StatusPending, Amount: 1000}
	assert.Equal(t, float64(1380), calc.Projected(380, pendingIncome))

	pendingExpense := models.Transaction{Kind: models.KindExpense, Status: models.StatusPending, Amount: 400}
	assert.Equal(t, float64(-20), calc.Projected(380, pendingExpense))
}

func TestMonthlyTally(t *testing.T) {
	calc := NewBalanceCalculator()

	from := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	inMonth := time.Date(2026, time.August, 14, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.July, 30, 0, 0, 0, 0, time.UTC)

	activity := func(status models.TransactionStatus, date time.Time, typeID int64, participants int, audience models.Audience) models.Transaction {
		return models.Transaction{
			Kind:   models.KindIncome,
			Status: status,
			Date:   date,
			Details: models.TransactionDetails{
				Mode:           models.ModeActivity,
				ActivityTypeID: typeID,
				Participants:   participants,
				Audience:       audience,
			},
		}
	}

	transactions := []models.Transaction{
		activity(models.StatusApproved, inMonth, 7, 20, models.AudienceBoys),
		activity(models.StatusPending, inMonth, 7, 12, models.AudienceGirls),
		// No audience recorded: tallies as boys.
		activity(models.StatusApproved, inMonth, 7, 5, ""),
		// Wrong activity type, previous month, and rejected are all excluded.
		activity(models.StatusApproved, inMonth, 8, 40, models.AudienceBoys),
		activity(models.StatusApproved, lastMonth, 7, 30, models.AudienceBoys),
		activity(models.StatusRejected, inMonth, 7, 60, models.AudienceGirls),
	}

	tally := calc.MonthlyTally(transactions, 7, from)
	assert.Equal(t, 3, tally.Events)
	assert.Equal(t, 25, tally.Boys)
	assert.Equal(t, 12, tally.Girls)

	assert.Equal(t, ActivityTally{}, calc.MonthlyTally(nil, 7, from))
}

func TestStartOfMonth(t *testing.T) {
	in := time.Date(2026, time.August, 30, 17, 45, 12, 99, time.UTC)
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(in))
}
