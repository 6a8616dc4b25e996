package processors

import (
	"time"

	"github.com/merkaz770/shluchim/backend/src/models"
)

// ActivityTally is a period-scoped participant count for one activity type,
// split by audience.
type ActivityTally struct {
	Events int `json:"events"`
	Boys   int `json:"boys"`
	Girls  int `json:"girls"`
}

// BalanceCalculator aggregates a representative's running balance from the
// transaction log. Balances are always computed fresh from the authoritative
// log, never cached or stored as a denormalized total: transactions change
// status after the fact (review decisions, un-export, manual adjustments) and
// a stored total would drift.
type BalanceCalculator interface {
	Balance(transactions []models.Transaction, statuses ...models.TransactionStatus) float64
	Projected(currentBalance float64, pending models.Transaction) float64
	MonthlyTally(transactions []models.Transaction, activityTypeID int64, from time.Time) ActivityTally
}

type balanceCalculatorImpl struct{}

func NewBalanceCalculator() BalanceCalculator {
	return &balanceCalculatorImpl{}
}

// Balance sums the signed amounts of the transactions whose status is in the
// given filter: income contributes +amount, expense contributes -amount.
func (balanceCalculatorImpl) Balance(transactions []models.Transaction, statuses ...models.TransactionStatus) float64 {
	included := make(map[models.TransactionStatus]bool, len(statuses))
	for _, s := range statuses {
		included[s] = true
	}
	var total float64
	for _, tx := range transactions {
		if included[tx.Status] {
			total += tx.SignedAmount()
		}
	}
	return total
}

// Projected is the balance the representative would have if the pending
// transaction under review were approved. It must be recomputed whenever the
// transaction under review, or the review decision, changes.
func (balanceCalculatorImpl) Projected(currentBalance float64, pending models.Transaction) float64 {
	return currentBalance + pending.SignedAmount()
}

// MonthlyTally counts this activity type's events and participants for the
// given representative's transactions dated on or after from. Rejected
// submissions do not count; records without an audience tally as boys, which
// mirrors how these reports have always been filed.
func (balanceCalculatorImpl) MonthlyTally(transactions []models.Transaction, activityTypeID int64, from time.Time) ActivityTally {
	var tally ActivityTally
	for _, tx := range transactions {
		if tx.Status == models.StatusRejected {
			continue
		}
		if tx.Details.Mode != models.ModeActivity || tx.Details.ActivityTypeID != activityTypeID {
			continue
		}
		if tx.Date.Before(from) {
			continue
		}
		tally.Events++
		if tx.Details.Audience == models.AudienceGirls {
			tally.Girls += tx.Details.Participants
		} else {
			tally.Boys += tx.Details.Participants
		}
	}
	return tally
}

// StartOfMonth truncates t to the first instant of its calendar month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
