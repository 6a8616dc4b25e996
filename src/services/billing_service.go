// backend/src/services/billing_service.go
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/models"
)

// hebrewMonths are the calendar-month labels embedded in generated charge
// titles, matching how the branch office has always labelled billing periods.
var hebrewMonths = [12]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

// PeriodLabel returns the human-readable billing period for t, e.g. "ינואר 2026".
func PeriodLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", hebrewMonths[t.Month()-1], t.Year())
}

// ChargeTitle builds the generated title of a subscription charge.
func ChargeTitle(planName, period string) string {
	return fmt.Sprintf("חיוב מנוי: %s (%s)", planName, period)
}

func billingKey(userID, subscriptionTypeID int64, period string) string {
	return fmt.Sprintf("%d:%d:%s", userID, subscriptionTypeID, period)
}

// BillingSummary is the operator-facing outcome of one billing run. Every
// representative in the working set lands in exactly one counter.
type BillingSummary struct {
	Charged int `json:"charged"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// BillingService generates the monthly subscription charges. A run is
// idempotent per (representative, subscription, period): re-invoking it for
// the same period only skips.
type BillingService struct {
	store     TransactionStore
	directory Directory
	now       func() time.Time
}

func NewBillingService(store TransactionStore, directory Directory) *BillingService {
	return &BillingService{store: store, directory: directory, now: time.Now}
}

// RunBilling charges every representative with an active subscription once for
// the given period (current calendar month when empty). Representatives are
// processed serially; a failure charging one never aborts the run for the
// rest, it is logged and tallied. The returned summary is the only per-run
// report the operator gets, so no skip or failure goes uncounted.
func (s *BillingService) RunBilling(period string) (BillingSummary, error) {
	var summary BillingSummary

	if period == "" {
		period = PeriodLabel(s.now())
	}

	users, err := s.directory.UsersWithSubscription()
	if err != nil {
		return summary, fmt.Errorf("failed to enumerate subscribed representatives: %w", err)
	}

	logger.L.Info("Billing run starting", "period", period, "representatives", len(users))

	for _, user := range users {
		if !user.SubscriptionTypeID.Valid {
			continue
		}
		subID := user.SubscriptionTypeID.Int64

		sub, err := s.directory.SubscriptionType(subID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Dangling plan reference: defined default is to skip the
				// representative, not to fail the run.
				logger.L.Warn("Billing: subscription type not found, skipping representative",
					"userID", user.ID, "subscriptionTypeID", subID)
				summary.Skipped++
				continue
			}
			logger.L.Error("Billing: subscription lookup failed", "userID", user.ID, "error", err)
			summary.Failed++
			continue
		}

		key := billingKey(user.ID, subID, period)
		title := ChargeTitle(sub.Name, period)

		if _, err := s.store.FindByBillingKey(key); err == nil {
			summary.Skipped++
			continue
		} else if !errors.Is(err, ErrTransactionNotFound) {
			logger.L.Error("Billing: idempotency probe failed", "userID", user.ID, "key", key, "error", err)
			summary.Failed++
			continue
		}

		// Charges written before billing keys existed are only findable by
		// their generated title. Without this fallback a re-run over old data
		// would double-charge.
		exists, err := s.store.ExistsByUserAndTitle(user.ID, title)
		if err != nil {
			logger.L.Error("Billing: title probe failed", "userID", user.ID, "title", title, "error", err)
			summary.Failed++
			continue
		}
		if exists {
			summary.Skipped++
			continue
		}

		charge := models.Transaction{
			UserID:     user.ID,
			Kind:       models.KindExpense,
			Status:     models.StatusApproved,
			Amount:     sub.MonthlyCost,
			Title:      title,
			Date:       s.now(),
			BillingKey: key,
			Details: models.TransactionDetails{
				Mode:               models.ModeSubscriptionCharge,
				SubscriptionTypeID: subID,
				Period:             period,
			},
		}
		if err := s.store.Insert(&charge); err != nil {
			logger.L.Error("Billing: failed to insert charge", "userID", user.ID, "key", key, "error", err)
			summary.Failed++
			continue
		}
		summary.Charged++
	}

	logger.L.Info("Billing run finished", "period", period,
		"charged", summary.Charged, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}
