package services

import (
	"errors"
	"testing"
	"time"

	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBillingFixture() (*BillingService, *fakeTransactionStore, *fakeDirectory) {
	store := newFakeTransactionStore()
	directory := newFakeDirectory()
	svc := NewBillingService(store, directory)
	svc.now = func() time.Time {
		return time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	}
	return svc, store, directory
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "ינואר 2026", PeriodLabel(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "דצמבר 2025", PeriodLabel(time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)))
}

func TestChargeTitle(t *testing.T) {
	assert.Equal(t, "חיוב מנוי: מנוי בסיסי (ינואר 2026)", ChargeTitle("מנוי בסיסי", "ינואר 2026"))
}

func TestRunBillingChargesSubscribedRepresentatives(t *testing.T) {
	svc, store, directory := newBillingFixture()

	directory.subs[1] = &models.SubscriptionType{ID: 1, Name: "מנוי בסיסי", MonthlyCost: 50}
	directory.addUser(10, "מנחם", "צפת", 1)
	directory.addUser(11, "שניאור", "אילת", 1)
	directory.addUser(12, "לוי", "חיפה", 0) // no subscription, not in the working set

	summary, err := svc.RunBilling("")
	require.NoError(t, err)
	assert.Equal(t, BillingSummary{Charged: 2, Skipped: 0, Failed: 0}, summary)

	charges, err := store.ListByUser(10)
	require.NoError(t, err)
	require.Len(t, charges, 1)
	charge := charges[0]
	assert.Equal(t, models.KindExpense, charge.Kind)
	assert.Equal(t, models.StatusApproved, charge.Status)
	assert.Equal(t, float64(50), charge.Amount)
	assert.Equal(t, "חיוב מנוי: מנוי בסיסי (ינואר 2026)", charge.Title)
	assert.Equal(t, "10:1:ינואר 2026", charge.BillingKey)
	assert.Equal(t, models.ModeSubscriptionCharge, charge.Details.Mode)
	assert.Equal(t, "ינואר 2026", charge.Details.Period)
}

func TestRunBillingIsIdempotentPerPeriod(t *testing.T) {
	svc, _, directory := newBillingFixture()

	directory.subs[1] = &models.SubscriptionType{ID: 1, Name: "מנוי בסיסי", MonthlyCost: 50}
	directory.addUser(10, "מנחם", "צפת", 1)
	directory.addUser(11, "שניאור", "אילת", 1)

	first, err := svc.RunBilling("ינואר 2026")
	require.NoError(t, err)
	assert.Equal(t, BillingSummary{Charged: 2}, first)

	second, err := svc.RunBilling("ינואר 2026")
	require.NoError(t, err)
	assert.Equal(t, BillingSummary{Charged: 0, Skipped: 2}, second)

	// A different period charges again.
	third, err := svc.RunBilling("פברואר 2026")
	require.NoError(t, err)
	assert.Equal(t, BillingSummary{Charged: 2}, third)
}

func TestRunBillingSkipsLegacyChargeByTitle(t *testing.T) {
	svc, store, directory := newBillingFixture()

	directory.subs[1] = &models.SubscriptionType{ID: 1, Name: "מנוי בסיסי", MonthlyCost: 50}
	directory.addUser(10, "מנחם", "צפת", 1)

	// A charge written before billing keys existed: matching title, no key.
	require.NoError(t, store.Insert(&models.Transaction{
		UserID: 10,
		Kind:   models.KindExpense,
		Status: models.StatusApproved,
		Amount: 50,
		Title:  ChargeTitle("מנוי בסיסי", "ינואר 2026"),
	}))

	summary, err := svc.RunBilling("ינואר 2026")
	require.NoError(t, err)
	assert.Equal(t, BillingSummary{Skipped: 1}, summary)

	charges, err := store.ListByUser(10)
	require.NoError(t, err)
	assert.Len(t, charges, 1)
}

func TestRunBillingSkipsDanglingPlanReference(t *testing.T) {
	svc, _, directory := newBillingFixture()

	// User points at a plan that no longer exists.
	directory.addUser(10, "מנחם", "צפת", 99)

	summary, err := svc.RunBilling("ינואר 2026")
	require.NoError(t, err)
	assert.Equal(t, BillingSummary{Skipped: 1}, summary)
}

func TestRunBillingFailureDoesNotAbortRun(t *testing.T) {
	svc, store, directory := newBillingFixture()

	directory.subs[1] = &models.SubscriptionType{ID: 1, Name: "מנוי בסיסי", MonthlyCost: 50}
	directory.addUser(10, "מנחם", "צפת", 1)
	directory.addUser(11, "שניאור", "אילת", 1)
	directory.addUser(12, "לוי", "חיפה", 1)
	store.insertErrFor[11] = errors.New("disk full")

	summary, err := svc.RunBilling("ינואר 2026")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Charged)
	assert.Equal(t, 1, summary.Failed)

	// The failed representative was not charged; the others were.
	failed, err := store.ListByUser(11)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestRunBillingEnumerationFailureAborts(t *testing.T) {
	svc, _, directory := newBillingFixture()
	directory.usersErr = errors.New("db locked")

	_, err := svc.RunBilling("ינואר 2026")
	assert.Error(t, err)
}
