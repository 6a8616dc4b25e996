// backend/src/services/transaction_service.go
package services

import (
	"fmt"
	"time"

	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/merkaz770/shluchim/backend/src/processors"
	"github.com/merkaz770/shluchim/backend/src/security/validation"
	"github.com/patrickmn/go-cache"
)

const adminSummaryCacheKey = "admin:summary"

// ActivityReportInput is a representative's income submission: an activity
// they ran, whose reward is computed server-side from the activity type tiers.
type ActivityReportInput struct {
	ActivityTypeID int64             `json:"activity_type_id"`
	Title          string            `json:"title"`
	Date           string            `json:"date"`
	Participants   int               `json:"participants"`
	Audience       models.Audience   `json:"audience"`
	CustomAnswers  map[string]string `json:"custom_answers"`
}

// ExpenseRequestInput is a representative's expense/reimbursement request.
type ExpenseRequestInput struct {
	Mode         models.DetailsMode          `json:"mode"` // refund or supplier
	Title        string                      `json:"title"`
	Date         string                      `json:"date"`
	Amount       float64                     `json:"amount"`
	Note         string                      `json:"note"`
	SupplierName string                      `json:"supplier_name"`
	BankDetails  *models.BankTransferDetails `json:"bank_details"`
}

// ReviewInput is a manager's decision on a pending transaction.
type ReviewInput struct {
	Decision string `json:"decision"` // "approve" or "reject"
	Reason   string `json:"reason"`
}

// ManualAdjustmentInput is a manager-initiated credit or debit, inserted
// directly as approved.
type ManualAdjustmentInput struct {
	UserID int64                  `json:"user_id"`
	Kind   models.TransactionKind `json:"kind"`
	Amount float64                `json:"amount"`
	Title  string                 `json:"title"`
	Date   string                 `json:"date"`
	Note   string                 `json:"note"`
}

// RepresentativeSummary is one row of the manager dashboard.
type RepresentativeSummary struct {
	UserID       int64   `json:"user_id"`
	Name         string  `json:"name"`
	Branch       string  `json:"branch"`
	Balance      float64 `json:"balance"`
	PendingCount int     `json:"pending_count"`
}

// TransactionService owns the transaction lifecycle: submission, manager
// review, manual adjustments, and the balance/tally reads derived from the
// log.
type TransactionService struct {
	store      TransactionStore
	directory  Directory
	activities ActivityCatalog
	reward     processors.RewardCalculator
	balance    processors.BalanceCalculator
	cache      *cache.Cache
}

func NewTransactionService(
	store TransactionStore,
	directory Directory,
	activities ActivityCatalog,
	reward processors.RewardCalculator,
	balance processors.BalanceCalculator,
	c *cache.Cache,
) *TransactionService {
	return &TransactionService{
		store:      store,
		directory:  directory,
		activities: activities,
		reward:     reward,
		balance:    balance,
		cache:      c,
	}
}

func (s *TransactionService) invalidateSummary() {
	s.cache.Delete(adminSummaryCacheKey)
}

// SubmitActivity validates an activity report, computes its reward from the
// activity type's tiers, and enters it into the log as a pending income
// transaction. A participant count no tier covers yields a zero-reward
// submission, not an error.
func (s *TransactionService) SubmitActivity(userID int64, input ActivityReportInput) (*models.Transaction, error) {
	def, err := s.activities.Get(input.ActivityTypeID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateParticipants(input.Participants); err != nil {
		return nil, err
	}
	if err := def.ValidateAnswers(input.CustomAnswers); err != nil {
		return nil, fmt.Errorf("%w: %v", validation.ErrValidationFailed, err)
	}
	date, err := validation.ParseDate(input.Date, "date")
	if err != nil {
		return nil, err
	}

	title := validation.SanitizeText(input.Title)
	if title == "" {
		title = def.Name
	}
	if err := validation.ValidateStringMaxLength(title, validation.MaxTitleLength, "title"); err != nil {
		return nil, err
	}

	audience := input.Audience
	if audience != models.AudienceGirls {
		audience = models.AudienceBoys
	}

	tx := models.Transaction{
		UserID: userID,
		Kind:   models.KindIncome,
		Status: models.StatusPending,
		Amount: s.reward.Compute(def, input.Participants),
		Title:  title,
		Date:   date,
		Details: models.TransactionDetails{
			Mode:           models.ModeActivity,
			ActivityTypeID: def.ID,
			Participants:   input.Participants,
			Audience:       audience,
			CustomAnswers:  input.CustomAnswers,
		},
	}
	if err := s.store.Insert(&tx); err != nil {
		return nil, err
	}

	s.invalidateSummary()
	logger.L.Info("Activity report submitted", "userID", userID, "transactionID", tx.ID,
		"activityTypeID", def.ID, "participants", input.Participants, "reward", tx.Amount)
	return &tx, nil
}

// SubmitExpense enters a refund or supplier payment request as a pending
// expense transaction.
func (s *TransactionService) SubmitExpense(userID int64, input ExpenseRequestInput) (*models.Transaction, error) {
	if input.Mode != models.ModeRefund && input.Mode != models.ModeSupplier {
		return nil, fmt.Errorf("%w: expense mode must be refund or supplier", validation.ErrValidationFailed)
	}
	if err := validation.ValidateAmount(input.Amount, "amount"); err != nil {
		return nil, err
	}
	date, err := validation.ParseDate(input.Date, "date")
	if err != nil {
		return nil, err
	}

	title := validation.SanitizeText(input.Title)
	if err := validation.ValidateStringNotEmpty(title, "title"); err != nil {
		return nil, err
	}
	if err := validation.ValidateStringMaxLength(title, validation.MaxTitleLength, "title"); err != nil {
		return nil, err
	}

	note := validation.SanitizeText(input.Note)
	if err := validation.ValidateStringMaxLength(note, validation.MaxNoteLength, "note"); err != nil {
		return nil, err
	}

	details := models.TransactionDetails{
		Mode: input.Mode,
		Note: note,
	}
	if input.Mode == models.ModeSupplier {
		details.SupplierName = validation.SanitizeText(input.SupplierName)
		if bank := input.BankDetails; bank != nil {
			for _, field := range []struct{ name, value string }{
				{"beneficiary", bank.Beneficiary},
				{"bank number", bank.BankNumber},
				{"branch number", bank.BranchNumber},
				{"account number", bank.AccountNumber},
			} {
				if err := validation.ValidateStringMaxLength(field.value, validation.MaxBankFieldLength, field.name); err != nil {
					return nil, err
				}
			}
			details.BankDetails = &models.BankTransferDetails{
				Beneficiary:   validation.SanitizeText(bank.Beneficiary),
				BankNumber:    validation.SanitizeText(bank.BankNumber),
				BranchNumber:  validation.SanitizeText(bank.BranchNumber),
				AccountNumber: validation.SanitizeText(bank.AccountNumber),
			}
		}
	}

	tx := models.Transaction{
		UserID:  userID,
		Kind:    models.KindExpense,
		Status:  models.StatusPending,
		Amount:  input.Amount,
		Title:   title,
		Date:    date,
		Details: details,
	}
	if err := s.store.Insert(&tx); err != nil {
		return nil, err
	}

	s.invalidateSummary()
	logger.L.Info("Expense request submitted", "userID", userID, "transactionID", tx.ID, "mode", input.Mode, "amount", input.Amount)
	return &tx, nil
}

// Review applies a manager's approve/reject decision. Rejection without a
// reason is refused with no state change; either refusal or a store failure
// propagates to the caller for a user-visible retry.
func (s *TransactionService) Review(adminID, txID int64, input ReviewInput) (*models.Transaction, error) {
	tx, err := s.store.GetByID(txID)
	if err != nil {
		return nil, err
	}

	switch input.Decision {
	case "approve":
		if err := tx.Approve(); err != nil {
			return nil, err
		}
	case "reject":
		if err := tx.Reject(validation.SanitizeText(input.Reason)); err != nil {
			return nil, err
		}
		if err := validation.ValidateStringMaxLength(tx.RejectionReason, validation.MaxRejectionReasonLength, "rejection reason"); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownDecision
	}

	if err := s.store.Update(tx); err != nil {
		return nil, err
	}

	s.invalidateSummary()
	logger.L.Info("Transaction reviewed", "adminID", adminID, "transactionID", tx.ID, "decision", input.Decision)
	return tx, nil
}

// ManualAdjustment inserts a manager-initiated credit or debit directly as
// approved, so it takes effect on the balance immediately.
func (s *TransactionService) ManualAdjustment(adminID int64, input ManualAdjustmentInput) (*models.Transaction, error) {
	if input.Kind != models.KindIncome && input.Kind != models.KindExpense {
		return nil, fmt.Errorf("%w: kind must be income or expense", validation.ErrValidationFailed)
	}
	if err := validation.ValidateAmount(input.Amount, "amount"); err != nil {
		return nil, err
	}
	if _, err := s.directory.UserByID(input.UserID); err != nil {
		return nil, fmt.Errorf("representative %d not found: %w", input.UserID, err)
	}

	date := time.Now()
	if input.Date != "" {
		parsed, err := validation.ParseDate(input.Date, "date")
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	title := validation.SanitizeText(input.Title)
	if err := validation.ValidateStringNotEmpty(title, "title"); err != nil {
		return nil, err
	}

	tx := models.Transaction{
		UserID: input.UserID,
		Kind:   input.Kind,
		Status: models.StatusApproved,
		Amount: input.Amount,
		Title:  title,
		Date:   date,
		Details: models.TransactionDetails{
			Mode:    models.ModeManualAdminAction,
			Note:    validation.SanitizeText(input.Note),
			AdminID: adminID,
		},
	}
	if err := s.store.Insert(&tx); err != nil {
		return nil, err
	}

	s.invalidateSummary()
	logger.L.Info("Manual adjustment recorded", "adminID", adminID, "userID", input.UserID,
		"kind", input.Kind, "amount", input.Amount)
	return &tx, nil
}

// Get loads a single transaction.
func (s *TransactionService) Get(txID int64) (*models.Transaction, error) {
	return s.store.GetByID(txID)
}

// ListByUser returns a representative's full ledger, newest first.
func (s *TransactionService) ListByUser(userID int64) ([]models.Transaction, error) {
	return s.store.ListByUser(userID)
}

// ListPendingReview returns the manager's review queue.
func (s *TransactionService) ListPendingReview() ([]models.Transaction, error) {
	return s.store.ListPendingReview()
}

// Balance computes a representative's approved balance fresh from the log.
func (s *TransactionService) Balance(userID int64) (float64, error) {
	transactions, err := s.store.ListByUser(userID)
	if err != nil {
		return 0, err
	}
	return s.balance.Balance(transactions, models.StatusApproved), nil
}

// ProjectedBalance returns the current approved balance alongside the balance
// the representative would have if the given pending transaction were
// approved.
func (s *TransactionService) ProjectedBalance(txID int64) (current, projected float64, err error) {
	tx, err := s.store.GetByID(txID)
	if err != nil {
		return 0, 0, err
	}
	if tx.Status != models.StatusPending {
		return 0, 0, ErrNotPending
	}
	transactions, err := s.store.ListByUser(tx.UserID)
	if err != nil {
		return 0, 0, err
	}
	current = s.balance.Balance(transactions, models.StatusApproved)
	projected = s.balance.Projected(current, *tx)
	return current, projected, nil
}

// MonthlyTally counts this calendar month's events and participants for one
// activity type, shown live on the submission form.
func (s *TransactionService) MonthlyTally(userID, activityTypeID int64) (processors.ActivityTally, error) {
	transactions, err := s.store.ListByUser(userID)
	if err != nil {
		return processors.ActivityTally{}, err
	}
	from := processors.StartOfMonth(time.Now())
	return s.balance.MonthlyTally(transactions, activityTypeID, from), nil
}

// AttachReceipt records a stored attachment path on a transaction. The second
// slot holds the optional bank confirmation.
func (s *TransactionService) AttachReceipt(txID int64, path string, bankConfirmation bool) (*models.Transaction, error) {
	tx, err := s.store.GetByID(txID)
	if err != nil {
		return nil, err
	}
	if bankConfirmation {
		tx.BankConfirmationPath = path
	} else {
		tx.AttachmentPath = path
	}
	if err := s.store.Update(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// AdminSummary builds the manager dashboard: every representative's approved
// balance and pending queue depth. Balances are still computed from the log on
// every rebuild; the cache only smooths repeated dashboard loads and is
// dropped on any write that could change it.
func (s *TransactionService) AdminSummary() ([]RepresentativeSummary, error) {
	if cached, found := s.cache.Get(adminSummaryCacheKey); found {
		if summaries, ok := cached.([]RepresentativeSummary); ok {
			return summaries, nil
		}
	}

	users, err := s.directory.Users()
	if err != nil {
		return nil, err
	}

	summaries := make([]RepresentativeSummary, 0, len(users))
	for _, user := range users {
		transactions, err := s.store.ListByUser(user.ID)
		if err != nil {
			return nil, err
		}
		summary := RepresentativeSummary{
			UserID:  user.ID,
			Name:    user.Name,
			Branch:  user.Branch,
			Balance: s.balance.Balance(transactions, models.StatusApproved),
		}
		for _, tx := range transactions {
			if tx.Status == models.StatusPending {
				summary.PendingCount++
			}
		}
		summaries = append(summaries, summary)
	}

	s.cache.Set(adminSummaryCacheKey, summaries, DefaultCacheExpiration)
	return summaries, nil
}
