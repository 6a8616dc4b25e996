// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"
	"time"

	"github.com/merkaz770/shluchim/backend/src/model"
	"github.com/merkaz770/shluchim/backend/src/models"
)

const (
	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

// Define common service errors
var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrActivityTypeNotFound = errors.New("activity type not found")
	ErrNotPending           = errors.New("transaction is not pending review")
	ErrUnknownDecision      = errors.New("unknown review decision")
	ErrNothingToExport      = errors.New("no exportable transactions in selection")
)

// TransactionStore is the persistence boundary for the transaction log. All
// services mutate the log through this interface so tests can supply fakes.
type TransactionStore interface {
	GetByID(id int64) (*models.Transaction, error)
	ListByUser(userID int64) ([]models.Transaction, error)
	ListPendingReview() ([]models.Transaction, error)

	// ListUnexported returns approved, not-yet-exported transactions, the
	// candidate set for an export batch.
	ListUnexported() ([]models.Transaction, error)

	// ListForExport loads the given ids, restricted to approved and not yet
	// exported rows. Ids that do not qualify are silently absent from the
	// result.
	ListForExport(ids []int64) ([]models.Transaction, error)

	Insert(tx *models.Transaction) error
	Update(tx *models.Transaction) error

	// FindByBillingKey is the billing idempotency probe.
	FindByBillingKey(key string) (*models.Transaction, error)

	// ExistsByUserAndTitle is the legacy idempotency probe for charges that
	// predate billing keys.
	ExistsByUserAndTitle(userID int64, title string) (bool, error)

	// SetExported flips is_exported for the whole id list in one bulk update.
	SetExported(ids []int64, exported bool) error
}

// Directory exposes the read-only account and plan lookups the batch
// operations need. Billing reads it to decide whom to charge; export reads it
// for representative names and branches.
type Directory interface {
	UserByID(id int64) (*model.User, error)
	Users() ([]model.User, error)
	UsersWithSubscription() ([]model.User, error)
	SubscriptionType(id int64) (*models.SubscriptionType, error)
}

// ActivityCatalog is the definition lookup the submission path needs.
// ActivityService satisfies it; tests supply a fake.
type ActivityCatalog interface {
	Get(id int64) (*models.ActivityType, error)
}

// AttachmentStore is the blob store for receipt and bank-confirmation files.
type AttachmentStore interface {
	// Save stores the blob and returns the path it can later be opened under.
	Save(filename string, r io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	// URL returns the fetchable URL the stored blob is served under.
	URL(path string) string
}
