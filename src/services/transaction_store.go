// backend/src/services/transaction_store.go
package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/merkaz770/shluchim/backend/src/models"
)

const transactionColumns = `id, user_id, kind, status, amount, title, tx_date,
	rejection_reason, attachment_path, bank_confirmation_path, is_exported,
	billing_key, details, created_at, updated_at`

type sqliteTransactionStore struct {
	db *sql.DB
}

// NewTransactionStore returns the SQLite-backed transaction store.
func NewTransactionStore(db *sql.DB) TransactionStore {
	return &sqliteTransactionStore{db: db}
}

func scanTransaction(scan func(dest ...interface{}) error) (*models.Transaction, error) {
	var tx models.Transaction
	var rejectionReason, attachmentPath, bankConfirmationPath, billingKey sql.NullString
	var detailsJSON string

	err := scan(
		&tx.ID, &tx.UserID, &tx.Kind, &tx.Status, &tx.Amount, &tx.Title, &tx.Date,
		&rejectionReason, &attachmentPath, &bankConfirmationPath, &tx.IsExported,
		&billingKey, &detailsJSON, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.RejectionReason = rejectionReason.String
	tx.AttachmentPath = attachmentPath.String
	tx.BankConfirmationPath = bankConfirmationPath.String
	tx.BillingKey = billingKey.String

	if detailsJSON != "" {
		if err := json.Unmarshal([]byte(detailsJSON), &tx.Details); err != nil {
			return nil, fmt.Errorf("corrupt details payload for transaction %d: %w", tx.ID, err)
		}
	}
	return &tx, nil
}

func (s *sqliteTransactionStore) queryTransactions(query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

func (s *sqliteTransactionStore) GetByID(id int64) (*models.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

func (s *sqliteTransactionStore) ListByUser(userID int64) ([]models.Transaction, error) {
	return s.queryTransactions(
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY tx_date DESC, id DESC`,
		userID)
}

func (s *sqliteTransactionStore) ListPendingReview() ([]models.Transaction, error) {
	return s.queryTransactions(
		`SELECT `+transactionColumns+` FROM transactions WHERE status = ? ORDER BY created_at ASC`,
		models.StatusPending)
}

func (s *sqliteTransactionStore) ListUnexported() ([]models.Transaction, error) {
	return s.queryTransactions(
		`SELECT `+transactionColumns+` FROM transactions WHERE status = ? AND is_exported = 0 ORDER BY tx_date ASC, id ASC`,
		models.StatusApproved)
}

func (s *sqliteTransactionStore) ListForExport(ids []int64) ([]models.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, models.StatusApproved)
	return s.queryTransactions(
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE id IN (`+placeholders+`) AND status = ? AND is_exported = 0
		 ORDER BY tx_date ASC, id ASC`,
		args...)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (s *sqliteTransactionStore) Insert(tx *models.Transaction) error {
	detailsJSON, err := json.Marshal(tx.Details)
	if err != nil {
		return fmt.Errorf("failed to encode details payload: %w", err)
	}

	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	res, err := s.db.Exec(`
		INSERT INTO transactions (user_id, kind, status, amount, title, tx_date,
			rejection_reason, attachment_path, bank_confirmation_path, is_exported,
			billing_key, details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.Kind, tx.Status, tx.Amount, tx.Title, tx.Date,
		nullable(tx.RejectionReason), nullable(tx.AttachmentPath), nullable(tx.BankConfirmationPath),
		tx.IsExported, nullable(tx.BillingKey), string(detailsJSON), tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tx.ID = id
	return nil
}

func (s *sqliteTransactionStore) Update(tx *models.Transaction) error {
	detailsJSON, err := json.Marshal(tx.Details)
	if err != nil {
		return fmt.Errorf("failed to encode details payload: %w", err)
	}

	tx.UpdatedAt = time.Now()
	res, err := s.db.Exec(`
		UPDATE transactions
		SET kind = ?, status = ?, amount = ?, title = ?, tx_date = ?,
			rejection_reason = ?, attachment_path = ?, bank_confirmation_path = ?,
			is_exported = ?, billing_key = ?, details = ?, updated_at = ?
		WHERE id = ?`,
		tx.Kind, tx.Status, tx.Amount, tx.Title, tx.Date,
		nullable(tx.RejectionReason), nullable(tx.AttachmentPath), nullable(tx.BankConfirmationPath),
		tx.IsExported, nullable(tx.BillingKey), string(detailsJSON), tx.UpdatedAt, tx.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (s *sqliteTransactionStore) FindByBillingKey(key string) (*models.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE billing_key = ?`, key)
	tx, err := scanTransaction(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

func (s *sqliteTransactionStore) ExistsByUserAndTitle(userID int64, title string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM transactions WHERE user_id = ? AND title = ?`, userID, title).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetExported marks the whole id list in a single statement so a batch is
// either fully marked or not marked at all.
func (s *sqliteTransactionStore) SetExported(ids []int64, exported bool) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, exported, time.Now())
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.Exec(
		`UPDATE transactions SET is_exported = ?, updated_at = ? WHERE id IN (`+placeholders+`)`,
		args...)
	return err
}
