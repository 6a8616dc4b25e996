// backend/src/services/export_service.go
package services

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/model"
	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/merkaz770/shluchim/backend/src/processors"
	"github.com/merkaz770/shluchim/backend/src/security/validation"
)

// ExportBatch is the packaged outcome of one export run: the normalized ledger
// rows grouped by category plus the attachments that could be fetched.
type ExportBatch struct {
	IDs     []int64
	Rows    []models.ExportRow
	Files   []models.ExportFile
	Skipped int // attachments that could not be fetched
}

// ExportService packages approved, not-yet-exported transactions into an
// accounting archive and marks them exported in one bulk update afterwards.
type ExportService struct {
	store       TransactionStore
	directory   Directory
	attachments AttachmentStore
}

func NewExportService(store TransactionStore, directory Directory, attachments AttachmentStore) *ExportService {
	return &ExportService{store: store, directory: directory, attachments: attachments}
}

// PendingExport lists the candidate set the operator selects from.
func (s *ExportService) PendingExport() ([]models.Transaction, error) {
	return s.store.ListUnexported()
}

func sanitizeCell(v string) string {
	return validation.SanitizeForFormulaInjection(validation.StripUnprintable(v))
}

func (s *ExportService) fetchFile(batch *ExportBatch, category models.Category, txID int64, label, path string) {
	if path == "" {
		return
	}
	reader, err := s.attachments.Open(path)
	if err != nil {
		// A missing or unreadable attachment never aborts the batch.
		logger.L.Warn("Export: attachment fetch failed, skipping", "transactionID", txID, "path", path, "error", err)
		batch.Skipped++
		return
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		logger.L.Warn("Export: attachment read failed, skipping", "transactionID", txID, "path", path, "error", err)
		batch.Skipped++
		return
	}

	name := fmt.Sprintf("%s/%d_%s%s", category, txID, label, filepath.Ext(path))
	batch.Files = append(batch.Files, models.ExportFile{Name: name, Content: content})
}

// BuildBatch loads the selected transactions (restricted to approved,
// unexported rows), partitions them by classifier category, builds one ledger
// row per transaction, and fetches attachments for packaging. It does not mark
// anything exported.
func (s *ExportService) BuildBatch(ids []int64) (*ExportBatch, error) {
	transactions, err := s.store.ListForExport(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for export: %w", err)
	}
	if len(transactions) == 0 {
		return nil, ErrNothingToExport
	}

	batch := &ExportBatch{}
	userNames := make(map[int64]*model.User)

	for _, tx := range transactions {
		category := processors.Classify(tx)

		user, ok := userNames[tx.UserID]
		if !ok {
			user, err = s.directory.UserByID(tx.UserID)
			if err != nil {
				logger.L.Warn("Export: representative lookup failed", "transactionID", tx.ID, "userID", tx.UserID, "error", err)
				user = &model.User{ID: tx.UserID, Name: strconv.FormatInt(tx.UserID, 10)}
			}
			userNames[tx.UserID] = user
		}

		row := models.ExportRow{
			Date:           tx.Date.Format("2006-01-02"),
			Branch:         sanitizeCell(user.Branch),
			Representative: sanitizeCell(user.Name),
			Category:       string(category),
			Subject:        sanitizeCell(tx.Title),
			Amount:         tx.Amount,
			Notes:          sanitizeCell(tx.Details.Note),
		}
		if tx.Details.Mode == models.ModeSupplier && tx.Details.SupplierName != "" {
			row.Subject = sanitizeCell(tx.Details.SupplierName)
			row.Notes = sanitizeCell(tx.Title)
		}
		if bank := tx.Details.BankDetails; bank != nil {
			row.Beneficiary = sanitizeCell(bank.Beneficiary)
			row.BankNumber = sanitizeCell(bank.BankNumber)
			row.BranchNumber = sanitizeCell(bank.BranchNumber)
			row.AccountNumber = sanitizeCell(bank.AccountNumber)
		}

		batch.Rows = append(batch.Rows, row)
		batch.IDs = append(batch.IDs, tx.ID)

		s.fetchFile(batch, category, tx.ID, "receipt", tx.AttachmentPath)
		s.fetchFile(batch, category, tx.ID, "bank_confirmation", tx.BankConfirmationPath)
	}

	return batch, nil
}

// MarkExported flips the export flag for the whole batch in a single bulk
// update, once the rows and attachments have been packaged. If the update
// fails the error propagates and nothing should be assumed marked.
func (s *ExportService) MarkExported(ids []int64) error {
	if err := s.store.SetExported(ids, true); err != nil {
		return fmt.Errorf("failed to mark batch exported: %w", err)
	}
	logger.L.Info("Export batch marked exported", "transactions", len(ids))
	return nil
}

// RestoreExported undoes an accidental export batch, making the transactions
// eligible for export again. This is always an explicit operator action.
func (s *ExportService) RestoreExported(ids []int64) error {
	if err := s.store.SetExported(ids, false); err != nil {
		return fmt.Errorf("failed to restore export flags: %w", err)
	}
	logger.L.Info("Export batch restored", "transactions", len(ids))
	return nil
}

var exportHeader = []string{
	"date", "branch", "representative", "category", "subject", "amount", "notes",
	"beneficiary", "bank_number", "branch_number", "account_number",
}

// WriteZip serializes the batch into a single downloadable archive: the ledger
// CSV plus every fetched attachment under its category folder.
func (b *ExportBatch) WriteZip(w io.Writer) error {
	archive := zip.NewWriter(w)

	ledger, err := archive.Create("ledger.csv")
	if err != nil {
		return err
	}
	csvWriter := csv.NewWriter(ledger)
	if err := csvWriter.Write(exportHeader); err != nil {
		return err
	}
	for _, row := range b.Rows {
		record := []string{
			row.Date, row.Branch, row.Representative, row.Category, row.Subject,
			strconv.FormatFloat(row.Amount, 'f', 2, 64), row.Notes,
			row.Beneficiary, row.BankNumber, row.BranchNumber, row.AccountNumber,
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return err
	}

	for _, file := range b.Files {
		entry, err := archive.Create(file.Name)
		if err != nil {
			return err
		}
		if _, err := entry.Write(file.Content); err != nil {
			return err
		}
	}

	return archive.Close()
}
