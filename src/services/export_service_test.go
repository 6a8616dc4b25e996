package services

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExportFixture(t *testing.T) (*ExportService, *fakeTransactionStore, *fakeDirectory, *fakeAttachmentStore) {
	t.Helper()
	store := newFakeTransactionStore()
	directory := newFakeDirectory()
	attachments := newFakeAttachmentStore()
	directory.addUser(10, "מנחם", "צפת", 0)
	return NewExportService(store, directory, attachments), store, directory, attachments
}

func approvedExpense(userID int64, title string, amount float64, details models.TransactionDetails) *models.Transaction {
	return &models.Transaction{
		UserID:  userID,
		Kind:    models.KindExpense,
		Status:  models.StatusApproved,
		Amount:  amount,
		Title:   title,
		Date:    time.Date(2026, time.August, 14, 0, 0, 0, 0, time.UTC),
		Details: details,
	}
}

func TestBuildBatchPartitionsByCategory(t *testing.T) {
	svc, store, _, _ := newExportFixture(t)

	completeBank := &models.BankTransferDetails{
		Beneficiary:   "ספק בע\"מ",
		BankNumber:    "12",
		BranchNumber:  "034",
		AccountNumber: "123456",
	}

	// A refund keeps its category even when bank details are attached.
	refund := approvedExpense(10, "החזר נסיעות", 80, models.TransactionDetails{
		Mode:        models.ModeRefund,
		BankDetails: completeBank,
	})
	supplierNew := approvedExpense(10, "תשלום לקייטרינג", 400, models.TransactionDetails{
		Mode:         models.ModeSupplier,
		SupplierName: "קייטרינג הגליל",
		BankDetails:  completeBank,
	})
	supplierExist := approvedExpense(10, "חשבון חשמל", 120, models.TransactionDetails{
		Mode: models.ModeSupplier,
	})
	income := &models.Transaction{
		UserID: 10,
		Kind:   models.KindIncome,
		Status: models.StatusApproved,
		Amount: 300,
		Title:  "שיעור תניא",
		Date:   time.Date(2026, time.August, 14, 0, 0, 0, 0, time.UTC),
		Details: models.TransactionDetails{
			Mode:           models.ModeActivity,
			ActivityTypeID: 7,
		},
	}
	for _, tx := range []*models.Transaction{refund, supplierNew, supplierExist, income} {
		require.NoError(t, store.Insert(tx))
	}

	batch, err := svc.BuildBatch([]int64{refund.ID, supplierNew.ID, supplierExist.ID, income.ID})
	require.NoError(t, err)
	require.Len(t, batch.Rows, 4)

	categories := make(map[string]models.ExportRow)
	for _, row := range batch.Rows {
		categories[row.Category] = row
	}

	assert.Contains(t, categories, "refund")
	assert.Contains(t, categories, "supplier_new")
	assert.Contains(t, categories, "supplier_exist")
	assert.Contains(t, categories, "activity")

	// Bank columns follow the presence of bank details, not the category: the
	// refund row keeps them even though its bucket stayed refund.
	assert.Equal(t, "123456", categories["supplier_new"].AccountNumber)
	assert.Equal(t, "123456", categories["refund"].AccountNumber)
	assert.Empty(t, categories["supplier_exist"].AccountNumber)

	// Supplier rows put the supplier in the subject column and the original
	// title in the notes.
	assert.Equal(t, "קייטרינג הגליל", categories["supplier_new"].Subject)
	assert.Equal(t, "תשלום לקייטרינג", categories["supplier_new"].Notes)

	assert.Equal(t, "מנחם", categories["activity"].Representative)
	assert.Equal(t, "צפת", categories["activity"].Branch)
}

func TestBuildBatchSkipsUnqualifiedIDs(t *testing.T) {
	svc, store, _, _ := newExportFixture(t)

	pending := approvedExpense(10, "עדיין ממתין", 50, models.TransactionDetails{Mode: models.ModeRefund})
	pending.Status = models.StatusPending
	exported := approvedExpense(10, "כבר יוצא", 60, models.TransactionDetails{Mode: models.ModeRefund})
	exported.IsExported = true
	eligible := approvedExpense(10, "החזר", 70, models.TransactionDetails{Mode: models.ModeRefund})
	for _, tx := range []*models.Transaction{pending, exported, eligible} {
		require.NoError(t, store.Insert(tx))
	}

	batch, err := svc.BuildBatch([]int64{pending.ID, exported.ID, eligible.ID, 9999})
	require.NoError(t, err)
	require.Len(t, batch.Rows, 1)
	assert.Equal(t, []int64{eligible.ID}, batch.IDs)
}

func TestBuildBatchNothingToExport(t *testing.T) {
	svc, _, _, _ := newExportFixture(t)

	_, err := svc.BuildBatch([]int64{1, 2, 3})
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestBuildBatchFetchesAttachments(t *testing.T) {
	svc, store, _, attachments := newExportFixture(t)

	attachments.blobs["receipt-1.pdf"] = []byte("pdf content")
	attachments.blobs["bank-1.pdf"] = []byte("bank confirmation")

	tx := approvedExpense(10, "החזר", 70, models.TransactionDetails{Mode: models.ModeRefund})
	tx.AttachmentPath = "receipt-1.pdf"
	tx.BankConfirmationPath = "bank-1.pdf"
	require.NoError(t, store.Insert(tx))

	batch, err := svc.BuildBatch([]int64{tx.ID})
	require.NoError(t, err)
	require.Len(t, batch.Files, 2)
	assert.Equal(t, 0, batch.Skipped)

	names := []string{batch.Files[0].Name, batch.Files[1].Name}
	assert.Contains(t, names[0], "refund/")
	assert.Contains(t, strings.Join(names, " "), "receipt")
	assert.Contains(t, strings.Join(names, " "), "bank_confirmation")
}

func TestBuildBatchAttachmentFailureSkipsFileNotTransaction(t *testing.T) {
	svc, store, _, attachments := newExportFixture(t)

	attachments.failing["receipt-1.pdf"] = true

	tx := approvedExpense(10, "החזר", 70, models.TransactionDetails{Mode: models.ModeRefund})
	tx.AttachmentPath = "receipt-1.pdf"
	require.NoError(t, store.Insert(tx))

	batch, err := svc.BuildBatch([]int64{tx.ID})
	require.NoError(t, err)

	// The ledger row is still produced; only the file is missing.
	assert.Len(t, batch.Rows, 1)
	assert.Empty(t, batch.Files)
	assert.Equal(t, 1, batch.Skipped)
}

func TestMarkAndRestoreExported(t *testing.T) {
	svc, store, _, _ := newExportFixture(t)

	tx := approvedExpense(10, "החזר", 70, models.TransactionDetails{Mode: models.ModeRefund})
	require.NoError(t, store.Insert(tx))

	require.NoError(t, svc.MarkExported([]int64{tx.ID}))
	stored, err := store.GetByID(tx.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsExported)

	// Marked rows are no longer export candidates.
	pending, err := svc.PendingExport()
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, svc.RestoreExported([]int64{tx.ID}))
	stored, err = store.GetByID(tx.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsExported)

	pending, err = svc.PendingExport()
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestWriteZip(t *testing.T) {
	batch := &ExportBatch{
		Rows: []models.ExportRow{
			{
				Date:           "2026-08-14",
				Branch:         "צפת",
				Representative: "מנחם",
				Category:       "refund",
				Subject:        "החזר נסיעות",
				Amount:         80.5,
				Notes:          "אוטובוס",
			},
		},
		Files: []models.ExportFile{
			{Name: "refund/1_receipt.pdf", Content: []byte("pdf content")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, batch.WriteZip(&buf))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "ledger.csv")
	assert.Contains(t, names, "refund/1_receipt.pdf")

	ledger, err := reader.Open("ledger.csv")
	require.NoError(t, err)
	defer ledger.Close()
	content := new(bytes.Buffer)
	_, err = content.ReadFrom(ledger)
	require.NoError(t, err)
	assert.Contains(t, content.String(), "date,branch,representative,category,subject,amount,notes")
	assert.Contains(t, content.String(), "80.50")
	assert.Contains(t, content.String(), "מנחם")
}
