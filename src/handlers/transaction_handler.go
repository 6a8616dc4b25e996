// backend/src/handlers/transaction_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/merkaz770/shluchim/backend/src/config"
	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/merkaz770/shluchim/backend/src/security/validation"
	"github.com/merkaz770/shluchim/backend/src/services"
	"github.com/merkaz770/shluchim/backend/src/utils"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
	attachments        services.AttachmentStore
}

func NewTransactionHandler(transactionService *services.TransactionService, attachments services.AttachmentStore) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		attachments:        attachments,
	}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrActivityTypeNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, validation.ErrValidationFailed),
		errors.Is(err, models.ErrRejectionReasonRequired),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrNoTiers),
		errors.Is(err, services.ErrUnknownDecision),
		errors.Is(err, services.ErrNotPending):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		utils.SendJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

// HandleListTransactions returns the authenticated representative's ledger.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	transactions, err := h.transactionService.ListByUser(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("ListTransactions failed", "error", err)
		utils.SendJSONError(w, "failed to list transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	utils.SendJSONResponse(w, transactions, http.StatusOK)
}

// HandleGetTransaction returns a single transaction. Representatives may only
// see their own entries; managers may see all.
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	txID, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionService.Get(txID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tx.UserID != userID && !IsAdminFromContext(r.Context()) {
		utils.SendJSONError(w, "forbidden", http.StatusForbidden)
		return
	}
	utils.SendJSONResponse(w, tx, http.StatusOK)
}

// HandleSubmitActivity files an income-generating activity report.
func (h *TransactionHandler) HandleSubmitActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var input services.ActivityReportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionService.SubmitActivity(userID, input)
	if err != nil {
		logger.FromContext(r.Context()).Warn("SubmitActivity refused", "error", err)
		writeServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, tx, http.StatusCreated)
}

// HandleSubmitExpense files an expense/reimbursement request.
func (h *TransactionHandler) HandleSubmitExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var input services.ExpenseRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionService.SubmitExpense(userID, input)
	if err != nil {
		logger.FromContext(r.Context()).Warn("SubmitExpense refused", "error", err)
		writeServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, tx, http.StatusCreated)
}

// HandleUploadAttachment stores a receipt (or bank confirmation, with
// ?kind=bank_confirmation) and records it on the transaction.
func (h *TransactionHandler) HandleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	txID, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionService.Get(txID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tx.UserID != userID && !IsAdminFromContext(r.Context()) {
		utils.SendJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxAttachmentSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxAttachmentSizeBytes); err != nil {
		utils.SendJSONError(w, "attachment too large or malformed", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.SendJSONError(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := validation.ValidateAttachmentFilename(header.Filename); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := validation.ValidateAttachmentContent(file); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	path, err := h.attachments.Save(header.Filename, file)
	if err != nil {
		logger.FromContext(r.Context()).Error("Attachment save failed", "transactionID", txID, "error", err)
		utils.SendJSONError(w, "failed to store attachment", http.StatusInternalServerError)
		return
	}

	bankConfirmation := r.URL.Query().Get("kind") == "bank_confirmation"
	updated, err := h.transactionService.AttachReceipt(txID, path, bankConfirmation)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.SendJSONResponse(w, map[string]string{
		"url":                h.attachments.URL(path),
		"transaction_status": string(updated.Status),
	}, http.StatusOK)
}

// HandleServeAttachment streams a stored attachment back to the client.
func (h *TransactionHandler) HandleServeAttachment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	reader, err := h.attachments.Open(name)
	if err != nil {
		utils.SendJSONError(w, "attachment not found", http.StatusNotFound)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	if _, err := io.Copy(w, reader); err != nil {
		logger.FromContext(r.Context()).Warn("Attachment stream interrupted", "name", name, "error", err)
	}
}

// HandleGetBalance returns the representative's approved balance, computed
// fresh from the log.
func (h *TransactionHandler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	balance, err := h.transactionService.Balance(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Balance computation failed", "error", err)
		utils.SendJSONError(w, "failed to compute balance", http.StatusInternalServerError)
		return
	}
	utils.SendJSONResponse(w, map[string]float64{"balance": utils.RoundFloat(balance, 2)}, http.StatusOK)
}

// HandleGetProjectedBalance returns the balance before and after approving the
// pending transaction under review.
func (h *TransactionHandler) HandleGetProjectedBalance(w http.ResponseWriter, r *http.Request) {
	txID, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	current, projected, err := h.transactionService.ProjectedBalance(txID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, map[string]float64{
		"current":   utils.RoundFloat(current, 2),
		"projected": utils.RoundFloat(projected, 2),
	}, http.StatusOK)
}

// HandleGetMonthlyTally returns this month's activity counters for the
// submission form.
func (h *TransactionHandler) HandleGetMonthlyTally(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	activityTypeID, err := strconv.ParseInt(r.URL.Query().Get("activity_type_id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid activity_type_id", http.StatusBadRequest)
		return
	}

	tally, err := h.transactionService.MonthlyTally(userID, activityTypeID)
	if err != nil {
		logger.FromContext(r.Context()).Error("MonthlyTally failed", "error", err)
		utils.SendJSONError(w, "failed to compute tally", http.StatusInternalServerError)
		return
	}
	utils.SendJSONResponse(w, tally, http.StatusOK)
}

// HandleListPendingReview returns the manager's review queue.
func (h *TransactionHandler) HandleListPendingReview(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.transactionService.ListPendingReview()
	if err != nil {
		logger.FromContext(r.Context()).Error("ListPendingReview failed", "error", err)
		utils.SendJSONError(w, "failed to list pending transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	utils.SendJSONResponse(w, transactions, http.StatusOK)
}

// HandleReviewTransaction applies a manager decision to a pending
// transaction. Rejection without a reason is refused with no state change.
func (h *TransactionHandler) HandleReviewTransaction(w http.ResponseWriter, r *http.Request) {
	adminID, _ := GetUserIDFromContext(r.Context())
	txID, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	var input services.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionService.Review(adminID, txID, input)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Review refused", "transactionID", txID, "error", err)
		writeServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, tx, http.StatusOK)
}

// HandleManualAdjustment inserts a manager credit/debit directly as approved.
func (h *TransactionHandler) HandleManualAdjustment(w http.ResponseWriter, r *http.Request) {
	adminID, _ := GetUserIDFromContext(r.Context())

	var input services.ManualAdjustmentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionService.ManualAdjustment(adminID, input)
	if err != nil {
		logger.FromContext(r.Context()).Warn("ManualAdjustment refused", "error", err)
		writeServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, tx, http.StatusCreated)
}
