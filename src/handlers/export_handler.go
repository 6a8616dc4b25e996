// backend/src/handlers/export_handler.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/merkaz770/shluchim/backend/src/services"
	"github.com/merkaz770/shluchim/backend/src/utils"
)

type ExportHandler struct {
	exportService *services.ExportService
}

func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// HandleListPendingExport returns the approved, not-yet-exported transactions
// the operator selects an export batch from.
func (h *ExportHandler) HandleListPendingExport(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.exportService.PendingExport()
	if err != nil {
		logger.FromContext(r.Context()).Error("ListPendingExport failed", "error", err)
		utils.SendJSONError(w, "failed to list exportable transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	utils.SendJSONResponse(w, transactions, http.StatusOK)
}

type exportRequest struct {
	IDs []int64 `json:"ids"`
}

// HandleRunExport packages the selected transactions into a zip archive,
// marks them exported, and streams the archive back. The whole archive is
// assembled before the export flags flip, so a packaging failure leaves
// everything still eligible.
func (h *ExportHandler) HandleRunExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		utils.SendJSONError(w, "request must carry a non-empty ids list", http.StatusBadRequest)
		return
	}

	batch, err := h.exportService.BuildBatch(req.IDs)
	if err != nil {
		if errors.Is(err, services.ErrNothingToExport) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.FromContext(r.Context()).Error("Export run failed", "error", err)
		utils.SendJSONError(w, "export run failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := batch.WriteZip(&buf); err != nil {
		logger.FromContext(r.Context()).Error("Export packaging failed", "error", err)
		utils.SendJSONError(w, "export packaging failed", http.StatusInternalServerError)
		return
	}

	if err := h.exportService.MarkExported(batch.IDs); err != nil {
		// Nothing should be assumed marked; the operator is told to retry.
		logger.FromContext(r.Context()).Error("Export marking failed", "error", err)
		utils.SendJSONError(w, "failed to mark batch exported; retry the export", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("export_%s.zip", time.Now().Format("2006-01-02_150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.FromContext(r.Context()).Warn("Export download interrupted", "error", err)
	}
}

// HandleRestoreExport undoes an accidental export batch.
func (h *ExportHandler) HandleRestoreExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		utils.SendJSONError(w, "request must carry a non-empty ids list", http.StatusBadRequest)
		return
	}

	if err := h.exportService.RestoreExported(req.IDs); err != nil {
		logger.FromContext(r.Context()).Error("Export restore failed", "error", err)
		utils.SendJSONError(w, "failed to restore export batch", http.StatusInternalServerError)
		return
	}
	utils.SendJSONResponse(w, map[string]int{"restored": len(req.IDs)}, http.StatusOK)
}
