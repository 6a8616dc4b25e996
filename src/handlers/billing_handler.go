// backend/src/handlers/billing_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/merkaz770/shluchim/backend/src/database"
	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/model"
	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/merkaz770/shluchim/backend/src/services"
	"github.com/merkaz770/shluchim/backend/src/utils"
)

type BillingHandler struct {
	billingService *services.BillingService
}

func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

type billingRunRequest struct {
	Period string `json:"period"` // empty means the current calendar month
}

// HandleRunBilling triggers a billing run for the given (or current) period.
// The run is synchronous: the operator clicked the button and waits for the
// counts. Re-running the same period only skips.
func (h *BillingHandler) HandleRunBilling(w http.ResponseWriter, r *http.Request) {
	var req billingRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	summary, err := h.billingService.RunBilling(req.Period)
	if err != nil {
		logger.FromContext(r.Context()).Error("Billing run failed", "error", err)
		utils.SendJSONError(w, "billing run failed", http.StatusInternalServerError)
		return
	}
	utils.SendJSONResponse(w, summary, http.StatusOK)
}

// HandleListSubscriptionTypes returns the plan catalog.
func (h *BillingHandler) HandleListSubscriptionTypes(w http.ResponseWriter, r *http.Request) {
	subs, err := model.ListSubscriptionTypes(database.DB)
	if err != nil {
		logger.FromContext(r.Context()).Error("ListSubscriptionTypes failed", "error", err)
		utils.SendJSONError(w, "failed to list subscription types", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []models.SubscriptionType{}
	}
	utils.SendJSONResponse(w, subs, http.StatusOK)
}

// HandleCreateSubscriptionType saves a new plan.
func (h *BillingHandler) HandleCreateSubscriptionType(w http.ResponseWriter, r *http.Request) {
	var sub models.SubscriptionType
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if sub.Name == "" || sub.MonthlyCost < 0 {
		utils.SendJSONError(w, "plan requires a name and a non-negative monthly cost", http.StatusBadRequest)
		return
	}

	if err := model.CreateSubscriptionType(database.DB, &sub); err != nil {
		logger.FromContext(r.Context()).Error("CreateSubscriptionType failed", "error", err)
		utils.SendJSONError(w, "failed to create subscription type", http.StatusInternalServerError)
		return
	}
	utils.SendJSONResponse(w, sub, http.StatusCreated)
}

// HandleUpdateSubscriptionType updates an existing plan. Future billing runs
// pick up the new cost; past charges are never touched.
func (h *BillingHandler) HandleUpdateSubscriptionType(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "invalid subscription type id", http.StatusBadRequest)
		return
	}

	var sub models.SubscriptionType
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sub.ID = id

	if err := model.UpdateSubscriptionType(database.DB, &sub); err != nil {
		logger.FromContext(r.Context()).Error("UpdateSubscriptionType failed", "id", id, "error", err)
		utils.SendJSONError(w, "failed to update subscription type", http.StatusInternalServerError)
		return
	}
	utils.SendJSONResponse(w, sub, http.StatusOK)
}

// HandleDeleteSubscriptionType removes a plan. Representatives still pointing
// at it are skipped by subsequent billing runs, not failed.
func (h *BillingHandler) HandleDeleteSubscriptionType(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "invalid subscription type id", http.StatusBadRequest)
		return
	}

	if err := model.DeleteSubscriptionType(database.DB, id); err != nil {
		logger.FromContext(r.Context()).Error("DeleteSubscriptionType failed", "id", id, "error", err)
		utils.SendJSONError(w, "failed to delete subscription type", http.StatusInternalServerError)
		return
	}
	utils.SendJSONResponse(w, map[string]string{"message": "deleted"}, http.StatusOK)
}
