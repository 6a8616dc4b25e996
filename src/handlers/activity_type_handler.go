// backend/src/handlers/activity_type_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/models"
	"github.com/merkaz770/shluchim/backend/src/processors"
	"github.com/merkaz770/shluchim/backend/src/services"
	"github.com/merkaz770/shluchim/backend/src/utils"
)

type ActivityTypeHandler struct {
	activityService *services.ActivityService
	reward          processors.RewardCalculator
}

func NewActivityTypeHandler(activityService *services.ActivityService, reward processors.RewardCalculator) *ActivityTypeHandler {
	return &ActivityTypeHandler{
		activityService: activityService,
		reward:          reward,
	}
}

// HandleListActivityTypes returns the activity catalog.
func (h *ActivityTypeHandler) HandleListActivityTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.activityService.List()
	if err != nil {
		logger.FromContext(r.Context()).Error("ListActivityTypes failed", "error", err)
		utils.SendJSONError(w, "failed to list activity types", http.StatusInternalServerError)
		return
	}
	if types == nil {
		types = []models.ActivityType{}
	}
	utils.SendJSONResponse(w, types, http.StatusOK)
}

// HandleGetRewardPreview recomputes the reward live as the representative
// edits the participant count on the submission form. Nothing is cached
// between edits.
func (h *ActivityTypeHandler) HandleGetRewardPreview(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "invalid activity type id", http.StatusBadRequest)
		return
	}
	participants, err := strconv.Atoi(r.URL.Query().Get("participants"))
	if err != nil {
		utils.SendJSONError(w, "invalid participants value", http.StatusBadRequest)
		return
	}

	def, err := h.activityService.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.SendJSONResponse(w, map[string]float64{"reward": h.reward.Compute(def, participants)}, http.StatusOK)
}

// HandleCreateActivityType saves a new definition; a definition with zero
// tiers is refused.
func (h *ActivityTypeHandler) HandleCreateActivityType(w http.ResponseWriter, r *http.Request) {
	var at models.ActivityType
	if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.activityService.Create(&at); err != nil {
		logger.FromContext(r.Context()).Warn("CreateActivityType refused", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	utils.SendJSONResponse(w, at, http.StatusCreated)
}

func (h *ActivityTypeHandler) HandleUpdateActivityType(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "invalid activity type id", http.StatusBadRequest)
		return
	}

	var at models.ActivityType
	if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	at.ID = id

	if err := h.activityService.Update(&at); err != nil {
		logger.FromContext(r.Context()).Warn("UpdateActivityType refused", "id", id, "error", err)
		writeServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, at, http.StatusOK)
}

func (h *ActivityTypeHandler) HandleDeleteActivityType(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.SendJSONError(w, "invalid activity type id", http.StatusBadRequest)
		return
	}

	if err := h.activityService.Delete(id); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, map[string]string{"message": "deleted"}, http.StatusOK)
}
