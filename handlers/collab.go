package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// CollabHandler takes writes from collaborating subsystems: activity records
// for events that happen outside messaging (comments, reviews, shelf
// changes), and the shelf projection the shelves feed joins against.
type CollabHandler struct {
	activityService *services.ActivityService
}

// NewCollabHandler wires the handler.
func NewCollabHandler(activityService *services.ActivityService) *CollabHandler {
	return &CollabHandler{activityService: activityService}
}

// EmitActivity handles POST /api/internal/activities.
func (h *CollabHandler) EmitActivity(w http.ResponseWriter, r *http.Request) {
	var req models.EmitActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.activityService.Emit(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, rec)
}

// SyncShelves handles PUT /api/internal/shelves.
func (h *CollabHandler) SyncShelves(w http.ResponseWriter, r *http.Request) {
	var req models.SyncShelvesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.activityService.SyncShelves(r.Context(), &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "shelves synced"})
}
