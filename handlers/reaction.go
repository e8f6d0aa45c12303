package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// ReactionHandler exposes reaction endpoints. The symbol travels in the body:
// emoji in URL paths invite encoding trouble.
type ReactionHandler struct {
	reactionService *services.ReactionService
}

// NewReactionHandler wires the handler.
func NewReactionHandler(reactionService *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactionService: reactionService}
}

// Toggle handles POST /api/messages/{messageId}/reactions.
func (h *ReactionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.ToggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.reactionService.Toggle(r.Context(), userID, r.PathValue("messageId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, result)
}

// Get handles GET /api/messages/{messageId}/reactions.
func (h *ReactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	groups, err := h.reactionService.Get(r.Context(), userID, r.PathValue("messageId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, groups)
}
