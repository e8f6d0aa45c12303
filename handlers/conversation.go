package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// ConversationHandler exposes private-conversation endpoints.
type ConversationHandler struct {
	convService *services.ConversationService
}

// NewConversationHandler wires the handler.
func NewConversationHandler(convService *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

type createConversationRequest struct {
	UserID string `json:"user_id"`
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

// CreateOrGet handles POST /api/conversations. Idempotent: posting the same
// peer twice returns the same conversation.
func (h *ConversationHandler) CreateOrGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	conv, err := h.convService.GetOrCreate(r.Context(), userID, req.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, conv)
}

// List handles GET /api/conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	convs, err := h.convService.List(r.Context(), userID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, convs)
}

// Get handles GET /api/conversations/{conversationId}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	conv, err := h.convService.Get(r.Context(), userID, r.PathValue("conversationId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, conv)
}

// SetArchived handles POST /api/conversations/{conversationId}/archive.
func (h *ConversationHandler) SetArchived(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.convService.SetArchived(r.Context(), userID, r.PathValue("conversationId"), req.Archived); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]bool{"archived": req.Archived})
}
