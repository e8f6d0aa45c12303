package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// ReadStateHandler exposes read-cursor and unread-count endpoints.
type ReadStateHandler struct {
	readService *services.ReadStateService
}

// NewReadStateHandler wires the handler.
func NewReadStateHandler(readService *services.ReadStateService) *ReadStateHandler {
	return &ReadStateHandler{readService: readService}
}

// MarkRead handles POST /api/threads/{threadId}/read.
func (h *ReadStateHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cursor, err := h.readService.MarkRead(r.Context(), userID, r.PathValue("threadId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, cursor)
}

// GetCursor handles GET /api/threads/{threadId}/read.
func (h *ReadStateHandler) GetCursor(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	cursor, err := h.readService.GetCursor(r.Context(), userID, r.PathValue("threadId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, cursor)
}

// ListUnread handles GET /api/unreads.
func (h *ReadStateHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	infos, err := h.readService.ListUnread(r.Context(), userID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, infos)
}
