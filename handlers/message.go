package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// MessageHandler exposes the ledger endpoints. Threads are addressed by a
// single id regardless of whether they back a conversation or a channel.
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler wires the handler.
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send handles POST /api/threads/{threadId}/messages.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg, err := h.messageService.Send(r.Context(), userID, r.PathValue("threadId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, msg)
}

// List handles GET /api/threads/{threadId}/messages?before_seq=N&limit=N.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	beforeSeq, _ := strconv.ParseInt(r.URL.Query().Get("before_seq"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	page, err := h.messageService.List(r.Context(), userID, r.PathValue("threadId"), beforeSeq, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}

// Get handles GET /api/messages/{messageId}.
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	msg, err := h.messageService.Get(r.Context(), userID, r.PathValue("messageId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}

// Edit handles PATCH /api/messages/{messageId}.
func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg, err := h.messageService.Edit(r.Context(), userID, r.PathValue("messageId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}

// Delete handles DELETE /api/messages/{messageId}.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	if err := h.messageService.Delete(r.Context(), userID, r.PathValue("messageId")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
