package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// ChannelHandler exposes channel endpoints.
type ChannelHandler struct {
	channelService *services.ChannelService
}

// NewChannelHandler wires the handler.
func NewChannelHandler(channelService *services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// Create handles POST /api/groups/{groupId}/channels.
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ch, err := h.channelService.Create(r.Context(), userID, r.PathValue("groupId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, ch)
}

// List handles GET /api/groups/{groupId}/channels.
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	channels, err := h.channelService.List(r.Context(), userID, r.PathValue("groupId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, channels)
}

// Get handles GET /api/channels/{channelId}.
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	ch, err := h.channelService.Get(r.Context(), userID, r.PathValue("channelId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, ch)
}

// Update handles PATCH /api/channels/{channelId}.
func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.UpdateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ch, err := h.channelService.Update(r.Context(), userID, r.PathValue("channelId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, ch)
}

// Delete handles DELETE /api/channels/{channelId}.
func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	if err := h.channelService.Delete(r.Context(), userID, r.PathValue("channelId")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "channel deleted"})
}
