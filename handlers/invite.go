package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// InviteHandler exposes invite endpoints.
type InviteHandler struct {
	inviteService *services.InviteService
}

// NewInviteHandler wires the handler.
func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// Create handles POST /api/groups/{groupId}/invites.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	invite, err := h.inviteService.Create(r.Context(), userID, r.PathValue("groupId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, invite)
}

// List handles GET /api/groups/{groupId}/invites.
func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	invites, err := h.inviteService.ListByGroup(r.Context(), userID, r.PathValue("groupId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, invites)
}

// Redeem handles POST /api/invites/{code}/redeem.
func (h *InviteHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	group, err := h.inviteService.Redeem(r.Context(), userID, r.PathValue("code"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, group)
}
