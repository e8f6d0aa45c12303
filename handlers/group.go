package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/services"
)

// GroupHandler exposes group and membership endpoints.
type GroupHandler struct {
	groupService *services.GroupService
}

// NewGroupHandler wires the handler.
func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// Create handles POST /api/groups.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "missing identity")
		return
	}
	var req models.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	group, err := h.groupService.Create(r.Context(), userID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, group)
}

// Get handles GET /api/groups/{groupId}.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	group, err := h.groupService.Get(r.Context(), userID, r.PathValue("groupId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, group)
}

// Update handles PATCH /api/groups/{groupId}.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	group, err := h.groupService.Update(r.Context(), userID, r.PathValue("groupId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, group)
}

// Delete handles DELETE /api/groups/{groupId}.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	if err := h.groupService.Delete(r.Context(), userID, r.PathValue("groupId")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

// ListMembers handles GET /api/groups/{groupId}/members.
func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	members, err := h.groupService.ListMembers(r.Context(), userID, r.PathValue("groupId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, members)
}

// AddMember handles POST /api/groups/{groupId}/members.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.groupService.AddMember(r.Context(), userID, r.PathValue("groupId"), &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, map[string]string{"message": "member added"})
}

// RemoveMember handles DELETE /api/groups/{groupId}/members/{userId}.
// Removing yourself is leaving.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	if err := h.groupService.RemoveMember(r.Context(), userID, r.PathValue("groupId"), r.PathValue("userId")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}

// ChangeRole handles PATCH /api/groups/{groupId}/members/{userId}/role.
func (h *GroupHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.groupService.ChangeRole(r.Context(), userID, r.PathValue("groupId"), r.PathValue("userId"), &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}

// TransferOwnership handles POST /api/groups/{groupId}/transfer-ownership.
func (h *GroupHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerID(r)
	var req models.TransferOwnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.groupService.TransferOwnership(r.Context(), userID, r.PathValue("groupId"), &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "ownership transferred"})
}
