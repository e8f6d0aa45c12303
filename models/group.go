package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Visibility of a group.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Role within a group. Exactly one owner exists per group at all times.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// Rank orders roles for "caller role > target role" checks.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleModerator:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// Group size bounds. Membership checks assume O(1) lookups; unbounded groups
// would degrade the per-append unread fan-out.
const (
	MaxGroupMembers  = 10000
	MaxGroupChannels = 200
)

// Group is a named multi-party space owning one or more channels.
type Group struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Visibility  Visibility `json:"visibility"`
	CreatorID   string     `json:"creator_id"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	BookIDs     []string   `json:"book_ids,omitempty"`
	Channels    []Channel  `json:"channels,omitempty"`
}

// Membership is a (group, user) pair with a role.
type Membership struct {
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateGroupRequest creates a group plus its default channel atomically.
type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Visibility  string   `json:"visibility"`
	BookIDs     []string `json:"book_ids,omitempty"`
}

func (r *CreateGroupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if utf8.RuneCountInString(r.Name) < 1 {
		return fmt.Errorf("group name is required")
	}
	if utf8.RuneCountInString(r.Name) > 100 {
		return fmt.Errorf("group name must be at most 100 characters")
	}
	if r.Visibility == "" {
		r.Visibility = string(VisibilityPublic)
	}
	if r.Visibility != string(VisibilityPublic) && r.Visibility != string(VisibilityPrivate) {
		return fmt.Errorf("visibility must be public or private")
	}
	if utf8.RuneCountInString(r.Description) > 1000 {
		return fmt.Errorf("description must be at most 1000 characters")
	}
	return nil
}

// UpdateGroupRequest is an explicit whitelist of mutable group fields.
// Nil means "leave unchanged"; there is deliberately no raw passthrough of
// request fields into the update statement.
type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Visibility  *string `json:"visibility,omitempty"`
}

func (r *UpdateGroupRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		if utf8.RuneCountInString(trimmed) < 1 || utf8.RuneCountInString(trimmed) > 100 {
			return fmt.Errorf("group name must be 1-100 characters")
		}
		*r.Name = trimmed
	}
	if r.Description != nil && utf8.RuneCountInString(*r.Description) > 1000 {
		return fmt.Errorf("description must be at most 1000 characters")
	}
	if r.Visibility != nil &&
		*r.Visibility != string(VisibilityPublic) && *r.Visibility != string(VisibilityPrivate) {
		return fmt.Errorf("visibility must be public or private")
	}
	return nil
}

// ChangeRoleRequest changes a member's role. Owner assignment goes through
// the transfer endpoint, not here.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

func (r *ChangeRoleRequest) Validate() error {
	if r.Role != string(RoleModerator) && r.Role != string(RoleMember) {
		return fmt.Errorf("role must be moderator or member")
	}
	return nil
}

// AddMemberRequest adds a user to a group as a plain member.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

func (r *AddMemberRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// TransferOwnershipRequest hands the owner role to another member.
type TransferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id"`
}

func (r *TransferOwnershipRequest) Validate() error {
	if strings.TrimSpace(r.NewOwnerID) == "" {
		return fmt.Errorf("new_owner_id is required")
	}
	return nil
}
