package models

import (
	"fmt"
	"strings"
	"time"
)

// Invite is a redeemable code that joins its bearer to a group as a member.
// MaxUses 0 means unlimited; ExpiresAt nil means no expiry.
type Invite struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	GroupID   string     `json:"group_id"`
	CreatedBy string     `json:"created_by"`
	MaxUses   int        `json:"max_uses"`
	Uses      int        `json:"uses"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the invite can no longer be redeemed.
func (i *Invite) Expired(now time.Time) bool {
	if i.ExpiresAt != nil && now.After(*i.ExpiresAt) {
		return true
	}
	if i.MaxUses > 0 && i.Uses >= i.MaxUses {
		return true
	}
	return false
}

// CreateInviteRequest creates an invite for a group. Email, when set, sends
// the code to that address.
type CreateInviteRequest struct {
	MaxUses      int    `json:"max_uses"`
	ExpiresInHrs int    `json:"expires_in_hours"`
	Email        string `json:"email,omitempty"`
}

func (r *CreateInviteRequest) Validate() error {
	if r.MaxUses < 0 {
		return fmt.Errorf("max_uses must not be negative")
	}
	if r.ExpiresInHrs < 0 {
		return fmt.Errorf("expires_in_hours must not be negative")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
