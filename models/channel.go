package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Channel is an ordered sub-thread within a group. Every group keeps at
// least one channel; the default one is created atomically with the group.
type Channel struct {
	ID           string     `json:"id"`
	GroupID      string     `json:"group_id"`
	Name         string     `json:"name"`
	DisplayOrder int        `json:"display_order"`
	Archived     bool       `json:"archived"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DefaultChannelName is given to the channel created with a new group.
const DefaultChannelName = "general"

// CreateChannelRequest adds a channel to a group.
type CreateChannelRequest struct {
	Name string `json:"name"`
}

func (r *CreateChannelRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if utf8.RuneCountInString(r.Name) < 1 || utf8.RuneCountInString(r.Name) > 100 {
		return fmt.Errorf("channel name must be 1-100 characters")
	}
	return nil
}

// UpdateChannelRequest is the explicit whitelist of mutable channel fields.
type UpdateChannelRequest struct {
	Name         *string `json:"name,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
	Archived     *bool   `json:"archived,omitempty"`
}

func (r *UpdateChannelRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		if utf8.RuneCountInString(trimmed) < 1 || utf8.RuneCountInString(trimmed) > 100 {
			return fmt.Errorf("channel name must be 1-100 characters")
		}
		*r.Name = trimmed
	}
	if r.DisplayOrder != nil && *r.DisplayOrder < 0 {
		return fmt.Errorf("display_order must not be negative")
	}
	return nil
}
