package models

import "time"

// Conversation is a two-party private thread. User1ID < User2ID is enforced
// by the service layer so the pair maps to a single row. Created on first
// message between two users, never hard-deleted.
type Conversation struct {
	ID              string     `json:"id"`
	User1ID         string     `json:"user1_id"`
	User2ID         string     `json:"user2_id"`
	ArchivedByUser1 bool       `json:"archived_by_user1"`
	ArchivedByUser2 bool       `json:"archived_by_user2"`
	CreatedAt       time.Time  `json:"created_at"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`
}

// OtherParticipant returns the peer of userID, or "" if userID is not a
// participant.
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.User1ID:
		return c.User2ID
	case c.User2ID:
		return c.User1ID
	default:
		return ""
	}
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.User1ID || userID == c.User2ID
}

// ArchivedFor reports the per-participant archived flag.
func (c *Conversation) ArchivedFor(userID string) bool {
	switch userID {
	case c.User1ID:
		return c.ArchivedByUser1
	case c.User2ID:
		return c.ArchivedByUser2
	default:
		return false
	}
}

// ConversationPair orders two user ids so (a,b) and (b,a) address the same
// conversation row.
func ConversationPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
