package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxSymbolLength bounds a reaction symbol. Composite emoji (families,
// flags) can run past 10 codepoints; 32 leaves margin.
const MaxSymbolLength = 32

// Reaction is a single (message, user, symbol) tuple. The unique constraint
// on the tuple makes toggling safe under concurrent double-clicks.
type Reaction struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionGroup is the aggregate view of one symbol on one message.
// ViewerReacted is derived per viewer from UserIDs before the payload goes
// out; the underlying aggregation query is shared between initial thread
// load and live updates.
type ReactionGroup struct {
	Symbol        string   `json:"symbol"`
	Count         int      `json:"count"`
	UserIDs       []string `json:"user_ids"`
	ViewerReacted bool     `json:"viewer_reacted"`
}

// ForViewer returns a copy of groups with ViewerReacted set for viewerID.
func ForViewer(groups []ReactionGroup, viewerID string) []ReactionGroup {
	out := make([]ReactionGroup, len(groups))
	for i, g := range groups {
		g.ViewerReacted = false
		for _, uid := range g.UserIDs {
			if uid == viewerID {
				g.ViewerReacted = true
				break
			}
		}
		out[i] = g
	}
	return out
}

// ToggleReactionRequest toggles one symbol on one message.
type ToggleReactionRequest struct {
	Symbol string `json:"symbol"`
}

func (r *ToggleReactionRequest) Validate() error {
	r.Symbol = strings.TrimSpace(r.Symbol)
	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if utf8.RuneCountInString(r.Symbol) > MaxSymbolLength {
		return fmt.Errorf("symbol too long")
	}
	return nil
}
