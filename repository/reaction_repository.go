package repository

import (
	"context"

	"github.com/mkaraca/shelftalk/models"
)

// ReactionRepository toggles reactions and serves the per-symbol aggregates.
//
// GetByMessageID and GetByMessageIDs run the same aggregation query; every
// consumer (initial thread load, live broadcast after a toggle) goes through
// them, so the two renderings can never drift apart.
type ReactionRepository interface {
	Toggle(ctx context.Context, id, messageID, userID, symbol string) (added bool, err error)
	GetByMessageID(ctx context.Context, messageID string) ([]models.ReactionGroup, error)
	GetByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]models.ReactionGroup, error)
}
