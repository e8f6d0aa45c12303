package repository

import (
	"context"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

// ReadStateRepository keeps the per-participant read cursor and the
// maintained unread counters.
//
// MarkRead is monotonic: a stale upto never moves the cursor backwards. The
// unread counter for a thread is bumped on append (everyone but the author)
// and recomputed exactly for the one thread being marked, so listing unread
// totals never scans the ledger.
type ReadStateRepository interface {
	MarkRead(ctx context.Context, q database.TxQuerier, threadID, userID string, uptoSeq int64) error
	GetCursor(ctx context.Context, threadID, userID string) (*models.ReadCursor, error)
	IncrementUnread(ctx context.Context, q database.TxQuerier, threadID string, userIDs []string) error
	RecomputeUnread(ctx context.Context, q database.TxQuerier, threadID, userID string) error
	ListUnread(ctx context.Context, userID string) ([]models.UnreadInfo, error)
}
