// Package repository defines store interfaces and their SQLite
// implementations. Every implementation takes a database.TxQuerier so the
// same code runs against the pool or inside a transaction.
package repository

import (
	"context"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

// ThreadRepository manages the thread rows backing conversations and
// channels, including the per-thread sequence allocator.
//
// AllocateSeq is the ordering primitive: a single-row UPDATE ... RETURNING
// on threads.last_seq. Concurrent senders serialize on that row, so seq is
// gapless-monotonic per thread regardless of client clocks.
type ThreadRepository interface {
	Create(ctx context.Context, q database.TxQuerier, id string, kind models.ThreadKind) error
	GetByID(ctx context.Context, id string) (*models.Thread, error)
	AllocateSeq(ctx context.Context, q database.TxQuerier, threadID string) (int64, error)
	SetLastMessage(ctx context.Context, q database.TxQuerier, threadID, messageID string) error
}
