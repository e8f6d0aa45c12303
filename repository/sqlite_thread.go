package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
)

type sqliteThreadRepo struct {
	db database.TxQuerier
}

// NewSQLiteThreadRepo returns the SQLite ThreadRepository.
func NewSQLiteThreadRepo(db database.TxQuerier) ThreadRepository {
	return &sqliteThreadRepo{db: db}
}

func (r *sqliteThreadRepo) Create(ctx context.Context, q database.TxQuerier, id string, kind models.ThreadKind) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO threads (id, kind) VALUES (?, ?)`, id, string(kind))
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}
	return nil
}

func (r *sqliteThreadRepo) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	var t models.Thread
	var kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, kind, last_seq, last_message_id, created_at FROM threads WHERE id = ?`, id,
	).Scan(&t.ID, &kind, &t.LastSeq, &t.LastMessageID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: thread", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	t.Kind = models.ThreadKind(kind)
	return &t, nil
}

// AllocateSeq bumps and returns the thread's sequence counter in one
// statement. SQLite serializes writers, so two concurrent appends can never
// observe the same value.
func (r *sqliteThreadRepo) AllocateSeq(ctx context.Context, q database.TxQuerier, threadID string) (int64, error) {
	if q == nil {
		q = r.db
	}
	var seq int64
	err := q.QueryRowContext(ctx,
		`UPDATE threads SET last_seq = last_seq + 1 WHERE id = ? RETURNING last_seq`, threadID,
	).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: thread", pkg.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("allocate seq: %w", err)
	}
	return seq, nil
}

func (r *sqliteThreadRepo) SetLastMessage(ctx context.Context, q database.TxQuerier, threadID, messageID string) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx,
		`UPDATE threads SET last_message_id = ? WHERE id = ?`, messageID, threadID)
	if err != nil {
		return fmt.Errorf("set last message: %w", err)
	}
	return nil
}
