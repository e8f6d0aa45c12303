package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

type sqliteReadStateRepo struct {
	db database.TxQuerier
}

// NewSQLiteReadStateRepo returns the SQLite ReadStateRepository.
func NewSQLiteReadStateRepo(db database.TxQuerier) ReadStateRepository {
	return &sqliteReadStateRepo{db: db}
}

// MarkRead upserts the cursor; the WHERE on the conflict branch is what makes
// it monotonic under out-of-order delivery.
func (r *sqliteReadStateRepo) MarkRead(ctx context.Context, q database.TxQuerier, threadID, userID string, uptoSeq int64) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO read_cursors (thread_id, user_id, last_read_seq, last_read_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (thread_id, user_id) DO UPDATE SET
			last_read_seq = excluded.last_read_seq,
			last_read_at = excluded.last_read_at
		WHERE excluded.last_read_seq > read_cursors.last_read_seq`,
		threadID, userID, uptoSeq)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (r *sqliteReadStateRepo) GetCursor(ctx context.Context, threadID, userID string) (*models.ReadCursor, error) {
	var c models.ReadCursor
	err := r.db.QueryRowContext(ctx, `
		SELECT thread_id, user_id, last_read_seq, last_read_at
		FROM read_cursors WHERE thread_id = ? AND user_id = ?`,
		threadID, userID,
	).Scan(&c.ThreadID, &c.UserID, &c.LastReadSeq, &c.LastReadAt)
	if errors.Is(err, sql.ErrNoRows) {
		// No cursor yet means nothing read.
		return &models.ReadCursor{ThreadID: threadID, UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get read cursor: %w", err)
	}
	return &c, nil
}

// IncrementUnread bumps the counter for each listed user. Called in the
// append transaction with the author excluded by the service.
func (r *sqliteReadStateRepo) IncrementUnread(ctx context.Context, q database.TxQuerier, threadID string, userIDs []string) error {
	if q == nil {
		q = r.db
	}
	for _, userID := range userIDs {
		_, err := q.ExecContext(ctx, `
			INSERT INTO unread_counts (thread_id, user_id, count) VALUES (?, ?, 1)
			ON CONFLICT (thread_id, user_id) DO UPDATE SET count = count + 1`,
			threadID, userID)
		if err != nil {
			return fmt.Errorf("increment unread: %w", err)
		}
	}
	return nil
}

// RecomputeUnread sets the counter to the exact ledger count past the
// cursor, excluding the user's own messages to mirror IncrementUnread.
// One-thread scope keeps it cheap and self-healing against any counter
// drift.
func (r *sqliteReadStateRepo) RecomputeUnread(ctx context.Context, q database.TxQuerier, threadID, userID string) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO unread_counts (thread_id, user_id, count)
		VALUES (?, ?, (
			SELECT COUNT(*) FROM messages m
			WHERE m.thread_id = ?
			  AND m.author_id != ?
			  AND m.seq > COALESCE((SELECT last_read_seq FROM read_cursors WHERE thread_id = ? AND user_id = ?), 0)
		))
		ON CONFLICT (thread_id, user_id) DO UPDATE SET count = excluded.count`,
		threadID, userID, threadID, userID, threadID, userID)
	if err != nil {
		return fmt.Errorf("recompute unread: %w", err)
	}
	return nil
}

func (r *sqliteReadStateRepo) ListUnread(ctx context.Context, userID string) ([]models.UnreadInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT thread_id, count FROM unread_counts
		WHERE user_id = ? AND count > 0`, userID)
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	defer rows.Close()

	infos := []models.UnreadInfo{}
	for rows.Next() {
		var info models.UnreadInfo
		if err := rows.Scan(&info.ThreadID, &info.UnreadCount); err != nil {
			return nil, fmt.Errorf("scan unread: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
