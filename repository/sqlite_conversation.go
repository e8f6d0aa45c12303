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

type sqliteConversationRepo struct {
	db database.TxQuerier
}

// NewSQLiteConversationRepo returns the SQLite ConversationRepository.
func NewSQLiteConversationRepo(db database.TxQuerier) ConversationRepository {
	return &sqliteConversationRepo{db: db}
}

func (r *sqliteConversationRepo) Create(ctx context.Context, q database.TxQuerier, conv *models.Conversation) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO conversations (id, user1_id, user2_id) VALUES (?, ?, ?)`,
		conv.ID, conv.User1ID, conv.User2ID)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

const conversationColumns = `c.id, c.user1_id, c.user2_id, c.archived_by_user1, c.archived_by_user2, c.created_at`

func (r *sqliteConversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations c WHERE c.id = ?`, id)
	return scanConversation(row)
}

func (r *sqliteConversationRepo) GetByPair(ctx context.Context, user1ID, user2ID string) (*models.Conversation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations c WHERE c.user1_id = ? AND c.user2_id = ?`,
		user1ID, user2ID)
	return scanConversation(row)
}

// ListByUser returns the user's conversations, most recently active first.
func (r *sqliteConversationRepo) ListByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+conversationColumns+`, m.created_at
		FROM conversations c
		JOIN threads t ON t.id = c.id
		LEFT JOIN messages m ON m.id = t.last_message_id
		WHERE c.user1_id = ? OR c.user2_id = ?
		ORDER BY COALESCE(m.created_at, c.created_at) DESC`,
		userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	convs := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		var arch1, arch2 int
		if err := rows.Scan(&c.ID, &c.User1ID, &c.User2ID, &arch1, &arch2, &c.CreatedAt, &c.LastMessageAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.ArchivedByUser1 = arch1 != 0
		c.ArchivedByUser2 = arch2 != 0
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}
	return convs, nil
}

func (r *sqliteConversationRepo) SetArchived(ctx context.Context, id, userID string, archived bool) error {
	val := 0
	if archived {
		val = 1
	}
	// Only the matching participant's flag moves; the other side's view is
	// untouched.
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET
			archived_by_user1 = CASE WHEN user1_id = ? THEN ? ELSE archived_by_user1 END,
			archived_by_user2 = CASE WHEN user2_id = ? THEN ? ELSE archived_by_user2 END
		WHERE id = ? AND (user1_id = ? OR user2_id = ?)`,
		userID, val, userID, val, id, userID, userID)
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set archived rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: conversation", pkg.ErrNotFound)
	}
	return nil
}

func scanConversation(row *sql.Row) (*models.Conversation, error) {
	var c models.Conversation
	var arch1, arch2 int
	err := row.Scan(&c.ID, &c.User1ID, &c.User2ID, &arch1, &arch2, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: conversation", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	c.ArchivedByUser1 = arch1 != 0
	c.ArchivedByUser2 = arch2 != 0
	return &c, nil
}
