package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
)

type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo returns the SQLite MessageRepository.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

const messageColumns = `id, thread_id, seq, author_id, content, created_at,
	edited_at, edited_by, deleted_at, deleted_by, quoted_message_id, quoted_excerpt`

func (r *sqliteMessageRepo) Insert(ctx context.Context, q database.TxQuerier, msg *models.Message, clientNonce *string) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, seq, author_id, content, quoted_message_id, quoted_excerpt, client_nonce)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ThreadID, msg.Seq, msg.AuthorID, msg.Content,
		msg.QuotedMessageID, msg.QuotedExcerpt, clientNonce)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	msg, err := scanMessage(row)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *sqliteMessageRepo) GetByClientNonce(ctx context.Context, q database.TxQuerier, threadID, authorID, nonce string) (*models.Message, error) {
	if q == nil {
		q = r.db
	}
	row := q.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE thread_id = ? AND author_id = ? AND client_nonce = ?`,
		threadID, authorID, nonce)
	return scanMessage(row)
}

// ListByThread returns up to limit messages with seq < beforeSeq, newest
// first in the query but reversed to oldest-first for the client. beforeSeq 0
// means "from the tip".
func (r *sqliteMessageRepo) ListByThread(ctx context.Context, threadID string, beforeSeq int64, limit int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE thread_id = ?`
	args := []any{threadID}
	if beforeSeq > 0 {
		query += ` AND seq < ?`
		args = append(args, beforeSeq)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Seq, &m.AuthorID, &m.Content, &m.CreatedAt,
			&m.EditedAt, &m.EditedBy, &m.DeletedAt, &m.DeletedBy, &m.QuotedMessageID, &m.QuotedExcerpt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	// Reverse to ascending seq.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *sqliteMessageRepo) UpdateContent(ctx context.Context, id, content string, editedBy *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET content = ?, edited_at = CURRENT_TIMESTAMP, edited_by = ?
		WHERE id = ? AND deleted_at IS NULL`,
		content, editedBy, id)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update message rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: message", pkg.ErrNotFound)
	}
	return nil
}

// SoftDelete blanks the content; the row and its seq stay so quotes keep
// resolving and pagination stays stable.
func (r *sqliteMessageRepo) SoftDelete(ctx context.Context, id, deletedBy string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET content = NULL, deleted_at = CURRENT_TIMESTAMP, deleted_by = ?
		WHERE id = ? AND deleted_at IS NULL`,
		deletedBy, id)
	if err != nil {
		return fmt.Errorf("soft delete message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete message rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: message", pkg.ErrNotFound)
	}
	return nil
}

func (r *sqliteMessageRepo) AddAttachments(ctx context.Context, q database.TxQuerier, attachments []models.Attachment) error {
	if q == nil {
		q = r.db
	}
	for _, a := range attachments {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO message_attachments (id, message_id, blob_ref, thumbnail_ref, position)
			VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.MessageID, a.BlobRef, a.ThumbnailRef, a.Position); err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
	}
	return nil
}

func (r *sqliteMessageRepo) GetAttachments(ctx context.Context, messageIDs []string) (map[string][]models.Attachment, error) {
	result := map[string][]models.Attachment{}
	if len(messageIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(messageIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(messageIDs))
	for i, id := range messageIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message_id, blob_ref, thumbnail_ref, position
		FROM message_attachments
		WHERE message_id IN (`+placeholders+`)
		ORDER BY message_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("get attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.BlobRef, &a.ThumbnailRef, &a.Position); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		result[a.MessageID] = append(result[a.MessageID], a)
	}
	return result, rows.Err()
}

func scanMessage(row *sql.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.ThreadID, &m.Seq, &m.AuthorID, &m.Content, &m.CreatedAt,
		&m.EditedAt, &m.EditedBy, &m.DeletedAt, &m.DeletedBy, &m.QuotedMessageID, &m.QuotedExcerpt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	return &m, nil
}
