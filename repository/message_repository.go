package repository

import (
	"context"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

// MessageRepository is the append-only ledger. Insert carries the seq the
// service allocated from the thread counter in the same transaction.
//
// GetByClientNonce backs idempotent resend: when the unique
// (thread, author, nonce) index rejects a replay, the service returns the
// original row instead of an error.
type MessageRepository interface {
	Insert(ctx context.Context, q database.TxQuerier, msg *models.Message, clientNonce *string) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	GetByClientNonce(ctx context.Context, q database.TxQuerier, threadID, authorID, nonce string) (*models.Message, error)
	ListByThread(ctx context.Context, threadID string, beforeSeq int64, limit int) ([]models.Message, error)
	UpdateContent(ctx context.Context, id, content string, editedBy *string) error
	SoftDelete(ctx context.Context, id, deletedBy string) error
	AddAttachments(ctx context.Context, q database.TxQuerier, attachments []models.Attachment) error
	GetAttachments(ctx context.Context, messageIDs []string) (map[string][]models.Attachment, error)
}
