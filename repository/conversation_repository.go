package repository

import (
	"context"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

// ConversationRepository manages two-party private threads.
//
// Create expects the pair already ordered (user1 < user2) and runs inside
// the caller's transaction together with the thread insert, so a
// conversation and its thread row appear atomically.
type ConversationRepository interface {
	Create(ctx context.Context, q database.TxQuerier, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	GetByPair(ctx context.Context, user1ID, user2ID string) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	SetArchived(ctx context.Context, id, userID string, archived bool) error
}
