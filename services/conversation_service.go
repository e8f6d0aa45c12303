package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/repository"
)

// ConversationService manages two-party private threads. A conversation
// comes into being on first contact and is never hard-deleted; archiving is
// per-participant and reversible.
type ConversationService struct {
	db         *sql.DB
	convRepo   repository.ConversationRepository
	threadRepo repository.ThreadRepository
	logger     zerolog.Logger
}

// NewConversationService wires the conversation service.
func NewConversationService(db *sql.DB, convRepo repository.ConversationRepository, threadRepo repository.ThreadRepository, logger zerolog.Logger) *ConversationService {
	return &ConversationService{
		db:         db,
		convRepo:   convRepo,
		threadRepo: threadRepo,
		logger:     logger.With().Str("component", "conversation_service").Logger(),
	}
}

// GetOrCreate returns the conversation between the two users, creating it on
// first contact. A lost race on the unique pair falls back to reading the
// winner's row.
func (s *ConversationService) GetOrCreate(ctx context.Context, userID, otherID string) (*models.Conversation, error) {
	if otherID == "" || otherID == userID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", pkg.ErrValidation)
	}
	u1, u2 := models.ConversationPair(userID, otherID)

	conv, err := s.convRepo.GetByPair(ctx, u1, u2)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	created := &models.Conversation{
		ID:      uuid.NewString(),
		User1ID: u1,
		User2ID: u2,
	}
	txErr := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.threadRepo.Create(ctx, tx, created.ID, models.ThreadConversation); err != nil {
			return err
		}
		return s.convRepo.Create(ctx, tx, created)
	})
	if txErr != nil {
		// Concurrent first contact: the unique (user1, user2) index rejected
		// us, so the other side's row exists now.
		if conv, err := s.convRepo.GetByPair(ctx, u1, u2); err == nil {
			return conv, nil
		}
		return nil, txErr
	}

	s.logger.Info().Str("conversation_id", created.ID).Msg("conversation created")
	return s.convRepo.GetByID(ctx, created.ID)
}

// Get returns a conversation to one of its participants.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: conversation", pkg.ErrNotFound)
	}
	return conv, nil
}

// List returns the user's conversations, most recently active first.
// Archived ones are included with their flag set; hiding them is the
// client's call.
func (s *ConversationService) List(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.convRepo.ListByUser(ctx, userID)
}

// SetArchived flips the caller's own archived flag. The peer's view does not
// change, and a new message un-archives nothing; the flag is purely a list
// filter.
func (s *ConversationService) SetArchived(ctx context.Context, userID, conversationID string, archived bool) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return fmt.Errorf("%w: conversation", pkg.ErrNotFound)
	}
	return s.convRepo.SetArchived(ctx, conversationID, userID, archived)
}
