package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/repository"
)

// ReactionService toggles reactions and broadcasts the resulting aggregate.
//
// The broadcast payload is the full per-symbol aggregate for the message,
// read back through the same query the initial thread load uses; subscribers
// replace, never patch, so their state cannot drift.
type ReactionService struct {
	reactionRepo repository.ReactionRepository
	messageRepo  repository.MessageRepository
	guard        *ThreadGuard
	activity     *ActivityService
	publisher    broker.Publisher
	logger       zerolog.Logger
}

// NewReactionService wires the reaction service.
func NewReactionService(reactionRepo repository.ReactionRepository, messageRepo repository.MessageRepository, guard *ThreadGuard, activity *ActivityService, publisher broker.Publisher, logger zerolog.Logger) *ReactionService {
	return &ReactionService{
		reactionRepo: reactionRepo,
		messageRepo:  messageRepo,
		guard:        guard,
		activity:     activity,
		publisher:    publisher,
		logger:       logger.With().Str("component", "reaction_service").Logger(),
	}
}

// ToggleResult is the response to a toggle: whether this call added or
// removed, plus the message's complete aggregate afterwards.
type ToggleResult struct {
	MessageID string                 `json:"message_id"`
	Symbol    string                 `json:"symbol"`
	Added     bool                   `json:"added"`
	Reactions []models.ReactionGroup `json:"reactions"`
}

// Toggle adds the (user, symbol) reaction if absent, removes it if present.
func (s *ReactionService) Toggle(ctx context.Context, userID, messageID string, req *models.ToggleReactionRequest) (*ToggleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Check(ctx, userID, msg.ThreadID); err != nil {
		return nil, err
	}
	if msg.DeletedAt != nil {
		return nil, fmt.Errorf("%w: message is deleted", pkg.ErrPreconditionFailed)
	}

	added, err := s.reactionRepo.Toggle(ctx, uuid.NewString(), messageID, userID, req.Symbol)
	if err != nil {
		return nil, err
	}

	groups, err := s.reactionRepo.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	s.broadcast(msg.ThreadID, messageID, groups)

	// A fresh reaction on someone else's message lands in their personal
	// feed; removals and self-reactions stay silent.
	if added && msg.AuthorID != userID {
		target := msg.AuthorID
		meta, _ := json.Marshal(map[string]string{
			"thread_id": msg.ThreadID,
			"symbol":    req.Symbol,
		})
		rec := &models.ActivityRecord{
			ID:           uuid.NewString(),
			ActivityType: models.ActivityReaction,
			SourceType:   "reaction",
			SourceID:     messageID,
			ActorID:      userID,
			TargetUserID: &target,
			Metadata:     meta,
		}
		if err := s.activity.Record(ctx, nil, rec); err != nil {
			s.logger.Warn().Err(err).Msg("record reaction activity failed")
		} else {
			s.activity.Broadcast(ctx, rec)
		}
	}

	return &ToggleResult{
		MessageID: messageID,
		Symbol:    req.Symbol,
		Added:     added,
		Reactions: models.ForViewer(groups, userID),
	}, nil
}

// Get returns the aggregate for one message, with the viewer flag set.
func (s *ReactionService) Get(ctx context.Context, userID, messageID string) ([]models.ReactionGroup, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Check(ctx, userID, msg.ThreadID); err != nil {
		return nil, err
	}
	groups, err := s.reactionRepo.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return models.ForViewer(groups, userID), nil
}

func (s *ReactionService) broadcast(threadID, messageID string, groups []models.ReactionGroup) {
	payload, err := json.Marshal(map[string]any{
		"message_id": messageID,
		"thread_id":  threadID,
		"reactions":  groups,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("marshal reaction event")
		return
	}
	s.publisher.Publish(broker.Event{
		Room:    broker.RoomThread(threadID),
		Type:    broker.EventReactionUpdated,
		Payload: payload,
	})
}
