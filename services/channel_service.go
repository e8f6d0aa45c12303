package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/repository"
)

// ChannelService manages channels inside groups. Structure changes (create,
// rename, reorder, archive, delete) are moderator-and-up; reading the list is
// for members.
type ChannelService struct {
	db          *sql.DB
	channelRepo repository.ChannelRepository
	threadRepo  repository.ThreadRepository
	groupRepo   repository.GroupRepository
	logger      zerolog.Logger
}

// NewChannelService wires the channel service.
func NewChannelService(db *sql.DB, channelRepo repository.ChannelRepository, threadRepo repository.ThreadRepository, groupRepo repository.GroupRepository, logger zerolog.Logger) *ChannelService {
	return &ChannelService{
		db:          db,
		channelRepo: channelRepo,
		threadRepo:  threadRepo,
		groupRepo:   groupRepo,
		logger:      logger.With().Str("component", "channel_service").Logger(),
	}
}

// Create adds a channel, checking the per-group cap inside the transaction.
func (s *ChannelService) Create(ctx context.Context, userID, groupID string, req *models.CreateChannelRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	if err := s.requireModerator(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	ch := &models.Channel{
		ID:      uuid.NewString(),
		GroupID: groupID,
		Name:    req.Name,
	}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.channelRepo.CountByGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if count >= models.MaxGroupChannels {
			return fmt.Errorf("%w: channel limit reached", pkg.ErrPreconditionFailed)
		}
		ch.DisplayOrder = count
		if err := s.threadRepo.Create(ctx, tx, ch.ID, models.ThreadChannel); err != nil {
			return err
		}
		return s.channelRepo.Create(ctx, tx, ch)
	})
	if err != nil {
		return nil, err
	}
	return s.channelRepo.GetByID(ctx, ch.ID)
}

// List returns the group's live channels for a member.
func (s *ChannelService) List(ctx context.Context, userID, groupID string) ([]models.Channel, error) {
	if _, err := s.groupRepo.GetMembership(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.channelRepo.ListByGroup(ctx, groupID)
}

// Update renames, reorders or archives a channel. Archived channels stay
// readable; only appends are refused (the message service checks).
func (s *ChannelService) Update(ctx context.Context, userID, channelID string, req *models.UpdateChannelRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	ch, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireModerator(ctx, ch.GroupID, userID); err != nil {
		return nil, err
	}
	if err := s.channelRepo.Update(ctx, channelID, req); err != nil {
		return nil, err
	}
	return s.channelRepo.GetByID(ctx, channelID)
}

// Delete soft-deletes a channel. The last channel of a group cannot go; a
// group always keeps at least one.
func (s *ChannelService) Delete(ctx context.Context, userID, channelID string) error {
	ch, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if err := s.requireModerator(ctx, ch.GroupID, userID); err != nil {
		return err
	}
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.channelRepo.CountByGroup(ctx, tx, ch.GroupID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return fmt.Errorf("%w: a group keeps at least one channel", pkg.ErrPreconditionFailed)
		}
		return s.channelRepo.SoftDelete(ctx, tx, channelID)
	})
}

// Get returns one channel for a group member.
func (s *ChannelService) Get(ctx context.Context, userID, channelID string) (*models.Channel, error) {
	ch, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if _, err := s.groupRepo.GetMembership(ctx, ch.GroupID, userID); err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *ChannelService) requireModerator(ctx context.Context, groupID, userID string) error {
	m, err := s.groupRepo.GetMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !m.Role.AtLeast(models.RoleModerator) {
		return fmt.Errorf("%w: requires moderator", pkg.ErrForbidden)
	}
	return nil
}
