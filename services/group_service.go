// Package services holds the domain logic between the HTTP/websocket layer
// and the repositories. Services validate input, enforce role and membership
// rules, run multi-row changes inside transactions and publish broker events
// after commit.
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

// GroupService manages groups, channels membership and roles.
//
// The owner invariant: every live group has exactly one owner, from creation
// to deletion. Any operation that could break it (removal, demotion,
// transfer) runs in one transaction and re-counts owners before commit.
type GroupService struct {
	db          *sql.DB
	groupRepo   repository.GroupRepository
	channelRepo repository.ChannelRepository
	threadRepo  repository.ThreadRepository
	logger      zerolog.Logger
}

// NewGroupService wires the group service.
func NewGroupService(db *sql.DB, groupRepo repository.GroupRepository, channelRepo repository.ChannelRepository, threadRepo repository.ThreadRepository, logger zerolog.Logger) *GroupService {
	return &GroupService{
		db:          db,
		groupRepo:   groupRepo,
		channelRepo: channelRepo,
		threadRepo:  threadRepo,
		logger:      logger.With().Str("component", "group_service").Logger(),
	}
}

// Create makes the group, its default channel and the creator's owner
// membership in one transaction: no observable moment where a group lacks an
// owner or a channel.
func (s *GroupService) Create(ctx context.Context, creatorID string, req *models.CreateGroupRequest) (*models.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}

	group := &models.Group{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Visibility:  models.Visibility(req.Visibility),
		CreatorID:   creatorID,
	}
	channelID := uuid.NewString()

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.groupRepo.Create(ctx, tx, group); err != nil {
			return err
		}
		if err := s.threadRepo.Create(ctx, tx, channelID, models.ThreadChannel); err != nil {
			return err
		}
		if err := s.channelRepo.Create(ctx, tx, &models.Channel{
			ID:      channelID,
			GroupID: group.ID,
			Name:    models.DefaultChannelName,
		}); err != nil {
			return err
		}
		if err := s.groupRepo.AddMember(ctx, tx, &models.Membership{
			GroupID: group.ID,
			UserID:  creatorID,
			Role:    models.RoleOwner,
		}); err != nil {
			return err
		}
		if len(req.BookIDs) > 0 {
			if err := s.groupRepo.AddBooks(ctx, tx, group.ID, req.BookIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("group_id", group.ID).Str("creator_id", creatorID).Msg("group created")
	return s.Get(ctx, creatorID, group.ID)
}

// Get returns the group with channels and books. Private groups are visible
// to members only.
func (s *GroupService) Get(ctx context.Context, userID, groupID string) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Visibility == models.VisibilityPrivate {
		if _, err := s.groupRepo.GetMembership(ctx, groupID, userID); err != nil {
			return nil, fmt.Errorf("%w: group", pkg.ErrNotFound)
		}
	}

	channels, err := s.channelRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Channels = channels

	books, err := s.groupRepo.GetBookIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.BookIDs = books
	return group, nil
}

// Update applies the field whitelist. Moderators and the owner may edit.
func (s *GroupService) Update(ctx context.Context, userID, groupID string, req *models.UpdateGroupRequest) (*models.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	if err := s.requireRole(ctx, groupID, userID, models.RoleModerator); err != nil {
		return nil, err
	}
	if err := s.groupRepo.Update(ctx, groupID, req); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, groupID)
}

// Delete soft-deletes the group and cascades to its channels. Messages stay
// in the ledger untouched. Owner only.
func (s *GroupService) Delete(ctx context.Context, userID, groupID string) error {
	if err := s.requireRole(ctx, groupID, userID, models.RoleOwner); err != nil {
		return err
	}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.groupRepo.SoftDelete(ctx, tx, groupID); err != nil {
			return err
		}
		return s.channelRepo.SoftDeleteByGroup(ctx, tx, groupID)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("group_id", groupID).Str("user_id", userID).Msg("group deleted")
	return nil
}

// AddMember admits a user as a plain member. Moderators and up.
func (s *GroupService) AddMember(ctx context.Context, callerID, groupID string, req *models.AddMemberRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	if err := s.requireRole(ctx, groupID, callerID, models.RoleModerator); err != nil {
		return err
	}
	return s.admit(ctx, groupID, req.UserID)
}

// admit adds a member with the size cap checked inside the transaction.
// Shared by AddMember and invite redemption.
func (s *GroupService) admit(ctx context.Context, groupID, userID string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.groupRepo.CountMembers(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if count >= models.MaxGroupMembers {
			return fmt.Errorf("%w: group is full", pkg.ErrPreconditionFailed)
		}
		return s.groupRepo.AddMember(ctx, tx, &models.Membership{
			GroupID: groupID,
			UserID:  userID,
			Role:    models.RoleMember,
		})
	})
}

// Admit is admit exposed for the invite service.
func (s *GroupService) Admit(ctx context.Context, groupID, userID string) error {
	return s.admit(ctx, groupID, userID)
}

// RemoveMember removes a member: self-leave, or a caller who strictly
// outranks the target. The sole owner can never be removed; ownership must
// transfer first.
func (s *GroupService) RemoveMember(ctx context.Context, callerID, groupID, targetID string) error {
	target, err := s.groupRepo.GetMembership(ctx, groupID, targetID)
	if err != nil {
		return err
	}

	if callerID != targetID {
		caller, err := s.groupRepo.GetMembership(ctx, groupID, callerID)
		if err != nil {
			return err
		}
		if !caller.Role.AtLeast(models.RoleModerator) || caller.Role.Rank() <= target.Role.Rank() {
			return fmt.Errorf("%w: cannot remove this member", pkg.ErrForbidden)
		}
	}

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if target.Role == models.RoleOwner {
			return fmt.Errorf("%w: transfer ownership before the owner leaves", pkg.ErrPreconditionFailed)
		}
		return s.groupRepo.RemoveMember(ctx, tx, groupID, targetID)
	})
}

// ChangeRole moves a member between moderator and member. Owner assignment
// goes through TransferOwnership only. The caller must be a moderator or the
// owner and must strictly outrank the target.
func (s *GroupService) ChangeRole(ctx context.Context, callerID, groupID, targetID string, req *models.ChangeRoleRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	caller, err := s.groupRepo.GetMembership(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	target, err := s.groupRepo.GetMembership(ctx, groupID, targetID)
	if err != nil {
		return err
	}
	if !caller.Role.AtLeast(models.RoleModerator) || caller.Role.Rank() <= target.Role.Rank() {
		return fmt.Errorf("%w: cannot change this member's role", pkg.ErrForbidden)
	}

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.groupRepo.UpdateRole(ctx, tx, groupID, targetID, models.Role(req.Role)); err != nil {
			return err
		}
		return s.assertSingleOwner(ctx, tx, groupID)
	})
}

// TransferOwnership atomically demotes the current owner to moderator and
// promotes the target. Only the owner may call it.
func (s *GroupService) TransferOwnership(ctx context.Context, callerID, groupID string, req *models.TransferOwnershipRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	if err := s.requireRole(ctx, groupID, callerID, models.RoleOwner); err != nil {
		return err
	}
	if req.NewOwnerID == callerID {
		return fmt.Errorf("%w: already the owner", pkg.ErrValidation)
	}
	if _, err := s.groupRepo.GetMembership(ctx, groupID, req.NewOwnerID); err != nil {
		return err
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.groupRepo.UpdateRole(ctx, tx, groupID, callerID, models.RoleModerator); err != nil {
			return err
		}
		if err := s.groupRepo.UpdateRole(ctx, tx, groupID, req.NewOwnerID, models.RoleOwner); err != nil {
			return err
		}
		return s.assertSingleOwner(ctx, tx, groupID)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("group_id", groupID).Str("from", callerID).Str("to", req.NewOwnerID).Msg("ownership transferred")
	return nil
}

// ListMembers returns the member list, members only.
func (s *GroupService) ListMembers(ctx context.Context, userID, groupID string) ([]models.Membership, error) {
	if _, err := s.groupRepo.GetMembership(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.groupRepo.ListMembers(ctx, groupID)
}

// Membership exposes the role lookup for other services.
func (s *GroupService) Membership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	return s.groupRepo.GetMembership(ctx, groupID, userID)
}

func (s *GroupService) requireRole(ctx context.Context, groupID, userID string, min models.Role) error {
	m, err := s.groupRepo.GetMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !m.Role.AtLeast(min) {
		return fmt.Errorf("%w: requires %s", pkg.ErrForbidden, min)
	}
	return nil
}

// assertSingleOwner aborts the surrounding transaction when the owner count
// is anything but one.
func (s *GroupService) assertSingleOwner(ctx context.Context, tx *sql.Tx, groupID string) error {
	count, err := s.groupRepo.CountOwners(ctx, tx, groupID)
	if err != nil {
		return err
	}
	if count != 1 {
		return fmt.Errorf("%w: group must have exactly one owner", pkg.ErrPreconditionFailed)
	}
	return nil
}
