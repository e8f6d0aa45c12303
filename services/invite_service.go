package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/repository"
)

// InviteService creates and redeems group invites. Redemption admits the
// bearer as a plain member; the use counter and the membership insert commit
// together so a capped code can never over-admit.
type InviteService struct {
	db         *sql.DB
	inviteRepo repository.InviteRepository
	groupRepo  repository.GroupRepository
	email      pkg.EmailSender
	logger     zerolog.Logger
}

// NewInviteService wires the invite service.
func NewInviteService(db *sql.DB, inviteRepo repository.InviteRepository, groupRepo repository.GroupRepository, email pkg.EmailSender, logger zerolog.Logger) *InviteService {
	return &InviteService{
		db:         db,
		inviteRepo: inviteRepo,
		groupRepo:  groupRepo,
		email:      email,
		logger:     logger.With().Str("component", "invite_service").Logger(),
	}
}

// Create issues an invite code. Moderators and up. When the request names an
// email address the code is mailed out; a send failure does not void the
// invite.
func (s *InviteService) Create(ctx context.Context, callerID, groupID string, req *models.CreateInviteRequest) (*models.Invite, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrValidation, err)
	}
	caller, err := s.groupRepo.GetMembership(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.Role.AtLeast(models.RoleModerator) {
		return nil, fmt.Errorf("%w: requires moderator", pkg.ErrForbidden)
	}
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	code, err := generateInviteCode()
	if err != nil {
		return nil, err
	}

	invite := &models.Invite{
		ID:        uuid.NewString(),
		Code:      code,
		GroupID:   groupID,
		CreatedBy: callerID,
		MaxUses:   req.MaxUses,
	}
	if req.ExpiresInHrs > 0 {
		expires := time.Now().UTC().Add(time.Duration(req.ExpiresInHrs) * time.Hour)
		invite.ExpiresAt = &expires
	}

	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, err
	}

	if req.Email != "" {
		if err := s.email.SendInvite(ctx, req.Email, group.Name, code); err != nil {
			s.logger.Warn().Err(err).Str("group_id", groupID).Msg("invite email failed")
		}
	}

	s.logger.Info().Str("group_id", groupID).Str("invite_id", invite.ID).Msg("invite created")
	return s.inviteRepo.GetByCode(ctx, code)
}

// Redeem joins the caller to the invite's group.
func (s *InviteService) Redeem(ctx context.Context, userID, code string) (*models.Group, error) {
	invite, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if invite.Expired(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: invite expired", pkg.ErrPreconditionFailed)
	}
	group, err := s.groupRepo.GetByID(ctx, invite.GroupID)
	if err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.groupRepo.CountMembers(ctx, tx, invite.GroupID)
		if err != nil {
			return err
		}
		if count >= models.MaxGroupMembers {
			return fmt.Errorf("%w: group is full", pkg.ErrPreconditionFailed)
		}
		if err := s.inviteRepo.IncrementUses(ctx, tx, invite.ID); err != nil {
			return err
		}
		return s.groupRepo.AddMember(ctx, tx, &models.Membership{
			GroupID: invite.GroupID,
			UserID:  userID,
			Role:    models.RoleMember,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("group_id", invite.GroupID).Str("user_id", userID).Msg("invite redeemed")
	return group, nil
}

// ListByGroup returns a group's invites to moderators and up.
func (s *InviteService) ListByGroup(ctx context.Context, callerID, groupID string) ([]models.Invite, error) {
	caller, err := s.groupRepo.GetMembership(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.Role.AtLeast(models.RoleModerator) {
		return nil, fmt.Errorf("%w: requires moderator", pkg.ErrForbidden)
	}
	return s.inviteRepo.ListByGroup(ctx, groupID)
}

// generateInviteCode returns a short URL-safe code, e.g. "H4QX7ZK2M3".
func generateInviteCode() (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return strings.ToUpper(code[:10]), nil
}
