package repository

import (
	"context"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

// GroupRepository manages groups, their book associations and memberships.
//
// The *Tx-suffixed methods are meant to run inside database.WithTx: the
// "exactly one owner" invariant only holds if role changes, removals and
// transfers commit atomically. CountOwners exists so the service can verify
// the invariant before commit.
type GroupRepository interface {
	Create(ctx context.Context, q database.TxQuerier, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	Update(ctx context.Context, id string, req *models.UpdateGroupRequest) error
	SoftDelete(ctx context.Context, q database.TxQuerier, id string) error
	AddBooks(ctx context.Context, q database.TxQuerier, groupID string, bookIDs []string) error
	GetBookIDs(ctx context.Context, groupID string) ([]string, error)

	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Membership, error)
	CountMembers(ctx context.Context, q database.TxQuerier, groupID string) (int, error)
	AddMember(ctx context.Context, q database.TxQuerier, m *models.Membership) error
	RemoveMember(ctx context.Context, q database.TxQuerier, groupID, userID string) error
	UpdateRole(ctx context.Context, q database.TxQuerier, groupID, userID string, role models.Role) error
	CountOwners(ctx context.Context, q database.TxQuerier, groupID string) (int, error)
}
