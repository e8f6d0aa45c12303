package repository

import (
	"context"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

// InviteRepository stores group invites. IncrementUses runs in the redeem
// transaction together with AddMember, and its WHERE re-checks the use cap so
// two racing redeems of a single-use code cannot both succeed.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	GetByCode(ctx context.Context, code string) (*models.Invite, error)
	IncrementUses(ctx context.Context, q database.TxQuerier, id string) error
	ListByGroup(ctx context.Context, groupID string) ([]models.Invite, error)
}
