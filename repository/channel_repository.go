package repository

import (
	"context"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

// ChannelRepository manages channels within groups. Create runs inside the
// caller's transaction together with the thread insert.
type ChannelRepository interface {
	Create(ctx context.Context, q database.TxQuerier, ch *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Channel, error)
	CountByGroup(ctx context.Context, q database.TxQuerier, groupID string) (int, error)
	Update(ctx context.Context, id string, req *models.UpdateChannelRequest) error
	SoftDelete(ctx context.Context, q database.TxQuerier, id string) error
	SoftDeleteByGroup(ctx context.Context, q database.TxQuerier, groupID string) error
}
