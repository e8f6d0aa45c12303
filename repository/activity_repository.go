package repository

import (
	"context"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

// ActivityRepository is the append-only activity store plus the shelf
// projection the shelves view joins against.
//
// All three List views page by the same (created_at DESC, id DESC) keyset, so
// a record can never be skipped or repeated across pages while new records
// arrive at the head.
type ActivityRepository interface {
	Insert(ctx context.Context, q database.TxQuerier, rec *models.ActivityRecord) error
	SoftDeleteBySource(ctx context.Context, sourceType, sourceID string) error
	ListGlobal(ctx context.Context, cursor *models.FeedCursor, limit int) ([]models.ActivityRecord, error)
	ListPersonal(ctx context.Context, userID string, cursor *models.FeedCursor, limit int) ([]models.ActivityRecord, error)
	ListShelves(ctx context.Context, userID string, filters models.FeedFilters, cursor *models.FeedCursor, limit int) ([]models.ActivityRecord, error)
	ReplaceShelves(ctx context.Context, q database.TxQuerier, userID string, shelves []models.ShelfBooks) error
	UsersWithBook(ctx context.Context, bookID string) ([]string, error)
}
