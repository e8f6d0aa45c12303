package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

// activityTimeLayout is fixed-width so string comparison in SQL orders the
// same way the timestamps do.
const activityTimeLayout = "2006-01-02 15:04:05.000000000"

type sqliteActivityRepo struct {
	db database.TxQuerier
}

// NewSQLiteActivityRepo returns the SQLite ActivityRepository.
func NewSQLiteActivityRepo(db database.TxQuerier) ActivityRepository {
	return &sqliteActivityRepo{db: db}
}

func (r *sqliteActivityRepo) Insert(ctx context.Context, q database.TxQuerier, rec *models.ActivityRecord) error {
	if q == nil {
		q = r.db
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	metadata := string(rec.Metadata)
	if metadata == "" {
		metadata = "{}"
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO activities (id, activity_type, source_type, source_id, actor_id, target_user_id, book_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ActivityType, rec.SourceType, rec.SourceID, rec.ActorID,
		rec.TargetUserID, rec.BookID, metadata, rec.CreatedAt.UTC().Format(activityTimeLayout))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// SoftDeleteBySource hides every record derived from one source entity.
// Called when a message is deleted so the feeds stop showing it.
func (r *sqliteActivityRepo) SoftDeleteBySource(ctx context.Context, sourceType, sourceID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE activities SET deleted_at = CURRENT_TIMESTAMP
		WHERE source_type = ? AND source_id = ? AND deleted_at IS NULL`,
		sourceType, sourceID)
	if err != nil {
		return fmt.Errorf("soft delete activities: %w", err)
	}
	return nil
}

const activityColumns = `id, activity_type, source_type, source_id, actor_id, target_user_id, book_id, metadata, created_at`

func (r *sqliteActivityRepo) ListGlobal(ctx context.Context, cursor *models.FeedCursor, limit int) ([]models.ActivityRecord, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE deleted_at IS NULL`
	args := []any{}
	query, args = appendCursor(query, args, cursor)
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)
	return r.list(ctx, query, args)
}

// ListPersonal keys on target_user_id: things that happened TO the user, not
// things the user did.
func (r *sqliteActivityRepo) ListPersonal(ctx context.Context, userID string, cursor *models.FeedCursor, limit int) ([]models.ActivityRecord, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE deleted_at IS NULL AND target_user_id = ?`
	args := []any{userID}
	query, args = appendCursor(query, args, cursor)
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)
	return r.list(ctx, query, args)
}

// ListShelves joins against the shelf projection. With no filters it covers
// every book on any of the user's shelves; shelf or book filters narrow the
// projection side, never the activity side.
func (r *sqliteActivityRepo) ListShelves(ctx context.Context, userID string, filters models.FeedFilters, cursor *models.FeedCursor, limit int) ([]models.ActivityRecord, error) {
	shelfQuery := `SELECT DISTINCT book_id FROM shelf_books WHERE user_id = ?`
	args := []any{userID}
	if len(filters.ShelfIDs) > 0 {
		shelfQuery += ` AND shelf_id IN (` + placeholdersFor(len(filters.ShelfIDs)) + `)`
		for _, id := range filters.ShelfIDs {
			args = append(args, id)
		}
	}
	if len(filters.BookIDs) > 0 {
		shelfQuery += ` AND book_id IN (` + placeholdersFor(len(filters.BookIDs)) + `)`
		for _, id := range filters.BookIDs {
			args = append(args, id)
		}
	}

	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE deleted_at IS NULL AND book_id IN (` + shelfQuery + `)`
	query, args = appendCursor(query, args, cursor)
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)
	return r.list(ctx, query, args)
}

func (r *sqliteActivityRepo) ReplaceShelves(ctx context.Context, q database.TxQuerier, userID string, shelves []models.ShelfBooks) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM shelf_books WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear shelf projection: %w", err)
	}
	for _, shelf := range shelves {
		for _, bookID := range shelf.BookIDs {
			if _, err := q.ExecContext(ctx,
				`INSERT OR IGNORE INTO shelf_books (user_id, shelf_id, book_id) VALUES (?, ?, ?)`,
				userID, shelf.ShelfID, bookID); err != nil {
				return fmt.Errorf("insert shelf projection: %w", err)
			}
		}
	}
	return nil
}

// UsersWithBook is the reverse shelf lookup used to route a book activity
// to shelves-feed subscribers.
func (r *sqliteActivityRepo) UsersWithBook(ctx context.Context, bookID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM shelf_books WHERE book_id = ?`, bookID)
	if err != nil {
		return nil, fmt.Errorf("users with book: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan shelf user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *sqliteActivityRepo) list(ctx context.Context, query string, args []any) ([]models.ActivityRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	records := []models.ActivityRecord{}
	for rows.Next() {
		var rec models.ActivityRecord
		var metadata string
		// The driver hands DATETIME columns back as time.Time already.
		if err := rows.Scan(&rec.ID, &rec.ActivityType, &rec.SourceType, &rec.SourceID,
			&rec.ActorID, &rec.TargetUserID, &rec.BookID, &metadata, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		rec.Metadata = json.RawMessage(metadata)
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// appendCursor adds the keyset condition: strictly older than the cursor
// position, ties on created_at broken by id.
func appendCursor(query string, args []any, cursor *models.FeedCursor) (string, []any) {
	if cursor == nil {
		return query, args
	}
	ts := cursor.CreatedAt.UTC().Format(activityTimeLayout)
	query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
	args = append(args, ts, ts, cursor.ID)
	return query, args
}

func placeholdersFor(n int) string {
	s := strings.Repeat("?,", n)
	return s[:len(s)-1]
}
