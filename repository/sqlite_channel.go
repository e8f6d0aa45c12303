package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
)

type sqliteChannelRepo struct {
	db database.TxQuerier
}

// NewSQLiteChannelRepo returns the SQLite ChannelRepository.
func NewSQLiteChannelRepo(db database.TxQuerier) ChannelRepository {
	return &sqliteChannelRepo{db: db}
}

func (r *sqliteChannelRepo) Create(ctx context.Context, q database.TxQuerier, ch *models.Channel) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO channels (id, group_id, name, display_order) VALUES (?, ?, ?, ?)`,
		ch.ID, ch.GroupID, ch.Name, ch.DisplayOrder)
	if err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	return nil
}

func (r *sqliteChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	var ch models.Channel
	var archived int
	err := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, name, display_order, archived, deleted_at, created_at
		FROM channels WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&ch.ID, &ch.GroupID, &ch.Name, &ch.DisplayOrder, &archived, &ch.DeletedAt, &ch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: channel", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	ch.Archived = archived != 0
	return &ch, nil
}

func (r *sqliteChannelRepo) ListByGroup(ctx context.Context, groupID string) ([]models.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, name, display_order, archived, deleted_at, created_at
		FROM channels
		WHERE group_id = ? AND deleted_at IS NULL
		ORDER BY display_order ASC, created_at ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	channels := []models.Channel{}
	for rows.Next() {
		var ch models.Channel
		var archived int
		if err := rows.Scan(&ch.ID, &ch.GroupID, &ch.Name, &ch.DisplayOrder, &archived, &ch.DeletedAt, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		ch.Archived = archived != 0
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (r *sqliteChannelRepo) CountByGroup(ctx context.Context, q database.TxQuerier, groupID string) (int, error) {
	if q == nil {
		q = r.db
	}
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM channels WHERE group_id = ? AND deleted_at IS NULL`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count channels: %w", err)
	}
	return count, nil
}

func (r *sqliteChannelRepo) Update(ctx context.Context, id string, req *models.UpdateChannelRequest) error {
	sets := []string{}
	args := []any{}
	if req.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *req.Name)
	}
	if req.DisplayOrder != nil {
		sets = append(sets, "display_order = ?")
		args = append(args, *req.DisplayOrder)
	}
	if req.Archived != nil {
		val := 0
		if *req.Archived {
			val = 1
		}
		sets = append(sets, "archived = ?")
		args = append(args, val)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE channels SET `+strings.Join(sets, ", ")+` WHERE id = ? AND deleted_at IS NULL`, args...)
	if err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update channel rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: channel", pkg.ErrNotFound)
	}
	return nil
}

func (r *sqliteChannelRepo) SoftDelete(ctx context.Context, q database.TxQuerier, id string) error {
	if q == nil {
		q = r.db
	}
	res, err := q.ExecContext(ctx,
		`UPDATE channels SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete channel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete channel rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: channel", pkg.ErrNotFound)
	}
	return nil
}

// SoftDeleteByGroup is the cascade half of group deletion; it runs in the
// same transaction that marks the group.
func (r *sqliteChannelRepo) SoftDeleteByGroup(ctx context.Context, q database.TxQuerier, groupID string) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx,
		`UPDATE channels SET deleted_at = CURRENT_TIMESTAMP WHERE group_id = ? AND deleted_at IS NULL`, groupID)
	if err != nil {
		return fmt.Errorf("soft delete group channels: %w", err)
	}
	return nil
}
