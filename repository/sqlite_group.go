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

type sqliteGroupRepo struct {
	db database.TxQuerier
}

// NewSQLiteGroupRepo returns the SQLite GroupRepository.
func NewSQLiteGroupRepo(db database.TxQuerier) GroupRepository {
	return &sqliteGroupRepo{db: db}
}

func (r *sqliteGroupRepo) Create(ctx context.Context, q database.TxQuerier, group *models.Group) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO groups (id, name, description, visibility, creator_id) VALUES (?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, string(group.Visibility), group.CreatorID)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// GetByID returns the group unless it is soft-deleted.
func (r *sqliteGroupRepo) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	var visibility string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, visibility, creator_id, deleted_at, created_at
		FROM groups WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&g.ID, &g.Name, &g.Description, &visibility, &g.CreatorID, &g.DeletedAt, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	g.Visibility = models.Visibility(visibility)
	return &g, nil
}

// Update applies the explicit field whitelist. Only columns with a non-nil
// request field are touched.
func (r *sqliteGroupRepo) Update(ctx context.Context, id string, req *models.UpdateGroupRequest) error {
	sets := []string{}
	args := []any{}
	if req.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}
	if req.Visibility != nil {
		sets = append(sets, "visibility = ?")
		args = append(args, *req.Visibility)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE groups SET `+strings.Join(sets, ", ")+` WHERE id = ? AND deleted_at IS NULL`, args...)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update group rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: group", pkg.ErrNotFound)
	}
	return nil
}

func (r *sqliteGroupRepo) SoftDelete(ctx context.Context, q database.TxQuerier, id string) error {
	if q == nil {
		q = r.db
	}
	res, err := q.ExecContext(ctx,
		`UPDATE groups SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete group rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: group", pkg.ErrNotFound)
	}
	return nil
}

func (r *sqliteGroupRepo) AddBooks(ctx context.Context, q database.TxQuerier, groupID string, bookIDs []string) error {
	if q == nil {
		q = r.db
	}
	for _, bookID := range bookIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_books (group_id, book_id) VALUES (?, ?)`, groupID, bookID); err != nil {
			return fmt.Errorf("add group book: %w", err)
		}
	}
	return nil
}

func (r *sqliteGroupRepo) GetBookIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT book_id FROM group_books WHERE group_id = ? ORDER BY book_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group books: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group book: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *sqliteGroupRepo) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	var m models.Membership
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT group_id, user_id, role, created_at FROM memberships WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&m.GroupID, &m.UserID, &role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: membership", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	m.Role = models.Role(role)
	return &m, nil
}

func (r *sqliteGroupRepo) ListMembers(ctx context.Context, groupID string) ([]models.Membership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT group_id, user_id, role, created_at FROM memberships
		WHERE group_id = ?
		ORDER BY created_at ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []models.Membership{}
	for rows.Next() {
		var m models.Membership
		var role string
		if err := rows.Scan(&m.GroupID, &m.UserID, &role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		m.Role = models.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *sqliteGroupRepo) CountMembers(ctx context.Context, q database.TxQuerier, groupID string) (int, error) {
	if q == nil {
		q = r.db
	}
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE group_id = ?`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

func (r *sqliteGroupRepo) AddMember(ctx context.Context, q database.TxQuerier, m *models.Membership) error {
	if q == nil {
		q = r.db
	}
	res, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO memberships (group_id, user_id, role) VALUES (?, ?, ?)`,
		m.GroupID, m.UserID, string(m.Role))
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add member rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: already a member", pkg.ErrPreconditionFailed)
	}
	return nil
}

func (r *sqliteGroupRepo) RemoveMember(ctx context.Context, q database.TxQuerier, groupID, userID string) error {
	if q == nil {
		q = r.db
	}
	res, err := q.ExecContext(ctx,
		`DELETE FROM memberships WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove member rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: membership", pkg.ErrNotFound)
	}
	return nil
}

func (r *sqliteGroupRepo) UpdateRole(ctx context.Context, q database.TxQuerier, groupID, userID string, role models.Role) error {
	if q == nil {
		q = r.db
	}
	res, err := q.ExecContext(ctx,
		`UPDATE memberships SET role = ? WHERE group_id = ? AND user_id = ?`,
		string(role), groupID, userID)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: membership", pkg.ErrNotFound)
	}
	return nil
}

func (r *sqliteGroupRepo) CountOwners(ctx context.Context, q database.TxQuerier, groupID string) (int, error) {
	if q == nil {
		q = r.db
	}
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE group_id = ? AND role = 'owner'`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return count, nil
}
