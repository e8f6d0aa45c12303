package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
)

type sqliteInviteRepo struct {
	db database.TxQuerier
}

// NewSQLiteInviteRepo returns the SQLite InviteRepository.
func NewSQLiteInviteRepo(db database.TxQuerier) InviteRepository {
	return &sqliteInviteRepo{db: db}
}

func (r *sqliteInviteRepo) Create(ctx context.Context, invite *models.Invite) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invites (id, code, group_id, created_by, max_uses, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		invite.ID, invite.Code, invite.GroupID, invite.CreatedBy, invite.MaxUses, invite.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

func (r *sqliteInviteRepo) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	var inv models.Invite
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, group_id, created_by, max_uses, uses, expires_at, created_at
		FROM invites WHERE code = ?`, code,
	).Scan(&inv.ID, &inv.Code, &inv.GroupID, &inv.CreatedBy, &inv.MaxUses, &inv.Uses, &inv.ExpiresAt, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: invite", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return &inv, nil
}

// IncrementUses re-checks the cap in the WHERE so a racing redeem of a
// capped code loses here instead of over-admitting.
func (r *sqliteInviteRepo) IncrementUses(ctx context.Context, q database.TxQuerier, id string) error {
	if q == nil {
		q = r.db
	}
	res, err := q.ExecContext(ctx, `
		UPDATE invites SET uses = uses + 1
		WHERE id = ? AND (max_uses = 0 OR uses < max_uses)`, id)
	if err != nil {
		return fmt.Errorf("increment invite uses: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment invite uses rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: invite exhausted", pkg.ErrPreconditionFailed)
	}
	return nil
}

func (r *sqliteInviteRepo) ListByGroup(ctx context.Context, groupID string) ([]models.Invite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, group_id, created_by, max_uses, uses, expires_at, created_at
		FROM invites WHERE group_id = ?
		ORDER BY created_at DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	invites := []models.Invite{}
	for rows.Next() {
		var inv models.Invite
		if err := rows.Scan(&inv.ID, &inv.Code, &inv.GroupID, &inv.CreatedBy, &inv.MaxUses, &inv.Uses, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}
