package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
)

type sqliteReactionRepo struct {
	db database.TxQuerier
}

// NewSQLiteReactionRepo returns the SQLite ReactionRepository.
func NewSQLiteReactionRepo(db database.TxQuerier) ReactionRepository {
	return &sqliteReactionRepo{db: db}
}

// Toggle inserts the (message, user, symbol) tuple; if the unique index says
// it already exists, it deletes instead. Two racing toggles collapse into one
// add thanks to INSERT OR IGNORE.
func (r *sqliteReactionRepo) Toggle(ctx context.Context, id, messageID, userID, symbol string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reactions (id, message_id, user_id, symbol) VALUES (?, ?, ?, ?)`,
		id, messageID, userID, symbol)
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert reaction rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM reactions WHERE message_id = ? AND user_id = ? AND symbol = ?`,
		messageID, userID, symbol); err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	return false, nil
}

func (r *sqliteReactionRepo) GetByMessageID(ctx context.Context, messageID string) ([]models.ReactionGroup, error) {
	byMessage, err := r.GetByMessageIDs(ctx, []string{messageID})
	if err != nil {
		return nil, err
	}
	groups, ok := byMessage[messageID]
	if !ok {
		return []models.ReactionGroup{}, nil
	}
	return groups, nil
}

// GetByMessageIDs aggregates per symbol with GROUP_CONCAT carrying the user
// ids, ordered by first reaction so symbol order is stable across reloads.
func (r *sqliteReactionRepo) GetByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]models.ReactionGroup, error) {
	result := map[string][]models.ReactionGroup{}
	if len(messageIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(messageIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(messageIDs))
	for i, id := range messageIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, symbol, COUNT(*), GROUP_CONCAT(user_id)
		FROM reactions
		WHERE message_id IN (`+placeholders+`)
		GROUP BY message_id, symbol
		ORDER BY message_id, MIN(created_at), symbol`, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID string
		var g models.ReactionGroup
		var userIDs string
		if err := rows.Scan(&messageID, &g.Symbol, &g.Count, &userIDs); err != nil {
			return nil, fmt.Errorf("scan reaction group: %w", err)
		}
		if userIDs != "" {
			g.UserIDs = strings.Split(userIDs, ",")
		} else {
			g.UserIDs = []string{}
		}
		result[messageID] = append(result[messageID], g)
	}
	return result, rows.Err()
}
