package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesEmbeddedMigrations(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "shelftalk.db"), Migrations())
	require.NoError(t, err)
	defer db.Close()

	// Every table the repositories touch must exist after migration.
	for _, table := range []string{
		"threads", "conversations", "groups", "group_books", "channels",
		"memberships", "messages", "message_attachments", "reactions",
		"read_cursors", "unread_counts", "activities", "shelf_books", "invites",
	} {
		var name string
		err := db.Conn.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestNewIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelftalk.db")
	db, err := New(path, Migrations())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Re-opening must skip the recorded migrations instead of re-running
	// the non-idempotent statements.
	db, err = New(path, Migrations())
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "plain statements",
			sql:  "CREATE TABLE a (id TEXT);\nCREATE TABLE b (id TEXT);",
			want: []string{"CREATE TABLE a (id TEXT)", "CREATE TABLE b (id TEXT)"},
		},
		{
			name: "semicolon inside a line comment does not split",
			sql:  "-- one; two\nCREATE TABLE a (id TEXT);",
			want: []string{"-- one; two\nCREATE TABLE a (id TEXT)"},
		},
		{
			name: "semicolon inside a string literal does not split",
			sql:  "INSERT INTO a VALUES ('x;y');",
			want: []string{"INSERT INTO a VALUES ('x;y')"},
		},
		{
			name: "comment at end of input without a newline",
			sql:  "CREATE TABLE a (id TEXT);\n-- done; really",
			want: []string{"CREATE TABLE a (id TEXT)", "-- done; really"},
		},
		{
			name: "escaped quote stays inside the literal",
			sql:  "INSERT INTO a VALUES ('it''s;fine');",
			want: []string{"INSERT INTO a VALUES ('it''s;fine')"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitStatements(tt.sql))
		})
	}
}
