package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaraca/shelftalk/pkg"
)

func TestConversationGetOrCreateIsSymmetric(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.conversations.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	second, err := env.conversations.GetOrCreate(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// The pair is stored in canonical order.
	assert.Less(t, first.User1ID, first.User2ID)
}

func TestConversationWithSelfRefused(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.conversations.GetOrCreate(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, pkg.ErrValidation)
}

func TestConversationHiddenFromOutsiders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	conv := env.makeConversation(t, "alice", "bob")

	_, err := env.conversations.Get(ctx, "mallory", conv.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	got, err := env.conversations.Get(ctx, "bob", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
}

func TestConversationArchiveIsPerParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	conv := env.makeConversation(t, "alice", "bob")

	require.NoError(t, env.conversations.SetArchived(ctx, "alice", conv.ID, true))

	got, err := env.conversations.Get(ctx, "alice", conv.ID)
	require.NoError(t, err)
	assert.True(t, got.ArchivedFor("alice"))
	assert.False(t, got.ArchivedFor("bob"))

	// A new message does not un-archive; the flag is only flipped explicitly.
	env.send(t, "bob", conv.ID, "still there?")
	got, err = env.conversations.Get(ctx, "alice", conv.ID)
	require.NoError(t, err)
	assert.True(t, got.ArchivedFor("alice"))

	require.NoError(t, env.conversations.SetArchived(ctx, "alice", conv.ID, false))
	got, err = env.conversations.Get(ctx, "alice", conv.ID)
	require.NoError(t, err)
	assert.False(t, got.ArchivedFor("alice"))
}

func TestConversationList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.makeConversation(t, "alice", "bob")
	env.makeConversation(t, "alice", "carol")
	env.makeConversation(t, "bob", "carol")

	convs, err := env.conversations.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, convs, 2)

	convs, err = env.conversations.List(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, convs)
}
