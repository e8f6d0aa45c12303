package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/models"
)

func TestReadCursorMonotonic(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.send(t, "alice", conv.ID, "msg")
	}

	cursor, err := env.readState.MarkRead(ctx, "bob", conv.ID, &models.MarkReadRequest{UptoSeq: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), cursor.LastReadSeq)

	// A stale mark from a second device is accepted but moves nothing.
	cursor, err = env.readState.MarkRead(ctx, "bob", conv.ID, &models.MarkReadRequest{UptoSeq: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), cursor.LastReadSeq)

	cursor, err = env.readState.MarkRead(ctx, "bob", conv.ID, &models.MarkReadRequest{UptoSeq: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), cursor.LastReadSeq)
}

func TestReadCursorClampedToTip(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()
	env.send(t, "alice", conv.ID, "only one")

	cursor, err := env.readState.MarkRead(ctx, "bob", conv.ID, &models.MarkReadRequest{UptoSeq: 99})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cursor.LastReadSeq)
}

func TestUnreadCountsFollowAppendsAndReads(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	env.send(t, "alice", conv.ID, "one")
	env.send(t, "alice", conv.ID, "two")
	env.send(t, "bob", conv.ID, "three")

	// Authors never count their own messages.
	unread, err := env.readState.ListUnread(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, conv.ID, unread[0].ThreadID)
	assert.Equal(t, 2, unread[0].UnreadCount)

	unread, err = env.readState.ListUnread(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, 1, unread[0].UnreadCount)

	// Partial read recomputes exactly.
	_, err = env.readState.MarkRead(ctx, "bob", conv.ID, &models.MarkReadRequest{UptoSeq: 1})
	require.NoError(t, err)
	unread, err = env.readState.ListUnread(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, 1, unread[0].UnreadCount)

	// Reading to the tip clears the badge.
	_, err = env.readState.MarkRead(ctx, "bob", conv.ID, &models.MarkReadRequest{UptoSeq: 3})
	require.NoError(t, err)
	unread, err = env.readState.ListUnread(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestUnreadAcrossGroupMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.makeGroup(t, "alice", "Book Club")
	require.NoError(t, env.groups.AddMember(ctx, "alice", group.ID, &models.AddMemberRequest{UserID: "bob"}))
	require.NoError(t, env.groups.AddMember(ctx, "alice", group.ID, &models.AddMemberRequest{UserID: "carol"}))
	channelID := group.Channels[0].ID

	env.send(t, "alice", channelID, "meeting moved to thursday")

	for _, member := range []string{"bob", "carol"} {
		unread, err := env.readState.ListUnread(ctx, member)
		require.NoError(t, err)
		require.Len(t, unread, 1, member)
		assert.Equal(t, 1, unread[0].UnreadCount)
	}
	unread, err := env.readState.ListUnread(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestUnreadRecountExcludesOwnMessages(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	env.send(t, "alice", conv.ID, "one")   // seq 1
	env.send(t, "bob", conv.ID, "two")     // seq 2
	env.send(t, "alice", conv.ID, "three") // seq 3

	// Marking read below her own later message must not pull it back into
	// the count: only bob's message past the cursor is unread.
	_, err := env.readState.MarkRead(ctx, "alice", conv.ID, &models.MarkReadRequest{UptoSeq: 1})
	require.NoError(t, err)
	unread, err := env.readState.ListUnread(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, 1, unread[0].UnreadCount)

	_, err = env.readState.MarkRead(ctx, "alice", conv.ID, &models.MarkReadRequest{UptoSeq: 2})
	require.NoError(t, err)
	unread, err = env.readState.ListUnread(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestMarkReadPublishesToUserRoom(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()
	env.send(t, "alice", conv.ID, "hello")
	env.pub.reset()

	_, err := env.readState.MarkRead(ctx, "bob", conv.ID, &models.MarkReadRequest{UptoSeq: 1})
	require.NoError(t, err)

	events := env.pub.byType(broker.EventReadMarked)
	require.Len(t, events, 1)
	assert.Equal(t, broker.RoomUser("bob"), events[0].Room)
}

func TestGetCursorZeroBeforeFirstRead(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")

	cursor, err := env.readState.GetCursor(context.Background(), "bob", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cursor.LastReadSeq)
}
