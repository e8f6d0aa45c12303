package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
)

func TestMessageSendAssignsSequentialSeq(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")

	m1 := env.send(t, "alice", conv.ID, "hello")
	m2 := env.send(t, "bob", conv.ID, "hi back")
	m3 := env.send(t, "alice", conv.ID, "how's the book?")

	assert.Equal(t, int64(1), m1.Seq)
	assert.Equal(t, int64(2), m2.Seq)
	assert.Equal(t, int64(3), m3.Seq)
}

func TestMessageSendFansOut(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	env.pub.reset()

	env.send(t, "alice", conv.ID, "hello")

	assert.Len(t, env.pub.byRoom(broker.RoomThread(conv.ID)), 1)
	// The peer's user room carries the sidebar notification.
	assert.Len(t, env.pub.byRoom(broker.RoomUser("bob")), 1)
	assert.Empty(t, env.pub.byRoom(broker.RoomUser("alice")))
	// Private conversations never reach the feed streams.
	assert.Empty(t, env.pub.byRoom(broker.RoomStreamGlobal()))
}

func TestMessageSendOutsiderGetsNotFound(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")

	_, err := env.messages.Send(context.Background(), "mallory", conv.ID, &models.SendMessageRequest{Content: "let me in"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMessageSendNonceIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	nonce := "client-nonce-1"
	first, err := env.messages.Send(ctx, "alice", conv.ID, &models.SendMessageRequest{Content: "once", ClientNonce: &nonce})
	require.NoError(t, err)

	again, err := env.messages.Send(ctx, "alice", conv.ID, &models.SendMessageRequest{Content: "once", ClientNonce: &nonce})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.Seq, again.Seq)

	// Same nonce from another author is a different message.
	other, err := env.messages.Send(ctx, "bob", conv.ID, &models.SendMessageRequest{Content: "mine", ClientNonce: &nonce})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestMessageQuoteDepthOne(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	m1 := env.send(t, "alice", conv.ID, "original")
	m2, err := env.messages.Send(ctx, "bob", conv.ID, &models.SendMessageRequest{
		Content:         "replying",
		QuotedMessageID: &m1.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, m2.Quoted)
	assert.Equal(t, m1.ID, m2.Quoted.ID)
	assert.Equal(t, "original", m2.Quoted.Excerpt)

	// A quote of a quote is refused.
	_, err = env.messages.Send(ctx, "alice", conv.ID, &models.SendMessageRequest{
		Content:         "nesting",
		QuotedMessageID: &m2.ID,
	})
	assert.ErrorIs(t, err, pkg.ErrValidation)
}

func TestMessageQuoteExcerptDerivedAndCapped(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	long := strings.Repeat("x", 600)
	m1 := env.send(t, "alice", conv.ID, long)

	m2, err := env.messages.Send(ctx, "bob", conv.ID, &models.SendMessageRequest{
		Content:         "wow",
		QuotedMessageID: &m1.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, m2.Quoted)
	assert.Equal(t, models.MaxQuotedExcerpt, utf8.RuneCountInString(m2.Quoted.Excerpt))
}

func TestMessageQuoteAcrossThreadsRefused(t *testing.T) {
	env := newTestEnv(t)
	conv1 := env.makeConversation(t, "alice", "bob")
	conv2 := env.makeConversation(t, "alice", "carol")

	m1 := env.send(t, "alice", conv1.ID, "here")
	_, err := env.messages.Send(context.Background(), "alice", conv2.ID, &models.SendMessageRequest{
		Content:         "there",
		QuotedMessageID: &m1.ID,
	})
	assert.ErrorIs(t, err, pkg.ErrValidation)
}

func TestMessageEditPermissions(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	msg := env.send(t, "alice", conv.ID, "draft")

	// The author edits freely; no EditedBy stamp.
	edited, err := env.messages.Edit(ctx, "alice", msg.ID, &models.EditMessageRequest{Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, "final", *edited.Content)
	assert.Nil(t, edited.EditedBy)
	assert.NotNil(t, edited.EditedAt)

	// The peer is not a moderator here; conversations have none.
	_, err = env.messages.Edit(ctx, "bob", msg.ID, &models.EditMessageRequest{Content: "hijacked"})
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestMessageModeratorEditStampsEditedBy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.makeGroup(t, "alice", "Book Club")
	require.NoError(t, env.groups.AddMember(ctx, "alice", group.ID, &models.AddMemberRequest{UserID: "bob"}))
	channelID := group.Channels[0].ID

	msg := env.send(t, "bob", channelID, "offensive")

	edited, err := env.messages.Edit(ctx, "alice", msg.ID, &models.EditMessageRequest{Content: "[removed by mod]"})
	require.NoError(t, err)
	require.NotNil(t, edited.EditedBy)
	assert.Equal(t, "alice", *edited.EditedBy)
	assert.Equal(t, "bob", edited.AuthorID)
}

func TestMessageBroadcastReactionsAreViewerNeutral(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	msg := env.send(t, "alice", conv.ID, "draft")
	_, err := env.reactions.Toggle(ctx, "alice", msg.ID, &models.ToggleReactionRequest{Symbol: "👍"})
	require.NoError(t, err)
	env.pub.reset()

	edited, err := env.messages.Edit(ctx, "alice", msg.ID, &models.EditMessageRequest{Content: "final"})
	require.NoError(t, err)
	// The acting user's own response stays personalized.
	require.Len(t, edited.Reactions, 1)
	assert.True(t, edited.Reactions[0].ViewerReacted)

	// The thread room fans out to every participant, so the pushed frame
	// carries no per-viewer flag; clients derive it from user_ids.
	events := env.pub.byType(broker.EventMessageEdited)
	require.Len(t, events, 1)
	var pushed models.Message
	require.NoError(t, json.Unmarshal(events[0].Payload, &pushed))
	require.Len(t, pushed.Reactions, 1)
	assert.False(t, pushed.Reactions[0].ViewerReacted)
	assert.Contains(t, pushed.Reactions[0].UserIDs, "alice")
}

func TestMessageSoftDelete(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	m1 := env.send(t, "alice", conv.ID, "to be removed")
	m2, err := env.messages.Send(ctx, "bob", conv.ID, &models.SendMessageRequest{
		Content:         "quoting",
		QuotedMessageID: &m1.ID,
	})
	require.NoError(t, err)

	// The peer cannot delete someone else's message in a conversation.
	err = env.messages.Delete(ctx, "bob", m1.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	require.NoError(t, env.messages.Delete(ctx, "alice", m1.ID))

	// The row and its seq survive; content is the placeholder.
	got, err := env.messages.Get(ctx, "bob", m1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, models.DeletedPlaceholder, *got.Content)

	// The quote preview collapses to the placeholder too.
	gotQuoting, err := env.messages.Get(ctx, "bob", m2.ID)
	require.NoError(t, err)
	require.NotNil(t, gotQuoting.Quoted)
	assert.True(t, gotQuoting.Quoted.Deleted)
	assert.Equal(t, models.DeletedPlaceholder, gotQuoting.Quoted.Excerpt)

	// Deleted messages refuse edits.
	_, err = env.messages.Edit(ctx, "alice", m1.ID, &models.EditMessageRequest{Content: "undo"})
	assert.ErrorIs(t, err, pkg.ErrPreconditionFailed)
}

func TestMessageListPagination(t *testing.T) {
	env := newTestEnv(t)
	conv := env.makeConversation(t, "alice", "bob")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.send(t, "alice", conv.ID, strings.Repeat("m", i+1))
	}

	// Tip page: newest two, oldest first within the page.
	page, err := env.messages.List(ctx, "bob", conv.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, int64(4), page.Messages[0].Seq)
	assert.Equal(t, int64(5), page.Messages[1].Seq)
	assert.True(t, page.HasMore)

	// Walking backwards from seq 4.
	page, err = env.messages.List(ctx, "bob", conv.ID, 4, 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, int64(2), page.Messages[0].Seq)
	assert.Equal(t, int64(3), page.Messages[1].Seq)
	assert.True(t, page.HasMore)

	page, err = env.messages.List(ctx, "bob", conv.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, int64(1), page.Messages[0].Seq)
	assert.False(t, page.HasMore)
}

func TestMessageSendToArchivedChannelRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.makeGroup(t, "alice", "Book Club")
	channelID := group.Channels[0].ID

	archived := true
	_, err := env.channels.Update(ctx, "alice", channelID, &models.UpdateChannelRequest{Archived: &archived})
	require.NoError(t, err)

	_, err = env.messages.Send(ctx, "alice", channelID, &models.SendMessageRequest{Content: "anyone?"})
	assert.ErrorIs(t, err, pkg.ErrPreconditionFailed)

	// Reading stays allowed.
	_, err = env.messages.List(ctx, "alice", channelID, 0, 10)
	assert.NoError(t, err)
}

func TestMessageChannelSendFeedsGlobalStream(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.makeGroup(t, "alice", "Book Club")
	require.NoError(t, env.groups.AddMember(ctx, "alice", group.ID, &models.AddMemberRequest{UserID: "bob"}))
	channelID := group.Channels[0].ID
	env.pub.reset()

	m1 := env.send(t, "alice", channelID, "original")

	events := env.pub.byRoom(broker.RoomStreamGlobal())
	require.Len(t, events, 1)
	assert.Equal(t, broker.EventActivityCreated, events[0].Type)

	// Quoting routes a reply_received into the quoted author's personal feed.
	env.pub.reset()
	_, err := env.messages.Send(ctx, "bob", channelID, &models.SendMessageRequest{
		Content:         "reply",
		QuotedMessageID: &m1.ID,
	})
	require.NoError(t, err)
	assert.Len(t, env.pub.byRoom(broker.RoomStreamPersonal("alice")), 1)
	assert.Empty(t, env.pub.byRoom(broker.RoomStreamPersonal("bob")))
}
