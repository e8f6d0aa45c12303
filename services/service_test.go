package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/database"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/repository"
)

// recorder collects published events so tests can assert on fan-out without
// a live broker.
type recorder struct {
	mu     sync.Mutex
	events []broker.Event
}

func (r *recorder) Publish(event broker.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) byType(eventType string) []broker.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []broker.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) byRoom(room string) []broker.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []broker.Event
	for _, e := range r.events {
		if e.Room == room {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// testEnv wires the full service stack over a throwaway SQLite file.
type testEnv struct {
	db            *database.DB
	pub           *recorder
	guard         *ThreadGuard
	groups        *GroupService
	channels      *ChannelService
	conversations *ConversationService
	messages      *MessageService
	reactions     *ReactionService
	readState     *ReadStateService
	activity      *ActivityService
	invites       *InviteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "shelftalk.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zerolog.Nop()
	pub := &recorder{}

	threadRepo := repository.NewSQLiteThreadRepo(db.Conn)
	convRepo := repository.NewSQLiteConversationRepo(db.Conn)
	groupRepo := repository.NewSQLiteGroupRepo(db.Conn)
	channelRepo := repository.NewSQLiteChannelRepo(db.Conn)
	messageRepo := repository.NewSQLiteMessageRepo(db.Conn)
	reactionRepo := repository.NewSQLiteReactionRepo(db.Conn)
	readRepo := repository.NewSQLiteReadStateRepo(db.Conn)
	activityRepo := repository.NewSQLiteActivityRepo(db.Conn)
	inviteRepo := repository.NewSQLiteInviteRepo(db.Conn)

	guard := NewThreadGuard(threadRepo, convRepo, channelRepo, groupRepo)
	activity := NewActivityService(db.Conn, activityRepo, pub, logger)

	return &testEnv{
		db:            db,
		pub:           pub,
		guard:         guard,
		groups:        NewGroupService(db.Conn, groupRepo, channelRepo, threadRepo, logger),
		channels:      NewChannelService(db.Conn, channelRepo, threadRepo, groupRepo, logger),
		conversations: NewConversationService(db.Conn, convRepo, threadRepo, logger),
		messages:      NewMessageService(db.Conn, messageRepo, threadRepo, reactionRepo, readRepo, guard, activity, pub, logger),
		reactions:     NewReactionService(reactionRepo, messageRepo, guard, activity, pub, logger),
		readState:     NewReadStateService(db.Conn, readRepo, guard, pub, logger),
		activity:      activity,
		invites:       NewInviteService(db.Conn, inviteRepo, groupRepo, pkgNoopSender{}, logger),
	}
}

// pkgNoopSender avoids importing pkg's noop constructor just for tests.
type pkgNoopSender struct{}

func (pkgNoopSender) SendInvite(ctx context.Context, toEmail, groupName, code string) error {
	return nil
}

// makeGroup creates a group owned by ownerID and returns it with its default
// channel loaded.
func (env *testEnv) makeGroup(t *testing.T, ownerID, name string) *models.Group {
	t.Helper()
	group, err := env.groups.Create(context.Background(), ownerID, &models.CreateGroupRequest{Name: name})
	require.NoError(t, err)
	require.NotEmpty(t, group.Channels)
	return group
}

// makeConversation opens the a<->b conversation.
func (env *testEnv) makeConversation(t *testing.T, a, b string) *models.Conversation {
	t.Helper()
	conv, err := env.conversations.GetOrCreate(context.Background(), a, b)
	require.NoError(t, err)
	return conv
}

// send appends a plain text message.
func (env *testEnv) send(t *testing.T, userID, threadID, content string) *models.Message {
	t.Helper()
	msg, err := env.messages.Send(context.Background(), userID, threadID, &models.SendMessageRequest{Content: content})
	require.NoError(t, err)
	return msg
}
