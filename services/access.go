package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
	"github.com/mkaraca/shelftalk/repository"
)

// ThreadGuard resolves a thread id to its backing entity and answers "may
// this user touch this thread". Every message, reaction and read-cursor
// operation funnels through it, as does websocket room authorization.
type ThreadGuard struct {
	threadRepo  repository.ThreadRepository
	convRepo    repository.ConversationRepository
	channelRepo repository.ChannelRepository
	groupRepo   repository.GroupRepository
}

// NewThreadGuard wires the guard.
func NewThreadGuard(threadRepo repository.ThreadRepository, convRepo repository.ConversationRepository, channelRepo repository.ChannelRepository, groupRepo repository.GroupRepository) *ThreadGuard {
	return &ThreadGuard{
		threadRepo:  threadRepo,
		convRepo:    convRepo,
		channelRepo: channelRepo,
		groupRepo:   groupRepo,
	}
}

// ThreadContext is what the guard resolved: exactly one of Conversation or
// Channel is set, per the thread kind.
type ThreadContext struct {
	Thread       *models.Thread
	Conversation *models.Conversation
	Channel      *models.Channel
	Membership   *models.Membership
}

// Check verifies userID may read and write threadID. A non-participant gets
// ErrNotFound, not ErrForbidden: outsiders cannot probe which threads exist.
func (g *ThreadGuard) Check(ctx context.Context, userID, threadID string) (*ThreadContext, error) {
	thread, err := g.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}

	tc := &ThreadContext{Thread: thread}
	switch thread.Kind {
	case models.ThreadConversation:
		conv, err := g.convRepo.GetByID(ctx, threadID)
		if err != nil {
			return nil, err
		}
		if !conv.HasParticipant(userID) {
			return nil, fmt.Errorf("%w: thread", pkg.ErrNotFound)
		}
		tc.Conversation = conv
	case models.ThreadChannel:
		ch, err := g.channelRepo.GetByID(ctx, threadID)
		if err != nil {
			return nil, err
		}
		membership, err := g.groupRepo.GetMembership(ctx, ch.GroupID, userID)
		if err != nil {
			return nil, fmt.Errorf("%w: thread", pkg.ErrNotFound)
		}
		tc.Channel = ch
		tc.Membership = membership
	default:
		return nil, fmt.Errorf("%w: thread", pkg.ErrNotFound)
	}
	return tc, nil
}

// Recipients lists everyone who should see activity on the thread, minus the
// author. These are the unread-counter targets for one append.
func (g *ThreadGuard) Recipients(ctx context.Context, tc *ThreadContext, authorID string) ([]string, error) {
	if tc.Conversation != nil {
		other := tc.Conversation.OtherParticipant(authorID)
		if other == "" {
			return nil, nil
		}
		return []string{other}, nil
	}

	members, err := g.groupRepo.ListMembers(ctx, tc.Channel.GroupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID != authorID {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

// CanJoin implements ws.RoomAuthorizer over the broker's room key space.
func (g *ThreadGuard) CanJoin(ctx context.Context, userID, room string) error {
	switch {
	case room == "stream:global":
		return nil
	case strings.HasPrefix(room, "user:"):
		if strings.TrimPrefix(room, "user:") != userID {
			return fmt.Errorf("%w: not your room", pkg.ErrForbidden)
		}
		return nil
	case strings.HasPrefix(room, "stream:personal:"):
		if strings.TrimPrefix(room, "stream:personal:") != userID {
			return fmt.Errorf("%w: not your feed", pkg.ErrForbidden)
		}
		return nil
	case strings.HasPrefix(room, "stream:shelves:"):
		if strings.TrimPrefix(room, "stream:shelves:") != userID {
			return fmt.Errorf("%w: not your feed", pkg.ErrForbidden)
		}
		return nil
	case strings.HasPrefix(room, "thread:"):
		_, err := g.Check(ctx, userID, strings.TrimPrefix(room, "thread:"))
		return err
	default:
		return fmt.Errorf("%w: unknown room", pkg.ErrValidation)
	}
}
