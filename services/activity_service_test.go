package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
)

func emit(t *testing.T, env *testEnv, req *models.EmitActivityRequest) *models.ActivityRecord {
	t.Helper()
	rec, err := env.activity.Emit(context.Background(), req)
	require.NoError(t, err)
	return rec
}

func TestFeedGlobalPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		emit(t, env, &models.EmitActivityRequest{
			ActivityType: "comment_posted",
			SourceType:   "comment",
			SourceID:     fmt.Sprintf("c-%d", i),
			ActorID:      "alice",
		})
	}

	page, err := env.activity.Feed(ctx, "bob", models.FeedGlobal, models.FeedFilters{}, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	require.NotEmpty(t, page.NextCursor)
	// Newest first.
	assert.Equal(t, "c-4", page.Records[0].SourceID)
	assert.Equal(t, "c-3", page.Records[1].SourceID)
	// Timestamps survive the round trip through the store.
	require.False(t, page.Records[0].CreatedAt.IsZero())
	assert.False(t, page.Records[0].CreatedAt.Before(page.Records[1].CreatedAt))

	page, err = env.activity.Feed(ctx, "bob", models.FeedGlobal, models.FeedFilters{}, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "c-2", page.Records[0].SourceID)
	assert.Equal(t, "c-1", page.Records[1].SourceID)
	require.NotEmpty(t, page.NextCursor)

	page, err = env.activity.Feed(ctx, "bob", models.FeedGlobal, models.FeedFilters{}, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "c-0", page.Records[0].SourceID)
	assert.Empty(t, page.NextCursor)
}

func TestFeedPersonalIsTargetNotActor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := "alice"

	// Bob acts on something that happened TO Alice.
	emit(t, env, &models.EmitActivityRequest{
		ActivityType: "comment_reply",
		SourceType:   "comment",
		SourceID:     "c-1",
		ActorID:      "bob",
		TargetUserID: &target,
	})
	// Alice acting on her own does not reach her personal feed.
	emit(t, env, &models.EmitActivityRequest{
		ActivityType: "comment_posted",
		SourceType:   "comment",
		SourceID:     "c-2",
		ActorID:      "alice",
	})

	page, err := env.activity.Feed(ctx, "alice", models.FeedPersonal, models.FeedFilters{}, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "c-1", page.Records[0].SourceID)
	assert.Equal(t, "bob", page.Records[0].ActorID)

	// The actor's own personal feed stays empty.
	page, err = env.activity.Feed(ctx, "bob", models.FeedPersonal, models.FeedFilters{}, "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Records)
}

func TestFeedShelvesView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.activity.SyncShelves(ctx, &models.SyncShelvesRequest{
		UserID: "alice",
		Shelves: []models.ShelfBooks{
			{ShelfID: "to-read", BookIDs: []string{"dune", "hyperion"}},
			{ShelfID: "favorites", BookIDs: []string{"dune"}},
		},
	}))

	dune, solaris := "dune", "solaris"
	emit(t, env, &models.EmitActivityRequest{
		ActivityType: "review_posted",
		SourceType:   "review",
		SourceID:     "r-1",
		ActorID:      "bob",
		BookID:       &dune,
	})
	emit(t, env, &models.EmitActivityRequest{
		ActivityType: "review_posted",
		SourceType:   "review",
		SourceID:     "r-2",
		ActorID:      "bob",
		BookID:       &solaris,
	})

	// Only activity on shelved books shows up.
	page, err := env.activity.Feed(ctx, "alice", models.FeedShelves, models.FeedFilters{}, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "r-1", page.Records[0].SourceID)

	// Narrowing to a shelf that holds the book still matches.
	page, err = env.activity.Feed(ctx, "alice", models.FeedShelves, models.FeedFilters{ShelfIDs: []string{"favorites"}}, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	// A book filter that misses yields nothing.
	page, err = env.activity.Feed(ctx, "alice", models.FeedShelves, models.FeedFilters{BookIDs: []string{"hyperion"}}, "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Records)

	// Replacing the shelves replaces the view.
	require.NoError(t, env.activity.SyncShelves(ctx, &models.SyncShelvesRequest{
		UserID:  "alice",
		Shelves: []models.ShelfBooks{{ShelfID: "to-read", BookIDs: []string{"solaris"}}},
	}))
	page, err = env.activity.Feed(ctx, "alice", models.FeedShelves, models.FeedFilters{}, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "r-2", page.Records[0].SourceID)
}

func TestFeedShelvesBroadcastReachesShelvers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.activity.SyncShelves(ctx, &models.SyncShelvesRequest{
		UserID:  "alice",
		Shelves: []models.ShelfBooks{{ShelfID: "to-read", BookIDs: []string{"dune"}}},
	}))
	require.NoError(t, env.activity.SyncShelves(ctx, &models.SyncShelvesRequest{
		UserID:  "carol",
		Shelves: []models.ShelfBooks{{ShelfID: "read", BookIDs: []string{"dune"}}},
	}))
	env.pub.reset()

	dune := "dune"
	emit(t, env, &models.EmitActivityRequest{
		ActivityType: "review_posted",
		SourceType:   "review",
		SourceID:     "r-1",
		ActorID:      "bob",
		BookID:       &dune,
	})

	assert.Len(t, env.pub.byRoom(broker.RoomStreamGlobal()), 1)
	assert.Len(t, env.pub.byRoom(broker.RoomStreamShelves("alice")), 1)
	assert.Len(t, env.pub.byRoom(broker.RoomStreamShelves("carol")), 1)
	assert.Empty(t, env.pub.byRoom(broker.RoomStreamShelves("bob")))
}

func TestFeedHidesSoftDeletedSources(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	emit(t, env, &models.EmitActivityRequest{
		ActivityType: "comment_posted",
		SourceType:   "comment",
		SourceID:     "c-1",
		ActorID:      "alice",
	})
	require.NoError(t, env.activity.DeleteBySource(ctx, "comment", "c-1"))

	page, err := env.activity.Feed(ctx, "bob", models.FeedGlobal, models.FeedFilters{}, "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Records)
}

func TestFeedRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.activity.Feed(ctx, "bob", models.FeedView("trending"), models.FeedFilters{}, "", 10)
	assert.ErrorIs(t, err, pkg.ErrValidation)

	_, err = env.activity.Feed(ctx, "bob", models.FeedGlobal, models.FeedFilters{}, "not-a-cursor", 10)
	assert.ErrorIs(t, err, pkg.ErrValidation)

	_, err = env.activity.Emit(ctx, &models.EmitActivityRequest{SourceType: "comment", SourceID: "c"})
	assert.ErrorIs(t, err, pkg.ErrValidation)
}

func TestMessageDeleteRemovesItsFeedRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.makeGroup(t, "alice", "Book Club")
	msg := env.send(t, "alice", group.Channels[0].ID, "announcement")

	page, err := env.activity.Feed(ctx, "bob", models.FeedGlobal, models.FeedFilters{}, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	require.NoError(t, env.messages.Delete(ctx, "alice", msg.ID))

	page, err = env.activity.Feed(ctx, "bob", models.FeedGlobal, models.FeedFilters{}, "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Records)
}
