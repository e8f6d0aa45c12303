package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaraca/shelftalk/models"
	"github.com/mkaraca/shelftalk/pkg"
)

func TestInviteCreateAndRedeem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.makeGroup(t, "alice", "Book Club")

	invite, err := env.invites.Create(ctx, "alice", group.ID, &models.CreateInviteRequest{})
	require.NoError(t, err)
	assert.Len(t, invite.Code, 10)

	joined, err := env.invites.Redeem(ctx, "bob", invite.Code)
	require.NoError(t, err)
	assert.Equal(t, group.ID, joined.ID)

	m, err := env.groups.Membership(ctx, group.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, m.Role)
}

func TestInviteRequiresModerator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.makeGroup(t, "alice", "Book Club")
	require.NoError(t, env.groups.AddMember(ctx, "alice", group.ID, &models.AddMemberRequest{UserID: "bob"}))

	_, err := env.invites.Create(ctx, "bob", group.ID, &models.CreateInviteRequest{})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	_, err = env.invites.ListByGroup(ctx, "bob", group.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	invites, err := env.invites.ListByGroup(ctx, "alice", group.ID)
	require.NoError(t, err)
	assert.Empty(t, invites)
}

func TestInviteUseCapEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.makeGroup(t, "alice", "Book Club")

	invite, err := env.invites.Create(ctx, "alice", group.ID, &models.CreateInviteRequest{MaxUses: 1})
	require.NoError(t, err)

	_, err = env.invites.Redeem(ctx, "bob", invite.Code)
	require.NoError(t, err)

	_, err = env.invites.Redeem(ctx, "carol", invite.Code)
	assert.ErrorIs(t, err, pkg.ErrPreconditionFailed)
}

func TestInviteRedeemTwiceBySameUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := env.makeGroup(t, "alice", "Book Club")

	invite, err := env.invites.Create(ctx, "alice", group.ID, &models.CreateInviteRequest{})
	require.NoError(t, err)

	_, err = env.invites.Redeem(ctx, "bob", invite.Code)
	require.NoError(t, err)

	// Already a member: the whole redemption rolls back, use count included.
	_, err = env.invites.Redeem(ctx, "bob", invite.Code)
	assert.ErrorIs(t, err, pkg.ErrPreconditionFailed)

	invites, err := env.invites.ListByGroup(ctx, "alice", group.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, 1, invites[0].Uses)
}

func TestInviteUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.invites.Redeem(context.Background(), "bob", "NOSUCHCODE")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
