package services

import (
	"context"
	"testing"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSendFriendRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")

	req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, req.Status)
	assert.Equal(t, a.ID, req.From.ID)
	assert.Equal(t, "alice", req.From.Username)
	assert.Equal(t, b.ID, req.To.ID)
	assert.Equal(t, "bob", req.To.Username)

	pushed := f.events.of(realtime.EventFriendRequest)
	require.Len(t, pushed, 1)
	assert.Equal(t, b.ID, pushed[0].userID)
	require.IsType(t, models.FriendRequestView{}, pushed[0].data)
	assert.Equal(t, "alice", pushed[0].data.(models.FriendRequestView).From.Username)

	notifs, err := f.notify.GetUserNotifications(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationFriendRequest, notifs[0].Type)
}

func TestSendFriendRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")

	_, err := f.friends.SendFriendRequest(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.friends.SendFriendRequest(ctx, a.ID, primitive.NilObjectID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.friends.SendFriendRequest(ctx, a.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateRequestEitherDirection(t *testing.T) {
	for _, status := range []string{"", ActionAccept, ActionReject} {
		name := status
		if name == "" {
			name = "pending"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a, b := f.user(t, "alice"), f.user(t, "bob")

			req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
			require.NoError(t, err)
			if status != "" {
				_, err = f.friends.RespondToRequest(ctx, req.ID, b.ID, status)
				require.NoError(t, err)
			}

			_, err = f.friends.SendFriendRequest(ctx, a.ID, b.ID)
			assert.ErrorIs(t, err, ErrConflict)
			_, err = f.friends.SendFriendRequest(ctx, b.ID, a.ID)
			assert.ErrorIs(t, err, ErrConflict)
			assert.Equal(t, "Friend request already exists", Message(err))
		})
	}
}

func TestRespondOnlyByAddressee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")

	req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = f.friends.RespondToRequest(ctx, req.ID, a.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.friends.RespondToRequest(ctx, req.ID, c.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrUnauthorized)

	stored, err := f.store.Friends().GetRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, stored.Status)
}

func TestRespondErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")

	req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = f.friends.RespondToRequest(ctx, req.ID, b.ID, "maybe")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.friends.RespondToRequest(ctx, primitive.NewObjectID(), b.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.friends.RespondToRequest(ctx, req.ID, b.ID, ActionReject)
	require.NoError(t, err)

	for _, action := range []string{ActionAccept, ActionReject} {
		_, err = f.friends.RespondToRequest(ctx, req.ID, b.ID, action)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, "Request has already been processed", Message(err))
	}
}

func TestAcceptMakesFriendsBothWays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")

	f.befriend(t, a.ID, b.ID)

	aFriends, err := f.friends.GetFriends(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, aFriends, 1)
	assert.Equal(t, b.ID, aFriends[0].ID)

	bFriends, err := f.friends.GetFriends(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, bFriends, 1)
	assert.Equal(t, a.ID, bFriends[0].ID)

	accepted := f.events.of(realtime.EventFriendAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, a.ID, accepted[0].userID)

	ok, err := f.friends.AreFriends(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRejectLeavesNoFriendsAndBlocksPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")

	req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.friends.RespondToRequest(ctx, req.ID, b.ID, ActionReject)
	require.NoError(t, err)

	for _, id := range []primitive.ObjectID{a.ID, b.ID} {
		friends, err := f.friends.GetFriends(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, friends)
	}

	_, err = f.friends.SendFriendRequest(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, f.events.of(realtime.EventFriendAccepted))
}

func TestGetPendingRequestsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := f.user(t, "me")
	first, second := f.user(t, "first"), f.user(t, "second")

	_, err := f.friends.SendFriendRequest(ctx, first.ID, me.ID)
	require.NoError(t, err)
	_, err = f.friends.SendFriendRequest(ctx, second.ID, me.ID)
	require.NoError(t, err)

	pending, err := f.friends.GetPendingRequests(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "second", pending[0].From.Username)
	assert.Equal(t, "first", pending[1].From.Username)
	assert.Equal(t, "me", pending[0].To.Username)

	outgoing, err := f.friends.GetPendingRequests(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, outgoing)
}

func TestGetFriendsReportsPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	f.befriend(t, a.ID, b.ID)
	f.befriend(t, c.ID, a.ID)

	_, err := f.presence.Connect(ctx, b.ID)
	require.NoError(t, err)

	friends, err := f.friends.GetFriends(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 2)
	for _, fr := range friends {
		require.NotNil(t, fr.Online)
		assert.Equal(t, fr.ID == b.ID, *fr.Online)
	}
}

func TestCancelRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")

	req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.friends.CancelRequest(ctx, req.ID, b.ID), ErrUnauthorized)
	require.NoError(t, f.friends.CancelRequest(ctx, req.ID, a.ID))
	assert.ErrorIs(t, f.friends.CancelRequest(ctx, req.ID, a.ID), ErrNotFound)

	_, err = f.friends.SendFriendRequest(ctx, b.ID, a.ID)
	assert.NoError(t, err)
}

func TestCancelProcessedRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")

	req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.friends.RespondToRequest(ctx, req.ID, b.ID, ActionReject)
	require.NoError(t, err)

	assert.ErrorIs(t, f.friends.CancelRequest(ctx, req.ID, a.ID), ErrConflict)
}

func TestRemoveFriend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bob")

	assert.ErrorIs(t, f.friends.RemoveFriend(ctx, a.ID, b.ID), ErrNotFound)

	f.befriend(t, a.ID, b.ID)
	require.NoError(t, f.friends.RemoveFriend(ctx, b.ID, a.ID))

	friends, err := f.friends.GetFriends(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)

	ids, err := f.friends.FriendIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
