package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSimilarityScore(t *testing.T) {
	tests := []struct {
		common, mine, want int
	}{
		{1, 2, 50},
		{2, 2, 100},
		{1, 3, 33},
		{2, 3, 67},
		{0, 4, 0},
		{0, 0, 0},
		{3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.common, tt.mine), func(t *testing.T) {
			assert.Equal(t, tt.want, SimilarityScore(tt.common, tt.mine))
		})
	}
}

func TestCommonInterestsKeepsCandidateOrder(t *testing.T) {
	got := CommonInterests([]string{"Music", "Tech", "Art"}, []string{"Art", "Sports", "Tech", "Art"})
	assert.Equal(t, []string{"Art", "Tech"}, got)
}

func TestNormalizeInterests(t *testing.T) {
	got := NormalizeInterests([]string{" Tech", "Tech", "", "  ", "Music "})
	assert.Equal(t, []string{"Tech", "Music"}, got)
}

func TestRankCandidatesOrdersAndCaps(t *testing.T) {
	mine := []string{"Tech", "Music", "Art", "Go"}
	var candidates []models.User
	for i := 0; i < 12; i++ {
		candidates = append(candidates, models.User{Username: fmt.Sprintf("one%02d", i), Interests: []string{"Tech"}})
	}
	candidates = append(candidates,
		models.User{Username: "three", Interests: []string{"Tech", "Music", "Art"}},
		models.User{Username: "none", Interests: []string{"Cooking"}},
		models.User{Username: "two", Interests: []string{"Go", "Art"}},
	)

	got := RankCandidates(mine, candidates, MaxSuggestions, func(u *models.User) models.UserSummary { return u.Summary() })
	require.Len(t, got, MaxSuggestions)

	assert.Equal(t, "three", got[0].Username)
	assert.Equal(t, 75, got[0].SimilarityScore)
	assert.Equal(t, "two", got[1].Username)
	assert.Equal(t, 50, got[1].SimilarityScore)
	assert.Equal(t, "one00", got[2].Username)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].SimilarityScore, got[i].SimilarityScore)
	}
	for _, s := range got {
		assert.NotEqual(t, "none", s.Username)
	}
}

func TestGetSuggestionsExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.user(t, "alice", "Tech", "Music")
	f.user(t, "bob", "Tech", "Art")
	c := f.user(t, "carol")

	got, err := f.friends.GetSuggestions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Username)
	assert.Equal(t, 50, got[0].SimilarityScore)
	assert.Equal(t, []string{"Tech"}, got[0].CommonInterests)

	got, err = f.friends.GetSuggestions(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetSuggestionsExcludesSelfAndLinkedUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.user(t, "alice", "Tech")
	b := f.user(t, "bob", "Tech")
	f.user(t, "dave", "Tech")

	_, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	got, err := f.friends.GetSuggestions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dave", got[0].Username)
	for _, s := range got {
		assert.NotEqual(t, a.ID, s.ID)
	}
}

func TestGetSuggestionsPoolSkipsLinkedUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Two candidates per query: linked users must not use up the pool.
	friends := NewFriendService(f.store.Friends(), f.store.Users(), f.dir, f.notify, f.events, f.presence, 2)

	a := f.user(t, "alice", "Tech")
	b := f.user(t, "bob", "Tech")
	c := f.user(t, "carol", "Tech")
	f.user(t, "zed", "Tech")

	_, err := friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = friends.SendFriendRequest(ctx, c.ID, a.ID)
	require.NoError(t, err)

	got, err := friends.GetSuggestions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "zed", got[0].Username)
}

func TestGetSuggestionsUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.friends.GetSuggestions(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}
