package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"studystreak/internal/modules/streak/domain"
	apperrors "studystreak/internal/platform/errors"
)

func TestFollowIsSymmetricAndIdempotent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "ada")
	e.register(t, "bo")
	ctx := context.Background()

	changed, err := e.social.Follow(ctx, "ada", "bo")
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = e.social.Follow(ctx, "ada", "bo")
	require.NoError(t, err)
	require.False(t, changed)

	require.Equal(t, []string{"bo"}, e.user(t, "ada").Following)
	require.Equal(t, []string{"ada"}, e.user(t, "bo").Followers)

	changed, err = e.social.Unfollow(ctx, "ada", "bo")
	require.NoError(t, err)
	require.True(t, changed)
	require.Empty(t, e.user(t, "ada").Following)
	require.Empty(t, e.user(t, "bo").Followers)
}

func TestFollowRejectsSelfAndUnknownUsers(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "ada")
	ctx := context.Background()

	_, err := e.social.Follow(ctx, "ada", "ada")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = e.social.Follow(ctx, "ada", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = e.social.Follow(ctx, "ada", "ghost")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.Empty(t, e.user(t, "ada").Following)
}

func TestFeedCoversSelfAndFollowing(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	for _, u := range []string{"ada", "bo", "cy"} {
		e.register(t, u)
	}
	ctx := context.Background()
	_, err := e.social.Follow(ctx, "ada", "bo")
	require.NoError(t, err)

	e.complete(t, "bo", 600)
	e.complete(t, "cy", 600)
	e.complete(t, "ada", 60)

	feed, err := e.social.Feed(ctx, "ada", 10)
	require.NoError(t, err)
	for _, a := range feed {
		require.Contains(t, []string{"ada", "bo"}, a.UserID)
	}
	require.Equal(t, "ada", feed[0].UserID)
	kinds := map[domain.ActivityKind]int{}
	for _, a := range feed {
		kinds[a.Kind]++
	}
	require.Equal(t, 1, kinds[domain.ActivityFollowed])
	require.Equal(t, 2, kinds[domain.ActivitySessionCompleted])

	_, err = e.social.Feed(ctx, "ada", -1)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
