package services

import (
	"context"
	"testing"

	"socialmedia-web/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCollectionFixture() (*CollectionService, *PostStore, *fakeBackend) {
	store := newTestStore()
	backend := newFakeBackend()
	feed := NewFeedService(store, backend, 10, zap.NewNop())
	return NewCollectionService(store, backend, feed, NewAccountService(backend, zap.NewNop()), zap.NewNop()), store, backend
}

func TestLoadOwnCollections(t *testing.T) {
	svc, store, backend := newCollectionFixture()
	ctx := context.Background()
	st := models.InteractionState{Favorited: true, FavoriteCount: 1}

	backend.setList("GetMyPosts", original("p1", "me", models.InteractionState{}))
	backend.setList("GetMyReposts", repostRow("r1", "p2", "me", models.InteractionState{Reposted: true, RepostCount: 1}))
	backend.setList("GetMyFavoritePosts", original("p3", "a", st))

	posts, err := svc.LoadMyPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, viewIDs(posts))

	reposts, err := svc.LoadMyReposts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, viewIDs(reposts))

	favs, err := svc.LoadFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, viewIDs(favs))

	for _, key := range []models.CollectionKey{models.MyPostsKey(), models.MyRepostsKey(), models.FavoritesKey()} {
		assert.True(t, store.HasCollection(key), key.String())
	}
}

func TestLoadFailureKeepsPreviousRows(t *testing.T) {
	svc, store, backend := newCollectionFixture()
	ctx := context.Background()
	backend.setList("GetMyPosts", original("p1", "me", models.InteractionState{}))
	_, err := svc.LoadMyPosts(ctx)
	require.NoError(t, err)

	backend.failOn("GetMyPosts", errBoom)
	_, err = svc.LoadMyPosts(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)

	views, _ := store.Views(models.MyPostsKey())
	assert.Equal(t, []string{"p1"}, viewIDs(views))
}

func TestLoadProfile(t *testing.T) {
	svc, store, backend := newCollectionFixture()
	backend.users["a"] = models.AggregateUser{User: models.User{ID: "a", Username: "alice"}, FollowerCount: 2}
	backend.setList("GetUserPosts:a", original("p1", "a", models.InteractionState{LikeCount: 1}))
	backend.setList("GetUserReposts:a", repostRow("r1", "p9", "a", models.InteractionState{}))

	profile, err := svc.LoadProfile(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.User.Username)
	assert.Equal(t, []string{"p1"}, viewIDs(profile.Posts))
	assert.Equal(t, []string{"r1"}, viewIDs(profile.Reposts))
	assert.True(t, store.HasCollection(models.ProfilePostsKey("a")))
	assert.True(t, store.HasCollection(models.ProfileRepostsKey("a")))
}

func TestLoadProfileUnknownUser(t *testing.T) {
	svc, _, _ := newCollectionFixture()
	_, err := svc.LoadProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
}

func TestReloadDispatchesByKind(t *testing.T) {
	svc, _, backend := newCollectionFixture()
	ctx := context.Background()

	require.NoError(t, svc.Reload(ctx, models.FeedKey()))
	require.NoError(t, svc.Reload(ctx, models.FavoritesKey()))
	require.NoError(t, svc.Reload(ctx, models.ProfileRepostsKey("a")))

	assert.Equal(t, 1, backend.count("GetMyFeed"))
	assert.Equal(t, 1, backend.count("GetMyFavoritePosts"))
	assert.Equal(t, 1, backend.count("GetUserReposts:a"))

	assert.Error(t, svc.Reload(ctx, models.CollectionKey{Kind: "bogus"}))
}

func TestLoadAfterCloseIsDropped(t *testing.T) {
	svc, store, backend := newCollectionFixture()
	backend.setList("GetMyPosts", original("p1", "me", models.InteractionState{}))
	store.Close()

	_, err := svc.LoadMyPosts(context.Background())
	assert.ErrorIs(t, err, ErrWorkspaceClosed)
	assert.False(t, store.HasCollection(models.MyPostsKey()))
}

func TestLoadPost(t *testing.T) {
	svc, store, backend := newCollectionFixture()
	ctx := context.Background()
	backend.posts["p1"] = original("p1", "a", models.InteractionState{LikeCount: 2})
	backend.posts["p2"] = original("p2", "a", models.InteractionState{})

	post, err := svc.LoadPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, 2, post.LikeCount)
	assert.True(t, store.HasCollection(models.PostKey("p1")))

	_, err = svc.LoadPost(ctx, "p2")
	require.NoError(t, err)
	assert.False(t, store.HasCollection(models.PostKey("p1")))
	_, cached := store.State("p1")
	assert.False(t, cached)

	require.NoError(t, svc.Reload(ctx, models.PostKey("p2")))
	assert.Equal(t, 3, backend.count("GetPost"))

	_, err = svc.LoadPost(ctx, "ghost")
	assert.ErrorIs(t, err, ErrBackend)
	assert.True(t, store.HasCollection(models.PostKey("p2")))
}

func TestLoadProfileRemembersUser(t *testing.T) {
	store := newTestStore()
	backend := newFakeBackend()
	backend.users["a"] = models.AggregateUser{User: models.User{ID: "a", Username: "alice"}}
	accounts := NewAccountService(backend, zap.NewNop())
	svc := NewCollectionService(store, backend, nil, accounts, zap.NewNop())

	_, err := svc.LoadProfile(context.Background(), "a")
	require.NoError(t, err)

	cached, ok := accounts.CachedUser("a")
	require.True(t, ok)
	assert.Equal(t, "alice", cached.Username)
}
