// File: /services/collection_service.go
package services

import (
	"context"
	"fmt"

	"socialmedia-web/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CollectionBackend lists the non-feed collections.
type CollectionBackend interface {
	GetMyPosts(ctx context.Context) ([]models.AggregatePostView, error)
	GetMyReposts(ctx context.Context) ([]models.AggregatePostView, error)
	GetMyFavoritePosts(ctx context.Context) ([]models.AggregatePostView, error)
	GetUserPosts(ctx context.Context, userID string) ([]models.AggregatePostView, error)
	GetUserReposts(ctx context.Context, userID string) ([]models.AggregatePostView, error)
	GetPost(ctx context.Context, id string) (*models.AggregatePostView, error)
}

// UserSource resolves the user shown on a profile page. AccountService
// implements it and keeps the user for later follow toggles.
type UserSource interface {
	GetUser(ctx context.Context, id string) (*models.AggregateUser, error)
}

// CollectionService fills store collections from the backend. A failed
// fetch leaves the previous rows untouched.
type CollectionService struct {
	store   *PostStore
	backend CollectionBackend
	feed    *FeedService
	users   UserSource
	logger  *zap.Logger
}

func NewCollectionService(store *PostStore, backend CollectionBackend, feed *FeedService, users UserSource, logger *zap.Logger) *CollectionService {
	return &CollectionService{
		store:   store,
		backend: backend,
		feed:    feed,
		users:   users,
		logger:  logger.Named("collections"),
	}
}

func (s *CollectionService) LoadMyPosts(ctx context.Context) ([]models.AggregatePostView, error) {
	return s.load(ctx, models.MyPostsKey(), s.backend.GetMyPosts)
}

func (s *CollectionService) LoadMyReposts(ctx context.Context) ([]models.AggregatePostView, error) {
	return s.load(ctx, models.MyRepostsKey(), s.backend.GetMyReposts)
}

func (s *CollectionService) LoadFavorites(ctx context.Context) ([]models.AggregatePostView, error) {
	return s.load(ctx, models.FavoritesKey(), s.backend.GetMyFavoritePosts)
}

func (s *CollectionService) LoadUserPosts(ctx context.Context, userID string) ([]models.AggregatePostView, error) {
	return s.load(ctx, models.ProfilePostsKey(userID), func(ctx context.Context) ([]models.AggregatePostView, error) {
		return s.backend.GetUserPosts(ctx, userID)
	})
}

func (s *CollectionService) LoadUserReposts(ctx context.Context, userID string) ([]models.AggregatePostView, error) {
	return s.load(ctx, models.ProfileRepostsKey(userID), func(ctx context.Context) ([]models.AggregatePostView, error) {
		return s.backend.GetUserReposts(ctx, userID)
	})
}

// LoadProfile fetches a user with their posts and reposts concurrently.
func (s *CollectionService) LoadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := s.users.GetUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("load user %s: %w", userID, err)
		}
		profile.User = *user
		return nil
	})
	g.Go(func() error {
		_, err := s.LoadUserPosts(gctx, userID)
		return err
	})
	g.Go(func() error {
		_, err := s.LoadUserReposts(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile.Posts, _ = s.store.Views(models.ProfilePostsKey(userID))
	profile.Reposts, _ = s.store.Views(models.ProfileRepostsKey(userID))
	return &profile, nil
}

// LoadPost fetches one post into its own collection so its page shares the
// canonical state of every other row showing it. Only the latest post page
// is kept.
func (s *CollectionService) LoadPost(ctx context.Context, postID string) (*models.AggregatePostView, error) {
	key := models.PostKey(postID)
	views, err := s.load(ctx, key, func(ctx context.Context) ([]models.AggregatePostView, error) {
		post, err := s.backend.GetPost(ctx, postID)
		if err != nil {
			return nil, err
		}
		return []models.AggregatePostView{*post}, nil
	})
	if err != nil {
		return nil, err
	}
	for _, k := range s.store.LoadedKeys() {
		if k.Kind == models.CollectionPost && k != key {
			s.store.DropCollection(k)
		}
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("load post %s: %w", postID, ErrUnknownPost)
	}
	return &views[0], nil
}

// Reload refetches key. The feed goes through the feed pager so pagination
// restarts at page 1.
func (s *CollectionService) Reload(ctx context.Context, key models.CollectionKey) error {
	var err error
	switch key.Kind {
	case models.CollectionFeed:
		if s.feed == nil {
			return fmt.Errorf("reload %s: no feed pager", key)
		}
		err = s.feed.Reload(ctx)
	case models.CollectionMyPosts:
		_, err = s.LoadMyPosts(ctx)
	case models.CollectionMyReposts:
		_, err = s.LoadMyReposts(ctx)
	case models.CollectionFavorites:
		_, err = s.LoadFavorites(ctx)
	case models.CollectionProfilePosts:
		_, err = s.LoadUserPosts(ctx, key.OwnerID)
	case models.CollectionProfileReposts:
		_, err = s.LoadUserReposts(ctx, key.OwnerID)
	case models.CollectionPost:
		_, err = s.LoadPost(ctx, key.OwnerID)
	default:
		return fmt.Errorf("reload: unknown collection %q", key.Kind)
	}
	return err
}

func (s *CollectionService) load(ctx context.Context, key models.CollectionKey, fetch func(context.Context) ([]models.AggregatePostView, error)) ([]models.AggregatePostView, error) {
	rows, err := fetch(ctx)
	if err != nil {
		s.logger.Warn("collection fetch failed", zap.Stringer("collection", key), zap.Error(err))
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	s.store.ReplaceCollection(key, rows)
	views, ok := s.store.Views(key)
	if !ok {
		return nil, ErrWorkspaceClosed
	}
	return views, nil
}
