// File: /services/interaction_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"socialmedia-web/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxPostContentLength   = 5000
	MaxRepostCommentLength = 1000
)

// InteractionKind groups operations that must not overlap on the same post.
// Like and unlike share a kind, as do favorite/unfavorite and
// repost/unrepost.
type InteractionKind string

const (
	InteractionLike     InteractionKind = "like"
	InteractionFavorite InteractionKind = "favorite"
	InteractionRepost   InteractionKind = "repost"
	InteractionEdit     InteractionKind = "edit"
	InteractionDelete   InteractionKind = "delete"
)

// InteractionBackend is the part of the backend API interactions need.
type InteractionBackend interface {
	LikePost(ctx context.Context, id string) error
	UnlikePost(ctx context.Context, id string) error
	FavoritePost(ctx context.Context, id string) error
	UnfavoritePost(ctx context.Context, id string) error
	Repost(ctx context.Context, id, comment string) (*models.Repost, error)
	Unrepost(ctx context.Context, id string) error
	CreatePost(ctx context.Context, content string) (*models.AggregatePostView, error)
	UpdatePost(ctx context.Context, id, content string) (*models.AggregatePostView, error)
	DeletePost(ctx context.Context, id string) error
}

// Refetcher reloads a collection from the backend.
type Refetcher interface {
	Reload(ctx context.Context, key models.CollectionKey) error
}

// InteractionResult describes the settled outcome of one interaction.
type InteractionResult struct {
	PostID    string                  `json:"postId"`
	State     models.InteractionState `json:"state"`
	Changed   []models.CollectionKey  `json:"changed"`
	Refetched []models.CollectionKey  `json:"refetched,omitempty"`
}

type inflightKey struct {
	postID string
	kind   InteractionKind
}

// InteractionService runs interactions for one viewing user: optimistic
// update, one backend call, then revert or propagate.
type InteractionService struct {
	actorID    string
	store      *PostStore
	reconciler *Reconciler
	backend    InteractionBackend
	refetcher  Refetcher
	logger     *zap.Logger

	mu       sync.Mutex
	inflight map[inflightKey]uuid.UUID
}

func NewInteractionService(actorID string, store *PostStore, reconciler *Reconciler, backend InteractionBackend, refetcher Refetcher, logger *zap.Logger) *InteractionService {
	return &InteractionService{
		actorID:    actorID,
		store:      store,
		reconciler: reconciler,
		backend:    backend,
		refetcher:  refetcher,
		logger:     logger.Named("interactions").With(zap.String("actor_id", actorID)),
		inflight:   make(map[inflightKey]uuid.UUID),
	}
}

func (s *InteractionService) begin(postID string, kind InteractionKind) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := inflightKey{postID: postID, kind: kind}
	if _, busy := s.inflight[key]; busy {
		return uuid.Nil, fmt.Errorf("%s %s: %w", kind, postID, ErrInteractionInFlight)
	}
	token := uuid.New()
	s.inflight[key] = token
	return token, nil
}

func (s *InteractionService) end(postID string, kind InteractionKind, token uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := inflightKey{postID: postID, kind: kind}
	if s.inflight[key] == token {
		delete(s.inflight, key)
	}
}

// InFlight reports whether an interaction of kind is pending on postID.
func (s *InteractionService) InFlight(postID string, kind InteractionKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[inflightKey{postID: postID, kind: kind}]
	return busy
}

func (s *InteractionService) Like(ctx context.Context, postID string) (*InteractionResult, error) {
	return s.toggle(ctx, postID, InteractionLike, true, s.backend.LikePost)
}

func (s *InteractionService) Unlike(ctx context.Context, postID string) (*InteractionResult, error) {
	return s.toggle(ctx, postID, InteractionLike, false, s.backend.UnlikePost)
}

func (s *InteractionService) Favorite(ctx context.Context, postID string) (*InteractionResult, error) {
	return s.toggle(ctx, postID, InteractionFavorite, true, s.backend.FavoritePost)
}

func (s *InteractionService) Unfavorite(ctx context.Context, postID string) (*InteractionResult, error) {
	return s.toggle(ctx, postID, InteractionFavorite, false, s.backend.UnfavoritePost)
}

// Repost reposts postID with an optional comment. On success the loaded
// collections that should show the new repost row are refetched.
func (s *InteractionService) Repost(ctx context.Context, postID, comment string) (*InteractionResult, error) {
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxRepostCommentLength {
		return nil, fmt.Errorf("%w: comment longer than %d characters", ErrInvalidContent, MaxRepostCommentLength)
	}
	result, err := s.toggle(ctx, postID, InteractionRepost, true, func(ctx context.Context, id string) error {
		_, err := s.backend.Repost(ctx, id, comment)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Refetched = s.refetch(ctx, s.reconciler.RepostCreated(s.actorID))
	return result, nil
}

func (s *InteractionService) Unrepost(ctx context.Context, postID string) (*InteractionResult, error) {
	return s.toggle(ctx, postID, InteractionRepost, false, s.backend.Unrepost)
}

func (s *InteractionService) toggle(ctx context.Context, postID string, kind InteractionKind, on bool, call func(context.Context, string) error) (*InteractionResult, error) {
	token, err := s.begin(postID, kind)
	if err != nil {
		return nil, err
	}
	defer s.end(postID, kind, token)

	current, ok := s.store.State(postID)
	if !ok {
		if s.store.Closed() {
			return nil, ErrWorkspaceClosed
		}
		return nil, fmt.Errorf("%s %s: %w", kind, postID, ErrUnknownPost)
	}
	if flag(current, kind) == on {
		// Nothing to change; report the cached state.
		return &InteractionResult{PostID: postID, State: current, Changed: []models.CollectionKey{}}, nil
	}

	before, optimistic, ok := s.store.Update(postID, func(st models.InteractionState) models.InteractionState {
		return transition(st, kind, on)
	})
	if !ok {
		return nil, ErrWorkspaceClosed
	}

	if err := call(ctx, postID); err != nil {
		s.store.Update(postID, func(st models.InteractionState) models.InteractionState {
			return restore(st, before, kind)
		})
		s.logger.Warn("interaction failed, optimistic update reverted",
			zap.String("post_id", postID),
			zap.String("kind", string(kind)),
			zap.Bool("on", on),
			zap.Error(err))
		return nil, err
	}

	// Propagate the confirmed fields of this interaction on top of whatever
	// other interactions changed meanwhile.
	latest, ok := s.store.State(postID)
	if !ok {
		latest = optimistic
	}
	confirmed := restore(latest, optimistic, kind)
	propagated := s.reconciler.Propagate(s.actorID, postID, confirmed)

	return &InteractionResult{
		PostID:  postID,
		State:   propagated.State,
		Changed: propagated.Changed(),
	}, nil
}

func (s *InteractionService) refetch(ctx context.Context, keys []models.CollectionKey) []models.CollectionKey {
	done := make([]models.CollectionKey, 0, len(keys))
	if s.refetcher == nil {
		return done
	}
	for _, key := range keys {
		if err := s.refetcher.Reload(ctx, key); err != nil {
			s.logger.Warn("refetch after interaction failed", zap.Stringer("collection", key), zap.Error(err))
			continue
		}
		done = append(done, key)
	}
	return done
}

// CreatePost publishes a new post and refetches the loaded collections that
// list the author's own posts.
func (s *InteractionService) CreatePost(ctx context.Context, content string) (*models.AggregatePostView, []models.CollectionKey, error) {
	content, err := ValidatePostContent(content)
	if err != nil {
		return nil, nil, err
	}
	post, err := s.backend.CreatePost(ctx, content)
	if err != nil {
		s.logger.Warn("create post failed", zap.Error(err))
		return nil, nil, err
	}

	var keys []models.CollectionKey
	for _, k := range []models.CollectionKey{models.FeedKey(), models.MyPostsKey(), models.ProfilePostsKey(s.actorID)} {
		if s.store.HasCollection(k) {
			keys = append(keys, k)
		}
	}
	return post, s.refetch(ctx, keys), nil
}

// EditPost replaces the content of one of the actor's posts. It is not
// optimistic: the cache changes only after the backend accepts the edit.
func (s *InteractionService) EditPost(ctx context.Context, postID, content string) (*models.AggregatePostView, error) {
	content, err := ValidatePostContent(content)
	if err != nil {
		return nil, err
	}
	token, err := s.begin(postID, InteractionEdit)
	if err != nil {
		return nil, err
	}
	defer s.end(postID, InteractionEdit, token)

	updated, err := s.backend.UpdatePost(ctx, postID, content)
	if err != nil {
		s.logger.Warn("edit post failed", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}
	s.reconciler.PostEdited(postID, updated.Content, updated.UpdatedAt)
	return updated, nil
}

// DeletePost deletes one of the actor's posts and drops every row showing it.
func (s *InteractionService) DeletePost(ctx context.Context, postID string) (int, error) {
	token, err := s.begin(postID, InteractionDelete)
	if err != nil {
		return 0, err
	}
	defer s.end(postID, InteractionDelete, token)

	if err := s.backend.DeletePost(ctx, postID); err != nil {
		s.logger.Warn("delete post failed", zap.String("post_id", postID), zap.Error(err))
		return 0, err
	}
	return s.reconciler.PostDeleted(postID), nil
}

// ValidatePostContent trims content and checks it against the backend's
// limits.
func ValidatePostContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: content is empty", ErrInvalidContent)
	}
	if utf8.RuneCountInString(content) > MaxPostContentLength {
		return "", fmt.Errorf("%w: content longer than %d characters", ErrInvalidContent, MaxPostContentLength)
	}
	return content, nil
}

func flag(st models.InteractionState, kind InteractionKind) bool {
	switch kind {
	case InteractionLike:
		return st.Liked
	case InteractionFavorite:
		return st.Favorited
	case InteractionRepost:
		return st.Reposted
	}
	return false
}

func delta(on bool) int {
	if on {
		return 1
	}
	return -1
}

// transition flips the flag of kind to on and moves its counter by one.
func transition(st models.InteractionState, kind InteractionKind, on bool) models.InteractionState {
	switch kind {
	case InteractionLike:
		st.Liked = on
		st.LikeCount += delta(on)
	case InteractionFavorite:
		st.Favorited = on
		st.FavoriteCount += delta(on)
	case InteractionRepost:
		st.Reposted = on
		st.RepostCount += delta(on)
	}
	return st.Clamp()
}

// restore copies the fields owned by kind from src into st.
func restore(st, src models.InteractionState, kind InteractionKind) models.InteractionState {
	switch kind {
	case InteractionLike:
		st.Liked = src.Liked
		st.LikeCount = src.LikeCount
	case InteractionFavorite:
		st.Favorited = src.Favorited
		st.FavoriteCount = src.FavoriteCount
	case InteractionRepost:
		st.Reposted = src.Reposted
		st.RepostCount = src.RepostCount
	}
	return st
}
