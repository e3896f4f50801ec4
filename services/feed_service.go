// File: /services/feed_service.go
package services

import (
	"context"
	"fmt"
	"sync"

	"socialmedia-web/models"

	"go.uber.org/zap"
)

// FeedBackend fetches one page of the viewer's feed.
type FeedBackend interface {
	GetMyFeed(ctx context.Context, page, pageSize int) (*models.FeedResponse, error)
}

// FeedState is the pagination state of the feed as last reported by the
// backend.
type FeedState struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	Total    int  `json:"total"`
	HasMore  bool `json:"hasMore"`
	Loading  bool `json:"loading"`
}

// FeedService accumulates feed pages into the feed collection of the store.
// Pages are appended in server order; hasMore always comes from the last
// response's metadata.
type FeedService struct {
	store   *PostStore
	backend FeedBackend
	logger  *zap.Logger

	mu      sync.Mutex
	state   FeedState
	loading bool
	// generation invalidates loads started before a refresh.
	generation uint64
}

func NewFeedService(store *PostStore, backend FeedBackend, pageSize int, logger *zap.Logger) *FeedService {
	if pageSize < 1 {
		pageSize = 10
	}
	return &FeedService{
		store:   store,
		backend: backend,
		logger:  logger.Named("feed"),
		state:   FeedState{Page: 0, PageSize: pageSize},
	}
}

func (s *FeedService) State() FeedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Loading = s.loading
	return st
}

// Refresh replaces the feed with page 1. A load still in flight is
// superseded and its response is dropped.
func (s *FeedService) Refresh(ctx context.Context) (FeedState, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	pageSize := s.state.PageSize
	s.mu.Unlock()

	return s.load(ctx, gen, 1, pageSize, false)
}

// LoadMore appends the next page. It refuses when the backend said there is
// nothing more or another load is running.
func (s *FeedService) LoadMore(ctx context.Context) (FeedState, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return s.State(), ErrLoadInFlight
	}
	if !s.state.HasMore {
		s.mu.Unlock()
		return s.State(), ErrNoMorePages
	}
	s.loading = true
	gen := s.generation
	page, pageSize := s.state.Page+1, s.state.PageSize
	s.mu.Unlock()

	return s.load(ctx, gen, page, pageSize, true)
}

func (s *FeedService) load(ctx context.Context, gen uint64, page, pageSize int, appendRows bool) (FeedState, error) {
	resp, err := s.backend.GetMyFeed(ctx, page, pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// A refresh started after this load; its result wins.
		return s.snapshotLocked(), nil
	}
	s.loading = false
	if err != nil {
		s.logger.Warn("feed load failed", zap.Int("page", page), zap.Error(err))
		return s.snapshotLocked(), fmt.Errorf("load feed page %d: %w", page, err)
	}

	if appendRows {
		s.store.AppendCollection(models.FeedKey(), resp.Feed)
	} else {
		s.store.ReplaceCollection(models.FeedKey(), resp.Feed)
	}
	p := resp.Pagination
	s.state = FeedState{
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    p.Total,
		HasMore:  p.HasMore(),
	}
	s.logger.Debug("feed page loaded",
		zap.Int("page", p.Page),
		zap.Int("rows", len(resp.Feed)),
		zap.Bool("has_more", s.state.HasMore))
	return s.snapshotLocked(), nil
}

func (s *FeedService) snapshotLocked() FeedState {
	st := s.state
	st.Loading = s.loading
	return st
}

// Reload lets the feed act as a refetch target.
func (s *FeedService) Reload(ctx context.Context) error {
	_, err := s.Refresh(ctx)
	return err
}
