// File: /services/workspace.go
package services

import (
	"sync"
	"time"

	"socialmedia-web/models"

	"go.uber.org/zap"
)

// Backend is everything a session workspace calls on the backend.
type Backend interface {
	InteractionBackend
	FeedBackend
	CollectionBackend
	AccountBackend
}

// Workspace holds the view state of one browser session.
type Workspace struct {
	SessionID string
	UserID    string

	Store        *PostStore
	Reconciler   *Reconciler
	Interactions *InteractionService
	Feed         *FeedService
	Collections  *CollectionService
	Accounts     *AccountService

	mu       sync.Mutex
	lastSeen time.Time
}

func NewWorkspace(sessionID, userID string, backend Backend, feedPageSize int, logger *zap.Logger) *Workspace {
	logger = logger.With(zap.String("user_id", userID))
	store := NewPostStore(NewResolver(logger))
	reconciler := NewReconciler(store, logger)
	feed := NewFeedService(store, backend, feedPageSize, logger)
	accounts := NewAccountService(backend, logger)
	collections := NewCollectionService(store, backend, feed, accounts, logger)

	return &Workspace{
		SessionID:    sessionID,
		UserID:       userID,
		Store:        store,
		Reconciler:   reconciler,
		Interactions: NewInteractionService(userID, store, reconciler, backend, collections, logger),
		Feed:         feed,
		Collections:  collections,
		Accounts:     accounts,
		lastSeen:     time.Now(),
	}
}

func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Collection materializes one loaded collection.
func (w *Workspace) Collection(key models.CollectionKey) (models.Collection, bool) {
	posts, ok := w.Store.Views(key)
	if !ok {
		return models.Collection{Key: key, Posts: []models.AggregatePostView{}}, false
	}
	return models.Collection{Key: key, Posts: posts}, true
}

// Close discards the view state. Responses still in flight land on a closed
// store and are ignored.
func (w *Workspace) Close() {
	w.Store.Close()
}

// BackendFactory returns a backend client bound to a session token.
type BackendFactory func(token string) Backend

// WorkspaceRegistry keeps one workspace per browser session.
type WorkspaceRegistry struct {
	mu           sync.Mutex
	workspaces   map[string]*Workspace
	factory      BackendFactory
	feedPageSize int
	logger       *zap.Logger
	now          func() time.Time
}

func NewWorkspaceRegistry(factory BackendFactory, feedPageSize int, logger *zap.Logger) *WorkspaceRegistry {
	return &WorkspaceRegistry{
		workspaces:   make(map[string]*Workspace),
		factory:      factory,
		feedPageSize: feedPageSize,
		logger:       logger.Named("workspaces"),
		now:          time.Now,
	}
}

// Get returns the workspace of sessionID, creating it on first use.
func (r *WorkspaceRegistry) Get(sessionID, userID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if ws, ok := r.workspaces[sessionID]; ok && ws.UserID == userID {
		ws.Touch(now)
		return ws
	} else if ok {
		ws.Close()
	}

	ws := NewWorkspace(sessionID, userID, r.factory(sessionID), r.feedPageSize, r.logger)
	ws.Touch(now)
	r.workspaces[sessionID] = ws
	r.logger.Debug("workspace created", zap.String("user_id", userID))
	return ws
}

// Discard closes and forgets the workspace of sessionID.
func (r *WorkspaceRegistry) Discard(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[sessionID]; ok {
		ws.Close()
		delete(r.workspaces, sessionID)
	}
}

// EvictIdle discards workspaces not used within ttl and returns how many
// went away.
func (r *WorkspaceRegistry) EvictIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl)
	evicted := 0
	for id, ws := range r.workspaces {
		if ws.LastSeen().Before(cutoff) {
			ws.Close()
			delete(r.workspaces, id)
			evicted++
		}
	}
	return evicted
}

func (r *WorkspaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}
