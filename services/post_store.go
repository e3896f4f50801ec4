// File: /services/post_store.go
package services

import (
	"sync"
	"time"

	"socialmedia-web/models"
)

// canonicalEntry is the single cached copy of a canonical post.
type canonicalEntry struct {
	post    models.Post
	author  *models.User
	state   models.InteractionState
	version uint64
}

// row is one entry of a collection. It keeps only what identifies the row;
// counters and flags are read from the canonical entry.
type row struct {
	view        models.AggregatePostView
	key         string
	canonicalID string
	reposterID  string
}

type collection struct {
	rows      []*row
	fetchedAt time.Time
}

// PostStore is a normalized cache of canonical posts plus ordered
// collections of rows that reference them. Because every row of a canonical
// post reads the same entry, rows can never disagree on counters or flags.
//
// A closed store ignores writes and returns empty reads, so responses that
// resolve after their session went away are dropped silently.
type PostStore struct {
	mu          sync.RWMutex
	resolver    *Resolver
	posts       map[string]*canonicalEntry
	collections map[models.CollectionKey]*collection
	closed      bool
	now         func() time.Time
}

func NewPostStore(resolver *Resolver) *PostStore {
	return &PostStore{
		resolver:    resolver,
		posts:       make(map[string]*canonicalEntry),
		collections: make(map[models.CollectionKey]*collection),
		now:         time.Now,
	}
}

// ReplaceCollection sets the rows of key to views in server order. A second
// original row for the same canonical post is dropped.
func (s *PostStore) ReplaceCollection(key models.CollectionKey, views []models.AggregatePostView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	rows := make([]*row, 0, len(views))
	originals := make(map[string]bool)
	for _, v := range views {
		r := s.upsertLocked(v)
		if !v.IsRepost() {
			if originals[r.canonicalID] {
				continue
			}
			originals[r.canonicalID] = true
		}
		rows = append(rows, r)
	}
	s.collections[key] = &collection{rows: rows, fetchedAt: s.now()}
	s.pruneLocked()
}

// AppendCollection adds views to the tail of key. Rows are neither re-sorted
// nor de-duplicated, so a page overlapping the previous one shows twice.
func (s *PostStore) AppendCollection(key models.CollectionKey, views []models.AggregatePostView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	c, ok := s.collections[key]
	if !ok {
		c = &collection{}
		s.collections[key] = c
	}
	for _, v := range views {
		c.rows = append(c.rows, s.upsertLocked(v))
	}
	c.fetchedAt = s.now()
}

func (s *PostStore) upsertLocked(v models.AggregatePostView) *row {
	canonicalID := s.resolver.CanonicalID(v)
	e, ok := s.posts[canonicalID]
	if !ok {
		e = &canonicalEntry{}
		s.posts[canonicalID] = e
	}

	e.post.ID = canonicalID
	e.post.Content = v.Content
	if v.IsRepost() {
		// Author fields of a repost row describe the original post only when
		// the backend filled them; keep what an original row told us before.
		if e.author == nil && v.User != nil {
			e.author = v.User
		}
		if e.post.UserID == "" {
			e.post.UserID = v.UserID
		}
	} else {
		e.post.UserID = v.UserID
		e.post.CreatedAt = v.CreatedAt
		e.post.UpdatedAt = v.UpdatedAt
		if v.User != nil {
			e.author = v.User
		}
	}
	e.state = v.InteractionState.Clamp()
	e.version++

	return &row{
		view:        v,
		key:         ViewKey(v),
		canonicalID: canonicalID,
		reposterID:  v.ReposterID(),
	}
}

// pruneLocked forgets canonical entries no row references any more.
func (s *PostStore) pruneLocked() {
	referenced := make(map[string]bool, len(s.posts))
	for _, c := range s.collections {
		for _, r := range c.rows {
			referenced[r.canonicalID] = true
		}
	}
	for id := range s.posts {
		if !referenced[id] {
			delete(s.posts, id)
		}
	}
}

// Views materializes the rows of key with the current canonical state.
func (s *PostStore) Views(key models.CollectionKey) ([]models.AggregatePostView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false
	}

	c, ok := s.collections[key]
	if !ok {
		return nil, false
	}
	out := make([]models.AggregatePostView, 0, len(c.rows))
	for _, r := range c.rows {
		out = append(out, s.materializeLocked(r))
	}
	return out, true
}

func (s *PostStore) materializeLocked(r *row) models.AggregatePostView {
	v := r.view
	if e, ok := s.posts[r.canonicalID]; ok {
		v.InteractionState = e.state
		v.Content = e.post.Content
		if !v.IsRepost() {
			v.UpdatedAt = e.post.UpdatedAt
		}
	}
	return v
}

func (s *PostStore) HasCollection(key models.CollectionKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[key]
	return ok && !s.closed
}

// LoadedKeys lists the collections currently held.
func (s *PostStore) LoadedKeys() []models.CollectionKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]models.CollectionKey, 0, len(s.collections))
	for k := range s.collections {
		keys = append(keys, k)
	}
	return keys
}

// FetchedAt reports when key was last filled from the backend.
func (s *PostStore) FetchedAt(key models.CollectionKey) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[key]
	if !ok {
		return time.Time{}, false
	}
	return c.fetchedAt, true
}

func (s *PostStore) DropCollection(key models.CollectionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, key)
	s.pruneLocked()
}

// State returns the cached interaction state of a canonical post.
func (s *PostStore) State(canonicalID string) (models.InteractionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return models.InteractionState{}, false
	}
	e, ok := s.posts[canonicalID]
	if !ok {
		return models.InteractionState{}, false
	}
	return e.state, true
}

// Version changes every time the canonical entry changes, so a renderer can
// skip rows whose version it has already drawn.
func (s *PostStore) Version(canonicalID string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.posts[canonicalID]; ok {
		return e.version
	}
	return 0
}

// Update applies fn to the state of canonicalID atomically and returns the
// state before and after. ok is false when the post is not cached or the
// store is closed.
func (s *PostStore) Update(canonicalID string, fn func(models.InteractionState) models.InteractionState) (before, after models.InteractionState, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return before, after, false
	}
	e, found := s.posts[canonicalID]
	if !found {
		return before, after, false
	}
	before = e.state
	after = fn(before).Clamp()
	if after != before {
		e.state = after
		e.version++
	}
	return before, after, true
}

// SetState overwrites the state of canonicalID.
func (s *PostStore) SetState(canonicalID string, state models.InteractionState) bool {
	_, _, ok := s.Update(canonicalID, func(models.InteractionState) models.InteractionState {
		return state
	})
	return ok
}

// SetContent records an edit of the canonical post.
func (s *PostStore) SetContent(canonicalID, content string, updatedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	e, ok := s.posts[canonicalID]
	if !ok {
		return false
	}
	e.post.Content = content
	if !updatedAt.IsZero() {
		e.post.UpdatedAt = updatedAt
	}
	e.version++
	return true
}

// removeRows deletes the rows of key matching match and returns how many
// went away.
func (s *PostStore) removeRows(key models.CollectionKey, match func(*row) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	c, ok := s.collections[key]
	if !ok {
		return 0
	}
	kept := c.rows[:0:0]
	for _, r := range c.rows {
		if !match(r) {
			kept = append(kept, r)
		}
	}
	removed := len(c.rows) - len(kept)
	if removed > 0 {
		c.rows = kept
		s.pruneLocked()
	}
	return removed
}

// RemoveCanonical removes every row referencing canonicalID from every
// collection and forgets the entry.
func (s *PostStore) RemoveCanonical(canonicalID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	removed := 0
	for _, c := range s.collections {
		kept := c.rows[:0:0]
		for _, r := range c.rows {
			if r.canonicalID != canonicalID {
				kept = append(kept, r)
			}
		}
		removed += len(c.rows) - len(kept)
		c.rows = kept
	}
	delete(s.posts, canonicalID)
	return removed
}

// Close discards all cached state. Later writes are ignored.
func (s *PostStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.posts = make(map[string]*canonicalEntry)
	s.collections = make(map[models.CollectionKey]*collection)
}

func (s *PostStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
