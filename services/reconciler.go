// File: /services/reconciler.go
package services

import (
	"time"

	"socialmedia-web/models"

	"go.uber.org/zap"
)

// PropagateResult reports what a propagate call changed.
type PropagateResult struct {
	State   models.InteractionState      `json:"state"`
	Removed map[models.CollectionKey]int `json:"-"`
}

// Changed lists the collections that lost rows.
func (r PropagateResult) Changed() []models.CollectionKey {
	keys := make([]models.CollectionKey, 0, len(r.Removed))
	for k, n := range r.Removed {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

// Reconciler pushes confirmed interaction state to every row of a canonical
// post and applies the membership changes that state implies.
type Reconciler struct {
	store  *PostStore
	logger *zap.Logger
}

func NewReconciler(store *PostStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger.Named("reconciler")}
}

// Propagate writes state to canonicalID. The latest call wins. When state
// says the actor no longer reposts the post, the actor's own repost rows
// leave the feed, favorites and the actor's repost lists; when it says the
// post is no longer a favorite, its rows leave favorites.
func (r *Reconciler) Propagate(actorID, canonicalID string, state models.InteractionState) PropagateResult {
	result := PropagateResult{State: state.Clamp(), Removed: map[models.CollectionKey]int{}}
	if !r.store.SetState(canonicalID, result.State) {
		r.logger.Debug("propagate target not cached", zap.String("post_id", canonicalID))
	}

	if !state.Reposted {
		ownRepost := func(row *row) bool {
			return row.view.IsRepost() && row.canonicalID == canonicalID && row.reposterID == actorID
		}
		for _, key := range r.store.LoadedKeys() {
			if !repostMembershipKey(key, actorID) {
				continue
			}
			if n := r.store.removeRows(key, ownRepost); n > 0 {
				result.Removed[key] += n
			}
		}
	}

	if !state.Favorited {
		favorite := func(row *row) bool { return row.canonicalID == canonicalID }
		if n := r.store.removeRows(models.FavoritesKey(), favorite); n > 0 {
			result.Removed[models.FavoritesKey()] += n
		}
	}

	if len(result.Removed) > 0 {
		r.logger.Debug("propagate removed rows",
			zap.String("post_id", canonicalID),
			zap.Any("removed", result.Removed))
	}
	return result
}

// repostMembershipKey tells whether key holds rows that exist because of the
// actor's own repost relationship.
func repostMembershipKey(key models.CollectionKey, actorID string) bool {
	switch key.Kind {
	case models.CollectionFeed, models.CollectionFavorites, models.CollectionMyReposts:
		return true
	case models.CollectionProfileReposts:
		return key.OwnerID == actorID
	default:
		return false
	}
}

// RepostCreated returns the loaded collections that should now contain the
// actor's new repost row. The row is never built locally because the
// interaction response lacks its metadata; callers refetch these keys.
func (r *Reconciler) RepostCreated(actorID string) []models.CollectionKey {
	candidates := []models.CollectionKey{
		models.FeedKey(),
		models.MyRepostsKey(),
		models.ProfileRepostsKey(actorID),
	}
	keys := make([]models.CollectionKey, 0, len(candidates))
	for _, k := range candidates {
		if r.store.HasCollection(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// PostEdited records new content for a canonical post.
func (r *Reconciler) PostEdited(canonicalID, content string, updatedAt time.Time) {
	if !r.store.SetContent(canonicalID, content, updatedAt) {
		r.logger.Debug("edited post not cached", zap.String("post_id", canonicalID))
	}
}

// PostDeleted drops every row showing the post, reposts included.
func (r *Reconciler) PostDeleted(canonicalID string) int {
	n := r.store.RemoveCanonical(canonicalID)
	r.logger.Debug("post removed from collections", zap.String("post_id", canonicalID), zap.Int("rows", n))
	return n
}
