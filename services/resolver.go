// File: /services/resolver.go
package services

import (
	"socialmedia-web/models"

	"go.uber.org/zap"
)

// Resolver maps view rows to the canonical post whose counters they show.
type Resolver struct {
	logger *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger.Named("resolver")}
}

// CanonicalID returns the original post id for a repost row and the row's
// own id otherwise. A repost row without its link to the original falls back
// to the row id and is reported as a data-integrity problem.
func (r *Resolver) CanonicalID(view models.AggregatePostView) string {
	if !view.IsRepost() {
		return view.ID
	}
	if view.Repost != nil && view.Repost.PostID != "" {
		return view.Repost.PostID
	}
	r.logger.Warn("repost row has no original post link, falling back to row id",
		zap.String("view_id", view.ID),
		zap.String("reposter_id", view.ReposterID()))
	return view.ID
}

// ViewKey is the stable identity of a row inside a collection.
func ViewKey(view models.AggregatePostView) string {
	if view.IsRepost() && view.Repost != nil && view.Repost.ID != "" {
		return view.Repost.ID
	}
	return view.ID
}
