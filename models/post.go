// File: /models/post.go
package models

import (
	"time"
)

// PostKind tells whether a view row shows an original post or a repost of one.
type PostKind string

const (
	PostKindOriginal PostKind = "post"
	PostKindRepost   PostKind = "repost"
)

type Post struct {
	ID        string    `json:"id" validate:"required"`
	UserID    string    `json:"userId" validate:"required"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Repost struct {
	ID        string    `json:"id" validate:"required"`
	UserID    string    `json:"userId" validate:"required"`
	PostID    string    `json:"postId"`
	Comment   string    `json:"comment" validate:"max=1000"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InteractionState is the mutable part of a canonical post as seen by the
// viewing user. Every view row of the same canonical post carries the same
// state once reconciliation settles.
type InteractionState struct {
	LikeCount     int  `json:"likeCount" validate:"gte=0"`
	FavoriteCount int  `json:"favoriteCount" validate:"gte=0"`
	RepostCount   int  `json:"repostCount" validate:"gte=0"`
	Liked         bool `json:"liked"`
	Favorited     bool `json:"favorited"`
	Reposted      bool `json:"reposted"`
}

// Clamp floors every counter at zero.
func (s InteractionState) Clamp() InteractionState {
	s.LikeCount = max(s.LikeCount, 0)
	s.FavoriteCount = max(s.FavoriteCount, 0)
	s.RepostCount = max(s.RepostCount, 0)
	return s
}

// AggregatePostView is one displayable row of a list endpoint: either an
// original post or a repost wrapping one. ID is the row's own id, so for a
// repost row it is the repost id.
type AggregatePostView struct {
	ID        string    `json:"id" validate:"required"`
	Type      PostKind  `json:"type" validate:"required,oneof=post repost"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User     *User   `json:"user,omitempty"`
	Repost   *Repost `json:"repost,omitempty"`
	Reposter *User   `json:"reposter,omitempty"`

	InteractionState
}

func (v AggregatePostView) IsRepost() bool {
	return v.Type == PostKindRepost
}

// ReposterID returns the id of the user who made the repost shown by this
// row, or "" for original rows.
func (v AggregatePostView) ReposterID() string {
	if !v.IsRepost() {
		return ""
	}
	if v.Reposter != nil && v.Reposter.ID != "" {
		return v.Reposter.ID
	}
	if v.Repost != nil {
		return v.Repost.UserID
	}
	return ""
}

// Pagination mirrors the page metadata returned with the feed.
type Pagination struct {
	Page     int `json:"page" validate:"gte=1"`
	PageSize int `json:"pageSize" validate:"gte=1"`
	Total    int `json:"total" validate:"gte=0"`
}

func (p Pagination) HasMore() bool {
	return p.Page*p.PageSize < p.Total
}

// FeedResponse is the data payload of GET /api/v1/users/me/feed.
type FeedResponse struct {
	Feed       []AggregatePostView `json:"feed" validate:"dive"`
	Pagination Pagination          `json:"pagination"`
}

// PostListResponse covers the list endpoints that wrap rows in "posts".
type PostListResponse struct {
	Posts []AggregatePostView `json:"posts" validate:"dive"`
}

// RepostListResponse covers GET /api/v1/public/users/{id}/reposts.
type RepostListResponse struct {
	Reposts []AggregatePostView `json:"reposts" validate:"dive"`
}

type PostResponse struct {
	Post AggregatePostView `json:"post"`
}

type RepostResponse struct {
	Repost Repost `json:"repost"`
}

type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

type RepostRequest struct {
	Comment string `json:"comment"`
}
