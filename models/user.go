// File: /models/user.go
package models

import (
	"time"
)

type User struct {
	ID        string    `json:"id" validate:"required"`
	Username  string    `json:"username" validate:"required"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// AggregateUser is a user as seen by the viewer, with follow state.
type AggregateUser struct {
	User
	Followed       bool `json:"followed"`
	FollowerCount  int  `json:"followerCount" validate:"gte=0"`
	FollowingCount int  `json:"followingCount" validate:"gte=0"`
}

type Session struct {
	ID       string    `json:"id" validate:"required"`
	UserID   string    `json:"userId,omitempty"`
	ExpireAt time.Time `json:"expireAt" validate:"required"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpireAt.After(now)
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=255"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}

type RegisterResponse struct {
	User User `json:"user"`
}

// MeResponse is the data payload of GET /api/v1/users/me.
type MeResponse struct {
	Session Session       `json:"session"`
	User    AggregateUser `json:"user"`
}

type UserResponse struct {
	User AggregateUser `json:"user"`
}

type UserSearchResponse struct {
	Users []AggregateUser `json:"users" validate:"dive"`
}

// Profile is a user page: the user plus their posts and reposts.
type Profile struct {
	User    AggregateUser       `json:"user"`
	Posts   []AggregatePostView `json:"posts"`
	Reposts []AggregatePostView `json:"reposts"`
}
