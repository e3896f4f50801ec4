// File: /services/account_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"socialmedia-web/models"

	"go.uber.org/zap"
)

type AccountBackend interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.MeResponse, error)
	GetUserByID(ctx context.Context, id string) (*models.AggregateUser, error)
	SearchUsersByName(ctx context.Context, name string) ([]models.AggregateUser, error)
	FollowUser(ctx context.Context, id string) error
	UnfollowUser(ctx context.Context, id string) error
}

// AccountService covers auth and the follow graph. It caches the users it
// has seen so follow toggles can be shown before the backend confirms.
type AccountService struct {
	backend AccountBackend
	logger  *zap.Logger

	mu       sync.Mutex
	users    map[string]models.AggregateUser
	inflight map[string]bool
}

func NewAccountService(backend AccountBackend, logger *zap.Logger) *AccountService {
	return &AccountService{
		backend:  backend,
		logger:   logger.Named("account"),
		users:    make(map[string]models.AggregateUser),
		inflight: make(map[string]bool),
	}
}

func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	user, err := s.backend.Register(ctx, req)
	if err != nil {
		s.logger.Info("register failed", zap.String("username", req.Username), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	resp, err := s.backend.Login(ctx, req)
	if err != nil {
		s.logger.Info("login failed", zap.String("username", req.Username), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

func (s *AccountService) Logout(ctx context.Context) error {
	if err := s.backend.Logout(ctx); err != nil {
		s.logger.Warn("logout failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *AccountService) CurrentUser(ctx context.Context) (*models.MeResponse, error) {
	me, err := s.backend.Me(ctx)
	if err != nil {
		return nil, err
	}
	s.remember(me.User)
	return me, nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*models.AggregateUser, error) {
	user, err := s.backend.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.remember(*user)
	return user, nil
}

func (s *AccountService) SearchUsers(ctx context.Context, name string) ([]models.AggregateUser, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []models.AggregateUser{}, nil
	}
	users, err := s.backend.SearchUsersByName(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		s.remember(u)
	}
	return users, nil
}

func (s *AccountService) Follow(ctx context.Context, id string) (*models.AggregateUser, error) {
	return s.setFollow(ctx, id, true, s.backend.FollowUser)
}

func (s *AccountService) Unfollow(ctx context.Context, id string) (*models.AggregateUser, error) {
	return s.setFollow(ctx, id, false, s.backend.UnfollowUser)
}

func (s *AccountService) setFollow(ctx context.Context, id string, follow bool, call func(context.Context, string) error) (*models.AggregateUser, error) {
	s.mu.Lock()
	if s.inflight[id] {
		s.mu.Unlock()
		return nil, fmt.Errorf("follow %s: %w", id, ErrInteractionInFlight)
	}
	s.inflight[id] = true
	before, cached := s.users[id]
	if cached && before.Followed != follow {
		after := before
		after.Followed = follow
		after.FollowerCount = max(after.FollowerCount+delta(follow), 0)
		s.users[id] = after
	}
	s.mu.Unlock()

	err := call(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
	if err != nil {
		if cached {
			s.users[id] = before
		}
		s.logger.Warn("follow change failed", zap.String("user_id", id), zap.Bool("follow", follow), zap.Error(err))
		return nil, err
	}
	user, ok := s.users[id]
	if !ok {
		return &models.AggregateUser{User: models.User{ID: id}, Followed: follow}, nil
	}
	return &user, nil
}

// CachedUser returns the last known state of a user.
func (s *AccountService) CachedUser(id string) (models.AggregateUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *AccountService) remember(u models.AggregateUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}
