// File: /services/api_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"socialmedia-web/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 8 << 20

// APIClient talks to the social backend. The zero token makes anonymous
// calls; WithToken returns a copy that sends the session as a bearer token.
type APIClient struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	validate *validator.Validate
	logger   *zap.Logger
	token    string
}

type APIClientOptions struct {
	BaseURL string
	Timeout time.Duration
	// RPS and Burst bound outbound calls across all sessions.
	RPS   float64
	Burst int
}

func NewAPIClient(opts APIClientOptions, logger *zap.Logger) *APIClient {
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return &APIClient{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(limit, burst),
		validate: validator.New(),
		logger:   logger.Named("api"),
	}
}

func (c *APIClient) WithToken(token string) *APIClient {
	cp := *c
	cp.token = token
	return &cp
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", requestID))

	envelope, err := models.DecodeResponse(data)
	if err != nil {
		return fmt.Errorf("%w: status %d: not an envelope: %v", ErrTransport, resp.StatusCode, err)
	}
	if !envelope.Success {
		code := envelope.Code
		if code == 0 {
			code = resp.StatusCode
		}
		return &BackendError{Code: code, Message: envelope.Message, Detail: envelope.Error}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%w: %s %s: empty data", ErrInvalidResponse, method, path)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		c.logger.Warn("backend response shape mismatch", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
	}
	if err := c.check(out); err != nil {
		c.logger.Warn("backend response failed validation", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
	}
	return nil
}

func (c *APIClient) check(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return c.validate.Struct(v)
}

// --- Auth ---

func (c *APIClient) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var out models.RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *APIClient) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/auth/logout", nil, nil, nil)
}

// --- Users ---

func (c *APIClient) Me(ctx context.Context) (*models.MeResponse, error) {
	var out models.MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) GetUserByID(ctx context.Context, id string) (*models.AggregateUser, error) {
	var out models.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/public/users/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *APIClient) SearchUsersByName(ctx context.Context, name string) ([]models.AggregateUser, error) {
	var out models.UserSearchResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/public/users/name/"+url.PathEscape(name), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Users == nil {
		out.Users = []models.AggregateUser{}
	}
	return out.Users, nil
}

func (c *APIClient) FollowUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/users/"+url.PathEscape(id)+"/follow", nil, nil, nil)
}

func (c *APIClient) UnfollowUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/users/"+url.PathEscape(id)+"/follow", nil, nil, nil)
}

// --- Collections ---

func (c *APIClient) GetMyFeed(ctx context.Context, page, pageSize int) (*models.FeedResponse, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var out models.FeedResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me/feed", query, nil, &out); err != nil {
		return nil, err
	}
	if out.Feed == nil {
		out.Feed = []models.AggregatePostView{}
	}
	return &out, nil
}

// GetMyPosts reads the caller's posts. This endpoint returns a bare array.
func (c *APIClient) GetMyPosts(ctx context.Context) ([]models.AggregatePostView, error) {
	var rows []models.AggregatePostView
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me/posts", nil, nil, &rows); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(models.PostListResponse{Posts: rows}); err != nil {
		return nil, fmt.Errorf("%w: my posts: %v", ErrInvalidResponse, err)
	}
	if rows == nil {
		rows = []models.AggregatePostView{}
	}
	return rows, nil
}

func (c *APIClient) GetMyReposts(ctx context.Context) ([]models.AggregatePostView, error) {
	return c.postList(ctx, "/api/v1/users/me/reposts")
}

func (c *APIClient) GetMyFavoritePosts(ctx context.Context) ([]models.AggregatePostView, error) {
	return c.postList(ctx, "/api/v1/users/me/posts/favorites")
}

func (c *APIClient) GetUserPosts(ctx context.Context, userID string) ([]models.AggregatePostView, error) {
	return c.postList(ctx, "/api/v1/public/users/"+url.PathEscape(userID)+"/posts")
}

func (c *APIClient) GetUserReposts(ctx context.Context, userID string) ([]models.AggregatePostView, error) {
	var out models.RepostListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/public/users/"+url.PathEscape(userID)+"/reposts", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Reposts == nil {
		out.Reposts = []models.AggregatePostView{}
	}
	return out.Reposts, nil
}

func (c *APIClient) postList(ctx context.Context, path string) ([]models.AggregatePostView, error) {
	var out models.PostListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Posts == nil {
		out.Posts = []models.AggregatePostView{}
	}
	return out.Posts, nil
}

// --- Posts ---

func (c *APIClient) CreatePost(ctx context.Context, content string) (*models.AggregatePostView, error) {
	var out models.PostResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/posts", nil, models.CreatePostRequest{Content: content}, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

func (c *APIClient) GetPost(ctx context.Context, id string) (*models.AggregatePostView, error) {
	var out models.PostResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/posts/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

func (c *APIClient) UpdatePost(ctx context.Context, id, content string) (*models.AggregatePostView, error) {
	var out models.PostResponse
	if err := c.do(ctx, http.MethodPut, "/api/v1/posts/"+url.PathEscape(id), nil, models.CreatePostRequest{Content: content}, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

func (c *APIClient) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/posts/"+url.PathEscape(id), nil, nil, nil)
}

func (c *APIClient) LikePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/posts/"+url.PathEscape(id)+"/like", nil, nil, nil)
}

func (c *APIClient) UnlikePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/posts/"+url.PathEscape(id)+"/like", nil, nil, nil)
}

func (c *APIClient) FavoritePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/posts/"+url.PathEscape(id)+"/favorite", nil, nil, nil)
}

func (c *APIClient) UnfavoritePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/posts/"+url.PathEscape(id)+"/favorite", nil, nil, nil)
}

func (c *APIClient) Repost(ctx context.Context, id, comment string) (*models.Repost, error) {
	var out models.RepostResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/posts/"+url.PathEscape(id)+"/repost", nil, models.RepostRequest{Comment: comment}, &out); err != nil {
		return nil, err
	}
	return &out.Repost, nil
}

// Unrepost removes the caller's repost of the original post id.
func (c *APIClient) Unrepost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/reposts/"+url.PathEscape(id), nil, nil, nil)
}
