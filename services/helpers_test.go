package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"socialmedia-web/models"

	"go.uber.org/zap"
)

var errBoom = &BackendError{Code: 500, Message: "Internal server error", Detail: "boom"}

func testTime() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func original(id, authorID string, st models.InteractionState) models.AggregatePostView {
	return models.AggregatePostView{
		ID:               id,
		Type:             models.PostKindOriginal,
		UserID:           authorID,
		Content:          "content of " + id,
		CreatedAt:        testTime(),
		UpdatedAt:        testTime(),
		User:             &models.User{ID: authorID, Username: "user_" + authorID},
		InteractionState: st,
	}
}

func repostRow(repostID, postID, reposterID string, st models.InteractionState) models.AggregatePostView {
	return models.AggregatePostView{
		ID:        repostID,
		Type:      models.PostKindRepost,
		UserID:    "author",
		Content:   "content of " + postID,
		CreatedAt: testTime(),
		UpdatedAt: testTime(),
		Repost: &models.Repost{
			ID:     repostID,
			UserID: reposterID,
			PostID: postID,
		},
		Reposter:         &models.User{ID: reposterID, Username: "user_" + reposterID},
		InteractionState: st,
	}
}

func newTestStore() *PostStore {
	return NewPostStore(NewResolver(zap.NewNop()))
}

func viewIDs(views []models.AggregatePostView) []string {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, ViewKey(v))
	}
	return ids
}

// fakeBackend is an in-memory Backend. Calls can be failed per method and
// blocked with a gate to hold a request in flight.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	gate  chan struct{}
	// entered is signalled when a gated call starts waiting.
	entered chan struct{}

	feedTotal int
	feedRows  func(page, pageSize int) []models.AggregatePostView

	lists map[string][]models.AggregatePostView
	users map[string]models.AggregateUser
	posts map[string]models.AggregatePostView

	created  *models.AggregatePostView
	updated  *models.AggregatePostView
	comments []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls: make(map[string]int),
		fail:  make(map[string]error),
		lists: make(map[string][]models.AggregatePostView),
		users: make(map[string]models.AggregateUser),
		posts: make(map[string]models.AggregatePostView),
	}
}

func (f *fakeBackend) record(method string) error {
	f.mu.Lock()
	f.calls[method]++
	err := f.fail[method]
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-gate
	}
	return err
}

func (f *fakeBackend) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeBackend) failOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = err
}

func (f *fakeBackend) hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 1)
}

func (f *fakeBackend) release() {
	f.mu.Lock()
	gate := f.gate
	f.gate, f.entered = nil, nil
	f.mu.Unlock()
	close(gate)
}

func (f *fakeBackend) setList(name string, rows ...models.AggregatePostView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[name] = rows
}

func (f *fakeBackend) list(name string) ([]models.AggregatePostView, error) {
	if err := f.record(name); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AggregatePostView(nil), f.lists[name]...), nil
}

func (f *fakeBackend) LikePost(ctx context.Context, id string) error   { return f.record("LikePost") }
func (f *fakeBackend) UnlikePost(ctx context.Context, id string) error { return f.record("UnlikePost") }
func (f *fakeBackend) FavoritePost(ctx context.Context, id string) error {
	return f.record("FavoritePost")
}
func (f *fakeBackend) UnfavoritePost(ctx context.Context, id string) error {
	return f.record("UnfavoritePost")
}
func (f *fakeBackend) Unrepost(ctx context.Context, id string) error { return f.record("Unrepost") }
func (f *fakeBackend) DeletePost(ctx context.Context, id string) error {
	return f.record("DeletePost")
}

func (f *fakeBackend) Repost(ctx context.Context, id, comment string) (*models.Repost, error) {
	if err := f.record("Repost"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.comments = append(f.comments, comment)
	f.mu.Unlock()
	return &models.Repost{ID: "r-new", UserID: "me", PostID: id, Comment: comment}, nil
}

func (f *fakeBackend) CreatePost(ctx context.Context, content string) (*models.AggregatePostView, error) {
	if err := f.record("CreatePost"); err != nil {
		return nil, err
	}
	post := original("p-new", "me", models.InteractionState{})
	post.Content = content
	f.mu.Lock()
	f.created = &post
	f.mu.Unlock()
	return &post, nil
}

func (f *fakeBackend) GetPost(ctx context.Context, id string) (*models.AggregatePostView, error) {
	if err := f.record("GetPost"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, &BackendError{Code: 404, Message: "Not found", Detail: "post not found"}
	}
	return &p, nil
}

func (f *fakeBackend) UpdatePost(ctx context.Context, id, content string) (*models.AggregatePostView, error) {
	if err := f.record("UpdatePost"); err != nil {
		return nil, err
	}
	post := original(id, "me", models.InteractionState{})
	post.Content = content
	post.UpdatedAt = testTime().Add(time.Hour)
	f.mu.Lock()
	f.updated = &post
	f.mu.Unlock()
	return &post, nil
}

func (f *fakeBackend) GetMyFeed(ctx context.Context, page, pageSize int) (*models.FeedResponse, error) {
	if err := f.record("GetMyFeed"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	total, rows := f.feedTotal, f.feedRows
	f.mu.Unlock()

	var feed []models.AggregatePostView
	if rows != nil {
		feed = rows(page, pageSize)
	} else {
		for i := (page - 1) * pageSize; i < min(page*pageSize, total); i++ {
			feed = append(feed, original(fmt.Sprintf("p%d", i+1), "author", models.InteractionState{}))
		}
	}
	return &models.FeedResponse{
		Feed:       feed,
		Pagination: models.Pagination{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

func (f *fakeBackend) GetMyPosts(ctx context.Context) ([]models.AggregatePostView, error) {
	return f.list("GetMyPosts")
}

func (f *fakeBackend) GetMyReposts(ctx context.Context) ([]models.AggregatePostView, error) {
	return f.list("GetMyReposts")
}

func (f *fakeBackend) GetMyFavoritePosts(ctx context.Context) ([]models.AggregatePostView, error) {
	return f.list("GetMyFavoritePosts")
}

func (f *fakeBackend) GetUserPosts(ctx context.Context, userID string) ([]models.AggregatePostView, error) {
	return f.list("GetUserPosts:" + userID)
}

func (f *fakeBackend) GetUserReposts(ctx context.Context, userID string) ([]models.AggregatePostView, error) {
	return f.list("GetUserReposts:" + userID)
}

func (f *fakeBackend) GetUserByID(ctx context.Context, id string) (*models.AggregateUser, error) {
	if err := f.record("GetUserByID"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, &BackendError{Code: 404, Message: "Not found", Detail: "user not found"}
	}
	return &u, nil
}

func (f *fakeBackend) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := f.record("Register"); err != nil {
		return nil, err
	}
	return &models.User{ID: "u-new", Username: req.Username, Email: req.Email}, nil
}

func (f *fakeBackend) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := f.record("Login"); err != nil {
		return nil, err
	}
	return &models.LoginResponse{
		Session: models.Session{ID: "sess-1", ExpireAt: time.Now().Add(time.Hour)},
		User:    models.User{ID: "me", Username: req.Username},
	}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error { return f.record("Logout") }

func (f *fakeBackend) Me(ctx context.Context) (*models.MeResponse, error) {
	if err := f.record("Me"); err != nil {
		return nil, err
	}
	return &models.MeResponse{
		Session: models.Session{ID: "sess-1", ExpireAt: time.Now().Add(time.Hour)},
		User:    models.AggregateUser{User: models.User{ID: "me", Username: "me"}},
	}, nil
}

func (f *fakeBackend) SearchUsersByName(ctx context.Context, name string) ([]models.AggregateUser, error) {
	if err := f.record("SearchUsersByName"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AggregateUser
	for _, u := range f.users {
		if u.Username == name {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeBackend) FollowUser(ctx context.Context, id string) error {
	return f.record("FollowUser")
}

func (f *fakeBackend) UnfollowUser(ctx context.Context, id string) error {
	return f.record("UnfollowUser")
}

var _ Backend = (*fakeBackend)(nil)

func isBackendErr(err error) bool {
	return errors.Is(err, ErrBackend)
}
