package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialmedia-web/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer runs a gin engine standing in for the social backend.
func newTestServer(t *testing.T, setup func(r *gin.Engine)) *APIClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	setup(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewAPIClient(APIClientOptions{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, zap.NewNop())
}

func envelope(data any) gin.H {
	return gin.H{"success": true, "data": data, "message": "", "code": 200}
}

func feedRow(id string) gin.H {
	return gin.H{
		"id": id, "type": "post", "userId": "a", "content": "hi",
		"likeCount": 1, "favoriteCount": 0, "repostCount": 0,
		"liked": false, "favorited": false, "reposted": false,
		"user": gin.H{"id": "a", "username": "alice"},
	}
}

func TestAPIClientFeed(t *testing.T) {
	var gotAuth, gotRequestID, gotPage, gotSize string
	client := newTestServer(t, func(r *gin.Engine) {
		r.GET("/api/v1/users/me/feed", func(c *gin.Context) {
			gotAuth = c.GetHeader("Authorization")
			gotRequestID = c.GetHeader("X-Request-ID")
			gotPage, gotSize = c.Query("page"), c.Query("pageSize")
			c.JSON(http.StatusOK, envelope(gin.H{
				"feed":       []gin.H{feedRow("p1"), feedRow("p2")},
				"pagination": gin.H{"page": 2, "pageSize": 2, "total": 5},
			}))
		})
	}).WithToken("tok")

	resp, err := client.GetMyFeed(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, resp.Feed, 2)
	assert.Equal(t, "p1", resp.Feed[0].ID)
	assert.Equal(t, 1, resp.Feed[0].LikeCount)
	assert.Equal(t, "alice", resp.Feed[0].User.Username)
	assert.True(t, resp.Pagination.HasMore())

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "2", gotPage)
	assert.Equal(t, "2", gotSize)
}

func TestAPIClientBackendFailure(t *testing.T) {
	client := newTestServer(t, func(r *gin.Engine) {
		r.POST("/api/v1/posts/:id/like", func(c *gin.Context) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Conflict", "error": "already liked", "status": 409})
		})
		r.DELETE("/api/v1/posts/:id/like", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Bad request", "error": gin.H{"field": "id"}})
		})
	})

	err := client.LikePost(context.Background(), "p1")
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 409, be.Code)
	assert.Equal(t, "already liked", be.Detail)
	assert.ErrorIs(t, err, ErrBackend)

	err = client.UnlikePost(context.Background(), "p1")
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusBadRequest, be.Code)
	assert.JSONEq(t, `{"field":"id"}`, be.Detail)
}

func TestAPIClientRejectsInvalidShapes(t *testing.T) {
	client := newTestServer(t, func(r *gin.Engine) {
		r.GET("/api/v1/users/me/reposts", func(c *gin.Context) {
			// missing row type
			c.JSON(http.StatusOK, envelope(gin.H{"posts": []gin.H{{"id": "p1"}}}))
		})
		r.GET("/api/v1/users/me/posts/favorites", func(c *gin.Context) {
			c.JSON(http.StatusOK, envelope(gin.H{"posts": "nope"}))
		})
		r.GET("/api/v1/users/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, envelope(nil))
		})
		r.GET("/api/v1/public/users/:id", func(c *gin.Context) {
			c.String(http.StatusBadGateway, "<html>bad gateway</html>")
		})
	})
	ctx := context.Background()

	_, err := client.GetMyReposts(ctx)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = client.GetMyFavoritePosts(ctx)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = client.Me(ctx)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = client.GetUserByID(ctx, "a")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestAPIClientListShapes(t *testing.T) {
	client := newTestServer(t, func(r *gin.Engine) {
		r.GET("/api/v1/users/me/posts", func(c *gin.Context) {
			c.JSON(http.StatusOK, envelope([]gin.H{feedRow("p1")}))
		})
		r.GET("/api/v1/public/users/:id/reposts", func(c *gin.Context) {
			row := feedRow("r1")
			row["type"] = "repost"
			row["repost"] = gin.H{"id": "r1", "userId": c.Param("id"), "postId": "p1"}
			c.JSON(http.StatusOK, envelope(gin.H{"reposts": []gin.H{row}}))
		})
		r.GET("/api/v1/public/users/:id/posts", func(c *gin.Context) {
			c.JSON(http.StatusOK, envelope(gin.H{"posts": nil}))
		})
	})
	ctx := context.Background()

	mine, err := client.GetMyPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", mine[0].ID)

	reposts, err := client.GetUserReposts(ctx, "b")
	require.NoError(t, err)
	require.Len(t, reposts, 1)
	assert.True(t, reposts[0].IsRepost())
	assert.Equal(t, "b", reposts[0].ReposterID())

	posts, err := client.GetUserPosts(ctx, "b")
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestAPIClientAuthAndInteractions(t *testing.T) {
	var unrepostPath, repostComment string
	client := newTestServer(t, func(r *gin.Engine) {
		r.POST("/api/v1/auth/login", func(c *gin.Context) {
			var req models.LoginRequest
			if err := c.ShouldBindJSON(&req); err != nil || req.Password != "password1" {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized", "error": "bad credentials", "code": 401})
				return
			}
			c.JSON(http.StatusOK, envelope(gin.H{
				"session": gin.H{"id": "sess-1", "expireAt": time.Now().Add(time.Hour)},
				"user":    gin.H{"id": "me", "username": req.Username},
			}))
		})
		r.POST("/api/v1/posts/:id/repost", func(c *gin.Context) {
			var req models.RepostRequest
			_ = c.ShouldBindJSON(&req)
			repostComment = req.Comment
			c.JSON(http.StatusOK, envelope(gin.H{"repost": gin.H{"id": "r1", "userId": "me", "postId": c.Param("id"), "comment": req.Comment}}))
		})
		r.DELETE("/api/v1/reposts/:id", func(c *gin.Context) {
			unrepostPath = c.Request.URL.Path
			c.JSON(http.StatusOK, envelope(nil))
		})
	})
	ctx := context.Background()

	resp, err := client.Login(ctx, models.LoginRequest{Username: "me", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", resp.Session.ID)

	_, err = client.Login(ctx, models.LoginRequest{Username: "me", Password: "wrong"})
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 401, be.Code)

	repost, err := client.Repost(ctx, "p1", "so true")
	require.NoError(t, err)
	assert.Equal(t, "p1", repost.PostID)
	assert.Equal(t, "so true", repostComment)

	require.NoError(t, client.Unrepost(ctx, "p1"))
	assert.Equal(t, "/api/v1/reposts/p1", unrepostPath)
}

func TestAPIClientTransportFailure(t *testing.T) {
	client := NewAPIClient(APIClientOptions{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zap.NewNop())
	err := client.DeletePost(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "Something went wrong", UserMessage(err))
}

func TestAPIClientPostCRUD(t *testing.T) {
	var deleted string
	client := newTestServer(t, func(r *gin.Engine) {
		r.POST("/api/v1/posts", func(c *gin.Context) {
			var req models.CreatePostRequest
			_ = c.ShouldBindJSON(&req)
			row := feedRow("p-new")
			row["content"] = req.Content
			c.JSON(http.StatusCreated, envelope(gin.H{"post": row}))
		})
		r.GET("/api/v1/posts/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, envelope(gin.H{"post": feedRow(c.Param("id"))}))
		})
		r.PUT("/api/v1/posts/:id", func(c *gin.Context) {
			var req models.CreatePostRequest
			_ = c.ShouldBindJSON(&req)
			row := feedRow(c.Param("id"))
			row["content"] = req.Content
			c.JSON(http.StatusOK, envelope(gin.H{"post": row}))
		})
		r.DELETE("/api/v1/posts/:id", func(c *gin.Context) {
			deleted = c.Param("id")
			c.JSON(http.StatusOK, envelope(nil))
		})
	})
	ctx := context.Background()

	post, err := client.GetPost(ctx, "p7")
	require.NoError(t, err)
	assert.Equal(t, "p7", post.ID)

	created, err := client.CreatePost(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", created.Content)

	updated, err := client.UpdatePost(ctx, "p7", "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	require.NoError(t, client.DeletePost(ctx, "p7"))
	assert.Equal(t, "p7", deleted)
}
