// File: /routes/routes.go
package routes

import (
	"net/http"

	"socialmedia-web/config"
	"socialmedia-web/controllers"
	"socialmedia-web/middleware"
	"socialmedia-web/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes wires the browser API. anonymous serves register and login;
// everything else runs against the caller's session workspace.
func SetupRoutes(r *gin.Engine, cfg *config.Config, registry *services.WorkspaceRegistry, anonymous services.AccountBackend, logger *zap.Logger) {
	// Controllers
	authController := controllers.NewAuthController(
		services.NewAccountService(anonymous, logger),
		registry,
		controllers.AuthControllerOptions{
			Secret:       cfg.SessionSecret,
			CookieName:   cfg.SessionCookie,
			SecureCookie: cfg.SecureCookie,
		},
		logger,
	)
	feedController := controllers.NewFeedController()
	postController := controllers.NewPostController()
	userController := controllers.NewUserController()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":    "pong",
			"status":     "healthy",
			"workspaces": registry.Len(),
		})
	})

	api := r.Group("/api")
	api.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst))
	api.Use(middleware.ValidateJSON())

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.Auth(cfg.SessionSecret, cfg.SessionCookie))
	protected.Use(middleware.Workspace(registry))
	{
		protected.POST("/auth/logout", authController.Logout)
		protected.GET("/me", authController.Me)
		protected.GET("/me/posts", userController.GetMyPosts)
		protected.GET("/me/reposts", userController.GetMyReposts)
		protected.GET("/me/favorites", userController.GetMyFavorites)

		// Feed routes
		feed := protected.Group("/feed")
		{
			feed.GET("", feedController.GetFeed)
			feed.POST("/refresh", feedController.Refresh)
			feed.POST("/more", feedController.LoadMore)
		}

		// Post routes
		posts := protected.Group("/posts")
		{
			posts.POST("", postController.CreatePost)
			posts.GET("/:id", postController.GetPost)
			posts.PUT("/:id", postController.UpdatePost)
			posts.DELETE("/:id", postController.DeletePost)
			posts.POST("/:id/like", postController.Like)
			posts.DELETE("/:id/like", postController.Unlike)
			posts.POST("/:id/favorite", postController.Favorite)
			posts.DELETE("/:id/favorite", postController.Unfavorite)
			posts.POST("/:id/repost", postController.Repost)
			posts.DELETE("/:id/repost", postController.Unrepost)
		}

		// User routes
		users := protected.Group("/users")
		{
			users.GET("/search", userController.SearchUsers)
			users.GET("/:id", userController.GetProfile)
			users.POST("/:id/follow", userController.Follow)
			users.DELETE("/:id/follow", userController.Unfollow)
		}
	}
}

// SetupCORS allows credentialed requests from the configured origins.
func SetupCORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
