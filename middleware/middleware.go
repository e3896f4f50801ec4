// File: /middleware/middleware.go
package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"socialmedia-web/services"
	"socialmedia-web/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
	ContextWorkspace = "workspace"
)

// ErrorHandler middleware for standardized error responses
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last()
		logger.Error("request error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err.Err))

		utils.SendErrorMessage(c, http.StatusInternalServerError,
			"Internal server error", "An unexpected error occurred")
	}
}

// Recovery turns panics into a 500 envelope and logs them.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered))
		utils.SendErrorMessage(c, http.StatusInternalServerError,
			"Internal server error", "An unexpected error occurred")
		c.Abort()
	})
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	limiters    map[string]*limiterEntry
	mutex       sync.Mutex
	rate        rate.Limit
	burst       int
	idle        time.Duration
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerMinute int, burst int) *RateLimiter {
	return &RateLimiter{
		limiters:    make(map[string]*limiterEntry),
		rate:        rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:       burst,
		idle:        10 * time.Minute,
		lastCleanup: time.Now(),
	}
}

// GetLimiter returns the rate limiter for a given key (IP address). Limiters
// unused for the idle period are dropped on the way.
func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	if now.Sub(rl.lastCleanup) > rl.idle {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > rl.idle {
				delete(rl.limiters, k)
			}
		}
		rl.lastCleanup = now
	}

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimit middleware
func RateLimit(requestsPerMinute int, burst int) gin.HandlerFunc {
	rateLimiter := NewRateLimiter(requestsPerMinute, burst)

	return func(c *gin.Context) {
		limiter := rateLimiter.GetLimiter(c.ClientIP())

		if !limiter.Allow() {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))

			utils.SendErrorMessage(c, http.StatusTooManyRequests, "Rate limit exceeded",
				fmt.Sprintf("Too many requests. Limit: %d requests per minute", requestsPerMinute))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		c.Next()
	}
}

// ValidateJSON middleware to ensure request has valid JSON content type
func ValidateJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodDelete, http.MethodOptions, http.MethodHead:
			c.Next()
			return
		}
		if c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		contentType := c.GetHeader("Content-Type")
		if !strings.Contains(contentType, "application/json") {
			utils.SendErrorMessage(c, http.StatusBadRequest, "Invalid content type",
				"Content-Type must be application/json; charset=utf-8")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequestLogger middleware for request logging
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.Info("request",
			zap.String("client_ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()))
	}
}

// SecurityHeaders middleware adds security headers
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// Auth reads the signed session cookie and puts the backend session and user
// into the context. Requests without a valid cookie are rejected.
func Auth(secret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
				raw = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if raw == "" {
			utils.SendError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		claims, err := utils.ParseSessionToken(secret, raw)
		if err != nil {
			utils.SendError(c, http.StatusUnauthorized, "Invalid or expired session")
			c.Abort()
			return
		}

		c.Set(ContextSessionID, claims.SessionID)
		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// Workspace attaches the session's workspace. It must run after Auth.
func Workspace(registry *services.WorkspaceRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString(ContextSessionID)
		userID := c.GetString(ContextUserID)
		if sessionID == "" || userID == "" {
			utils.SendError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		c.Set(ContextWorkspace, registry.Get(sessionID, userID))
		c.Next()
	}
}

// GetWorkspace returns the workspace set by the Workspace middleware.
func GetWorkspace(c *gin.Context) *services.Workspace {
	if v, ok := c.Get(ContextWorkspace); ok {
		if ws, ok := v.(*services.Workspace); ok {
			return ws
		}
	}
	return nil
}
