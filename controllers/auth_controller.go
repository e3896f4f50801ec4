// File: /controllers/auth_controller.go
package controllers

import (
	"net/http"
	"time"

	"socialmedia-web/middleware"
	"socialmedia-web/models"
	"socialmedia-web/services"
	"socialmedia-web/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthController struct {
	accounts     *services.AccountService
	registry     *services.WorkspaceRegistry
	secret       string
	cookieName   string
	secureCookie bool
	logger       *zap.Logger
}

type AuthControllerOptions struct {
	Secret       string
	CookieName   string
	SecureCookie bool
}

// NewAuthController takes an account service bound to an anonymous backend
// client for register and login.
func NewAuthController(accounts *services.AccountService, registry *services.WorkspaceRegistry, opts AuthControllerOptions, logger *zap.Logger) *AuthController {
	return &AuthController{
		accounts:     accounts,
		registry:     registry,
		secret:       opts.Secret,
		cookieName:   opts.CookieName,
		secureCookie: opts.SecureCookie,
		logger:       logger.Named("auth"),
	}
}

func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if !utils.IsValidUsername(req.Username) {
		utils.SendValidationError(c, "Username must be 3-32 letters, digits, dots, dashes or underscores")
		return
	}
	if !utils.IsValidEmail(req.Email) {
		utils.SendValidationError(c, "Invalid email address")
		return
	}
	if !utils.IsValidPassword(req.Password) {
		utils.SendValidationError(c, "Password must be between 8 and 255 characters")
		return
	}

	user, err := ac.accounts.Register(c.Request.Context(), req)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendCreated(c, "Registration successful", models.RegisterResponse{User: *user})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	resp, err := ac.accounts.Login(c.Request.Context(), req)
	if err != nil {
		sendServiceError(c, err)
		return
	}

	expireAt := resp.Session.ExpireAt
	if expireAt.IsZero() {
		expireAt = time.Now().Add(24 * time.Hour)
	} else if resp.Session.Expired(time.Now()) {
		ac.logger.Warn("backend issued an expired session", zap.Time("expire_at", expireAt))
		utils.SendError(c, http.StatusBadGateway, "Session already expired")
		return
	}
	token, err := utils.GenerateSessionToken(ac.secret, resp.Session.ID, resp.User.ID, expireAt)
	if err != nil {
		ac.logger.Error("sign session cookie", zap.Error(err))
		utils.SendError(c, http.StatusInternalServerError, "Failed to start session")
		return
	}
	ac.setCookie(c, token, int(time.Until(expireAt).Seconds()))

	// A previous workspace under the same session id belongs to whoever held
	// it before; Get replaces it when the user differs.
	ac.registry.Get(resp.Session.ID, resp.User.ID)

	utils.SendSuccess(c, "Login successful", gin.H{
		"user":     resp.User,
		"expireAt": expireAt,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	sessionID := c.GetString(middleware.ContextSessionID)
	if ws := middleware.GetWorkspace(c); ws != nil {
		if err := ws.Accounts.Logout(c.Request.Context()); err != nil {
			// The local session ends regardless.
			ac.logger.Info("backend logout failed", zap.Error(err))
		}
	}
	ac.registry.Discard(sessionID)
	ac.setCookie(c, "", -1)
	utils.SendSuccess(c, "Logged out", nil)
}

func (ac *AuthController) Me(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	me, err := ws.Accounts.CurrentUser(c.Request.Context())
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			ac.registry.Discard(ws.SessionID)
			ac.setCookie(c, "", -1)
		}
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "", me)
}

func (ac *AuthController) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ac.cookieName, value, maxAge, "/", "", ac.secureCookie, true)
}
