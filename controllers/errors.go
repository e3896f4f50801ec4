// File: /controllers/errors.go
package controllers

import (
	"errors"
	"net/http"

	"socialmedia-web/middleware"
	"socialmedia-web/services"
	"socialmedia-web/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error onto the status the browser sees.
func statusFor(err error) int {
	var be *services.BackendError
	switch {
	case errors.As(err, &be):
		if be.Code >= 400 && be.Code < 600 {
			return be.Code
		}
		return http.StatusBadGateway
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrInteractionInFlight), errors.Is(err, services.ErrLoadInFlight):
		return http.StatusConflict
	case errors.Is(err, services.ErrNoMorePages):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidContent):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnknownPost):
		return http.StatusNotFound
	case errors.Is(err, services.ErrWorkspaceClosed):
		return http.StatusGone
	case errors.Is(err, services.ErrTransport), errors.Is(err, services.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sendServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusUnauthorized {
		utils.SendErrorMessage(c, status, "Authentication required", services.UserMessage(err))
		return
	}
	utils.SendErrorMessage(c, status, http.StatusText(status), services.UserMessage(err))
}

func workspace(c *gin.Context) (*services.Workspace, bool) {
	ws := middleware.GetWorkspace(c)
	if ws == nil {
		utils.SendError(c, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return ws, true
}
