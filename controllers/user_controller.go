// File: /controllers/user_controller.go
package controllers

import (
	"context"

	"socialmedia-web/models"
	"socialmedia-web/services"
	"socialmedia-web/utils"

	"github.com/gin-gonic/gin"
)

type UserController struct{}

func NewUserController() *UserController {
	return &UserController{}
}

type PostsPayload struct {
	Posts []models.AggregatePostView `json:"posts"`
}

func (uc *UserController) GetProfile(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	profile, err := ws.Collections.LoadProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "", profile)
}

func (uc *UserController) SearchUsers(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	users, err := ws.Accounts.SearchUsers(c.Request.Context(), c.Query("name"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "", models.UserSearchResponse{Users: users})
}

func (uc *UserController) Follow(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	user, err := ws.Accounts.Follow(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "Followed", models.UserResponse{User: *user})
}

func (uc *UserController) Unfollow(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	user, err := ws.Accounts.Unfollow(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "Unfollowed", models.UserResponse{User: *user})
}

func (uc *UserController) GetMyPosts(c *gin.Context) {
	uc.list(c, (*services.CollectionService).LoadMyPosts)
}

func (uc *UserController) GetMyReposts(c *gin.Context) {
	uc.list(c, (*services.CollectionService).LoadMyReposts)
}

func (uc *UserController) GetMyFavorites(c *gin.Context) {
	uc.list(c, (*services.CollectionService).LoadFavorites)
}

func (uc *UserController) list(c *gin.Context, load func(*services.CollectionService, context.Context) ([]models.AggregatePostView, error)) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	posts, err := load(ws.Collections, c.Request.Context())
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "", PostsPayload{Posts: posts})
}
