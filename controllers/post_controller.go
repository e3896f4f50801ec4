// File: /controllers/post_controller.go
package controllers

import (
	"context"

	"socialmedia-web/models"
	"socialmedia-web/services"
	"socialmedia-web/utils"

	"github.com/gin-gonic/gin"
)

type PostController struct{}

func NewPostController() *PostController {
	return &PostController{}
}

type CreatePostPayload struct {
	Post      *models.AggregatePostView `json:"post"`
	Refetched []models.CollectionKey    `json:"refetched"`
}

type DeletePostPayload struct {
	PostID  string `json:"postId"`
	Removed int    `json:"removed"`
}

func (pc *PostController) CreatePost(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	post, refetched, err := ws.Interactions.CreatePost(c.Request.Context(), req.Content)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	if refetched == nil {
		refetched = []models.CollectionKey{}
	}
	utils.SendCreated(c, "Post created", CreatePostPayload{Post: post, Refetched: refetched})
}

func (pc *PostController) GetPost(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	post, err := ws.Collections.LoadPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "", gin.H{"post": post})
}

func (pc *PostController) UpdatePost(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	post, err := ws.Interactions.EditPost(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "Post updated", gin.H{"post": post})
}

func (pc *PostController) DeletePost(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	removed, err := ws.Interactions.DeletePost(c.Request.Context(), postID)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "Post deleted", DeletePostPayload{PostID: postID, Removed: removed})
}

func (pc *PostController) Like(c *gin.Context) {
	pc.interact(c, "Post liked", (*services.InteractionService).Like)
}

func (pc *PostController) Unlike(c *gin.Context) {
	pc.interact(c, "Post unliked", (*services.InteractionService).Unlike)
}

func (pc *PostController) Favorite(c *gin.Context) {
	pc.interact(c, "Added to favorites", (*services.InteractionService).Favorite)
}

func (pc *PostController) Unfavorite(c *gin.Context) {
	pc.interact(c, "Removed from favorites", (*services.InteractionService).Unfavorite)
}

func (pc *PostController) Repost(c *gin.Context) {
	var req models.RepostRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendValidationError(c, err.Error())
			return
		}
	}
	pc.interact(c, "Reposted", func(s *services.InteractionService, ctx context.Context, id string) (*services.InteractionResult, error) {
		return s.Repost(ctx, id, req.Comment)
	})
}

func (pc *PostController) Unrepost(c *gin.Context) {
	pc.interact(c, "Repost removed", (*services.InteractionService).Unrepost)
}

type interaction func(*services.InteractionService, context.Context, string) (*services.InteractionResult, error)

func (pc *PostController) interact(c *gin.Context, message string, run interaction) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	result, err := run(ws.Interactions, c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, message, result)
}
