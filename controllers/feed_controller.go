// File: /controllers/feed_controller.go
package controllers

import (
	"socialmedia-web/models"
	"socialmedia-web/services"
	"socialmedia-web/utils"

	"github.com/gin-gonic/gin"
)

type FeedController struct{}

func NewFeedController() *FeedController {
	return &FeedController{}
}

type FeedPayload struct {
	Feed       []models.AggregatePostView `json:"feed"`
	Pagination services.FeedState         `json:"pagination"`
}

// GetFeed returns the accumulated feed, loading page 1 on first use.
func (fc *FeedController) GetFeed(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	if !ws.Store.HasCollection(models.FeedKey()) {
		if _, err := ws.Feed.Refresh(c.Request.Context()); err != nil {
			sendServiceError(c, err)
			return
		}
	}
	utils.SendSuccess(c, "", fc.payload(ws))
}

func (fc *FeedController) Refresh(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	if _, err := ws.Feed.Refresh(c.Request.Context()); err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "", fc.payload(ws))
}

func (fc *FeedController) LoadMore(c *gin.Context) {
	ws, ok := workspace(c)
	if !ok {
		return
	}
	if _, err := ws.Feed.LoadMore(c.Request.Context()); err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, "", fc.payload(ws))
}

func (fc *FeedController) payload(ws *services.Workspace) FeedPayload {
	feed, _ := ws.Collection(models.FeedKey())
	return FeedPayload{Feed: feed.Posts, Pagination: ws.Feed.State()}
}
