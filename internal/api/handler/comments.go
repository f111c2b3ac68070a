package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/model"
)

// AddComment attaches a comment to a post and bounces back to the detail
// page. An empty or oversized body is dropped silently, the redirect
// happens either way.
func (h *Handler) AddComment(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := h.posts.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.NotFound(c)
			return
		}
		h.renderError(c, err)
		return
	}

	user := middleware.UserFrom(c)
	text := strings.TrimSpace(c.PostForm("text"))
	if h.policy.CanComment(user) && text != "" && len(text) <= model.MaxCommentLength {
		comment := &model.Comment{
			ID:       uuid.New().String(),
			PostID:   post.ID,
			AuthorID: user.ID,
			Text:     text,
		}
		if err := h.comments.Create(ctx, comment); err != nil {
			h.renderError(c, err)
			return
		}
	}
	c.Redirect(http.StatusFound, "/posts/"+post.ID+"/")
}
