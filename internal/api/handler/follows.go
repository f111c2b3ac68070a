package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

// FollowIndex is the feed of posts by authors the viewer follows.
func (h *Handler) FollowIndex(c *gin.Context) {
	user := middleware.UserFrom(c)
	feed, err := h.feeds.Build(c.Request.Context(), service.FollowedBy(user.ID), pageParam(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "follow.html", gin.H{"Feed": feed})
}

// ProfileFollow creates the follow edge when policy allows it. Self-follow
// and double-follow fall through to the redirect without complaint.
func (h *Handler) ProfileFollow(c *gin.Context) {
	author, ok := h.resolveAuthor(c)
	if !ok {
		return
	}
	user := middleware.UserFrom(c)
	allowed, err := h.policy.CanFollow(c.Request.Context(), user, author)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if allowed {
		if err := h.relations.Follow(c.Request.Context(), user.ID, author.ID); err != nil {
			h.renderError(c, err)
			return
		}
	}
	c.Redirect(http.StatusFound, "/profile/"+author.Username+"/")
}

// ProfileUnfollow removes the edge; unfollowing someone you never
// followed is a no-op.
func (h *Handler) ProfileUnfollow(c *gin.Context) {
	author, ok := h.resolveAuthor(c)
	if !ok {
		return
	}
	user := middleware.UserFrom(c)
	if err := h.relations.Unfollow(c.Request.Context(), user.ID, author.ID); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+author.Username+"/")
}

func (h *Handler) resolveAuthor(c *gin.Context) (*model.User, bool) {
	author, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.NotFound(c)
			return nil, false
		}
		h.renderError(c, err)
		return nil, false
	}
	return author, true
}
