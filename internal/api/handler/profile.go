package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/service"
)

// Profile shows an author's feed, post count and the viewer's follow state.
func (h *Handler) Profile(c *gin.Context) {
	feed, err := h.feeds.Build(c.Request.Context(), service.ByAuthor(c.Param("username")), pageParam(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			h.NotFound(c)
			return
		}
		h.renderError(c, err)
		return
	}

	user := middleware.UserFrom(c)
	following := false
	isSelf := false
	if user != nil {
		isSelf = user.ID == feed.Author.ID
		if !isSelf {
			if following, err = h.relations.IsFollowing(c.Request.Context(), user.ID, feed.Author.ID); err != nil {
				h.renderError(c, err)
				return
			}
		}
	}
	h.render(c, http.StatusOK, "profile.html", gin.H{
		"Feed":      feed,
		"Author":    feed.Author,
		"Count":     feed.Total,
		"Following": following,
		"IsSelf":    isSelf,
	})
}
