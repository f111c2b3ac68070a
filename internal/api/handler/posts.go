package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

type postForm struct {
	Text  string `form:"text" binding:"required"`
	Group string `form:"group"`
}

// Index is the home feed. The first page is served out of the page cache;
// within the TTL every visitor gets the same bytes regardless of what
// changed underneath.
func (h *Handler) Index(c *gin.Context) {
	page := pageParam(c)
	if page != 1 {
		body, err := h.renderIndex(c, page)
		if err != nil {
			h.renderError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
		return
	}

	body, err := h.cache.GetOrRender(c.Request.Context(), func() ([]byte, error) {
		return h.renderIndex(c, 1)
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// renderIndex builds the home feed page without any per-user chrome, so
// the cached bytes are valid for everyone.
func (h *Handler) renderIndex(c *gin.Context, page int) ([]byte, error) {
	feed, err := h.feeds.Build(c.Request.Context(), service.All(), page)
	if err != nil {
		return nil, err
	}
	return h.renderBytes("index.html", gin.H{"Feed": feed})
}

// GroupPosts lists one group's posts, newest first.
func (h *Handler) GroupPosts(c *gin.Context) {
	feed, err := h.feeds.Build(c.Request.Context(), service.ByGroup(c.Param("slug")), pageParam(c))
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			h.NotFound(c)
			return
		}
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "group_list.html", gin.H{"Feed": feed, "Group": feed.Group})
}

// PostDetail shows one post with its comments and the author's post count.
func (h *Handler) PostDetail(c *gin.Context) {
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
	comments, err := h.comments.ListByPost(ctx, post.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	count, err := h.posts.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "post_detail.html", gin.H{
		"Post":     post,
		"Comments": comments,
		"Count":    count,
		"CanEdit":  h.policy.CanEditPost(middleware.UserFrom(c), post),
	})
}

// PostCreate renders the form on GET and creates the post on POST,
// redirecting to the author's profile.
func (h *Handler) PostCreate(c *gin.Context) {
	user := middleware.UserFrom(c)
	if c.Request.Method == http.MethodGet {
		h.renderPostForm(c, nil, "")
		return
	}

	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderPostForm(c, nil, "Text is required.")
		return
	}
	image, err := h.saveImage(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	post := &model.Post{
		ID:       uuid.New().String(),
		Text:     form.Text,
		AuthorID: user.ID,
		GroupID:  optional(form.Group),
		Image:    image,
	}
	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

// PostEdit lets the author change text, group and image. Anyone else gets
// bounced to the read-only detail page without touching the post.
func (h *Handler) PostEdit(c *gin.Context) {
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
	if !h.policy.CanEditPost(middleware.UserFrom(c), post) {
		c.Redirect(http.StatusFound, "/posts/"+post.ID+"/")
		return
	}

	if c.Request.Method == http.MethodGet {
		h.renderPostForm(c, post, "")
		return
	}

	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderPostForm(c, post, "Text is required.")
		return
	}
	image, err := h.saveImage(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	post.Text = form.Text
	post.GroupID = optional(form.Group)
	if image != "" {
		post.Image = image
	}
	post.UpdatedAt = time.Now()
	if err := h.posts.Update(ctx, post); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/posts/"+post.ID+"/")
}

func (h *Handler) renderPostForm(c *gin.Context, post *model.Post, errMsg string) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	current := ""
	if post != nil && post.GroupID != nil {
		current = *post.GroupID
	}
	h.render(c, http.StatusOK, "create_post.html", gin.H{
		"Post":         post,
		"Groups":       groups,
		"CurrentGroup": current,
		"IsEdit":       post != nil,
		"Error":        errMsg,
	})
}

// saveImage stores an optional multipart upload under the media root and
// returns its relative path; no file means empty path, not an error.
func (h *Handler) saveImage(c *gin.Context) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}
	rel := filepath.Join("posts", uuid.New().String()+filepath.Ext(file.Filename))
	dst := filepath.Join(h.mediaRoot, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (h *Handler) renderError(c *gin.Context, err error) {
	logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.String(http.StatusInternalServerError, "internal error")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
