package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// Handler carries every dependency the HTML views need.
type Handler struct {
	feeds     service.FeedService
	relations service.RelationshipService
	policy    *service.Policy
	auth      service.AuthService
	cache     *service.PageCache

	posts    repository.PostRepository
	comments repository.CommentRepository
	groups   repository.GroupRepository
	users    repository.UserRepository

	tmpl      *template.Template
	mediaRoot string
}

func New(
	feeds service.FeedService,
	relations service.RelationshipService,
	policy *service.Policy,
	auth service.AuthService,
	cache *service.PageCache,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	tmpl *template.Template,
	mediaRoot string,
) *Handler {
	return &Handler{
		feeds:     feeds,
		relations: relations,
		policy:    policy,
		auth:      auth,
		cache:     cache,
		posts:     posts,
		comments:  comments,
		groups:    groups,
		users:     users,
		tmpl:      tmpl,
		mediaRoot: mediaRoot,
	}
}

// renderBytes executes a template into memory. The home page goes through
// this so the exact bytes can live in the page cache.
func (h *Handler) renderBytes(name string, data gin.H) ([]byte, error) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["User"]; !ok {
		data["User"] = middleware.UserFrom(c)
	}
	body, err := h.renderBytes(name, data)
	if err != nil {
		logger.Error("template render failed", zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", body)
}

// NotFound renders the generic not-found page. Also wired as the NoRoute
// handler.
func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "404.html", gin.H{})
}

// pageParam reads the 1-based page query parameter; anything unusable
// falls back to the first page.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
