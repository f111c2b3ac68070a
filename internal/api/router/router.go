package router

import (
	"regexp"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,150}$`)

// New wires middleware and routes into a gin engine.
func New(h *handler.Handler, auth service.AuthService, users repository.UserRepository, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	registerValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.Service))
	}
	r.Use(requestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.CurrentUser(auth, users))

	r.GET("/", h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/posts/:id/", h.PostDetail)

	authed := r.Group("/", middleware.RequireLogin())
	authed.GET("/create/", h.PostCreate)
	authed.POST("/create/", h.PostCreate)
	authed.GET("/posts/:id/edit/", h.PostEdit)
	authed.POST("/posts/:id/edit/", h.PostEdit)
	authed.POST("/posts/:id/comment/", h.AddComment)
	authed.GET("/follow/", h.FollowIndex)
	authed.POST("/profile/:username/follow/", h.ProfileFollow)
	authed.POST("/profile/:username/unfollow/", h.ProfileUnfollow)

	r.GET("/auth/signup/", h.Signup)
	r.POST("/auth/signup/", h.Signup)
	r.GET("/auth/login/", h.Login)
	r.POST("/auth/login/", h.Login)
	r.POST("/auth/logout/", h.Logout)

	r.Static("/media", cfg.App.MediaRoot)
	r.NoRoute(h.NotFound)
	return r
}

func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
