package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
)

// SessionCookie carries the signed session token.
const SessionCookie = "yatube_session"

const userKey = "currentUser"

// CurrentUser resolves the session cookie into a user and stashes it in
// the request context. Anonymous or stale-cookie requests pass through
// with no user set; nothing here ever rejects a request.
func CurrentUser(auth service.AuthService, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err == nil && token != "" {
			if userID, err := auth.ParseToken(token); err == nil {
				if user, err := users.GetByID(c.Request.Context(), userID); err == nil {
					c.Set(userKey, user)
				}
			}
		}
		c.Next()
	}
}

// RequireLogin redirects anonymous requests to the login form, carrying
// the original URL in next so login can bounce back.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserFrom(c) == nil {
			c.Redirect(http.StatusFound, "/auth/login/?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserFrom returns the authenticated user, or nil.
func UserFrom(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}
