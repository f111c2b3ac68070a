package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

type signupForm struct {
	Username string `form:"username" binding:"required,username"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=8"`
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// Signup registers an account and logs it straight in.
func (h *Handler) Signup(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		h.render(c, http.StatusOK, "signup.html", gin.H{})
		return
	}

	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "signup.html", gin.H{
			"Error": "Check the form: username, a valid email and a password of at least 8 characters are required.",
		})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), form.Username, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			h.render(c, http.StatusOK, "signup.html", gin.H{"Error": "That username is taken."})
			return
		}
		h.renderError(c, err)
		return
	}
	if !h.setSession(c, user) {
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Login authenticates and bounces to next (or the home page).
func (h *Handler) Login(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		h.render(c, http.StatusOK, "login.html", gin.H{"Next": c.Query("next")})
		return
	}

	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "login.html", gin.H{"Error": "Both fields are required.", "Next": c.Query("next")})
		return
	}
	user, err := h.auth.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.render(c, http.StatusOK, "login.html", gin.H{"Error": "Invalid username or password.", "Next": c.Query("next")})
			return
		}
		h.renderError(c, err)
		return
	}
	if !h.setSession(c, user) {
		return
	}
	c.Redirect(http.StatusFound, safeNext(c.Query("next")))
}

// Logout drops the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// setSession issues the cookie and reports whether the caller may keep
// writing the response; on token failure the error page is already sent.
func (h *Handler) setSession(c *gin.Context, user *model.User) bool {
	token, err := h.auth.IssueToken(user)
	if err != nil {
		h.renderError(c, err)
		return false
	}
	c.SetCookie(middleware.SessionCookie, token, 0, "/", "", false, true)
	return true
}

// safeNext allows only local paths so login cannot redirect off-site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
