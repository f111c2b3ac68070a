package handler_test

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/api/router"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
)

type env struct {
	router *gin.Engine
	db     *gorm.DB
	auth   service.AuthService
	cache  *service.PageCache
}

func newEnv(t *testing.T) *env {
	return newEnvWithAuth(t, func(a service.AuthService) service.AuthService { return a })
}

// newEnvWithAuth lets a test swap in a misbehaving auth service while the
// rest of the stack stays real.
func newEnvWithAuth(t *testing.T, wrap func(service.AuthService) service.AuthService) *env {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tmpl, err := template.ParseGlob("../../../web/templates/*.html")
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	policy := service.NewPolicy(followRepo)
	relations := service.NewRelationshipService(followRepo)
	feeds := service.NewFeedService(postRepo, groupRepo, userRepo, followRepo, 10)
	auth := wrap(service.NewAuthService(userRepo, "test-secret", time.Hour))
	cache := service.NewPageCache(rdb, 20*time.Second)

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	cfg.App.MediaRoot = t.TempDir()

	h := handler.New(feeds, relations, policy, auth, cache,
		postRepo, commentRepo, groupRepo, userRepo, tmpl, cfg.App.MediaRoot)

	return &env{
		router: router.New(h, auth, userRepo, cfg),
		db:     db,
		auth:   auth,
		cache:  cache,
	}
}

func (e *env) register(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), username, username+"@example.com", "long-password")
	require.NoError(t, err)
	return user
}

func (e *env) sessionCookie(t *testing.T, user *model.User) *http.Cookie {
	t.Helper()
	token, err := e.auth.IssueToken(user)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookie, Value: token}
}

func (e *env) seedPost(t *testing.T, author *model.User, text string, createdAt time.Time) *model.Post {
	t.Helper()
	p := &model.Post{
		ID:        uuid.New().String(),
		Text:      text,
		AuthorID:  author.ID,
		CreatedAt: createdAt,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *env) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHomePageRendersPosts(t *testing.T) {
	e := newEnv(t)
	author := e.register(t, "writer")
	e.seedPost(t, author, "hello from the home page", time.Now())

	w := e.get("/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello from the home page")
}

func TestHomePageCacheScenario(t *testing.T) {
	e := newEnv(t)
	author := e.register(t, "writer")
	post := e.seedPost(t, author, "ephemeral post", time.Now())

	a := e.get("/", nil)
	require.Equal(t, http.StatusOK, a.Code)
	require.Contains(t, a.Body.String(), "ephemeral post")

	require.NoError(t, e.db.Delete(&model.Post{}, "id = ?", post.ID).Error)

	// within the TTL the deleted post is still on the page, byte for byte
	b := e.get("/", nil)
	require.Equal(t, http.StatusOK, b.Code)
	assert.Equal(t, a.Body.Bytes(), b.Body.Bytes())

	require.NoError(t, e.cache.Clear(context.Background()))

	c := e.get("/", nil)
	require.Equal(t, http.StatusOK, c.Code)
	assert.NotEqual(t, a.Body.Bytes(), c.Body.Bytes())
	assert.NotContains(t, c.Body.String(), "ephemeral post")
}

func TestGroupPage(t *testing.T) {
	e := newEnv(t)
	author := e.register(t, "writer")
	group := &model.Group{ID: uuid.New().String(), Title: "Cats", Slug: "cats", Description: "cat content"}
	require.NoError(t, e.db.Create(group).Error)
	p := e.seedPost(t, author, "a cat post", time.Now())
	require.NoError(t, e.db.Model(p).Update("group_id", group.ID).Error)

	w := e.get("/group/cats/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a cat post")

	w = e.get("/group/birds/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfilePage(t *testing.T) {
	e := newEnv(t)
	author := e.register(t, "writer")
	e.seedPost(t, author, "profile post", time.Now())

	w := e.get("/profile/writer/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "profile post")
	assert.Contains(t, w.Body.String(), "1 posts")

	w = e.get("/profile/nobody/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostDetailUnknownID(t *testing.T) {
	e := newEnv(t)
	w := e.get("/posts/"+uuid.New().String()+"/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownPathIs404(t *testing.T) {
	e := newEnv(t)
	w := e.get("/definitely/not/here/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestCreateRequiresLogin(t *testing.T) {
	e := newEnv(t)
	w := e.get("/create/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "/auth/login/?next="), loc)
}

func TestCreatePost(t *testing.T) {
	e := newEnv(t)
	user := e.register(t, "writer")
	cookie := e.sessionCookie(t, user)

	w := e.postForm("/create/", url.Values{"text": {"my first post"}}, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/writer/", w.Header().Get("Location"))

	var cnt int64
	require.NoError(t, e.db.Model(&model.Post{}).Where("author_id = ?", user.ID).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestEditByNonAuthorRedirectsWithoutMutation(t *testing.T) {
	e := newEnv(t)
	author := e.register(t, "author")
	other := e.register(t, "other")
	post := e.seedPost(t, author, "original text", time.Now())

	cookie := e.sessionCookie(t, other)
	w := e.get("/posts/"+post.ID+"/edit/", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/"+post.ID+"/", w.Header().Get("Location"))

	w = e.postForm("/posts/"+post.ID+"/edit/", url.Values{"text": {"hijacked"}}, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/"+post.ID+"/", w.Header().Get("Location"))

	var got model.Post
	require.NoError(t, e.db.First(&got, "id = ?", post.ID).Error)
	assert.Equal(t, "original text", got.Text)
}

func TestEditByAuthor(t *testing.T) {
	e := newEnv(t)
	author := e.register(t, "author")
	post := e.seedPost(t, author, "original text", time.Now())
	cookie := e.sessionCookie(t, author)

	w := e.postForm("/posts/"+post.ID+"/edit/", url.Values{"text": {"revised text"}}, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/"+post.ID+"/", w.Header().Get("Location"))

	var got model.Post
	require.NoError(t, e.db.First(&got, "id = ?", post.ID).Error)
	assert.Equal(t, "revised text", got.Text)
	assert.WithinDuration(t, post.CreatedAt, got.CreatedAt, time.Second)
}

func TestAddComment(t *testing.T) {
	e := newEnv(t)
	author := e.register(t, "author")
	reader := e.register(t, "reader")
	post := e.seedPost(t, author, "worth commenting", time.Now())

	// anonymous commenters go to login
	w := e.postForm("/posts/"+post.ID+"/comment/", url.Values{"text": {"nice"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/login/"))

	cookie := e.sessionCookie(t, reader)
	w = e.postForm("/posts/"+post.ID+"/comment/", url.Values{"text": {"nice post"}}, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/"+post.ID+"/", w.Header().Get("Location"))

	var cnt int64
	require.NoError(t, e.db.Model(&model.Comment{}).Where("post_id = ?", post.ID).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)

	detail := e.get("/posts/"+post.ID+"/", nil)
	assert.Contains(t, detail.Body.String(), "nice post")
}

func TestFollowUnfollowFlow(t *testing.T) {
	e := newEnv(t)
	reader := e.register(t, "reader")
	e.register(t, "writer")
	cookie := e.sessionCookie(t, reader)

	countEdges := func() int64 {
		var cnt int64
		require.NoError(t, e.db.Model(&model.Follow{}).Count(&cnt).Error)
		return cnt
	}

	w := e.postForm("/profile/writer/follow/", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/writer/", w.Header().Get("Location"))
	assert.Equal(t, int64(1), countEdges())

	// double follow stays a single edge, still a clean redirect
	w = e.postForm("/profile/writer/follow/", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, int64(1), countEdges())

	// self follow silently declines
	w = e.postForm("/profile/reader/follow/", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, int64(1), countEdges())

	w = e.postForm("/profile/writer/unfollow/", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Zero(t, countEdges())

	// unfollow with no edge left is still fine
	w = e.postForm("/profile/writer/unfollow/", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Zero(t, countEdges())
}

func TestFollowFeed(t *testing.T) {
	e := newEnv(t)
	reader := e.register(t, "reader")
	x := e.register(t, "x")
	y := e.register(t, "y")
	loner := e.register(t, "loner")

	e.seedPost(t, x, "from followed author", time.Now())
	e.seedPost(t, y, "from ignored author", time.Now())

	cookie := e.sessionCookie(t, reader)
	e.postForm("/profile/x/follow/", nil, cookie)

	w := e.get("/follow/", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "from followed author")
	assert.NotContains(t, w.Body.String(), "from ignored author")

	lonerCookie := e.sessionCookie(t, loner)
	w = e.get("/follow/", lonerCookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No posts yet.")

	// the follow feed needs a login
	w = e.get("/follow/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestSignupAndLogin(t *testing.T) {
	e := newEnv(t)

	w := e.postForm("/auth/signup/", url.Values{
		"username": {"newcomer"},
		"email":    {"newcomer@example.com"},
		"password": {"long-password"},
	}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NotEmpty(t, w.Result().Cookies())

	w = e.postForm("/auth/login/", url.Values{
		"username": {"newcomer"},
		"password": {"wrong"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")

	w = e.postForm("/auth/login/", url.Values{
		"username": {"newcomer"},
		"password": {"long-password"},
	}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

// brokenTokenAuth authenticates normally but cannot sign session tokens.
type brokenTokenAuth struct {
	service.AuthService
}

func (brokenTokenAuth) IssueToken(*model.User) (string, error) {
	return "", errors.New("signing key unavailable")
}

func TestLoginTokenFailureStopsAtErrorPage(t *testing.T) {
	e := newEnvWithAuth(t, func(a service.AuthService) service.AuthService {
		return brokenTokenAuth{AuthService: a}
	})
	e.register(t, "newcomer")

	w := e.postForm("/auth/login/", url.Values{
		"username": {"newcomer"},
		"password": {"long-password"},
	}, nil)

	// a single 500 response, never a redirect stacked on top of it
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	for _, ck := range w.Result().Cookies() {
		assert.NotEqual(t, middleware.SessionCookie, ck.Name)
	}
}
