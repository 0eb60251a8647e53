package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/auth"
	"taskboard/internal/repository/sqlite"
	"taskboard/internal/service"
)

type testServer struct {
	router *gin.Engine
	tokens *auth.TokenService
}

func newTestServer(t *testing.T, mutate ...func(*Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, taskRepo.Init(ctx))

	tokens, err := auth.NewTokenService("test-secret")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := Config{
		Users:         service.NewUserService(userRepo),
		Tasks:         service.NewTaskService(taskRepo),
		Tokens:        tokens,
		Health:        sqlite.Health{DB: db},
		Logger:        logger,
		AllowedOrigin: "https://app.example.com",
	}
	for _, m := range mutate {
		m(&cfg)
	}

	router := gin.New()
	require.NoError(t, NewHandler(cfg).RegisterRoutes(router))
	return &testServer{router: router, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sessionFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *testServer) signUp(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/user/sign-up", map[string]string{
		"firstName": "Test",
		"lastName":  "User",
		"username":  username,
		"email":     username + "@example.com",
		"password":  "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionFrom(t, rec)
}

func TestSignUp_ValidationEnumeratesAllErrors(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/user/sign-up", map[string]string{
		"username": "ab",
		"email":    "not-an-email",
		"password": "short",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Invalid input", body["message"])
	assert.ElementsMatch(t, []any{
		"First name is required",
		"Last name is required",
		"Username must have at least 3 characters",
		"Invalid email",
		"Password must have at least 8 characters",
	}, body["errors"])
}

func TestSignUp_SetsCookieAndHidesPassword(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/user/sign-up", map[string]string{
		"firstName": "Alice",
		"lastName":  "Liddell",
		"username":  "alice",
		"email":     "alice@example.com",
		"password":  "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	cookie := sessionFrom(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	assert.NotContains(t, rec.Body.String(), "password")
	saved := decode(t, rec)["savedUser"].(map[string]any)
	assert.Equal(t, "alice", saved["username"])
	assert.NotEmpty(t, saved["_id"])

	dup := srv.do(t, http.MethodPost, "/user/sign-up", map[string]string{
		"firstName": "Other",
		"lastName":  "Person",
		"username":  "alice2",
		"email":     "alice@example.com",
		"password":  "password123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, dup.Code)
	assert.Equal(t, "User already exists", decode(t, dup)["message"])
}

func TestSignUp_ProductionCookie(t *testing.T) {
	srv := newTestServer(t, func(c *Config) { c.Production = true })

	cookie := srv.signUp(t, "alice")
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

func TestSignIn(t *testing.T) {
	srv := newTestServer(t)
	srv.signUp(t, "alice")

	bad := srv.do(t, http.MethodPost, "/user/sign-in", map[string]string{
		"identifier": "alice",
		"password":   "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "Invalid credentials", decode(t, bad)["message"])
	assert.Empty(t, bad.Result().Cookies())

	for _, identifier := range []string{"alice", "alice@example.com"} {
		rec := srv.do(t, http.MethodPost, "/user/sign-in", map[string]string{
			"identifier": identifier,
			"password":   "password123",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		cookie := sessionFrom(t, rec)

		profile := srv.do(t, http.MethodGet, "/user/profile", nil, cookie)
		require.Equal(t, http.StatusOK, profile.Code)
		user := decode(t, profile)["user"].(map[string]any)
		assert.Equal(t, "alice@example.com", user["email"])
	}
}

func TestAuthGateway(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/user/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token, authorization denied", decode(t, rec)["message"])

	rec = srv.do(t, http.MethodGet, "/todo", nil, &http.Cookie{Name: sessionCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is not valid or expired", decode(t, rec)["message"])

	expired, err := auth.NewTokenService("test-secret", auth.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	require.NoError(t, err)
	tok, _, err := expired.Issue("someone")
	require.NoError(t, err)
	rec = srv.do(t, http.MethodGet, "/todo", nil, &http.Cookie{Name: sessionCookie, Value: tok})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/user/logout", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionFrom(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestUpdateProfile(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")
	srv.signUp(t, "bob")

	rec := srv.do(t, http.MethodPut, "/user/profile", map[string]string{"email": "bob@example.com"}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already in use", decode(t, rec)["message"])

	rec = srv.do(t, http.MethodPut, "/user/profile", map[string]string{"username": "al", "email": "nope"}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode(t, rec)["errors"], 2)

	rec = srv.do(t, http.MethodPut, "/user/profile", map[string]string{"firstName": "Alicia"}, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "Alicia", user["firstName"])
	assert.Equal(t, "alice", user["username"])
}

func TestTodoLifecycleAndOwnership(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")
	bob := srv.signUp(t, "bob")

	rec := srv.do(t, http.MethodPost, "/todo", map[string]string{"text": "Buy milk"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)["newTodo"].(map[string]any)
	assert.Equal(t, "Moderate", created["priority"])
	assert.Equal(t, false, created["isComplete"])
	assert.Equal(t, "", created["description"])
	id := created["_id"].(string)

	list := decode(t, srv.do(t, http.MethodGet, "/todo?page=1&limit=10", nil, alice))
	require.Len(t, list["todoList"], 1)
	assert.Equal(t, id, list["todoList"].([]any)[0].(map[string]any)["_id"])
	assert.EqualValues(t, 1, list["totalTodos"])
	assert.EqualValues(t, 1, list["totalPages"])
	assert.EqualValues(t, 1, list["currentPage"])

	other := decode(t, srv.do(t, http.MethodGet, "/todo?page=1&limit=10", nil, bob))
	assert.Empty(t, other["todoList"])

	rec = srv.do(t, http.MethodPut, "/todo/"+id, map[string]any{"isComplete": true}, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/todo/"+id, nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	list = decode(t, srv.do(t, http.MethodGet, "/todo", nil, alice))
	assert.Equal(t, false, list["todoList"].([]any)[0].(map[string]any)["isComplete"])

	// the client sends the whole record back; owner and id in the body are ignored
	full := map[string]any{
		"_id":        "forged",
		"user":       "someone-else",
		"text":       "Buy milk",
		"priority":   "Extreme",
		"isComplete": true,
	}
	rec = srv.do(t, http.MethodPut, "/todo/"+id, full, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	todo := decode(t, rec)["todo"].(map[string]any)
	assert.Equal(t, true, todo["isComplete"])
	assert.Equal(t, "Extreme", todo["priority"])
	assert.Equal(t, id, todo["_id"])
	assert.NotEqual(t, "someone-else", todo["user"])

	rec = srv.do(t, http.MethodDelete, "/todo/"+id, nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode(t, rec)["todo"].(map[string]any)["_id"])

	rec = srv.do(t, http.MethodDelete, "/todo/"+id, nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.do(t, http.MethodPut, "/todo/"+id, map[string]any{"isComplete": false}, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTodo_Validation(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")

	rec := srv.do(t, http.MethodPost, "/todo", map[string]string{"priority": "urgent"}, alice)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode(t, rec)["errors"], 2)
}

func TestListTodos_NonNumericPagingFallsBack(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")

	for i := 0; i < 12; i++ {
		rec := srv.do(t, http.MethodPost, "/todo", map[string]string{"text": "item"}, alice)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	list := decode(t, srv.do(t, http.MethodGet, "/todo?page=abc&limit=xyz", nil, alice))
	assert.EqualValues(t, 1, list["currentPage"])
	assert.EqualValues(t, 2, list["totalPages"])
	assert.EqualValues(t, 12, list["totalTodos"])
	assert.Len(t, list["todoList"], 10)
}

func TestAuthRateLimit(t *testing.T) {
	srv := newTestServer(t, func(c *Config) {
		c.AuthRateLimit = 2
		c.AuthRateWindow = 15 * time.Minute
	})

	body := map[string]string{"identifier": "x", "password": "y"}
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/user/sign-in", body, nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/user/sign-in", body, nil).Code)

	rec := srv.do(t, http.MethodPost, "/user/sign-in", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests from this IP, please try again after 15 minutes", decode(t, rec)["message"])

	// sign-up shares the budget; other routes do not
	rec = srv.do(t, http.MethodPost, "/user/sign-up", map[string]string{}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/user/logout", nil, nil).Code)
}

func TestAuthRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	srv := newTestServer(t, func(c *Config) {
		c.AuthRateLimit = 5
	})

	body := []byte(`{"identifier":"x","password":"y"}`)
	passed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/user/sign-in", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			passed++
		}
	}
	assert.Equal(t, 5, passed)
}

func TestAuthRateLimit_TrustedProxyForwardsClientAddress(t *testing.T) {
	srv := newTestServer(t, func(c *Config) {
		c.AuthRateLimit = 1
		c.TrustedProxies = []string{"10.0.0.1"}
	})

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/user/sign-in", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.1:40000"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, send("198.51.100.1"))
	assert.Equal(t, http.StatusBadRequest, send("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
}

func TestNewHandler_RejectsInvalidTrustedProxy(t *testing.T) {
	h := NewHandler(Config{TrustedProxies: []string{"not-an-address"}})
	assert.Error(t, h.RegisterRoutes(gin.New()))
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/todo", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TODO App", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", nil, nil).Code)

	down := newTestServer(t, func(c *Config) { c.Health = failingPinger{} })
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health", nil, nil).Code)
}
