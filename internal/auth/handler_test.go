package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/auth-service/internal/httputil"
	"github.com/redmonkez12/auth-service/internal/logging"
)

// stubLimiter is an IPRateLimiter for handler tests.
type stubLimiter struct {
	exceeded bool
	recorded int
}

func (s *stubLimiter) CheckIPRateLimit(context.Context, string, string) (bool, error) {
	return s.exceeded, nil
}

func (s *stubLimiter) RecordIPRequest(context.Context, string, string) error {
	s.recorded++
	return nil
}

func newTestAPI(t *testing.T) (http.Handler, *stubLimiter) {
	t.Helper()

	repo := newFakeUserRepo()
	jwtService := newTestJWTService(t, 24*time.Hour)
	service := NewService(repo, jwtService)
	limiter := &stubLimiter{}
	logger := logging.NewLogger(true)

	handler := NewHandler(service, limiter, logger)
	middleware := NewMiddleware(jwtService)

	r := chi.NewRouter()
	r.Post("/auth/register", handler.Register)
	r.Post("/auth/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/protected", func(w http.ResponseWriter, req *http.Request) {
			userID, _ := GetUserIDFromContext(req.Context())
			httputil.RespondJSON(w, map[string]any{"user_id": userID}, http.StatusOK)
		})
	})

	return r, limiter
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	api, _ := newTestAPI(t)
	creds := map[string]string{"email": "a@x.com", "password": "secret123"}

	// Register
	rec := doJSON(t, api, http.MethodPost, "/auth/register", creds, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())

	// Login
	rec = doJSON(t, api, http.MethodPost, "/auth/login", creds, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)

	// Protected route with the issued token
	rec = doJSON(t, api, http.MethodGet, "/protected", nil, map[string]string{
		"Authorization": "Bearer " + loginResp.Token,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var protectedResp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &protectedResp))
	assert.Equal(t, float64(1), protectedResp["user_id"])

	// Same call with the token truncated by one character
	rec = doJSON(t, api, http.MethodGet, "/protected", nil, map[string]string{
		"Authorization": "Bearer " + loginResp.Token[:len(loginResp.Token)-1],
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Login_UniformRejection(t *testing.T) {
	t.Parallel()

	api, _ := newTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/auth/register", map[string]string{
		"email": "a@x.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPassword := doJSON(t, api, http.MethodPost, "/auth/login", map[string]string{
		"email": "a@x.com", "password": "wrong-password",
	}, nil)
	unknownEmail := doJSON(t, api, http.MethodPost, "/auth/login", map[string]string{
		"email": "b@x.com", "password": "secret123",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Contains(t, wrongPassword.Body.String(), "invalid credentials")
}

func TestHandler_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	api, _ := newTestAPI(t)
	creds := map[string]string{"email": "a@x.com", "password": "secret123"}

	rec := doJSON(t, api, http.MethodPost, "/auth/register", creds, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/auth/register", creds, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The response must not disclose that the email is taken.
	assert.NotContains(t, rec.Body.String(), "exists")
	assert.Contains(t, rec.Body.String(), "failed to register user")
}

func TestHandler_Register_Validation(t *testing.T) {
	t.Parallel()

	api, _ := newTestAPI(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"EmptyEmail", map[string]string{"email": "", "password": "secret123"}},
		{"BadEmail", map[string]string{"email": "nope", "password": "secret123"}},
		{"EmptyPassword", map[string]string{"email": "a@x.com", "password": ""}},
		{"ShortPassword", map[string]string{"email": "a@x.com", "password": "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, api, http.MethodPost, "/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_InvalidBody(t *testing.T) {
	t.Parallel()

	api, _ := newTestAPI(t)

	for _, path := range []string{"/auth/register", "/auth/login"} {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestHandler_RateLimited(t *testing.T) {
	t.Parallel()

	api, limiter := newTestAPI(t)
	limiter.exceeded = true

	creds := map[string]string{"email": "a@x.com", "password": "secret123"}
	for _, path := range []string{"/auth/register", "/auth/login"} {
		rec := doJSON(t, api, http.MethodPost, path, creds, nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, path)
	}
	assert.Zero(t, limiter.recorded)
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"RemoteAddr", "10.0.0.1:1234", nil, "10.0.0.1"},
		{"XForwardedFor", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "203.0.113.5"},
		{"XRealIP", "10.0.0.1:1234", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
