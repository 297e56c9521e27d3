package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doProtectedRequest(t *testing.T, m *Middleware, authHeader string) (*httptest.ResponseRecorder, *int64) {
	t.Helper()

	var gotUserID *int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := GetUserIDFromContext(r.Context()); ok {
			gotUserID = &id
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()

	m.RequireAuth(next).ServeHTTP(rec, req)
	return rec, gotUserID
}

func TestMiddleware_RequireAuth(t *testing.T) {
	t.Parallel()

	jwtService := newTestJWTService(t, 24*time.Hour)
	m := NewMiddleware(jwtService)

	token, err := jwtService.CreateToken(42)
	require.NoError(t, err)

	t.Run("ValidToken", func(t *testing.T) {
		t.Parallel()
		rec, userID := doProtectedRequest(t, m, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, userID)
		assert.Equal(t, int64(42), *userID)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		t.Parallel()
		rec, userID := doProtectedRequest(t, m, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, userID)
		assert.Contains(t, rec.Body.String(), "missing authorization header")
	})

	t.Run("WrongScheme", func(t *testing.T) {
		t.Parallel()
		rec, userID := doProtectedRequest(t, m, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, userID)
		assert.Contains(t, rec.Body.String(), "missing authorization header")
	})

	t.Run("TruncatedToken", func(t *testing.T) {
		t.Parallel()
		rec, userID := doProtectedRequest(t, m, "Bearer "+token[:len(token)-1])
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, userID)
		assert.Contains(t, rec.Body.String(), "invalid token")
	})

	t.Run("GarbageToken", func(t *testing.T) {
		t.Parallel()
		rec, userID := doProtectedRequest(t, m, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, userID)
		assert.Contains(t, rec.Body.String(), "invalid token")
	})
}

// Expired, forged and malformed tokens must be indistinguishable from
// the outside: same status, same body.
func TestMiddleware_RejectionsAreUniform(t *testing.T) {
	t.Parallel()

	jwtService := newTestJWTService(t, 24*time.Hour)
	m := NewMiddleware(jwtService)

	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	jwtService.now = func() time.Time { return issuedAt }
	expiredToken, err := jwtService.CreateToken(7)
	require.NoError(t, err)
	jwtService.now = func() time.Time { return issuedAt.Add(25 * time.Hour) }

	forgedService, err := NewJWTService([]byte("attacker-controlled-secret-value"), 24*time.Hour)
	require.NoError(t, err)
	forgedToken, err := forgedService.CreateToken(7)
	require.NoError(t, err)

	var bodies []string
	for _, tokenStr := range []string{expiredToken, forgedToken, "not.a.jwt"} {
		rec, userID := doProtectedRequest(t, m, "Bearer "+tokenStr)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, userID)
		bodies = append(bodies, rec.Body.String())
	}

	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[1], bodies[2])

	var resp map[string]string
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &resp))
	assert.Equal(t, "invalid token", resp["error"])
}
