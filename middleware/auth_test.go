package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaraca/shelftalk/handlers"
	"github.com/mkaraca/shelftalk/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.IdentityClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func callProtected(t *testing.T, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var gotUserID string
	handler := NewAuthMiddleware(testSecret).Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value(handlers.UserIDContextKey).(string)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/unreads", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, gotUserID
}

func TestAuthValidToken(t *testing.T) {
	token := signToken(t, "alice", time.Now().Add(time.Hour))
	rec, userID := callProtected(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", userID)
}

func TestAuthMissingHeader(t *testing.T) {
	rec, _ := callProtected(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthWrongScheme(t *testing.T) {
	rec, _ := callProtected(t, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthExpiredToken(t *testing.T) {
	token := signToken(t, "alice", time.Now().Add(-time.Hour))
	rec, _ := callProtected(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthWrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.IdentityClaims{UserID: "alice"})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	rec, _ := callProtected(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthTokenWithoutUserID(t *testing.T) {
	token := jwt.New(jwt.SigningMethodHS256)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	rec, _ := callProtected(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
