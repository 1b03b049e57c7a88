package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-secret")

func serve(t *testing.T, token string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, int64) {
	t.Helper()
	e := echo.New()
	var seen int64
	e.GET("/", func(c echo.Context) error {
		seen = UserID(c)
		return c.String(http.StatusOK, Username(c))
	}, mws...)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestJWTAcceptsSignedToken(t *testing.T) {
	token, err := Sign(testKey, 42, "rita", false, time.Hour)
	require.NoError(t, err)

	for _, header := range []string{token, "Bearer " + token} {
		rec, id := serve(t, header, JWT(testKey))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "rita", rec.Body.String())
		assert.Equal(t, int64(42), id)
	}
}

func TestJWTRejects(t *testing.T) {
	wrongKey, err := Sign([]byte("other"), 42, "rita", false, time.Hour)
	require.NoError(t, err)
	expired, err := Sign(testKey, 42, "rita", false, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusBadRequest},
		{"garbage", "not-a-token", http.StatusBadRequest},
		{"wrong key", wrongKey, http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := serve(t, tt.header, JWT(testKey))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAdmin(t *testing.T) {
	player, err := Sign(testKey, 1, "player", false, time.Hour)
	require.NoError(t, err)
	admin, err := Sign(testKey, 2, "boss", true, time.Hour)
	require.NoError(t, err)

	rec, _ := serve(t, player, JWT(testKey), Admin())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serve(t, admin, JWT(testKey), Admin())
	assert.Equal(t, http.StatusOK, rec.Code)
}
