package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/games/:roomId", JWTAuth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(PlayerIDKey)+"@"+c.GetString(RoomIDKey))
	})
	return r
}

func do(r http.Handler, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthHeader(t *testing.T) {
	token, err := IssueToken(secret, time.Hour, "player-1", "ROOM01")
	require.NoError(t, err)

	w := do(newRouter(), "/games/ROOM01", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "player-1@ROOM01", w.Body.String())
}

func TestJWTAuthQueryToken(t *testing.T) {
	token, err := IssueToken(secret, time.Hour, "player-1", "ROOM01")
	require.NoError(t, err)

	w := do(newRouter(), "/games/ROOM01?token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthRejects(t *testing.T) {
	good, err := IssueToken(secret, time.Hour, "player-1", "ROOM01")
	require.NoError(t, err)
	expired, err := IssueToken(secret, -time.Minute, "player-1", "ROOM01")
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", time.Hour, "player-1", "ROOM01")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
	}{
		{"missing", "/games/ROOM01", ""},
		{"bad format", "/games/ROOM01", "Token " + good},
		{"expired", "/games/ROOM01", "Bearer " + expired},
		{"wrong secret", "/games/ROOM01", "Bearer " + forged},
		{"other room", "/games/ROOM02", "Bearer " + good},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(), tt.path, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var resp models.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, "UNAUTHORIZED", resp.Code)
		})
	}
}
