package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/middleware"
	"github.com/mossy-p/dalmuti/internal/models"
)

// Sessions hands out the token a player uses for every later request in
// the room they created or joined.
type Sessions struct {
	secret string
	ttl    time.Duration
}

// NewSessions creates a token issuer.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: secret, ttl: ttl}
}

// grant responds with a fresh session for playerID in g.
func (s *Sessions) grant(c *gin.Context, status int, g *models.Game, playerID string) {
	token, err := middleware.IssueToken(s.secret, s.ttl, playerID, g.RoomID)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.CodeInternal, "failed to generate token", err))
		return
	}

	c.JSON(status, models.Response{
		Success: true,
		Data: models.SessionResponse{
			RoomID:   g.RoomID,
			PlayerID: playerID,
			Token:    token,
			Game:     g.ViewFor(playerID),
		},
	})
}

// member returns the player and room resolved by middleware.JWTAuth.
func member(c *gin.Context) (playerID, roomID string, ok bool) {
	playerID = c.GetString(middleware.PlayerIDKey)
	roomID = c.GetString(middleware.RoomIDKey)
	if playerID == "" || roomID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
			Success: false,
			Error:   "player not authenticated",
			Code:    string(apperr.CodeUnauthorized),
		})
		return "", "", false
	}
	return playerID, roomID, true
}
