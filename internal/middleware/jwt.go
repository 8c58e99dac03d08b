package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
)

// Context keys set by JWTAuth.
const (
	PlayerIDKey = "user_id"
	RoomIDKey   = "room_id"
)

// JWTClaims identifies a player seat in one room.
type JWTClaims struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for playerID in roomID.
func IssueToken(secret string, ttl time.Duration, playerID, roomID string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: playerID,
		RoomID: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a session token and returns its claims.
func ParseToken(secret, tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// JWTAuth resolves the requesting player from a session token. Browsers
// cannot set headers on a WebSocket handshake, so the token may also come
// from the "token" query parameter.
func JWTAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		claims, err := ParseToken(jwtSecret, tokenString)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		if roomID := c.Param("roomId"); roomID != "" && roomID != claims.RoomID {
			unauthorized(c, "token is not valid for this room")
			return
		}

		c.Set(PlayerIDKey, claims.UserID)
		c.Set(RoomIDKey, claims.RoomID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
		return "", fmt.Errorf("authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return parts[1], nil
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
		Success: false,
		Error:   msg,
		Code:    string(apperr.CodeUnauthorized),
	})
}
