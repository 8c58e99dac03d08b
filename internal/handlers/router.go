package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/dalmuti/internal/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the HTTP and WebSocket routes.
func NewRouter(games *Games, hub *Hub, jwtSecret string, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	// Global CORS middleware (runs before routing)
	router.Use(OriginFilter(allowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.JWTAuth(jwtSecret)
	games.Register(router.Group("/api"), auth)

	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/games/:roomId", auth, games.Subscribe(hub))
	}
	return router
}
