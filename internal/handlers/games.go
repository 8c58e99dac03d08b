package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/engine"
	"github.com/mossy-p/dalmuti/internal/models"
	"go.uber.org/zap"
)

// Games exposes the engine's commands over HTTP. Every response is a
// models.Response envelope.
type Games struct {
	engine   *engine.Engine
	sessions *Sessions
	records  RecordSource
	logger   *zap.Logger
}

// NewGames creates the game command handlers. records may be nil when no
// archive is configured.
func NewGames(e *engine.Engine, sessions *Sessions, records RecordSource, logger *zap.Logger) *Games {
	return &Games{engine: e, sessions: sessions, records: records, logger: logger}
}

// Register mounts the command routes on api. auth guards everything that
// acts as an existing player.
func (h *Games) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	api.GET("/games", h.ListGames)
	api.POST("/games", h.CreateGame)
	api.POST("/games/:roomId/join", h.JoinGame)
	api.GET("/stats", h.Stats)

	player := api.Group("/games/:roomId", auth)
	{
		player.GET("", h.GetGame)
		player.GET("/history", h.History)
		player.POST("/leave", h.LeaveGame)
		player.POST("/ready", h.Ready)
		player.POST("/start", h.StartGame)
		player.POST("/role", h.SelectRole)
		player.POST("/deck", h.SelectDeck)
		player.POST("/revolution", h.SelectRevolution)
		player.POST("/play", h.PlayCard)
		player.POST("/pass", h.Pass)
		player.POST("/vote", h.Vote)
	}
}

// CreateGame opens a room and seats the caller as its owner.
func (h *Games) CreateGame(c *gin.Context) {
	var req models.CreateGameRequest
	if !bind(c, &req) {
		return
	}

	id := engine.NewPlayerID()
	g, err := h.engine.CreateGame(c.Request.Context(), id, req.Nickname)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sessions.grant(c, http.StatusCreated, g, id)
}

// JoinGame seats the caller in a waiting room.
func (h *Games) JoinGame(c *gin.Context) {
	var req models.JoinGameRequest
	if !bind(c, &req) {
		return
	}

	id := engine.NewPlayerID()
	g, err := h.engine.JoinGame(c.Request.Context(), c.Param("roomId"), id, req.Nickname)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sessions.grant(c, http.StatusOK, g, id)
}

// GetGame returns the caller's view of the room.
func (h *Games) GetGame(c *gin.Context) {
	h.run(c, func(ctx context.Context, roomID, id string) (*models.Game, error) {
		return h.engine.GameState(ctx, roomID, id)
	})
}

func (h *Games) LeaveGame(c *gin.Context) {
	id, roomID, ok := member(c)
	if !ok {
		return
	}
	_, err := h.engine.LeaveGame(c.Request.Context(), roomID, id)
	respond(c, nil, err)
}

func (h *Games) Ready(c *gin.Context) {
	var req models.ReadyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, apperr.Wrap(apperr.CodeInvalidRequest, "invalid request body", err))
		return
	}
	ready := req.Ready == nil || *req.Ready
	h.run(c, func(ctx context.Context, roomID, id string) (*models.Game, error) {
		return h.engine.Ready(ctx, roomID, id, ready)
	})
}

func (h *Games) StartGame(c *gin.Context) {
	h.run(c, func(ctx context.Context, roomID, id string) (*models.Game, error) {
		return h.engine.StartGame(ctx, roomID, id)
	})
}

func (h *Games) SelectRole(c *gin.Context) {
	var req models.SelectRoleRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, roomID, id string) (*models.Game, error) {
		return h.engine.SelectRole(ctx, roomID, id, req.RoleNumber)
	})
}

func (h *Games) SelectDeck(c *gin.Context) {
	var req models.SelectDeckRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, roomID, id string) (*models.Game, error) {
		return h.engine.SelectDeck(ctx, roomID, id, *req.DeckIndex)
	})
}

func (h *Games) SelectRevolution(c *gin.Context) {
	var req models.SelectRevolutionRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, roomID, id string) (*models.Game, error) {
		return h.engine.SelectRevolution(ctx, roomID, id, *req.WantRevolution)
	})
}

func (h *Games) PlayCard(c *gin.Context) {
	var req models.PlayCardRequest
	if !bind(c, &req) {
		return
	}
	for _, card := range req.Cards {
		if !card.Valid() {
			respondError(c, apperr.New(apperr.CodeCardsNotInHand, "cards not in hand"))
			return
		}
	}
	h.run(c, func(ctx context.Context, roomID, id string) (*models.Game, error) {
		return h.engine.PlayCard(ctx, roomID, id, req.Cards)
	})
}

func (h *Games) Pass(c *gin.Context) {
	h.run(c, func(ctx context.Context, roomID, id string) (*models.Game, error) {
		return h.engine.PassTurn(ctx, roomID, id)
	})
}

func (h *Games) Vote(c *gin.Context) {
	var req models.VoteRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, roomID, id string) (*models.Game, error) {
		return h.engine.Vote(ctx, roomID, id, *req.InFavor)
	})
}

// run executes a player command and responds with the caller's view.
func (h *Games) run(c *gin.Context, cmd func(ctx context.Context, roomID, playerID string) (*models.Game, error)) {
	id, roomID, ok := member(c)
	if !ok {
		return
	}
	g, err := cmd(c.Request.Context(), roomID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, g.ViewFor(id), nil)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperr.Wrap(apperr.CodeInvalidRequest, "invalid request body", err))
		return false
	}
	return true
}

func respond(c *gin.Context, data any, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.ResultOf(data, nil))
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.CodeOf(err).HTTPStatus(), engine.ResultOf(nil, err))
}
