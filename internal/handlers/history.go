package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
)

// statsWindow is the default look-back for /api/stats.
const statsWindow = 24 * time.Hour

// RecordSource reads finished games back from the archive.
type RecordSource interface {
	ListRoom(ctx context.Context, roomID string) ([]models.GameRecord, error)
	Since(ctx context.Context, t time.Time) (int, error)
}

// ListGames returns the rooms that can still be joined.
func (h *Games) ListGames(c *gin.Context) {
	games, err := h.engine.ListGames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	open := []models.RoomSummary{}
	for _, g := range games {
		if g.Phase == models.PhaseWaiting && len(g.Players) < models.MaxPlayers {
			open = append(open, g.Summary())
		}
	}
	respond(c, open, nil)
}

// History returns every archived game of the caller's room. Without an
// archive it falls back to the history kept on the room itself.
func (h *Games) History(c *gin.Context) {
	id, roomID, ok := member(c)
	if !ok {
		return
	}
	g, err := h.engine.GameState(c.Request.Context(), roomID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.records == nil {
		recs := g.History
		if recs == nil {
			recs = []models.GameRecord{}
		}
		respond(c, recs, nil)
		return
	}

	recs, err := h.records.ListRoom(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.CodeStoreUnavailable, "failed to read game archive", err))
		return
	}
	if recs == nil {
		recs = []models.GameRecord{}
	}
	respond(c, recs, nil)
}

// Stats reports live rooms and, with an archive, how many games ended
// since the "since" query parameter (RFC 3339, default one day ago).
func (h *Games) Stats(c *gin.Context) {
	since := time.Now().Add(-statsWindow)
	if q := c.Query("since"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			respondError(c, apperr.Wrap(apperr.CodeInvalidRequest, "since must be RFC 3339", err))
			return
		}
		since = t
	}

	games, err := h.engine.ListGames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	stats := models.ServerStats{Rooms: len(games), Since: since.UTC()}
	for _, g := range games {
		if g.Phase == models.PhaseWaiting {
			stats.OpenRooms++
		}
	}

	if h.records != nil {
		n, err := h.records.Since(c.Request.Context(), since)
		if err != nil {
			respondError(c, apperr.Wrap(apperr.CodeStoreUnavailable, "failed to read game archive", err))
			return
		}
		stats.GamesEnded = n
		stats.ArchiveReady = true
	}
	respond(c, stats, nil)
}
