// Package history accumulates per-player statistics during a game and
// turns a finished game into an archived record.
package history

import (
	"maps"
	"slices"
	"time"

	"github.com/mossy-p/dalmuti/internal/models"
)

// RecordPlay counts an accepted play and appends it to the round log.
func RecordPlay(g *models.Game, playerID string, cards []models.Card) {
	st := g.PlayerStats[playerID]
	st.Plays++
	st.CardsPlayed += len(cards)
	g.PlayerStats[playerID] = st
	g.RoundPlays = append(g.RoundPlays, models.RoundPlay{
		Round:    g.Round,
		PlayerID: playerID,
		Cards:    models.CloneCards(cards),
	})
}

// RecordPass counts a pass.
func RecordPass(g *models.Game, playerID string) {
	st := g.PlayerStats[playerID]
	st.Passes++
	g.PlayerStats[playerID] = st
}

// RecordFinish appends playerID to the finish order with the round they went out in.
func RecordFinish(g *models.Game, playerID string) {
	if g.IsFinished(playerID) {
		return
	}
	g.FinishedPlayers = append(g.FinishedPlayers, playerID)
	st := g.PlayerStats[playerID]
	st.FinishRound = g.Round
	st.FinishPosition = len(g.FinishedPlayers)
	g.PlayerStats[playerID] = st
}

// Finalize builds the record of the game that just ended.
func Finalize(g *models.Game, now time.Time) models.GameRecord {
	ranks := make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		ranks[p.ID] = p.Rank
	}
	return models.GameRecord{
		GameNumber:  g.GameNumber,
		FinishOrder: slices.Clone(g.FinishedPlayers),
		Ranks:       ranks,
		Revolution:  g.Revolution,
		Rounds:      g.Round,
		Stats:       maps.Clone(g.PlayerStats),
		Plays:       slices.Clone(g.RoundPlays),
		EndedAt:     now,
	}
}

// Archive appends the finished game to the room history.
func Archive(g *models.Game, now time.Time) models.GameRecord {
	rec := Finalize(g, now)
	g.History = append(g.History, rec)
	return rec
}
