// Package rules holds the pure game rules: turn order, play legality and
// the rank adjustments made between deals.
package rules

import "github.com/mossy-p/dalmuti/internal/models"

// NextActive returns the first active player after fromID in rank order,
// wrapping around. It returns fromID when nobody else can move.
func NextActive(g *models.Game, fromID string) string {
	return walk(g, fromID, 1)
}

// NextActiveFrom is NextActive but considers startID itself first.
func NextActiveFrom(g *models.Game, startID string) string {
	return walk(g, startID, 0)
}

func walk(g *models.Game, id string, firstStep int) string {
	order := g.PlayersByRank()
	n := len(order)
	idx := -1
	for i, p := range order {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Unknown start: scan from the top of the order.
		idx, firstStep = 0, 0
	}
	for step := firstStep; step < firstStep+n; step++ {
		p := order[(idx+step)%n]
		if g.IsActive(p) {
			return p.ID
		}
	}
	return id
}

// AllPassedExceptLast reports whether every active player other than the
// owner of the last play has passed.
func AllPassedExceptLast(g *models.Game) bool {
	if g.LastPlay == nil {
		return false
	}
	for _, p := range g.ActivePlayers() {
		if p.ID != g.LastPlay.PlayerID && !p.IsPassed {
			return false
		}
	}
	return true
}

// OthersAllPassed reports whether every active player except playerID has passed.
func OthersAllPassed(g *models.Game, playerID string) bool {
	for _, p := range g.ActivePlayers() {
		if p.ID != playerID && !p.IsPassed {
			return false
		}
	}
	return true
}

// StartNewRound clears the table and hands the lead to the owner of the
// last play, or the next active player if they have gone out.
func StartNewRound(g *models.Game) {
	lastID := ""
	if g.LastPlay != nil {
		lastID = g.LastPlay.PlayerID
	}
	g.Round++
	g.LastPlay = nil
	for _, p := range g.ActivePlayers() {
		p.IsPassed = false
	}
	g.CurrentTurn = NextActiveFrom(g, lastID)
}

// ResetPasses clears every pass flag.
func ResetPasses(g *models.Game) {
	for _, p := range g.Players {
		p.IsPassed = false
	}
}
