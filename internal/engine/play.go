package engine

import (
	"context"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/history"
	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/mossy-p/dalmuti/internal/rules"
)

// playerOnTurn checks the common preconditions of playCard and pass.
func (e *Engine) playerOnTurn(g *models.Game, cmd Command, playerID string) (*models.Player, error) {
	if err := requirePhase(g, cmd); err != nil {
		return nil, err
	}
	p, err := e.playerOrErr(g, playerID)
	if err != nil {
		return nil, err
	}
	if g.IsFinished(playerID) {
		return nil, apperr.New(apperr.CodePlayerFinished, "player already finished")
	}
	if g.CurrentTurn != playerID {
		return nil, apperr.New(apperr.CodeNotYourTurn, "not your turn")
	}
	return p, nil
}

// PlayCard plays cards from playerID's hand onto the table.
func (e *Engine) PlayCard(ctx context.Context, roomID, playerID string, cards []models.Card) (*models.Game, error) {
	return e.command(ctx, string(CmdPlayCard), roomID, playerID, func(g *models.Game) (outcome, error) {
		p, err := e.playerOnTurn(g, CmdPlayCard, playerID)
		if err != nil {
			return outcome{}, err
		}
		indices, err := rules.ValidatePlay(p.Hand, cards, g.LastPlay)
		if err != nil {
			return outcome{}, err
		}

		played := models.CloneCards(cards)
		models.SortCards(played)
		p.Hand = rules.RemoveIndices(p.Hand, indices)
		g.Discard = append(g.Discard, played...)
		g.LastPlay = &models.LastPlay{PlayerID: playerID, Cards: played}
		rules.ResetPasses(g)
		history.RecordPlay(g, playerID, played)

		if len(p.Hand) == 0 {
			history.RecordFinish(g, playerID)
		}
		if active := g.ActivePlayers(); len(active) <= 1 {
			for _, last := range active {
				history.RecordFinish(g, last.ID)
			}
			return endGame(g), nil
		}
		g.CurrentTurn = rules.NextActive(g, playerID)
		return outcome{}, nil
	})
}

// PassTurn passes playerID's turn. A pass that would leave nobody able to
// continue is rejected.
func (e *Engine) PassTurn(ctx context.Context, roomID, playerID string) (*models.Game, error) {
	return e.command(ctx, string(CmdPass), roomID, playerID, func(g *models.Game) (outcome, error) {
		p, err := e.playerOnTurn(g, CmdPass, playerID)
		if err != nil {
			return outcome{}, err
		}
		if p.IsPassed {
			return outcome{}, apperr.New(apperr.CodeAlreadyPassed, "already passed")
		}
		if !canPass(g, playerID) {
			return outcome{}, apperr.New(apperr.CodeCannotPass, "everyone else has passed; you must play")
		}

		p.IsPassed = true
		history.RecordPass(g, playerID)

		if rules.AllPassedExceptLast(g) {
			rules.StartNewRound(g)
		} else {
			g.CurrentTurn = rules.NextActive(g, playerID)
		}
		return outcome{}, nil
	})
}

// canPass rejects the pass that would leave every active player passed with
// no one owning the table. When the last play belongs to someone who has
// already gone out, the final pass is what closes the round.
func canPass(g *models.Game, playerID string) bool {
	if !rules.OthersAllPassed(g, playerID) {
		return true
	}
	if g.LastPlay == nil || g.LastPlay.PlayerID == playerID {
		return false
	}
	return !g.IsActive(g.Player(g.LastPlay.PlayerID))
}

// endGame moves the room to voting.
func endGame(g *models.Game) outcome {
	g.Phase = models.PhaseGameEnd
	g.CurrentTurn = ""
	g.LastPlay = nil
	g.Votes = map[string]bool{}
	return outcome{signals: []models.EventType{models.EventGameEnded}}
}

// Vote records a continue/stop vote. A unanimous yes archives the game and
// deals the next one after a delay; any no closes the room.
func (e *Engine) Vote(ctx context.Context, roomID, playerID string, inFavor bool) (*models.Game, error) {
	return e.command(ctx, string(CmdVote), roomID, playerID, func(g *models.Game) (outcome, error) {
		if err := requirePhase(g, CmdVote); err != nil {
			return outcome{}, err
		}
		if _, err := e.playerOrErr(g, playerID); err != nil {
			return outcome{}, err
		}
		if _, voted := g.Votes[playerID]; voted {
			return outcome{}, apperr.New(apperr.CodeAlreadyVoted, "already voted")
		}
		g.Votes[playerID] = inFavor
		if len(g.Votes) < len(g.Players) {
			return outcome{}, nil
		}

		for _, yes := range g.Votes {
			if !yes {
				rec := history.Finalize(g, e.now())
				return outcome{
					deleteRoom: true,
					records:    []models.GameRecord{rec},
					signals:    []models.EventType{models.EventGameEnded},
				}, nil
			}
		}

		rec := history.Archive(g, e.now())
		nextGame(g)
		return outcome{records: []models.GameRecord{rec}, timer: e.dealTimer()}, nil
	})
}

// nextGame ranks players by finish order and clears per-game state.
func nextGame(g *models.Game) {
	rules.AssignRanksFromFinishOrder(g)
	g.GameNumber++
	g.Phase = models.PhaseRoleSelectionComplete
	g.CurrentTurn = ""
	g.LastPlay = nil
	g.Round = 0
	g.FinishedPlayers = []string{}
	g.Votes = map[string]bool{}
	g.RoundPlays = []models.RoundPlay{}
	g.PlayerStats = map[string]models.Stats{}
	g.Revolution = models.RevolutionNone
	g.OriginalRanks = nil
	g.Tax = nil
	g.Deck = nil
	g.Discard = nil
	g.SelectableDecks = nil
	for _, p := range g.Players {
		p.Hand = nil
		p.IsPassed = false
		p.HasDoubleJoker = false
	}
}
