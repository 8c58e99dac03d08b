package engine

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/mossy-p/dalmuti/internal/rules"
)

// SelectRole claims a role number; the draft is an open pick, so any
// unclaimed number may be taken. The last claim ranks the players by
// role and deals the selectable bundles.
func (e *Engine) SelectRole(ctx context.Context, roomID, playerID string, number int) (*models.Game, error) {
	return e.command(ctx, string(CmdSelectRole), roomID, playerID, func(g *models.Game) (outcome, error) {
		if err := requirePhase(g, CmdSelectRole); err != nil {
			return outcome{}, err
		}
		p, err := e.playerOrErr(g, playerID)
		if err != nil {
			return outcome{}, err
		}
		if number < 1 || number > models.RoleCount {
			return outcome{}, apperr.New(apperr.CodeInvalidRole, fmt.Sprintf("role number must be 1-%d", models.RoleCount))
		}
		if p.Role != 0 {
			return outcome{}, apperr.New(apperr.CodeRoleAlreadyChosen, "role already chosen")
		}
		idx := -1
		for i, rc := range g.RoleDeck {
			if rc.Number == number {
				idx = i
				break
			}
		}
		if idx < 0 {
			return outcome{}, apperr.New(apperr.CodeInvalidRole, "role number not in deck")
		}
		if g.RoleDeck[idx].ClaimedBy != "" {
			return outcome{}, apperr.New(apperr.CodeRoleClaimed, "role already claimed")
		}

		g.RoleDeck[idx].ClaimedBy = playerID
		p.Role = number

		for _, other := range g.Players {
			if other.Role == 0 {
				return outcome{}, nil
			}
		}
		rules.AssignRanksFromRoles(g)
		if err := e.deal(g); err != nil {
			return outcome{}, err
		}
		return outcome{}, nil
	})
}

// deal shuffles fresh bundles and opens card selection in rank order.
func (e *Engine) deal(g *models.Game) error {
	err := e.withRand(func(rng *rand.Rand) error {
		return rules.DealSelectableDecks(g, rng)
	})
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "deal bundles", err)
	}
	g.Phase = models.PhaseCardSelection
	g.CurrentTurn = g.PlayerWithRank(1).ID
	return nil
}

// SelectDeck claims a bundle. Players choose in rank order; the last claim
// resolves the double joker.
func (e *Engine) SelectDeck(ctx context.Context, roomID, playerID string, index int) (*models.Game, error) {
	return e.command(ctx, string(CmdSelectDeck), roomID, playerID, func(g *models.Game) (outcome, error) {
		if err := requirePhase(g, CmdSelectDeck); err != nil {
			return outcome{}, err
		}
		p, err := e.playerOrErr(g, playerID)
		if err != nil {
			return outcome{}, err
		}
		if index < 0 || index >= len(g.SelectableDecks) {
			return outcome{}, apperr.New(apperr.CodeInvalidDeckIndex, "no such deck")
		}
		if g.SelectableDecks[index].IsSelected {
			return outcome{}, apperr.New(apperr.CodeDeckClaimed, "deck already selected")
		}
		if g.CurrentTurn != playerID {
			return outcome{}, apperr.New(apperr.CodeNotYourTurn, "not your turn")
		}

		d := &g.SelectableDecks[index]
		d.IsSelected = true
		d.SelectedBy = playerID
		p.Hand = models.CloneCards(d.Cards)
		models.SortCards(p.Hand)

		if next := nextSelector(g, p); next != nil {
			g.CurrentTurn = next.ID
			return outcome{}, nil
		}
		return e.resolveDoubleJoker(g), nil
	})
}

// nextSelector is the next player by rank after p who has not picked a bundle.
func nextSelector(g *models.Game, p *models.Player) *models.Player {
	picked := make(map[string]bool, len(g.SelectableDecks))
	for _, d := range g.SelectableDecks {
		if d.IsSelected {
			picked[d.SelectedBy] = true
		}
	}
	order := g.PlayersByRank()
	start := 0
	for i, o := range order {
		if o.ID == p.ID {
			start = i
			break
		}
	}
	for step := 1; step <= len(order); step++ {
		o := order[(start+step)%len(order)]
		if !picked[o.ID] {
			return o
		}
	}
	return nil
}

func (e *Engine) resolveDoubleJoker(g *models.Game) outcome {
	holder := rules.FindDoubleJoker(g)
	for _, p := range g.Players {
		p.HasDoubleJoker = holder != nil && p.ID == holder.ID
	}
	if holder == nil || holder.Rank == 1 {
		startPlaying(g)
		return outcome{}
	}
	rules.PromoteToFirst(g, holder)
	g.Phase = models.PhaseRevolution
	g.CurrentTurn = holder.ID
	return outcome{}
}

// startPlaying opens round 1 with the strongest player leading.
func startPlaying(g *models.Game) {
	g.Phase = models.PhasePlaying
	g.Round = 1
	g.LastPlay = nil
	rules.ResetPasses(g)
	if first := g.PlayerWithRank(1); first != nil {
		g.CurrentTurn = rules.NextActiveFrom(g, first.ID)
	}
}

// SelectRevolution records the double-joker holder's decision.
func (e *Engine) SelectRevolution(ctx context.Context, roomID, playerID string, want bool) (*models.Game, error) {
	return e.command(ctx, string(CmdRevolution), roomID, playerID, func(g *models.Game) (outcome, error) {
		if err := requirePhase(g, CmdRevolution); err != nil {
			return outcome{}, err
		}
		p, err := e.playerOrErr(g, playerID)
		if err != nil {
			return outcome{}, err
		}
		if !p.HasDoubleJoker {
			return outcome{}, apperr.New(apperr.CodeNoDoubleJoker, "only the double joker holder can choose")
		}

		if want {
			rules.AcceptRevolution(g, p)
			startPlaying(g)
			return outcome{}, nil
		}

		rules.DeclineRevolution(g, p)
		g.Phase = models.PhaseTax
		g.CurrentTurn = ""
		return outcome{timer: e.taxTimer()}, nil
	})
}

// taxTimer moves a room from the tax display into play.
func (e *Engine) taxTimer() *transition {
	return &transition{
		phase: models.PhaseTax,
		delay: e.opts.TaxDisplayDelay,
		action: func(g *models.Game) (outcome, error) {
			startPlaying(g)
			return outcome{}, nil
		},
	}
}

// dealTimer deals the next game once the post-vote pause is over.
func (e *Engine) dealTimer() *transition {
	return &transition{
		phase: models.PhaseRoleSelectionComplete,
		delay: e.opts.NextGameDelay,
		action: func(g *models.Game) (outcome, error) {
			if err := e.deal(g); err != nil {
				return outcome{}, err
			}
			return outcome{signals: []models.EventType{models.EventNextGameStarted}}, nil
		},
	}
}
