package engine

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/deck"
	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/mossy-p/dalmuti/internal/store"
	"go.uber.org/zap"
)

const (
	maxNicknameLength = 20
	createAttempts    = 5
)

func cleanNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > maxNicknameLength {
		return "", apperr.New(apperr.CodeInvalidNickname, "nickname must be 1-20 characters")
	}
	return nickname, nil
}

// CreateGame opens a new room owned by ownerID in the waiting phase.
func (e *Engine) CreateGame(ctx context.Context, ownerID, nickname string) (*models.Game, error) {
	nickname, err := cleanNickname(nickname)
	if err != nil {
		return nil, err
	}
	for attempt := 0; attempt < createAttempts; attempt++ {
		g := models.NewGame(e.newRoomCode(), ownerID, nickname, e.now())
		created, err := e.store.Create(ctx, g)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		e.logger.Info("room created", zap.String("room_id", created.RoomID), zap.String("owner_id", ownerID))
		e.notifier.Publish(models.Event{Type: models.EventGameUpdated, RoomID: created.RoomID, Game: created})
		return created, nil
	}
	return nil, store.ErrDuplicate
}

func (e *Engine) newRoomCode() string {
	if e.opts.RoomCode != nil {
		return e.opts.RoomCode()
	}
	return generateRoomCode()
}

// JoinGame seats playerID in a waiting room. Joining twice is a no-op.
func (e *Engine) JoinGame(ctx context.Context, roomID, playerID, nickname string) (*models.Game, error) {
	nickname, err := cleanNickname(nickname)
	if err != nil {
		return nil, err
	}
	return e.command(ctx, string(CmdJoin), roomID, playerID, func(g *models.Game) (outcome, error) {
		if err := requirePhase(g, CmdJoin); err != nil {
			return outcome{}, err
		}
		if g.Player(playerID) != nil {
			return outcome{}, nil
		}
		if len(g.Players) >= models.MaxPlayers {
			return outcome{}, apperr.New(apperr.CodeRoomFull, "room is full")
		}
		g.Players = append(g.Players, &models.Player{ID: playerID, Nickname: nickname})
		return outcome{}, nil
	})
}

// LeaveGame removes playerID. While waiting the roster shrinks and
// ownership passes to the next player; an emptied room is deleted. Leaving
// once the game has started abandons the room for everyone.
func (e *Engine) LeaveGame(ctx context.Context, roomID, playerID string) (*models.Game, error) {
	return e.command(ctx, string(CmdLeave), roomID, playerID, func(g *models.Game) (outcome, error) {
		if err := requirePhase(g, CmdLeave); err != nil {
			return outcome{}, err
		}
		if _, err := e.playerOrErr(g, playerID); err != nil {
			return outcome{}, err
		}
		if g.Phase != models.PhaseWaiting {
			return outcome{deleteRoom: true, signals: []models.EventType{models.EventGameEnded}}, nil
		}

		was := allReady(g)
		g.Players = slices.DeleteFunc(g.Players, func(p *models.Player) bool { return p.ID == playerID })
		if len(g.Players) == 0 {
			return outcome{deleteRoom: true, signals: []models.EventType{models.EventGameEnded}}, nil
		}
		if g.OwnerID == playerID {
			g.OwnerID = g.Players[0].ID
			g.Players[0].IsReady = false
		}
		return readyOutcome(was, g), nil
	})
}

// readyOutcome signals all_players_ready when g has just become startable.
func readyOutcome(was bool, g *models.Game) outcome {
	if !was && allReady(g) {
		return outcome{signals: []models.EventType{models.EventAllPlayersReady}}
	}
	return outcome{}
}

func allReady(g *models.Game) bool {
	if len(g.Players) < models.MinPlayers || len(g.Players) > models.MaxPlayers {
		return false
	}
	for _, p := range g.Players {
		if p.ID != g.OwnerID && !p.IsReady {
			return false
		}
	}
	return true
}

// Ready sets playerID's ready flag while waiting. Repeating a request
// leaves the flag as it is.
func (e *Engine) Ready(ctx context.Context, roomID, playerID string, ready bool) (*models.Game, error) {
	return e.command(ctx, string(CmdReady), roomID, playerID, func(g *models.Game) (outcome, error) {
		if err := requirePhase(g, CmdReady); err != nil {
			return outcome{}, err
		}
		p, err := e.playerOrErr(g, playerID)
		if err != nil {
			return outcome{}, err
		}
		was := allReady(g)
		p.IsReady = ready
		return readyOutcome(was, g), nil
	})
}

// StartGame begins the role draft. Only the owner may start, with 4-8
// players who are all ready.
func (e *Engine) StartGame(ctx context.Context, roomID, playerID string) (*models.Game, error) {
	return e.command(ctx, string(CmdStart), roomID, playerID, func(g *models.Game) (outcome, error) {
		if err := requirePhase(g, CmdStart); err != nil {
			return outcome{}, err
		}
		if _, err := e.playerOrErr(g, playerID); err != nil {
			return outcome{}, err
		}
		if g.OwnerID != playerID {
			return outcome{}, apperr.New(apperr.CodeNotOwner, "only the owner can start the game")
		}
		if len(g.Players) < models.MinPlayers {
			return outcome{}, apperr.New(apperr.CodeNotEnoughPlayers, "at least 4 players are required")
		}
		if len(g.Players) > models.MaxPlayers {
			return outcome{}, apperr.New(apperr.CodeTooManyPlayers, "at most 8 players can play")
		}
		for _, p := range g.Players {
			if p.ID != g.OwnerID && !p.IsReady {
				return outcome{}, apperr.New(apperr.CodePlayerNotReady, p.Nickname+" is not ready")
			}
		}

		cards := deck.New()
		var roles []models.RoleCard
		_ = e.withRand(func(rng *rand.Rand) error {
			deck.Shuffle(rng, cards)
			roles = deck.Roles(rng)
			return nil
		})
		g.Deck = cards
		g.RoleDeck = roles
		for _, p := range g.Players {
			p.Role = 0
			p.Rank = 0
			p.Hand = nil
		}
		g.Phase = models.PhaseRoleSelection
		g.CurrentTurn = ""
		return outcome{}, nil
	})
}

// GameState returns the current aggregate for a member of the room.
func (e *Engine) GameState(ctx context.Context, roomID, playerID string) (*models.Game, error) {
	return e.Observe(ctx, roomID, playerID, nil)
}

// Observe is GameState with fn run on the room's worker before any later
// command can publish. Subscribers use it to register and take their
// snapshot without missing an event in between.
func (e *Engine) Observe(ctx context.Context, roomID, playerID string, fn func(g *models.Game)) (*models.Game, error) {
	res := make(chan result, 1)
	err := e.do(ctx, roomID, func(ctx context.Context) {
		g, err := e.store.Get(ctx, roomID)
		if err == nil && g.Player(playerID) == nil {
			g, err = nil, apperr.New(apperr.CodePlayerNotFound, "player not in room")
		}
		if err == nil && fn != nil {
			fn(g)
		}
		res <- result{game: g, err: err}
	})
	if err != nil {
		return nil, err
	}
	r := <-res
	return r.game, r.err
}

// ListGames returns every stored room.
func (e *Engine) ListGames(ctx context.Context) ([]*models.Game, error) {
	return e.store.ListAll(ctx)
}

// Resume re-arms the timed transitions of rooms that were waiting on a
// timer when the process stopped.
func (e *Engine) Resume(ctx context.Context) error {
	games, err := e.store.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, g := range games {
		switch g.Phase {
		case models.PhaseTax:
			e.scheduleTransition(g.RoomID, e.taxTimer())
		case models.PhaseRoleSelectionComplete:
			e.scheduleTransition(g.RoomID, e.dealTimer())
		default:
			continue
		}
		e.logger.Info("resumed room timer", zap.String("room_id", g.RoomID), zap.String("phase", string(g.Phase)))
	}
	return nil
}
