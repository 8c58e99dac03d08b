// Package engine is the authoritative session state machine. Every command
// for a room runs on that room's worker, one at a time, as a single
// read-validate-write cycle against the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/mossy-p/dalmuti/internal/store"
	"go.uber.org/zap"
)

// Notifier receives committed state changes. Publish is called from the
// room worker and must not block.
type Notifier interface {
	Publish(ev models.Event)
}

// Archiver keeps finished game records outside the room aggregate.
type Archiver interface {
	Archive(ctx context.Context, roomID string, rec models.GameRecord) error
}

// Options tune an Engine. Zero values fall back to defaults.
type Options struct {
	InboxSize       int
	NextGameDelay   time.Duration
	TaxDisplayDelay time.Duration
	IdleTimeout     time.Duration

	Notifier Notifier
	Archiver Archiver
	Logger   *zap.Logger
	Rand     *rand.Rand
	Now      func() time.Time
	// RoomCode overrides room id generation.
	RoomCode func() string
}

const (
	defaultInboxSize       = 64
	defaultNextGameDelay   = 5 * time.Second
	defaultTaxDisplayDelay = 5 * time.Second
	defaultIdleTimeout     = 10 * time.Minute
	busyRetryDelay         = 100 * time.Millisecond
)

var errEngineClosed = apperr.New(apperr.CodeInternal, "engine closed")

// errStale aborts a timer task whose room has moved on.
var errStale = errors.New("stale timer")

// Engine runs game commands against a store.
type Engine struct {
	store    store.Store
	notifier Notifier
	archiver Archiver
	logger   *zap.Logger
	opts     Options
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	timers *scheduler

	mu     sync.Mutex
	rooms  map[string]*room
	closed bool
	quit   chan struct{}
	wg     sync.WaitGroup
}

// New creates an Engine backed by s.
func New(s store.Store, opts Options) *Engine {
	if opts.InboxSize <= 0 {
		opts.InboxSize = defaultInboxSize
	}
	if opts.NextGameDelay <= 0 {
		opts.NextGameDelay = defaultNextGameDelay
	}
	if opts.TaxDisplayDelay <= 0 {
		opts.TaxDisplayDelay = defaultTaxDisplayDelay
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Engine{
		store:    s,
		notifier: notifier,
		archiver: opts.Archiver,
		logger:   opts.Logger,
		opts:     opts,
		now:      opts.Now,
		rng:      opts.Rand,
		timers:   newScheduler(),
		rooms:    make(map[string]*room),
		quit:     make(chan struct{}),
	}
}

// Close cancels pending timers and stops every room worker.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.quit)
	e.mu.Unlock()

	e.timers.stopAll()
	e.wg.Wait()
}

type nopNotifier struct{}

func (nopNotifier) Publish(models.Event) {}

// withRand serializes access to the shared random source.
func (e *Engine) withRand(fn func(rng *rand.Rand) error) error {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return fn(e.rng)
}

// transition is a phase-timed state change requested by a command.
type transition struct {
	phase  models.Phase
	delay  time.Duration
	action mutation
}

// outcome lists what a successful mutation wants done after the commit.
type outcome struct {
	signals    []models.EventType
	timer      *transition
	records    []models.GameRecord
	deleteRoom bool
}

// mutation changes a private copy of the aggregate. Returning an error
// discards the copy.
type mutation func(g *models.Game) (outcome, error)

// apply is the single read-validate-write cycle every mutating command
// goes through. It must only run on the room's worker.
func (e *Engine) apply(ctx context.Context, roomID string, fn mutation) (*models.Game, error) {
	current, err := e.store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	work := current.Clone()
	out, err := fn(work)
	if err != nil {
		return nil, err
	}

	if out.deleteRoom {
		e.timers.cancel(roomID)
		if _, err := e.store.Delete(ctx, roomID); err != nil {
			return nil, err
		}
		e.archive(ctx, roomID, out.records)
		e.logger.Info("room deleted", zap.String("room_id", roomID))
		e.notifier.Publish(models.Event{Type: models.EventGameUpdated, RoomID: roomID, Game: work})
		for _, sig := range out.signals {
			e.notifier.Publish(models.Event{Type: sig, RoomID: roomID, Game: work})
		}
		return work, nil
	}

	work.UpdatedAt = e.now()
	saved, err := e.store.Update(ctx, work)
	if err != nil {
		return nil, err
	}
	e.archive(ctx, roomID, out.records)

	e.notifier.Publish(models.Event{Type: models.EventGameUpdated, RoomID: roomID, Game: saved})
	for _, sig := range out.signals {
		e.notifier.Publish(models.Event{Type: sig, RoomID: roomID, Game: saved})
	}
	if t := out.timer; t != nil {
		e.scheduleTransition(roomID, t)
	}
	return saved, nil
}

func (e *Engine) archive(ctx context.Context, roomID string, recs []models.GameRecord) {
	if e.archiver == nil {
		return
	}
	for _, rec := range recs {
		if err := e.archiver.Archive(ctx, roomID, rec); err != nil {
			e.logger.Error("failed to archive game record",
				zap.String("room_id", roomID),
				zap.Int("game_number", rec.GameNumber),
				zap.Error(err))
		}
	}
}

type result struct {
	game *models.Game
	err  error
}

// command runs a mutation on the room worker and waits for its result.
func (e *Engine) command(ctx context.Context, name, roomID, playerID string, fn mutation) (*models.Game, error) {
	res := make(chan result, 1)
	err := e.do(ctx, roomID, func(ctx context.Context) {
		g, err := e.apply(ctx, roomID, fn)
		res <- result{game: g, err: err}
	})
	if err == nil {
		r := <-res
		if r.err == nil {
			return r.game, nil
		}
		err = r.err
	}

	fields := []zap.Field{
		zap.String("room_id", roomID),
		zap.String("player_id", playerID),
		zap.String("command", name),
		zap.Error(err),
	}
	if apperr.CodeOf(err).Infrastructure() {
		e.logger.Error("command failed", fields...)
	} else {
		e.logger.Debug("command rejected", fields...)
	}
	return nil, err
}

// scheduleTransition arms a phase-keyed timer for roomID. When it fires the
// room is reloaded and the action only runs if the phase still matches.
func (e *Engine) scheduleTransition(roomID string, t *transition) {
	var fire func()
	fire = func() {
		err := e.submit(roomID, func(ctx context.Context) {
			_, err := e.apply(ctx, roomID, func(g *models.Game) (outcome, error) {
				if g.Phase != t.phase {
					return outcome{}, errStale
				}
				return t.action(g)
			})
			switch {
			case err == nil:
			case errors.Is(err, errStale), apperr.HasCode(err, apperr.CodeGameNotFound):
				e.logger.Debug("timer skipped", zap.String("room_id", roomID), zap.String("phase", string(t.phase)))
			default:
				e.logger.Error("timer transition failed", zap.String("room_id", roomID), zap.Error(err))
			}
		})
		if apperr.HasCode(err, apperr.CodeRoomBusy) {
			e.timers.schedule(roomID, t.phase, busyRetryDelay, fire)
		}
	}
	e.timers.schedule(roomID, t.phase, t.delay, fire)
}

func (e *Engine) playerOrErr(g *models.Game, playerID string) (*models.Player, error) {
	p := g.Player(playerID)
	if p == nil {
		return nil, apperr.New(apperr.CodePlayerNotFound, fmt.Sprintf("player %s not in room", playerID))
	}
	return p, nil
}
