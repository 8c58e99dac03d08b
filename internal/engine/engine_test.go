package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/mossy-p/dalmuti/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingNotifier keeps every published event for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Publish(ev models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) count(roomID string, typ models.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, ev := range n.events {
		if ev.RoomID == roomID && ev.Type == typ {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) last(roomID string) models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].RoomID == roomID {
			return n.events[i]
		}
	}
	return models.Event{}
}

type memArchive struct {
	mu   sync.Mutex
	recs map[string][]models.GameRecord
}

func (a *memArchive) Archive(_ context.Context, roomID string, rec models.GameRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.recs == nil {
		a.recs = map[string][]models.GameRecord{}
	}
	a.recs[roomID] = append(a.recs[roomID], rec)
	return nil
}

func (a *memArchive) records(roomID string) []models.GameRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.GameRecord(nil), a.recs[roomID]...)
}

type harness struct {
	e        *Engine
	store    *store.Memory
	notifier *recordingNotifier
	archive  *memArchive
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		store:    store.NewMemory(),
		notifier: &recordingNotifier{},
		archive:  &memArchive{},
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(42))
	}
	if opts.NextGameDelay == 0 {
		opts.NextGameDelay = 10 * time.Millisecond
	}
	if opts.TaxDisplayDelay == 0 {
		opts.TaxDisplayDelay = 10 * time.Millisecond
	}
	opts.Notifier = h.notifier
	opts.Archiver = h.archive
	opts.Logger = zap.NewNop()
	h.e = New(h.store, opts)
	t.Cleanup(h.e.Close)
	return h
}

func playerID(i int) string { return fmt.Sprintf("p%d", i) }

// lobby creates a room owned by p1 with n players, all ready.
func (h *harness) lobby(t *testing.T, n int) (string, []string) {
	t.Helper()
	ctx := context.Background()
	g, err := h.e.CreateGame(ctx, playerID(1), "player 1")
	require.NoError(t, err)
	ids := []string{playerID(1)}
	for i := 2; i <= n; i++ {
		id := playerID(i)
		_, err := h.e.JoinGame(ctx, g.RoomID, id, fmt.Sprintf("player %d", i))
		require.NoError(t, err)
		_, err = h.e.Ready(ctx, g.RoomID, id, true)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return g.RoomID, ids
}

// drafted starts the room and has ids[i] claim role i+1, so ids[i] ends up
// ranked i+1 in card selection.
func (h *harness) drafted(t *testing.T, n int) (string, []string) {
	t.Helper()
	ctx := context.Background()
	roomID, ids := h.lobby(t, n)
	_, err := h.e.StartGame(ctx, roomID, ids[0])
	require.NoError(t, err)
	for i, id := range ids {
		_, err := h.e.SelectRole(ctx, roomID, id, i+1)
		require.NoError(t, err)
	}
	return roomID, ids
}

// pickDecks lets every player take the first free bundle in turn order.
func (h *harness) pickDecks(t *testing.T, roomID string) *models.Game {
	t.Helper()
	ctx := context.Background()
	g := h.get(t, roomID)
	for g.Phase == models.PhaseCardSelection {
		idx := -1
		for i, d := range g.SelectableDecks {
			if !d.IsSelected {
				idx = i
				break
			}
		}
		require.GreaterOrEqual(t, idx, 0)
		var err error
		g, err = h.e.SelectDeck(ctx, roomID, g.CurrentTurn, idx)
		require.NoError(t, err)
	}
	return g
}

func (h *harness) get(t *testing.T, roomID string) *models.Game {
	t.Helper()
	g, err := h.store.Get(context.Background(), roomID)
	require.NoError(t, err)
	return g
}

// phase reads the stored phase without failing the test, for use in polls.
func (h *harness) phase(roomID string) models.Phase {
	g, err := h.store.Get(context.Background(), roomID)
	if err != nil {
		return ""
	}
	return g.Phase
}

// seed rewrites the stored aggregate directly.
func (h *harness) seed(t *testing.T, roomID string, fn func(g *models.Game)) {
	t.Helper()
	g := h.get(t, roomID)
	fn(g)
	_, err := h.store.Update(context.Background(), g)
	require.NoError(t, err)
}

// playing puts a drafted room straight into round 1 with the given hands.
// hands[i] belongs to ids[i], who is ranked i+1.
func (h *harness) playing(t *testing.T, hands ...[]models.Card) (string, []string) {
	t.Helper()
	roomID, ids := h.drafted(t, len(hands))
	h.seed(t, roomID, func(g *models.Game) {
		g.Phase = models.PhasePlaying
		g.Round = 1
		g.SelectableDecks = nil
		g.Deck = nil
		for i, id := range ids {
			g.Player(id).Hand = hands[i]
		}
		g.CurrentTurn = ids[0]
	})
	return roomID, ids
}

func cards(ranks ...int) []models.Card {
	out := make([]models.Card, len(ranks))
	for i, r := range ranks {
		if r == models.JokerRank {
			out[i] = models.Joker()
		} else {
			out[i] = models.NewCard(r)
		}
	}
	return out
}

// botMove plays the weakest legal set, or passes.
func botMove(ctx context.Context, e *Engine, g *models.Game) (*models.Game, error) {
	p := g.Player(g.CurrentTurn)
	counts := map[int]int{}
	for _, c := range p.Hand {
		counts[c.Rank]++
	}
	jokers := counts[models.JokerRank]

	if g.LastPlay == nil {
		for r := models.MaxRank; r >= 1; r-- {
			if counts[r] > 0 {
				return e.PlayCard(ctx, g.RoomID, p.ID, cards(repeat(r, counts[r])...))
			}
		}
		return e.PlayCard(ctx, g.RoomID, p.ID, cards(repeat(models.JokerRank, jokers)...))
	}

	need := len(g.LastPlay.Cards)
	for r := models.SetRank(g.LastPlay.Cards) - 1; r >= 1; r-- {
		if r <= models.MaxRank && counts[r] >= need {
			return e.PlayCard(ctx, g.RoomID, p.ID, cards(repeat(r, need)...))
		}
	}
	if jokers >= need {
		return e.PlayCard(ctx, g.RoomID, p.ID, cards(repeat(models.JokerRank, need)...))
	}
	return e.PassTurn(ctx, g.RoomID, p.ID)
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// playOut drives a room from card selection to the end of the game.
func (h *harness) playOut(t *testing.T, roomID string) *models.Game {
	t.Helper()
	ctx := context.Background()
	g := h.pickDecks(t, roomID)
	if g.Phase == models.PhaseRevolution {
		var err error
		g, err = h.e.SelectRevolution(ctx, roomID, g.CurrentTurn, true)
		require.NoError(t, err)
	}
	require.Equal(t, models.PhasePlaying, g.Phase)

	for moves := 0; g.Phase == models.PhasePlaying; moves++ {
		require.Less(t, moves, 5000, "game did not finish")
		require.Equal(t, 80, g.CardCount())
		var err error
		g, err = botMove(ctx, h.e, g)
		require.NoError(t, err)
	}
	return g
}
