package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mossy-p/dalmuti/internal/models"
)

// Memory is an in-process Store. It hands out copies so callers never
// share state with the stored aggregate.
type Memory struct {
	mu    sync.RWMutex
	games map[string]*models.Game
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{games: make(map[string]*models.Game)}
}

func (m *Memory) Create(ctx context.Context, g *models.Game) (*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("create game", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[g.RoomID]; exists {
		return nil, ErrDuplicate
	}
	m.games[g.RoomID] = g.Clone()
	return g.Clone(), nil
}

func (m *Memory) Get(ctx context.Context, roomID string) (*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("get game", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, g *models.Game) (*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("update game", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.RoomID]; !ok {
		return nil, ErrNotFound
	}
	m.games[g.RoomID] = g.Clone()
	return g.Clone(), nil
}

func (m *Memory) Delete(ctx context.Context, roomID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, Unavailable("delete game", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.games[roomID]
	delete(m.games, roomID)
	return ok, nil
}

func (m *Memory) ListAll(ctx context.Context) ([]*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("list games", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}
