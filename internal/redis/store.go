package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/mossy-p/dalmuti/internal/store"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "game:"

// GameStore keeps each room aggregate as a JSON document under game:<roomId>.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameStore wraps client. Every write refreshes the key TTL.
func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{client: client, ttl: ttl}
}

func gameKey(roomID string) string {
	return keyPrefix + roomID
}

func (s *GameStore) Create(ctx context.Context, g *models.Game) (*models.Game, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal game: %w", err)
	}
	ok, err := s.client.SetNX(ctx, gameKey(g.RoomID), data, s.ttl).Result()
	if err != nil {
		return nil, store.Unavailable("create game", err)
	}
	if !ok {
		return nil, store.ErrDuplicate
	}
	return g.Clone(), nil
}

func (s *GameStore) Get(ctx context.Context, roomID string) (*models.Game, error) {
	data, err := s.client.Get(ctx, gameKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Unavailable("get game", err)
	}
	return decode(data)
}

func (s *GameStore) Update(ctx context.Context, g *models.Game) (*models.Game, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal game: %w", err)
	}
	ok, err := s.client.SetXX(ctx, gameKey(g.RoomID), data, s.ttl).Result()
	if err != nil {
		return nil, store.Unavailable("update game", err)
	}
	if !ok {
		return nil, store.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *GameStore) Delete(ctx context.Context, roomID string) (bool, error) {
	n, err := s.client.Del(ctx, gameKey(roomID)).Result()
	if err != nil {
		return false, store.Unavailable("delete game", err)
	}
	return n > 0, nil
}

func (s *GameStore) ListAll(ctx context.Context) ([]*models.Game, error) {
	var games []*models.Game
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		roomID := strings.TrimPrefix(iter.Val(), keyPrefix)
		g, err := s.Get(ctx, roomID)
		if errors.Is(err, store.ErrNotFound) {
			// Expired between SCAN and GET.
			continue
		}
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := iter.Err(); err != nil {
		return nil, store.Unavailable("list games", err)
	}
	return games, nil
}

func decode(data []byte) (*models.Game, error) {
	var g models.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	if g.Votes == nil {
		g.Votes = map[string]bool{}
	}
	if g.PlayerStats == nil {
		g.PlayerStats = map[string]models.Stats{}
	}
	return &g, nil
}
