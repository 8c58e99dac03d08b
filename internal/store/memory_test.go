package store

import (
	"context"
	"testing"
	"time"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	g := models.NewGame("ROOM01", "p1", "alice", time.Unix(0, 0))

	_, err := s.Create(ctx, g)
	require.NoError(t, err)

	_, err = s.Create(ctx, g)
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := s.Get(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.OwnerID)

	got.Phase = models.PhaseRoleSelection
	_, err = s.Update(ctx, got)
	require.NoError(t, err)

	again, err := s.Get(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseRoleSelection, again.Phase)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	ok, err := s.Delete(ctx, "ROOM01")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, "ROOM01")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "ROOM01")
	assert.True(t, apperr.HasCode(err, apperr.CodeGameNotFound))
	_, err = s.Update(ctx, g)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	g := models.NewGame("ROOM02", "p1", "alice", time.Unix(0, 0))
	_, err := s.Create(ctx, g)
	require.NoError(t, err)

	g.Players[0].Nickname = "mallory"
	got, err := s.Get(ctx, "ROOM02")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Players[0].Nickname)
}

func TestMemoryCancelledContextIsInfrastructure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Get(ctx, "X")
	assert.True(t, apperr.CodeOf(err).Infrastructure())
}
