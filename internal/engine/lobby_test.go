package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/mossy-p/dalmuti/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGame(t *testing.T) {
	h := newHarness(t, Options{})
	g, err := h.e.CreateGame(context.Background(), "owner", "  Alice  ")
	require.NoError(t, err)

	assert.Len(t, g.RoomID, roomCodeLength)
	assert.Equal(t, models.PhaseWaiting, g.Phase)
	assert.Equal(t, "owner", g.OwnerID)
	require.Len(t, g.Players, 1)
	assert.Equal(t, "Alice", g.Players[0].Nickname)
	assert.Equal(t, 1, g.GameNumber)
	assert.Equal(t, 1, h.notifier.count(g.RoomID, models.EventGameUpdated))
}

func TestCreateGameRejectsBadNickname(t *testing.T) {
	h := newHarness(t, Options{})
	for _, name := range []string{"", "   ", strings.Repeat("x", 21)} {
		_, err := h.e.CreateGame(context.Background(), "owner", name)
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidNickname), "nickname %q", name)
	}
}

func TestCreateGameRetriesDuplicateCodes(t *testing.T) {
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	h := newHarness(t, Options{RoomCode: func() string {
		c := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return c
	}})
	ctx := context.Background()

	first, err := h.e.CreateGame(ctx, "a", "a")
	require.NoError(t, err)
	second, err := h.e.CreateGame(ctx, "b", "b")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.RoomID)
	assert.Equal(t, "BBBBBB", second.RoomID)

	_, err = h.e.CreateGame(ctx, "c", "c")
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestJoinGame(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	roomID, _ := h.lobby(t, 2)

	g, err := h.e.JoinGame(ctx, roomID, playerID(2), "again")
	require.NoError(t, err)
	assert.Len(t, g.Players, 2, "joining twice is a no-op")

	_, err = h.e.JoinGame(ctx, "NOPE00", "x", "x")
	assert.True(t, apperr.HasCode(err, apperr.CodeGameNotFound))
}

func TestJoinGameFullRoom(t *testing.T) {
	h := newHarness(t, Options{})
	roomID, _ := h.lobby(t, models.MaxPlayers)

	_, err := h.e.JoinGame(context.Background(), roomID, "late", "late")
	assert.True(t, apperr.HasCode(err, apperr.CodeRoomFull))
}

func TestJoinGameAfterStart(t *testing.T) {
	h := newHarness(t, Options{})
	roomID, ids := h.lobby(t, 4)
	_, err := h.e.StartGame(context.Background(), roomID, ids[0])
	require.NoError(t, err)

	_, err = h.e.JoinGame(context.Background(), roomID, "late", "late")
	assert.True(t, apperr.HasCode(err, apperr.CodeWrongPhase))
}

func TestReadyEmitsAllPlayersReady(t *testing.T) {
	h := newHarness(t, Options{})
	roomID, ids := h.lobby(t, 4)
	assert.Equal(t, 1, h.notifier.count(roomID, models.EventAllPlayersReady))

	ctx := context.Background()
	g, err := h.e.Ready(ctx, roomID, ids[1], true)
	require.NoError(t, err)
	assert.True(t, g.Player(ids[1]).IsReady, "repeating ready keeps the flag set")
	assert.Equal(t, 1, h.notifier.count(roomID, models.EventAllPlayersReady))

	// Going unready and back fires once more.
	g, err = h.e.Ready(ctx, roomID, ids[1], false)
	require.NoError(t, err)
	assert.False(t, g.Player(ids[1]).IsReady)
	_, err = h.e.Ready(ctx, roomID, ids[1], true)
	require.NoError(t, err)
	assert.Equal(t, 2, h.notifier.count(roomID, models.EventAllPlayersReady))
}

func TestLeavingUnreadyPlayerEmitsAllPlayersReady(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	roomID, ids := h.lobby(t, 4)
	assert.Equal(t, 1, h.notifier.count(roomID, models.EventAllPlayersReady))

	_, err := h.e.JoinGame(ctx, roomID, playerID(5), "player 5")
	require.NoError(t, err)
	_, err = h.e.LeaveGame(ctx, roomID, playerID(5))
	require.NoError(t, err)
	assert.Equal(t, 2, h.notifier.count(roomID, models.EventAllPlayersReady))

	// A ready player leaving below the minimum does not signal.
	_, err = h.e.LeaveGame(ctx, roomID, ids[3])
	require.NoError(t, err)
	assert.Equal(t, 2, h.notifier.count(roomID, models.EventAllPlayersReady))
}

func TestStartGame(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	roomID, ids := h.lobby(t, 4)

	g, err := h.e.StartGame(ctx, roomID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.PhaseRoleSelection, g.Phase)
	assert.Len(t, g.Deck, 80)
	assert.Len(t, g.RoleDeck, models.RoleCount)
	assert.Equal(t, 80, g.CardCount())
}

func TestStartGamePreconditions(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	roomID, ids := h.lobby(t, 3)
	_, err := h.e.StartGame(ctx, roomID, ids[0])
	assert.True(t, apperr.HasCode(err, apperr.CodeNotEnoughPlayers))

	roomID, ids = h.lobby(t, 4)
	_, err = h.e.StartGame(ctx, roomID, ids[1])
	assert.True(t, apperr.HasCode(err, apperr.CodeNotOwner))

	_, err = h.e.Ready(ctx, roomID, ids[2], false)
	require.NoError(t, err)
	_, err = h.e.StartGame(ctx, roomID, ids[0])
	assert.True(t, apperr.HasCode(err, apperr.CodePlayerNotReady))

	_, err = h.e.StartGame(ctx, roomID, "stranger")
	assert.True(t, apperr.HasCode(err, apperr.CodePlayerNotFound))

	g := h.get(t, roomID)
	assert.Equal(t, models.PhaseWaiting, g.Phase)
	assert.Nil(t, g.Deck)
}

func TestLeaveGameWhileWaiting(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	roomID, ids := h.lobby(t, 3)

	g, err := h.e.LeaveGame(ctx, roomID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[1], g.OwnerID)
	assert.Len(t, g.Players, 2)
	assert.False(t, g.Player(ids[1]).IsReady)

	_, err = h.e.LeaveGame(ctx, roomID, ids[1])
	require.NoError(t, err)
	_, err = h.e.LeaveGame(ctx, roomID, ids[2])
	require.NoError(t, err)

	_, err = h.store.Get(ctx, roomID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, h.notifier.count(roomID, models.EventGameEnded))
}

func TestLeaveGameAbandonsStartedRoom(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	roomID, ids := h.drafted(t, 4)

	_, err := h.e.LeaveGame(ctx, roomID, ids[2])
	require.NoError(t, err)

	_, err = h.store.Get(ctx, roomID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, h.notifier.count(roomID, models.EventGameEnded))

	_, err = h.e.PassTurn(ctx, roomID, ids[0])
	assert.True(t, apperr.HasCode(err, apperr.CodeGameNotFound))
}

func TestGameState(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	roomID, ids := h.lobby(t, 4)

	g, err := h.e.GameState(ctx, roomID, ids[3])
	require.NoError(t, err)
	assert.Equal(t, roomID, g.RoomID)

	_, err = h.e.GameState(ctx, roomID, "stranger")
	assert.True(t, apperr.HasCode(err, apperr.CodePlayerNotFound))

	_, err = h.e.GameState(ctx, "NOPE00", ids[0])
	assert.True(t, apperr.HasCode(err, apperr.CodeGameNotFound))
}

func TestListGames(t *testing.T) {
	h := newHarness(t, Options{})
	h.lobby(t, 1)
	h.lobby(t, 2)

	games, err := h.e.ListGames(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 2)
}
