package deck

import (
	"math/rand"
	"testing"

	"github.com/mossy-p/dalmuti/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countByRank(cards []models.Card) map[models.Card]int {
	out := map[models.Card]int{}
	for _, c := range cards {
		out[c]++
	}
	return out
}

func TestNewDeckComposition(t *testing.T) {
	cards := New()
	require.Len(t, cards, 80)
	assert.Equal(t, 80, Size)

	counts := countByRank(cards)
	for n := 1; n <= models.MaxRank; n++ {
		assert.Equal(t, n, counts[models.NewCard(n)], "rank %d", n)
	}
	assert.Equal(t, 2, counts[models.Joker()])
}

func TestShuffleKeepsMultiset(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cards := New()
	Shuffle(rng, cards)

	assert.Equal(t, countByRank(New()), countByRank(cards))
	assert.NotEqual(t, New(), cards)
}

func TestDistributeAllPlayerCounts(t *testing.T) {
	for n := models.MinPlayers; n <= models.MaxPlayers; n++ {
		rng := rand.New(rand.NewSource(int64(n)))
		cards := New()
		Shuffle(rng, cards)

		bundles, err := Distribute(cards, n)
		require.NoError(t, err)
		require.Len(t, bundles, n)

		var all []models.Card
		for i, b := range bundles {
			want := 80 / n
			if i < 80%n {
				want++
			}
			assert.Len(t, b, want, "players=%d bundle=%d", n, i)
			all = append(all, b...)
		}
		assert.Equal(t, countByRank(New()), countByRank(all), "players=%d", n)
	}
}

func TestDistributeRemainderAndOrder(t *testing.T) {
	cards := []models.Card{
		models.Joker(), models.NewCard(5), models.NewCard(1),
		models.NewCard(9), models.NewCard(2),
	}
	bundles, err := Distribute(cards, 2)
	require.NoError(t, err)

	// 2 each, the fifth card goes to the first bundle; each bundle is sorted.
	assert.Equal(t, []models.Card{models.NewCard(2), models.NewCard(5), models.Joker()}, bundles[0])
	assert.Equal(t, []models.Card{models.NewCard(1), models.NewCard(9)}, bundles[1])
}

func TestDistributeErrors(t *testing.T) {
	_, err := Distribute(New(), 0)
	assert.ErrorIs(t, err, ErrNoPlayers)
	_, err = Distribute(nil, 4)
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

func TestRolesAreUniqueNumbers(t *testing.T) {
	roles := Roles(rand.New(rand.NewSource(1)))
	require.Len(t, roles, models.RoleCount)
	seen := map[int]bool{}
	for _, r := range roles {
		assert.False(t, seen[r.Number])
		assert.Empty(t, r.ClaimedBy)
		seen[r.Number] = true
	}
	for n := 1; n <= models.RoleCount; n++ {
		assert.True(t, seen[n])
	}
}
