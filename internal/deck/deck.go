// Package deck builds, shuffles and deals the 80-card deck.
package deck

import (
	"errors"
	"math/rand"

	"github.com/mossy-p/dalmuti/internal/models"
)

// Size is the number of cards in a full deck.
const Size = models.MaxRank*(models.MaxRank+1)/2 + JokerCount

// JokerCount is the number of jokers in a full deck.
const JokerCount = 2

var (
	ErrNoPlayers = errors.New("player count must be positive")
	ErrEmptyDeck = errors.New("deck is empty")
)

// New returns the ordered deck: n copies of rank n for n in 1..12 plus two jokers.
func New() []models.Card {
	cards := make([]models.Card, 0, Size)
	for n := 1; n <= models.MaxRank; n++ {
		for i := 0; i < n; i++ {
			cards = append(cards, models.NewCard(n))
		}
	}
	for i := 0; i < JokerCount; i++ {
		cards = append(cards, models.Joker())
	}
	return cards
}

// Shuffle permutes cards in place.
func Shuffle(rng *rand.Rand, cards []models.Card) {
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

// Distribute splits cards into playerCount sorted bundles. The remainder is
// handed out one card at a time to the first bundles in encounter order.
func Distribute(cards []models.Card, playerCount int) ([][]models.Card, error) {
	if playerCount <= 0 {
		return nil, ErrNoPlayers
	}
	if len(cards) == 0 {
		return nil, ErrEmptyDeck
	}

	per := len(cards) / playerCount
	remainder := len(cards) % playerCount

	bundles := make([][]models.Card, playerCount)
	idx := 0
	for i := range bundles {
		bundles[i] = models.CloneCards(cards[idx : idx+per])
		idx += per
	}
	for i := 0; i < remainder; i++ {
		bundles[i] = append(bundles[i], cards[idx])
		idx++
	}
	for _, b := range bundles {
		models.SortCards(b)
	}
	return bundles, nil
}

// Roles returns the role numbers 1..13 in shuffled order.
func Roles(rng *rand.Rand) []models.RoleCard {
	roles := make([]models.RoleCard, models.RoleCount)
	for i := range roles {
		roles[i] = models.RoleCard{Number: i + 1}
	}
	rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	return roles
}
