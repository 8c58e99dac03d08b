package models

import "sort"

const (
	// MaxRank is the weakest non-joker rank.
	MaxRank = 12
	// JokerRank is the fixed rank of a joker card.
	JokerRank = 13
)

// Card is an immutable playing card. Lower rank is stronger.
type Card struct {
	Rank    int  `json:"rank"`
	IsJoker bool `json:"isJoker"`
}

// NewCard returns a non-joker card of the given rank.
func NewCard(rank int) Card {
	return Card{Rank: rank}
}

// Joker returns a joker card.
func Joker() Card {
	return Card{Rank: JokerRank, IsJoker: true}
}

// IsStrongerThan reports whether c outranks o.
func (c Card) IsStrongerThan(o Card) bool {
	return c.Rank < o.Rank
}

// Valid reports whether the card is a legal member of the deck.
func (c Card) Valid() bool {
	if c.IsJoker {
		return c.Rank == JokerRank
	}
	return c.Rank >= 1 && c.Rank <= MaxRank
}

// SortCards orders cards ascending by rank with jokers last.
func SortCards(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].IsJoker != cards[j].IsJoker {
			return !cards[i].IsJoker
		}
		return cards[i].Rank < cards[j].Rank
	})
}

// CountJokers returns how many jokers are in cards.
func CountJokers(cards []Card) int {
	n := 0
	for _, c := range cards {
		if c.IsJoker {
			n++
		}
	}
	return n
}

// SetRank is the rank a same-rank set plays at: the rank of its non-joker
// cards, or JokerRank when it is all jokers.
func SetRank(cards []Card) int {
	for _, c := range cards {
		if !c.IsJoker {
			return c.Rank
		}
	}
	return JokerRank
}

// CloneCards returns a copy of cards that shares no backing array.
func CloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
