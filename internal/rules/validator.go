package rules

import (
	"sort"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
)

// ValidatePlay checks a proposed play against the hand and the last play.
// On success it returns the ascending hand indices to remove.
func ValidatePlay(hand, proposed []models.Card, last *models.LastPlay) ([]int, error) {
	if len(proposed) == 0 {
		return nil, apperr.New(apperr.CodeCardsEmpty, "no cards proposed")
	}

	used := make([]bool, len(hand))
	indices := make([]int, 0, len(proposed))
	for _, c := range proposed {
		found := -1
		for i, h := range hand {
			if !used[i] && h == c {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, apperr.New(apperr.CodeCardsNotInHand, "cards not in hand")
		}
		used[found] = true
		indices = append(indices, found)
	}

	rank := 0
	for _, c := range proposed {
		if c.IsJoker {
			continue
		}
		if rank == 0 {
			rank = c.Rank
		} else if c.Rank != rank {
			return nil, apperr.New(apperr.CodeCardsNotSameRank, "cards not same rank")
		}
	}

	if last != nil {
		if len(proposed) != len(last.Cards) {
			return nil, apperr.New(apperr.CodeCardCountMismatch, "card count must match last play")
		}
		if rank != 0 && rank >= models.SetRank(last.Cards) {
			return nil, apperr.New(apperr.CodeCardsTooWeak, "cards too weak to beat last play")
		}
	}

	sort.Ints(indices)
	return indices, nil
}

// RemoveIndices returns hand without the given ascending indices.
func RemoveIndices(hand []models.Card, indices []int) []models.Card {
	out := make([]models.Card, 0, len(hand)-len(indices))
	j := 0
	for i, c := range hand {
		if j < len(indices) && indices[j] == i {
			j++
			continue
		}
		out = append(out, c)
	}
	return out
}
