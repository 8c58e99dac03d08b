package rules

import (
	"math/rand"
	"sort"

	"github.com/mossy-p/dalmuti/internal/deck"
	"github.com/mossy-p/dalmuti/internal/models"
)

// TaxCards is how many cards change hands in a tax exchange.
const TaxCards = 2

// AssignRanksFromRoles ranks players by their drafted role, lowest role first.
func AssignRanksFromRoles(g *models.Game) {
	players := append([]*models.Player(nil), g.Players...)
	sort.SliceStable(players, func(i, j int) bool { return players[i].Role < players[j].Role })
	for i, p := range players {
		p.Rank = i + 1
	}
}

// AssignRanksFromFinishOrder ranks players by the order they went out.
// Players missing from the finish order keep their relative rank order
// behind everyone who finished.
func AssignRanksFromFinishOrder(g *models.Game) {
	next := 1
	assigned := make(map[string]bool, len(g.Players))
	for _, id := range g.FinishedPlayers {
		if p := g.Player(id); p != nil && !assigned[id] {
			p.Rank = next
			assigned[id] = true
			next++
		}
	}
	for _, p := range g.PlayersByRank() {
		if !assigned[p.ID] {
			p.Rank = next
			next++
		}
	}
}

// DealSelectableDecks shuffles a fresh deck into one bundle per player.
func DealSelectableDecks(g *models.Game, rng *rand.Rand) error {
	cards := deck.New()
	deck.Shuffle(rng, cards)
	bundles, err := deck.Distribute(cards, len(g.Players))
	if err != nil {
		return err
	}
	g.SelectableDecks = make([]models.SelectableDeck, len(bundles))
	for i, b := range bundles {
		g.SelectableDecks[i] = models.SelectableDeck{Cards: b}
	}
	g.Deck = nil
	return nil
}

// FindDoubleJoker returns the player holding exactly two jokers, or nil.
func FindDoubleJoker(g *models.Game) *models.Player {
	for _, p := range g.Players {
		if models.CountJokers(p.Hand) == deck.JokerCount {
			return p
		}
	}
	return nil
}

// PromoteToFirst moves holder to rank 1. Everyone ranked above the holder
// drops one place; everyone below keeps their rank. The ranks before the
// promotion are kept in g.OriginalRanks.
func PromoteToFirst(g *models.Game, holder *models.Player) {
	g.OriginalRanks = make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		g.OriginalRanks[p.ID] = p.Rank
	}
	from := holder.Rank
	for _, p := range g.Players {
		if p.ID != holder.ID && p.Rank < from {
			p.Rank++
		}
	}
	holder.Rank = 1
}

// AcceptRevolution applies the holder's decision to revolt. When the holder
// started the deal ranked last it is a great revolution and every rank is
// inverted from the pre-promotion order.
func AcceptRevolution(g *models.Game, holder *models.Player) models.Revolution {
	n := len(g.Players)
	original, ok := g.OriginalRanks[holder.ID]
	if !ok {
		original = holder.Rank
	}
	if original != n {
		g.Revolution = models.RevolutionOrdinary
		return g.Revolution
	}
	for _, p := range g.Players {
		r, ok := g.OriginalRanks[p.ID]
		if !ok {
			r = p.Rank
		}
		p.Rank = n + 1 - r
	}
	g.Revolution = models.RevolutionGreat
	return g.Revolution
}

// DeclineRevolution suppresses the double joker and collects tax.
func DeclineRevolution(g *models.Game, holder *models.Player) *models.TaxExchange {
	holder.HasDoubleJoker = false
	g.Revolution = models.RevolutionDeclined
	return CollectTax(g)
}

// CollectTax makes the weakest player hand their best cards to the
// strongest, who returns their weakest non-joker cards.
func CollectTax(g *models.Game) *models.TaxExchange {
	first := g.PlayerWithRank(1)
	last := g.PlayerWithRank(len(g.Players))
	if first == nil || last == nil || first.ID == last.ID {
		return nil
	}

	models.SortCards(last.Hand)
	models.SortCards(first.Hand)

	given := models.CloneCards(last.Hand[:min(TaxCards, len(last.Hand))])
	returned := weakestCards(first.Hand, TaxCards)

	last.Hand = removeCards(last.Hand, given)
	first.Hand = removeCards(first.Hand, returned)
	first.Hand = append(first.Hand, given...)
	last.Hand = append(last.Hand, returned...)
	models.SortCards(first.Hand)
	models.SortCards(last.Hand)

	g.Tax = &models.TaxExchange{
		From:     last.ID,
		To:       first.ID,
		Given:    given,
		Returned: returned,
	}
	return g.Tax
}

// weakestCards picks up to n cards from the end of a sorted hand, keeping
// jokers unless there is nothing else to give.
func weakestCards(hand []models.Card, n int) []models.Card {
	var out []models.Card
	for i := len(hand) - 1; i >= 0 && len(out) < n; i-- {
		if !hand[i].IsJoker {
			out = append(out, hand[i])
		}
	}
	for i := len(hand) - 1; i >= 0 && len(out) < n; i-- {
		if hand[i].IsJoker {
			out = append(out, hand[i])
		}
	}
	return out
}

func removeCards(hand, cards []models.Card) []models.Card {
	remaining := make(map[models.Card]int, len(cards))
	for _, c := range cards {
		remaining[c]++
	}
	out := make([]models.Card, 0, len(hand))
	for _, c := range hand {
		if remaining[c] > 0 {
			remaining[c]--
			continue
		}
		out = append(out, c)
	}
	return out
}
