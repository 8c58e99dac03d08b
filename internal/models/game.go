package models

import (
	"slices"
	"sort"
	"time"
)

const (
	MinPlayers = 4
	MaxPlayers = 8
	// RoleCount is the number of role cards offered in the draft.
	RoleCount = 13
)

// Phase is the lifecycle stage of a room.
type Phase string

const (
	PhaseWaiting               Phase = "waiting"
	PhaseRoleSelection         Phase = "roleSelection"
	PhaseRoleSelectionComplete Phase = "roleSelectionComplete"
	PhaseCardSelection         Phase = "cardSelection"
	PhaseRevolution            Phase = "revolution"
	PhaseTax                   Phase = "tax"
	PhasePlaying               Phase = "playing"
	PhaseGameEnd               Phase = "gameEnd"
)

// Revolution records how the double-joker rule resolved in the current game.
type Revolution string

const (
	RevolutionNone     Revolution = ""
	RevolutionOrdinary Revolution = "ordinary"
	RevolutionGreat    Revolution = "great"
	RevolutionDeclined Revolution = "declined"
)

// RoleCard is one face-down number in the role draft.
type RoleCard struct {
	Number    int    `json:"number"`
	ClaimedBy string `json:"claimedBy,omitempty"`
}

// SelectableDeck is a bundle offered during card selection.
type SelectableDeck struct {
	Cards      []Card `json:"cards"`
	IsSelected bool   `json:"isSelected"`
	SelectedBy string `json:"selectedBy,omitempty"`
}

// LastPlay is the most recent accepted play of the round.
type LastPlay struct {
	PlayerID string `json:"playerId"`
	Cards    []Card `json:"cards"`
}

// RoundPlay is one accepted play, kept for the game record.
type RoundPlay struct {
	Round    int    `json:"round"`
	PlayerID string `json:"playerId"`
	Cards    []Card `json:"cards"`
}

// TaxExchange is the automatic trade between the strongest and weakest player.
type TaxExchange struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Given    []Card `json:"given"`
	Returned []Card `json:"returned"`
}

// GameRecord is the archived summary of one finished game.
type GameRecord struct {
	GameNumber  int              `json:"gameNumber"`
	FinishOrder []string         `json:"finishOrder"`
	Ranks       map[string]int   `json:"ranks"`
	Revolution  Revolution       `json:"revolution,omitempty"`
	Rounds      int              `json:"rounds"`
	Stats       map[string]Stats `json:"stats"`
	Plays       []RoundPlay      `json:"plays"`
	EndedAt     time.Time        `json:"endedAt"`
}

// Game is the aggregate owned by one room.
type Game struct {
	RoomID          string           `json:"roomId"`
	OwnerID         string           `json:"ownerId"`
	Players         []*Player        `json:"players"`
	Phase           Phase            `json:"phase"`
	CurrentTurn     string           `json:"currentTurn,omitempty"`
	LastPlay        *LastPlay        `json:"lastPlay,omitempty"`
	Deck            []Card           `json:"deck"`
	RoleDeck        []RoleCard       `json:"roleDeck,omitempty"`
	SelectableDecks []SelectableDeck `json:"selectableDecks,omitempty"`
	Discard         []Card           `json:"discard,omitempty"`
	Round           int              `json:"round"`
	FinishedPlayers []string         `json:"finishedPlayers"`
	Votes           map[string]bool  `json:"votes"`
	GameNumber      int              `json:"gameNumber"`
	Revolution      Revolution       `json:"revolution,omitempty"`
	OriginalRanks   map[string]int   `json:"originalRanks,omitempty"`
	Tax             *TaxExchange     `json:"tax,omitempty"`
	History         []GameRecord     `json:"history"`
	PlayerStats     map[string]Stats `json:"playerStats"`
	RoundPlays      []RoundPlay      `json:"roundPlays"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// NewGame returns a room in the waiting phase with its owner seated.
func NewGame(roomID, ownerID, nickname string, now time.Time) *Game {
	return &Game{
		RoomID:          roomID,
		OwnerID:         ownerID,
		Players:         []*Player{{ID: ownerID, Nickname: nickname}},
		Phase:           PhaseWaiting,
		FinishedPlayers: []string{},
		Votes:           map[string]bool{},
		GameNumber:      1,
		History:         []GameRecord{},
		PlayerStats:     map[string]Stats{},
		RoundPlays:      []RoundPlay{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Player returns the player with the given id, or nil.
func (g *Game) Player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// IsFinished reports whether id has emptied their hand this game.
func (g *Game) IsFinished(id string) bool {
	return slices.Contains(g.FinishedPlayers, id)
}

// IsActive reports whether p still has cards and has not finished.
func (g *Game) IsActive(p *Player) bool {
	return p != nil && len(p.Hand) > 0 && !g.IsFinished(p.ID)
}

// ActivePlayers returns the active players in rank order.
func (g *Game) ActivePlayers() []*Player {
	var out []*Player
	for _, p := range g.PlayersByRank() {
		if g.IsActive(p) {
			out = append(out, p)
		}
	}
	return out
}

// PlayersByRank returns players ordered by rank; unranked players keep
// their seating order after the ranked ones.
func (g *Game) PlayersByRank() []*Player {
	out := slices.Clone(g.Players)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Rank, out[j].Rank
		if ri == 0 || rj == 0 {
			return ri != 0 && rj == 0
		}
		return ri < rj
	})
	return out
}

// PlayerWithRank returns the player holding rank, or nil.
func (g *Game) PlayerWithRank(rank int) *Player {
	for _, p := range g.Players {
		if p.Rank == rank {
			return p
		}
	}
	return nil
}

// Clone returns a deep copy that can be mutated without touching g.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp.Players[i] = p.clone()
	}
	if g.LastPlay != nil {
		lp := LastPlay{PlayerID: g.LastPlay.PlayerID, Cards: CloneCards(g.LastPlay.Cards)}
		cp.LastPlay = &lp
	}
	cp.Deck = CloneCards(g.Deck)
	cp.RoleDeck = slices.Clone(g.RoleDeck)
	if g.SelectableDecks != nil {
		cp.SelectableDecks = make([]SelectableDeck, len(g.SelectableDecks))
		for i, d := range g.SelectableDecks {
			d.Cards = CloneCards(d.Cards)
			cp.SelectableDecks[i] = d
		}
	}
	cp.Discard = CloneCards(g.Discard)
	cp.FinishedPlayers = slices.Clone(g.FinishedPlayers)
	cp.Votes = cloneMap(g.Votes)
	cp.OriginalRanks = cloneMap(g.OriginalRanks)
	if g.Tax != nil {
		tax := *g.Tax
		tax.Given = CloneCards(g.Tax.Given)
		tax.Returned = CloneCards(g.Tax.Returned)
		cp.Tax = &tax
	}
	cp.History = slices.Clone(g.History)
	cp.PlayerStats = cloneMap(g.PlayerStats)
	cp.RoundPlays = slices.Clone(g.RoundPlays)
	return &cp
}

// CardCount returns every card the room currently accounts for: hands,
// the undealt deck, unclaimed bundles and the discard pile.
func (g *Game) CardCount() int {
	n := len(g.Deck) + len(g.Discard)
	for _, p := range g.Players {
		n += len(p.Hand)
	}
	for _, d := range g.SelectableDecks {
		if !d.IsSelected {
			n += len(d.Cards)
		}
	}
	return n
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
