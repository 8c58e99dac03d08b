package models

import "time"

// PlayerView is a player as seen by one viewer: only the viewer's own
// hand is revealed, everyone else shows a card count.
type PlayerView struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	Hand           []Card `json:"hand,omitempty"`
	CardCount      int    `json:"cardCount"`
	Role           int    `json:"role,omitempty"`
	Rank           int    `json:"rank,omitempty"`
	IsPassed       bool   `json:"isPassed"`
	IsReady        bool   `json:"isReady"`
	HasDoubleJoker bool   `json:"hasDoubleJoker"`
}

// DeckView is a selectable bundle with its contents hidden.
type DeckView struct {
	CardCount  int    `json:"cardCount"`
	IsSelected bool   `json:"isSelected"`
	SelectedBy string `json:"selectedBy,omitempty"`
}

// GameView is the redacted game state sent to one player.
type GameView struct {
	RoomID          string           `json:"roomId"`
	OwnerID         string           `json:"ownerId"`
	Players         []PlayerView     `json:"players"`
	Phase           Phase            `json:"phase"`
	CurrentTurn     string           `json:"currentTurn,omitempty"`
	LastPlay        *LastPlay        `json:"lastPlay,omitempty"`
	DeckSize        int              `json:"deckSize"`
	RoleDeck        []RoleCard       `json:"roleDeck,omitempty"`
	SelectableDecks []DeckView       `json:"selectableDecks,omitempty"`
	Round           int              `json:"round"`
	FinishedPlayers []string         `json:"finishedPlayers"`
	Votes           map[string]bool  `json:"votes"`
	GameNumber      int              `json:"gameNumber"`
	Revolution      Revolution       `json:"revolution,omitempty"`
	Tax             *TaxExchange     `json:"tax,omitempty"`
	History         []GameRecord     `json:"history"`
	PlayerStats     map[string]Stats `json:"playerStats"`
}

// ViewFor builds the state visible to viewerID.
func (g *Game) ViewFor(viewerID string) *GameView {
	v := &GameView{
		RoomID:          g.RoomID,
		OwnerID:         g.OwnerID,
		Phase:           g.Phase,
		CurrentTurn:     g.CurrentTurn,
		LastPlay:        g.LastPlay,
		DeckSize:        len(g.Deck),
		Round:           g.Round,
		FinishedPlayers: g.FinishedPlayers,
		Votes:           g.Votes,
		GameNumber:      g.GameNumber,
		Revolution:      g.Revolution,
		Tax:             g.Tax,
		History:         g.History,
		PlayerStats:     g.PlayerStats,
	}
	// The draft is an open pick by number: every role card is visible
	// along with who claimed it.
	v.RoleDeck = append(v.RoleDeck, g.RoleDeck...)
	for _, d := range g.SelectableDecks {
		v.SelectableDecks = append(v.SelectableDecks, DeckView{
			CardCount:  len(d.Cards),
			IsSelected: d.IsSelected,
			SelectedBy: d.SelectedBy,
		})
	}
	for _, p := range g.Players {
		pv := PlayerView{
			ID:             p.ID,
			Nickname:       p.Nickname,
			CardCount:      len(p.Hand),
			Role:           p.Role,
			Rank:           p.Rank,
			IsPassed:       p.IsPassed,
			IsReady:        p.IsReady,
			HasDoubleJoker: p.HasDoubleJoker,
		}
		if p.ID == viewerID {
			pv.Hand = p.Hand
		}
		v.Players = append(v.Players, pv)
	}
	return v
}

// RoomSummary is a lobby listing entry.
type RoomSummary struct {
	RoomID        string    `json:"roomId"`
	OwnerNickname string    `json:"ownerNickname"`
	PlayerCount   int       `json:"playerCount"`
	Phase         Phase     `json:"phase"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Summary returns g as a lobby listing entry.
func (g *Game) Summary() RoomSummary {
	rs := RoomSummary{
		RoomID:      g.RoomID,
		PlayerCount: len(g.Players),
		Phase:       g.Phase,
		CreatedAt:   g.CreatedAt,
	}
	if owner := g.Player(g.OwnerID); owner != nil {
		rs.OwnerNickname = owner.Nickname
	}
	return rs
}

// ServerStats is the activity summary served at /api/stats.
type ServerStats struct {
	Rooms        int       `json:"rooms"`
	OpenRooms    int       `json:"openRooms"`
	GamesEnded   int       `json:"gamesEnded"`
	Since        time.Time `json:"since"`
	ArchiveReady bool      `json:"archiveReady"`
}
