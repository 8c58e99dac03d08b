package models

// Player is a participant in a room. Role and Rank are zero until assigned.
type Player struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	Hand           []Card `json:"hand"`
	Role           int    `json:"role,omitempty"`
	Rank           int    `json:"rank,omitempty"`
	IsPassed       bool   `json:"isPassed"`
	IsReady        bool   `json:"isReady"`
	HasDoubleJoker bool   `json:"hasDoubleJoker"`
}

// Stats are the per-player counters for one game.
type Stats struct {
	Plays          int `json:"plays"`
	Passes         int `json:"passes"`
	CardsPlayed    int `json:"cardsPlayed"`
	FinishRound    int `json:"finishRound,omitempty"`
	FinishPosition int `json:"finishPosition,omitempty"`
}

func (p *Player) clone() *Player {
	cp := *p
	cp.Hand = CloneCards(p.Hand)
	return &cp
}
