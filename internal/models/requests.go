package models

// CreateGameRequest is the request body for creating a room.
type CreateGameRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

// JoinGameRequest is the request body for joining a room.
type JoinGameRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

// ReadyRequest sets the caller's ready flag. An empty body means ready.
type ReadyRequest struct {
	Ready *bool `json:"ready"`
}

// SelectRoleRequest claims a role number during the draft.
type SelectRoleRequest struct {
	RoleNumber int `json:"roleNumber" binding:"required"`
}

// SelectDeckRequest claims a selectable bundle.
type SelectDeckRequest struct {
	DeckIndex *int `json:"deckIndex" binding:"required"`
}

// SelectRevolutionRequest is the double-joker holder's decision.
type SelectRevolutionRequest struct {
	WantRevolution *bool `json:"wantRevolution" binding:"required"`
}

// PlayCardRequest proposes a set of cards.
type PlayCardRequest struct {
	Cards []Card `json:"cards"`
}

// VoteRequest is a continue/stop vote at the end of a game.
type VoteRequest struct {
	InFavor *bool `json:"inFavor" binding:"required"`
}

// SessionResponse is returned when a player enters a room.
type SessionResponse struct {
	RoomID   string    `json:"roomId"`
	PlayerID string    `json:"playerId"`
	Token    string    `json:"token"`
	Game     *GameView `json:"game"`
}

// Response is the envelope every command responds with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}
