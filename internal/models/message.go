package models

// EventType is the kind of notification pushed to room subscribers.
type EventType string

const (
	EventGameUpdated     EventType = "game_updated"
	EventAllPlayersReady EventType = "all_players_ready"
	EventGameEnded       EventType = "game_ended"
	EventNextGameStarted EventType = "next_game_started"
)

// Event is produced by the engine after a successful command. Game is the
// committed state, or the final state of a room that was just deleted.
type Event struct {
	Type   EventType
	RoomID string
	Game   *Game
}

// ServerMessage is the wire form of an event for one subscriber.
type ServerMessage struct {
	Type    EventType `json:"type"`
	RoomID  string    `json:"roomId"`
	Payload any       `json:"payload,omitempty"`
}
