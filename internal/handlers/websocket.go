package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mossy-p/dalmuti/internal/models"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// Hub fans engine events out to the players subscribed to each room. It
// implements engine.Notifier.
type Hub struct {
	logger *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// Client is one subscribed WebSocket connection.
type Client struct {
	PlayerID string
	RoomID   string
	conn     *websocket.Conn
	send     chan []byte

	mu     sync.Mutex
	closed bool
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger, rooms: make(map[string]map[*Client]struct{})}
}

// Publish sends ev to every subscriber of its room, each with their own
// view of the game. It never blocks: a client whose buffer is full is
// disconnected.
func (h *Hub) Publish(ev models.Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[ev.RoomID]))
	for c := range h.rooms[ev.RoomID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		msg := models.ServerMessage{Type: ev.Type, RoomID: ev.RoomID}
		if ev.Game != nil {
			msg.Payload = ev.Game.ViewFor(c.PlayerID)
		}
		data, err := json.Marshal(msg)
		if err != nil {
			h.logger.Error("failed to marshal event", zap.String("room_id", ev.RoomID), zap.Error(err))
			continue
		}
		if !c.trySend(data) {
			h.logger.Warn("dropping unresponsive client",
				zap.String("room_id", c.RoomID),
				zap.String("player_id", c.PlayerID))
			h.unregister(c)
		}
	}
}

// RoomSize returns the number of subscribers in roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, clients := range rooms {
		for c := range clients {
			c.close()
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[c.RoomID]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[c.RoomID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.rooms[c.RoomID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, c.RoomID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// trySend queues data without blocking. It reports false once the client
// is closed or its buffer is full.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Subscribe upgrades the request to a WebSocket that receives the caller's
// view of every change to the room.
func (h *Games) Subscribe(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, roomID, ok := member(c)
		if !ok {
			return
		}

		if _, err := h.engine.GameState(c.Request.Context(), roomID, id); err != nil {
			respondError(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Warn("failed to upgrade connection", zap.String("room_id", roomID), zap.Error(err))
			return
		}

		client := &Client{
			PlayerID: id,
			RoomID:   roomID,
			conn:     conn,
			send:     make(chan []byte, sendBuffer),
		}

		// Register and snapshot on the room's worker so no event slips in
		// between.
		_, err = h.engine.Observe(c.Request.Context(), roomID, id, func(g *models.Game) {
			hub.register(client)
			snapshot, err := json.Marshal(models.ServerMessage{
				Type:    models.EventGameUpdated,
				RoomID:  roomID,
				Payload: g.ViewFor(id),
			})
			if err == nil {
				client.trySend(snapshot)
			}
		})
		if err != nil {
			h.logger.Warn("room closed before subscribing", zap.String("room_id", roomID), zap.Error(err))
			hub.unregister(client)
			conn.Close()
			return
		}
		h.logger.Info("player subscribed", zap.String("room_id", roomID), zap.String("player_id", id))

		go client.writePump()
		go client.readPump(hub, h.logger)
	}
}

// readPump only watches for disconnects; commands arrive over HTTP.
func (c *Client) readPump(hub *Hub, logger *zap.Logger) {
	defer func() {
		hub.unregister(c)
		c.conn.Close()
		logger.Info("player unsubscribed", zap.String("room_id", c.RoomID), zap.String("player_id", c.PlayerID))
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error", zap.String("room_id", c.RoomID), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
