// Package spectate streams a running game to browsers.
//
// Hub is a game.Notifier: every board update becomes a JSON snapshot that
// is kept for new viewers and broadcast to connected websockets. Viewers
// only watch; nothing they send reaches the game.
package spectate

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/brensch/ttfe/game"
	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// State is the snapshot sent to viewers.
type State struct {
	Cells       [][]int `json:"cells"`
	Score       int     `json:"score"`
	Moves       int     `json:"moves"`
	HighestTile int     `json:"highest_tile"`
	Message     string  `json:"message,omitempty"`
	Over        bool    `json:"over"`
	Hints       []Hint  `json:"hints,omitempty"`
	UpdatedAt   int64   `json:"updated_at_ms"`
}

// Hint is a candidate move with its search score. Illegal moves are left out.
type Hint struct {
	Direction string  `json:"direction"`
	Score     float64 `json:"score"`
}

// HintFunc scores the moves available from cells (rows, cells[y][x]). It
// gets a copy so it never draws from the live game's random source.
type HintFunc func(cells [][]int) []Hint

type HubOption func(*Hub)

// WithHints attaches move scores to every mid-game snapshot.
func WithHints(fn HintFunc) HubOption {
	return func(h *Hub) { h.hints = fn }
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	mu        sync.Mutex
	clients   map[*client]struct{}
	closed    bool
	broadcast chan State

	stateMu sync.RWMutex
	state   State

	hints HintFunc
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:   make(map[*client]struct{}),
		broadcast: make(chan State, 64),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			h.closeAll()
			return
		case st := <-h.broadcast:
			msg := wsMessage{Type: "state", Payload: mustMarshal(st)}
			h.mu.Lock()
			for c := range h.clients {
				c.sendJSON(msg)
			}
			h.mu.Unlock()
		}
	}
}

// Publish records st as the latest state and queues it for broadcast.
// When the queue is full viewers miss the update but still see the next.
func (h *Hub) Publish(st State) {
	h.stateMu.Lock()
	h.state = st
	h.stateMu.Unlock()

	select {
	case h.broadcast <- st:
	default:
	}
}

func (h *Hub) Latest() State {
	h.stateMu.RLock()
	defer h.stateMu.RUnlock()
	return h.state
}

func (h *Hub) Register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.send)
		return
	}
	h.clients[c] = struct{}{}
}

func (h *Hub) Unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// closeAll drops every viewer. Closing send makes the writer say goodbye
// and the closed socket ends the reader.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (c *client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func snapshot(b *game.Board) State {
	return State{
		Cells:       b.Rows(),
		Score:       b.Score(),
		Moves:       b.MovesPerformed(),
		HighestTile: b.HighestTile(),
		UpdatedAt:   time.Now().UnixMilli(),
	}
}

func (h *Hub) UpdateScreen(b *game.Board) {
	st := snapshot(b)
	st.Message = h.Latest().Message
	if h.hints != nil {
		st.Hints = h.hints(b.Rows())
	}
	h.Publish(st)
}

func (h *Hub) ShowMessage(text string) {
	st := h.Latest()
	st.Message = text
	st.UpdatedAt = time.Now().UnixMilli()
	h.Publish(st)
}

func (h *Hub) ShowGameOverScreen(b *game.Board) {
	st := snapshot(b)
	st.Message = h.Latest().Message
	st.Over = true
	h.Publish(st)
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
