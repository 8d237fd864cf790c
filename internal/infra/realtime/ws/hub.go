package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rentcal/internal/app/picker"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

const EventDatesSelected = "dates_selected"

// Event is pushed to every client watching a picker session.
type Event struct {
	Type string `json:"type"`
	picker.SessionEvent
}

// Inbound is a message sent by a browser client.
type Inbound struct {
	Type  string `json:"type"`
	Date  string `json:"date,omitempty"`
	Delta int    `json:"delta,omitempty"`
}

// InboundHandler acts on client messages for a session. Its errors are sent
// back to that client only.
type InboundHandler func(ctx context.Context, sessionID string, msg Inbound) error

type client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
}

// Hub keeps the websocket clients of each picker session on this instance.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
	onInput  InboundHandler
}

// NewHub accepts browser connections from allowedOrigins, the same list the
// HTTP API hands to CORS. "*" allows any origin; an empty list allows only
// same-host pages.
func NewHub(logger *slog.Logger, onInput InboundHandler, allowedOrigins []string) *Hub {
	return &Hub{
		sessions: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger:  logger,
		onInput: onInput,
	}
}

// originChecker lets through requests without an Origin header, since only
// browsers send one and only browsers can be tricked into connecting.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// DatesSelected implements picker.Notifier.
func (h *Hub) DatesSelected(ctx context.Context, event picker.SessionEvent) error {
	data, err := json.Marshal(Event{Type: EventDatesSelected, SessionEvent: event})
	if err != nil {
		return err
	}
	h.broadcast(event.SessionID, data)
	return nil
}

// Clients counts the connections watching a session.
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// Serve upgrades the request and pumps events for sessionID until the client
// goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{sessionID: sessionID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Close disconnects every client of a session, used when the picker closes.
func (h *Hub) Close(sessionID string) {
	h.mu.Lock()
	clients := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	for c := range clients {
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[c.sessionID] == nil {
		h.sessions[c.sessionID] = make(map[*client]struct{})
	}
	h.sessions[c.sessionID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.sessions[c.sessionID]
	if !ok {
		return
	}
	if _, exists := clients[c]; exists {
		delete(clients, c)
		close(c.send)
	}
	if len(clients) == 0 {
		delete(h.sessions, c.sessionID)
	}
}

func (h *Hub) broadcast(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.sessions[sessionID] {
		select {
		case c.send <- data:
		default:
			if h.logger != nil {
				h.logger.Warn("websocket send buffer full", "session_id", sessionID)
			}
		}
	}
}

func (h *Hub) sendTo(c *client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.sessions[c.sessionID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && h.logger != nil {
				h.logger.Warn("websocket read error", "session_id", c.sessionID, "error", err)
			}
			return
		}
		if h.onInput == nil {
			continue
		}
		var msg Inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if err := h.onInput(context.Background(), c.sessionID, msg); err != nil {
			reply, _ := json.Marshal(map[string]string{"type": "error", "error": err.Error()})
			h.sendTo(c, reply)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ picker.Notifier = (*Hub)(nil)
