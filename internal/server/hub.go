package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/dmitrijs2005/filedeck/internal/notify"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

// Event is one message pushed to websocket clients.
type Event struct {
	Type         string               `json:"type"`
	State        *files.State         `json:"state,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

const (
	EventState        = "state"
	EventNotification = "notification"
)

type client struct {
	sid  string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans file state snapshots out to every connected websocket and
// notifications out to the connections of one session. Hub itself is a
// notify.Notifier that reaches every connection.
type Hub struct {
	logger   logging.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    *files.State
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "hub"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// PublishState sends a snapshot to every client and remembers it for
// clients that connect later.
func (h *Hub) PublishState(s files.State) {
	h.mu.Lock()
	h.last = &s
	h.mu.Unlock()
	h.broadcast(Event{Type: EventState, State: &s}, func(*client) bool { return true })
}

// Notify implements notify.Notifier for every connected client.
func (h *Hub) Notify(_ context.Context, n notify.Notification) {
	h.broadcast(Event{Type: EventNotification, Notification: &n}, func(*client) bool { return true })
}

// Session returns a notifier that only reaches the connections of sid.
func (h *Hub) Session(sid string) notify.Notifier {
	return notify.Func(func(_ context.Context, n notify.Notification) {
		h.broadcast(Event{Type: EventNotification, Notification: &n}, func(c *client) bool { return c.sid == sid })
	})
}

// Clients reports how many connections are open.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(e Event, match func(*client) bool) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.logger.Error(context.Background(), "marshal event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.logger.Warn(context.Background(), "dropping event for slow client", "sid", c.sid, "type", e.Type)
		}
	}
}

// Serve upgrades the request and pumps events until the peer goes away
// or ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, sid string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(ctx, "websocket upgrade failed", "error", err)
		return
	}

	c := &client{sid: sid, conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	last := h.last
	h.mu.Unlock()

	if last != nil {
		if msg, err := json.Marshal(Event{Type: EventState, State: last}); err == nil {
			c.send <- msg
		}
	}

	h.logger.Debug(ctx, "websocket connected", "sid", sid)

	done := make(chan struct{})
	go h.readPump(c, done)
	h.writePump(ctx, c, done)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = conn.Close()

	h.logger.Debug(ctx, "websocket disconnected", "sid", sid)
}

// readPump discards client messages and closes done when the peer leaves.
func (h *Hub) readPump(c *client, done chan<- struct{}) {
	defer close(done)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case <-done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
