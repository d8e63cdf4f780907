package ws

import (
	"chatpat/internal/auth"
	"chatpat/internal/logger"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 16
)

// TypeTyping is the only frame type the hub relays
const TypeTyping = "typing"

// Event is a typing notification frame
type Event struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

type outbound struct {
	from *client
	data []byte
}

// Hub relays typing notifications between connected clients. The client set
// is owned by the Run goroutine.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan outbound
	done       chan struct{}
	clients    map[*client]struct{}
	count      atomic.Int64
}

// NewHub creates a hub accepting upgrades from the given origins ("*" allows any)
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan outbound, 64),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			logger.Log.Info("WebSocket hub stopped")
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			logger.Log.WithField("user_id", c.userID).Debug("WebSocket client connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				logger.Log.WithField("user_id", c.userID).Debug("WebSocket client disconnected")
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				if c == msg.from {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					logger.Log.WithField("user_id", c.userID).Warn("WebSocket send buffer full, dropping event")
				}
			}
		}
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// ServeWS upgrades the request and registers the connection with the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied with an HTTP error
		logger.FromContext(r.Context()).WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: auth.UserIDFromContext(r.Context()),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) remove(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) publish(from *client, data []byte) {
	select {
	case h.broadcast <- outbound{from: from, data: data}:
	case <-h.done:
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}
		return false
	}
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func (c *client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.WithError(err).WithField("user_id", c.userID).Debug("WebSocket read failed")
			}
			return
		}
		c.handle(data)
	}
}

func (c *client) handle(data []byte) {
	log := logger.Log.WithField("user_id", c.userID)

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		log.WithError(err).Debug("Ignoring malformed WebSocket frame")
		return
	}
	if event.Type != TypeTyping {
		log.WithFields(logrus.Fields{"type": event.Type}).Debug("Ignoring unknown WebSocket frame")
		return
	}

	out, err := json.Marshal(Event{
		Type:           TypeTyping,
		ConversationID: event.ConversationID,
		IsTyping:       event.IsTyping,
	})
	if err != nil {
		log.WithError(err).Error("Failed to encode typing event")
		return
	}
	c.hub.publish(c, out)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
