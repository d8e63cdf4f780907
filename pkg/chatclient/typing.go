package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// TypingEvent is a typing notification relayed from another client
type TypingEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// TypingConn is an open typing notification socket
type TypingConn struct {
	conn   *websocket.Conn
	events chan TypingEvent

	writeMu sync.Mutex
}

// DialTyping opens the typing notification socket with the current token
func (c *Client) DialTyping(ctx context.Context) (*TypingConn, error) {
	wsURL := c.baseURL + "/ws"
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, decodeError(resp)
		}
		return nil, fmt.Errorf("error dialing typing socket: %w", err)
	}

	tc := &TypingConn{conn: conn, events: make(chan TypingEvent, 16)}
	go tc.readLoop()
	return tc, nil
}

// SendTyping tells other clients whether the user is typing in a conversation
func (tc *TypingConn) SendTyping(conversationID string, isTyping bool) error {
	tc.writeMu.Lock()
	defer tc.writeMu.Unlock()
	return tc.conn.WriteJSON(TypingEvent{Type: "typing", ConversationID: conversationID, IsTyping: isTyping})
}

// Events yields typing notifications until the socket closes
func (tc *TypingConn) Events() <-chan TypingEvent {
	return tc.events
}

func (tc *TypingConn) Close() error {
	return tc.conn.Close()
}

func (tc *TypingConn) readLoop() {
	defer close(tc.events)
	for {
		_, data, err := tc.conn.ReadMessage()
		if err != nil {
			return
		}
		var event TypingEvent
		if err := json.Unmarshal(data, &event); err != nil || event.Type != "typing" {
			continue
		}
		// drop when the consumer falls behind
		select {
		case tc.events <- event:
		default:
		}
	}
}
