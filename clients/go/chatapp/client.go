// Package chatapp is a minimal Go client for the chat relay: it dials the
// websocket endpoint, registers a user and exchanges the same envelopes the
// browser client uses. Useful for bots and smoke tests.
package chatapp

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned after Close has been called.
var ErrClosed = errors.New("chatapp: client closed")

// Event is one push received from the server. Type is the discriminator;
// Raw holds the full frame for payloads the client wants to decode itself.
type Event struct {
	Type string `json:"type"`
	Raw  json.RawMessage
}

// Client is a connected relay client.
type Client struct {
	userID string

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool

	events chan Event
}

// Dial connects to wsURL (e.g. "ws://localhost:5000/ws") and registers userID.
// Incoming pushes are delivered on Events until the connection drops.
func Dial(wsURL, userID string) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		userID: userID,
		ws:     ws,
		events: make(chan Event, 64),
	}

	if err := c.send(map[string]string{"type": "register", "userId": userID}); err != nil {
		ws.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

// Events returns the channel server pushes are delivered on. It is closed
// when the connection drops.
func (c *Client) Events() <-chan Event {
	return c.events
}

// SendMessage sends a chat message envelope. The server assigns the id and
// echoes the stored record back on Events.
func (c *Client) SendMessage(chatID, text, msgType string) error {
	if msgType == "" {
		msgType = "text"
	}
	return c.send(map[string]interface{}{
		"chatId":    chatID,
		"sender":    c.userID,
		"text":      text,
		"timestamp": time.Now().UnixMilli(),
		"type":      msgType,
	})
}

// SendTyping notifies other participants that the user is typing.
func (c *Client) SendTyping(chatID string) error {
	return c.send(map[string]string{
		"type":   "typing",
		"chatId": chatID,
		"user":   c.userID,
	})
}

// StartCall asks the server to ring targetUserID. callType is "audio" or
// "video". The answer comes back as call_accepted or call_rejected.
func (c *Client) StartCall(targetUserID, callerName, callType string) error {
	return c.send(map[string]string{
		"type":         "call_initiate",
		"callerId":     c.userID,
		"callerName":   callerName,
		"callType":     callType,
		"targetUserId": targetUserID,
	})
}

// SendSignal forwards a raw signaling payload (call_accepted, call_rejected,
// offer, answer, ice-candidate) to targetUserID. Extra fields in payload are
// relayed verbatim.
func (c *Client) SendSignal(signalType, targetUserID string, payload map[string]interface{}) error {
	frame := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		frame[k] = v
	}
	frame["type"] = signalType
	frame["targetUserId"] = targetUserID
	return c.send(frame)
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.ws.Close()
}

func (c *Client) send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		ev.Raw = json.RawMessage(data)
		select {
		case c.events <- ev:
		default:
			// Slow consumer: drop rather than stall the read loop.
		}
	}
}
