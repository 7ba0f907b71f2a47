package relay

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Sathishkumar1405/chat-app/internal/metrics"
)

const (
	maxFrameSize = 64 * 1024
	pongWait     = 60 * time.Second
	pingPeriod   = 50 * time.Second
	writeWait    = 10 * time.Second
)

// Gateway upgrades HTTP requests to websocket connections and feeds inbound
// frames to the relay.
type Gateway struct {
	relay    *Relay
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewGateway creates a websocket gateway for the given relay.
func NewGateway(relay *Relay, logger zerolog.Logger) *Gateway {
	return &Gateway{
		relay:  relay,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary origins; the socket
			// itself is unauthenticated until a register frame arrives.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles the websocket endpoint.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := newWSConn(ws)
	metrics.WSConnections.Inc()
	g.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("client connected")

	stopPing := make(chan struct{})
	go conn.keepAlive(stopPing)

	defer func() {
		close(stopPing)
		g.relay.HandleDisconnect(conn)
		conn.close()
		metrics.WSConnections.Dec()
		g.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("client disconnected")
	}()

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		g.relay.HandleFrame(r.Context(), conn, data)
	}
}

// wsConn wraps a gorilla connection with a write mutex: fan-out and keepalive
// pings write from different goroutines, and gorilla allows one writer only.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

// Send writes one text frame.
func (c *wsConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) keepAlive(stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.ws.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func (c *wsConn) close() {
	_ = c.ws.Close()
}
