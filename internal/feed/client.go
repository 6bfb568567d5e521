package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks belong to the deployment's edge, not the demo feed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket consumer of the depth feed.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	subscribed map[string]struct{}

	// consecutive drops counter: when it grows too large the hub evicts us
	drops int
}

// SnapshotFunc returns the current ladder for a symbol, or an error for an
// unregistered one. The handler wires this to the market service.
type SnapshotFunc func(symbol string) (*domain.DepthSnapshot, error)

// ServeWS upgrades the request and attaches the client to one symbol's
// stream. The client is subscribed first and then sent the current
// snapshot, so nothing between the two is lost; a batch published in that
// window may arrive before the snapshot that already includes it, and
// clients reconcile by change_id.
func ServeWS(h *Hub, snapshot SnapshotFunc, symbol string, w http.ResponseWriter, r *http.Request) {
	snap, err := snapshot(symbol)
	if err != nil {
		http.Error(w, "unknown symbol", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, h.sendBuf),
		subscribed: map[string]struct{}{symbol: {}},
	}

	h.register <- client
	h.subscribe <- subscription{client: client, symbol: symbol}

	// Re-read the ladder after subscribing and queue it as the first
	// message.
	if snap, err = snapshot(symbol); err == nil {
		if data, err := json.Marshal(snap); err == nil {
			client.send <- data
		}
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains control messages and enforces the pong deadline. The feed
// is one-way; anything the client sends besides ping/pong is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			) {
				c.hub.logger.Debug("ws read error", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump serializes all writes to the connection and keeps it alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
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
