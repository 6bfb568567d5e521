// Package feed distributes depth batches over websockets. The Hub is the
// asynchronous listener the publisher contract asks for: OnDepth only
// enqueues, so the match path never blocks on socket I/O. Per-client buffers
// are bounded; clients that stay full get evicted.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/metrics"
)

const (
	defaultSendBuf      = 256
	defaultPublishBuf   = 4096
	maxConsecutiveDrops = 50
)

type publishMsg struct {
	Symbol string
	Data   []byte
}

type subscription struct {
	client *Client
	symbol string
}

// Hub manages clients, their symbol subscriptions, and fan-out of depth
// batches. All state is owned by the Run loop; other goroutines talk to it
// through channels.
type Hub struct {
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	publish     chan publishMsg

	clients map[*Client]struct{}
	symbols map[string]map[*Client]struct{}

	sendBuf int
	logger  *slog.Logger
}

// NewHub creates a Hub. sendBuf is the per-client outbound buffer; values
// below 1 get the default.
func NewHub(logger *slog.Logger, sendBuf int) *Hub {
	if sendBuf < 1 {
		sendBuf = defaultSendBuf
	}
	return &Hub{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		publish:     make(chan publishMsg, defaultPublishBuf),
		clients:     make(map[*Client]struct{}),
		symbols:     make(map[string]map[*Client]struct{}),
		sendBuf:     sendBuf,
		logger:      logger,
	}
}

// OnDepth implements the depth feed listener: marshal once, enqueue for the
// hub loop. If the hub queue itself is full the batch is dropped for the ws
// edge only; ws clients resynchronize from the next periodic snapshot.
func (h *Hub) OnDepth(batch *domain.DepthBatch) {
	data, err := json.Marshal(batch)
	if err != nil {
		h.logger.Error("marshal depth batch", slog.String("error", err.Error()))
		return
	}
	select {
	case h.publish <- publishMsg{Symbol: batch.Symbol, Data: data}:
	default:
		metrics.WSDroppedTotal.Inc()
	}
}

// Run runs the hub event loop until ctx is cancelled. Call as: go hub.Run(ctx).
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub started")
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.WSClients.Set(float64(len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}

		case sub := <-h.subscribe:
			subs := h.symbols[sub.symbol]
			if subs == nil {
				subs = make(map[*Client]struct{})
				h.symbols[sub.symbol] = subs
			}
			subs[sub.client] = struct{}{}
			sub.client.subscribed[sub.symbol] = struct{}{}

		case sub := <-h.unsubscribe:
			if subs := h.symbols[sub.symbol]; subs != nil {
				delete(subs, sub.client)
				if len(subs) == 0 {
					delete(h.symbols, sub.symbol)
				}
			}
			delete(sub.client.subscribed, sub.symbol)

		case p := <-h.publish:
			for c := range h.symbols[p.Symbol] {
				select {
				case c.send <- p.Data:
					c.drops = 0
				default:
					metrics.WSDroppedTotal.Inc()
					c.drops++
					if c.drops > maxConsecutiveDrops {
						h.logger.Warn("evicting slow ws client", slog.Int("drops", c.drops))
						h.drop(c)
					}
				}
			}

		case <-ctx.Done():
			h.logger.Info("ws hub shutting down")
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

// drop removes a client from all hub state and closes it. Run-loop only.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	for sym := range c.subscribed {
		if subs := h.symbols[sym]; subs != nil {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.symbols, sym)
			}
		}
	}
	close(c.send)
	_ = c.conn.Close()
	metrics.WSClients.Set(float64(len(h.clients)))
}
