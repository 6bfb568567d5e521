package depth

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
)

// Listener receives every batch published after its subscription, in order.
// Delivery is synchronous with the triggering book command: a listener that
// blocks stalls that symbol's command stream, so listeners doing slow I/O
// must hand off to their own delivery mechanism (see internal/feed).
type Listener interface {
	OnDepth(batch *domain.DepthBatch)
}

type subscriber struct {
	id       string
	listener Listener
}

// Publisher fans delta batches out to subscribers in registration order.
// Per subscriber the stream is FIFO with no drops and no reordering.
type Publisher struct {
	mu   sync.RWMutex
	subs []subscriber
}

// NewPublisher creates a publisher with no subscribers.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe registers a listener and returns its subscription id.
// To take a snapshot and subscribe without losing a batch in between, go
// through the Matcher, which runs both under the symbol's command lock.
func (p *Publisher) Subscribe(l Listener) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := uuid.New().String()
	p.subs = append(p.subs, subscriber{id: id, listener: l})
	return id
}

// Unsubscribe removes a subscription. Returns false if the id is unknown.
func (p *Publisher) Unsubscribe(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.subs {
		if s.id == id {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers the batch to every subscriber before returning.
func (p *Publisher) Publish(batch *domain.DepthBatch) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.subs {
		s.listener.OnDepth(batch)
	}
}

// Len returns the current subscriber count.
func (p *Publisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}
