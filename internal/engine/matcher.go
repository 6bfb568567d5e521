// Package engine implements the per-symbol matching core: a price-time
// priority limit order book plus the command surface (submit, cancel,
// replace, reduce) that drives it and its depth feed.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/depth"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/metrics"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/store"
)

// SubmitResult reports the outcome of one incoming order: the fills it
// produced (possibly none) and its final disposition.
type SubmitResult struct {
	Order       *domain.Order
	Fills       []*domain.Fill
	Disposition domain.Disposition
}

// Matcher binds one symbol's book, depth aggregator and publisher into a
// single-writer unit. Every command runs under the symbol's mutex: matching,
// depth aggregation and listener notification all happen inside that one
// critical section, so subscribers see exactly one consistent batch per
// command and snapshot-then-subscribe cannot race a mutation.
type Matcher struct {
	mu    sync.Mutex
	book  *OrderBook
	depth *depth.Aggregator
	pub   *depth.Publisher
	fills *store.FillStore
}

// NewMatcher creates the matching unit for one symbol.
func NewMatcher(book *OrderBook, agg *depth.Aggregator, pub *depth.Publisher, fills *store.FillStore) *Matcher {
	return &Matcher{
		book:  book,
		depth: agg,
		pub:   pub,
		fills: fills,
	}
}

// Symbol returns the symbol this matcher serves.
func (m *Matcher) Symbol() string {
	return m.book.Symbol()
}

// Submit runs an incoming order through the matching engine. Validation
// happens before any mutation; an invalid order or a market order facing an
// empty opposite side leaves the book untouched. An unmatched limit
// remainder rests at its price level behind earlier arrivals; a market
// remainder is cancelled (IOC), never rested.
func (m *Matcher) Submit(o *domain.Order) (*SubmitResult, error) {
	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validate(o); err != nil {
		return nil, err
	}

	// Market orders against an empty opposite side are rejected before any
	// state changes.
	if o.Type == domain.OrderTypeMarket {
		var ok bool
		if o.Side == domain.SideBid {
			_, ok = m.book.BestAsk()
		} else {
			_, ok = m.book.BestBid()
		}
		if !ok {
			metrics.OrdersRejectedTotal.WithLabelValues("no_liquidity").Inc()
			return nil, domain.ErrNoLiquidity
		}
	}

	o.Symbol = m.book.Symbol()
	o.Seq = m.book.NextSeq()
	o.CreatedAt = time.Now()
	o.FilledQuantity = 0
	o.RemainingQuantity = o.Quantity
	o.CancelledQuantity = 0
	o.Status = domain.OrderStatusPending

	touched := make(map[depth.LevelRef]struct{})
	fills := m.match(o, touched)
	result := m.settle(o, fills, touched)

	m.commit(touched)

	metrics.OrdersSubmittedTotal.WithLabelValues(o.Symbol, string(o.Side), string(o.Type)).Inc()
	metrics.SubmitLatency.Observe(time.Since(start).Seconds())
	return result, nil
}

// Cancel removes a resting order in full, whatever its side or price.
func (m *Matcher) Cancel(orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.book.Remove(orderID)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.CancelledQuantity += o.RemainingQuantity
	o.RemainingQuantity = 0
	o.Status = domain.OrderStatusCancelled

	touched := map[depth.LevelRef]struct{}{
		{Side: o.Side, Price: o.Price}: {},
	}
	m.commit(touched)
	metrics.OrdersCancelledTotal.Inc()
	return o, nil
}

// Replace atomically cancels a resting order and re-enters it with the same
// id at the new price and quantity. The re-entry is treated as a brand new
// arrival: it gets a fresh sequence number, so it loses time priority, and
// it runs through the match loop, so a replace that crosses the spread
// trades immediately. Old removal and new entry commit as one delta batch.
func (m *Matcher) Replace(orderID string, newPrice, newQty int64) (*SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.book.Order(orderID)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if newPrice <= 0 {
		return nil, fmt.Errorf("%w: replace price must be positive, got %d", domain.ErrInvalidOrder, newPrice)
	}
	if newQty <= 0 {
		return nil, fmt.Errorf("%w: replace quantity must be positive, got %d", domain.ErrInvalidOrder, newQty)
	}

	m.book.Remove(orderID)
	old.CancelledQuantity += old.RemainingQuantity
	old.RemainingQuantity = 0
	old.Status = domain.OrderStatusCancelled

	touched := map[depth.LevelRef]struct{}{
		{Side: old.Side, Price: old.Price}: {},
	}

	o := &domain.Order{
		OrderID:           orderID,
		Symbol:            m.book.Symbol(),
		Type:              domain.OrderTypeLimit,
		Side:              old.Side,
		Price:             newPrice,
		Quantity:          newQty,
		RemainingQuantity: newQty,
		Seq:               m.book.NextSeq(),
		Status:            domain.OrderStatusPending,
		CreatedAt:         time.Now(),
	}
	fills := m.match(o, touched)
	result := m.settle(o, fills, touched)

	m.commit(touched)
	metrics.OrdersReplacedTotal.Inc()
	return result, nil
}

// Reduce lowers a resting order's remaining quantity in place, keeping its
// time priority. The new remaining must be strictly below the current one;
// reducing to zero removes the order.
func (m *Matcher) Reduce(orderID string, newRemaining int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.book.Order(orderID)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if newRemaining < 0 || newRemaining >= o.RemainingQuantity {
		return nil, fmt.Errorf("%w: new remaining %d must be in [0, %d)",
			domain.ErrInvalidQuantity, newRemaining, o.RemainingQuantity)
	}

	o.CancelledQuantity += o.RemainingQuantity - newRemaining
	o.RemainingQuantity = newRemaining
	if newRemaining == 0 {
		m.book.Remove(orderID)
		o.Status = domain.OrderStatusCancelled
	}

	touched := map[depth.LevelRef]struct{}{
		{Side: o.Side, Price: o.Price}: {},
	}
	m.commit(touched)
	return o, nil
}

// Snapshot returns the full current ladder under the command lock.
func (m *Matcher) Snapshot() *domain.DepthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth.Snapshot()
}

// Subscribe registers a listener for all subsequent delta batches.
func (m *Matcher) Subscribe(l depth.Listener) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pub.Subscribe(l)
}

// SnapshotAndSubscribe takes a snapshot and registers the listener without
// an intervening mutation: the listener misses nothing and double-counts
// nothing between the two.
func (m *Matcher) SnapshotAndSubscribe(l depth.Listener) (*domain.DepthSnapshot, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.depth.Snapshot()
	id := m.pub.Subscribe(l)
	return snap, id
}

// Unsubscribe removes a subscription by id.
func (m *Matcher) Unsubscribe(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pub.Unsubscribe(id)
}

// PublishSnapshot pushes a full-ladder snapshot batch to all subscribers.
// Used by the periodic snapshot job; no-op on an empty book.
func (m *Matcher) PublishSnapshot() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if batch := m.depth.SnapshotBatch(); batch != nil {
		m.pub.Publish(batch)
	}
}

// validate rejects malformed orders before any book mutation.
func (m *Matcher) validate(o *domain.Order) error {
	if o.OrderID == "" {
		metrics.OrdersRejectedTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: empty order id", domain.ErrInvalidOrder)
	}
	if o.Quantity <= 0 {
		metrics.OrdersRejectedTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidOrder, o.Quantity)
	}
	if o.Type == domain.OrderTypeLimit && o.Price <= 0 {
		metrics.OrdersRejectedTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: limit price must be positive, got %d", domain.ErrInvalidOrder, o.Price)
	}
	if m.book.Contains(o.OrderID) {
		metrics.OrdersRejectedTotal.WithLabelValues("duplicate_id").Inc()
		return fmt.Errorf("%w: duplicate order id %q", domain.ErrInvalidOrder, o.OrderID)
	}
	return nil
}

// match runs the price-time priority loop: while the incoming order has
// remaining quantity and the opposite best level is crossable, fill against
// the earliest arrival there at the resting order's price.
func (m *Matcher) match(o *domain.Order, touched map[depth.LevelRef]struct{}) []*domain.Fill {
	executedAt := time.Now()
	var fills []*domain.Fill

	for o.RemainingQuantity > 0 {
		var resting *domain.Order
		var found bool
		if o.Side == domain.SideBid {
			resting, found = m.book.BestAsk()
		} else {
			resting, found = m.book.BestBid()
		}
		if !found {
			break
		}

		// Price compatibility; market orders accept any price.
		if o.Type == domain.OrderTypeLimit {
			if o.Side == domain.SideBid && o.Price < resting.Price {
				break
			}
			if o.Side == domain.SideAsk && resting.Price < o.Price {
				break
			}
		}

		fillQty := o.RemainingQuantity
		if resting.RemainingQuantity < fillQty {
			fillQty = resting.RemainingQuantity
		}

		o.RemainingQuantity -= fillQty
		o.FilledQuantity += fillQty
		resting.RemainingQuantity -= fillQty
		resting.FilledQuantity += fillQty

		if o.RemainingQuantity == 0 {
			o.Status = domain.OrderStatusFilled
		} else {
			o.Status = domain.OrderStatusPartiallyFilled
		}
		if resting.RemainingQuantity == 0 {
			resting.Status = domain.OrderStatusFilled
			m.book.Remove(resting.OrderID)
		} else {
			resting.Status = domain.OrderStatusPartiallyFilled
		}

		touched[depth.LevelRef{Side: resting.Side, Price: resting.Price}] = struct{}{}

		fills = append(fills, &domain.Fill{
			FillID:       uuid.New().String(),
			Symbol:       m.book.Symbol(),
			Price:        resting.Price,
			Quantity:     fillQty,
			MakerOrderID: resting.OrderID,
			TakerOrderID: o.OrderID,
			TakerSide:    o.Side,
			ExecutedAt:   executedAt,
		})
	}
	return fills
}

// settle rests or cancels the remainder, records fills, and derives the
// disposition.
func (m *Matcher) settle(o *domain.Order, fills []*domain.Fill, touched map[depth.LevelRef]struct{}) *SubmitResult {
	var disp domain.Disposition
	switch {
	case o.RemainingQuantity == 0 && o.FilledQuantity == o.Quantity:
		disp = domain.DispositionFilled
	case o.Type == domain.OrderTypeMarket:
		// IOC: cancel the remainder, never rest.
		o.CancelledQuantity = o.RemainingQuantity
		o.RemainingQuantity = 0
		o.Status = domain.OrderStatusCancelled
		disp = domain.DispositionCancelled
	default:
		m.book.Insert(o)
		touched[depth.LevelRef{Side: o.Side, Price: o.Price}] = struct{}{}
		if o.FilledQuantity > 0 {
			disp = domain.DispositionPartiallyFilled
		} else {
			disp = domain.DispositionRested
		}
	}

	if len(fills) > 0 {
		m.fills.Append(m.book.Symbol(), fills...)
		metrics.FillsTotal.Add(float64(len(fills)))
		var qty int64
		for _, f := range fills {
			qty += f.Quantity
		}
		metrics.FilledQtyTotal.Add(float64(qty))
	}
	return &SubmitResult{Order: o, Fills: fills, Disposition: disp}
}

// commit turns the touched levels into a delta batch and pushes it to
// subscribers. Both happen inside the caller's critical section.
func (m *Matcher) commit(touched map[depth.LevelRef]struct{}) {
	batch := m.depth.Commit(m.book, touched)
	if batch == nil {
		return
	}
	for _, d := range batch.Deltas {
		metrics.DepthDeltasTotal.WithLabelValues(string(d.Action)).Inc()
	}
	metrics.DepthBatchesTotal.Inc()
	m.pub.Publish(batch)
}
