package engine

import (
	"fmt"

	"github.com/google/btree"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
)

// bookEntry is what actually lives in the side trees: just enough to order
// the book and to find the owning Order in the arena. Keeping Order pointers
// out of the trees means remaining-quantity updates never touch tree nodes.
type bookEntry struct {
	Price   int64
	Seq     uint64
	OrderID string
}

// bidLess defines ordering for the bid side: price descending, then arrival
// sequence ascending. Min() returns the best bid (highest price, earliest
// arrival).
func bidLess(a, b bookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.Seq < b.Seq
}

// askLess defines ordering for the ask side: price ascending, then arrival
// sequence ascending. Min() returns the best ask (lowest price, earliest
// arrival).
func askLess(a, b bookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.Seq < b.Seq
}

// OrderBook maintains the two sides for a single symbol using B-trees,
// with all Order records owned by a single id-keyed arena. The book is not
// safe for concurrent use; the Matcher serializes access per symbol.
type OrderBook struct {
	symbol  string
	bids    *btree.BTreeG[bookEntry]
	asks    *btree.BTreeG[bookEntry]
	orders  map[string]*domain.Order // order_id → order (arena)
	entries map[string]bookEntry     // order_id → tree entry, for removal
	nextSeq uint64
}

// NewOrderBook creates an empty order book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol:  symbol,
		bids:    btree.NewG(degree, bidLess),
		asks:    btree.NewG(degree, askLess),
		orders:  make(map[string]*domain.Order),
		entries: make(map[string]bookEntry),
	}
}

// Symbol returns the symbol this book belongs to.
func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

// NextSeq assigns the next arrival sequence number. Called once per accepted
// order, including the re-add half of a replace.
func (ob *OrderBook) NextSeq() uint64 {
	ob.nextSeq++
	return ob.nextSeq
}

// Contains reports whether an order with the given id is resident.
func (ob *OrderBook) Contains(orderID string) bool {
	_, ok := ob.orders[orderID]
	return ok
}

// Order returns the resident order with the given id.
func (ob *OrderBook) Order(orderID string) (*domain.Order, bool) {
	o, ok := ob.orders[orderID]
	return o, ok
}

// Insert rests an order on its side of the book. The order must have been
// validated and must carry an assigned Seq; a duplicate id here means the
// validation path was bypassed.
func (ob *OrderBook) Insert(o *domain.Order) {
	if _, ok := ob.orders[o.OrderID]; ok {
		panic(fmt.Sprintf("orderbook %s: duplicate insert of order %s", ob.symbol, o.OrderID))
	}
	entry := bookEntry{Price: o.Price, Seq: o.Seq, OrderID: o.OrderID}
	if o.Side == domain.SideBid {
		ob.bids.ReplaceOrInsert(entry)
	} else {
		ob.asks.ReplaceOrInsert(entry)
	}
	ob.orders[o.OrderID] = o
	ob.entries[o.OrderID] = entry
}

// Remove deletes a resident order by id and returns it.
func (ob *OrderBook) Remove(orderID string) (*domain.Order, bool) {
	o, ok := ob.orders[orderID]
	if !ok {
		return nil, false
	}
	entry := ob.entries[orderID]
	if o.Side == domain.SideBid {
		ob.bids.Delete(entry)
	} else {
		ob.asks.Delete(entry)
	}
	delete(ob.orders, orderID)
	delete(ob.entries, orderID)
	return o, true
}

// BestBid returns the highest-priority bid (highest price, earliest arrival).
func (ob *OrderBook) BestBid() (*domain.Order, bool) {
	return ob.best(ob.bids)
}

// BestAsk returns the highest-priority ask (lowest price, earliest arrival).
func (ob *OrderBook) BestAsk() (*domain.Order, bool) {
	return ob.best(ob.asks)
}

func (ob *OrderBook) best(tree *btree.BTreeG[bookEntry]) (*domain.Order, bool) {
	entry, ok := tree.Min()
	if !ok {
		return nil, false
	}
	o, ok := ob.orders[entry.OrderID]
	if !ok {
		panic(fmt.Sprintf("orderbook %s: tree entry %s has no arena order", ob.symbol, entry.OrderID))
	}
	return o, true
}

// LevelAggregate sums remaining quantity and order count for one (side,
// price) level. Returns (0, 0) when the level does not exist.
func (ob *OrderBook) LevelAggregate(side domain.Side, price int64) (int64, int) {
	tree := ob.bids
	if side == domain.SideAsk {
		tree = ob.asks
	}
	var qty int64
	var count int
	// Seq zero sorts before every live entry at the same price on both sides.
	tree.AscendGreaterOrEqual(bookEntry{Price: price}, func(e bookEntry) bool {
		if e.Price != price {
			return false
		}
		qty += ob.orders[e.OrderID].RemainingQuantity
		count++
		return true
	})
	return qty, count
}

// Ladder walks one side in priority order and aggregates entries into
// price levels: bids price-descending, asks price-ascending.
func (ob *OrderBook) Ladder(side domain.Side) []domain.DepthLevel {
	tree := ob.bids
	if side == domain.SideAsk {
		tree = ob.asks
	}
	var levels []domain.DepthLevel
	tree.Ascend(func(e bookEntry) bool {
		remaining := ob.orders[e.OrderID].RemainingQuantity
		if n := len(levels); n > 0 && levels[n-1].Price == e.Price {
			levels[n-1].Quantity += remaining
			levels[n-1].OrderCount++
			return true
		}
		levels = append(levels, domain.DepthLevel{
			Side:       side,
			Price:      e.Price,
			Quantity:   remaining,
			OrderCount: 1,
		})
		return true
	})
	return levels
}

// SideCount returns the number of individual orders resting on one side.
func (ob *OrderBook) SideCount(side domain.Side) int {
	if side == domain.SideBid {
		return ob.bids.Len()
	}
	return ob.asks.Len()
}
