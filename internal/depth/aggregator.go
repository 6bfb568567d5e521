// Package depth turns raw order book mutations into an aggregated,
// anonymous market-depth feed: per-level deltas after every command and
// full-ladder snapshots on demand.
package depth

import (
	"fmt"
	"sort"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
)

// LevelRef identifies one price level on one side of a book.
type LevelRef struct {
	Side  domain.Side
	Price int64
}

// BookReader is the view of the book the aggregator reads while committing
// a command. Reads happen synchronously inside the command's critical
// section, so they always observe the post-mutation state.
type BookReader interface {
	LevelAggregate(side domain.Side, price int64) (int64, int)
	Ladder(side domain.Side) []domain.DepthLevel
}

// Aggregator tracks the last published aggregate per price level and
// computes the minimal delta batch for each command. It owns no order
// state; it only mirrors (quantity, order count) pairs.
type Aggregator struct {
	symbol   string
	changeID uint64
	bids     map[int64]domain.DepthLevel
	asks     map[int64]domain.DepthLevel
}

// NewAggregator creates an aggregator for one symbol's book.
func NewAggregator(symbol string) *Aggregator {
	return &Aggregator{
		symbol: symbol,
		bids:   make(map[int64]domain.DepthLevel),
		asks:   make(map[int64]domain.DepthLevel),
	}
}

// Commit diffs every touched level against the last published state and
// returns the resulting batch, or nil when no aggregate actually changed.
// Deltas are ordered best price first within each side, bids before asks,
// so subscribers never observe a transiently inconsistent ladder.
func (a *Aggregator) Commit(book BookReader, touched map[LevelRef]struct{}) *domain.DepthBatch {
	var deltas []domain.DepthDelta
	for ref := range touched {
		qty, count := book.LevelAggregate(ref.Side, ref.Price)
		if qty < 0 || count < 0 {
			panic(fmt.Sprintf("depth %s: negative aggregate at %s/%d: qty=%d count=%d",
				a.symbol, ref.Side, ref.Price, qty, count))
		}
		side := a.side(ref.Side)
		prev, existed := side[ref.Price]

		switch {
		case qty == 0 && !existed:
			// Level swept and republished within one command, net no-op.
			continue
		case qty == 0:
			delete(side, ref.Price)
			deltas = append(deltas, domain.DepthDelta{
				Action: domain.DepthLevelRemoved,
				Side:   ref.Side,
				Price:  ref.Price,
			})
		case !existed:
			level := domain.DepthLevel{Side: ref.Side, Price: ref.Price, Quantity: qty, OrderCount: count}
			side[ref.Price] = level
			deltas = append(deltas, domain.DepthDelta{
				Action:     domain.DepthLevelAdded,
				Side:       ref.Side,
				Price:      ref.Price,
				Quantity:   qty,
				OrderCount: count,
			})
		case prev.Quantity != qty || prev.OrderCount != count:
			level := domain.DepthLevel{Side: ref.Side, Price: ref.Price, Quantity: qty, OrderCount: count}
			side[ref.Price] = level
			deltas = append(deltas, domain.DepthDelta{
				Action:     domain.DepthLevelChanged,
				Side:       ref.Side,
				Price:      ref.Price,
				Quantity:   qty,
				OrderCount: count,
			})
		}
	}
	if len(deltas) == 0 {
		return nil
	}
	sortDeltas(deltas)
	a.changeID++
	return &domain.DepthBatch{
		Symbol:   a.symbol,
		ChangeID: a.changeID,
		Deltas:   deltas,
	}
}

// Snapshot returns the complete ladder as of the last committed command.
func (a *Aggregator) Snapshot() *domain.DepthSnapshot {
	return &domain.DepthSnapshot{
		Symbol:   a.symbol,
		ChangeID: a.changeID,
		Bids:     a.ladder(domain.SideBid),
		Asks:     a.ladder(domain.SideAsk),
	}
}

// SnapshotBatch restates the full ladder as a batch of "added" deltas under
// the current change id. Used by the periodic snapshot job and for late
// joiners; returns nil when the book is empty.
func (a *Aggregator) SnapshotBatch() *domain.DepthBatch {
	bids := a.ladder(domain.SideBid)
	asks := a.ladder(domain.SideAsk)
	if len(bids) == 0 && len(asks) == 0 {
		return nil
	}
	deltas := make([]domain.DepthDelta, 0, len(bids)+len(asks))
	for _, lv := range bids {
		deltas = append(deltas, domain.DepthDelta{
			Action: domain.DepthLevelAdded, Side: lv.Side, Price: lv.Price,
			Quantity: lv.Quantity, OrderCount: lv.OrderCount,
		})
	}
	for _, lv := range asks {
		deltas = append(deltas, domain.DepthDelta{
			Action: domain.DepthLevelAdded, Side: lv.Side, Price: lv.Price,
			Quantity: lv.Quantity, OrderCount: lv.OrderCount,
		})
	}
	return &domain.DepthBatch{
		Symbol:   a.symbol,
		ChangeID: a.changeID,
		Snapshot: true,
		Deltas:   deltas,
	}
}

func (a *Aggregator) side(s domain.Side) map[int64]domain.DepthLevel {
	if s == domain.SideBid {
		return a.bids
	}
	return a.asks
}

// ladder dumps one side's levels best price first.
func (a *Aggregator) ladder(s domain.Side) []domain.DepthLevel {
	side := a.side(s)
	levels := make([]domain.DepthLevel, 0, len(side))
	for _, lv := range side {
		levels = append(levels, lv)
	}
	sort.Slice(levels, func(i, j int) bool {
		if s == domain.SideBid {
			return levels[i].Price > levels[j].Price
		}
		return levels[i].Price < levels[j].Price
	})
	return levels
}

// sortDeltas orders a batch bids-then-asks, best price first within each
// side: bids descending, asks ascending.
func sortDeltas(deltas []domain.DepthDelta) {
	sort.Slice(deltas, func(i, j int) bool {
		a, b := deltas[i], deltas[j]
		if a.Side != b.Side {
			return a.Side == domain.SideBid
		}
		if a.Side == domain.SideBid {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	})
}
