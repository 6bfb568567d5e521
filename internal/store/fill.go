package store

import (
	"sync"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
)

// FillStore is a thread-safe in-memory execution log, keyed by symbol.
// Fills are append-only and chronological; this is the boundary an external
// execution-reporting layer would consume.
type FillStore struct {
	mu    sync.RWMutex
	fills map[string][]*domain.Fill // symbol → fills (chronological)
}

// NewFillStore creates an empty FillStore.
func NewFillStore() *FillStore {
	return &FillStore{
		fills: make(map[string][]*domain.Fill),
	}
}

// Append adds fills to the symbol's chronological list.
func (s *FillStore) Append(symbol string, fills ...*domain.Fill) {
	if len(fills) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fills[symbol] = append(s.fills[symbol], fills...)
}

// BySymbol returns all fills for a symbol in chronological order.
// Returns an empty slice if no fills exist for the symbol.
func (s *FillStore) BySymbol(symbol string) []*domain.Fill {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fills := s.fills[symbol]
	if fills == nil {
		return []*domain.Fill{}
	}
	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Fill, len(fills))
	copy(result, fills)
	return result
}

// Recent returns up to limit most recent fills for a symbol, oldest first.
func (s *FillStore) Recent(symbol string, limit int) []*domain.Fill {
	all := s.BySymbol(symbol)
	if limit <= 0 || limit >= len(all) {
		return all
	}
	return all[len(all)-limit:]
}
