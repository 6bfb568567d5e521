// Package exchange owns the symbol → matching-unit mapping. Symbols are
// created explicitly; a command for an unregistered symbol fails rather
// than silently creating a book.
package exchange

import (
	"sort"
	"sync"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/depth"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/engine"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/store"
)

// Registry maps each registered symbol to its book + aggregator + publisher
// triple. Symbols are fully independent; the registry lock only guards the
// map, never a book.
type Registry struct {
	mu    sync.RWMutex
	books map[string]*engine.Matcher
	fills *store.FillStore
}

// NewRegistry creates an empty registry sharing one fill log.
func NewRegistry(fills *store.FillStore) *Registry {
	return &Registry{
		books: make(map[string]*engine.Matcher),
		fills: fills,
	}
}

// Register creates a fresh, empty matching unit for the symbol.
// Returns ErrSymbolExists if the symbol is already registered.
func (r *Registry) Register(symbol string) (*engine.Matcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[symbol]; ok {
		return nil, domain.ErrSymbolExists
	}
	m := engine.NewMatcher(
		engine.NewOrderBook(symbol),
		depth.NewAggregator(symbol),
		depth.NewPublisher(),
		r.fills,
	)
	r.books[symbol] = m
	return m, nil
}

// Lookup returns the matching unit for a registered symbol.
func (r *Registry) Lookup(symbol string) (*engine.Matcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.books[symbol]
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}
	return m, nil
}

// Symbols returns all registered symbols, sorted.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	symbols := make([]string, 0, len(r.books))
	for s := range r.books {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Each calls fn for every registered matching unit.
func (r *Registry) Each(fn func(*engine.Matcher)) {
	r.mu.RLock()
	matchers := make([]*engine.Matcher, 0, len(r.books))
	for _, m := range r.books {
		matchers = append(matchers, m)
	}
	r.mu.RUnlock()
	for _, m := range matchers {
		fn(m)
	}
}
