package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/depth"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/engine"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/exchange"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/store"
)

// MarketService handles symbol registration and the market data read path:
// depth snapshots, fill history, and feed subscriptions.
type MarketService struct {
	registry  *exchange.Registry
	fills     *store.FillStore
	listeners []depth.Listener // subscribed to every new symbol's feed
	logger    *slog.Logger
}

// NewMarketService creates a MarketService. Each listener given here is
// subscribed to every symbol registered through the service (the ws hub
// rides along this way).
func NewMarketService(registry *exchange.Registry, fills *store.FillStore, logger *slog.Logger, listeners ...depth.Listener) *MarketService {
	return &MarketService{
		registry:  registry,
		fills:     fills,
		listeners: listeners,
		logger:    logger,
	}
}

// RegisterSymbol creates a fresh, empty matching unit for the symbol and
// attaches the service's default listeners to its feed.
func (s *MarketService) RegisterSymbol(symbol string) error {
	if !symbolRegex.MatchString(symbol) {
		return &domain.ValidationError{Message: "symbol must be 1-10 uppercase letters"}
	}
	m, err := s.registry.Register(symbol)
	if err != nil {
		return err
	}
	for _, l := range s.listeners {
		m.Subscribe(l)
	}
	s.logger.Info("symbol registered", slog.String("symbol", symbol))
	return nil
}

// Symbols returns all registered symbols, sorted.
func (s *MarketService) Symbols() []string {
	return s.registry.Symbols()
}

// Depth returns the full current ladder for a symbol.
func (s *MarketService) Depth(symbol string) (*domain.DepthSnapshot, error) {
	m, err := s.registry.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	return m.Snapshot(), nil
}

// Fills returns up to limit most recent fills for a symbol, oldest first.
// limit <= 0 means no limit.
func (s *MarketService) Fills(symbol string, limit int) ([]*domain.Fill, error) {
	if _, err := s.registry.Lookup(symbol); err != nil {
		return nil, err
	}
	return s.fills.Recent(symbol, limit), nil
}

// Subscribe registers a listener on a symbol's feed and returns the ladder
// as of subscription plus the subscription id. Snapshot and subscription
// happen under the symbol's command lock, so no batch is lost or seen twice
// around the boundary.
func (s *MarketService) Subscribe(symbol string, l depth.Listener) (*domain.DepthSnapshot, string, error) {
	m, err := s.registry.Lookup(symbol)
	if err != nil {
		return nil, "", err
	}
	snap, id := m.SnapshotAndSubscribe(l)
	return snap, id, nil
}

// Unsubscribe removes a feed subscription.
func (s *MarketService) Unsubscribe(symbol, id string) error {
	m, err := s.registry.Lookup(symbol)
	if err != nil {
		return err
	}
	m.Unsubscribe(id)
	return nil
}

// StartSnapshots periodically republishes a full-depth snapshot batch for
// every symbol, so late or recovering feed consumers can resynchronize
// without a request path. Blocks until ctx is cancelled; run in a goroutine.
func (s *MarketService) StartSnapshots(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.Info("depth snapshot job started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("depth snapshot job stopped")
			return
		case <-ticker.C:
			s.registry.Each(func(m *engine.Matcher) {
				m.PublishSnapshot()
			})
		}
	}
}
