package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dummybot/internal/market"
	"dummybot/internal/metrics"
	"dummybot/logger"
	"dummybot/models"
)

// Store caches the latest known cash, positions and prices. Each sub-state
// sits behind its own lock so a slow price fetch never blocks a cash check.
// Adapter calls and reshaping always happen outside the locks; only the final
// swap of the rebuilt map is guarded, keeping every critical section O(1).
type Store struct {
	api      market.API
	assets   []string
	assetSet map[string]struct{}

	cashMu sync.RWMutex
	cash   float64

	positionsMu sync.RWMutex
	positions   map[string]models.Position

	pricesMu sync.RWMutex
	prices   map[string]models.PriceQuote

	log *logger.Log
}

// NewStore creates a store scoped to the fixed tracked asset set.
func NewStore(api market.API, assets []string) *Store {
	set := make(map[string]struct{}, len(assets))
	tracked := make([]string, 0, len(assets))
	for _, a := range assets {
		if _, ok := set[a]; ok {
			continue
		}
		set[a] = struct{}{}
		tracked = append(tracked, a)
	}

	return &Store{
		api:       api,
		assets:    tracked,
		assetSet:  set,
		positions: make(map[string]models.Position),
		prices:    make(map[string]models.PriceQuote),
		log:       logger.GetLogger(),
	}
}

// TrackedAssets returns a copy of the tracked asset set.
func (s *Store) TrackedAssets() []string {
	out := make([]string, len(s.assets))
	copy(out, s.assets)
	return out
}

// RefreshCash replaces the cached cash scalar. On adapter failure the
// previous value is retained and the error is returned to the caller.
func (s *Store) RefreshCash(ctx context.Context) error {
	cash, err := s.api.GetCash(ctx)
	if err != nil {
		metrics.IncrementRefreshError("cash")
		logger.IncrementRefreshError()
		return fmt.Errorf("refresh cash: %w", err)
	}

	s.cashMu.Lock()
	s.cash = cash
	s.cashMu.Unlock()

	s.log.WithComponent("state").WithFields(logger.Fields{"cash": cash}).Debug("cash refreshed")
	return nil
}

// RefreshPositions rebuilds the position map from the adapter, filtered to
// the tracked asset set. The swap is a full replace: assets the venue no
// longer reports drop out instead of going stale.
func (s *Store) RefreshPositions(ctx context.Context) error {
	raw, err := s.api.GetPositions(ctx)
	if err != nil {
		metrics.IncrementRefreshError("positions")
		logger.IncrementRefreshError()
		return fmt.Errorf("refresh positions: %w", err)
	}

	fresh := make(map[string]models.Position, len(raw))
	for _, p := range raw {
		if _, tracked := s.assetSet[p.Symbol]; !tracked {
			continue
		}
		fresh[p.Symbol] = p
	}

	s.positionsMu.Lock()
	s.positions = fresh
	s.positionsMu.Unlock()

	s.log.WithComponent("state").WithFields(logger.Fields{"positions": len(fresh)}).Debug("positions refreshed")
	return nil
}

// RefreshPrices fetches the three latest-data kinds concurrently, joins them
// and swaps in a rebuilt price map. A failure in any kind fails the whole
// refresh and leaves the previous map untouched; a partially updated map is
// never observable.
func (s *Store) RefreshPrices(ctx context.Context) error {
	start := time.Now()

	var (
		wg       sync.WaitGroup
		trades   map[string]models.Trade
		quotes   map[string]models.Quote
		bars     map[string]models.Bar
		tradeErr error
		quoteErr error
		barErr   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		trades, tradeErr = s.api.GetLatestTrades(ctx, s.assets)
	}()
	go func() {
		defer wg.Done()
		quotes, quoteErr = s.api.GetLatestQuotes(ctx, s.assets)
	}()
	go func() {
		defer wg.Done()
		bars, barErr = s.api.GetLatestBars(ctx, s.assets)
	}()
	wg.Wait()

	for _, err := range []error{tradeErr, quoteErr, barErr} {
		if err != nil {
			metrics.IncrementRefreshError("prices")
			logger.IncrementRefreshError()
			return fmt.Errorf("refresh prices: %w", err)
		}
	}

	// Reshape outside the lock. A symbol enters the new map only when all
	// three kinds reported it, so consumers never see a half-known price.
	fresh := make(map[string]models.PriceQuote, len(s.assets))
	for _, sym := range s.assets {
		trade, okT := trades[sym]
		quote, okQ := quotes[sym]
		bar, okB := bars[sym]
		if !okT || !okQ || !okB {
			s.log.WithComponent("state").WithFields(logger.Fields{
				"symbol": sym,
				"trade":  okT,
				"quote":  okQ,
				"bar":    okB,
			}).Debug("incomplete price data, symbol omitted from price map")
			continue
		}
		fresh[sym] = models.PriceQuote{Trade: trade, Quote: quote, Bar: bar}
	}

	s.pricesMu.Lock()
	s.prices = fresh
	s.pricesMu.Unlock()

	logger.LogPerformanceEntry(s.log.WithComponent("state"), "state", "refresh_prices", time.Since(start), logger.Fields{
		"symbols": len(fresh),
	})
	return nil
}

// Cash returns the cached cash value.
func (s *Store) Cash() float64 {
	s.cashMu.RLock()
	defer s.cashMu.RUnlock()
	return s.cash
}

// Position returns a copy of the cached position for the symbol.
func (s *Store) Position(symbol string) (models.Position, bool) {
	s.positionsMu.RLock()
	defer s.positionsMu.RUnlock()
	p, ok := s.positions[symbol]
	return p, ok
}

// Price returns a copy of the cached price view for the symbol.
func (s *Store) Price(symbol string) (models.PriceQuote, bool) {
	s.pricesMu.RLock()
	defer s.pricesMu.RUnlock()
	p, ok := s.prices[symbol]
	return p, ok
}

// NetWorth returns a point-in-time valuation: cash plus quantity times the
// latest trade price summed over tracked assets. The three locks are taken in
// a fixed order (cash, positions, prices) to rule out circular waits; the
// result is knowingly not atomic across the three sub-states.
func (s *Store) NetWorth() float64 {
	s.cashMu.RLock()
	defer s.cashMu.RUnlock()
	s.positionsMu.RLock()
	defer s.positionsMu.RUnlock()
	s.pricesMu.RLock()
	defer s.pricesMu.RUnlock()

	total := s.cash
	for sym, pos := range s.positions {
		price := pos.CurrentPrice
		if pq, ok := s.prices[sym]; ok && pq.Trade.Price > 0 {
			price = pq.Trade.Price
		}
		total += pos.Quantity * price
	}
	return total
}
