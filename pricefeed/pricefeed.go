package pricefeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dummybot/logger"
)

// PriceRefresher is the slice of the shared state the feed drives.
type PriceRefresher interface {
	RefreshPrices(ctx context.Context) error
}

// Feed periodically refreshes the shared price view so workers can act on a
// signal without issuing a venue request of their own. Prices are therefore
// at most one interval stale when a decision reads them.
type Feed struct {
	store    PriceRefresher
	interval time.Duration
	ctx      context.Context
	wg       *sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	log      *logger.Log
}

func NewFeed(store PriceRefresher, interval time.Duration) *Feed {
	return &Feed{
		store:    store,
		interval: interval,
		wg:       &sync.WaitGroup{},
		log:      logger.GetLogger(),
	}
}

// Start begins the refresh loop.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return fmt.Errorf("pricefeed already running")
	}
	f.running = true
	f.ctx = ctx
	f.mu.Unlock()

	log := f.log.WithComponent("pricefeed").WithFields(logger.Fields{"operation": "start"})
	log.WithFields(logger.Fields{"interval": f.interval}).Info("starting pricefeed")

	f.wg.Add(1)
	go f.refreshLoop()

	log.Info("pricefeed started successfully")
	return nil
}

// Stop waits for the refresh loop to exit; an in-flight refresh is allowed to
// finish.
func (f *Feed) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()

	f.log.WithComponent("pricefeed").Info("stopping pricefeed")
	f.wg.Wait()
	f.log.WithComponent("pricefeed").Info("pricefeed stopped")
}

func (f *Feed) refreshLoop() {
	defer f.wg.Done()

	log := f.log.WithComponent("pricefeed")
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		// Cancellation is only checked at cycle boundaries, never mid-fetch.
		select {
		case <-f.ctx.Done():
			log.Info("refresh loop stopped due to context cancellation")
			return
		case <-timer.C:
		}

		start := time.Now()
		if err := f.store.RefreshPrices(f.ctx); err != nil {
			if f.ctx.Err() != nil {
				log.Info("refresh loop stopped due to context cancellation")
				return
			}
			log.WithError(err).Warn("price refresh failed, keeping previous prices")
		}
		elapsed := time.Since(start)

		if elapsed < f.interval {
			timer.Reset(f.interval - elapsed)
		} else {
			log.WithFields(logger.Fields{
				"elapsed":  elapsed.Milliseconds(),
				"interval": f.interval.Milliseconds(),
			}).Warn("price refresh took longer than interval")
			timer.Reset(0)
		}
	}
}
