package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	appconfig "dummybot/config"
	"dummybot/internal/channel"
	"dummybot/internal/market"
	"dummybot/internal/metrics"
	"dummybot/logger"
	"dummybot/models"
)

// TradingState is the slice of the shared state the decision logic reads and
// reconciles against.
type TradingState interface {
	Cash() float64
	Position(symbol string) (models.Position, bool)
	Price(symbol string) (models.PriceQuote, bool)
	RefreshCash(ctx context.Context) error
	RefreshPositions(ctx context.Context) error
}

// Pool runs N workers that pop signals from the queue, evaluate a buy/sell
// decision against the shared state and drive every submitted order to a
// terminal state before pulling the next signal. Workers exit when the queue
// is closed and drained.
type Pool struct {
	config  appconfig.WorkersConfig
	api     market.API
	store   TradingState
	queue   *channel.SignalQueue
	tracker *Tracker
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	running bool
	log     *logger.Log
}

func NewPool(cfg appconfig.WorkersConfig, api market.API, store TradingState, queue *channel.SignalQueue) *Pool {
	return &Pool{
		config:  cfg,
		api:     api,
		store:   store,
		queue:   queue,
		tracker: NewTracker(cfg.Order, api, store),
		wg:      &sync.WaitGroup{},
		log:     logger.GetLogger(),
	}
}

// Start launches the configured number of workers.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("worker pool already running")
	}
	p.running = true
	// Workers stop by draining the closed queue, not by cancellation: a
	// signal already popped keeps its venue calls alive through shutdown.
	p.ctx = context.WithoutCancel(ctx)
	p.mu.Unlock()

	log := p.log.WithComponent("worker").WithFields(logger.Fields{"operation": "start"})
	log.WithFields(logger.Fields{"workers": p.config.Count}).Info("starting worker pool")

	for i := 0; i < p.config.Count; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Info("worker pool started successfully")
	return nil
}

// Stop waits for every worker to drain the queue and exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.log.WithComponent("worker").Info("stopping worker pool")
	p.wg.Wait()
	p.log.WithComponent("worker").Info("worker pool stopped")
}

func (p *Pool) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.WithComponent("worker").WithFields(logger.Fields{
		"worker_id": workerID,
	})

	log.Info("waiting for signals")

	for {
		sig, ok := p.queue.Pop()
		if !ok {
			log.Info("signal queue closed, worker stopping")
			return
		}

		start := time.Now()
		p.handleSignal(log, sig)
		logger.LogPerformanceEntry(log, "worker", "handle_signal", time.Since(start), logger.Fields{
			"ticker":    sig.Ticker,
			"direction": sig.Direction,
		})

		metrics.IncrementSignal("processed")
		logger.IncrementSignalProcessed()
	}
}

func (p *Pool) handleSignal(log *logger.Entry, sig models.Signal) {
	log = log.WithFields(logger.Fields{
		"ticker":    sig.Ticker,
		"direction": sig.Direction,
	})
	log.Info("processing signal")

	switch sig.Direction {
	case models.DirectionBuy:
		p.handleBuy(log, sig.Ticker)
	case models.DirectionSell:
		p.handleSell(log, sig.Ticker)
	default:
		log.Error("unknown signal direction, skipping")
	}
}

// handleBuy spends all available cash on the ticker at the latest known ask.
// A missing price or non-positive quantity is a no-op, not an error.
func (p *Pool) handleBuy(log *logger.Entry, ticker string) {
	price, ok := p.store.Price(ticker)
	if !ok || price.Quote.AskPrice <= 0 {
		metrics.IncrementSignal("skipped")
		log.Info("no known ask price, skipping buy")
		return
	}

	qty := p.store.Cash() / price.Quote.AskPrice
	if qty <= 0 {
		metrics.IncrementSignal("skipped")
		log.WithFields(logger.Fields{"cash": p.store.Cash()}).Info("insufficient cash, skipping buy")
		return
	}

	p.submitAndTrack(log, ticker, qty, models.DirectionBuy)
}

// handleSell liquidates the full held quantity, but only above the entry
// price. Selling at a loss is never attempted under this policy.
func (p *Pool) handleSell(log *logger.Entry, ticker string) {
	position, held := p.store.Position(ticker)
	if !held || position.Quantity <= 0 {
		metrics.IncrementSignal("skipped")
		log.Info("no holdings, skipping sell")
		return
	}

	price, ok := p.store.Price(ticker)
	if !ok || price.Quote.BidPrice <= 0 {
		metrics.IncrementSignal("skipped")
		log.Info("no known bid price, skipping sell")
		return
	}

	if price.Quote.BidPrice <= position.EntryPrice {
		metrics.IncrementSignal("skipped")
		log.WithFields(logger.Fields{
			"bid":   price.Quote.BidPrice,
			"entry": position.EntryPrice,
		}).Info("bid below entry price, skipping sell")
		return
	}

	p.submitAndTrack(log, ticker, position.Quantity, models.DirectionSell)
}

func (p *Pool) submitAndTrack(log *logger.Entry, ticker string, qty float64, side models.Direction) {
	order, err := p.api.SubmitOrder(p.ctx, ticker, qty, side)
	if err != nil {
		metrics.IncrementOrder("failed")
		log.WithError(err).Error("order submission failed, no order resulted")
		return
	}

	metrics.IncrementOrder("submitted")
	logger.IncrementOrderSubmitted()

	// The same worker drives the order to a terminal state before pulling
	// the next signal; immediate-or-cancel orders resolve within a few
	// polls so this bounds throughput only briefly.
	p.tracker.Track(p.ctx, order)
}
