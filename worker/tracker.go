package worker

import (
	"context"
	"time"

	appconfig "dummybot/config"
	"dummybot/internal/market"
	"dummybot/internal/metrics"
	"dummybot/logger"
	"dummybot/models"
)

// Reconciler is the slice of the shared state an order outcome is applied to.
type Reconciler interface {
	RefreshCash(ctx context.Context) error
	RefreshPositions(ctx context.Context) error
}

// Tracker drives a submitted order to a terminal state by polling the venue,
// then reconciles the shared state with the outcome. Polling is bounded so a
// venue that stops answering cannot wedge a worker forever.
type Tracker struct {
	api          market.API
	store        Reconciler
	maxPolls     int
	pollInterval time.Duration
	log          *logger.Log
}

func NewTracker(cfg appconfig.OrderConfig, api market.API, store Reconciler) *Tracker {
	return &Tracker{
		api:          api,
		store:        store,
		maxPolls:     cfg.MaxPolls,
		pollInterval: time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		log:          logger.GetLogger(),
	}
}

// Track polls the order until it is filled or cancelled, then applies exactly
// one reconciliation pass for the outcome. It returns the last observed state.
func (t *Tracker) Track(ctx context.Context, order models.Order) models.OrderState {
	log := t.log.WithComponent("tracker").WithFields(logger.Fields{
		"order_id": order.ID,
		"symbol":   order.Symbol,
		"side":     order.Side,
	})

	state, known := models.DecodeOrderStatus(order.Status)
	if !known {
		log.WithFields(logger.Fields{"status": order.Status}).Warn("unrecognized order status, treating as pending")
	}

	// Poll failures count against the bound too: a venue returning errors is
	// no more trustworthy than one returning pending.
	for polls := 0; !state.Terminal(); polls++ {
		if polls >= t.maxPolls {
			log.WithFields(logger.Fields{"polls": polls}).Warn("giving up on pending order, reconciling cash only")
			metrics.IncrementOrder("abandoned")
			t.refreshCash(ctx, log)
			return state
		}

		time.Sleep(t.pollInterval)

		latest, err := t.api.GetOrder(ctx, order.ID)
		if err != nil {
			log.WithError(err).Warn("failed to poll order status")
			continue
		}

		state, known = models.DecodeOrderStatus(latest.Status)
		if !known {
			log.WithFields(logger.Fields{"status": latest.Status}).Warn("unrecognized order status, treating as pending")
		}
	}

	t.reconcile(ctx, log, state)
	return state
}

// reconcile applies a terminal order outcome to the shared state. A fill
// changes holdings and cash, so positions are refreshed before cash; a
// cancellation can only have touched cash.
func (t *Tracker) reconcile(ctx context.Context, log *logger.Entry, state models.OrderState) {
	switch state {
	case models.StateFilled:
		metrics.IncrementOrder("filled")
		logger.IncrementOrderFilled()
		log.Info("order filled")
		if err := t.store.RefreshPositions(ctx); err != nil {
			log.WithError(err).Error("failed to refresh positions after fill")
		}
		t.refreshCash(ctx, log)
	case models.StateCancelled:
		metrics.IncrementOrder("cancelled")
		logger.IncrementOrderCancelled()
		log.Info("order cancelled")
		t.refreshCash(ctx, log)
	}
}

func (t *Tracker) refreshCash(ctx context.Context, log *logger.Entry) {
	if err := t.store.RefreshCash(ctx); err != nil {
		log.WithError(err).Error("failed to refresh cash after order settled")
	}
}
