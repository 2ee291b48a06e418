// Registers:
//
//	#DummyBot_signals_total
//	#DummyBot_orders_total
//	#DummyBot_refresh_errors_total
//	#go_* and process_* system metrics
//
// Exposes them on the configured address using the Prometheus HTTP handler.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once          sync.Once
	signals       *prometheus.CounterVec
	orders        *prometheus.CounterVec
	refreshErrors *prometheus.CounterVec
	queueDepth    prometheus.Gauge
)

// Init registers the bot's collectors and serves them on addr. Safe to call
// more than once; only the first call has an effect.
func Init(addr string) {
	once.Do(func() {
		signals = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "DummyBot_signals_total",
				Help: "Number of signals by outcome (received, processed, skipped, invalid)",
			},
			[]string{"outcome"},
		)

		orders = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "DummyBot_orders_total",
				Help: "Number of orders by result (submitted, filled, cancelled, failed, abandoned)",
			},
			[]string{"result"},
		)

		refreshErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "DummyBot_refresh_errors_total",
				Help: "Number of failed shared-state refreshes by sub-state",
			},
			[]string{"state"},
		)

		queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "DummyBot_signal_queue_depth",
			Help: "Current number of signals buffered in the queue",
		})

		_ = prometheus.Register(signals)
		_ = prometheus.Register(orders)
		_ = prometheus.Register(refreshErrors)
		_ = prometheus.Register(queueDepth)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				panic("metrics server failed: " + err.Error())
			}
		}()
	})
}

// IncrementSignal increases the signal counter for the given outcome.
func IncrementSignal(outcome string) {
	if signals != nil {
		signals.WithLabelValues(outcome).Inc()
	}
}

// IncrementOrder increases the order counter for the given result.
func IncrementOrder(result string) {
	if orders != nil {
		orders.WithLabelValues(result).Inc()
	}
}

// IncrementRefreshError increases the refresh error counter for a sub-state.
func IncrementRefreshError(state string) {
	if refreshErrors != nil {
		refreshErrors.WithLabelValues(state).Inc()
	}
}

// SetQueueDepth records the current signal queue depth.
func SetQueueDepth(n int) {
	if queueDepth != nil {
		queueDepth.Set(float64(n))
	}
}
