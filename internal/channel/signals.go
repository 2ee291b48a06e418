package channel

import (
	"context"
	"sync"
	"time"

	"dummybot/internal/metrics"
	"dummybot/logger"
	"dummybot/models"
)

type QueueStats struct {
	Pushed int64
	Popped int64
}

// SignalQueue is the FIFO hand-off between the signal reader and the worker
// pool. One producer, many consumers. Closing is one-way: consumers keep
// draining buffered signals after Close and then observe the closed state.
type SignalQueue struct {
	ch chan models.Signal

	closeOnce  sync.Once
	stats      QueueStats
	statsMutex sync.RWMutex
	log        *logger.Log
}

func NewSignalQueue(bufferSize int) *SignalQueue {
	log := logger.GetLogger()
	q := &SignalQueue{
		ch:  make(chan models.Signal, bufferSize),
		log: log,
	}

	log.WithComponent("signal_queue").WithFields(logger.Fields{
		"buffer_size": bufferSize,
	}).Info("signal queue initialized")

	return q
}

// Push appends a signal in arrival order. It blocks until buffer space is
// available so no signal is ever dropped; a cancelled context aborts the wait
// and reports false. Push must not be called after Close.
func (q *SignalQueue) Push(ctx context.Context, sig models.Signal) bool {
	select {
	case q.ch <- sig:
		q.statsMutex.Lock()
		q.stats.Pushed++
		q.statsMutex.Unlock()
		return true
	case <-ctx.Done():
		return false
	}
}

// Pop blocks until a signal is available or the queue is closed and drained,
// in which case ok is false.
func (q *SignalQueue) Pop() (sig models.Signal, ok bool) {
	sig, ok = <-q.ch
	if ok {
		q.statsMutex.Lock()
		q.stats.Popped++
		q.statsMutex.Unlock()
	}
	return sig, ok
}

// Close marks the queue as closed for writes. Idempotent.
func (q *SignalQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.ch)
		q.log.WithComponent("signal_queue").Info("signal queue closed")
	})
}

// Len reports the number of buffered signals.
func (q *SignalQueue) Len() int {
	return len(q.ch)
}

func (q *SignalQueue) GetStats() QueueStats {
	q.statsMutex.RLock()
	defer q.statsMutex.RUnlock()
	return q.stats
}

// StartMetricsReporting periodically publishes the queue depth until the
// context is cancelled.
func (q *SignalQueue) StartMetricsReporting(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.SetQueueDepth(q.Len())
			}
		}
	}()
}
