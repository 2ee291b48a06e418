package reader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "dummybot/config"
	"dummybot/internal/channel"
	"dummybot/internal/metrics"
	"dummybot/logger"
	"dummybot/models"
)

// RedisReader blocks on a Redis stream and feeds every received signal, in
// arrival order, into the signal queue. It is the queue's only producer and
// closes the queue once its read loop has exited, which is what lets the
// worker pool drain and stop.
type RedisReader struct {
	config  appconfig.RedisSourceConfig
	client  *redis.Client
	queue   *channel.SignalQueue
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	running bool
	log     *logger.Log

	lastID string
}

func NewRedisReader(cfg appconfig.RedisSourceConfig, queue *channel.SignalQueue) *RedisReader {
	log := logger.GetLogger()

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	log.WithComponent("redis_reader").WithFields(logger.Fields{
		"addr":   cfg.Addr,
		"stream": cfg.Stream,
	}).Info("redis reader initialized")

	return &RedisReader{
		config: cfg,
		client: client,
		queue:  queue,
		wg:     &sync.WaitGroup{},
		log:    log,
		lastID: "0",
	}
}

// Start begins consuming the configured stream.
func (r *RedisReader) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reader already running")
	}
	r.running = true
	r.ctx = ctx
	r.mu.Unlock()

	log := r.log.WithComponent("redis_reader").WithFields(logger.Fields{"operation": "start"})
	log.Info("starting redis reader")

	r.wg.Add(1)
	go r.readLoop()

	log.Info("redis reader started successfully")
	return nil
}

// Stop waits for the read loop to exit. The loop itself is terminated by
// cancelling the context passed to Start.
func (r *RedisReader) Stop() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	r.log.WithComponent("redis_reader").Info("stopping redis reader")
	r.wg.Wait()

	if err := r.client.Close(); err != nil {
		r.log.WithComponent("redis_reader").WithError(err).Warn("failed to close redis client")
	}
	r.log.WithComponent("redis_reader").Info("redis reader stopped")
}

func (r *RedisReader) readLoop() {
	defer r.wg.Done()
	// Closing the queue unblocks every worker waiting on an empty queue;
	// buffered signals are still drained first.
	defer r.queue.Close()

	log := r.log.WithComponent("redis_reader").WithFields(logger.Fields{
		"stream": r.config.Stream,
	})

	log.Info("waiting for signals")

	block := time.Duration(r.config.BlockMs) * time.Millisecond

	for {
		select {
		case <-r.ctx.Done():
			log.Info("read loop stopped due to context cancellation")
			return
		default:
		}

		streams, err := r.client.XRead(r.ctx, &redis.XReadArgs{
			Streams: []string{r.config.Stream, r.lastID},
			Block:   block,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Bounded wait expired with no new entries; re-check
				// cancellation and block again.
				continue
			}
			if r.ctx.Err() != nil {
				log.Info("read loop stopped due to context cancellation")
				return
			}
			log.WithError(err).Warn("failed to read from stream")
			continue
		}

		for _, stream := range streams {
			if len(stream.Messages) > 1 {
				log.WithFields(logger.Fields{"count": len(stream.Messages)}).Warn("received multiple signals in one read")
			}
			for _, msg := range stream.Messages {
				r.lastID = msg.ID
				r.handleMessage(msg)
			}
		}
	}
}

func (r *RedisReader) handleMessage(msg redis.XMessage) {
	log := r.log.WithComponent("redis_reader").WithFields(logger.Fields{
		"message_id": msg.ID,
	})

	sig, err := parseSignal(msg.Values)
	if err != nil {
		metrics.IncrementSignal("invalid")
		log.WithError(err).Error("dropping malformed signal")
		return
	}

	if r.queue.Push(r.ctx, sig) {
		metrics.IncrementSignal("received")
		logger.IncrementSignalReceived()
		log.WithFields(logger.Fields{
			"ticker":    sig.Ticker,
			"direction": sig.Direction,
		}).Info("new signal enqueued")
	}
}

// parseSignal extracts a trading signal from the raw stream entry fields.
func parseSignal(values map[string]interface{}) (models.Signal, error) {
	ticker, ok := values["ticker"].(string)
	if !ok || ticker == "" {
		return models.Signal{}, fmt.Errorf("missing ticker field")
	}

	rawDirection, ok := values["direction"].(string)
	if !ok {
		return models.Signal{}, fmt.Errorf("missing direction field")
	}

	direction, ok := models.ParseDirection(rawDirection)
	if !ok {
		return models.Signal{}, fmt.Errorf("unknown direction %q", rawDirection)
	}

	return models.Signal{
		Ticker:    ticker,
		Direction: direction,
		Received:  time.Now().UTC(),
	}, nil
}
