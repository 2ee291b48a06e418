package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dummybot/config"
	"dummybot/internal/channel"
	"dummybot/internal/market"
	"dummybot/internal/metrics"
	"dummybot/internal/state"
	"dummybot/logger"
	"dummybot/pricefeed"
	"dummybot/reader"
	"dummybot/worker"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Dummybot.Name,
		"version":     cfg.Dummybot.Version,
		"environment": config.AppEnvironment(),
		"assets":      cfg.Assets,
	}).Info("starting dummybot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	if cfg.Metrics.Enabled {
		metrics.Init(cfg.Metrics.Addr)
	}

	if cfg.Cloudwatch.Enabled {
		logger.InitCloudWatch(cfg.Cloudwatch.Region, cfg.Cloudwatch.Namespace, cfg.Cloudwatch.DashboardName)
	}

	venue, err := market.NewClient(cfg.Venue)
	if err != nil {
		log.WithError(err).Error("failed to create venue client")
		os.Exit(1)
	}

	store := state.NewStore(venue, cfg.Assets)

	// Warm-up: the cache must hold a real view of the account before any
	// signal can be acted on. A venue that cannot answer now is a startup
	// failure, not something to limp past.
	if err := store.RefreshCash(ctx); err != nil {
		log.WithError(err).Error("initial cash refresh failed")
		os.Exit(1)
	}
	if err := store.RefreshPositions(ctx); err != nil {
		log.WithError(err).Error("initial positions refresh failed")
		os.Exit(1)
	}
	if err := store.RefreshPrices(ctx); err != nil {
		log.WithError(err).Error("initial price refresh failed")
		os.Exit(1)
	}

	initialNetWorth := store.NetWorth()
	log.WithFields(logger.Fields{
		"cash":      store.Cash(),
		"net_worth": initialNetWorth,
	}).Info("account state loaded")

	queue := channel.NewSignalQueue(cfg.Channels.SignalBuffer)
	queue.StartMetricsReporting(ctx, 15*time.Second)

	feed := pricefeed.NewFeed(store, time.Duration(cfg.Pricefeed.IntervalMs)*time.Millisecond)
	if err := feed.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start pricefeed")
		os.Exit(1)
	}

	pool := worker.NewPool(cfg.Workers, venue, store, queue)
	if err := pool.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start worker pool")
		os.Exit(1)
	}

	signalReader := reader.NewRedisReader(cfg.Source.Redis, queue)
	if err := signalReader.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start signal reader")
		os.Exit(1)
	}

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	log.Info("stopping pricefeed")
	feed.Stop()

	// Stopping the reader closes the signal queue, which is what lets the
	// workers drain the remaining signals and exit.
	log.Info("stopping signal reader")
	signalReader.Stop()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.WithFields(logger.Fields{
		"initial_net_worth": initialNetWorth,
		"final_net_worth":   store.NetWorth(),
		"delta":             store.NetWorth() - initialNetWorth,
	}).Info("dummybot stopped")
}
