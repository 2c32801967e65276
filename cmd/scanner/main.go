package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TokenSentinel/internal/collector"
	"TokenSentinel/internal/config"
	"TokenSentinel/internal/indicator"
	"TokenSentinel/internal/logger"
	"TokenSentinel/internal/metrics"
	"TokenSentinel/internal/notifier"
	"TokenSentinel/internal/recorder"
	"TokenSentinel/internal/scheduler"
	"TokenSentinel/internal/server"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log, err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		logrus.Fatalf("init logger: %v", err)
	}
	log.Info("TokenSentinel starting...")

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcher := collector.NewCoinGeckoFetcher(collector.CoinGeckoOptions{
		BaseURL:      cfg.DataSource.BaseURL,
		APIKey:       cfg.DataSource.APIKey,
		APIKeyHeader: cfg.DataSource.APIKeyHeader,
		VsCurrency:   cfg.DataSource.VsCurrency,
		Proxy:        cfg.Proxy,
		Timeout:      cfg.DataSource.Timeout,
		RetryCount:   cfg.DataSource.RetryCount,
	})

	if err := run(ctx, cfg, log, fetcher); err != nil {
		cancel()
		log.Fatalf("%v", err)
	}
	log.Info("TokenSentinel stopped")
}

// run wires the scanner and blocks until ctx is cancelled. Every resource it
// opens is released before it returns, including on startup errors.
func run(ctx context.Context, cfg *config.Config, log *logrus.Logger, fetcher collector.Fetcher) error {
	network, err := cfg.NetworkID()
	if err != nil {
		return err
	}
	log.Infof("data source: %s, network: %s (%s)", fetcher.Name(), network, network.Platform())
	col := collector.NewCollector(fetcher, network, cfg.DataSource.MaxTokens)

	engine, err := indicator.NewEngine(cfg.MACDParams())
	if err != nil {
		return errors.Wrap(err, "init indicator engine")
	}

	rec := openRecorder(cfg.Database.SQLitePath, log)
	defer rec.Close()

	met := metrics.NewMetrics()

	reporters := []notifier.Reporter{notifier.NewConsoleReporter()}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		reporters = append(reporters, tn)
	} else {
		log.Info("telegram not configured, alerts go to the log only")
	}

	sched := scheduler.NewScheduler(ctx, col, engine, rec, met, reporters...)
	sched.RequestDelay = cfg.Schedule.RequestDelay

	// Give the API a moment before the first burst of requests.
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(cfg.Schedule.StartupDelay):
	}
	if err := sched.RefreshTokens(ctx); err != nil {
		return errors.Wrap(err, "enumerate tokens")
	}

	refreshCron := cfg.Schedule.RefreshCron
	if config.Disabled(refreshCron) {
		refreshCron = ""
	}
	if err := sched.RegisterAll(cfg.Schedule.WickDuration, refreshCron); err != nil {
		return errors.Wrap(err, "register cron tasks")
	}
	sched.Start()

	if !config.Disabled(cfg.Server.Addr) {
		srv := server.New(network, engine, rec, met, sched)
		go func() {
			if err := srv.Start(ctx, cfg.Server.Addr); err != nil {
				log.Errorf("status server: %v", err)
			}
		}()
	}

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("Telegram polling started")
	}

	// First tick right away instead of one wick later.
	firstTick := make(chan struct{})
	go func() {
		defer close(firstTick)
		sched.RunTick(ctx)
	}()

	log.Infof("TokenSentinel is running every %s. Press Ctrl+C to stop.", cfg.Schedule.WickDuration)
	<-ctx.Done()

	log.Info("shutdown signal received, stopping...")
	sched.Stop()
	<-firstTick
	return nil
}

func openRecorder(path string, log *logrus.Logger) recorder.Recorder {
	if config.Disabled(path) {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Warnf("init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}
