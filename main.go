package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"retail-order-feed/backend"
	"retail-order-feed/export"
	"retail-order-feed/feed"
	"retail-order-feed/realtime"
)

// DaemonConfig wires the admin feed daemon from the environment.
type DaemonConfig struct {
	APIBaseURL    string
	WebsocketURL  string
	HTTPTimeout   time.Duration
	PageSize      int
	Debounce      time.Duration
	NameFilter    string
	StatusFilter  backend.OrderStatus
	CSVExportPath string
	Debug         bool
}

// DefaultDaemonConfig mirrors the local development backend.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		APIBaseURL:   "http://localhost:5000",
		WebsocketURL: "ws://localhost:5000/ws",
		HTTPTimeout:  10 * time.Second,
		PageSize:     feed.DefaultConfig.PageSize,
		Debounce:     realtime.DefaultConfig.Debounce,
	}
}

// Load configuration from environment variables.
func loadConfigFromEnv() DaemonConfig {
	config := DefaultDaemonConfig()

	if v := os.Getenv("ORDER_API_URL"); v != "" {
		config.APIBaseURL = v
	}
	if v := os.Getenv("ORDER_WS_URL"); v != "" {
		config.WebsocketURL = v
	}
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			config.HTTPTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("FEED_PAGE_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			config.PageSize = size
		}
	}
	if v := os.Getenv("FEED_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			config.Debounce = time.Duration(ms) * time.Millisecond
		}
	}
	config.NameFilter = os.Getenv("NAME_FILTER")
	if v := backend.OrderStatus(os.Getenv("STATUS_FILTER")); v != "" && v.IsValid() {
		config.StatusFilter = v
	}
	config.CSVExportPath = os.Getenv("CSV_EXPORT_PATH")
	config.Debug = os.Getenv("DEBUG") == "true"

	return config
}

func main() {
	// Load environment variables from .env file; absence is not fatal.
	_ = godotenv.Overload()

	config := loadConfigFromEnv()

	var logger *zap.Logger
	var err error
	if config.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting order feed daemon",
		zap.String("api_url", config.APIBaseURL),
		zap.String("ws_url", config.WebsocketURL),
		zap.Int("page_size", config.PageSize))

	api := backend.NewClient(config.APIBaseURL, config.HTTPTimeout, logger)

	feedEngine := feed.NewEngine(api, feed.Config{
		PageSize: config.PageSize,
		Logger:   logger,
	})
	feedEngine.SetChangeCallback(func(orders []backend.Order) {
		filtered := feed.Filter(orders, config.NameFilter, config.StatusFilter)
		logger.Info("feed updated",
			zap.Int("loaded", len(orders)),
			zap.Int("filtered", len(filtered)))
		if config.CSVExportPath == "" {
			return
		}
		payload, err := export.ToCSV(filtered)
		if err != nil {
			logger.Warn("CSV export failed", zap.Error(err))
			return
		}
		if err := os.WriteFile(config.CSVExportPath, payload, 0o644); err != nil {
			logger.Warn("writing CSV export file failed",
				zap.String("path", config.CSVExportPath),
				zap.Error(err))
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := feedEngine.Reset(ctx); err != nil {
		// Retryable: the realtime listener's next invalidation triggers
		// another load.
		logger.Warn("initial feed load failed", zap.Error(err))
	}

	listener, err := realtime.NewListener(realtime.Config{
		URL:           config.WebsocketURL,
		Debounce:      config.Debounce,
		EnableLogging: config.Debug,
	}, func() {
		if err := feedEngine.Reset(ctx); err != nil {
			logger.Warn("feed reset after invalidation failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("failed to create realtime listener", zap.Error(err))
	}
	if err := listener.Start(); err != nil {
		logger.Warn("realtime listener failed to start, feed will not auto-refresh", zap.Error(err))
	}

	go statusMonitor(ctx, feedEngine, listener, logger)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutdown signal received")
	cancel()
	if err := listener.Stop(); err != nil {
		logger.Warn("error stopping realtime listener", zap.Error(err))
	}
	logger.Info("order feed daemon stopped")
}

// statusMonitor periodically reports feed and connection health.
func statusMonitor(ctx context.Context, feedEngine feed.Engine, listener realtime.Listener, logger *zap.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := feedEngine.State()
			status := listener.Status()
			logger.Info("feed status",
				zap.Int("orders_loaded", state.Loaded),
				zap.Int("pages", state.Cursor),
				zap.Bool("exhausted", state.Exhausted),
				zap.Uint64("generation", state.Generation),
				zap.Bool("ws_connected", status.IsConnected),
				zap.Int64("ws_events", status.EventCount))
		}
	}
}
