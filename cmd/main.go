package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/bootstrap"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/checkout"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/config"
	cronpkg "github.com/UnicloudAfrica/uniclo-sub010/internal/cron"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/handler/api"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/ledger"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/middleware"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/notify"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/repository"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if hasArg("--bootstrap-db") {
		if err := runDBBootstrap(cfg); err != nil {
			logger.Fatal("Database bootstrap failed", zap.Error(err))
		}
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Database (optional: attempt audit trail) ---
	var db *gorm.DB
	if cfg.Database.Name != "" {
		db, err = config.NewDatabase(&cfg.Database, cfg.Server.Env)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := bootstrap.Migrate(db); err != nil {
			logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
		}
		logger.Info("Database connection established")
	}

	// --- Observers ---
	observers := checkout.Observers{checkout.LogObserver{Logger: logger}}
	var attempts *repository.AttemptRepository
	var attemptLister api.AttemptLister
	if db != nil {
		attempts = repository.NewAttemptRepository(db)
		attemptLister = attempts
		observers = append(observers, notify.NewRecorder(attempts, logger))
	}
	var reporter *notify.Reporter
	if cfg.Bot.Token != "" && cfg.Bot.ReportChat != 0 {
		tb, err := notify.NewBot(cfg.Bot.Token)
		if err != nil {
			logger.Warn("Telegram reporting disabled", zap.Error(err))
		} else {
			reporter = notify.NewReporter(tb, cfg.Bot.ReportChat, logger)
			observers = append(observers, reporter)
		}
	}

	// --- Ledger + sessions ---
	ledgerClient := ledger.New(ledger.Options{
		BaseURL:      cfg.Ledger.BaseURL,
		TenantPrefix: cfg.Ledger.TenantPrefix,
		Timeout:      cfg.Ledger.Timeout,
		RetryCount:   cfg.Ledger.RetryCount,
	})
	manager := checkout.NewManager(checkout.Config{
		HostedGateway:  cfg.Checkout.HostedGateway,
		RetryDelay:     cfg.Checkout.RetryDelay,
		MaxRetries:     cfg.Checkout.MaxRetries,
		PollInterval:   cfg.Checkout.PollInterval,
		TickInterval:   cfg.Checkout.TickInterval,
		RequestTimeout: cfg.Ledger.Timeout,
	}, ledgerClient, observers, cfg.Checkout.SessionTTL, logger)

	// --- Callback Deduper (Redis with in-memory fallback) ---
	callbackDeduper, dedupeErr := middleware.NewCallbackDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Checkout.CallbackTTL,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for callback dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true
	router.Setup(e, manager, attemptLister, logger, cfg.API.Key, callbackDeduper)

	// --- Cron Scheduler ---
	var outcomes cronpkg.OutcomeCounter
	if attempts != nil {
		outcomes = attempts
	}
	var sender cronpkg.ReportSender
	if reporter != nil {
		sender = reporter
	}
	scheduler := cronpkg.New(manager, outcomes, sender, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting checkout server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Cancel every session timer
	manager.CloseAll()

	logger.Info("Server exited")
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

func runDBBootstrap(cfg *config.Config) error {
	db, err := config.NewDatabase(&cfg.Database, cfg.Server.Env)
	if err != nil {
		return err
	}
	return bootstrap.Migrate(db)
}
