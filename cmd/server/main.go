package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finbase/corebank/internal/config"
	"github.com/finbase/corebank/internal/database"
	"github.com/finbase/corebank/internal/modules/investments"
	"github.com/finbase/corebank/internal/modules/ledger"
	"github.com/finbase/corebank/internal/modules/loans"
	"github.com/finbase/corebank/internal/scheduler"
	"github.com/finbase/corebank/internal/server"
	"github.com/finbase/corebank/pkg/logger"
	"github.com/finbase/corebank/pkg/money"
	"github.com/finbase/corebank/pkg/refid"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting corebank")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(ledger.InitSchema, investments.InitSchema); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Core services
	refs := refid.New()
	store := ledger.NewSQLStore(db.Conn(), log)
	accountLedger := ledger.New(store, refs, cfg.LedgerRetryLimit, log)
	positions := investments.NewRepository(db.Conn(), log)
	processor := investments.NewProcessor(accountLedger, positions, refs, log)

	// Initialize scheduler and register background jobs
	sched := scheduler.New(log)
	sweep := ledger.NewPendingSweepJob(store, time.Duration(cfg.PendingTTLMinutes)*time.Minute, log)
	if err := sched.AddJob(cfg.PendingSweepCron, sweep); err != nil {
		log.Fatal().Err(err).Msg("Failed to register pending sweep job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:               cfg.Port,
		Log:                log,
		Config:             cfg,
		LedgerHandler:      ledger.NewHandler(accountLedger, money.Currency(cfg.DefaultCurrency), log),
		InvestmentsHandler: investments.NewHandler(processor, log),
		LoansHandler:       loans.NewHandler(log),
		SystemHandlers:     server.NewSystemHandlers(log, store, positions),
		DevMode:            cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
