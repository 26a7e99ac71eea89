package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	fthttp "fintrack/internal/http"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/memory"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.New(log.DefaultConfig()).Debug("No .env file found", "error", err)
	}

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The ledger works without the event stream; exports lag
			// until the broker is back.
			logger.WithComponent(log.ComponentAMQP).Warn("AMQP unavailable, events disabled", "error", err)
		} else {
			defer client.Close()
			events = client
		}
	}

	server := fthttp.NewServer(fthttp.Options{
		Addr:         ":" + cfg.Port,
		Store:        store,
		Transactions: services.NewTransactionService(store, nil, events),
		Recurring:    services.NewRecurringProcessor(store, events),
		Analysis:     services.NewAnalysisService(store),
		DefaultUser:  cfg.DefaultUser,
		CacheSize:    cfg.CacheSize,
		CacheTTL:     cfg.CacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, logger *log.Logger) (ledger.Store, func(), error) {
	switch cfg.DataBackend {
	case "memory":
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.WithComponent(log.ComponentStorage).Info("SQLite ready", "path", cfg.SQLiteDBPath)
		return repo, func() { _ = repo.Close() }, nil
	}
}
