// The recurring worker sweeps due subscriptions on a fixed interval,
// materializing each into an expense transaction. Once a sweep commits,
// the subscription has advanced past its due date and later sweeps skip
// it. There is no lock across processes, so concurrent sweeps of the
// same user can each observe the same due subscription: materialization
// is at-least-once, not exactly-once.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentRecurring)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, events disabled", "error", err)
		} else {
			defer client.Close()
			events = client
		}
	}

	processor := services.NewRecurringProcessor(repo, events)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweepLoop(ctx, processor, cfg.DefaultUser, cfg.RecurringInterval, logger)
	})
	return g.Wait()
}

func sweepLoop(ctx context.Context, processor *services.RecurringProcessor, userID string, interval time.Duration, logger *log.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Recurring worker started", "interval", interval.String(), "user_id", userID)

	// One sweep at startup catches anything that came due while the
	// worker was down.
	sweep(ctx, processor, userID, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring worker stopping")
			return nil
		case <-ticker.C:
			sweep(ctx, processor, userID, logger)
		}
	}
}

func sweep(ctx context.Context, processor *services.RecurringProcessor, userID string, logger *log.Logger) {
	today := core.DateOf(time.Now())
	count, err := processor.ProcessDueSubscriptions(ctx, userID, today)
	switch {
	case err != nil && errors.Is(err, ledger.ErrStoreUnavailable):
		logger.Error("Sweep skipped, store unavailable", "error", err)
	case err != nil:
		logger.Error("Sweep failed", "error", err)
	case count > 0:
		logger.Info("Sweep materialized transactions", "count", count)
	}
}
