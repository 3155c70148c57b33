package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/event-marketplace/internal/adapters/crdb"
	redisadapter "github.com/robertarktes/event-marketplace/internal/adapters/redis"
	"github.com/robertarktes/event-marketplace/internal/config"
	"github.com/robertarktes/event-marketplace/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Require("CRDB_DSN", "REDIS_ADDR"); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "marketplace-event-status-worker")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cache := redisadapter.NewCache(redisClient)

	worker := NewStatusWorker(repo, cache, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, cfg.SweepInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown event status worker")
}

type EventCompleter interface {
	CompleteEndedEvents(ctx context.Context, now time.Time) (int64, error)
}

type TrendingInvalidator interface {
	InvalidateTrending(ctx context.Context) error
}

// StatusWorker moves upcoming events whose end date has passed to completed.
type StatusWorker struct {
	repo       EventCompleter
	cache      TrendingInvalidator
	logger     observability.Logger
	maxRetries int
	backoff    time.Duration
}

func NewStatusWorker(repo EventCompleter, cache TrendingInvalidator, logger observability.Logger) *StatusWorker {
	return &StatusWorker{repo: repo, cache: cache, logger: logger, maxRetries: 3, backoff: time.Second}
}

func (w *StatusWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := w.sweepWithRetry(ctx, now); err != nil {
				w.logger.WithError(err).Error("failed to complete ended events after retries")
			}
		}
	}
}

func (w *StatusWorker) sweepWithRetry(ctx context.Context, now time.Time) (int64, error) {
	var lastErr error
	for i := 0; i < w.maxRetries; i++ {
		n, err := w.repo.CompleteEndedEvents(ctx, now)
		if err == nil {
			if n > 0 {
				w.logger.WithField("completed", n).Info("marked ended events completed")
				if err := w.cache.InvalidateTrending(ctx); err != nil {
					w.logger.WithError(err).Warn("failed to invalidate trending cache")
				}
			}
			return n, nil
		}
		lastErr = err
		backoff := w.backoff << i
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return 0, errors.Wrapf(lastErr, "failed after %d retries", w.maxRetries)
}
