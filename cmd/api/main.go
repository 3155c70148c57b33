package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/event-marketplace/internal/adapters/crdb"
	redisadapter "github.com/robertarktes/event-marketplace/internal/adapters/redis"
	"github.com/robertarktes/event-marketplace/internal/auth"
	"github.com/robertarktes/event-marketplace/internal/config"
	"github.com/robertarktes/event-marketplace/internal/event"
	httphandler "github.com/robertarktes/event-marketplace/internal/http"
	"github.com/robertarktes/event-marketplace/internal/idempotency"
	"github.com/robertarktes/event-marketplace/internal/observability"
	"github.com/robertarktes/event-marketplace/internal/payment"
	"github.com/robertarktes/event-marketplace/internal/product"
	"github.com/robertarktes/event-marketplace/internal/rateLimit"
	"github.com/robertarktes/event-marketplace/internal/stall"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Require("JWT_SECRET_KEY", "CRDB_DSN", "REDIS_ADDR"); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "marketplace-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()
	observability.InitMetrics()

	if cfg.AutoMigrate {
		if err := crdb.Migrate(cfg.CRDBDSN); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		logger.Info("database schema up to date")
	}

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cache := redisadapter.NewCache(redisClient)
	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), cfg.IdempotentTTL)
	rl := rateLimit.NewRateLimiter(cache)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	handlers := httphandler.NewHandlers(cfg, httphandler.Services{
		Auth:     auth.NewService(repo, tokens),
		Events:   event.NewService(repo, cache, cfg.TrendingTTL),
		Social:   event.NewSocial(repo),
		Tickets:  event.NewTickets(repo, cfg.JWTSecret),
		Stalls:   stall.NewService(repo),
		Payments: payment.NewService(repo, cache, cfg.Currency),
		Products: product.NewService(repo),
	}, map[string]httphandler.Pinger{
		"crdb":  repo,
		"redis": cache,
	})

	r := httphandler.SetupRouter(handlers, httphandler.RouterDeps{
		Logger:        logger,
		Tokens:        tokens,
		Limiter:       rl,
		AuthRateLimit: cfg.AuthRateLimit,
		Idempotency:   idemp,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).WithField("env", cfg.Env).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
