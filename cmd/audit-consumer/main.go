package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	mongoadapter "github.com/robertarktes/event-marketplace/internal/adapters/mongo"
	"github.com/robertarktes/event-marketplace/internal/adapters/rabbit"
	"github.com/robertarktes/event-marketplace/internal/audit"
	"github.com/robertarktes/event-marketplace/internal/config"
	"github.com/robertarktes/event-marketplace/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	auditQueue = "marketplace.audit"
	mongoDB    = "marketplace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Require("MONGO_URI", "RABBIT_URL"); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "marketplace-audit-consumer")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	auditLog := mongoadapter.NewAuditLogger(mongoClient.Database(mongoDB), logger)

	idxCtx, idxCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := auditLog.EnsureIndexes(idxCtx); err != nil {
		logger.WithError(err).Warn("could not create audit indexes")
	}
	idxCancel()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, auditQueue, "#", 20)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume %s: %v", auditQueue, err)
	}
	go audit.NewConsumer(auditLog, logger).Run(ctx, deliveries)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown audit consumer")
}
