// Package outbox relays committed domain events from the outbox table to the broker.
package outbox

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/observability"
)

type Store interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	ClaimOutbox(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxRecord, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, id uuid.UUID, publishedAt time.Time) error
}

type Broker interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

type Publisher struct {
	store      Store
	broker     Broker
	logger     observability.Logger
	batchSize  int
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
}

func NewPublisher(store Store, broker Broker, logger observability.Logger) *Publisher {
	return &Publisher{
		store:      store,
		broker:     broker,
		logger:     logger,
		batchSize:  50,
		maxRetries: 3,
		backoff:    200 * time.Millisecond,
		now:        time.Now,
	}
}

// Run publishes a batch every interval until ctx is done.
func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	p.logger.Info("outbox publisher started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.RunOnce(ctx)
			if err != nil {
				p.logger.WithError(err).Error("outbox publish failed")
			}
			if n > 0 {
				p.logger.WithField("published", n).Debug("outbox batch published")
			}
		}
	}
}

// RunOnce claims one batch and publishes it in order. Records published
// before a failure are still marked; the failing record and those after it
// stay NEW for the next run. Delivery is at least once.
func (p *Publisher) RunOnce(ctx context.Context) (int, error) {
	var (
		published int
		pubErr    error
	)
	err := p.store.WithTx(ctx, func(tx pgx.Tx) error {
		published, pubErr = 0, nil
		records, err := p.store.ClaimOutbox(ctx, tx, p.batchSize)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			observability.OutboxLag.Set(p.now().Sub(records[0].CreatedAt).Seconds())
		}
		for _, rec := range records {
			if err := p.publish(ctx, rec); err != nil {
				pubErr = errors.Wrapf(err, "publish outbox record %s", rec.ID)
				break
			}
			if err := p.store.MarkPublished(ctx, tx, rec.ID, p.now()); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, pubErr
}

func (p *Publisher) publish(ctx context.Context, rec domain.OutboxRecord) error {
	msg := amqp.Publishing{
		MessageId:    rec.DedupeKey,
		Type:         rec.EventType,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    rec.CreatedAt,
		Body:         rec.Payload,
	}
	var err error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if attempt > 0 {
			observability.RabbitPublishRetries.Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff << (attempt - 1)):
			}
		}
		if err = p.broker.Publish(ctx, rec.EventType, msg); err == nil {
			return nil
		}
		p.logger.WithError(err).WithField("attempt", attempt+1).Warn("rabbit publish failed")
	}
	return err
}
