// Package audit copies every domain event from the broker into the audit log.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	mongoadapter "github.com/robertarktes/event-marketplace/internal/adapters/mongo"
	"github.com/robertarktes/event-marketplace/internal/observability"
)

type Sink interface {
	LogEvent(ctx context.Context, entry mongoadapter.AuditLog) error
}

type Consumer struct {
	sink   Sink
	logger observability.Logger
}

func NewConsumer(sink Sink, logger observability.Logger) *Consumer {
	return &Consumer{sink: sink, logger: logger}
}

// Run handles deliveries until the channel closes or ctx is done.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.logger.Info("audit consumer started")
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed")
				return
			}
			c.Handle(ctx, d)
		}
	}
}

// Handle records one delivery. Unparseable bodies are dropped; storage
// failures are requeued.
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	log := c.logger.WithField("routing_key", d.RoutingKey).WithField("message_id", d.MessageId)

	entry, err := toEntry(d)
	if err != nil {
		log.WithError(err).Warn("dropping malformed event")
		_ = d.Nack(false, false)
		return
	}
	if err := c.sink.LogEvent(ctx, entry); err != nil {
		log.WithError(err).Error("audit write failed, requeueing")
		_ = d.Nack(false, true)
		return
	}
	if err := d.Ack(false); err != nil {
		log.WithError(err).Warn("ack failed")
	}
}

func toEntry(d amqp.Delivery) (mongoadapter.AuditLog, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(d.Body, &data); err != nil {
		return mongoadapter.AuditLog{}, err
	}

	action := d.Type
	if action == "" {
		action = d.RoutingKey
	}
	id := d.MessageId
	if id == "" {
		id = uuid.NewString()
	}
	ts := d.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	entry := mongoadapter.AuditLog{ID: id, Action: action, Timestamp: ts, Data: data}
	if u, ok := data["user_id"]; ok {
		entry.UserID = fmt.Sprint(u)
	}
	return entry, nil
}
