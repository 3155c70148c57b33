package rabbit

import (
	"context"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	ch    *amqp.Channel
	queue string
}

// NewConsumer declares a durable queue bound to Exchange with bindingKey
// ("#" receives everything) and limits unacked deliveries to prefetch.
func NewConsumer(conn *amqp.Connection, queue, bindingKey string, prefetch int) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	if err := declare(ch, queue, bindingKey, prefetch); err != nil {
		ch.Close()
		return nil, err
	}
	return &Consumer{ch: ch, queue: queue}, nil
}

func declare(ch *amqp.Channel, queue, bindingKey string, prefetch int) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare exchange")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "declare queue %s", queue)
	}
	if err := ch.QueueBind(queue, bindingKey, Exchange, false, nil); err != nil {
		return errors.Wrapf(err, "bind queue %s", queue)
	}
	return errors.Wrap(ch.Qos(prefetch, 0, false), "set qos")
}

// Consume starts delivery with manual acks. The channel closes when ctx is done.
func (c *Consumer) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	tag := c.queue + "-consumer"
	deliveries, err := c.ch.Consume(c.queue, tag, false, false, false, false, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "consume %s", c.queue)
	}
	go func() {
		<-ctx.Done()
		_ = c.ch.Cancel(tag, false)
	}()
	return deliveries, nil
}

func (c *Consumer) Close() error {
	return c.ch.Close()
}
