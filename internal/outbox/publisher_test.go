package outbox

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/observability"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func (m *MockStore) ClaimOutbox(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxRecord, error) {
	args := m.Called(ctx, tx, limit)
	return args.Get(0).([]domain.OutboxRecord), args.Error(1)
}

func (m *MockStore) MarkPublished(ctx context.Context, tx pgx.Tx, id uuid.UUID, publishedAt time.Time) error {
	return m.Called(ctx, tx, id, publishedAt).Error(0)
}

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	return m.Called(ctx, key, msg).Error(0)
}

var noTx pgx.Tx

func quietLogger() observability.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return observability.NewLoggerWith(log)
}

func record(eventType string) domain.OutboxRecord {
	id := uuid.New()
	return domain.OutboxRecord{
		ID:        id,
		EventType: eventType,
		Payload:   []byte(`{"user_id":"x"}`),
		DedupeKey: eventType + ":" + id.String(),
		CreatedAt: time.Now().Add(-time.Second),
	}
}

func newTestPublisher(store Store, broker Broker) *Publisher {
	p := NewPublisher(store, broker, quietLogger())
	p.backoff = time.Millisecond
	return p
}

func TestRunOnce_PublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	store, broker := new(MockStore), new(MockBroker)
	a, b := record("payment.completed"), record("event.created")
	store.On("ClaimOutbox", ctx, noTx, 50).Return([]domain.OutboxRecord{a, b}, nil)
	broker.On("Publish", ctx, "payment.completed", mock.MatchedBy(func(m amqp.Publishing) bool {
		return m.MessageId == a.DedupeKey && m.DeliveryMode == amqp.Persistent
	})).Return(nil)
	broker.On("Publish", ctx, "event.created", mock.Anything).Return(nil)
	store.On("MarkPublished", ctx, noTx, a.ID, mock.Anything).Return(nil)
	store.On("MarkPublished", ctx, noTx, b.ID, mock.Anything).Return(nil)

	n, err := newTestPublisher(store, broker).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	store.AssertExpectations(t)
}

func TestRunOnce_RetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	store, broker := new(MockStore), new(MockBroker)
	rec := record("stall_booking.requested")
	store.On("ClaimOutbox", ctx, noTx, 50).Return([]domain.OutboxRecord{rec}, nil)
	broker.On("Publish", ctx, rec.EventType, mock.Anything).Return(errors.New("channel closed")).Once()
	broker.On("Publish", ctx, rec.EventType, mock.Anything).Return(nil).Once()
	store.On("MarkPublished", ctx, noTx, rec.ID, mock.Anything).Return(nil)

	n, err := newTestPublisher(store, broker).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	broker.AssertNumberOfCalls(t, "Publish", 2)
}

func TestRunOnce_StopsAtFirstUndeliverable(t *testing.T) {
	ctx := context.Background()
	store, broker := new(MockStore), new(MockBroker)
	ok, bad, later := record("a.ok"), record("b.bad"), record("c.later")
	store.On("ClaimOutbox", ctx, noTx, 50).Return([]domain.OutboxRecord{ok, bad, later}, nil)
	broker.On("Publish", ctx, "a.ok", mock.Anything).Return(nil)
	broker.On("Publish", ctx, "b.bad", mock.Anything).Return(errors.New("broker down"))
	store.On("MarkPublished", ctx, noTx, ok.ID, mock.Anything).Return(nil)

	n, err := newTestPublisher(store, broker).RunOnce(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	broker.AssertNumberOfCalls(t, "Publish", 4)
	store.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything, bad.ID, mock.Anything)
	broker.AssertNotCalled(t, "Publish", mock.Anything, "c.later", mock.Anything)
}

func TestRunOnce_Empty(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("ClaimOutbox", ctx, noTx, 50).Return([]domain.OutboxRecord{}, nil)

	n, err := newTestPublisher(store, new(MockBroker)).RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
