package event

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTicketStore struct {
	mock.Mock
}

func (m *MockTicketStore) ListPurchasesByUser(ctx context.Context, userID uuid.UUID) ([]domain.PurchaseView, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.PurchaseView), args.Error(1)
}

func (m *MockTicketStore) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.PurchaseView, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*domain.PurchaseView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketStore) GetEventOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func purchase(userID uuid.UUID) *domain.PurchaseView {
	return &domain.PurchaseView{
		TicketPurchase: domain.TicketPurchase{ID: uuid.New(), UserID: userID, Quantity: 2, Status: domain.PurchaseConfirmed},
		EventID:        uuid.New(),
	}
}

func TestQRCode(t *testing.T) {
	ctx := context.Background()
	store := new(MockTicketStore)
	owner := uuid.New()
	p := purchase(owner)
	store.On("GetPurchase", ctx, p.ID).Return(p, nil)
	tickets := NewTickets(store, "secret")

	png, err := tickets.QRCode(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = tickets.QRCode(ctx, uuid.New(), p.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestEntryCode_RoundTripAndTamper(t *testing.T) {
	ctx := context.Background()
	store := new(MockTicketStore)
	p := purchase(uuid.New())
	organizer := uuid.New()
	store.On("GetPurchase", ctx, p.ID).Return(p, nil)
	store.On("GetEventOwner", ctx, p.EventID).Return(organizer, nil)
	tickets := NewTickets(store, "secret")

	code := tickets.EntryCode(p)
	got, err := tickets.Verify(ctx, organizer, code)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = tickets.Verify(ctx, uuid.New(), code)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	tampered := code[:len(code)-1] + "0"
	if tampered == code {
		tampered = code[:len(code)-1] + "1"
	}
	_, err = tickets.VerifyEntryCode(tampered)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = NewTickets(store, "other").VerifyEntryCode(code)
	assert.Error(t, err)
}
