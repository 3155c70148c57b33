package payment

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-marketplace/internal/domain"
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

func (m *MockStore) LockTicketForEvent(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) (*domain.Ticket, error) {
	args := m.Called(ctx, tx, eventID)
	if t := args.Get(0); t != nil {
		return t.(*domain.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) SoldTickets(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, ticketID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) InsertTicketPurchase(ctx context.Context, tx pgx.Tx, p *domain.TicketPurchase) error {
	return m.Called(ctx, tx, p).Error(0)
}

func (m *MockStore) LockPendingStallBooking(ctx context.Context, tx pgx.Tx, bookingID, vendorID uuid.UUID) (*domain.StallBooking, float64, error) {
	args := m.Called(ctx, tx, bookingID, vendorID)
	if b := args.Get(0); b != nil {
		return b.(*domain.StallBooking), args.Get(1).(float64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *MockStore) UpdateStallBookingStatus(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, status domain.BookingStatus) error {
	return m.Called(ctx, tx, bookingID, status).Error(0)
}

func (m *MockStore) InsertPayment(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	return m.Called(ctx, tx, p).Error(0)
}

func (m *MockStore) LinkTicketPayment(ctx context.Context, tx pgx.Tx, paymentID, purchaseID uuid.UUID) error {
	return m.Called(ctx, tx, paymentID, purchaseID).Error(0)
}

func (m *MockStore) LinkStallPayment(ctx context.Context, tx pgx.Tx, paymentID, bookingID uuid.UUID) error {
	return m.Called(ctx, tx, paymentID, bookingID).Error(0)
}

func (m *MockStore) InsertOutbox(ctx context.Context, tx pgx.Tx, record domain.OutboxRecord) error {
	return m.Called(ctx, tx, record).Error(0)
}

func (m *MockStore) GetPayment(ctx context.Context, id uuid.UUID) (*domain.PaymentDetail, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*domain.PaymentDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateTrending(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var noTx pgx.Tx

func TestProcessPayment_InvalidMethodRejectedBeforeWrites(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store, nil, "USD")
	eventID := uuid.New()

	_, err := svc.ProcessPayment(context.Background(), Request{UserID: uuid.New(), EventID: &eventID, PaymentMethod: "bitcoin"})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)
	store.AssertNotCalled(t, "LockTicketForEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPayment_NothingToCharge(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store, nil, "USD")

	_, err := svc.ProcessPayment(context.Background(), Request{UserID: uuid.New(), PaymentMethod: domain.MethodPayPal})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Equal(t, "Invalid payment amount", err.Error())
	store.AssertNotCalled(t, "InsertPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPayment_InsufficientCapacity(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := NewService(store, nil, "USD")
	eventID := uuid.New()
	ticket := &domain.Ticket{ID: uuid.New(), EventID: eventID, Price: 25, MaxQuantity: 10}

	store.On("LockTicketForEvent", ctx, noTx, eventID).Return(ticket, nil)
	store.On("SoldTickets", ctx, noTx, ticket.ID).Return(10, nil)

	_, err := svc.ProcessPayment(ctx, Request{UserID: uuid.New(), EventID: &eventID, TicketQuantity: 1, PaymentMethod: domain.MethodCreditCard})
	var capErr *domain.InsufficientCapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 0, capErr.Remaining)
	assert.EqualError(t, err, "Only 0 tickets available")
	store.AssertNotCalled(t, "InsertTicketPurchase", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPayment_TicketPurchase(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	inval := new(MockInvalidator)
	svc := NewService(store, inval, "USD")
	userID, eventID := uuid.New(), uuid.New()
	ticket := &domain.Ticket{ID: uuid.New(), EventID: eventID, Price: 12.5, MaxQuantity: 10}

	store.On("LockTicketForEvent", ctx, noTx, eventID).Return(ticket, nil)
	store.On("SoldTickets", ctx, noTx, ticket.ID).Return(6, nil)
	store.On("InsertTicketPurchase", ctx, noTx, mock.MatchedBy(func(p *domain.TicketPurchase) bool {
		return p.Quantity == 4 && p.UserID == userID && p.TicketID == ticket.ID && p.Status == domain.PurchaseConfirmed
	})).Return(nil)
	store.On("InsertPayment", ctx, noTx, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Amount == 50 && p.Status == domain.PaymentCompleted && p.Method == domain.MethodCreditCard
	})).Return(nil)
	store.On("LinkTicketPayment", ctx, noTx, mock.Anything, mock.Anything).Return(nil)
	store.On("InsertOutbox", ctx, noTx, mock.MatchedBy(func(r domain.OutboxRecord) bool {
		return r.EventType == "payment.completed"
	})).Return(nil)
	inval.On("InvalidateTrending", ctx).Return(nil)

	res, err := svc.ProcessPayment(ctx, Request{UserID: userID, EventID: &eventID, TicketQuantity: 4, PaymentMethod: domain.MethodCreditCard})
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Amount)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, domain.PaymentCompleted, res.Status)
	require.Len(t, res.Items, 1)
	assert.Equal(t, ItemTicket, res.Items[0].Type)
	assert.Equal(t, 4, res.Items[0].Quantity)
	store.AssertNotCalled(t, "LinkStallPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
	inval.AssertExpectations(t)
}

func TestProcessPayment_AmountInWholeCents(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := NewService(store, nil, "USD")
	eventID := uuid.New()
	ticket := &domain.Ticket{ID: uuid.New(), EventID: eventID, Price: 0.1, MaxQuantity: 10}

	store.On("LockTicketForEvent", ctx, noTx, eventID).Return(ticket, nil)
	store.On("SoldTickets", ctx, noTx, ticket.ID).Return(0, nil)
	store.On("InsertTicketPurchase", ctx, noTx, mock.Anything).Return(nil)
	store.On("InsertPayment", ctx, noTx, mock.MatchedBy(func(p *domain.Payment) bool { return p.Amount == 0.3 })).Return(nil)
	store.On("LinkTicketPayment", ctx, noTx, mock.Anything, mock.Anything).Return(nil)
	store.On("InsertOutbox", ctx, noTx, mock.Anything).Return(nil)

	res, err := svc.ProcessPayment(ctx, Request{UserID: uuid.New(), EventID: &eventID, TicketQuantity: 3, PaymentMethod: domain.MethodPayPal})
	require.NoError(t, err)
	assert.Equal(t, 0.3, res.Amount)
	assert.Equal(t, 0.3, res.Items[0].Amount)
	store.AssertExpectations(t)
}

func TestProcessPayment_DefaultQuantityIsOne(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := NewService(store, nil, "USD")
	eventID := uuid.New()
	ticket := &domain.Ticket{ID: uuid.New(), EventID: eventID, Price: 30, MaxQuantity: 1}

	store.On("LockTicketForEvent", ctx, noTx, eventID).Return(ticket, nil)
	store.On("SoldTickets", ctx, noTx, ticket.ID).Return(0, nil)
	store.On("InsertTicketPurchase", ctx, noTx, mock.MatchedBy(func(p *domain.TicketPurchase) bool { return p.Quantity == 1 })).Return(nil)
	store.On("InsertPayment", ctx, noTx, mock.Anything).Return(nil)
	store.On("LinkTicketPayment", ctx, noTx, mock.Anything, mock.Anything).Return(nil)
	store.On("InsertOutbox", ctx, noTx, mock.Anything).Return(nil)

	res, err := svc.ProcessPayment(ctx, Request{UserID: uuid.New(), EventID: &eventID, PaymentMethod: domain.MethodPayPal})
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Amount)
}

func TestProcessPayment_TicketAndStallTogether(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := NewService(store, nil, "USD")
	vendorID, eventID, bookingID := uuid.New(), uuid.New(), uuid.New()
	ticket := &domain.Ticket{ID: uuid.New(), EventID: eventID, Price: 10, MaxQuantity: 100}
	booking := &domain.StallBooking{ID: bookingID, VendorID: vendorID, EventID: eventID, Status: domain.BookingPending}

	store.On("LockTicketForEvent", ctx, noTx, eventID).Return(ticket, nil)
	store.On("SoldTickets", ctx, noTx, ticket.ID).Return(0, nil)
	store.On("InsertTicketPurchase", ctx, noTx, mock.Anything).Return(nil)
	store.On("LockPendingStallBooking", ctx, noTx, bookingID, vendorID).Return(booking, 150.0, nil)
	store.On("UpdateStallBookingStatus", ctx, noTx, bookingID, domain.BookingConfirmed).Return(nil)
	store.On("InsertPayment", ctx, noTx, mock.MatchedBy(func(p *domain.Payment) bool { return p.Amount == 170 })).Return(nil)
	store.On("LinkTicketPayment", ctx, noTx, mock.Anything, mock.Anything).Return(nil)
	store.On("LinkStallPayment", ctx, noTx, mock.Anything, bookingID).Return(nil)
	store.On("InsertOutbox", ctx, noTx, mock.Anything).Return(nil)

	res, err := svc.ProcessPayment(ctx, Request{
		UserID: vendorID, EventID: &eventID, TicketQuantity: 2, StallBookingID: &bookingID, PaymentMethod: domain.MethodCreditCard,
	})
	require.NoError(t, err)
	assert.Equal(t, 170.0, res.Amount)
	assert.Len(t, res.Items, 2)
	store.AssertExpectations(t)
}

func TestProcessPayment_StallBookingNotPending(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := NewService(store, nil, "USD")
	vendorID, bookingID := uuid.New(), uuid.New()

	store.On("LockPendingStallBooking", ctx, noTx, bookingID, vendorID).Return(nil, 0.0, domain.ErrNotFound)

	_, err := svc.ProcessPayment(ctx, Request{UserID: vendorID, StallBookingID: &bookingID, PaymentMethod: domain.MethodPayPal})
	assert.ErrorIs(t, err, domain.ErrBookingNotPending)
	assert.Equal(t, "Stall booking not found or already processed", err.Error())
	store.AssertNotCalled(t, "UpdateStallBookingStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPayment_PaymentInsertFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := NewService(store, nil, "USD")
	vendorID, bookingID := uuid.New(), uuid.New()
	booking := &domain.StallBooking{ID: bookingID, VendorID: vendorID, Status: domain.BookingPending}
	boom := errors.New("insert payment: connection reset")

	store.On("LockPendingStallBooking", ctx, noTx, bookingID, vendorID).Return(booking, 80.0, nil)
	store.On("UpdateStallBookingStatus", ctx, noTx, bookingID, domain.BookingConfirmed).Return(nil)
	store.On("InsertPayment", ctx, noTx, mock.Anything).Return(boom)

	_, err := svc.ProcessPayment(ctx, Request{UserID: vendorID, StallBookingID: &bookingID, PaymentMethod: domain.MethodPayPal})
	assert.ErrorIs(t, err, boom)
	store.AssertNotCalled(t, "LinkStallPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "InsertOutbox", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPayment_UnknownEvent(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := NewService(store, nil, "USD")
	eventID := uuid.New()

	store.On("LockTicketForEvent", ctx, noTx, eventID).Return(nil, domain.ErrNotFound)

	_, err := svc.ProcessPayment(ctx, Request{UserID: uuid.New(), EventID: &eventID, PaymentMethod: domain.MethodPayPal})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, "Ticket not found for this event", domain.Message(err, ""))
}

func TestGetPayment_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := NewService(store, nil, "USD")
	owner, paymentID := uuid.New(), uuid.New()
	detail := &domain.PaymentDetail{Payment: domain.Payment{ID: paymentID, UserID: owner}}

	store.On("GetPayment", ctx, paymentID).Return(detail, nil)

	got, err := svc.GetPayment(ctx, owner, paymentID)
	require.NoError(t, err)
	assert.Equal(t, paymentID, got.ID)

	_, err = svc.GetPayment(ctx, uuid.New(), paymentID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
