package stall_test

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/adapters/crdb/crdbtest"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/stall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBooking_Integration(t *testing.T) {
	env := crdbtest.Start(t)
	svc := stall.NewService(env.Repo)
	ctx := context.Background()
	organizer := env.User(t, domain.RoleOrganizer)

	t.Run("last stall goes to one vendor", func(t *testing.T) {
		ev := env.Event(t, organizer.ID, 10, 100)
		env.Stall(t, ev.ID, "A1", 75)

		const vendors = 4
		ids := make([]uuid.UUID, vendors)
		for i := range ids {
			ids[i] = env.User(t, domain.RoleVendor).ID
		}

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			booked int
		)
		for _, id := range ids {
			wg.Add(1)
			go func(vendorID uuid.UUID) {
				defer wg.Done()
				_, _, err := svc.RequestBooking(ctx, vendorID, ev.ID, stall.BookingRequest{Size: "3x3"})
				if err == nil {
					mu.Lock()
					booked++
					mu.Unlock()
					return
				}
				assert.True(t,
					errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrSerializationFailure),
					"unexpected error: %v", err)
			}(id)
		}
		wg.Wait()
		assert.Equal(t, 1, booked)
	})

	t.Run("confirm then cancel is rejected", func(t *testing.T) {
		ev := env.Event(t, organizer.ID, 10, 100)
		env.Stall(t, ev.ID, "B1", 75)
		vendor := env.User(t, domain.RoleVendor)

		booking, st, err := svc.RequestBooking(ctx, vendor.ID, ev.ID, stall.BookingRequest{Products: "pottery"})
		require.NoError(t, err)
		assert.Equal(t, "B1", st.StallNumber)

		_, _, err = svc.RequestBooking(ctx, vendor.ID, ev.ID, stall.BookingRequest{})
		assert.ErrorIs(t, err, domain.ErrConflict)

		stranger := env.User(t, domain.RoleOrganizer)
		_, err = svc.ConfirmBooking(ctx, stranger.ID, booking.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		confirmed, err := svc.ConfirmBooking(ctx, organizer.ID, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, confirmed.Status)

		_, err = svc.CancelBooking(ctx, organizer.ID, booking.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, domain.BookingConfirmed, env.BookingStatus(t, booking.ID))

		views, err := svc.ListOrganizerBookings(ctx, organizer.ID, domain.BookingConfirmed)
		require.NoError(t, err)
		require.NotEmpty(t, views)
		assert.Equal(t, vendor.Name, views[0].VendorName)
	})
}
