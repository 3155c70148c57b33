// Package crdbtest starts a throwaway CockroachDB node for integration tests
// and seeds the rows most tests need.
package crdbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/event-marketplace/internal/adapters/crdb"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const database = "marketplace"

type Env struct {
	Pool *pgxpool.Pool
	Repo *crdb.Repository
	DSN  string
}

// Start runs a single-node cluster, creates the database and applies the
// migrations. Tests are skipped in -short mode.
func Start(t *testing.T) *Env {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp", "8080/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "26257/tcp")
	require.NoError(t, err)

	root := fmt.Sprintf("postgresql://root@%s:%s/defaultdb?sslmode=disable", host, port.Port())
	conn, err := pgx.Connect(ctx, root)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+database)
	require.NoError(t, err)
	require.NoError(t, conn.Close(ctx))

	dsn := fmt.Sprintf("postgresql://root@%s:%s/%s?sslmode=disable", host, port.Port(), database)
	require.NoError(t, crdb.Migrate(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return &Env{Pool: pool, Repo: crdb.NewRepository(pool), DSN: dsn}
}

func (e *Env) User(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	id := uuid.New()
	u := &domain.User{
		ID:           id,
		Name:         string(role) + " " + id.String()[:8],
		Email:        id.String() + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, e.Repo.CreateUser(context.Background(), u))
	return u
}

// Event inserts an upcoming event a week from now with its ticket.
func (e *Env) Event(t *testing.T, organizerID uuid.UUID, price float64, maxTickets int) *domain.Event {
	t.Helper()
	start := time.Now().Add(7 * 24 * time.Hour).UTC().Truncate(time.Second)
	ev := &domain.Event{
		ID:          uuid.New(),
		Title:       "Night Market",
		Description: "Street food and music",
		StartDate:   start,
		EndDate:     start.Add(6 * time.Hour),
		Location:    "Pier 3",
		Category:    "food",
		OrganizerID: organizerID,
		Status:      domain.EventUpcoming,
	}
	err := e.Repo.WithTx(context.Background(), func(tx pgx.Tx) error {
		if err := e.Repo.InsertEvent(context.Background(), tx, ev); err != nil {
			return err
		}
		return e.Repo.InsertTicket(context.Background(), tx, domain.Ticket{
			ID:          uuid.New(),
			EventID:     ev.ID,
			Price:       price,
			MaxQuantity: maxTickets,
		})
	})
	require.NoError(t, err)
	return ev
}

func (e *Env) Stall(t *testing.T, eventID uuid.UUID, number string, price float64) *domain.Stall {
	t.Helper()
	st := &domain.Stall{
		ID:          uuid.New(),
		EventID:     eventID,
		StallNumber: number,
		Price:       price,
		MaxQuantity: 1,
		IsAvailable: true,
	}
	err := e.Repo.WithTx(context.Background(), func(tx pgx.Tx) error {
		return e.Repo.InsertStall(context.Background(), tx, st)
	})
	require.NoError(t, err)
	return st
}

// BookingStatus reads a booking's status straight from the table.
func (e *Env) BookingStatus(t *testing.T, bookingID uuid.UUID) domain.BookingStatus {
	t.Helper()
	var status domain.BookingStatus
	err := e.Pool.QueryRow(context.Background(), `SELECT status FROM stall_bookings WHERE id = $1`, bookingID).Scan(&status)
	require.NoError(t, err)
	return status
}

func (e *Env) Count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.Pool.QueryRow(context.Background(), `SELECT count(*) FROM `+table).Scan(&n))
	return n
}
