package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const (
	SerializationFailureCode = "40001"
	UniqueViolationCode      = "23505"
	ForeignKeyViolationCode  = "23503"

	maxTxAttempts = 3
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx runs fn in a SERIALIZABLE transaction and commits it when fn succeeds.
// fn may run more than once: a transaction aborted with 40001 is retried from
// the start, up to maxTxAttempts times.
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	ctx, span := otel.Tracer("crdb").Start(ctx, "crdb.WithTx")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = r.runTx(ctx, fn)
		if !isSerializationFailure(err) {
			break
		}
		observability.LoggerFrom(ctx).WithField("attempt", attempt+1).Warn("transaction restart after serialization failure")
	}
	if isSerializationFailure(err) {
		err = errors.Mark(err, domain.ErrSerializationFailure)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *Repository) runTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode
}

// mapErr translates driver errors into domain errors; anything else is wrapped with op.
func mapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case UniqueViolationCode:
			return errors.Mark(errors.Wrap(err, op), domain.ErrConflict)
		case ForeignKeyViolationCode:
			return errors.Mark(errors.Wrap(err, op), domain.ErrNotFound)
		case SerializationFailureCode:
			return err
		}
	}
	return errors.Wrap(err, op)
}
