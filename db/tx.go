package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ticketmarket/entity"
	"ticketmarket/pubsub/bus"
	"ticketmarket/pubsub/outbox"
)

const (
	postgresUniqueValueViolationErrorCode = "23505"
	postgresSerializationFailureErrorCode = "40001"
	postgresConnectionExceptionClass      = "08"
)

// UpdateInTx runs fn in a transaction. The transaction is committed when fn returns nil.
func UpdateInTx(
	ctx context.Context,
	db *sqlx.DB,
	isolation sql.IsolationLevel,
	fn func(ctx context.Context, tx *sqlx.Tx) error,
) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return storeError(fmt.Errorf("could not begin transaction: %w", err))
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Join(err, rollbackErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = storeError(fmt.Errorf("could not commit transaction: %w", commitErr))
		}
	}()

	return fn(ctx, tx)
}

func publishInTx(ctx context.Context, tx *sqlx.Tx, events ...entity.Event) error {
	outboxPublisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return err
	}

	eventBus, err := bus.NewEventBus(outboxPublisher)
	if err != nil {
		return fmt.Errorf("could not create event bus: %w", err)
	}

	for _, event := range events {
		if err := eventBus.Publish(ctx, event); err != nil {
			return fmt.Errorf("could not publish %T: %w", event, err)
		}
	}

	return nil
}

func isErrorUniqueViolation(err error) bool {
	var psqlErr *pq.Error
	return errors.As(err, &psqlErr) && psqlErr.Code == postgresUniqueValueViolationErrorCode
}

// storeError marks connectivity failures as entity.ErrUpstreamUnavailable.
// Other errors are returned unchanged.
func storeError(err error) error {
	if err == nil {
		return nil
	}

	var (
		psqlErr *pq.Error
		netErr  net.Error
	)
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &netErr),
		errors.As(err, &psqlErr) && psqlErr.Code.Class() == postgresConnectionExceptionClass:
		return fmt.Errorf("%w: %w", entity.ErrUpstreamUnavailable, err)
	case errors.As(err, &psqlErr) && psqlErr.Code == postgresSerializationFailureErrorCode:
		return fmt.Errorf("%w: concurrent update, try again: %w", entity.ErrConflict, err)
	}

	return err
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not get rows affected: %w", err)
	}
	return n, nil
}
