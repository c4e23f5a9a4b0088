package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"ticketmarket/entity"
)

const ticketColumns = `ticket_id, vendor_email, vendor_name, title, route_from, route_to, transport_type,
	image_url, unit_price, ticket_quantity, departure_at, status, is_advertised, created_at`

// advertisedLockKey serializes every transaction that may grow the advertised set.
const advertisedLockKey = 7_100_001

type TicketsPostgresRepository struct {
	db *sqlx.DB
}

func NewTicketsPostgresRepository(db *sqlx.DB) *TicketsPostgresRepository {
	if db == nil {
		panic("db must be set")
	}

	return &TicketsPostgresRepository{db: db}
}

// Store adds a new ticket and publishes TicketCreated_v1.
func (r *TicketsPostgresRepository) Store(ctx context.Context, ticket entity.Ticket) error {
	return UpdateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO
				tickets (`+ticketColumns+`)
			VALUES
				(:ticket_id, :vendor_email, :vendor_name, :title, :route_from, :route_to, :transport_type,
				:image_url, :unit_price, :ticket_quantity, :departure_at, :status, :is_advertised, :created_at)
		`, ticket)
		if isErrorUniqueViolation(err) {
			return fmt.Errorf("%w: ticket %s already exists", entity.ErrConflict, ticket.ID)
		}
		if err != nil {
			return storeError(fmt.Errorf("could not add ticket: %w", err))
		}

		return publishInTx(ctx, tx, entity.TicketCreated_v1{
			Header:         entity.NewEventHeader(),
			TicketID:       ticket.ID,
			VendorEmail:    ticket.VendorEmail,
			Title:          ticket.Title,
			UnitPrice:      ticket.UnitPrice,
			TicketQuantity: ticket.TicketQuantity,
		})
	})
}

func (r *TicketsPostgresRepository) Get(ctx context.Context, ticketID string) (entity.Ticket, error) {
	return ticketByID(ctx, r.db, ticketID, false)
}

func (r *TicketsPostgresRepository) FindAll(ctx context.Context, filter entity.TicketFilter) ([]entity.Ticket, error) {
	statuses := lo.Map(filter.Statuses, func(s entity.TicketStatus, _ int) string {
		return string(s)
	})

	tickets := []entity.Ticket{}
	err := r.db.SelectContext(ctx, &tickets, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE
			($1 = '' OR vendor_email = $1)
			AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at DESC
	`, entity.NormalizeEmail(filter.VendorEmail), pq.Array(statuses))
	if err != nil {
		return nil, storeError(fmt.Errorf("could not list tickets: %w", err))
	}

	return tickets, nil
}

func (r *TicketsPostgresRepository) FindAdvertised(ctx context.Context) ([]entity.Ticket, error) {
	tickets := []entity.Ticket{}
	err := r.db.SelectContext(ctx, &tickets, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE is_advertised AND status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, entity.TicketStatusApproved, entity.MaxAdvertisedTickets)
	if err != nil {
		return nil, storeError(fmt.Errorf("could not list advertised tickets: %w", err))
	}

	return tickets, nil
}

// SetAdvertised toggles the advertised flag. Count and write happen under one advisory lock,
// so concurrent toggles can never push the advertised set above entity.MaxAdvertisedTickets.
func (r *TicketsPostgresRepository) SetAdvertised(ctx context.Context, ticketID string, advertised bool) (entity.Ticket, error) {
	var ticket entity.Ticket

	err := UpdateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		if advertised {
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advertisedLockKey); err != nil {
				return fmt.Errorf("could not lock advertised tickets: %w", err)
			}
		}

		var err error
		ticket, err = ticketByID(ctx, tx, ticketID, true)
		if err != nil {
			return err
		}
		if ticket.IsAdvertised == advertised {
			return nil
		}

		if advertised {
			var currentlyAdvertised int
			if err := tx.GetContext(ctx, &currentlyAdvertised, `SELECT COUNT(*) FROM tickets WHERE is_advertised`); err != nil {
				return fmt.Errorf("could not count advertised tickets: %w", err)
			}
			if err := ticket.CanBeAdvertised(currentlyAdvertised); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `UPDATE tickets SET is_advertised = $2 WHERE ticket_id = $1`, ticketID, advertised); err != nil {
			return fmt.Errorf("could not update ticket %s: %w", ticketID, err)
		}
		ticket.IsAdvertised = advertised

		return nil
	})
	if err != nil {
		return entity.Ticket{}, storeError(err)
	}

	return ticket, nil
}

// Review moves a pending ticket to the admin's decision and publishes TicketReviewed_v1.
func (r *TicketsPostgresRepository) Review(ctx context.Context, ticketID string, decision entity.TicketStatus) (entity.Ticket, error) {
	var ticket entity.Ticket

	err := UpdateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		current, err := ticketByID(ctx, tx, ticketID, true)
		if err != nil {
			return err
		}

		ticket, err = current.Review(decision)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE tickets SET status = $2, is_advertised = $3
			WHERE ticket_id = $1 AND status = $4
		`, ticketID, ticket.Status, ticket.IsAdvertised, current.Status)
		if err != nil {
			return fmt.Errorf("could not update ticket %s: %w", ticketID, err)
		}
		if n, err := rowsAffected(res); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: ticket %s changed concurrently", entity.ErrIllegalTransition, ticketID)
		}

		return publishInTx(ctx, tx, entity.TicketReviewed_v1{
			Header:   entity.NewEventHeader(),
			TicketID: ticket.ID,
			Status:   ticket.Status,
		})
	})
	if err != nil {
		return entity.Ticket{}, storeError(err)
	}

	return ticket, nil
}

// HideByVendor hides every ticket of vendorEmail and drops them from the advertised set.
// It is safe to call again for the same vendor.
func (r *TicketsPostgresRepository) HideByVendor(ctx context.Context, vendorEmail string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET status = $2, is_advertised = FALSE
		WHERE vendor_email = $1 AND status <> $2
	`, entity.NormalizeEmail(vendorEmail), entity.TicketStatusHidden)
	if err != nil {
		return 0, storeError(fmt.Errorf("could not hide tickets of %s: %w", vendorEmail, err))
	}

	return rowsAffected(res)
}

func ticketByID(ctx context.Context, q sqlx.QueryerContext, ticketID string, forUpdate bool) (entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var ticket entity.Ticket
	err := sqlx.GetContext(ctx, q, &ticket, query, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Ticket{}, fmt.Errorf("%w: ticket %s", entity.ErrNotFound, ticketID)
	}
	if err != nil {
		return entity.Ticket{}, storeError(fmt.Errorf("could not get ticket %s: %w", ticketID, err))
	}

	return ticket, nil
}
