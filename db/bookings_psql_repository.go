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

const bookingColumns = `booking_id, user_email, vendor_email, ticket_id, ticket_title, booking_quantity,
	unit_price, total_price, status, created_at`

// revenueStatuses are the booking statuses counted as sold.
var revenueStatuses = []string{string(entity.BookingStatusAccepted), string(entity.BookingStatusPaid)}

type BookingsPostgresRepository struct {
	db *sqlx.DB
}

func NewBookingsPostgresRepository(db *sqlx.DB) *BookingsPostgresRepository {
	if db == nil {
		panic("db must be set")
	}

	return &BookingsPostgresRepository{db: db}
}

// Create loads the ticket, builds the booking with newBooking and stores it together
// with BookingCreated_v1.
func (r *BookingsPostgresRepository) Create(
	ctx context.Context,
	ticketID string,
	newBooking func(ticket entity.Ticket) (entity.Booking, error),
) (entity.Booking, error) {
	var booking entity.Booking

	err := UpdateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		ticket, err := ticketByID(ctx, tx, ticketID, false)
		if err != nil {
			return err
		}

		booking, err = newBooking(ticket)
		if err != nil {
			return err
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO
				bookings (`+bookingColumns+`)
			VALUES
				(:booking_id, :user_email, :vendor_email, :ticket_id, :ticket_title, :booking_quantity,
				:unit_price, :total_price, :status, :created_at)
		`, booking)
		if err != nil {
			return fmt.Errorf("could not add booking: %w", err)
		}

		return publishInTx(ctx, tx, entity.BookingCreated_v1{
			Header:          entity.NewEventHeader(),
			BookingID:       booking.ID,
			TicketID:        booking.TicketID,
			UserEmail:       booking.UserEmail,
			VendorEmail:     booking.VendorEmail,
			BookingQuantity: booking.BookingQuantity,
			TotalPrice:      booking.TotalPrice,
		})
	})
	if err != nil {
		return entity.Booking{}, storeError(err)
	}

	return booking, nil
}

func (r *BookingsPostgresRepository) Get(ctx context.Context, bookingID string) (entity.Booking, error) {
	return bookingByID(ctx, r.db, bookingID, false)
}

func (r *BookingsPostgresRepository) FindByUser(ctx context.Context, userEmail string) ([]entity.Booking, error) {
	bookings := []entity.Booking{}
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_email = $1
		ORDER BY created_at DESC
	`, entity.NormalizeEmail(userEmail))
	if err != nil {
		return nil, storeError(fmt.Errorf("could not list bookings of %s: %w", userEmail, err))
	}

	return bookings, nil
}

// FindByVendor lists bookings of vendorEmail's tickets. With no statuses every booking is returned.
func (r *BookingsPostgresRepository) FindByVendor(ctx context.Context, vendorEmail string, statuses ...entity.BookingStatus) ([]entity.Booking, error) {
	bookings := []entity.Booking{}
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE
			vendor_email = $1
			AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at DESC
	`, entity.NormalizeEmail(vendorEmail), pq.Array(lo.Map(statuses, func(s entity.BookingStatus, _ int) string {
		return string(s)
	})))
	if err != nil {
		return nil, storeError(fmt.Errorf("could not list bookings of vendor %s: %w", vendorEmail, err))
	}

	return bookings, nil
}

// Decide applies the vendor's decision. The write is conditional on the status the decision
// was made against, so two racing decisions cannot both win.
func (r *BookingsPostgresRepository) Decide(
	ctx context.Context,
	bookingID string,
	decide func(booking entity.Booking) (entity.Booking, error),
) (entity.Booking, error) {
	var booking entity.Booking

	err := UpdateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		current, err := bookingByID(ctx, tx, bookingID, true)
		if err != nil {
			return err
		}

		booking, err = decide(current)
		if err != nil {
			return err
		}

		if err := transitionBookingStatus(ctx, tx, bookingID, booking.Status); err != nil {
			return err
		}

		var event entity.Event
		switch booking.Status {
		case entity.BookingStatusAccepted:
			event = entity.BookingAccepted_v1{
				Header:      entity.NewEventHeader(),
				BookingID:   booking.ID,
				VendorEmail: booking.VendorEmail,
			}
		case entity.BookingStatusRejected:
			event = entity.BookingRejected_v1{
				Header:      entity.NewEventHeader(),
				BookingID:   booking.ID,
				VendorEmail: booking.VendorEmail,
			}
		default:
			return fmt.Errorf("unexpected booking decision %s", booking.Status)
		}

		return publishInTx(ctx, tx, event)
	})
	if err != nil {
		return entity.Booking{}, storeError(err)
	}

	return booking, nil
}

// Pay settles an accepted booking. In one transaction it marks the booking paid, takes the
// booked seats from the ticket and stores the payment. Every write re-checks its precondition,
// so paying the same booking twice fails with entity.ErrConflict and leaves no trace.
func (r *BookingsPostgresRepository) Pay(
	ctx context.Context,
	bookingID string,
	pay func(booking entity.Booking, ticket entity.Ticket) (entity.Booking, entity.Payment, error),
) (entity.Booking, entity.Payment, error) {
	var (
		booking entity.Booking
		payment entity.Payment
	)

	err := UpdateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		current, err := bookingByID(ctx, tx, bookingID, true)
		if err != nil {
			return err
		}

		ticket, err := ticketByID(ctx, tx, current.TicketID, true)
		if err != nil {
			return err
		}

		booking, payment, err = pay(current, ticket)
		if err != nil {
			return err
		}

		if err := transitionBookingStatus(ctx, tx, bookingID, entity.BookingStatusPaid); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE tickets SET ticket_quantity = ticket_quantity - $2
			WHERE ticket_id = $1 AND ticket_quantity >= $2
		`, ticket.ID, booking.BookingQuantity)
		if err != nil {
			return fmt.Errorf("could not decrement quantity of ticket %s: %w", ticket.ID, err)
		}
		if n, err := rowsAffected(res); err != nil {
			return err
		} else if n == 0 {
			return entity.ErrNoAvailableTickets
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO
				payments (payment_id, booking_id, user_email, ticket_title, amount, currency, transaction_id, payment_date)
			VALUES
				(:payment_id, :booking_id, :user_email, :ticket_title, :amount, :currency, :transaction_id, :payment_date)
		`, payment)
		if isErrorUniqueViolation(err) {
			return entity.ErrAlreadyPaid
		}
		if err != nil {
			return fmt.Errorf("could not add payment: %w", err)
		}

		return publishInTx(ctx, tx, entity.BookingPaid_v1{
			Header:          entity.NewEventHeader(),
			BookingID:       booking.ID,
			PaymentID:       payment.ID,
			TicketID:        booking.TicketID,
			UserEmail:       booking.UserEmail,
			BookingQuantity: booking.BookingQuantity,
			Amount:          payment.Amount,
			TransactionID:   payment.TransactionID,
		})
	})
	if err != nil {
		return entity.Booking{}, entity.Payment{}, storeError(err)
	}

	return booking, payment, nil
}

func (r *BookingsPostgresRepository) VendorRevenue(ctx context.Context, vendorEmail string) (entity.VendorRevenue, error) {
	var revenue entity.VendorRevenue
	err := r.db.GetContext(ctx, &revenue, `
		SELECT
			COALESCE(SUM(b.booking_quantity * b.unit_price), 0) AS total_revenue,
			COALESCE(SUM(b.booking_quantity), 0) AS total_tickets_sold,
			(SELECT COUNT(*) FROM tickets t WHERE t.vendor_email = $1) AS total_tickets_added
		FROM bookings b
		WHERE b.vendor_email = $1 AND b.status = ANY($2::text[])
	`, entity.NormalizeEmail(vendorEmail), pq.Array(revenueStatuses))
	if err != nil {
		return entity.VendorRevenue{}, storeError(fmt.Errorf("could not compute revenue of %s: %w", vendorEmail, err))
	}

	return revenue, nil
}

// transitionBookingStatus moves the booking to next, guarded by the only status next is reachable from.
func transitionBookingStatus(ctx context.Context, tx *sqlx.Tx, bookingID string, next entity.BookingStatus) error {
	from, ok := entity.SourceStatus(next)
	if !ok {
		return fmt.Errorf("%w: no transition leads to %s", entity.ErrIllegalTransition, next)
	}

	return updateBookingStatus(ctx, tx, bookingID, from, next)
}

func updateBookingStatus(ctx context.Context, tx *sqlx.Tx, bookingID string, from, to entity.BookingStatus) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE bookings SET status = $3
		WHERE booking_id = $1 AND status = $2
	`, bookingID, from, to)
	if err != nil {
		return fmt.Errorf("could not update booking %s: %w", bookingID, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: booking %s is no longer %s", entity.ErrIllegalTransition, bookingID, from)
	}

	return nil
}

func bookingByID(ctx context.Context, q sqlx.QueryerContext, bookingID string, forUpdate bool) (entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var booking entity.Booking
	err := sqlx.GetContext(ctx, q, &booking, query, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Booking{}, fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
	}
	if err != nil {
		return entity.Booking{}, storeError(fmt.Errorf("could not get booking %s: %w", bookingID, err))
	}

	return booking, nil
}
