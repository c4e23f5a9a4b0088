package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ticketmarket/entity"
)

const paymentColumns = `payment_id, booking_id, user_email, ticket_title, amount, currency, transaction_id, payment_date`

// PaymentsPostgresRepository reads payments. Payments are only ever written by
// BookingsPostgresRepository.Pay.
type PaymentsPostgresRepository struct {
	db *sqlx.DB
}

func NewPaymentsPostgresRepository(db *sqlx.DB) *PaymentsPostgresRepository {
	if db == nil {
		panic("db must be set")
	}

	return &PaymentsPostgresRepository{db: db}
}

func (r *PaymentsPostgresRepository) FindByUser(ctx context.Context, userEmail string) ([]entity.Payment, error) {
	payments := []entity.Payment{}
	err := r.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_email = $1
		ORDER BY payment_date DESC
	`, entity.NormalizeEmail(userEmail))
	if err != nil {
		return nil, storeError(fmt.Errorf("could not list payments of %s: %w", userEmail, err))
	}

	return payments, nil
}

func (r *PaymentsPostgresRepository) GetByBookingID(ctx context.Context, bookingID string) (entity.Payment, error) {
	var payment entity.Payment
	err := r.db.GetContext(ctx, &payment, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Payment{}, fmt.Errorf("%w: payment of booking %s", entity.ErrNotFound, bookingID)
	}
	if err != nil {
		return entity.Payment{}, storeError(fmt.Errorf("could not get payment of booking %s: %w", bookingID, err))
	}

	return payment, nil
}
