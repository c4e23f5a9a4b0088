package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"ticketmarket/pubsub/outbox"
)

func InitializeDatabaseSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT '',
			role VARCHAR(16) NOT NULL DEFAULT 'user',
			is_fraud BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			last_logged_in TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tickets (
			ticket_id VARCHAR(36) PRIMARY KEY,
			vendor_email VARCHAR(255) NOT NULL,
			vendor_name VARCHAR(255) NOT NULL DEFAULT '',
			title VARCHAR(255) NOT NULL,
			route_from VARCHAR(255) NOT NULL DEFAULT '',
			route_to VARCHAR(255) NOT NULL DEFAULT '',
			transport_type VARCHAR(64) NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			unit_price NUMERIC(12, 2) NOT NULL CHECK (unit_price > 0),
			ticket_quantity INT NOT NULL CHECK (ticket_quantity >= 0),
			departure_at TIMESTAMPTZ NOT NULL,
			status VARCHAR(16) NOT NULL,
			is_advertised BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS tickets_vendor_email_idx ON tickets (vendor_email);

		CREATE TABLE IF NOT EXISTS bookings (
			booking_id VARCHAR(36) PRIMARY KEY,
			user_email VARCHAR(255) NOT NULL,
			vendor_email VARCHAR(255) NOT NULL,
			ticket_id VARCHAR(36) NOT NULL REFERENCES tickets (ticket_id),
			ticket_title VARCHAR(255) NOT NULL,
			booking_quantity INT NOT NULL CHECK (booking_quantity > 0),
			unit_price NUMERIC(12, 2) NOT NULL,
			total_price NUMERIC(12, 2) NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS bookings_user_email_idx ON bookings (user_email);
		CREATE INDEX IF NOT EXISTS bookings_vendor_email_idx ON bookings (vendor_email);

		CREATE TABLE IF NOT EXISTS payments (
			payment_id VARCHAR(36) PRIMARY KEY,
			booking_id VARCHAR(36) NOT NULL UNIQUE REFERENCES bookings (booking_id),
			user_email VARCHAR(255) NOT NULL,
			ticket_title VARCHAR(255) NOT NULL,
			amount NUMERIC(12, 2) NOT NULL,
			currency VARCHAR(3) NOT NULL,
			transaction_id VARCHAR(255) NOT NULL,
			payment_date TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS events (
			event_id VARCHAR(36) PRIMARY KEY,
			published_at TIMESTAMPTZ NOT NULL,
			event_name VARCHAR(255) NOT NULL,
			event_payload JSONB NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("could not initialize database schema: %w", err)
	}

	return outbox.InitializeSchema(db.DB)
}
