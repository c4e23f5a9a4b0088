package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID            string          `json:"id" db:"payment_id"`
	BookingID     string          `json:"bookingId" db:"booking_id"`
	UserEmail     string          `json:"userEmail" db:"user_email"`
	TicketTitle   string          `json:"ticketTitle" db:"ticket_title"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	TransactionID string          `json:"transactionId" db:"transaction_id"`
	PaymentDate   time.Time       `json:"paymentDate" db:"payment_date"`
}

type CheckoutSessionRequest struct {
	BookingID     string
	CustomerEmail string
	Description   string
	Quantity      int
	Amount        decimal.Decimal
	Currency      string
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}
