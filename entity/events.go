package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Event interface {
	IsInternal() bool
}

type EventHeader struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

type TicketCreated_v1 struct {
	Header         EventHeader     `json:"header"`
	TicketID       string          `json:"ticket_id"`
	VendorEmail    string          `json:"vendor_email"`
	Title          string          `json:"title"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TicketQuantity int             `json:"ticket_quantity"`
}

func (e TicketCreated_v1) IsInternal() bool { return false }

type TicketReviewed_v1 struct {
	Header   EventHeader  `json:"header"`
	TicketID string       `json:"ticket_id"`
	Status   TicketStatus `json:"status"`
}

func (e TicketReviewed_v1) IsInternal() bool { return false }

type BookingCreated_v1 struct {
	Header          EventHeader     `json:"header"`
	BookingID       string          `json:"booking_id"`
	TicketID        string          `json:"ticket_id"`
	UserEmail       string          `json:"user_email"`
	VendorEmail     string          `json:"vendor_email"`
	BookingQuantity int             `json:"booking_quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

func (e BookingCreated_v1) IsInternal() bool { return false }

type BookingAccepted_v1 struct {
	Header      EventHeader `json:"header"`
	BookingID   string      `json:"booking_id"`
	VendorEmail string      `json:"vendor_email"`
}

func (e BookingAccepted_v1) IsInternal() bool { return false }

type BookingRejected_v1 struct {
	Header      EventHeader `json:"header"`
	BookingID   string      `json:"booking_id"`
	VendorEmail string      `json:"vendor_email"`
}

func (e BookingRejected_v1) IsInternal() bool { return false }

type BookingPaid_v1 struct {
	Header          EventHeader     `json:"header"`
	BookingID       string          `json:"booking_id"`
	PaymentID       string          `json:"payment_id"`
	TicketID        string          `json:"ticket_id"`
	UserEmail       string          `json:"user_email"`
	BookingQuantity int             `json:"booking_quantity"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionID   string          `json:"transaction_id"`
}

func (e BookingPaid_v1) IsInternal() bool { return false }

type VendorMarkedFraud_v1 struct {
	Header      EventHeader `json:"header"`
	VendorEmail string      `json:"vendor_email"`
}

func (e VendorMarkedFraud_v1) IsInternal() bool { return false }
