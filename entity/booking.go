package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "pending"
	BookingStatusAccepted BookingStatus = "accepted"
	BookingStatusRejected BookingStatus = "rejected"
	BookingStatusPaid     BookingStatus = "paid"
)

// bookingTransitions is the whole booking lifecycle. Rejected and paid are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusAccepted, BookingStatusRejected},
	BookingStatusAccepted: {BookingStatusPaid},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) TransitionTo(next BookingStatus) error {
	if s.CanTransitionTo(next) {
		return nil
	}
	if s == BookingStatusPaid && next == BookingStatusPaid {
		return ErrAlreadyPaid
	}
	return fmt.Errorf("%w: booking %s -> %s", ErrIllegalTransition, s, next)
}

// SourceStatus returns the single status from which next is reachable.
// Repositories use it as the guard of conditional status updates.
func SourceStatus(next BookingStatus) (BookingStatus, bool) {
	for from, targets := range bookingTransitions {
		for _, to := range targets {
			if to == next {
				return from, true
			}
		}
	}
	return "", false
}

type Booking struct {
	ID              string          `json:"id" db:"booking_id"`
	UserEmail       string          `json:"userEmail" db:"user_email"`
	VendorEmail     string          `json:"vendorEmail" db:"vendor_email"`
	TicketID        string          `json:"ticketId" db:"ticket_id"`
	TicketTitle     string          `json:"ticketTitle" db:"ticket_title"`
	BookingQuantity int             `json:"bookingQuantity" db:"booking_quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice" db:"unit_price"`
	TotalPrice      decimal.Decimal `json:"totalPrice" db:"total_price"`
	Status          BookingStatus   `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}

// NewBooking reserves quantity seats of ticket for userEmail, which must be the
// verified identity of the caller. Price is snapshotted from the ticket.
func NewBooking(userEmail string, ticket Ticket, quantity int, now time.Time) (Booking, error) {
	userEmail = NormalizeEmail(userEmail)
	if userEmail == "" {
		return Booking{}, ErrUnauthorized
	}
	if quantity <= 0 {
		return Booking{}, badRequest("booking quantity must be greater than 0")
	}
	if ticket.Status != TicketStatusApproved {
		return Booking{}, ErrTicketNotApproved
	}
	if ticket.Departed(now) {
		return Booking{}, ErrDeparturePassed
	}
	if quantity > ticket.TicketQuantity {
		return Booking{}, ErrNoAvailableTickets
	}

	return Booking{
		ID:              uuid.NewString(),
		UserEmail:       userEmail,
		VendorEmail:     ticket.VendorEmail,
		TicketID:        ticket.ID,
		TicketTitle:     ticket.Title,
		BookingQuantity: quantity,
		UnitPrice:       ticket.UnitPrice,
		TotalPrice:      ticket.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Status:          BookingStatusPending,
		CreatedAt:       now.UTC(),
	}, nil
}

// Decide is the vendor's answer to a pending booking.
func (b Booking) Decide(vendorEmail string, next BookingStatus) (Booking, error) {
	if next != BookingStatusAccepted && next != BookingStatusRejected {
		return Booking{}, badRequest("vendor can only accept or reject, got %q", next)
	}
	if NormalizeEmail(vendorEmail) != b.VendorEmail {
		return Booking{}, ErrNotBookingVendor
	}
	if err := b.Status.TransitionTo(next); err != nil {
		return Booking{}, err
	}

	b.Status = next
	return b, nil
}

// CheckPayable validates everything that must hold before money moves:
// the caller owns the booking, the booking is accepted and the ticket has not departed.
func (b Booking) CheckPayable(callerEmail string, ticket Ticket, now time.Time) error {
	if NormalizeEmail(callerEmail) != b.UserEmail {
		return ErrNotBookingOwner
	}
	if err := b.Status.TransitionTo(BookingStatusPaid); err != nil {
		return err
	}
	if ticket.ID != b.TicketID {
		return fmt.Errorf("booking %s references ticket %s, got %s", b.ID, b.TicketID, ticket.ID)
	}
	if ticket.Departed(now) {
		return ErrDeparturePassed
	}
	return nil
}

// Pay settles the booking and returns the booking in its paid state together with
// the payment record that must be stored along with it.
func (b Booking) Pay(callerEmail string, ticket Ticket, transactionID, currency string, now time.Time) (Booking, Payment, error) {
	if err := b.CheckPayable(callerEmail, ticket, now); err != nil {
		return Booking{}, Payment{}, err
	}
	if transactionID == "" {
		return Booking{}, Payment{}, badRequest("transaction id required")
	}

	b.Status = BookingStatusPaid

	return b, Payment{
		ID:            uuid.NewString(),
		BookingID:     b.ID,
		UserEmail:     b.UserEmail,
		TicketTitle:   b.TicketTitle,
		Amount:        b.TotalPrice,
		Currency:      currency,
		TransactionID: transactionID,
		PaymentDate:   now.UTC(),
	}, nil
}
