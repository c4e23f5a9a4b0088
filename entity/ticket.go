package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxAdvertisedTickets is the number of tickets that may be advertised at the same time.
const MaxAdvertisedTickets = 6

type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusApproved TicketStatus = "approved"
	TicketStatusRejected TicketStatus = "rejected"
	TicketStatusHidden   TicketStatus = "hidden"
)

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusPending:  {TicketStatusApproved, TicketStatusRejected, TicketStatusHidden},
	TicketStatusApproved: {TicketStatusHidden},
	TicketStatusRejected: {TicketStatusHidden},
}

func ParseTicketStatus(s string) (TicketStatus, error) {
	switch st := TicketStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case TicketStatusPending, TicketStatusApproved, TicketStatusRejected, TicketStatusHidden:
		return st, nil
	default:
		return "", badRequest("unknown ticket status %q", s)
	}
}

func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Ticket struct {
	ID                string          `json:"id" db:"ticket_id"`
	VendorEmail       string          `json:"vendorEmail" db:"vendor_email"`
	VendorName        string          `json:"vendorName" db:"vendor_name"`
	Title             string          `json:"title" db:"title"`
	From              string          `json:"from" db:"route_from"`
	To                string          `json:"to" db:"route_to"`
	TransportType     string          `json:"transportType" db:"transport_type"`
	ImageURL          string          `json:"imageURL" db:"image_url"`
	UnitPrice         decimal.Decimal `json:"unitPrice" db:"unit_price"`
	TicketQuantity    int             `json:"ticketQuantity" db:"ticket_quantity"`
	DepartureDateTime time.Time       `json:"departureDateTime" db:"departure_at"`
	Status            TicketStatus    `json:"status" db:"status"`
	IsAdvertised      bool            `json:"isAdvertised" db:"is_advertised"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
}

type NewTicketParams struct {
	Title             string
	From              string
	To                string
	TransportType     string
	ImageURL          string
	UnitPrice         decimal.Decimal
	TicketQuantity    int
	DepartureDateTime time.Time
}

// NewTicket creates a ticket listed by vendor. New tickets wait for admin review
// and are never advertised.
func NewTicket(vendor User, params NewTicketParams, now time.Time) (Ticket, error) {
	if !vendor.HasRole(RoleVendor) {
		return Ticket{}, ErrNotAVendor
	}
	if vendor.IsFraud {
		return Ticket{}, ErrFraudVendor
	}
	if strings.TrimSpace(params.Title) == "" {
		return Ticket{}, badRequest("title required")
	}
	if !params.UnitPrice.IsPositive() {
		return Ticket{}, badRequest("unit price must be greater than 0")
	}
	if params.TicketQuantity <= 0 {
		return Ticket{}, badRequest("ticket quantity must be greater than 0")
	}
	if !params.DepartureDateTime.After(now) {
		return Ticket{}, badRequest("departure must be in the future")
	}

	return Ticket{
		ID:                uuid.NewString(),
		VendorEmail:       vendor.Email,
		VendorName:        vendor.DisplayName,
		Title:             strings.TrimSpace(params.Title),
		From:              strings.TrimSpace(params.From),
		To:                strings.TrimSpace(params.To),
		TransportType:     strings.TrimSpace(params.TransportType),
		ImageURL:          strings.TrimSpace(params.ImageURL),
		UnitPrice:         params.UnitPrice.Round(2),
		TicketQuantity:    params.TicketQuantity,
		DepartureDateTime: params.DepartureDateTime.UTC(),
		Status:            TicketStatusPending,
		CreatedAt:         now.UTC(),
	}, nil
}

func (t Ticket) Departed(now time.Time) bool {
	return !t.DepartureDateTime.After(now)
}

// CanBeAdvertised checks whether the ticket may join the advertised set,
// given how many tickets are advertised right now.
func (t Ticket) CanBeAdvertised(currentlyAdvertised int) error {
	if t.IsAdvertised {
		return nil
	}
	if t.Status != TicketStatusApproved {
		return ErrTicketNotApproved
	}
	if currentlyAdvertised >= MaxAdvertisedTickets {
		return ErrAdvertisedCapReached
	}
	return nil
}

// Review applies an admin decision to a pending ticket.
func (t Ticket) Review(decision TicketStatus) (Ticket, error) {
	if decision != TicketStatusApproved && decision != TicketStatusRejected {
		return Ticket{}, badRequest("review decision must be approved or rejected, got %q", decision)
	}
	if !t.Status.CanTransitionTo(decision) {
		return Ticket{}, fmt.Errorf("%w: ticket %s -> %s", ErrIllegalTransition, t.Status, decision)
	}

	t.Status = decision
	if decision != TicketStatusApproved {
		t.IsAdvertised = false
	}
	return t, nil
}

type TicketFilter struct {
	VendorEmail string
	Statuses    []TicketStatus
}

type VendorRevenue struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue" db:"total_revenue"`
	TotalTicketsSold  int             `json:"totalTicketsSold" db:"total_tickets_sold"`
	TotalTicketsAdded int             `json:"totalTicketsAdded" db:"total_tickets_added"`
}
