package entity

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned to the HTTP layer wraps exactly one of them.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrExpired             = errors.New("expired")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

var (
	ErrIllegalTransition    = fmt.Errorf("%w: illegal status transition", ErrConflict)
	ErrAdvertisedCapReached = fmt.Errorf("%w: advertised tickets limit reached", ErrConflict)
	ErrNoAvailableTickets   = fmt.Errorf("%w: no available tickets", ErrConflict)
	ErrTicketNotApproved    = fmt.Errorf("%w: ticket is not approved", ErrConflict)
	ErrAlreadyPaid          = fmt.Errorf("%w: booking is already paid", ErrConflict)
	ErrNotAVendor           = fmt.Errorf("%w: user is not a vendor", ErrConflict)
	ErrDeparturePassed      = fmt.Errorf("%w: departure time has passed", ErrExpired)
	ErrNotBookingOwner      = fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	ErrNotBookingVendor     = fmt.Errorf("%w: booking belongs to another vendor", ErrForbidden)
	ErrFraudVendor          = fmt.Errorf("%w: vendor is flagged as fraud", ErrForbidden)
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
