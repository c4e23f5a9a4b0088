package http

import (
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"ticketmarket/entity"
	"ticketmarket/metrics"
)

type postBookingRequest struct {
	TicketID        string `json:"ticketId"`
	BookingQuantity int    `json:"bookingQuantity"`
}

type payBookingRequest struct {
	TransactionID string `json:"transactionId"`
}

type payBookingResponse struct {
	Booking entity.Booking `json:"booking"`
	Payment entity.Payment `json:"payment"`
}

// PostBookings books seats for the caller. Any email in the body is ignored.
func (s *Server) PostBookings(c echo.Context) error {
	var request postBookingRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.TicketID == "" {
		return fmt.Errorf("%w: ticketId required", entity.ErrBadRequest)
	}

	email, err := identity(c)
	if err != nil {
		return err
	}

	booking, err := s.bookingsRepo.Create(c.Request().Context(), request.TicketID, func(ticket entity.Ticket) (entity.Booking, error) {
		return entity.NewBooking(email, ticket, request.BookingQuantity, s.now())
	})
	if err != nil {
		return err
	}

	metrics.BookingTransitions.WithLabelValues(string(booking.Status)).Inc()

	return c.JSON(http.StatusCreated, booking)
}

func (s *Server) GetUserBookings(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	bookings, err := s.bookingsRepo.FindByUser(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bookings)
}

func (s *Server) PatchAcceptBooking(c echo.Context) error {
	return s.decideBooking(c, entity.BookingStatusAccepted)
}

func (s *Server) PatchRejectBooking(c echo.Context) error {
	return s.decideBooking(c, entity.BookingStatusRejected)
}

func (s *Server) decideBooking(c echo.Context, decision entity.BookingStatus) error {
	email, err := identity(c)
	if err != nil {
		return err
	}

	booking, err := s.bookingsRepo.Decide(c.Request().Context(), c.Param("id"), func(booking entity.Booking) (entity.Booking, error) {
		return booking.Decide(email, decision)
	})
	if err != nil {
		return err
	}

	metrics.BookingTransitions.WithLabelValues(string(booking.Status)).Inc()

	return c.JSON(http.StatusOK, booking)
}

// PatchPayBooking settles an accepted booking of the caller. The transaction id of the
// checkout provider is recorded when given.
func (s *Server) PatchPayBooking(c echo.Context) error {
	var request payBookingRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&request); err != nil {
			return err
		}
	}
	if request.TransactionID == "" {
		request.TransactionID = shortuuid.New()
	}

	email, err := identity(c)
	if err != nil {
		return err
	}

	booking, payment, err := s.bookingsRepo.Pay(
		c.Request().Context(),
		c.Param("id"),
		func(booking entity.Booking, ticket entity.Ticket) (entity.Booking, entity.Payment, error) {
			return booking.Pay(email, ticket, request.TransactionID, s.currency, s.now())
		},
	)
	if err != nil {
		return err
	}

	metrics.BookingTransitions.WithLabelValues(string(booking.Status)).Inc()

	log.FromContext(c.Request().Context()).WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"payment_id": payment.ID,
		"amount":     payment.Amount.String(),
	}).Info("Booking paid")

	return c.JSON(http.StatusOK, payBookingResponse{Booking: booking, Payment: payment})
}
