package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketmarket/entity"
	"ticketmarket/metrics"
)

type postCheckoutSessionRequest struct {
	BookingID string `json:"bookingId"`
}

type checkoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PostCheckoutSession validates the booking locally and only then asks the checkout provider
// for a payment session, so bookings that cannot be paid never reach the provider.
func (s *Server) PostCheckoutSession(c echo.Context) error {
	var request postCheckoutSessionRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.BookingID == "" {
		return fmt.Errorf("%w: bookingId required", entity.ErrBadRequest)
	}

	email, err := identity(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()

	booking, err := s.bookingsRepo.Get(ctx, request.BookingID)
	if err != nil {
		return err
	}
	ticket, err := s.ticketsRepo.Get(ctx, booking.TicketID)
	if err != nil {
		return err
	}

	if err := booking.CheckPayable(email, ticket, s.now()); err != nil {
		metrics.CheckoutSessions.WithLabelValues("rejected").Inc()
		return err
	}

	session, err := s.checkout.CreateSession(ctx, entity.CheckoutSessionRequest{
		BookingID:     booking.ID,
		CustomerEmail: booking.UserEmail,
		Description:   booking.TicketTitle,
		Quantity:      booking.BookingQuantity,
		Amount:        booking.TotalPrice,
		Currency:      s.currency,
	})
	if err != nil {
		metrics.CheckoutSessions.WithLabelValues("failed").Inc()
		return err
	}

	metrics.CheckoutSessions.WithLabelValues("created").Inc()

	return c.JSON(http.StatusOK, checkoutSessionResponse{SessionID: session.ID, URL: session.URL})
}

func (s *Server) GetUserPayments(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	payments, err := s.paymentsRepo.FindByUser(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payments)
}
