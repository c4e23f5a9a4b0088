package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketmarket/entity"
)

func (s *Server) GetVendorTickets(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	tickets, err := s.ticketsRepo.FindAll(c.Request().Context(), entity.TicketFilter{
		VendorEmail: email,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tickets)
}

// GetVendorBookings lists booking requests still waiting for the vendor's decision.
func (s *Server) GetVendorBookings(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	bookings, err := s.bookingsRepo.FindByVendor(c.Request().Context(), email, entity.BookingStatusPending)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bookings)
}

func (s *Server) GetVendorRevenue(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	revenue, err := s.bookingsRepo.VendorRevenue(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, revenue)
}
