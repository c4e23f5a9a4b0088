package http

import (
	"net/http"
	"strings"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"ticketmarket/entity"
)

func (s *Server) GetAdminUsers(c echo.Context) error {
	users, err := s.usersRepo.FindAll(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, users)
}

// GetAdminTickets lists tickets of any status. ?status=pending,approved narrows the list.
func (s *Server) GetAdminTickets(c echo.Context) error {
	var statuses []entity.TicketStatus
	for _, raw := range lo.Compact(strings.Split(c.QueryParam("status"), ",")) {
		status, err := entity.ParseTicketStatus(raw)
		if err != nil {
			return err
		}
		statuses = append(statuses, status)
	}

	tickets, err := s.ticketsRepo.FindAll(c.Request().Context(), entity.TicketFilter{
		VendorEmail: c.QueryParam("vendorEmail"),
		Statuses:    lo.Uniq(statuses),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tickets)
}

func (s *Server) PatchApproveTicket(c echo.Context) error {
	return s.reviewTicket(c, entity.TicketStatusApproved)
}

func (s *Server) PatchRejectTicket(c echo.Context) error {
	return s.reviewTicket(c, entity.TicketStatusRejected)
}

func (s *Server) reviewTicket(c echo.Context, decision entity.TicketStatus) error {
	ticket, err := s.ticketsRepo.Review(c.Request().Context(), c.Param("id"), decision)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}

// PatchMarkFraud flags a vendor. Hiding the vendor's tickets happens asynchronously.
func (s *Server) PatchMarkFraud(c echo.Context) error {
	user, err := s.usersRepo.MarkFraud(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	log.FromContext(c.Request().Context()).WithField("vendor_email", user.Email).Info("Vendor marked as fraud")

	return c.JSON(http.StatusOK, user)
}
