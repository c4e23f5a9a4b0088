package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"ticketmarket/entity"
)

type postTicketRequest struct {
	Title             string          `json:"title"`
	From              string          `json:"from"`
	To                string          `json:"to"`
	TransportType     string          `json:"transportType"`
	ImageURL          string          `json:"imageURL"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	TicketQuantity    int             `json:"ticketQuantity"`
	DepartureDateTime time.Time       `json:"departureDateTime"`
}

type patchTicketRequest struct {
	IsAdvertised *bool `json:"isAdvertised"`
}

// GetTickets lists approved tickets, optionally of one vendor.
func (s *Server) GetTickets(c echo.Context) error {
	tickets, err := s.ticketsRepo.FindAll(c.Request().Context(), entity.TicketFilter{
		VendorEmail: c.QueryParam("vendorEmail"),
		Statuses:    []entity.TicketStatus{entity.TicketStatusApproved},
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tickets)
}

func (s *Server) GetAdvertisedTickets(c echo.Context) error {
	tickets, err := s.ticketsRepo.FindAdvertised(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tickets)
}

// GetTicket is public, so tickets that are not approved are reported as missing.
func (s *Server) GetTicket(c echo.Context) error {
	ticket, err := s.ticketsRepo.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if ticket.Status != entity.TicketStatusApproved {
		return fmt.Errorf("%w: ticket %s", entity.ErrNotFound, ticket.ID)
	}

	return c.JSON(http.StatusOK, ticket)
}

func (s *Server) PostTickets(c echo.Context) error {
	var request postTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	vendor, err := currentUser(c)
	if err != nil {
		return err
	}

	ticket, err := entity.NewTicket(vendor, entity.NewTicketParams{
		Title:             request.Title,
		From:              request.From,
		To:                request.To,
		TransportType:     request.TransportType,
		ImageURL:          request.ImageURL,
		UnitPrice:         request.UnitPrice,
		TicketQuantity:    request.TicketQuantity,
		DepartureDateTime: request.DepartureDateTime,
	}, s.now())
	if err != nil {
		return err
	}

	if err := s.ticketsRepo.Store(c.Request().Context(), ticket); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, ticket)
}

// PatchTicket toggles whether the ticket is advertised.
func (s *Server) PatchTicket(c echo.Context) error {
	var request patchTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.IsAdvertised == nil {
		return fmt.Errorf("%w: isAdvertised required", entity.ErrBadRequest)
	}

	ticket, err := s.ticketsRepo.SetAdvertised(c.Request().Context(), c.Param("id"), *request.IsAdvertised)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}
