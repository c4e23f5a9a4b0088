package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ticketmarket/entity"
)

func addUser(t *testing.T, role entity.Role) entity.User {
	t.Helper()
	ctx := context.Background()
	repo := NewUsersPostgresRepository(GetDb(t))

	user, err := entity.NewUser(uuid.NewString()+"@example.com", entity.UserProfile{DisplayName: "Test " + string(role)}, time.Now())
	require.NoError(t, err)

	user, _, err = repo.UpsertOnLogin(ctx, user)
	require.NoError(t, err)

	if role != entity.RoleUser {
		user, err = repo.UpdateRole(ctx, user.ID, role)
		require.NoError(t, err)
	}

	return user
}

func addApprovedTicket(t *testing.T, vendor entity.User, quantity int, unitPrice int64) entity.Ticket {
	t.Helper()
	ctx := context.Background()
	repo := NewTicketsPostgresRepository(GetDb(t))

	ticket, err := entity.NewTicket(vendor, entity.NewTicketParams{
		Title:             "Dhaka to Chittagong",
		From:              "Dhaka",
		To:                "Chittagong",
		TransportType:     "bus",
		UnitPrice:         decimal.NewFromInt(unitPrice),
		TicketQuantity:    quantity,
		DepartureDateTime: time.Now().Add(72 * time.Hour),
	}, time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.Store(ctx, ticket))

	ticket, err = repo.Review(ctx, ticket.ID, entity.TicketStatusApproved)
	require.NoError(t, err)

	return ticket
}

func addAcceptedBooking(t *testing.T, user entity.User, ticket entity.Ticket, quantity int) entity.Booking {
	t.Helper()
	ctx := context.Background()
	repo := NewBookingsPostgresRepository(GetDb(t))

	booking, err := repo.Create(ctx, ticket.ID, func(ticket entity.Ticket) (entity.Booking, error) {
		return entity.NewBooking(user.Email, ticket, quantity, time.Now())
	})
	require.NoError(t, err)

	booking, err = repo.Decide(ctx, booking.ID, func(b entity.Booking) (entity.Booking, error) {
		return b.Decide(ticket.VendorEmail, entity.BookingStatusAccepted)
	})
	require.NoError(t, err)

	return booking
}

func payAs(email string, now time.Time) func(entity.Booking, entity.Ticket) (entity.Booking, entity.Payment, error) {
	return func(b entity.Booking, t entity.Ticket) (entity.Booking, entity.Payment, error) {
		return b.Pay(email, t, uuid.NewString(), "usd", now)
	}
}
