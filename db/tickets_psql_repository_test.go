package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketmarket/entity"
)

func TestTicketsRepository_SetAdvertised_cap(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketsPostgresRepository(GetDb(t))

	_, err := GetDb(t).ExecContext(ctx, `UPDATE tickets SET is_advertised = FALSE`)
	require.NoError(t, err)

	vendor := addUser(t, entity.RoleVendor)

	var tickets []entity.Ticket
	for i := 0; i < entity.MaxAdvertisedTickets+1; i++ {
		tickets = append(tickets, addApprovedTicket(t, vendor, 10, 20))
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []error
	)
	for _, ticket := range tickets {
		wg.Add(1)
		go func(ticketID string) {
			defer wg.Done()
			if _, err := repo.SetAdvertised(ctx, ticketID, true); err != nil {
				mu.Lock()
				failed = append(failed, err)
				mu.Unlock()
			}
		}(ticket.ID)
	}
	wg.Wait()

	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0], entity.ErrAdvertisedCapReached)

	advertised, err := repo.FindAdvertised(ctx)
	require.NoError(t, err)
	assert.Len(t, advertised, entity.MaxAdvertisedTickets)

	var count int
	require.NoError(t, GetDb(t).GetContext(ctx, &count, `SELECT COUNT(*) FROM tickets WHERE is_advertised`))
	assert.Equal(t, entity.MaxAdvertisedTickets, count)

	t.Run("rejected toggle leaves the ticket unchanged", func(t *testing.T) {
		notAdvertised, ok := lo.Find(tickets, func(ticket entity.Ticket) bool {
			return !lo.ContainsBy(advertised, func(a entity.Ticket) bool { return a.ID == ticket.ID })
		})
		require.True(t, ok)

		_, err := repo.SetAdvertised(ctx, notAdvertised.ID, true)
		assert.ErrorIs(t, err, entity.ErrConflict)

		stored, err := repo.Get(ctx, notAdvertised.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsAdvertised)
	})

	t.Run("unadvertising frees a slot", func(t *testing.T) {
		_, err := repo.SetAdvertised(ctx, advertised[0].ID, false)
		require.NoError(t, err)

		notAdvertised, _ := lo.Find(tickets, func(ticket entity.Ticket) bool {
			return !lo.ContainsBy(advertised, func(a entity.Ticket) bool { return a.ID == ticket.ID })
		})
		updated, err := repo.SetAdvertised(ctx, notAdvertised.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsAdvertised)
	})

	_, err = GetDb(t).ExecContext(ctx, `UPDATE tickets SET is_advertised = FALSE`)
	require.NoError(t, err)
}

func TestTicketsRepository_SetAdvertised_pending_ticket(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketsPostgresRepository(GetDb(t))
	vendor := addUser(t, entity.RoleVendor)

	ticket, err := entity.NewTicket(vendor, entity.NewTicketParams{
		Title:             "Sylhet to Dhaka",
		UnitPrice:         decimal.NewFromInt(12),
		TicketQuantity:    3,
		DepartureDateTime: time.Now().Add(time.Hour),
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Store(ctx, ticket))

	_, err = repo.SetAdvertised(ctx, ticket.ID, true)
	assert.ErrorIs(t, err, entity.ErrTicketNotApproved)

	_, err = repo.SetAdvertised(ctx, "missing", true)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestTicketsRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketsPostgresRepository(GetDb(t))
	vendor := addUser(t, entity.RoleVendor)

	approved := addApprovedTicket(t, vendor, 1, 10)

	pending, err := entity.NewTicket(vendor, entity.NewTicketParams{
		Title:             "Khulna to Dhaka",
		UnitPrice:         decimal.NewFromInt(7),
		TicketQuantity:    3,
		DepartureDateTime: time.Now().Add(time.Hour),
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Store(ctx, pending))

	all, err := repo.FindAll(ctx, entity.TicketFilter{VendorEmail: vendor.Email})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyApproved, err := repo.FindAll(ctx, entity.TicketFilter{
		VendorEmail: vendor.Email,
		Statuses:    []entity.TicketStatus{entity.TicketStatusApproved},
	})
	require.NoError(t, err)
	require.Len(t, onlyApproved, 1)
	assert.Equal(t, approved.ID, onlyApproved[0].ID)
	assert.True(t, decimal.NewFromInt(10).Equal(onlyApproved[0].UnitPrice))
}

func TestTicketsRepository_Review(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketsPostgresRepository(GetDb(t))
	vendor := addUser(t, entity.RoleVendor)

	approved := addApprovedTicket(t, vendor, 1, 10)

	_, err := repo.Review(ctx, approved.ID, entity.TicketStatusRejected)
	assert.ErrorIs(t, err, entity.ErrIllegalTransition)

	stored, err := repo.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TicketStatusApproved, stored.Status)
}

func TestTicketsRepository_HideByVendor(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketsPostgresRepository(GetDb(t))
	vendor := addUser(t, entity.RoleVendor)
	other := addUser(t, entity.RoleVendor)

	first := addApprovedTicket(t, vendor, 1, 10)
	addApprovedTicket(t, vendor, 1, 10)
	untouched := addApprovedTicket(t, other, 1, 10)

	_, err := GetDb(t).ExecContext(ctx, `UPDATE tickets SET is_advertised = FALSE`)
	require.NoError(t, err)
	_, err = repo.SetAdvertised(ctx, first.ID, true)
	require.NoError(t, err)

	hidden, err := repo.HideByVendor(ctx, vendor.Email)
	require.NoError(t, err)
	assert.EqualValues(t, 2, hidden)

	hidden, err = repo.HideByVendor(ctx, vendor.Email)
	require.NoError(t, err)
	assert.EqualValues(t, 0, hidden)

	stored, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TicketStatusHidden, stored.Status)
	assert.False(t, stored.IsAdvertised)

	stored, err = repo.Get(ctx, untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TicketStatusApproved, stored.Status)
}
