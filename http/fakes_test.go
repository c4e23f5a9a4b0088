package http

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"ticketmarket/entity"
)

// memStore keeps the same invariants as the Postgres repositories, guarded by one mutex.
type memStore struct {
	lock     sync.Mutex
	users    map[string]entity.User
	tickets  map[string]entity.Ticket
	bookings map[string]entity.Booking
	payments map[string]entity.Payment
	fraud    []string
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]entity.User{},
		tickets:  map[string]entity.Ticket{},
		bookings: map[string]entity.Booking{},
		payments: map[string]entity.Payment{},
	}
}

type fakeUsers struct{ *memStore }

func (s fakeUsers) UpsertOnLogin(_ context.Context, user entity.User) (entity.User, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if existing, ok := s.users[user.Email]; ok {
		existing.LastLoggedIn = user.LastLoggedIn
		s.users[user.Email] = existing
		return existing, false, nil
	}

	s.users[user.Email] = user
	return user, true, nil
}

func (s fakeUsers) FindByEmail(_ context.Context, email string) (entity.User, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	user, ok := s.users[entity.NormalizeEmail(email)]
	if !ok {
		return entity.User{}, fmt.Errorf("%w: user %s", entity.ErrNotFound, email)
	}
	return user, nil
}

func (s fakeUsers) FindAll(context.Context) ([]entity.User, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return lo.Values(s.users), nil
}

func (s fakeUsers) UpdateRole(_ context.Context, userID string, role entity.Role) (entity.User, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	user, err := s.userByID(userID)
	if err != nil {
		return entity.User{}, err
	}

	user.Role = role
	s.users[user.Email] = user
	return user, nil
}

func (s fakeUsers) MarkFraud(_ context.Context, userID string) (entity.User, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	user, err := s.userByID(userID)
	if err != nil {
		return entity.User{}, err
	}
	if !user.HasRole(entity.RoleVendor) {
		return entity.User{}, entity.ErrNotAVendor
	}

	if !user.IsFraud {
		user.IsFraud = true
		s.users[user.Email] = user
		s.fraud = append(s.fraud, user.Email)
	}
	return user, nil
}

func (s *memStore) userByID(userID string) (entity.User, error) {
	user, ok := lo.Find(lo.Values(s.users), func(u entity.User) bool { return u.ID == userID })
	if !ok {
		return entity.User{}, fmt.Errorf("%w: user %s", entity.ErrNotFound, userID)
	}
	return user, nil
}

type fakeTickets struct{ *memStore }

func (s fakeTickets) Store(_ context.Context, ticket entity.Ticket) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.tickets[ticket.ID] = ticket
	return nil
}

func (s fakeTickets) Get(_ context.Context, ticketID string) (entity.Ticket, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.ticket(ticketID)
}

func (s *memStore) ticket(ticketID string) (entity.Ticket, error) {
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return entity.Ticket{}, fmt.Errorf("%w: ticket %s", entity.ErrNotFound, ticketID)
	}
	return ticket, nil
}

func (s fakeTickets) FindAll(_ context.Context, filter entity.TicketFilter) ([]entity.Ticket, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	tickets := lo.Filter(lo.Values(s.tickets), func(t entity.Ticket, _ int) bool {
		if filter.VendorEmail != "" && t.VendorEmail != entity.NormalizeEmail(filter.VendorEmail) {
			return false
		}
		return len(filter.Statuses) == 0 || lo.Contains(filter.Statuses, t.Status)
	})
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].CreatedAt.After(tickets[j].CreatedAt) })

	return tickets, nil
}

func (s fakeTickets) FindAdvertised(_ context.Context) ([]entity.Ticket, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return lo.Filter(lo.Values(s.tickets), func(t entity.Ticket, _ int) bool {
		return t.IsAdvertised && t.Status == entity.TicketStatusApproved
	}), nil
}

func (s fakeTickets) SetAdvertised(_ context.Context, ticketID string, advertised bool) (entity.Ticket, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	ticket, err := s.ticket(ticketID)
	if err != nil {
		return entity.Ticket{}, err
	}

	if advertised {
		count := lo.CountBy(lo.Values(s.tickets), func(t entity.Ticket) bool { return t.IsAdvertised })
		if err := ticket.CanBeAdvertised(count); err != nil {
			return entity.Ticket{}, err
		}
	}

	ticket.IsAdvertised = advertised
	s.tickets[ticketID] = ticket
	return ticket, nil
}

func (s fakeTickets) Review(_ context.Context, ticketID string, decision entity.TicketStatus) (entity.Ticket, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	ticket, err := s.ticket(ticketID)
	if err != nil {
		return entity.Ticket{}, err
	}

	ticket, err = ticket.Review(decision)
	if err != nil {
		return entity.Ticket{}, err
	}

	s.tickets[ticketID] = ticket
	return ticket, nil
}

type fakeBookings struct{ *memStore }

func (s fakeBookings) Create(_ context.Context, ticketID string, newBooking func(entity.Ticket) (entity.Booking, error)) (entity.Booking, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	ticket, err := s.ticket(ticketID)
	if err != nil {
		return entity.Booking{}, err
	}

	booking, err := newBooking(ticket)
	if err != nil {
		return entity.Booking{}, err
	}

	s.bookings[booking.ID] = booking
	return booking, nil
}

func (s fakeBookings) Get(_ context.Context, bookingID string) (entity.Booking, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.booking(bookingID)
}

func (s *memStore) booking(bookingID string) (entity.Booking, error) {
	booking, ok := s.bookings[bookingID]
	if !ok {
		return entity.Booking{}, fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
	}
	return booking, nil
}

func (s fakeBookings) FindByUser(_ context.Context, userEmail string) ([]entity.Booking, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return lo.Filter(lo.Values(s.bookings), func(b entity.Booking, _ int) bool {
		return b.UserEmail == entity.NormalizeEmail(userEmail)
	}), nil
}

func (s fakeBookings) FindByVendor(_ context.Context, vendorEmail string, statuses ...entity.BookingStatus) ([]entity.Booking, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return lo.Filter(lo.Values(s.bookings), func(b entity.Booking, _ int) bool {
		return b.VendorEmail == entity.NormalizeEmail(vendorEmail) && (len(statuses) == 0 || lo.Contains(statuses, b.Status))
	}), nil
}

func (s fakeBookings) Decide(_ context.Context, bookingID string, decide func(entity.Booking) (entity.Booking, error)) (entity.Booking, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	booking, err := s.booking(bookingID)
	if err != nil {
		return entity.Booking{}, err
	}

	booking, err = decide(booking)
	if err != nil {
		return entity.Booking{}, err
	}

	s.bookings[bookingID] = booking
	return booking, nil
}

func (s fakeBookings) Pay(
	_ context.Context,
	bookingID string,
	pay func(entity.Booking, entity.Ticket) (entity.Booking, entity.Payment, error),
) (entity.Booking, entity.Payment, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	booking, err := s.booking(bookingID)
	if err != nil {
		return entity.Booking{}, entity.Payment{}, err
	}
	ticket, err := s.ticket(booking.TicketID)
	if err != nil {
		return entity.Booking{}, entity.Payment{}, err
	}

	booking, payment, err := pay(booking, ticket)
	if err != nil {
		return entity.Booking{}, entity.Payment{}, err
	}
	if ticket.TicketQuantity < booking.BookingQuantity {
		return entity.Booking{}, entity.Payment{}, entity.ErrNoAvailableTickets
	}

	ticket.TicketQuantity -= booking.BookingQuantity
	s.tickets[ticket.ID] = ticket
	s.bookings[booking.ID] = booking
	s.payments[payment.ID] = payment

	return booking, payment, nil
}

func (s fakeBookings) VendorRevenue(_ context.Context, vendorEmail string) (entity.VendorRevenue, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var revenue entity.VendorRevenue
	for _, b := range s.bookings {
		if b.VendorEmail != entity.NormalizeEmail(vendorEmail) {
			continue
		}
		if b.Status != entity.BookingStatusAccepted && b.Status != entity.BookingStatusPaid {
			continue
		}
		revenue.TotalRevenue = revenue.TotalRevenue.Add(b.TotalPrice)
		revenue.TotalTicketsSold += b.BookingQuantity
	}
	revenue.TotalTicketsAdded = lo.CountBy(lo.Values(s.tickets), func(t entity.Ticket) bool {
		return t.VendorEmail == entity.NormalizeEmail(vendorEmail)
	})

	return revenue, nil
}

type fakePayments struct{ *memStore }

func (s fakePayments) FindByUser(_ context.Context, userEmail string) ([]entity.Payment, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return lo.Filter(lo.Values(s.payments), func(p entity.Payment, _ int) bool {
		return p.UserEmail == entity.NormalizeEmail(userEmail)
	}), nil
}

func (s *memStore) paymentsCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.payments)
}

func (s *memStore) ticketQuantity(ticketID string) int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.tickets[ticketID].TicketQuantity
}

// unavailablePayments fails every read the way the store does when postgres is unreachable.
type unavailablePayments struct{}

func (unavailablePayments) FindByUser(context.Context, string) ([]entity.Payment, error) {
	return nil, fmt.Errorf("%w: could not list payments: dial tcp 10.0.0.7:5432: connection refused", entity.ErrUpstreamUnavailable)
}
