package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	echoHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"ticketmarket/entity"
)

type UsersRepository interface {
	UpsertOnLogin(ctx context.Context, user entity.User) (entity.User, bool, error)
	FindByEmail(ctx context.Context, email string) (entity.User, error)
	FindAll(ctx context.Context) ([]entity.User, error)
	UpdateRole(ctx context.Context, userID string, role entity.Role) (entity.User, error)
	MarkFraud(ctx context.Context, userID string) (entity.User, error)
}

type TicketsRepository interface {
	Store(ctx context.Context, ticket entity.Ticket) error
	Get(ctx context.Context, ticketID string) (entity.Ticket, error)
	FindAll(ctx context.Context, filter entity.TicketFilter) ([]entity.Ticket, error)
	FindAdvertised(ctx context.Context) ([]entity.Ticket, error)
	SetAdvertised(ctx context.Context, ticketID string, advertised bool) (entity.Ticket, error)
	Review(ctx context.Context, ticketID string, decision entity.TicketStatus) (entity.Ticket, error)
}

type BookingsRepository interface {
	Create(ctx context.Context, ticketID string, newBooking func(ticket entity.Ticket) (entity.Booking, error)) (entity.Booking, error)
	Get(ctx context.Context, bookingID string) (entity.Booking, error)
	FindByUser(ctx context.Context, userEmail string) ([]entity.Booking, error)
	FindByVendor(ctx context.Context, vendorEmail string, statuses ...entity.BookingStatus) ([]entity.Booking, error)
	Decide(ctx context.Context, bookingID string, decide func(booking entity.Booking) (entity.Booking, error)) (entity.Booking, error)
	Pay(
		ctx context.Context,
		bookingID string,
		pay func(booking entity.Booking, ticket entity.Ticket) (entity.Booking, entity.Payment, error),
	) (entity.Booking, entity.Payment, error)
	VendorRevenue(ctx context.Context, vendorEmail string) (entity.VendorRevenue, error)
}

type PaymentsRepository interface {
	FindByUser(ctx context.Context, userEmail string) ([]entity.Payment, error)
}

// IdentityVerifier maps a bearer credential to the verified email of its owner.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type CheckoutService interface {
	CreateSession(ctx context.Context, request entity.CheckoutSessionRequest) (entity.CheckoutSession, error)
}

type Server struct {
	addr string
	e    *echo.Echo

	usersRepo    UsersRepository
	ticketsRepo  TicketsRepository
	bookingsRepo BookingsRepository
	paymentsRepo PaymentsRepository
	verifier     IdentityVerifier
	checkout     CheckoutService

	currency string
	now      func() time.Time
}

func NewServer(
	addr string,
	usersRepo UsersRepository,
	ticketsRepo TicketsRepository,
	bookingsRepo BookingsRepository,
	paymentsRepo PaymentsRepository,
	verifier IdentityVerifier,
	checkout CheckoutService,
	currency string,
) *Server {
	if usersRepo == nil {
		panic("missing usersRepo")
	}
	if ticketsRepo == nil {
		panic("missing ticketsRepo")
	}
	if bookingsRepo == nil {
		panic("missing bookingsRepo")
	}
	if paymentsRepo == nil {
		panic("missing paymentsRepo")
	}
	if verifier == nil {
		panic("missing verifier")
	}
	if checkout == nil {
		panic("missing checkout")
	}

	e := echoHTTP.NewEcho()

	server := &Server{
		addr:         addr,
		e:            e,
		usersRepo:    usersRepo,
		ticketsRepo:  ticketsRepo,
		bookingsRepo: bookingsRepo,
		paymentsRepo: paymentsRepo,
		verifier:     verifier,
		checkout:     checkout,
		currency:     currency,
		now:          time.Now,
	}

	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("ticketmarket"))
	e.HTTPErrorHandler = server.handleError

	server.registerRoutes()

	return server
}

func (s *Server) registerRoutes() {
	e := s.e
	authenticated := s.identityGate
	admin := s.requireRole(entity.RoleAdmin)
	vendor := s.requireRole(entity.RoleVendor)
	self := requireSelf

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Ticket Booking Server Running")
	})
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/users", s.PostUsers)
	e.GET("/users/:email/role", s.GetUserRole)
	e.GET("/users/profile/:email", s.GetUserProfile, authenticated, self)
	e.PATCH("/users/:id/role", s.PatchUserRole, authenticated, admin)

	e.GET("/tickets", s.GetTickets)
	e.GET("/tickets/advertised", s.GetAdvertisedTickets)
	e.GET("/tickets/:id", s.GetTicket)
	e.POST("/tickets", s.PostTickets, authenticated, vendor)
	e.PATCH("/tickets/:id", s.PatchTicket, authenticated, admin)

	e.POST("/bookings", s.PostBookings, authenticated)
	e.GET("/bookings/user/:email", s.GetUserBookings, authenticated, self)
	e.PATCH("/bookings/accept/:id", s.PatchAcceptBooking, authenticated, vendor)
	e.PATCH("/bookings/reject/:id", s.PatchRejectBooking, authenticated, vendor)
	e.PATCH("/bookings/pay/:id", s.PatchPayBooking, authenticated)

	e.POST("/payment-checkout-session", s.PostCheckoutSession, authenticated)
	e.GET("/payments/:email", s.GetUserPayments, authenticated, self)

	e.GET("/vendor/tickets/:email", s.GetVendorTickets, authenticated, vendor, self)
	e.GET("/vendor/bookings/:email", s.GetVendorBookings, authenticated, vendor, self)
	e.GET("/vendor/revenue/:email", s.GetVendorRevenue, authenticated, vendor, self)

	e.GET("/admin/users", s.GetAdminUsers, authenticated, admin)
	e.GET("/admin/tickets", s.GetAdminTickets, authenticated, admin)
	e.PATCH("/admin/tickets/:id/approve", s.PatchApproveTicket, authenticated, admin)
	e.PATCH("/admin/tickets/:id/reject", s.PatchRejectTicket, authenticated, admin)
	e.PATCH("/admin/users/:id/fraud", s.PatchMarkFraud, authenticated, admin)
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.e.Shutdown(shutdownCtx); err != nil {
			log.FromContext(ctx).WithError(err).Error("failed to shutdown HTTP server")
		}
	}()

	log.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] server listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
