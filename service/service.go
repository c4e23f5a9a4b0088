package service

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"ticketmarket/db"
	"ticketmarket/http"
	"ticketmarket/pubsub"
	"ticketmarket/pubsub/event"
	"ticketmarket/pubsub/outbox"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type Service struct {
	db              *sqlx.DB
	watermillRouter *message.Router
	forwarder       *forwarder.Forwarder
	httpServer      *http.Server
	traceProvider   *tracesdk.TracerProvider
}

func New(
	addr string,
	dbConn *sqlx.DB,
	redisClient *redis.Client,
	verifier http.IdentityVerifier,
	checkoutService http.CheckoutService,
	currency string,
	traceProvider *tracesdk.TracerProvider,
) Service {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher, err := pubsub.NewRedisPublisher(redisClient, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create redis publisher: %w", err))
	}

	usersRepo := db.NewUsersPostgresRepository(dbConn)
	ticketsRepo := db.NewTicketsPostgresRepository(dbConn)
	bookingsRepo := db.NewBookingsPostgresRepository(dbConn)
	paymentsRepo := db.NewPaymentsPostgresRepository(dbConn)
	dataLake := db.NewDataLake(dbConn)

	eventsHandler := event.NewHandler(ticketsRepo)
	eventProcessorConfig := event.NewProcessorConfig(redisClient, watermillLogger)

	watermillRouter, err := pubsub.NewWatermillRouter(
		redisClient,
		redisPublisher,
		eventProcessorConfig,
		eventsHandler.Handlers(),
		dataLake,
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Errorf("failed to create watermill router: %w", err))
	}

	postgresSubscriber, err := outbox.NewPostgresSubscriber(dbConn.DB, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create outbox subscriber: %w", err))
	}

	fwd, err := outbox.NewForwarder(postgresSubscriber, redisPublisher, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create outbox forwarder: %w", err))
	}

	httpServer := http.NewServer(
		addr,
		usersRepo,
		ticketsRepo,
		bookingsRepo,
		paymentsRepo,
		verifier,
		checkoutService,
		currency,
	)

	return Service{
		db:              dbConn,
		watermillRouter: watermillRouter,
		forwarder:       fwd,
		httpServer:      httpServer,
		traceProvider:   traceProvider,
	}
}

func (s Service) Run(ctx context.Context) error {
	if err := db.InitializeDatabaseSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if s.traceProvider != nil {
		g.Go(func() error {
			<-ctx.Done()
			return s.traceProvider.Shutdown(context.Background())
		})
	}

	g.Go(func() error {
		return s.forwarder.Run(ctx)
	})

	g.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		// the service is not healthy before the router consumes events
		<-s.watermillRouter.Running()

		return s.httpServer.Run(ctx)
	})

	return g.Wait()
}
