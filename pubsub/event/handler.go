package event

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"ticketmarket/pubsub/bus"
)

const consumerGroupPrefix = "svc-ticketmarket."

type TicketsRepository interface {
	HideByVendor(ctx context.Context, vendorEmail string) (int64, error)
}

type Handler struct {
	ticketsRepo TicketsRepository
}

func NewHandler(ticketsRepo TicketsRepository) Handler {
	if ticketsRepo == nil {
		panic("missing ticketsRepo")
	}

	return Handler{ticketsRepo: ticketsRepo}
}

func (h Handler) Handlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		h.HideFraudVendorTicketsHandler(),
		h.CountSoldSeatsHandler(),
	}
}

// NewProcessorConfig subscribes every handler to the per-event topic filled by the events splitter,
// each handler with its own consumer group.
func NewProcessorConfig(rdb *redis.Client, watermillLogger watermill.LoggerAdapter) cqrs.EventProcessorConfig {
	return cqrs.EventProcessorConfig{
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        rdb,
				ConsumerGroup: consumerGroupPrefix + params.HandlerName,
			}, watermillLogger)
		},
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return bus.EventsTopic + "." + params.EventName, nil
		},
		Marshaler: bus.Marshaler,
		Logger:    watermillLogger,
	}
}
