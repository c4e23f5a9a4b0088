package event

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"ticketmarket/entity"
	"ticketmarket/metrics"
)

func (h Handler) CountSoldSeatsHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"CountSoldSeatsHandler",
		func(ctx context.Context, event *entity.BookingPaid_v1) error {
			metrics.SeatsSold.Add(float64(event.BookingQuantity))
			return nil
		},
	)
}
