package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"ticketmarket/entity"
)

func (h Handler) HideFraudVendorTicketsHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"HideFraudVendorTicketsHandler",
		func(ctx context.Context, event *entity.VendorMarkedFraud_v1) error {
			hidden, err := h.ticketsRepo.HideByVendor(ctx, event.VendorEmail)
			if err != nil {
				return fmt.Errorf("could not hide tickets of %s: %w", event.VendorEmail, err)
			}

			log.FromContext(ctx).
				WithField("vendor_email", event.VendorEmail).
				WithField("hidden_tickets", hidden).
				Info("Hid tickets of fraud vendor")

			return nil
		},
	)
}
