package gateway

import (
	"context"
	"sync"

	"ticketmarket/entity"
)

type CheckoutMock struct {
	mock     sync.Mutex
	Sessions map[string]entity.CheckoutSessionRequest
	Err      error
}

func (c *CheckoutMock) CreateSession(ctx context.Context, request entity.CheckoutSessionRequest) (entity.CheckoutSession, error) {
	c.mock.Lock()
	defer c.mock.Unlock()

	if c.Err != nil {
		return entity.CheckoutSession{}, c.Err
	}
	if c.Sessions == nil {
		c.Sessions = make(map[string]entity.CheckoutSessionRequest)
	}

	c.Sessions[request.BookingID] = request

	return entity.CheckoutSession{
		ID:  "cs_" + request.BookingID,
		URL: "https://checkout.example.com/pay/cs_" + request.BookingID,
	}, nil
}

func (c *CheckoutMock) SessionsCount() int {
	c.mock.Lock()
	defer c.mock.Unlock()

	return len(c.Sessions)
}
