package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ticketmarket/entity"
)

type CheckoutConfig struct {
	BaseURL    string
	APIKey     string
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
}

// CheckoutClient creates hosted checkout sessions at the payment provider.
type CheckoutClient struct {
	config     CheckoutConfig
	httpClient *http.Client
}

func NewCheckoutClient(config CheckoutConfig) *CheckoutClient {
	if config.BaseURL == "" {
		panic("missing checkout base url")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &CheckoutClient{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type checkoutSessionRequest struct {
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Quantity      int               `json:"quantity"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customer_email"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata"`
}

type checkoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *CheckoutClient) CreateSession(ctx context.Context, request entity.CheckoutSessionRequest) (entity.CheckoutSession, error) {
	body, err := json.Marshal(checkoutSessionRequest{
		// minor units, e.g. cents
		Amount:        request.Amount.Shift(2).Round(0).IntPart(),
		Currency:      request.Currency,
		Quantity:      request.Quantity,
		Description:   request.Description,
		CustomerEmail: request.CustomerEmail,
		SuccessURL:    c.config.SuccessURL,
		CancelURL:     c.config.CancelURL,
		Metadata: map[string]string{
			"booking_id": request.BookingID,
		},
	})
	if err != nil {
		return entity.CheckoutSession{}, fmt.Errorf("could not marshal checkout session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return entity.CheckoutSession{}, fmt.Errorf("could not create checkout session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Idempotency-Key", "checkout-"+request.BookingID)
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.CheckoutSession{}, fmt.Errorf("%w: checkout provider: %w", entity.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return entity.CheckoutSession{}, fmt.Errorf(
			"%w: unexpected status code from checkout provider: %d: %s",
			entity.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)),
		)
	}

	var session checkoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return entity.CheckoutSession{}, fmt.Errorf("%w: could not decode checkout session: %w", entity.ErrUpstreamUnavailable, err)
	}
	if session.URL == "" {
		return entity.CheckoutSession{}, fmt.Errorf("%w: checkout session without url", entity.ErrUpstreamUnavailable)
	}

	return entity.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}
