package payments

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/trailpeak/tours-api/pkg/config"
)

// CheckoutSession is the subset of the Stripe session the API exposes.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout carries the fields needed to record a paid booking
// once Stripe confirms the payment.
type CompletedCheckout struct {
	TourID        int64
	CustomerEmail string
	AmountTotal   int64 // smallest currency unit
}

type CheckoutParams struct {
	TourID      int64
	TourName    string
	TourSummary string
	ImageURL    string
	Amount      int64 // smallest currency unit
	Email       string
	SuccessURL  string
	CancelURL   string
}

type Client struct {
	api           *client.API
	currency      string
	webhookSecret string
}

func NewClient(cfg config.StripeConfig) *Client {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &Client{
		api:           api,
		currency:      cfg.Currency,
		webhookSecret: cfg.WebhookSecret,
	}
}

// NewCheckoutSession creates a one-off payment session for a tour. The tour
// ID travels as the client reference so the webhook can tie the payment back
// to a booking.
func (c *Client) NewCheckoutSession(p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		CustomerEmail:     stripe.String(p.Email),
		ClientReferenceID: stripe.String(strconv.FormatInt(p.TourID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.currency),
					UnitAmount: stripe.Int64(p.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s Tour", p.TourName)),
						Description: stripe.String(p.TourSummary),
					},
				},
			},
		},
	}
	if p.ImageURL != "" {
		params.LineItems[0].PriceData.ProductData.Images = []*string{stripe.String(p.ImageURL)}
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the Stripe signature and, for completed checkout
// sessions, returns the payment details. Other event types return nil.
func (c *Client) ParseWebhook(payload []byte, sigHeader string) (*CompletedCheckout, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	tourID, err := strconv.ParseInt(sess.ClientReferenceID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad client reference %q: %w", sess.ClientReferenceID, err)
	}

	return &CompletedCheckout{
		TourID:        tourID,
		CustomerEmail: sess.CustomerEmail,
		AmountTotal:   sess.AmountTotal,
	}, nil
}
