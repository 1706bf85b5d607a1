// Package stripesvc takes card payments through Stripe Checkout.
package stripesvc

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/billing"
	"github.com/startuplab/backend/core/plan"
)

const (
	eventCheckoutCompleted    = "checkout.session.completed"
	eventAsyncPaymentSucceded = "checkout.session.async_payment_succeeded"
)

type Checkout struct {
	sessions      session.Client
	webhookSecret string
	successURL    string
	cancelURL     string
	logger        core.Logger
}

var _ billing.CheckoutProvider = (*Checkout)(nil)

// NewCheckout returns nil when Stripe is not configured, which disables card payments.
func NewCheckout(conf *core.Config, logger core.Logger) billing.CheckoutProvider {
	if conf.Stripe.SecretKey == "" {
		return nil
	}
	return &Checkout{
		sessions:      session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: conf.Stripe.SecretKey},
		webhookSecret: conf.Stripe.WebhookSecret,
		successURL:    conf.Stripe.SuccessURL,
		cancelURL:     conf.Stripe.CancelURL,
		logger:        logger,
	}
}

// CreateCheckout opens a one-time payment session for the plan of p.
func (c *Checkout) CreateCheckout(ctx context.Context, p billing.Payment, email string) (string, string, error) {
	pl := plan.Get(p.Plan)
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(p.Currency)),
					UnitAmount: stripe.Int64(p.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("StartUpLab " + pl.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(p.ID),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.Context = ctx
	params.AddMetadata("payment_id", p.ID)
	params.AddMetadata("plan", p.Plan)

	sess, err := c.sessions.New(params)
	if err != nil {
		return "", "", errors.Wrap(err, "creating stripe checkout session")
	}
	return sess.ID, sess.URL, nil
}

// ParseWebhook verifies the signature of a Stripe notification and extracts its checkout session.
// Events other than completed checkouts yield an unpaid event.
func (c *Checkout) ParseWebhook(payload []byte, signature string) (billing.CheckoutEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("stripe webhook signature failed", err)
		}
		return billing.CheckoutEvent{}, billing.ErrInvalidWebhook
	}

	switch event.Type {
	case eventCheckoutCompleted, eventAsyncPaymentSucceded:
		var sess stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return billing.CheckoutEvent{}, billing.ErrInvalidWebhook
		}
		return billing.CheckoutEvent{
			SessionID: sess.ID,
			Paid:      sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		}, nil
	default:
		// ignored
		return billing.CheckoutEvent{}, nil
	}
}
