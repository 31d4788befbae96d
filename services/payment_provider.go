package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

// IntentParams describes one charge in integer minor units.
type IntentParams struct {
	AmountMinor    int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// IntentStatusSucceeded is the only status that means the money was
// collected.
const IntentStatusSucceeded = "succeeded"

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountMinor  int64
	Currency     string
	Metadata     map[string]string
}

// PaymentProvider creates payment intents and reads them back. The Stripe
// implementation is the only production one; tests use a recording fake.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, p IntentParams) (*Intent, error)
	// RetrieveIntent returns pkg.ErrBadRequest for an id the provider does
	// not know.
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

type stripeProvider struct {
	api *client.API
}

// NewStripeProvider returns a provider that refuses every request with
// pkg.ErrConfig when secretKey is empty.
func NewStripeProvider(secretKey string) PaymentProvider {
	if secretKey == "" {
		return &stripeProvider{}
	}
	return &stripeProvider{api: client.New(secretKey, nil)}
}

func (s *stripeProvider) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	if s.api == nil {
		return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY is not set", pkg.ErrConfig)
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(p.AmountMinor),
		Currency:           stripe.String(p.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (s *stripeProvider) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	if s.api == nil {
		return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY is not set", pkg.ErrConfig)
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: unknown payment intent %s", pkg.ErrBadRequest, id)
		}
		return nil, fmt.Errorf("stripe: retrieve payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
