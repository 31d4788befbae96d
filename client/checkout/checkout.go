// Package checkout turns the stored cart into a confirmed card payment.
//
// The flow is: read and clean the cart, ask the server for a payment intent,
// hand its client secret to the payment provider's confirmation step, and
// clear the cart only once the provider reports success.
package checkout

import (
	"context"
	"errors"
	"log"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/kalp9197/luxe-ecommerce-site/client/cart"
	"github.com/kalp9197/luxe-ecommerce-site/models"
)

const (
	ConfirmationPath = "/order-confirmation"

	GenericFailure  = "Something went wrong. Please try again."
	UnknownDecline  = "An unknown error occurred"
	PendingMessage  = "Additional verification may be required."
	statusSucceeded = "succeeded"
)

var (
	ErrInProgress = errors.New("checkout already in progress")
	ErrEmptyCart  = errors.New("cart is empty")
)

type Status string

const (
	Succeeded Status = "succeeded"
	Pending   Status = "pending"
	Failed    Status = "failed"
)

// Result is what the checkout page renders. Message is shown to the shopper;
// Err keeps the underlying failure for logs.
type Result struct {
	Status     Status
	RedirectTo string
	Message    string
	Err        error
}

// ProviderError is a payment the provider declined. Its message is shown
// to the shopper unchanged.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return "payment declined"
	}
	return e.Message
}

// PaymentConfirmer is the provider's embedded payment form. Confirm returns
// the intent status ("succeeded", "processing", "requires_action", ...) or
// a *ProviderError when the payment was refused.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, clientSecret string) (string, error)
}

type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req *models.PaymentIntentRequest) (*models.PaymentIntentResponse, error)
}

// ErrorHandler lets a signed-in session react to API failures, e.g. sign
// out on 401.
type ErrorHandler interface {
	HandleError(err error) bool
}

type Checkout struct {
	cart      *cart.Cart
	intents   IntentCreator
	confirmer PaymentConfirmer
	errors    ErrorHandler

	inFlight atomic.Bool
}

type Option func(*Checkout)

func WithErrorHandler(h ErrorHandler) Option {
	return func(c *Checkout) { c.errors = h }
}

func New(c *cart.Cart, intents IntentCreator, confirmer PaymentConfirmer, opts ...Option) *Checkout {
	co := &Checkout{cart: c, intents: intents, confirmer: confirmer}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// Submit runs one checkout. Only ErrInProgress and ErrEmptyCart come back
// as errors; everything else is described by the Result.
func (c *Checkout) Submit(ctx context.Context, shipping *models.ShippingAddress) (*Result, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrInProgress
	}
	defer c.inFlight.Store(false)

	items := Normalize(c.cart.Items())
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	intent, err := c.intents.CreatePaymentIntent(ctx, &models.PaymentIntentRequest{
		Items:    items,
		Shipping: shipping,
	})
	if err != nil {
		log.Printf("[checkout] failed to create payment intent: %v", err)
		if c.errors != nil {
			c.errors.HandleError(err)
		}
		return &Result{Status: Failed, Message: GenericFailure, Err: err}, nil
	}

	status, err := c.confirmer.Confirm(ctx, intent.ClientSecret)
	if err != nil {
		var declined *ProviderError
		if errors.As(err, &declined) {
			msg := declined.Message
			if msg == "" {
				msg = UnknownDecline
			}
			return &Result{Status: Failed, Message: msg, Err: err}, nil
		}
		log.Printf("[checkout] payment confirmation failed: %v", err)
		return &Result{Status: Failed, Message: GenericFailure, Err: err}, nil
	}

	if status != statusSucceeded {
		return &Result{Status: Pending, Message: PendingMessage}, nil
	}

	if err := c.cart.Clear(); err != nil {
		// The payment went through; a stale cart is only cosmetic.
		log.Printf("[checkout] payment succeeded but cart was not cleared: %v", err)
	}
	return &Result{Status: Succeeded, RedirectTo: ConfirmationPath}, nil
}

// Normalize converts cart lines to payment items, forcing quantity to at
// least one and price to at least zero.
func Normalize(items []cart.Item) []models.PaymentItem {
	out := make([]models.PaymentItem, 0, len(items))
	for _, it := range items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		price := it.Price
		if price.IsNegative() {
			price = decimal.Zero
		}
		out = append(out, models.PaymentItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    price,
			Quantity: qty,
			Image:    it.Image,
		})
	}
	return out
}
