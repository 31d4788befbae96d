package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/money"
)

const (
	eventIntentSucceeded = "payment_intent.succeeded"
	eventIntentFailed    = "payment_intent.payment_failed"

	// Provider limit on a single metadata value.
	maxMetadataValue = 500
)

type PaymentService interface {
	// CreatePaymentIntent computes the charge server-side. Submitted prices
	// are only used for lines that do not reference a catalog product.
	CreatePaymentIntent(ctx context.Context, user *models.User, req *models.PaymentIntentRequest) (*models.PaymentIntentResponse, error)
	// HandleWebhook verifies the signature before anything else. Once
	// verified, receipt is acknowledged whatever the event type.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.WebhookAck, error)
	Config() *models.PaymentConfigResponse
}

type PaymentConfig struct {
	PublishableKey string
	WebhookSecret  string
	Currency       string
}

type paymentService struct {
	provider PaymentProvider
	catalog  CatalogService
	orders   OrderService
	cfg      PaymentConfig
}

func NewPaymentService(provider PaymentProvider, catalog CatalogService, orders OrderService, cfg PaymentConfig) PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &paymentService{provider: provider, catalog: catalog, orders: orders, cfg: cfg}
}

func (s *paymentService) Config() *models.PaymentConfigResponse {
	return &models.PaymentConfigResponse{PublishableKey: s.cfg.PublishableKey}
}

func (s *paymentService) CreatePaymentIntent(ctx context.Context, user *models.User, req *models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items are required", pkg.ErrBadRequest)
	}
	for i, it := range req.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d: quantity must be at least 1", pkg.ErrBadRequest, i+1)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item %d: price must not be negative", pkg.ErrBadRequest, i+1)
		}
	}

	var (
		amount  int64
		summary []models.IntentSummaryItem
		err     error
	)
	if req.OrderID != "" {
		amount, summary, err = s.priceOrder(ctx, user, req.OrderID)
	} else {
		amount, summary, err = s.priceItems(ctx, req.Items)
	}
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", pkg.ErrBadRequest)
	}

	metadata := map[string]string{"order_items": summaryMetadata(summary)}
	if req.OrderID != "" {
		metadata["order_id"] = req.OrderID
	}
	if user != nil {
		metadata["user_id"] = user.ID
	}

	// A repeated submit for the same order gets the same intent back. Cart
	// checkouts have nothing stable to key on.
	var idempotencyKey string
	if req.OrderID != "" {
		idempotencyKey = orderIntentKey(req.OrderID, amount)
	}

	intent, err := s.provider.CreateIntent(ctx, IntentParams{
		AmountMinor:    amount,
		Currency:       s.cfg.Currency,
		Metadata:       metadata,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		log.Printf("[payment] create intent failed: %v", err)
		return nil, fmt.Errorf("%w: payment provider unavailable: %v", pkg.ErrUpstream, err)
	}

	if req.OrderID != "" {
		if err := s.orders.AttachPaymentIntent(ctx, req.OrderID, intent.ID); err != nil {
			log.Printf("[payment] failed to attach intent %s to order %s: %v", intent.ID, req.OrderID, err)
		}
	}

	return &models.PaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
		Currency:     s.cfg.Currency,
	}, nil
}

func orderIntentKey(orderID string, amount int64) string {
	return fmt.Sprintf("order-intent-%s-%d", orderID, amount)
}

// priceOrder charges exactly what the stored order says.
func (s *paymentService) priceOrder(ctx context.Context, user *models.User, orderID string) (int64, []models.IntentSummaryItem, error) {
	if user == nil {
		return 0, nil, fmt.Errorf("%w: sign in to pay for an order", pkg.ErrUnauthorized)
	}
	order, err := s.orders.Get(ctx, user, orderID)
	if err != nil {
		return 0, nil, err
	}
	if order.UserID != user.ID {
		return 0, nil, fmt.Errorf("%w: not your order", pkg.ErrForbidden)
	}
	if order.Status != models.OrderPending && order.Status != models.OrderPaymentFailed {
		return 0, nil, fmt.Errorf("%w: order is already %s", pkg.ErrBadRequest, order.Status)
	}

	summary := make([]models.IntentSummaryItem, len(order.Items))
	for i, it := range order.Items {
		summary[i] = models.IntentSummaryItem{ID: it.ProductID, Name: it.Name, Quantity: it.Quantity}
	}
	return order.TotalPrice, summary, nil
}

// priceItems re-prices catalog lines and sums round(unit×100)×quantity.
func (s *paymentService) priceItems(ctx context.Context, items []models.PaymentItem) (int64, []models.IntentSummaryItem, error) {
	var ids []string
	for _, it := range items {
		if it.ID != "" {
			ids = append(ids, it.ID)
		}
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: catalog lookup: %v", pkg.ErrUpstream, err)
	}

	lines := make([]money.Line, len(items))
	summary := make([]models.IntentSummaryItem, len(items))
	for i, it := range items {
		price, name := it.Price, it.Name
		if it.ID != "" {
			p, ok := products[it.ID]
			if !ok {
				return 0, nil, fmt.Errorf("%w: unknown product %s", pkg.ErrBadRequest, it.ID)
			}
			price, name = p.EffectivePrice(), p.Name
		}
		lines[i] = money.Line{UnitPrice: price, Quantity: int64(it.Quantity)}
		summary[i] = models.IntentSummaryItem{ID: it.ID, Name: name, Quantity: it.Quantity}
	}

	amount, err := money.TotalMinor(lines)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	return amount, summary, nil
}

func summaryMetadata(summary []models.IntentSummaryItem) string {
	b, err := json.Marshal(summary)
	if err != nil || len(b) > maxMetadataValue {
		return fmt.Sprintf(`{"lines":%d}`, len(summary))
	}
	return string(b)
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.WebhookAck, error) {
	if s.cfg.WebhookSecret == "" {
		log.Println("[webhook] rejected: webhook secret is not configured")
		return nil, fmt.Errorf("%w: webhook secret not configured", pkg.ErrSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Printf("[webhook] signature verification failed: %v", err)
		return nil, fmt.Errorf("%w: %v", pkg.ErrSignature, err)
	}

	switch string(event.Type) {
	case eventIntentSucceeded:
		s.applyIntent(ctx, event, s.orders.MarkPaidByIntent)
	case eventIntentFailed:
		s.applyIntent(ctx, event, s.orders.MarkFailedByIntent)
	default:
		log.Printf("[webhook] unhandled event type %s (%s)", event.Type, event.ID)
	}

	return &models.WebhookAck{Received: true}, nil
}

func (s *paymentService) applyIntent(
	ctx context.Context,
	event stripe.Event,
	apply func(ctx context.Context, orderID, intentID string) (*models.Order, error),
) {
	if event.Data == nil {
		log.Printf("[webhook] %s %s carries no object", event.Type, event.ID)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Printf("[webhook] failed to decode payment intent in %s: %v", event.ID, err)
		return
	}

	order, err := apply(ctx, pi.Metadata["order_id"], pi.ID)
	switch {
	case errors.Is(err, pkg.ErrNotFound):
		log.Printf("[webhook] %s for intent %s matches no order", event.Type, pi.ID)
	case err != nil:
		log.Printf("[webhook] failed to apply %s for intent %s: %v", event.Type, pi.ID, err)
	default:
		log.Printf("[webhook] %s: order %s is %s", event.Type, order.ID, order.Status)
	}
}
