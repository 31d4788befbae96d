package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

func TestPaymentService_RejectsMalformedItemsWithoutCallingProvider(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "pay@example.com")

	bad := []*models.PaymentIntentRequest{
		{},
		{Items: []models.PaymentItem{{Name: "x", Price: decimal.NewFromInt(1), Quantity: 0}}},
		{Items: []models.PaymentItem{{Name: "x", Price: decimal.NewFromInt(-1), Quantity: 1}}},
	}
	for _, req := range bad {
		_, err := env.payments.CreatePaymentIntent(context.Background(), u, req)
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	}
	assert.Empty(t, env.provider.calls)
}

func TestPaymentService_AmountInMinorUnits(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "pay@example.com")

	resp, err := env.payments.CreatePaymentIntent(context.Background(), u, &models.PaymentIntentRequest{
		Items: []models.PaymentItem{
			{Name: "Gift card", Price: decimal.RequireFromString("10.00"), Quantity: 2},
			{Name: "Sticker", Price: decimal.RequireFromString("0.335"), Quantity: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_test_secret", resp.ClientSecret)

	// 1000×2 + round(33.5)=34 ×3
	require.Len(t, env.provider.calls, 1)
	call := env.provider.calls[0]
	assert.Equal(t, int64(2102), call.AmountMinor)
	assert.Equal(t, "usd", call.Currency)
	assert.Empty(t, call.IdempotencyKey)

	var summary []models.IntentSummaryItem
	require.NoError(t, json.Unmarshal([]byte(call.Metadata["order_items"]), &summary))
	require.Len(t, summary, 2)
	assert.Equal(t, "Gift card", summary[0].Name)
}

func TestPaymentService_CatalogItemsAreRepriced(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "pay@example.com")
	p := env.product(t, "Necklace", "250.00", 2)

	_, err := env.payments.CreatePaymentIntent(context.Background(), u, &models.PaymentIntentRequest{
		Items: []models.PaymentItem{{ID: p.ID, Name: "Necklace", Price: decimal.RequireFromString("0.01"), Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, env.provider.calls, 1)
	assert.Equal(t, int64(25000), env.provider.calls[0].AmountMinor)

	_, err = env.payments.CreatePaymentIntent(context.Background(), u, &models.PaymentIntentRequest{
		Items: []models.PaymentItem{{ID: "ghost", Price: decimal.NewFromInt(1), Quantity: 1}},
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Len(t, env.provider.calls, 1)
}

func TestPaymentService_ProviderFailureIsUpstream(t *testing.T) {
	env := newTestEnv(t)
	env.provider.err = errProviderDown
	u := env.user(t, "pay@example.com")

	_, err := env.payments.CreatePaymentIntent(context.Background(), u, &models.PaymentIntentRequest{
		Items: []models.PaymentItem{{Name: "x", Price: decimal.NewFromInt(5), Quantity: 1}},
	})
	assert.ErrorIs(t, err, pkg.ErrUpstream)
}

func TestPaymentService_OrderIntentUsesStoredTotal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "pay@example.com")
	other := env.user(t, "other@example.com")
	p := env.product(t, "Tie", "12.34", 5)

	order, err := env.orders.Create(ctx, u, &models.CreateOrderRequest{
		Items: []models.OrderLineRequest{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	req := &models.PaymentIntentRequest{
		OrderID: order.ID,
		Items:   []models.PaymentItem{{ID: p.ID, Price: decimal.NewFromInt(1), Quantity: 1}},
	}

	_, err = env.payments.CreatePaymentIntent(ctx, other, req)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	resp, err := env.payments.CreatePaymentIntent(ctx, u, req)
	require.NoError(t, err)
	assert.Equal(t, int64(3702), resp.Amount)
	assert.Equal(t, order.ID, env.provider.calls[0].Metadata["order_id"])

	_, err = env.payments.CreatePaymentIntent(ctx, u, req)
	require.NoError(t, err)
	require.Len(t, env.provider.calls, 2)
	key := env.provider.calls[0].IdempotencyKey
	assert.Equal(t, "order-intent-"+order.ID+"-3702", key)
	assert.Equal(t, key, env.provider.calls[1].IdempotencyKey)

	stored, err := env.orders.Get(ctx, u, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_test", stored.PaymentIntentID)
}

func signedEvent(t *testing.T, eventType, intentID, orderID string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"object": "event",
		"type": %q,
		"data": {"object": {"id": %q, "object": "payment_intent", "metadata": {"order_id": %q}}}
	}`, eventType, intentID, orderID))

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestPaymentService_WebhookSignature(t *testing.T) {
	env := newTestEnv(t)

	payload, _ := signedEvent(t, "payment_intent.succeeded", "pi_1", "")
	_, err := env.payments.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, pkg.ErrSignature)

	_, err = env.payments.HandleWebhook(context.Background(), payload, "")
	assert.ErrorIs(t, err, pkg.ErrSignature)
}

func TestPaymentService_WebhookUpdatesOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "hook@example.com")
	p := env.product(t, "Cap", "20", 5)

	paidOrder, err := env.orders.Create(ctx, u, &models.CreateOrderRequest{
		Items: []models.OrderLineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	failedOrder, err := env.orders.Create(ctx, u, &models.CreateOrderRequest{
		Items: []models.OrderLineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, env.orders.AttachPaymentIntent(ctx, failedOrder.ID, "pi_failed"))

	payload, header := signedEvent(t, "payment_intent.succeeded", "pi_paid", paidOrder.ID)
	ack, err := env.payments.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.True(t, ack.Received)

	// Found by intent id alone.
	payload, header = signedEvent(t, "payment_intent.payment_failed", "pi_failed", "")
	_, err = env.payments.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)

	got, err := env.orders.Get(ctx, u, paidOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, got.Status)
	assert.Equal(t, "pi_paid", got.PaymentIntentID)

	got, err = env.orders.Get(ctx, u, failedOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaymentFailed, got.Status)

	// Unknown types and unmatched intents are still acknowledged.
	payload, header = signedEvent(t, "charge.refunded", "pi_other", "")
	ack, err = env.payments.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.True(t, ack.Received)

	payload, header = signedEvent(t, "payment_intent.succeeded", "pi_nobody", "")
	ack, err = env.payments.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.True(t, ack.Received)
}
