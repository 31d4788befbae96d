package handlers

import (
	"io"
	"net/http"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/services"
)

// webhookMaxBody matches the provider's documented maximum event size.
const webhookMaxBody = 64 << 10

// PaymentHandler is mounted twice, under /api/stripe and /api/payment.
type PaymentHandler struct {
	payments services.PaymentService
}

func NewPaymentHandler(payments services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreatePaymentIntent godoc
// POST /api/stripe/create-payment-intent
// Body: { "items": [...], "shipping": {...}, "order_id": "..." }
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.PaymentIntentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.payments.CreatePaymentIntent(r.Context(), user, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, resp)
}

// Webhook godoc
// POST /api/stripe/webhook
// The signature covers the exact bytes, so the body is read raw.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, webhookMaxBody))
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to read webhook body")
		return
	}

	ack, err := h.payments.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, ack)
}

// Config godoc
// GET /api/stripe/config
func (h *PaymentHandler) Config(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, h.payments.Config())
}
