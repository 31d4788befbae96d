package main

import (
	"database/sql"
	"log"

	"github.com/kalp9197/luxe-ecommerce-site/config"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/email"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/ratelimit"
	"github.com/kalp9197/luxe-ecommerce-site/services"
	"github.com/kalp9197/luxe-ecommerce-site/ws"
)

type Services struct {
	Tokens  services.TokenIssuer
	Auth    services.AuthService
	Catalog services.CatalogService
	Review  services.ReviewService
	Cart    services.CartService
	Order   services.OrderService
	Payment services.PaymentService
}

type RateLimiters struct {
	Login *ratelimit.LoginRateLimiter
}

// initServices builds the service layer. The catalog comes first: reviews,
// cart, orders and payments all price through it.
func initServices(db *sql.DB, repos *Repositories, hub *ws.Hub, cfg *config.Config) (*Services, *RateLimiters) {
	clk := clock.Real{}

	var mailer email.Sender
	if cfg.Email.ResendAPIKey != "" && cfg.Email.FromEmail != "" {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		log.Println("[main] password reset email enabled (Resend)")
	} else {
		log.Println("[main] RESEND_API_KEY or EMAIL_FROM not set; password reset emails will not be sent")
	}

	if cfg.Stripe.SecretKey == "" {
		log.Println("[main] STRIPE_SECRET_KEY not set; payment intents will fail")
	}
	if cfg.Stripe.WebhookSecret == "" {
		log.Println("[main] STRIPE_WEBHOOK_SECRET not set; every webhook will be rejected")
	}

	tokens := services.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry, clk)
	authService := services.NewAuthService(repos.User, repos.ResetToken, tokens, mailer, clk)
	catalogService := services.NewCatalogService(repos.Product, repos.Category, cfg.Catalog.CacheTTL, clk)
	reviewService := services.NewReviewService(db, repos.Review, catalogService)
	cartService := services.NewCartService(repos.Cart, catalogService, hub)
	provider := services.NewStripeProvider(cfg.Stripe.SecretKey)
	orderService := services.NewOrderService(db, repos.Order, catalogService, hub, provider, cfg.Stripe.Currency, clk)
	paymentService := services.NewPaymentService(
		provider,
		catalogService,
		orderService,
		services.PaymentConfig{
			PublishableKey: cfg.Stripe.PublishableKey,
			WebhookSecret:  cfg.Stripe.WebhookSecret,
			Currency:       cfg.Stripe.Currency,
		},
	)

	svcs := &Services{
		Tokens:  tokens,
		Auth:    authService,
		Catalog: catalogService,
		Review:  reviewService,
		Cart:    cartService,
		Order:   orderService,
		Payment: paymentService,
	}

	limiters := &RateLimiters{
		Login: ratelimit.NewLoginRateLimiter(cfg.Login.MaxAttempts, cfg.Login.Window, clk),
	}

	return svcs, limiters
}
