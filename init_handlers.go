package main

import (
	"github.com/kalp9197/luxe-ecommerce-site/config"
	"github.com/kalp9197/luxe-ecommerce-site/handlers"
	"github.com/kalp9197/luxe-ecommerce-site/ws"
)

type Handlers struct {
	User     *handlers.UserHandler
	Product  *handlers.ProductHandler
	Category *handlers.CategoryHandler
	Review   *handlers.ReviewHandler
	Cart     *handlers.CartHandler
	Order    *handlers.OrderHandler
	Payment  *handlers.PaymentHandler
	WS       *ws.Handler
}

func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		User:     handlers.NewUserHandler(svcs.Auth, limiters.Login),
		Product:  handlers.NewProductHandler(svcs.Catalog),
		Category: handlers.NewCategoryHandler(svcs.Catalog),
		Review:   handlers.NewReviewHandler(svcs.Review),
		Cart:     handlers.NewCartHandler(svcs.Cart),
		Order:    handlers.NewOrderHandler(svcs.Order),
		Payment:  handlers.NewPaymentHandler(svcs.Payment),
		WS:       ws.NewHandler(hub, svcs.Tokens, cfg.CORS.AllowedOrigins),
	}
}
