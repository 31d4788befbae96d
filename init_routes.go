package main

import (
	"net/http"

	"github.com/kalp9197/luxe-ecommerce-site/handlers"
	"github.com/kalp9197/luxe-ecommerce-site/middleware"
)

// initRoutes mounts every endpoint on mux. Literal segments such as
// /api/products/export win over {id} patterns regardless of order, but they
// are still listed first for readability.
func initRoutes(mux *http.ServeMux, h *Handlers, authMw *middleware.AuthMiddleware) {
	adminMw := middleware.NewAdminMiddleware()

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}
	authAdmin := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(adminMw.Require(handler))
	}

	mux.HandleFunc("GET /api/health", handlers.Health)

	// Users
	mux.HandleFunc("POST /api/users/login", h.User.Login)
	mux.HandleFunc("POST /api/users/register", h.User.Register)
	mux.HandleFunc("POST /api/users/forgot-password", h.User.ForgotPassword)
	mux.HandleFunc("POST /api/users/reset-password", h.User.ResetPassword)
	mux.Handle("GET /api/users/profile", auth(h.User.GetProfile))
	mux.Handle("PUT /api/users/profile", auth(h.User.UpdateProfile))

	// Products
	mux.HandleFunc("GET /api/products", h.Product.List)
	mux.Handle("GET /api/products/export", authAdmin(h.Product.Export))
	mux.Handle("POST /api/products/import", authAdmin(h.Product.Import))
	mux.HandleFunc("GET /api/products/{id}", h.Product.Get)
	mux.Handle("POST /api/products", authAdmin(h.Product.Create))
	mux.Handle("PUT /api/products/{id}", authAdmin(h.Product.Update))
	mux.Handle("DELETE /api/products/{id}", authAdmin(h.Product.Delete))

	// Categories
	mux.HandleFunc("GET /api/categories", h.Category.List)
	mux.HandleFunc("GET /api/categories/{id}", h.Category.Get)
	mux.Handle("POST /api/categories", authAdmin(h.Category.Create))
	mux.Handle("PUT /api/categories/{id}", authAdmin(h.Category.Update))
	mux.Handle("DELETE /api/categories/{id}", authAdmin(h.Category.Delete))

	// Reviews
	mux.HandleFunc("GET /api/reviews", h.Review.List)
	mux.HandleFunc("GET /api/reviews/product/{id}", h.Review.ListByProduct)
	mux.Handle("POST /api/reviews", auth(h.Review.Create))
	mux.Handle("PUT /api/reviews/{id}", auth(h.Review.Update))
	mux.Handle("DELETE /api/reviews/{id}", authAdmin(h.Review.Delete))

	// Cart
	mux.Handle("GET /api/cart", auth(h.Cart.Get))
	mux.Handle("POST /api/cart", auth(h.Cart.Add))
	mux.Handle("DELETE /api/cart", auth(h.Cart.Clear))
	mux.Handle("PUT /api/cart/{productId}", auth(h.Cart.SetQuantity))
	mux.Handle("DELETE /api/cart/{productId}", auth(h.Cart.Remove))

	// Orders
	mux.Handle("POST /api/orders", auth(h.Order.Create))
	mux.Handle("GET /api/orders/myorders", auth(h.Order.ListMine))
	mux.Handle("GET /api/orders", authAdmin(h.Order.ListAll))
	mux.Handle("GET /api/orders/{id}", auth(h.Order.Get))
	mux.Handle("PUT /api/orders/{id}/pay", auth(h.Order.Pay))
	mux.Handle("PUT /api/orders/{id}/deliver", authAdmin(h.Order.Deliver))

	// Payments: the storefront calls /api/stripe, older clients /api/payment.
	for _, prefix := range []string{"/api/stripe", "/api/payment"} {
		mux.Handle("POST "+prefix+"/create-payment-intent", auth(h.Payment.CreatePaymentIntent))
		mux.HandleFunc("POST "+prefix+"/webhook", h.Payment.Webhook)
		mux.HandleFunc("GET "+prefix+"/config", h.Payment.Config)
	}

	// Browsers cannot set headers on a websocket upgrade, so the handler
	// reads ?token= itself.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)

	mux.HandleFunc("/", middleware.NotFound)
}
