package handlers

import (
	"net/http"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/services"
)

// CartHandler serves the signed-in user's server cart. Every route needs auth.
type CartHandler struct {
	cart services.CartService
}

func NewCartHandler(cart services.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// Get godoc
// GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.Get(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, cart)
}

// Add godoc
// POST /api/cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.AddToCartRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cart, err := h.cart.Add(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, cart)
}

// SetQuantity godoc
// PUT /api/cart/{productId}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateCartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cart, err := h.cart.SetQuantity(r.Context(), user.ID, r.PathValue("productId"), req.Quantity)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, cart)
}

// Remove godoc
// DELETE /api/cart/{productId}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.Remove(r.Context(), user.ID, r.PathValue("productId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, cart)
}

// Clear godoc
// DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.cart.Clear(r.Context(), user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
