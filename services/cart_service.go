package services

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
	"github.com/kalp9197/luxe-ecommerce-site/ws"
)

// CartService is the server-side cart of a signed-in user. Lines store only
// product id and quantity; prices are read from the catalog every time.
type CartService interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Add(ctx context.Context, userID string, req *models.AddToCartRequest) (*models.Cart, error)
	// SetQuantity removes the line when quantity is zero or less.
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error)
	Remove(ctx context.Context, userID, productID string) (*models.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type cartService struct {
	items   repository.CartRepository
	catalog CatalogService
	hub     ws.EventPublisher
}

func NewCartService(items repository.CartRepository, catalog CatalogService, hub ws.EventPublisher) CartService {
	return &cartService{items: items, catalog: catalog, hub: hub}
}

func (s *cartService) Get(ctx context.Context, userID string) (*models.Cart, error) {
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{Items: []models.CartLine{}, Total: decimal.Zero}
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			// Deleted products cascade out of cart_items; this only covers
			// a delete racing the read.
			continue
		}
		price := p.EffectivePrice()
		cart.Items = append(cart.Items, models.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: price,
			Quantity:  it.Quantity,
			Image:     p.FirstImage(),
		})
		cart.Total = cart.Total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		cart.Count += it.Quantity
	}
	return cart, nil
}

func (s *cartService) Add(ctx context.Context, userID string, req *models.AddToCartRequest) (*models.Cart, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if _, err := s.catalog.GetProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}

	if err := s.items.Add(ctx, userID, req.ProductID, req.Quantity); err != nil {
		return nil, err
	}
	return s.changed(ctx, userID)
}

func (s *cartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID)
	}
	if err := s.items.SetQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.changed(ctx, userID)
}

func (s *cartService) Remove(ctx context.Context, userID, productID string) (*models.Cart, error) {
	if err := s.items.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.changed(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	if err := s.items.Clear(ctx, userID); err != nil {
		return err
	}
	_, err := s.changed(ctx, userID)
	return err
}

// changed reloads the cart and pushes it to the user's other tabs.
func (s *cartService) changed(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		log.Printf("[cart] reload after change failed for user %s: %v", userID, err)
		return nil, err
	}
	s.hub.BroadcastToUser(userID, ws.Event{Op: ws.OpCartUpdate, Data: cart})
	return cart, nil
}
