package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/money"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
	"github.com/kalp9197/luxe-ecommerce-site/ws"
)

type OrderService interface {
	// Create prices the lines from the catalog and stores a pending order.
	Create(ctx context.Context, user *models.User, req *models.CreateOrderRequest) (*models.Order, error)
	// Get returns the order to its owner or an admin.
	Get(ctx context.Context, user *models.User, id string) (*models.Order, error)
	ListMine(ctx context.Context, user *models.User) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	// Pay confirms the order against the provider's view of the intent.
	Pay(ctx context.Context, user *models.User, id string, req *models.PayOrderRequest) (*models.Order, error)
	Deliver(ctx context.Context, id string) (*models.Order, error)

	AttachPaymentIntent(ctx context.Context, orderID, intentID string) error
	// MarkPaidByIntent and MarkFailedByIntent are driven by the payment
	// webhook. orderID wins when set; otherwise the order is found by intent.
	MarkPaidByIntent(ctx context.Context, orderID, intentID string) (*models.Order, error)
	MarkFailedByIntent(ctx context.Context, orderID, intentID string) (*models.Order, error)
}

type orderService struct {
	db       *sql.DB
	orders   repository.OrderRepository
	catalog  CatalogService
	hub      ws.EventPublisher
	provider PaymentProvider
	currency string
	clock    clock.Clock
}

func NewOrderService(
	db *sql.DB,
	orders repository.OrderRepository,
	catalog CatalogService,
	hub ws.EventPublisher,
	provider PaymentProvider,
	currency string,
	clk clock.Clock,
) OrderService {
	return &orderService{
		db:       db,
		orders:   orders,
		catalog:  catalog,
		hub:      hub,
		provider: provider,
		currency: currency,
		clock:    clock.OrReal(clk),
	}
}

func (s *orderService) Create(ctx context.Context, user *models.User, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	items := mergeLines(req.Items)
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          user.ID,
		ShippingAddress: req.ShippingAddress,
		Currency:        s.currency,
		Status:          models.OrderPending,
	}
	lines := make([]money.Line, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %s", pkg.ErrBadRequest, it.ProductID)
		}
		if it.Quantity > p.Inventory {
			return nil, fmt.Errorf("%w: only %d of %s in stock", pkg.ErrBadRequest, p.Inventory, p.Name)
		}
		price := p.EffectivePrice()
		order.Items = append(order.Items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.FirstImage(),
			Quantity:  it.Quantity,
			UnitPrice: price,
		})
		lines = append(lines, money.Line{UnitPrice: price, Quantity: int64(it.Quantity)})
	}

	itemsPrice, err := money.TotalMinor(lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	order.ItemsPrice = itemsPrice
	order.ShippingPrice = 0
	order.TotalPrice = itemsPrice

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return repository.NewSQLiteOrderRepo(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// mergeLines folds repeated products into one line so stock is checked
// against the combined quantity. First-seen order is kept.
func mergeLines(in []models.OrderLineRequest) []models.OrderLineRequest {
	out := make([]models.OrderLineRequest, 0, len(in))
	index := make(map[string]int, len(in))
	for _, it := range in {
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}

func (s *orderService) Get(ctx context.Context, user *models.User, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, fmt.Errorf("%w: not your order", pkg.ErrForbidden)
	}
	return order, nil
}

func (s *orderService) ListMine(ctx context.Context, user *models.User) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, user.ID)
}

func (s *orderService) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.orders.List(ctx)
}

func (s *orderService) Pay(ctx context.Context, user *models.User, id string, req *models.PayOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID {
		return nil, fmt.Errorf("%w: not your order", pkg.ErrForbidden)
	}
	if order.Status != models.OrderPending && order.Status != models.OrderPaymentFailed {
		return nil, fmt.Errorf("%w: order is already %s", pkg.ErrBadRequest, order.Status)
	}
	if err := s.verifyIntent(ctx, order, req.PaymentIntentID); err != nil {
		log.Printf("[order] pay %s rejected: %v", order.ID, err)
		return nil, err
	}

	if err := s.orders.MarkPaid(ctx, order.ID, req.PaymentIntentID, s.clock.Now()); err != nil {
		return nil, err
	}
	return s.reloadAndPublish(ctx, order.ID)
}

// verifyIntent checks that the intent was collected, for this order, for
// the full amount.
func (s *orderService) verifyIntent(ctx context.Context, order *models.Order, intentID string) error {
	intent, err := s.provider.RetrieveIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, pkg.ErrBadRequest) || errors.Is(err, pkg.ErrConfig) {
			return err
		}
		return fmt.Errorf("%w: %v", pkg.ErrUpstream, err)
	}
	switch {
	case intent.Status != IntentStatusSucceeded:
		return fmt.Errorf("%w: payment intent %s is %s", pkg.ErrBadRequest, intent.ID, intent.Status)
	case intent.Metadata["order_id"] != order.ID:
		return fmt.Errorf("%w: payment intent %s belongs to another order", pkg.ErrBadRequest, intent.ID)
	case intent.AmountMinor != order.TotalPrice:
		return fmt.Errorf("%w: payment intent %s charged %d, order total is %d",
			pkg.ErrBadRequest, intent.ID, intent.AmountMinor, order.TotalPrice)
	case !strings.EqualFold(intent.Currency, order.Currency):
		return fmt.Errorf("%w: payment intent %s is in %s, order is in %s",
			pkg.ErrBadRequest, intent.ID, intent.Currency, order.Currency)
	}
	return nil
}

func (s *orderService) Deliver(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPaid {
		return nil, fmt.Errorf("%w: only paid orders can be delivered (order is %s)", pkg.ErrBadRequest, order.Status)
	}

	if err := s.orders.MarkDelivered(ctx, order.ID, s.clock.Now()); err != nil {
		return nil, err
	}
	return s.reloadAndPublish(ctx, order.ID)
}

func (s *orderService) AttachPaymentIntent(ctx context.Context, orderID, intentID string) error {
	return s.orders.SetPaymentIntent(ctx, orderID, intentID)
}

func (s *orderService) MarkPaidByIntent(ctx context.Context, orderID, intentID string) (*models.Order, error) {
	order, err := s.findForPayment(ctx, orderID, intentID)
	if err != nil {
		return nil, err
	}
	// Providers retry deliveries; a repeat must not move paid_at.
	if order.Status == models.OrderPaid || order.Status == models.OrderDelivered {
		return order, nil
	}

	if err := s.orders.MarkPaid(ctx, order.ID, intentID, s.clock.Now()); err != nil {
		return nil, err
	}
	return s.reloadAndPublish(ctx, order.ID)
}

func (s *orderService) MarkFailedByIntent(ctx context.Context, orderID, intentID string) (*models.Order, error) {
	order, err := s.findForPayment(ctx, orderID, intentID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return order, nil
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderPaymentFailed); err != nil {
		return nil, err
	}
	return s.reloadAndPublish(ctx, order.ID)
}

func (s *orderService) findForPayment(ctx context.Context, orderID, intentID string) (*models.Order, error) {
	if orderID != "" {
		order, err := s.orders.GetByID(ctx, orderID)
		if err == nil || !errors.Is(err, pkg.ErrNotFound) {
			return order, err
		}
	}
	return s.orders.GetByPaymentIntent(ctx, intentID)
}

func (s *orderService) reloadAndPublish(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Printf("[orders] order %s is now %s", order.ID, order.Status)
	s.hub.BroadcastToUser(order.UserID, ws.Event{Op: ws.OpOrderUpdate, Data: order})
	return order, nil
}
