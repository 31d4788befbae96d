package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
	"github.com/kalp9197/luxe-ecommerce-site/ws"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingHub struct {
	mu     sync.Mutex
	events map[string][]ws.Event
}

func (h *recordingHub) BroadcastToUser(userID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil {
		h.events = make(map[string][]ws.Event)
	}
	h.events[userID] = append(h.events[userID], event)
}

func (h *recordingHub) ops(userID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, ev := range h.events[userID] {
		out = append(out, ev.Op)
	}
	return out
}

type fakeProvider struct {
	calls     []IntentParams
	err       error
	intents   map[string]*Intent
	retrieved int
}

func (p *fakeProvider) CreateIntent(_ context.Context, params IntentParams) (*Intent, error) {
	p.calls = append(p.calls, params)
	if p.err != nil {
		return nil, p.err
	}
	return &Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (p *fakeProvider) RetrieveIntent(_ context.Context, id string) (*Intent, error) {
	p.retrieved++
	if p.err != nil {
		return nil, p.err
	}
	intent, ok := p.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment intent %s", pkg.ErrBadRequest, id)
	}
	return intent, nil
}

// settle registers a provider-side intent that collected the order's total.
func (p *fakeProvider) settle(id string, order *models.Order) {
	if p.intents == nil {
		p.intents = make(map[string]*Intent)
	}
	p.intents[id] = &Intent{
		ID:          id,
		Status:      IntentStatusSucceeded,
		AmountMinor: order.TotalPrice,
		Currency:    order.Currency,
		Metadata:    map[string]string{"order_id": order.ID},
	}
}

type fakeMailer struct {
	to, token string
	err       error
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, toEmail, _ string, token string) error {
	m.to, m.token = toEmail, token
	return m.err
}

var errProviderDown = errors.New("provider down")

type testEnv struct {
	db       *database.DB
	clock    *clock.Fake
	hub      *recordingHub
	provider *fakeProvider
	mailer   *fakeMailer

	users      repository.UserRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository

	tokens   TokenIssuer
	auth     AuthService
	catalog  CatalogService
	reviews  ReviewService
	cart     CartService
	orders   OrderService
	payments PaymentService
}

const testWebhookSecret = "whsec_test"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:         db,
		clock:      clock.NewFake(testStart),
		hub:        &recordingHub{},
		provider:   &fakeProvider{},
		mailer:     &fakeMailer{},
		users:      repository.NewSQLiteUserRepo(db.Conn),
		products:   repository.NewSQLiteProductRepo(db.Conn),
		categories: repository.NewSQLiteCategoryRepo(db.Conn),
	}

	env.tokens = NewTokenIssuer("test-secret", time.Hour, env.clock)
	env.auth = NewAuthService(env.users, repository.NewSQLiteResetTokenRepo(db.Conn), env.tokens, env.mailer, env.clock)
	env.catalog = NewCatalogService(env.products, env.categories, time.Minute, env.clock)
	t.Cleanup(env.catalog.Close)
	env.reviews = NewReviewService(db.Conn, repository.NewSQLiteReviewRepo(db.Conn), env.catalog)
	env.cart = NewCartService(repository.NewSQLiteCartRepo(db.Conn), env.catalog, env.hub)
	env.orders = NewOrderService(db.Conn, repository.NewSQLiteOrderRepo(db.Conn), env.catalog, env.hub, env.provider, "usd", env.clock)
	env.payments = NewPaymentService(env.provider, env.catalog, env.orders, PaymentConfig{
		PublishableKey: "pk_test",
		WebhookSecret:  testWebhookSecret,
		Currency:       "usd",
	})
	return env
}

func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Shopper", Email: email, PasswordHash: "unused", Role: models.RoleUser}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) product(t *testing.T, name, price string, inventory int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Images:    []string{"/images/" + name + ".jpg"},
		Inventory: inventory,
	}
	require.NoError(t, e.products.Create(context.Background(), p))
	return p
}
