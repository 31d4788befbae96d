package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRegisterRequestNormalizes(t *testing.T) {
	req := RegisterRequest{Name: "  Ada  ", Email: " ADA@Example.com ", Password: "secret1"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ada", req.Name)
	assert.Equal(t, "ada@example.com", req.Email)

	cases := map[string]RegisterRequest{
		"blank name":     {Name: " ", Email: "a@b.co", Password: "secret1"},
		"long name":      {Name: strings.Repeat("x", 101), Email: "a@b.co", Password: "secret1"},
		"bad email":      {Name: "A", Email: "not-an-email", Password: "secret1"},
		"display email":  {Name: "A", Email: "Ada <a@b.co>", Password: "secret1"},
		"short password": {Name: "A", Email: "a@b.co", Password: "12345"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, req.Validate())
		})
	}
}

func TestUpdateProfileRequestOnlyChecksSetFields(t *testing.T) {
	assert.NoError(t, (&UpdateProfileRequest{}).Validate())

	req := UpdateProfileRequest{Name: ptr(" Ada "), Email: ptr("ADA@example.com")}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ada", *req.Name)
	assert.Equal(t, "ada@example.com", *req.Email)

	assert.Error(t, (&UpdateProfileRequest{Name: ptr("  ")}).Validate())
	assert.Error(t, (&UpdateProfileRequest{Password: ptr("123")}).Validate())
}

func TestAddToCartDefaultsQuantity(t *testing.T) {
	req := AddToCartRequest{ProductID: "p1"}
	require.NoError(t, req.Validate())
	assert.Equal(t, 1, req.Quantity)

	assert.Error(t, (&AddToCartRequest{ProductID: "p1", Quantity: -1}).Validate())
	assert.Error(t, (&AddToCartRequest{Quantity: 1}).Validate())
}

func TestCreateOrderRequestValidate(t *testing.T) {
	assert.Error(t, (&CreateOrderRequest{}).Validate())
	assert.Error(t, (&CreateOrderRequest{Items: []OrderLineRequest{{ProductID: "p1"}}}).Validate())
	assert.Error(t, (&CreateOrderRequest{Items: []OrderLineRequest{{Quantity: 1}}}).Validate())
	assert.NoError(t, (&CreateOrderRequest{Items: []OrderLineRequest{{ProductID: "p1", Quantity: 2}}}).Validate())
}

func TestReviewRatingBounds(t *testing.T) {
	assert.Error(t, (&CreateReviewRequest{ProductID: "p1", Rating: 0}).Validate())
	assert.Error(t, (&CreateReviewRequest{ProductID: "p1", Rating: 6}).Validate())
	assert.Error(t, (&CreateReviewRequest{Rating: 3}).Validate())
	assert.NoError(t, (&CreateReviewRequest{ProductID: "p1", Rating: 5}).Validate())

	assert.NoError(t, (&UpdateReviewRequest{Comment: ptr("nice")}).Validate())
	assert.Error(t, (&UpdateReviewRequest{Rating: ptr(9)}).Validate())
}

func TestProductPricing(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("100")}
	assert.True(t, p.EffectivePrice().Equal(decimal.RequireFromString("100")))

	p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("80"))
	assert.True(t, p.EffectivePrice().Equal(decimal.RequireFromString("80")))

	// A "sale" above list price is ignored.
	p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("120"))
	assert.True(t, p.EffectivePrice().Equal(decimal.RequireFromString("100")))

	assert.Empty(t, p.FirstImage())
	p.Images = []string{"a.jpg", "b.jpg"}
	assert.Equal(t, "a.jpg", p.FirstImage())
}

func TestProductRequests(t *testing.T) {
	create := CreateProductRequest{Name: " Tee ", Price: decimal.RequireFromString("20"), SalePrice: ptr(decimal.RequireFromString("15"))}
	require.NoError(t, create.Validate())
	p := create.ToProduct()
	assert.Equal(t, "Tee", p.Name)
	assert.True(t, p.SalePrice.Valid)
	assert.NotNil(t, p.Images)

	assert.Error(t, (&CreateProductRequest{Name: "x", Price: decimal.RequireFromString("-1")}).Validate())
	assert.Error(t, (&CreateProductRequest{Name: "x", Inventory: -1}).Validate())

	update := UpdateProductRequest{ClearSalePrice: true, CategoryID: ptr(""), Inventory: ptr(3)}
	require.NoError(t, update.Validate())
	p.CategoryID = ptr("c1")
	update.Apply(p)
	assert.False(t, p.SalePrice.Valid)
	assert.Nil(t, p.CategoryID)
	assert.Equal(t, 3, p.Inventory)

	assert.Error(t, (&UpdateProductRequest{Inventory: ptr(-2)}).Validate())
}

func TestPricesMarshalAsNumbers(t *testing.T) {
	b, err := json.Marshal(PaymentItem{ID: "p1", Price: decimal.RequireFromString("29.99"), Quantity: 1})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"price":29.99`)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("ROOT").Valid())
}
