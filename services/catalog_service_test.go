package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

func TestCatalogService_ProductCacheInvalidatedOnUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.product(t, "Watch", "100.00", 3)

	got, err := env.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Watch", got.Name)

	// A write behind the service's back is hidden by the cache...
	p.Name = "Renamed directly"
	require.NoError(t, env.products.Update(ctx, p))
	got, err = env.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Watch", got.Name)

	// ...until the TTL runs out.
	env.clock.Advance(2 * time.Minute)
	got, err = env.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed directly", got.Name)

	name := "Through the service"
	_, err = env.catalog.UpdateProduct(ctx, p.ID, &models.UpdateProductRequest{Name: &name})
	require.NoError(t, err)
	got, err = env.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
}

func TestCatalogService_CategoryCRUD(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	c, err := env.catalog.CreateCategory(ctx, &models.CreateCategoryRequest{Name: "  Watches "})
	require.NoError(t, err)
	assert.Equal(t, "Watches", c.Name)

	list, err := env.catalog.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = env.catalog.CreateCategory(ctx, &models.CreateCategoryRequest{Name: "Watches"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = env.catalog.CreateCategory(ctx, &models.CreateCategoryRequest{Name: "Bags"})
	require.NoError(t, err)
	list, err = env.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, env.catalog.DeleteCategory(ctx, c.ID))
	_, err = env.catalog.GetCategory(ctx, c.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestCatalogService_CreateProductValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.CreateProduct(context.Background(), &models.CreateProductRequest{
		Name: "Bad", Price: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	p, err := env.catalog.CreateProduct(context.Background(), &models.CreateProductRequest{
		Name: "Good", Price: decimal.RequireFromString("19.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, p.Images)
}

func TestCatalogService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p := env.product(t, "Scarf", "45.50", 10)
	sale := decimal.RequireFromString("39.00")
	_, err := env.catalog.UpdateProduct(ctx, p.ID, &models.UpdateProductRequest{SalePrice: &sale})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.catalog.ExportProducts(ctx, &buf))
	assert.NotZero(t, buf.Len())

	// Same catalog: the row's id matches, so it is updated in place.
	result, err := env.catalog.ImportProducts(ctx, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Created)
	assert.Empty(t, result.Skipped)

	got, err := env.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("45.50")))
	require.True(t, got.SalePrice.Valid)
	assert.True(t, got.SalePrice.Decimal.Equal(sale))
	assert.Equal(t, 10, got.Inventory)

	// Empty catalog: the row is created.
	other := newTestEnv(t)
	result, err = other.catalog.ImportProducts(ctx, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	_, err = env.catalog.ImportProducts(ctx, []byte("not a workbook"))
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestReviewService_RecountsProductStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.product(t, "Ring", "80", 1)
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")

	r1, err := env.reviews.Create(ctx, alice, &models.CreateReviewRequest{ProductID: p.ID, Rating: 5, Comment: "Lovely"})
	require.NoError(t, err)
	_, err = env.reviews.Create(ctx, bob, &models.CreateReviewRequest{ProductID: p.ID, Rating: 2})
	require.NoError(t, err)

	got, err := env.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumReviews)
	assert.Equal(t, 3.5, got.Rating)

	_, err = env.reviews.Create(ctx, alice, &models.CreateReviewRequest{ProductID: p.ID, Rating: 1})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	three := 3
	_, err = env.reviews.Update(ctx, bob, r1.ID, &models.UpdateReviewRequest{Rating: &three})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	_, err = env.reviews.Update(ctx, alice, r1.ID, &models.UpdateReviewRequest{Rating: &three})
	require.NoError(t, err)
	got, err = env.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Rating)

	require.NoError(t, env.reviews.Delete(ctx, r1.ID))
	got, err = env.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumReviews)
	assert.Equal(t, 2.0, got.Rating)

	_, err = env.reviews.Create(ctx, alice, &models.CreateReviewRequest{ProductID: p.ID, Rating: 9})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}
