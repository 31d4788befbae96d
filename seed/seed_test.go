package seed

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
)

func TestDefaultFixturesParse(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)

	assert.Len(t, f.Users, 2)
	assert.Len(t, f.Categories, 4)
	assert.Len(t, f.Products, 5)
	assert.Equal(t, models.RoleAdmin, f.Users[0].Role)
	assert.Equal(t, "24.99", f.Products[0].SalePrice)
}

func TestLoadRejectsBadFixtures(t *testing.T) {
	cases := map[string]string{
		"bad price":  "products:\n  - name: X\n    price: cheap\n",
		"bad role":   "users:\n  - email: a@example.com\n    password: secret1\n    role: ROOT\n",
		"bad rating": "reviews:\n  - product: X\n    user: a@example.com\n    rating: 7\n",
		"not yaml":   "users: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(fstest.MapFS{"fixtures.yaml": {Data: []byte(body)}})
			assert.Error(t, err)
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f, err := Default()
	require.NoError(t, err)

	first, err := Apply(ctx, db.Conn, f)
	require.NoError(t, err)
	assert.Equal(t, 2, first.CreatedUsers)
	assert.Equal(t, 4, first.CreatedCategories)
	assert.Equal(t, 5, first.CreatedProducts)
	assert.Equal(t, 2, first.CreatedReviews)

	second, err := Apply(ctx, db.Conn, f)
	require.NoError(t, err)
	assert.Zero(t, second.CreatedUsers)
	assert.Zero(t, second.CreatedProducts)
	assert.Zero(t, second.CreatedReviews)
	require.Len(t, second.Users, 2)
	assert.Equal(t, first.Users[0].ID, second.Users[0].ID)

	products := repository.NewSQLiteProductRepo(db.Conn)
	tee, err := products.GetByName(ctx, "Premium Cotton T-Shirt")
	require.NoError(t, err)
	assert.Equal(t, 1, tee.NumReviews)
	assert.Equal(t, 5.0, tee.Rating)
	require.NotNil(t, tee.CategoryID)

	all, err := products.List(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
