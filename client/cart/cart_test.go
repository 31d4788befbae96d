package cart_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalp9197/luxe-ecommerce-site/client/cart"
	"github.com/kalp9197/luxe-ecommerce-site/client/storage"
)

func item(id, price string) cart.Item {
	return cart.Item{ID: id, Name: "item " + id, Price: decimal.RequireFromString(price)}
}

func TestCartMutations(t *testing.T) {
	c := cart.New(storage.NewMemory())

	require.NoError(t, c.Add(item("p1", "25.50"), 1))
	require.NoError(t, c.Add(item("p1", "25.50"), 2))
	require.NoError(t, c.Add(item("p2", "10"), 0))

	assert.Equal(t, 4, c.Count())
	assert.True(t, decimal.RequireFromString("86.5").Equal(c.Total()), c.Total().String())

	require.NoError(t, c.Decrement("p2"))
	assert.Len(t, c.Items(), 1)

	require.NoError(t, c.Decrement("p1"))
	assert.Equal(t, 2, c.Items()[0].Quantity)

	require.NoError(t, c.SetQuantity("p1", 5))
	assert.Equal(t, 5, c.Count())
	require.NoError(t, c.SetQuantity("p1", 0))
	assert.Empty(t, c.Items())

	require.NoError(t, c.Add(item("p3", "1"), 1))
	require.NoError(t, c.Remove("p3"))
	require.NoError(t, c.Remove("ghost"))
	assert.Empty(t, c.Items())

	require.NoError(t, c.Add(item("p4", "1"), 1))
	require.NoError(t, c.Clear())
	assert.Zero(t, c.Count())
	assert.True(t, c.Total().IsZero())
}

func TestCartToleratesLegacyRecords(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(storage.KeyCart,
		`[{"id":7,"name":"Tee","price":"19.99","quantity":"2"},{"id":"p2","name":"Cap","price":"NaN","quantity":"many"}]`))

	items := cart.New(mem).Items()
	require.Len(t, items, 2)
	assert.Equal(t, "7", items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, decimal.RequireFromString("19.99").Equal(items[0].Price))
	assert.Zero(t, items[1].Quantity)
	assert.True(t, items[1].Price.IsZero())

	require.NoError(t, mem.Set(storage.KeyCart, "not json"))
	c := cart.New(mem)
	assert.Empty(t, c.Items())
	require.NoError(t, c.Add(item("p1", "5"), 1))
	assert.Equal(t, 1, c.Count())
}

func TestCartWritesWholeKey(t *testing.T) {
	mem := storage.NewMemory()
	c := cart.New(mem)
	require.NoError(t, c.Add(item("p1", "2.50"), 2))

	raw, ok := mem.Get(storage.KeyCart)
	require.True(t, ok)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "p1", stored[0]["id"])
	assert.EqualValues(t, 2, stored[0]["quantity"])
}

func TestCartPublishesInPageAndAcrossTabs(t *testing.T) {
	mem := storage.NewMemory()
	tabA := cart.New(mem.Tab())
	tabB := cart.New(mem.Tab())

	inPage, cancelA := tabA.Subscribe()
	defer cancelA()
	require.NoError(t, tabA.Add(item("p1", "3"), 1))
	select {
	case items := <-inPage:
		require.Len(t, items, 1)
	case <-time.After(time.Second):
		t.Fatal("no in-page update")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	crossTab, cancelB := tabB.Subscribe()
	defer cancelB()
	go tabB.Watch(ctx)

	// Watch subscribes asynchronously; keep writing until tab B hears one.
	require.Eventually(t, func() bool {
		if err := tabA.Add(item("p1", "3"), 1); err != nil {
			return false
		}
		select {
		case items := <-crossTab:
			return len(items) == 1 && items[0].Quantity >= 2
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWishlist(t *testing.T) {
	mem := storage.NewMemory()
	w := cart.NewWishlist(mem)
	c := cart.New(mem)

	added, err := w.Toggle(item("p1", "40"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, w.Contains("p1"))

	added, err = w.Toggle(item("p1", "40"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, w.Contains("p1"))

	_, err = w.Toggle(item("p2", "12"))
	require.NoError(t, err)
	_, err = w.Toggle(item("p3", "8"))
	require.NoError(t, err)
	require.NoError(t, w.Remove("p3"))
	assert.Len(t, w.Items(), 1)

	require.NoError(t, c.Add(item("p2", "12"), 1))
	require.NoError(t, w.MoveToCart("p2", c))
	assert.False(t, w.Contains("p2"))
	assert.Equal(t, 2, c.Count())

	require.NoError(t, w.MoveToCart("ghost", c))
	assert.Equal(t, 2, c.Count())
}
