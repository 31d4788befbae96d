package cart

import (
	"context"
	"sync"

	"github.com/kalp9197/luxe-ecommerce-site/client/storage"
)

// Wishlist holds saved items without quantities.
type Wishlist struct {
	store storage.Storage

	mu        sync.Mutex
	listeners listeners
}

func NewWishlist(store storage.Storage) *Wishlist {
	return &Wishlist{store: store}
}

// Toggle adds item, or removes it when already saved. It reports whether
// the item is saved afterwards.
func (w *Wishlist) Toggle(item Item) (bool, error) {
	var added bool
	err := w.mutate(func(items []Item) []Item {
		for _, it := range items {
			if it.ID == item.ID {
				return without(items, item.ID)
			}
		}
		added = true
		item.Quantity = 0
		return append(items, item)
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (w *Wishlist) Contains(id string) bool {
	for _, it := range w.Items() {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (w *Wishlist) Items() []Item {
	return load(w.store, storage.KeyWishlist)
}

func (w *Wishlist) Remove(id string) error {
	return w.mutate(func(items []Item) []Item {
		return without(items, id)
	})
}

// MoveToCart adds one of the saved item to c and drops it from the
// wishlist. An id that is not saved is a no-op.
func (w *Wishlist) MoveToCart(id string, c *Cart) error {
	var found *Item
	for _, it := range w.Items() {
		if it.ID == id {
			found = &it
			break
		}
	}
	if found == nil {
		return nil
	}
	if err := c.Add(*found, 1); err != nil {
		return err
	}
	return w.Remove(id)
}

func (w *Wishlist) Subscribe() (<-chan []Item, func()) {
	return w.listeners.add()
}

func (w *Wishlist) Watch(ctx context.Context) {
	watchKey(ctx, w.store, storage.KeyWishlist, &w.listeners)
}

func (w *Wishlist) mutate(fn func([]Item) []Item) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	items := fn(load(w.store, storage.KeyWishlist))
	if err := storage.SetJSON(w.store, storage.KeyWishlist, items); err != nil {
		return err
	}
	w.listeners.publish(items)
	return nil
}
