package cart

import (
	"context"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kalp9197/luxe-ecommerce-site/client/storage"
)

// Cart reads and rewrites the whole cart key on every mutation. There is no
// merge: when two tabs write at once the later write wins.
type Cart struct {
	store storage.Storage

	mu        sync.Mutex
	listeners listeners
}

func New(store storage.Storage) *Cart {
	return &Cart{store: store}
}

// Add puts delta more of item in the cart. A delta below one counts as one.
func (c *Cart) Add(item Item, delta int) error {
	if delta < 1 {
		delta = 1
	}
	return c.mutate(func(items []Item) []Item {
		for i := range items {
			if items[i].ID == item.ID {
				items[i].Quantity += delta
				return items
			}
		}
		item.Quantity = delta
		return append(items, item)
	})
}

func (c *Cart) Remove(id string) error {
	return c.mutate(func(items []Item) []Item {
		return without(items, id)
	})
}

// Decrement lowers the quantity by one, dropping the line at one.
func (c *Cart) Decrement(id string) error {
	return c.mutate(func(items []Item) []Item {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if items[i].Quantity <= 1 {
				return without(items, id)
			}
			items[i].Quantity--
			return items
		}
		return items
	})
}

// SetQuantity replaces the line's quantity; zero or less removes it.
func (c *Cart) SetQuantity(id string, quantity int) error {
	return c.mutate(func(items []Item) []Item {
		if quantity <= 0 {
			return without(items, id)
		}
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = quantity
			}
		}
		return items
	})
}

func (c *Cart) Clear() error {
	return c.mutate(func([]Item) []Item { return []Item{} })
}

func (c *Cart) Items() []Item {
	return load(c.store, storage.KeyCart)
}

func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items() {
		n += it.Quantity
	}
	return n
}

// Total sums unit price times quantity in whatever unit the prices were
// stored in.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items() {
		total = total.Add(it.lineTotal())
	}
	return total
}

// Subscribe delivers the cart after every change made through this Cart,
// and after changes from other tabs while Watch runs. Only the latest
// snapshot is kept for a slow reader.
func (c *Cart) Subscribe() (<-chan []Item, func()) {
	return c.listeners.add()
}

// Watch republishes cart writes made by other tabs until ctx is done.
func (c *Cart) Watch(ctx context.Context) {
	watchKey(ctx, c.store, storage.KeyCart, &c.listeners)
}

func (c *Cart) mutate(fn func([]Item) []Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := fn(load(c.store, storage.KeyCart))
	if err := storage.SetJSON(c.store, storage.KeyCart, items); err != nil {
		return err
	}
	c.listeners.publish(items)
	return nil
}

func without(items []Item, id string) []Item {
	out := items[:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// load treats an unreadable key as empty.
func load(store storage.Storage, key string) []Item {
	var items []Item
	if _, err := storage.GetJSON(store, key, &items); err != nil {
		log.Printf("[cart] discarding unreadable %s: %v", key, err)
		return []Item{}
	}
	if items == nil {
		items = []Item{}
	}
	return items
}

func watchKey(ctx context.Context, store storage.Storage, key string, l *listeners) {
	changes, cancel := store.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if ch.Key == key {
				l.publish(load(store, key))
			}
		}
	}
}

type listeners struct {
	mu   sync.Mutex
	subs map[int]chan []Item
	next int
}

func (l *listeners) add() (<-chan []Item, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs == nil {
		l.subs = make(map[int]chan []Item)
	}
	id := l.next
	l.next++
	ch := make(chan []Item, 1)
	l.subs[id] = ch
	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(ch)
		}
	}
}

func (l *listeners) publish(items []Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs {
		snapshot := append([]Item(nil), items...)
		// Replace an unread snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}
