// Package storage persists client-side state under a small set of string
// keys, the way a browser's localStorage does, and reports writes made by
// other tabs or processes.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

const (
	KeyToken      = "token"
	KeyUser       = "user"
	KeyCart       = "cart"
	KeyWishlist   = "wishlist"
	KeyAuthData   = "luxe_auth_data"
	KeyLastActive = "luxe_last_active"
)

const subscriberBuffer = 64

var ErrInvalidKey = errors.New("invalid storage key")

// Change describes a write observed from elsewhere. Removed is set when the
// key was deleted; Value is then empty.
type Change struct {
	Key     string
	Value   string
	Removed bool
}

// Storage is last-writer-wins: concurrent writers are never merged.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
	// Subscribe delivers changes made by other writers until cancel is
	// called. A subscriber's own writes are not echoed back.
	Subscribe() (<-chan Change, func())
}

// GetJSON decodes the value at key into v. It reports false when the key
// is absent.
func GetJSON(s Storage, key string, v any) (bool, error) {
	raw, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(s Storage, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(key, string(b))
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// fanout tracks subscribers and delivers changes without blocking the writer.
type fanout struct {
	mu   sync.Mutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	ch     chan Change
	origin any
}

func (f *fanout) subscribe(origin any) (<-chan Change, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]*subscriber)
	}
	id := f.next
	f.next++
	sub := &subscriber{ch: make(chan Change, subscriberBuffer), origin: origin}
	f.subs[id] = sub

	return sub.ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub.ch)
		}
	}
}

// publish sends c to every subscriber whose origin differs from origin.
// A nil origin reaches everyone.
func (f *fanout) publish(origin any, c Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if origin != nil && sub.origin == origin {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			log.Printf("[storage] subscriber buffer full, dropping change to %q", c.Key)
		}
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sub := range f.subs {
		delete(f.subs, id)
		close(sub.ch)
	}
}
