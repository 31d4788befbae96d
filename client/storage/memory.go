package storage

import "sync"

// Memory is an in-process store. Tabs opened from the same Memory share its
// data, and each tab only hears about writes made by the others.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	subs   fanout
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Tab returns a view that behaves like one browser tab.
func (m *Memory) Tab() *Tab {
	return &Tab{mem: m}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	return m.set(nil, key, value)
}

func (m *Memory) Remove(key string) error {
	return m.remove(nil, key)
}

// Subscribe on the Memory itself sees every write, from any tab.
func (m *Memory) Subscribe() (<-chan Change, func()) {
	return m.subs.subscribe(nil)
}

func (m *Memory) set(origin *Tab, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	m.subs.publish(originOf(origin), Change{Key: key, Value: value})
	return nil
}

func (m *Memory) remove(origin *Tab, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	_, existed := m.values[key]
	delete(m.values, key)
	m.mu.Unlock()
	if existed {
		m.subs.publish(originOf(origin), Change{Key: key, Removed: true})
	}
	return nil
}

// originOf keeps a nil *Tab from becoming a non-nil interface value.
func originOf(t *Tab) any {
	if t == nil {
		return nil
	}
	return t
}

type Tab struct {
	mem *Memory
}

func (t *Tab) Get(key string) (string, bool) { return t.mem.Get(key) }
func (t *Tab) Set(key, value string) error   { return t.mem.set(t, key, value) }
func (t *Tab) Remove(key string) error       { return t.mem.remove(t, key) }

func (t *Tab) Subscribe() (<-chan Change, func()) {
	return t.mem.subs.subscribe(t)
}
