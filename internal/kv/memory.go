package kv

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. It backs STORE_DRIVER=memory and the
// test suites, and supports fault injection through FailOn.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	expires map[string]time.Time
	lists   map[string][]string
	faults  map[string]error
	calls   map[string]int
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string][]byte),
		expires: make(map[string]time.Time),
		lists:   make(map[string][]string),
		faults:  make(map[string]error),
		calls:   make(map[string]int),
		now:     time.Now,
	}
}

// Operation names accepted by FailOn and Calls.
const (
	OpGet           = "get"
	OpSet           = "set"
	OpSetWithExpiry = "set_with_expiry"
	OpDelete        = "delete"
	OpTTL           = "ttl"
	OpListPrepend   = "list_prepend"
	OpListRemove    = "list_remove"
	OpListLength    = "list_length"
	OpListRange     = "list_range"
	OpBatchGet      = "batch_get"
)

// FailOn makes every subsequent call of op return err. A nil err clears the
// fault.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = err
}

// Calls reports how many times op has been invoked.
func (m *MemoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// SetClock replaces the time source used for expiry.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) enter(op string) error {
	m.calls[op]++
	return m.faults[op]
}

// live returns the value for key, dropping it first if it has expired.
// Callers hold m.mu.
func (m *MemoryStore) live(key string) ([]byte, bool) {
	if exp, ok := m.expires[key]; ok && !m.now().Before(exp) {
		delete(m.values, key)
		delete(m.expires, key)
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpGet); err != nil {
		return nil, err
	}
	v, ok := m.live(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpSet); err != nil {
		return err
	}
	m.values[key] = append([]byte(nil), value...)
	delete(m.expires, key)
	return nil
}

func (m *MemoryStore) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpSetWithExpiry); err != nil {
		return err
	}
	m.values[key] = append([]byte(nil), value...)
	m.expires[key] = m.now().Add(ttl)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDelete); err != nil {
		return err
	}
	delete(m.values, key)
	delete(m.expires, key)
	delete(m.lists, key)
	return nil
}

func (m *MemoryStore) RemainingTTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpTTL); err != nil {
		return 0, err
	}
	if _, ok := m.live(key); !ok {
		return 0, ErrNotFound
	}
	exp, ok := m.expires[key]
	if !ok {
		return NoExpiry, nil
	}
	return exp.Sub(m.now()).Truncate(time.Second), nil
}

func (m *MemoryStore) ListPrepend(ctx context.Context, listKey, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpListPrepend); err != nil {
		return err
	}
	m.lists[listKey] = append([]string{member}, m.lists[listKey]...)
	return nil
}

func (m *MemoryStore) ListRemove(ctx context.Context, listKey, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpListRemove); err != nil {
		return err
	}
	list := m.lists[listKey]
	kept := list[:0]
	for _, id := range list {
		if id != member {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		delete(m.lists, listKey)
		return nil
	}
	m.lists[listKey] = kept
	return nil
}

func (m *MemoryStore) ListLength(ctx context.Context, listKey string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpListLength); err != nil {
		return 0, err
	}
	return int64(len(m.lists[listKey])), nil
}

func (m *MemoryStore) ListRange(ctx context.Context, listKey string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpListRange); err != nil {
		return nil, err
	}
	list := m.lists[listKey]
	n := int64(len(list))
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	if start > stop {
		return []string{}, nil
	}
	return append([]string(nil), list[start:stop+1]...), nil
}

func (m *MemoryStore) BatchGet(ctx context.Context, keys []string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpBatchGet); err != nil {
		return nil, err
	}
	out := make([][]byte, len(keys))
	for i, key := range keys {
		if v, ok := m.live(key); ok {
			out[i] = append([]byte(nil), v...)
		}
	}
	return out, nil
}
