// Package decaymap is a mutex-guarded map where every entry has a deadline.
// Expired entries are dropped lazily on read and in bulk via Cleanup.
package decaymap

import (
	"sync"
	"time"
)

// Zilch returns the zero value of any type.
func Zilch[T any]() T { return *new(T) }

type entry[V any] struct {
	value  V
	expiry time.Time
}

type Impl[K comparable, V any] struct {
	mu   sync.Mutex
	data map[K]entry[V]
}

func New[K comparable, V any]() *Impl[K, V] {
	return &Impl[K, V]{
		data: map[K]entry[V]{},
	}
}

// Get returns the value for key if it exists and has not expired.
func (m *Impl[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return Zilch[V](), false
	}

	if time.Now().After(e.expiry) {
		delete(m.data, key)
		return Zilch[V](), false
	}

	return e.value, true
}

// Take atomically removes and returns the value for key. Expired entries
// count as absent. At most one caller can win a Take for a given key.
func (m *Impl[K, V]) Take(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return Zilch[V](), false
	}

	delete(m.data, key)

	if time.Now().After(e.expiry) {
		return Zilch[V](), false
	}

	return e.value, true
}

// Set stores value under key for the given time to live. An existing entry
// for key is replaced.
func (m *Impl[K, V]) Set(key K, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = entry[V]{
		value:  value,
		expiry: time.Now().Add(ttl),
	}
}

// Delete removes key and reports whether it was present.
func (m *Impl[K, V]) Delete(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.data[key]
	delete(m.data, key)
	return ok
}

// Cleanup drops every expired entry. Run this periodically so that entries
// nobody reads again do not accumulate.
func (m *Impl[K, V]) Cleanup() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.data {
		if now.After(e.expiry) {
			delete(m.data, key)
		}
	}
}

// Len returns the number of entries, including any that expired but were
// not yet swept.
func (m *Impl[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
