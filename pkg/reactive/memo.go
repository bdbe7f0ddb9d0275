package reactive

import "sync"

// Memo caches the result of an expensive derivation and recomputes it only when the key
// changes. It is the keyed counterpart of a computed value: the key is the full input.
type Memo[K comparable, V any] struct {
	compute func(K) V

	mu    sync.Mutex
	key   K
	value V
	valid bool
	runs  int
}

// NewMemo creates a memo around compute
func NewMemo[K comparable, V any](compute func(K) V) *Memo[K, V] {
	return &Memo[K, V]{compute: compute}
}

// Get returns the value for key, recomputing only if key differs from the cached one
func (m *Memo[K, V]) Get(key K) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.key == key {
		return m.value
	}
	if debugLog != nil {
		debugLog("[Memo] Recomputing for key:", key)
	}
	m.value = m.compute(key)
	m.key = key
	m.valid = true
	m.runs++
	return m.value
}

// Runs reports how many times the derivation has executed
func (m *Memo[K, V]) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}
