package reactive

import "sync"

// debugLog is installed by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// State represents a reactive state value.
// Observers are notified synchronously, in subscription order, after every Set or Update.
type State[T any] struct {
	value T
	mu    sync.RWMutex

	// Observers - callbacks notified on change
	observers map[uint64]func(T)
	order     []uint64
	nextID    uint64
	obsMu     sync.RWMutex
}

// NewState creates a new reactive state
func NewState[T any](initial T) *State[T] {
	return &State[T]{
		value:     initial,
		observers: make(map[uint64]func(T)),
	}
}

// Get returns the current value
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and notifies observers
func (s *State[T]) Set(value T) {
	if debugLog != nil {
		debugLog("[State] Set called with value:", value)
	}

	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	s.deliver(value)
}

// Update atomically reads, modifies, and writes the value
func (s *State[T]) Update(fn func(T) T) {
	s.mu.Lock()
	oldValue := s.value
	s.value = fn(oldValue)
	newValue := s.value
	s.mu.Unlock()

	if debugLog != nil {
		debugLog("[State] Update called, old:", oldValue, "new:", newValue)
	}

	s.deliver(newValue)
}

// Subscribe registers an observer and returns a function that removes it.
// The returned function is safe to call more than once.
func (s *State[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	s.obsMu.Lock()
	s.nextID++
	id := s.nextID
	s.observers[id] = fn
	s.order = append(s.order, id)
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		if _, ok := s.observers[id]; !ok {
			return
		}
		delete(s.observers, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Observers returns the number of registered observers
func (s *State[T]) Observers() int {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	return len(s.observers)
}

// deliver calls observers outside the locks
func (s *State[T]) deliver(value T) {
	s.obsMu.RLock()
	fns := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.observers[id])
	}
	s.obsMu.RUnlock()

	if debugLog != nil && len(fns) > 0 {
		debugLog("[State] Notifying", len(fns), "observers")
	}
	for _, fn := range fns {
		fn(value)
	}
}
