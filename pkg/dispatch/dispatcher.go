// Package dispatch delivers input events to subscribed handlers one at a time, in arrival
// order. Nothing runs concurrently: Drain executes every handler on the caller's goroutine.
package dispatch

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Scope decides which events a handler sees
type Scope uint8

const (
	// ScopeElement handlers only see events whose Target is their element
	ScopeElement Scope = iota
	// ScopeSurface handlers see every event of their kind, wherever it landed
	ScopeSurface
)

// Handler consumes one event
type Handler func(ev Event)

// ErrorHandler receives a recovered handler panic
type ErrorHandler func(ev Event, err interface{})

// debugLog is installed by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

type subscription struct {
	id      uint64
	scope   Scope
	element string
	kind    Kind
	handler Handler
}

// Subscription identifies a registered handler
type Subscription struct {
	id uint64
	d  *Dispatcher
}

// Cancel deregisters the handler. Cancelling twice is harmless.
func (s Subscription) Cancel() {
	if s.d != nil {
		s.d.unsubscribe(s.id)
	}
}

// Dispatcher is the input event queue
type Dispatcher struct {
	mu       sync.Mutex
	subs     []subscription
	nextID   uint64
	queue    []Event
	seq      uint64
	draining bool
	closed   bool

	teardown []func()
	onError  ErrorHandler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		queue: make([]Event, 0, 64),
	}
}

// SetErrorHandler sets the handler for recovered panics
func (d *Dispatcher) SetErrorHandler(h ErrorHandler) {
	d.mu.Lock()
	d.onError = h
	d.mu.Unlock()
}

// Subscribe registers h for events of kind. For ScopeElement, element names the target
// the handler is bound to; it is ignored for ScopeSurface.
func (d *Dispatcher) Subscribe(scope Scope, element string, kind Kind, h Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Subscription{}
	}
	d.nextID++
	d.subs = append(d.subs, subscription{
		id:      d.nextID,
		scope:   scope,
		element: element,
		kind:    kind,
		handler: h,
	})
	return Subscription{id: d.nextID, d: d}
}

func (d *Dispatcher) unsubscribe(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range d.subs {
		if s.id == id {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// OnTeardown registers fn to run when the dispatcher closes
func (d *Dispatcher) OnTeardown(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teardown = append(d.teardown, fn)
}

// Subscriptions returns the number of registered handlers
func (d *Dispatcher) Subscriptions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Pending returns the number of queued events
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Post enqueues ev. It reports false once the dispatcher is closed.
func (d *Dispatcher) Post(ev Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	d.seq++
	ev.Seq = d.seq
	d.queue = append(d.queue, ev)
	return true
}

// Drain consumes the queue one event at a time until it is empty and returns how many
// events were delivered. Events posted by handlers are delivered in the same drain, after
// the event that posted them. A nested Drain from inside a handler returns 0.
func (d *Dispatcher) Drain() int {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return 0
	}
	d.draining = true
	d.mu.Unlock()

	n := 0
	for {
		d.mu.Lock()
		if len(d.queue) == 0 || d.closed {
			d.draining = false
			d.queue = d.queue[:0]
			d.mu.Unlock()
			return n
		}
		ev := d.queue[0]
		d.queue = d.queue[1:]
		handlers := d.match(ev)
		d.mu.Unlock()

		if debugLog != nil {
			debugLog("[Dispatch] Delivering", ev.String(), "to", len(handlers), "handlers")
		}
		for _, h := range handlers {
			d.deliver(h, ev)
		}
		n++
	}
}

// Dispatch posts ev and drains the queue
func (d *Dispatcher) Dispatch(ev Event) int {
	if !d.Post(ev) {
		return 0
	}
	return d.Drain()
}

// match collects handlers for ev; caller holds d.mu
func (d *Dispatcher) match(ev Event) []Handler {
	var out []Handler
	for _, s := range d.subs {
		if s.kind != ev.Kind {
			continue
		}
		if s.scope == ScopeElement && s.element != ev.Target {
			continue
		}
		out = append(out, s.handler)
	}
	return out
}

// deliver runs one handler and keeps a panic from unwinding through the queue
func (d *Dispatcher) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.handleError(ev, r)
		}
	}()
	h(ev)
}

func (d *Dispatcher) handleError(ev Event, r interface{}) {
	d.mu.Lock()
	onError := d.onError
	d.mu.Unlock()

	if onError != nil {
		onError(ev, r)
		return
	}
	if debugLog != nil {
		debugLog(fmt.Sprintf("[Dispatch] Handler panic on %s: %v\n%s", ev, r, debug.Stack()))
	}
}

// Close runs teardown hooks, drops every subscription and discards queued events.
// It is idempotent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	hooks := d.teardown
	d.teardown = nil
	d.subs = nil
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Closed reports whether Close has run
func (d *Dispatcher) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
