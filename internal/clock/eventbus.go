package clock

import (
	"reflect"
	"sync"

	"github.com/fenrir-labs/xemm/internal/logging"
)

// EventBus delivers typed events to synchronous listeners. Listener
// registration is keyed by the Go type of the event payload, so producers
// and consumers only need to agree on a struct type (OrderFilled,
// OrderCancelled, ...), not on a string topic.
type EventBus struct {
	mu        sync.Mutex
	listeners map[reflect.Type][]func(any)
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[reflect.Type][]func(any))}
}

// Subscribe registers fn to be called for every event of type T published
// on bus. It returns an unsubscribe function.
func Subscribe[T any](bus *EventBus, fn func(T)) func() {
	t := reflect.TypeOf((*T)(nil)).Elem()

	wrapped := func(v any) { fn(v.(T)) }

	bus.mu.Lock()
	bus.listeners[t] = append(bus.listeners[t], wrapped)
	idx := len(bus.listeners[t]) - 1
	bus.mu.Unlock()

	return func() {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		fns := bus.listeners[t]
		if idx < len(fns) {
			fns[idx] = nil
		}
	}
}

// Publish delivers event to every listener registered for its type. A
// listener that panics is recovered and logged; the remaining listeners
// still run, and Publish always returns (spec §4.6: "a listener failure
// must not prevent other listeners from running").
func Publish[T any](bus *EventBus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	bus.mu.Lock()
	fns := make([]func(any), len(bus.listeners[t]))
	copy(fns, bus.listeners[t])
	bus.mu.Unlock()

	for _, fn := range fns {
		if fn == nil {
			continue
		}
		callGuarded(fn, event)
	}
}

func callGuarded(fn func(any), event any) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Interface("panic", r).
				Interface("event", event).
				Msg("eventbus: recovered panic from listener")
		}
	}()
	fn(event)
}
