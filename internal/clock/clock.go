// Package clock is the single-threaded cooperative scheduler: a Clock
// drives every registered Tickable once per Advance, and a generic EventBus
// delivers events to synchronous listeners without letting one listener's
// panic halt the tick.
package clock

import (
	"container/heap"
	"time"

	"github.com/fenrir-labs/xemm/internal/logging"
)

// Tickable is any component the Clock drives forward in time.
type Tickable interface {
	Tick(now time.Time)
}

// delayedEvent is a one-shot callback scheduled to fire on the first
// Advance whose `now` is at or past At. This is how the 10ms asynchronous
// *OrderCreated delivery (spec design note on cooperative async delivery)
// is implemented: no goroutine is spawned, the callback just waits its turn
// in the clock's own min-heap.
type delayedEvent struct {
	at   time.Time
	fire func()
}

type delayedQueue []*delayedEvent

func (q delayedQueue) Len() int            { return len(q) }
func (q delayedQueue) Less(i, j int) bool  { return q[i].at.Before(q[j].at) }
func (q delayedQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *delayedQueue) Push(x interface{}) { *q = append(*q, x.(*delayedEvent)) }
func (q *delayedQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Clock is the cooperative scheduler. It is not safe to call Advance
// re-entrantly (spec §5: "advance(now) is the only re-entry point; it must
// not be called re-entrantly").
type Clock struct {
	tickables []Tickable
	delayed   delayedQueue
	advancing bool
}

// New returns an empty Clock.
func New() *Clock {
	return &Clock{}
}

// Register appends t to the ordered list of components ticked on every
// Advance, in registration order.
func (c *Clock) Register(t Tickable) {
	c.tickables = append(c.tickables, t)
}

// ScheduleDelayed arranges for fire to run on the first Advance at or after
// at, ahead of any Tickable's Tick for that call.
func (c *Clock) ScheduleDelayed(at time.Time, fire func()) {
	heap.Push(&c.delayed, &delayedEvent{at: at, fire: fire})
}

// Advance drains due delayed events, then ticks every registered Tickable
// in registration order. A panic from any one Tickable is recovered,
// logged, and does not prevent the remaining Tickables from running —
// invariant: no panic escapes a tick.
func (c *Clock) Advance(now time.Time) {
	if c.advancing {
		panic("clock: Advance called re-entrantly")
	}
	c.advancing = true
	defer func() { c.advancing = false }()

	for c.delayed.Len() > 0 && !c.delayed[0].at.After(now) {
		ev := heap.Pop(&c.delayed).(*delayedEvent)
		c.runGuarded(ev.fire)
	}

	for _, t := range c.tickables {
		tt := t
		c.runGuarded(func() { tt.Tick(now) })
	}
}

func (c *Clock) runGuarded(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Interface("panic", r).
				Msg("clock: recovered panic during tick, continuing")
		}
	}()
	fn()
}
