package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingTickable struct {
	ticks []time.Time
}

func (r *recordingTickable) Tick(now time.Time) {
	r.ticks = append(r.ticks, now)
}

func TestAdvance_TicksRegisteredComponentsInOrder(t *testing.T) {
	c := New()
	var order []int

	c.Register(tickableFunc(func(time.Time) { order = append(order, 1) }))
	c.Register(tickableFunc(func(time.Time) { order = append(order, 2) }))

	c.Advance(time.Unix(0, 0))
	assert.Equal(t, []int{1, 2}, order)
}

func TestAdvance_PanicsOnReentrantCall(t *testing.T) {
	c := New()
	c.Register(tickableFunc(func(now time.Time) {
		assert.Panics(t, func() { c.Advance(now) })
	}))
	c.Advance(time.Unix(0, 0))
}

func TestAdvance_RecoversPanicFromOneTickableAndContinues(t *testing.T) {
	c := New()
	second := &recordingTickable{}

	c.Register(tickableFunc(func(time.Time) { panic("boom") }))
	c.Register(second)

	assert.NotPanics(t, func() { c.Advance(time.Unix(0, 0)) })
	assert.Len(t, second.ticks, 1)
}

func TestScheduleDelayed_FiresOnceDueTimeReached(t *testing.T) {
	c := New()
	fired := false
	base := time.Unix(100, 0)

	c.ScheduleDelayed(base.Add(10*time.Millisecond), func() { fired = true })

	c.Advance(base)
	assert.False(t, fired, "should not fire before its scheduled time")

	c.Advance(base.Add(10 * time.Millisecond))
	assert.True(t, fired)
}

func TestEventBus_PublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus()
	var got []int

	Subscribe(bus, func(v int) { got = append(got, v*2) })
	Subscribe(bus, func(v int) { got = append(got, v*3) })

	Publish(bus, 5)
	assert.ElementsMatch(t, []int{10, 15}, got)
}

func TestEventBus_PanicInOneListenerDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus()
	secondCalled := false

	Subscribe(bus, func(v int) { panic("listener exploded") })
	Subscribe(bus, func(v int) { secondCalled = true })

	assert.NotPanics(t, func() { Publish(bus, 1) })
	assert.True(t, secondCalled)
}

func TestEventBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus()
	calls := 0

	unsubscribe := Subscribe(bus, func(v int) { calls++ })
	Publish(bus, 1)
	unsubscribe()
	Publish(bus, 1)

	assert.Equal(t, 1, calls)
}

// tickableFunc adapts a plain func into a Tickable for table-style tests.
type tickableFunc func(now time.Time)

func (f tickableFunc) Tick(now time.Time) { f(now) }
