// Package tracker maps a client order id to the strategy pair it belongs to
// (lookups go from id to pair only), with TTL-based expiry of stopped ids so a
// fill that arrives after a cancel can still be attributed correctly.
package tracker

import (
	"container/list"
	"time"
)

// DefaultTTL is the retention window after stop_tracking before an item is
// garbage collected (spec §3 TrackingItem).
const DefaultTTL = 180 * time.Second

// Ref is the (exchange, pair) an order id was tracked against. The pair is
// opaque to the tracker; callers (C7) interpret it as a strategy pair key.
type Ref struct {
	Exchange string
	PairKey  string
}

type item struct {
	orderID  string
	ref      Ref
	expiry   time.Time
	expiring bool
	elem     *list.Element
}

// Tracker is an insertion-ordered map of outstanding order ids to their
// Ref, with TTL-based garbage collection of stopped entries.
type Tracker struct {
	ttl   time.Duration
	byID  map[string]*item
	order *list.List // insertion order, front = oldest
}

// New returns a Tracker using DefaultTTL.
func New() *Tracker {
	return NewWithTTL(DefaultTTL)
}

// NewWithTTL returns a Tracker with a custom expiry window.
func NewWithTTL(ttl time.Duration) *Tracker {
	return &Tracker{
		ttl:   ttl,
		byID:  make(map[string]*item),
		order: list.New(),
	}
}

// StartTracking inserts orderID -> ref. Re-tracking an id that is pending
// expiry cancels the expiry and restores it to a live entry.
func (t *Tracker) StartTracking(orderID string, ref Ref) {
	if existing, ok := t.byID[orderID]; ok {
		existing.ref = ref
		existing.expiring = false
		return
	}
	it := &item{orderID: orderID, ref: ref}
	it.elem = t.order.PushBack(it)
	t.byID[orderID] = it
}

// StopTracking marks orderID for expiry at now+TTL. Lookups continue to
// succeed until the expiry passes and GC removes the entry (invariant P6).
func (t *Tracker) StopTracking(orderID string, now time.Time) {
	it, ok := t.byID[orderID]
	if !ok {
		return
	}
	it.expiring = true
	it.expiry = now.Add(t.ttl)
}

// Lookup returns the Ref for orderID, whether it is live or within its
// post-stop retention window.
func (t *Tracker) Lookup(orderID string) (Ref, bool) {
	it, ok := t.byID[orderID]
	if !ok {
		return Ref{}, false
	}
	return it.ref, true
}

// GC removes every entry whose expiry has passed. It is called once per
// tick (spec §4.5: "per-tick GC removes items whose expiry is past").
func (t *Tracker) GC(now time.Time) {
	for e := t.order.Front(); e != nil; {
		next := e.Next()
		it := e.Value.(*item)
		if it.expiring && !it.expiry.After(now) {
			delete(t.byID, it.orderID)
			t.order.Remove(e)
		}
		e = next
	}
}

// Len returns the number of tracked ids, live or pending expiry.
func (t *Tracker) Len() int {
	return len(t.byID)
}
