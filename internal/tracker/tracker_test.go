package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartTracking_LookupReturnsRef(t *testing.T) {
	tr := New()
	tr.StartTracking("buy://BTC-USDT/abc", Ref{Exchange: "maker", PairKey: "BTC-USDT"})

	ref, ok := tr.Lookup("buy://BTC-USDT/abc")
	assert.True(t, ok)
	assert.Equal(t, "maker", ref.Exchange)
}

func TestStopTracking_StaysLookupableUntilTTLElapses(t *testing.T) {
	tr := NewWithTTL(10 * time.Second)
	now := time.Unix(1000, 0)

	tr.StartTracking("id-1", Ref{Exchange: "maker", PairKey: "BTC-USDT"})
	tr.StopTracking("id-1", now)

	tr.GC(now.Add(5 * time.Second))
	_, ok := tr.Lookup("id-1")
	assert.True(t, ok, "entry should survive within the TTL window")

	tr.GC(now.Add(11 * time.Second))
	_, ok = tr.Lookup("id-1")
	assert.False(t, ok, "entry should be gone once its TTL has elapsed")
}

func TestStartTracking_ReTrackingCancelsPendingExpiry(t *testing.T) {
	tr := NewWithTTL(10 * time.Second)
	now := time.Unix(1000, 0)

	tr.StartTracking("id-1", Ref{Exchange: "maker", PairKey: "BTC-USDT"})
	tr.StopTracking("id-1", now)
	tr.StartTracking("id-1", Ref{Exchange: "maker", PairKey: "BTC-USDT"})

	tr.GC(now.Add(20 * time.Second))
	_, ok := tr.Lookup("id-1")
	assert.True(t, ok, "re-tracking should cancel the pending expiry")
}

func TestGC_RemovesOnlyExpiredEntries(t *testing.T) {
	tr := NewWithTTL(10 * time.Second)
	now := time.Unix(1000, 0)

	tr.StartTracking("id-1", Ref{})
	tr.StartTracking("id-2", Ref{})
	tr.StopTracking("id-1", now)

	tr.GC(now.Add(20 * time.Second))

	_, ok1 := tr.Lookup("id-1")
	_, ok2 := tr.Lookup("id-2")
	assert.False(t, ok1)
	assert.True(t, ok2, "entries that were never stopped should not be GC'd")
}
