package feed

import (
	"testing"
	"time"

	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
	"github.com/stretchr/testify/assert"
)

var testPair = types.TradingPair{BaseAsset: "BTC", QuoteAsset: "USDT", ExchangePairString: "BTC-USDT"}

func TestDrain_DeliversEverythingBufferedInOrder(t *testing.T) {
	ix := New()

	ix.PushSnapshot(Snapshot{Pair: testPair, UpdateID: 1})
	ix.PushDiff(Diff{Pair: testPair, UpdateID: 2})
	ix.PushDiff(Diff{Pair: testPair, UpdateID: 3})
	ix.PushTrade(Trade{Pair: testPair, Side: types.SideBuy, Price: xdecimal.New(100, 0), Amount: xdecimal.New(1, 0)})

	var snapshots []Snapshot
	var diffs []Diff
	var trades []Trade
	ix.Drain(
		func(s Snapshot) { snapshots = append(snapshots, s) },
		func(d Diff) { diffs = append(diffs, d) },
		func(tr Trade) { trades = append(trades, tr) },
	)

	assert.Len(t, snapshots, 1)
	require2Diffs(t, diffs)
	assert.Len(t, trades, 1)
}

func require2Diffs(t *testing.T, diffs []Diff) {
	t.Helper()
	assert.Len(t, diffs, 2)
	assert.Equal(t, int64(2), diffs[0].UpdateID)
	assert.Equal(t, int64(3), diffs[1].UpdateID)
}

func TestDrain_IsANoOpOnAnEmptyInbox(t *testing.T) {
	ix := New()
	calls := 0
	ix.Drain(
		func(Snapshot) { calls++ },
		func(Diff) { calls++ },
		func(Trade) { calls++ },
	)
	assert.Zero(t, calls)
}

func TestPushSnapshot_DoesNotBlockAfterTombIsKilled(t *testing.T) {
	ix := New()
	// Fill the channel, then kill the tomb; further pushes must return via
	// the Dying() branch instead of blocking forever.
	for i := 0; i < inboxChanSize; i++ {
		ix.PushSnapshot(Snapshot{Pair: testPair, UpdateID: int64(i)})
	}
	ix.Tomb().Kill(nil)

	done := make(chan struct{})
	go func() {
		ix.PushSnapshot(Snapshot{Pair: testPair, UpdateID: 999})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PushSnapshot blocked past tomb death")
	}
}
