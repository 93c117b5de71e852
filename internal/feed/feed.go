// Package feed is the thread-safe inbox between external market-data/trade
// adapters, which run on their own goroutines, and the single-threaded
// simulation loop, which must never block waiting on the network (spec §5).
// Adapters push onto buffered channels from whatever goroutine they run on;
// the loop drains everything currently buffered once per Tick.
package feed

import (
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
	tomb "gopkg.in/tomb.v2"
)

// inboxChanSize bounds how far an adapter can run ahead of the simulation
// loop before PushX blocks; mirrors the teacher's WorkerPool task channel.
const inboxChanSize = 256

// Snapshot is a full order-book replacement for one pair.
type Snapshot struct {
	Pair     types.TradingPair
	Bids     []types.OrderBookRow
	Asks     []types.OrderBookRow
	UpdateID int64
}

// Diff is an incremental order-book update for one pair.
type Diff struct {
	Pair     types.TradingPair
	Bids     []types.OrderBookRow
	Asks     []types.OrderBookRow
	UpdateID int64
}

// Trade is an external trade tape print for one pair.
type Trade struct {
	Pair   types.TradingPair
	Side   types.Side
	Price  xdecimal.Decimal
	Amount xdecimal.Decimal
}

// Inbox buffers Snapshot/Diff/Trade messages from adapter goroutines for a
// single consumer to drain once per tick. Adapters register their run loop
// with Tomb() so a failing adapter's death is observable and every other
// adapter's death is independent (one bad venue feed cannot wedge another).
type Inbox struct {
	t *tomb.Tomb

	snapshots chan Snapshot
	diffs     chan Diff
	trades    chan Trade
}

// New constructs an empty Inbox.
func New() *Inbox {
	return &Inbox{
		t:         new(tomb.Tomb),
		snapshots: make(chan Snapshot, inboxChanSize),
		diffs:     make(chan Diff, inboxChanSize),
		trades:    make(chan Trade, inboxChanSize),
	}
}

// Tomb returns the supervising tomb.Tomb adapters should run under via
// Tomb().Go(fn). Kill/Wait follow the usual tomb.v2 lifecycle.
func (ix *Inbox) Tomb() *tomb.Tomb {
	return ix.t
}

// PushSnapshot enqueues a snapshot from an adapter goroutine. Blocks only if
// the loop has fallen inboxChanSize messages behind.
func (ix *Inbox) PushSnapshot(s Snapshot) {
	select {
	case ix.snapshots <- s:
	case <-ix.t.Dying():
	}
}

// PushDiff enqueues a diff from an adapter goroutine.
func (ix *Inbox) PushDiff(d Diff) {
	select {
	case ix.diffs <- d:
	case <-ix.t.Dying():
	}
}

// PushTrade enqueues a trade print from an adapter goroutine.
func (ix *Inbox) PushTrade(tr Trade) {
	select {
	case ix.trades <- tr:
	case <-ix.t.Dying():
	}
}

// Drain applies every message currently buffered, in the order
// snapshots, diffs, trades, without blocking. Safe to call once per Tick
// from the simulation loop; never called concurrently with itself.
func (ix *Inbox) Drain(onSnapshot func(Snapshot), onDiff func(Diff), onTrade func(Trade)) {
	for {
		select {
		case s := <-ix.snapshots:
			onSnapshot(s)
			continue
		default:
		}
		break
	}
	for {
		select {
		case d := <-ix.diffs:
			onDiff(d)
			continue
		default:
		}
		break
	}
	for {
		select {
		case tr := <-ix.trades:
			onTrade(tr)
			continue
		default:
		}
		break
	}
}
