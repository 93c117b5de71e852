// Package book holds the replayed per-pair order book: snapshot/diff
// application, VWAP and volume-for-price reads, and the crossing checks that
// feed the paper exchange's matcher.
package book

import (
	"errors"

	"github.com/fenrir-labs/xemm/internal/logging"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
	"github.com/tidwall/btree"
)

// ErrNotEnoughLiquidity is returned by VwapForVolume when the book is
// exhausted before the requested volume is covered.
var ErrNotEnoughLiquidity = errors.New("book: not enough liquidity")

// row is the btree element: a price level plus its resting size.
type row struct {
	price xdecimal.Decimal
	size  xdecimal.Decimal
}

type levels = btree.BTreeG[*row]

// OrderBook is the replayed public book for a single trading pair: bids
// descending by price, asks ascending, both keyed uniquely by price.
type OrderBook struct {
	pair types.TradingPair

	bids *levels
	asks *levels

	lastUpdateID int64
	haveSnapshot bool
}

// NewOrderBook constructs an empty book for pair.
func NewOrderBook(pair types.TradingPair) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *row) bool {
		return a.price.GreaterThan(b.price)
	})
	asks := btree.NewBTreeG(func(a, b *row) bool {
		return a.price.LessThan(b.price)
	})
	return &OrderBook{pair: pair, bids: bids, asks: asks}
}

func (b *OrderBook) sideTree(isBuy bool) *levels {
	if isBuy {
		return b.bids
	}
	return b.asks
}

// ApplySnapshot replaces all levels on both sides. The snapshot is dropped
// (changed=false) if updateID is not strictly greater than the last applied
// update id.
func (b *OrderBook) ApplySnapshot(bids, asks []types.OrderBookRow, updateID int64) (changed bool, err error) {
	if b.haveSnapshot && updateID <= b.lastUpdateID {
		logging.Warn().
			Str("pair", b.pair.Key()).
			Int64("update_id", updateID).
			Int64("last_update_id", b.lastUpdateID).
			Msg("dropping stale order book snapshot")
		return false, nil
	}

	b.bids = btree.NewBTreeG(func(a, b *row) bool { return a.price.GreaterThan(b.price) })
	b.asks = btree.NewBTreeG(func(a, b *row) bool { return a.price.LessThan(b.price) })
	for _, r := range bids {
		b.upsert(true, r.Price, r.Size)
	}
	for _, r := range asks {
		b.upsert(false, r.Price, r.Size)
	}
	b.lastUpdateID = updateID
	b.haveSnapshot = true
	return true, nil
}

// ApplyDiff upserts the given rows; a row with zero size removes its level.
// The diff is dropped (changed=false) if updateID is not strictly greater
// than the last applied update id.
func (b *OrderBook) ApplyDiff(bids, asks []types.OrderBookRow, updateID int64) (changed bool, err error) {
	if b.haveSnapshot && updateID <= b.lastUpdateID {
		logging.Warn().
			Str("pair", b.pair.Key()).
			Int64("update_id", updateID).
			Int64("last_update_id", b.lastUpdateID).
			Msg("dropping stale order book diff")
		return false, nil
	}

	for _, r := range bids {
		b.upsert(true, r.Price, r.Size)
	}
	for _, r := range asks {
		b.upsert(false, r.Price, r.Size)
	}
	b.lastUpdateID = updateID
	b.haveSnapshot = true
	return true, nil
}

func (b *OrderBook) upsert(isBuy bool, price, size xdecimal.Decimal) {
	tree := b.sideTree(isBuy)
	if size.IsZero() {
		tree.Delete(&row{price: price})
		return
	}
	tree.Set(&row{price: price, size: size})
}

// TopPrice returns the best ask price if isBuy, else the best bid price.
func (b *OrderBook) TopPrice(isBuy bool) (xdecimal.Decimal, bool) {
	// A buy order crosses the ask side; a sell order crosses the bid side.
	tree := b.sideTree(!isBuy)
	top, ok := tree.Min()
	if !ok {
		return xdecimal.Zero, false
	}
	return top.price, true
}

// TopPriceWithTolerance is TopPrice with a quote-volume tolerance applied:
// levels nearest the top whose cumulative notional is below tolerance are
// ignored, and the price returned is the first level reached once that
// notional has been skipped. tolerance <= 0 behaves exactly like TopPrice.
func (b *OrderBook) TopPriceWithTolerance(isBuy bool, tolerance xdecimal.Decimal) (xdecimal.Decimal, bool) {
	if tolerance.IsZero() || tolerance.IsNegative() {
		return b.TopPrice(isBuy)
	}

	tree := b.sideTree(!isBuy)
	var ignored, price xdecimal.Decimal
	found := false
	tree.Scan(func(r *row) bool {
		ignored = xdecimal.Add(ignored, xdecimal.Mul(r.price, r.size))
		price = r.price
		found = true
		return ignored.LessThan(tolerance)
	})
	if !found {
		return xdecimal.Zero, false
	}
	return price, true
}

// VwapForVolume walks the side opposite a trade of direction isBuy,
// accumulating price*size until volume is covered, returning the
// size-weighted average price.
func (b *OrderBook) VwapForVolume(isBuy bool, volume xdecimal.Decimal) (xdecimal.Decimal, error) {
	if volume.IsZero() || volume.IsNegative() {
		return xdecimal.Zero, nil
	}

	tree := b.sideTree(!isBuy)
	remaining := volume
	notional := xdecimal.Zero
	consumed := xdecimal.Zero

	var iterErr error
	tree.Scan(func(r *row) bool {
		take := xdecimal.Min(remaining, r.size)
		notional = xdecimal.Add(notional, xdecimal.Mul(r.price, take))
		consumed = xdecimal.Add(consumed, take)
		remaining = xdecimal.Sub(remaining, take)
		return remaining.IsPositive()
	})

	if iterErr != nil {
		return xdecimal.Zero, iterErr
	}
	if remaining.IsPositive() {
		return xdecimal.Zero, ErrNotEnoughLiquidity
	}
	return xdecimal.Div(notional, consumed), nil
}

// SweepVolume simulates a market order of direction isBuy consuming amount
// of liquidity from the opposite side, mutating the book in place and
// returning the individual (price, size) rows it consumed in traversal
// order. Returns ErrNotEnoughLiquidity (book exhausted first) without
// mutating the book if amount cannot be fully covered.
func (b *OrderBook) SweepVolume(isBuy bool, amount xdecimal.Decimal) ([]types.OrderBookRow, error) {
	tree := b.sideTree(!isBuy)
	remaining := amount

	var fills []types.OrderBookRow
	var drained []*row
	tree.Scan(func(r *row) bool {
		if !remaining.IsPositive() {
			return false
		}
		take := xdecimal.Min(remaining, r.size)
		fills = append(fills, types.OrderBookRow{Price: r.price, Size: take})
		remaining = xdecimal.Sub(remaining, take)
		return true
	})

	if remaining.IsPositive() {
		return nil, ErrNotEnoughLiquidity
	}

	remaining = amount
	tree.Scan(func(r *row) bool {
		if !remaining.IsPositive() {
			return false
		}
		take := xdecimal.Min(remaining, r.size)
		r.size = xdecimal.Sub(r.size, take)
		remaining = xdecimal.Sub(remaining, take)
		if !r.size.IsPositive() {
			drained = append(drained, r)
		}
		return true
	})
	for _, r := range drained {
		tree.Delete(r)
	}

	return fills, nil
}

// TotalVolume sums all resting size on the side opposite a trade of
// direction isBuy: the full depth currently available to hedge against,
// before any per-order sizing cap is applied.
func (b *OrderBook) TotalVolume(isBuy bool) xdecimal.Decimal {
	tree := b.sideTree(!isBuy)
	total := xdecimal.Zero
	tree.Scan(func(r *row) bool {
		total = xdecimal.Add(total, r.size)
		return true
	})
	return total
}

// VolumeForPrice accumulates size from the top of the relevant side until
// the next level would cross price, returning the total volume available
// at or better than price.
func (b *OrderBook) VolumeForPrice(isBuy bool, price xdecimal.Decimal) xdecimal.Decimal {
	tree := b.sideTree(!isBuy)
	total := xdecimal.Zero

	tree.Scan(func(r *row) bool {
		if isBuy && r.price.GreaterThan(price) {
			return false
		}
		if !isBuy && r.price.LessThan(price) {
			return false
		}
		total = xdecimal.Add(total, r.size)
		return true
	})
	return total
}

// RecordFilledOrder informs the book that a market order of direction isBuy
// just consumed amount of liquidity from the opposite side, so subsequent
// reads reflect the post-trade state until the next diff arrives.
func (b *OrderBook) RecordFilledOrder(isBuy bool, amount xdecimal.Decimal) {
	tree := b.sideTree(!isBuy)
	remaining := amount

	var drained []*row
	tree.Scan(func(r *row) bool {
		if remaining.IsZero() || remaining.IsNegative() {
			return false
		}
		take := xdecimal.Min(remaining, r.size)
		r.size = xdecimal.Sub(r.size, take)
		remaining = xdecimal.Sub(remaining, take)
		if r.size.IsZero() || r.size.IsNegative() {
			drained = append(drained, r)
		}
		return true
	})
	for _, r := range drained {
		tree.Delete(r)
	}
}

// ApplyTrade informs the book of an external trade at price for amount on
// the given side, consuming that amount from the opposite side as
// RecordFilledOrder does, and returns the trade as a TradeEvent. The event
// is returned for every trade; it does not say whether any level was crossed.
func (b *OrderBook) ApplyTrade(side types.Side, price, amount xdecimal.Decimal) types.TradeEvent {
	b.RecordFilledOrder(side.IsBuy(), amount)
	return types.TradeEvent{
		TradingPair: b.pair,
		Side:        side,
		Price:       price,
		Amount:      amount,
	}
}

// Pair returns the trading pair this book replays.
func (b *OrderBook) Pair() types.TradingPair {
	return b.pair
}

// LastUpdateID returns the most recently applied update id.
func (b *OrderBook) LastUpdateID() int64 {
	return b.lastUpdateID
}

// Levels returns a defensive copy of one side's rows, ordered best-first,
// for tests and replay diffing.
func (b *OrderBook) Levels(isBuy bool) []types.OrderBookRow {
	tree := b.sideTree(isBuy)
	out := make([]types.OrderBookRow, 0, tree.Len())
	tree.Scan(func(r *row) bool {
		out = append(out, types.OrderBookRow{Price: r.price, Size: r.size, UpdateID: b.lastUpdateID})
		return true
	})
	return out
}
