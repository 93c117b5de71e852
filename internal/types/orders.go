package types

import (
	"errors"
	"time"

	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// ErrNonPositiveOrder is the rejection reason for invariant L1: every open
// limit order must have strictly positive price and quantity.
var ErrNonPositiveOrder = errors.New("types: price and quantity must be positive")

// OrderBookRow is a single (price, size) level of a replayed order book,
// tagged with the update_id that last touched it.
type OrderBookRow struct {
	Price    xdecimal.Decimal
	Size     xdecimal.Decimal
	UpdateID int64
}

// LimitOrder is immutable once constructed: price and quantity are already
// quantized by the caller (C1), and invariant L1 is enforced at
// construction so no open order can ever carry a non-positive price or size.
type LimitOrder struct {
	ClientOrderID string
	TradingPair   TradingPair
	Side          Side
	Price         xdecimal.Decimal
	Quantity      xdecimal.Decimal
	CreationTS    time.Time

	// InsertionSeq orders same-price orders by arrival, satisfying invariant
	// L2's stable-iteration-within-a-price-level requirement.
	InsertionSeq uint64
}

// NewLimitOrder validates invariant L1 and mints a client order id for a new
// resting limit order.
func NewLimitOrder(pair TradingPair, side Side, price, quantity xdecimal.Decimal, now time.Time) (LimitOrder, error) {
	if xdecimal.IsNaN(price) || xdecimal.IsNaN(quantity) || !price.IsPositive() || !quantity.IsPositive() {
		return LimitOrder{}, ErrNonPositiveOrder
	}
	return LimitOrder{
		ClientOrderID: NewClientOrderID(side, pair),
		TradingPair:   pair,
		Side:          side,
		Price:         price,
		Quantity:      quantity,
		CreationTS:    now,
	}, nil
}

// IsBuy reports whether this order rests in the bid book.
func (o LimitOrder) IsBuy() bool {
	return o.Side.IsBuy()
}

// QueuedOrder is a market order staged for execution after
// TRADE_EXECUTION_DELAY has elapsed since CreateTS (spec §4.4 step 1).
type QueuedOrder struct {
	CreateTS      time.Time
	ClientOrderID string
	Side          Side
	TradingPair   TradingPair
	Amount        xdecimal.Decimal
}

func (o QueuedOrder) IsBuy() bool {
	return o.Side.IsBuy()
}
