package types

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// BuyOrderCreated / SellOrderCreated are emitted by the exchange once the
// 10ms cooperative delivery delay for a newly-submitted limit order elapses.
type BuyOrderCreated struct {
	TS          time.Time
	OrderID     string
	TradingPair TradingPair
	Price       xdecimal.Decimal
	Amount      xdecimal.Decimal
}

type SellOrderCreated struct {
	TS          time.Time
	OrderID     string
	TradingPair TradingPair
	Price       xdecimal.Decimal
	Amount      xdecimal.Decimal
}

// OrderFilled is emitted once per matched row; a single order may generate
// several of these before its terminal Completed event.
type OrderFilled struct {
	TS              time.Time
	OrderID         string
	TradingPair     TradingPair
	TradeType       Side
	OrderType       OrderType
	Price           xdecimal.Decimal
	Amount          xdecimal.Decimal
	Fee             xdecimal.Decimal
	ExchangeTradeID string
}

// BuyOrderCompleted / SellOrderCompleted are the terminal event for a fully
// (or exhaustively, for market orders) filled order.
type BuyOrderCompleted struct {
	TS          time.Time
	OrderID     string
	Base        string
	Quote       string
	BaseFilled  xdecimal.Decimal
	QuoteFilled xdecimal.Decimal
	OrderType   OrderType
}

type SellOrderCompleted struct {
	TS          time.Time
	OrderID     string
	Base        string
	Quote       string
	BaseFilled  xdecimal.Decimal
	QuoteFilled xdecimal.Decimal
	OrderType   OrderType
}

// OrderCancelled is the observable signal that an order left the book
// without completing, whether by explicit cancel or a balance shortfall
// discovered at fill time (invariant B1).
type OrderCancelled struct {
	TS      time.Time
	OrderID string
}

// OrderFailure marks a submission or execution that never produced any
// fill, such as a market order that could not be funded.
type OrderFailure struct {
	TS        time.Time
	OrderID   string
	OrderType OrderType
}

// TradeEvent is returned by the order book's ApplyTrade for every external
// trade it records.
type TradeEvent struct {
	TradingPair TradingPair
	Side        Side
	Price       xdecimal.Decimal
	Amount      xdecimal.Decimal
}

// CancellationResult reports the outcome of one order within a cancel_all
// batch.
type CancellationResult struct {
	OrderID string
	Success bool
}
