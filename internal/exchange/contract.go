// Package exchange implements the paper-trading exchange contract: a
// deterministic simulator that accepts buy/sell/cancel submissions, matches
// them against a replayed order book and staged external trades, tracks
// balances, and emits the events the XEMM strategy consumes.
package exchange

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/book"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// Contract is everything the XEMM strategy requires from a venue, whether
// it is this paper exchange or, one day, a live connector (spec §9: "Replace
// [dynamic dispatch on exchange] with a capability interface"). The
// strategy depends only on this interface, never on *PaperExchange.
type Contract interface {
	Buy(pair types.TradingPair, amount xdecimal.Decimal, orderType types.OrderType, price xdecimal.Decimal) (string, error)
	Sell(pair types.TradingPair, amount xdecimal.Decimal, orderType types.OrderType, price xdecimal.Decimal) (string, error)
	Cancel(pair types.TradingPair, orderID string) error
	CancelAll(timeout time.Duration) []types.CancellationResult

	GetOrderBook(pair types.TradingPair) (*book.OrderBook, error)
	GetPrice(pair types.TradingPair, isBuy bool) (xdecimal.Decimal, error)

	SetBalance(asset string, amount xdecimal.Decimal)
	GetBalance(asset string) xdecimal.Decimal
	GetAvailableBalance(asset string) xdecimal.Decimal

	QuantizeOrderPrice(pair types.TradingPair, x xdecimal.Decimal) xdecimal.Decimal
	QuantizeOrderAmount(pair types.TradingPair, x xdecimal.Decimal) xdecimal.Decimal
	GetOrderPriceQuantum(pair types.TradingPair, x xdecimal.Decimal) xdecimal.Decimal

	Tick(now time.Time)
}
