package xemm

import (
	"github.com/fenrir-labs/xemm/internal/book"
	"github.com/fenrir-labs/xemm/internal/exchange"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// MarketRef bundles a venue handle with the pair it trades and an optional
// readiness probe (spec §3 "MarketRef bundles an exchange handle, trading
// pair, cached top-of-book accessor, and mid-price accessor"). Ready is nil
// for venues that are always connected, which is every PaperExchange.
type MarketRef struct {
	Name     string
	Exchange exchange.Contract
	Pair     types.TradingPair
	Ready    func() bool

	// DepthTolerance is the quote-volume notional ignored nearest the top
	// when reading top-of-book (spec §6 "top_depth_tolerance"), so a single
	// thin flickering level does not drive pricing decisions. Zero reads
	// the literal top of book.
	DepthTolerance xdecimal.Decimal
}

func (m MarketRef) isReady() bool {
	if m.Ready == nil {
		return true
	}
	return m.Ready()
}

// TopOfBook returns (best bid, best ask), each adjusted for DepthTolerance.
func (m MarketRef) TopOfBook() (bid, ask xdecimal.Decimal, err error) {
	b, err := m.orderBook()
	if err != nil {
		return xdecimal.Zero, xdecimal.Zero, err
	}
	var ok bool
	bid, ok = b.TopPriceWithTolerance(false, m.DepthTolerance)
	if !ok {
		return xdecimal.Zero, xdecimal.Zero, book.ErrNotEnoughLiquidity
	}
	ask, ok = b.TopPriceWithTolerance(true, m.DepthTolerance)
	if !ok {
		return xdecimal.Zero, xdecimal.Zero, book.ErrNotEnoughLiquidity
	}
	return bid, ask, nil
}

// Mid returns the midpoint of the top of book.
func (m MarketRef) Mid() (xdecimal.Decimal, error) {
	bid, ask, err := m.TopOfBook()
	if err != nil {
		return xdecimal.Zero, err
	}
	return xdecimal.Div(xdecimal.Add(bid, ask), xdecimal.New(2, 0)), nil
}

func (m MarketRef) orderBook() (*book.OrderBook, error) {
	return m.Exchange.GetOrderBook(m.Pair)
}
