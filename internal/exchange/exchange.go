package exchange

import (
	"errors"
	"time"

	"github.com/fenrir-labs/xemm/internal/book"
	"github.com/fenrir-labs/xemm/internal/clock"
	"github.com/fenrir-labs/xemm/internal/limitstore"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

var _ Contract = (*PaperExchange)(nil)

// DefaultTradeExecutionDelay is how long a queued market order waits before
// it is simulated against the book (spec §4.4 step 1).
const DefaultTradeExecutionDelay = 5 * time.Second

// DefaultOrderCreatedDelay is the cooperative delay before a newly
// submitted limit order's *Created event is delivered (spec §4.4
// "Submission").
const DefaultOrderCreatedDelay = 10 * time.Millisecond

// ErrUnknownPair is returned by Buy/Sell/GetOrderBook/GetPrice for a pair
// that was never registered with RegisterPair.
var ErrUnknownPair = errors.New("exchange: unknown trading pair")

// PaperExchange is a deterministic, in-process simulator implementing
// Contract on top of a replayed order book (package book) and a limit-order
// store (package limitstore).
type PaperExchange struct {
	Name string

	clk *clock.Clock
	bus *clock.EventBus

	quantizer *xdecimal.Quantizer
	store     *limitstore.Store

	books map[string]*book.OrderBook
	pairs map[string]types.TradingPair

	balances map[string]xdecimal.Decimal

	queuedMarket   []types.QueuedOrder
	pendingCancels []string
	pendingTrades  []pendingTrade

	feeFn FeeFunc

	tradeExecutionDelay time.Duration
	orderCreatedDelay   time.Duration

	now time.Time
}

type pendingTrade struct {
	pair   types.TradingPair
	side   types.Side
	price  xdecimal.Decimal
	amount xdecimal.Decimal
}

// New constructs a PaperExchange. bus receives every emitted event; clk is
// used to schedule the 10ms asynchronous *OrderCreated delivery. A nil
// feeFn is replaced with ZeroFee.
func New(name string, clk *clock.Clock, bus *clock.EventBus, quantizer *xdecimal.Quantizer, feeFn FeeFunc) *PaperExchange {
	if feeFn == nil {
		feeFn = ZeroFee
	}
	ex := &PaperExchange{
		Name:                name,
		clk:                 clk,
		bus:                 bus,
		quantizer:           quantizer,
		store:               limitstore.New(),
		books:               make(map[string]*book.OrderBook),
		pairs:               make(map[string]types.TradingPair),
		balances:            make(map[string]xdecimal.Decimal),
		feeFn:               feeFn,
		tradeExecutionDelay: DefaultTradeExecutionDelay,
		orderCreatedDelay:   DefaultOrderCreatedDelay,
	}
	clk.Register(ex)
	return ex
}

// RegisterPair configures pair as tradable, registering its quantization
// rules and allocating its order book. Must be called before Buy/Sell for
// that pair, or they fail with ErrUnknownPair.
func (ex *PaperExchange) RegisterPair(pair types.TradingPair, params xdecimal.QuantizationParams) {
	ex.pairs[pair.Key()] = pair
	ex.quantizer.Register(pair.Key(), params)
	if _, ok := ex.books[pair.Key()]; !ok {
		ex.books[pair.Key()] = book.NewOrderBook(pair)
	}
}

// SetBalance sets asset's total balance.
func (ex *PaperExchange) SetBalance(asset string, amount xdecimal.Decimal) {
	ex.balances[asset] = amount
}

// GetBalance returns asset's total balance.
func (ex *PaperExchange) GetBalance(asset string) xdecimal.Decimal {
	return ex.balances[asset]
}

// GetAvailableBalance returns total minus on-hold for every open limit
// order against asset (invariant B1: never negative at tick boundaries; a
// tick that would drive it negative instead cancels the offending order).
func (ex *PaperExchange) GetAvailableBalance(asset string) xdecimal.Decimal {
	return xdecimal.Sub(ex.balances[asset], ex.onHold(asset))
}

func (ex *PaperExchange) onHold(asset string) xdecimal.Decimal {
	total := xdecimal.Zero
	for _, o := range ex.store.All() {
		if o.IsBuy() {
			if o.TradingPair.QuoteAsset == asset {
				total = xdecimal.Add(total, xdecimal.Mul(o.Price, o.Quantity))
			}
		} else {
			if o.TradingPair.BaseAsset == asset {
				total = xdecimal.Add(total, o.Quantity)
			}
		}
	}
	return total
}

// GetOrderBook returns the replayed book for pair.
func (ex *PaperExchange) GetOrderBook(pair types.TradingPair) (*book.OrderBook, error) {
	b, ok := ex.books[pair.Key()]
	if !ok {
		return nil, ErrUnknownPair
	}
	return b, nil
}

// GetPrice returns the current top price a buy (isBuy) or sell order would
// face: the best ask for a buy, the best bid for a sell.
func (ex *PaperExchange) GetPrice(pair types.TradingPair, isBuy bool) (xdecimal.Decimal, error) {
	b, err := ex.GetOrderBook(pair)
	if err != nil {
		return xdecimal.Zero, err
	}
	price, ok := b.TopPrice(isBuy)
	if !ok {
		return xdecimal.Zero, book.ErrNotEnoughLiquidity
	}
	return price, nil
}

// QuantizeOrderPrice/QuantizeOrderAmount/GetOrderPriceQuantum expose C1 per
// the exchange contract (§6), scoped to a specific pair.
func (ex *PaperExchange) QuantizeOrderPrice(pair types.TradingPair, x xdecimal.Decimal) xdecimal.Decimal {
	return ex.quantizer.QuantizePrice(pair.Key(), x)
}

func (ex *PaperExchange) QuantizeOrderAmount(pair types.TradingPair, x xdecimal.Decimal) xdecimal.Decimal {
	return ex.quantizer.QuantizeSize(pair.Key(), x)
}

func (ex *PaperExchange) GetOrderPriceQuantum(pair types.TradingPair, x xdecimal.Decimal) xdecimal.Decimal {
	return ex.quantizer.PriceQuantum(pair.Key(), x)
}

// SubmitTrade stages an external trade for processing on the next Tick. It
// is not synchronized: call it from the goroutine that drives the clock.
func (ex *PaperExchange) SubmitTrade(pair types.TradingPair, side types.Side, price, amount xdecimal.Decimal) {
	ex.pendingTrades = append(ex.pendingTrades, pendingTrade{pair: pair, side: side, price: price, amount: amount})
}
