package exchange

import (
	"sort"
	"time"

	"github.com/fenrir-labs/xemm/internal/book"
	"github.com/fenrir-labs/xemm/internal/clock"
	"github.com/fenrir-labs/xemm/internal/logging"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// Tick drives one simulated step: pending cancel notifications first, then
// queued market orders, then crossed-limit checks, then trade-crossed
// limits (spec §4.4 "Per-tick processing", ordering guarantees in §5).
func (ex *PaperExchange) Tick(now time.Time) {
	ex.now = now

	ex.flushPendingCancels(now)
	ex.processQueuedMarketOrders(now)
	ex.processCrossedLimitOrders(now)
	ex.processPendingTrades(now)
}

func (ex *PaperExchange) flushPendingCancels(now time.Time) {
	if len(ex.pendingCancels) == 0 {
		return
	}
	for _, id := range ex.pendingCancels {
		clock.Publish(ex.bus, types.OrderCancelled{TS: now, OrderID: id})
	}
	ex.pendingCancels = ex.pendingCancels[:0]
}

// processQueuedMarketOrders pops every queued order whose execution delay
// has elapsed and simulates it against the current book.
func (ex *PaperExchange) processQueuedMarketOrders(now time.Time) {
	due := 0
	for due < len(ex.queuedMarket) && !ex.queuedMarket[due].CreateTS.Add(ex.tradeExecutionDelay).After(now) {
		due++
	}
	if due == 0 {
		return
	}

	ready := ex.queuedMarket[:due]
	ex.queuedMarket = ex.queuedMarket[due:]

	for _, o := range ready {
		ex.executeMarketOrder(o, now)
	}
}

func (ex *PaperExchange) executeMarketOrder(o types.QueuedOrder, now time.Time) {
	b, ok := ex.books[o.TradingPair.Key()]
	if !ok {
		clock.Publish(ex.bus, types.OrderFailure{TS: now, OrderID: o.ClientOrderID, OrderType: types.OrderTypeMarket})
		return
	}

	fills, err := b.SweepVolume(o.IsBuy(), o.Amount)
	if err != nil {
		logging.Warn().Str("order_id", o.ClientOrderID).Err(err).Msg("market order could not be covered by book liquidity")
		clock.Publish(ex.bus, types.OrderFailure{TS: now, OrderID: o.ClientOrderID, OrderType: types.OrderTypeMarket})
		return
	}

	totalQuote := xdecimal.Zero
	totalBase := xdecimal.Zero
	for _, f := range fills {
		totalQuote = xdecimal.Add(totalQuote, xdecimal.Mul(f.Price, f.Size))
		totalBase = xdecimal.Add(totalBase, f.Size)
	}

	if o.IsBuy() {
		if ex.GetBalance(o.TradingPair.QuoteAsset).LessThan(totalQuote) {
			clock.Publish(ex.bus, types.OrderFailure{TS: now, OrderID: o.ClientOrderID, OrderType: types.OrderTypeMarket})
			return
		}
		ex.balances[o.TradingPair.QuoteAsset] = xdecimal.Sub(ex.balances[o.TradingPair.QuoteAsset], totalQuote)
		ex.balances[o.TradingPair.BaseAsset] = xdecimal.Add(ex.balances[o.TradingPair.BaseAsset], totalBase)
	} else {
		if ex.GetBalance(o.TradingPair.BaseAsset).LessThan(totalBase) {
			clock.Publish(ex.bus, types.OrderFailure{TS: now, OrderID: o.ClientOrderID, OrderType: types.OrderTypeMarket})
			return
		}
		ex.balances[o.TradingPair.BaseAsset] = xdecimal.Sub(ex.balances[o.TradingPair.BaseAsset], totalBase)
		ex.balances[o.TradingPair.QuoteAsset] = xdecimal.Add(ex.balances[o.TradingPair.QuoteAsset], totalQuote)
	}

	for _, f := range fills {
		fee := ex.feeFn(FeeParams{
			ExchangeName: ex.Name, IsMaker: false,
			Base: o.TradingPair.BaseAsset, Quote: o.TradingPair.QuoteAsset,
			OrderType: types.OrderTypeMarket, Side: o.Side,
			Amount: f.Size, Price: f.Price,
		})
		clock.Publish(ex.bus, types.OrderFilled{
			TS: now, OrderID: o.ClientOrderID, TradingPair: o.TradingPair,
			TradeType: o.Side, OrderType: types.OrderTypeMarket,
			Price: f.Price, Amount: f.Size, Fee: fee,
		})
	}

	if o.IsBuy() {
		clock.Publish(ex.bus, types.BuyOrderCompleted{
			TS: now, OrderID: o.ClientOrderID,
			Base: o.TradingPair.BaseAsset, Quote: o.TradingPair.QuoteAsset,
			BaseFilled: totalBase, QuoteFilled: totalQuote, OrderType: types.OrderTypeMarket,
		})
	} else {
		clock.Publish(ex.bus, types.SellOrderCompleted{
			TS: now, OrderID: o.ClientOrderID,
			Base: o.TradingPair.BaseAsset, Quote: o.TradingPair.QuoteAsset,
			BaseFilled: totalBase, QuoteFilled: totalQuote, OrderType: types.OrderTypeMarket,
		})
	}
}

// processCrossedLimitOrders fills every resting limit order that the
// current public book now crosses, in deterministic (pair, side, price)
// order: bids descending stop at the first that the best ask no longer
// beats, asks ascending stop at the first the best bid no longer beats.
func (ex *PaperExchange) processCrossedLimitOrders(now time.Time) {
	keys := make([]string, 0, len(ex.pairs))
	for k := range ex.pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pair := ex.pairs[k]
		b := ex.books[pair.Key()]
		if b == nil {
			continue
		}
		ex.crossSide(pair, b, true, now)
		ex.crossSide(pair, b, false, now)
	}
}

func (ex *PaperExchange) crossSide(pair types.TradingPair, b *book.OrderBook, isBuy bool, now time.Time) {
	resting := ex.store.ForwardIter(pair, isBuy)
	if len(resting) == 0 {
		return
	}

	opposingTop, ok := b.TopPrice(isBuy)
	if !ok {
		return
	}

	var crossed []*types.LimitOrder
	for _, o := range resting {
		if isBuy && opposingTop.GreaterThan(o.Price) {
			break
		}
		if !isBuy && opposingTop.LessThan(o.Price) {
			break
		}
		crossed = append(crossed, o)
	}

	for _, o := range crossed {
		ex.fillRestingOrder(o, now, true)
	}
}

// fillRestingOrder fills a single resting limit order at its own price. If
// the owning balance can no longer fund it, the order is cancelled instead
// (invariant B1), never failed — this is the observable signal that
// inventory moved out from under an open quote.
func (ex *PaperExchange) fillRestingOrder(o *types.LimitOrder, now time.Time, isMaker bool) {
	notionalQuote := xdecimal.Mul(o.Price, o.Quantity)

	if o.IsBuy() {
		if ex.GetBalance(o.TradingPair.QuoteAsset).LessThan(notionalQuote) {
			ex.cancelUnfunded(o, now)
			return
		}
		ex.balances[o.TradingPair.QuoteAsset] = xdecimal.Sub(ex.balances[o.TradingPair.QuoteAsset], notionalQuote)
		ex.balances[o.TradingPair.BaseAsset] = xdecimal.Add(ex.balances[o.TradingPair.BaseAsset], o.Quantity)
	} else {
		if ex.GetBalance(o.TradingPair.BaseAsset).LessThan(o.Quantity) {
			ex.cancelUnfunded(o, now)
			return
		}
		ex.balances[o.TradingPair.BaseAsset] = xdecimal.Sub(ex.balances[o.TradingPair.BaseAsset], o.Quantity)
		ex.balances[o.TradingPair.QuoteAsset] = xdecimal.Add(ex.balances[o.TradingPair.QuoteAsset], notionalQuote)
	}

	ex.store.Erase(o.ClientOrderID)

	fee := ex.feeFn(FeeParams{
		ExchangeName: ex.Name, IsMaker: isMaker,
		Base: o.TradingPair.BaseAsset, Quote: o.TradingPair.QuoteAsset,
		OrderType: types.OrderTypeLimit, Side: o.Side,
		Amount: o.Quantity, Price: o.Price,
	})
	clock.Publish(ex.bus, types.OrderFilled{
		TS: now, OrderID: o.ClientOrderID, TradingPair: o.TradingPair,
		TradeType: o.Side, OrderType: types.OrderTypeLimit,
		Price: o.Price, Amount: o.Quantity, Fee: fee,
	})

	if o.IsBuy() {
		clock.Publish(ex.bus, types.BuyOrderCompleted{
			TS: now, OrderID: o.ClientOrderID,
			Base: o.TradingPair.BaseAsset, Quote: o.TradingPair.QuoteAsset,
			BaseFilled: o.Quantity, QuoteFilled: notionalQuote, OrderType: types.OrderTypeLimit,
		})
	} else {
		clock.Publish(ex.bus, types.SellOrderCompleted{
			TS: now, OrderID: o.ClientOrderID,
			Base: o.TradingPair.BaseAsset, Quote: o.TradingPair.QuoteAsset,
			BaseFilled: o.Quantity, QuoteFilled: notionalQuote, OrderType: types.OrderTypeLimit,
		})
	}
}

func (ex *PaperExchange) cancelUnfunded(o *types.LimitOrder, now time.Time) {
	ex.store.Erase(o.ClientOrderID)
	clock.Publish(ex.bus, types.OrderCancelled{TS: now, OrderID: o.ClientOrderID})
}

// processPendingTrades fills resting limit orders that an external trade,
// staged via SubmitTrade, swept past (spec §4.4 step 3: "Trade-crossed
// limits").
func (ex *PaperExchange) processPendingTrades(now time.Time) {
	if len(ex.pendingTrades) == 0 {
		return
	}
	trades := ex.pendingTrades
	ex.pendingTrades = nil

	for _, pt := range trades {
		b, ok := ex.books[pt.pair.Key()]
		if !ok {
			continue
		}
		b.ApplyTrade(pt.side, pt.price, pt.amount)

		// A sell trade sweeps into the bid book from the top down; a buy
		// trade sweeps into the ask book from the bottom up.
		restingIsBuy := !pt.side.IsBuy()
		resting := ex.store.ForwardIter(pt.pair, restingIsBuy)

		var crossed []*types.LimitOrder
		for _, o := range resting {
			if restingIsBuy && o.Price.LessThan(pt.price) {
				break
			}
			if !restingIsBuy && o.Price.GreaterThan(pt.price) {
				break
			}
			crossed = append(crossed, o)
		}
		for _, o := range crossed {
			ex.fillRestingOrder(o, now, true)
		}
	}
}
