package exchange

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/clock"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// Buy is Sell's mirror; see Sell for the shared submission semantics.
func (ex *PaperExchange) Buy(pair types.TradingPair, amount xdecimal.Decimal, orderType types.OrderType, price xdecimal.Decimal) (string, error) {
	return ex.submit(pair, types.SideBuy, amount, orderType, price)
}

// Sell quantizes amount/price (§4.1), then either inserts a resting limit
// order (its *Created event is delivered after orderCreatedDelay) or
// appends a market order to the execution FIFO. Fails with ErrUnknownPair
// if pair was never registered, or with types.ErrNonPositiveOrder if the
// quantized order would violate invariant L1.
func (ex *PaperExchange) Sell(pair types.TradingPair, amount xdecimal.Decimal, orderType types.OrderType, price xdecimal.Decimal) (string, error) {
	return ex.submit(pair, types.SideSell, amount, orderType, price)
}

func (ex *PaperExchange) submit(pair types.TradingPair, side types.Side, amount xdecimal.Decimal, orderType types.OrderType, price xdecimal.Decimal) (string, error) {
	if _, ok := ex.pairs[pair.Key()]; !ok {
		return "", ErrUnknownPair
	}

	quantizedAmount := ex.quantizer.QuantizeSize(pair.Key(), amount)

	switch orderType {
	case types.OrderTypeMarket:
		if quantizedAmount.IsZero() || xdecimal.IsNaN(quantizedAmount) {
			return "", types.ErrNonPositiveOrder
		}
		id := types.NewClientOrderID(side, pair)
		ex.queuedMarket = append(ex.queuedMarket, types.QueuedOrder{
			CreateTS:      ex.now,
			ClientOrderID: id,
			Side:          side,
			TradingPair:   pair,
			Amount:        quantizedAmount,
		})
		return id, nil

	default: // types.OrderTypeLimit
		quantizedPrice := ex.quantizer.QuantizePrice(pair.Key(), price)
		order, err := types.NewLimitOrder(pair, side, quantizedPrice, quantizedAmount, ex.now)
		if err != nil {
			return "", err
		}
		stored := ex.store.Insert(order)
		ex.scheduleCreatedEvent(stored)
		return stored.ClientOrderID, nil
	}
}

func (ex *PaperExchange) scheduleCreatedEvent(order *types.LimitOrder) {
	fireAt := ex.now.Add(ex.orderCreatedDelay)
	ex.clk.ScheduleDelayed(fireAt, func() {
		if order.IsBuy() {
			clock.Publish(ex.bus, types.BuyOrderCreated{
				TS: fireAt, OrderID: order.ClientOrderID, TradingPair: order.TradingPair,
				Price: order.Price, Amount: order.Quantity,
			})
		} else {
			clock.Publish(ex.bus, types.SellOrderCreated{
				TS: fireAt, OrderID: order.ClientOrderID, TradingPair: order.TradingPair,
				Price: order.Price, Amount: order.Quantity,
			})
		}
	})
}

// Cancel is fire-and-forget and idempotent: the order (if it still rests
// in the book) is removed immediately, freeing its on-hold balance, but the
// observable OrderCancelled event is not emitted until the next Tick (spec
// §5: "the subsequent tick produces an OrderCancelled event if the order
// still existed").
func (ex *PaperExchange) Cancel(pair types.TradingPair, orderID string) error {
	if _, ok := ex.store.Erase(orderID); ok {
		ex.pendingCancels = append(ex.pendingCancels, orderID)
	}
	return nil
}

// CancelAll removes every resting order across every pair, returning one
// CancellationResult per id immediately; the matching OrderCancelled
// events are still deferred to the next Tick (property P4).
func (ex *PaperExchange) CancelAll(timeout time.Duration) []types.CancellationResult {
	all := ex.store.All()
	results := make([]types.CancellationResult, 0, len(all))
	for _, o := range all {
		ex.store.Erase(o.ClientOrderID)
		ex.pendingCancels = append(ex.pendingCancels, o.ClientOrderID)
		results = append(results, types.CancellationResult{OrderID: o.ClientOrderID, Success: true})
	}
	return results
}
