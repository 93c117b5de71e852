package exchange

import (
	"testing"
	"time"

	"github.com/fenrir-labs/xemm/internal/clock"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPair = types.TradingPair{BaseAsset: "BTC", QuoteAsset: "USDT", ExchangePairString: "BTC-USDT"}

func newTestExchange(t *testing.T) (*PaperExchange, *clock.Clock, *clock.EventBus) {
	t.Helper()
	clk := clock.New()
	bus := clock.NewEventBus()
	q := xdecimal.NewQuantizer()
	ex := New("maker", clk, bus, q, nil)
	ex.RegisterPair(testPair, xdecimal.QuantizationParams{
		PricePrecision: 8, PriceDecimals: 2,
		SizePrecision: 8, SizeDecimals: 4,
	})
	return ex, clk, bus
}

func TestBuy_UnregisteredPairFails(t *testing.T) {
	ex, _, _ := newTestExchange(t)
	other := types.TradingPair{BaseAsset: "ETH", QuoteAsset: "USDT", ExchangePairString: "ETH-USDT"}

	_, err := ex.Buy(other, xdecimal.New(1, 0), types.OrderTypeLimit, xdecimal.New(100, 0))
	assert.ErrorIs(t, err, ErrUnknownPair)
}

func TestBuyLimitOrder_EmitsCreatedEventAfterCooperativeDelay(t *testing.T) {
	ex, clk, bus := newTestExchange(t)
	ex.SetBalance("USDT", xdecimal.New(1000, 0))

	var created *types.BuyOrderCreated
	clock.Subscribe(bus, func(e types.BuyOrderCreated) { created = &e })

	base := time.Unix(1000, 0)
	clk.Advance(base)
	_, err := ex.Buy(testPair, xdecimal.New(1, 0), types.OrderTypeLimit, xdecimal.New(100, 0))
	require.NoError(t, err)

	clk.Advance(base.Add(5 * time.Millisecond))
	assert.Nil(t, created, "created event should not fire before the cooperative delay elapses")

	clk.Advance(base.Add(15 * time.Millisecond))
	require.NotNil(t, created)
	assert.True(t, created.Price.Equal(xdecimal.New(100, 0)))
}

func TestCrossedLimitOrder_FillsAgainstPublicBook(t *testing.T) {
	ex, clk, bus := newTestExchange(t)
	ex.SetBalance("USDT", xdecimal.New(1000, 0))
	ex.SetBalance("BTC", xdecimal.Zero)

	var filled *types.OrderFilled
	var completed *types.BuyOrderCompleted
	clock.Subscribe(bus, func(e types.OrderFilled) { filled = &e })
	clock.Subscribe(bus, func(e types.BuyOrderCompleted) { completed = &e })

	now := time.Unix(2000, 0)
	clk.Advance(now)
	_, err := ex.Buy(testPair, xdecimal.New(1, 0), types.OrderTypeLimit, xdecimal.New(100, 0))
	require.NoError(t, err)

	b, err := ex.GetOrderBook(testPair)
	require.NoError(t, err)
	_, err = b.ApplySnapshot(nil, []types.OrderBookRow{{Price: xdecimal.New(99, 0), Size: xdecimal.New(5, 0)}}, 1)
	require.NoError(t, err)

	clk.Advance(now.Add(time.Second))

	require.NotNil(t, filled, "expected the resting bid to fill once the public ask dropped below it")
	assert.True(t, filled.Price.Equal(xdecimal.New(100, 0)))
	require.NotNil(t, completed)
	assert.True(t, completed.BaseFilled.Equal(xdecimal.New(1, 0)))

	assert.True(t, ex.GetBalance("BTC").Equal(xdecimal.New(1, 0)))
	assert.True(t, ex.GetBalance("USDT").Equal(xdecimal.New(900, 0)))
}

func TestInsufficientBalance_CancelsInsteadOfFailing(t *testing.T) {
	ex, clk, bus := newTestExchange(t)
	ex.SetBalance("USDT", xdecimal.New(100, 0))

	var cancelled *types.OrderCancelled
	var completed *types.BuyOrderCompleted
	clock.Subscribe(bus, func(e types.OrderCancelled) { cancelled = &e })
	clock.Subscribe(bus, func(e types.BuyOrderCompleted) { completed = &e })

	now := time.Unix(3000, 0)
	clk.Advance(now)
	_, err := ex.Buy(testPair, xdecimal.New(1, 0), types.OrderTypeLimit, xdecimal.New(100, 0))
	require.NoError(t, err)

	// Quote balance drops out from under the resting order before it fills.
	ex.SetBalance("USDT", xdecimal.New(50, 0))

	b, err := ex.GetOrderBook(testPair)
	require.NoError(t, err)
	_, err = b.ApplySnapshot(nil, []types.OrderBookRow{{Price: xdecimal.New(99, 0), Size: xdecimal.New(5, 0)}}, 1)
	require.NoError(t, err)

	clk.Advance(now.Add(time.Second))

	require.NotNil(t, cancelled, "an unfundable resting order must be cancelled, not failed")
	assert.Nil(t, completed)
}

func TestQueuedMarketOrder_WaitsForTradeExecutionDelay(t *testing.T) {
	ex, clk, bus := newTestExchange(t)
	ex.SetBalance("USDT", xdecimal.New(1000, 0))

	var filledEvents []types.OrderFilled
	var completed *types.BuyOrderCompleted
	clock.Subscribe(bus, func(e types.OrderFilled) { filledEvents = append(filledEvents, e) })
	clock.Subscribe(bus, func(e types.BuyOrderCompleted) { completed = &e })

	b, err := ex.GetOrderBook(testPair)
	require.NoError(t, err)
	_, err = b.ApplySnapshot(nil, []types.OrderBookRow{{Price: xdecimal.New(100, 0), Size: xdecimal.New(5, 0)}}, 1)
	require.NoError(t, err)

	base := time.Unix(4000, 0)
	clk.Advance(base)
	_, err = ex.Buy(testPair, xdecimal.New(3, -1), types.OrderTypeMarket, xdecimal.Zero)
	require.NoError(t, err)

	clk.Advance(base.Add(3 * time.Second))
	assert.Empty(t, filledEvents, "market order must not execute before TRADE_EXECUTION_DELAY")

	clk.Advance(base.Add(5 * time.Second))
	require.NotNil(t, completed)
	assert.True(t, completed.BaseFilled.Equal(xdecimal.New(3, -1)))
}

func TestCancel_IsIdempotentAndEventIsDeferredToNextTick(t *testing.T) {
	ex, clk, bus := newTestExchange(t)
	ex.SetBalance("USDT", xdecimal.New(1000, 0))

	var cancelled []types.OrderCancelled
	clock.Subscribe(bus, func(e types.OrderCancelled) { cancelled = append(cancelled, e) })

	now := time.Unix(5000, 0)
	clk.Advance(now)
	id, err := ex.Buy(testPair, xdecimal.New(1, 0), types.OrderTypeLimit, xdecimal.New(100, 0))
	require.NoError(t, err)

	require.NoError(t, ex.Cancel(testPair, id))
	assert.True(t, ex.GetAvailableBalance("USDT").Equal(xdecimal.New(1000, 0)), "on-hold should be freed immediately on cancel")
	assert.Empty(t, cancelled, "the cancel event should not fire before the next tick")

	require.NoError(t, ex.Cancel(testPair, id), "cancel must be idempotent")

	clk.Advance(now.Add(time.Second))
	require.Len(t, cancelled, 1)
	assert.Equal(t, id, cancelled[0].OrderID)
}

func TestGetAvailableBalance_SubtractsOnHoldForOpenOrders(t *testing.T) {
	ex, clk, _ := newTestExchange(t)
	ex.SetBalance("USDT", xdecimal.New(1000, 0))

	clk.Advance(time.Unix(6000, 0))
	_, err := ex.Buy(testPair, xdecimal.New(2, 0), types.OrderTypeLimit, xdecimal.New(100, 0))
	require.NoError(t, err)

	assert.True(t, ex.GetAvailableBalance("USDT").Equal(xdecimal.New(800, 0)))
	assert.True(t, ex.GetBalance("USDT").Equal(xdecimal.New(1000, 0)))
}
