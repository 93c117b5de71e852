package book

import (
	"testing"

	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPair = types.TradingPair{BaseAsset: "BTC", QuoteAsset: "USDT", ExchangePairString: "BTC-USDT"}

func row(price, size float64) types.OrderBookRow {
	return types.OrderBookRow{Price: xdecimal.NewFromFloat(price), Size: xdecimal.NewFromFloat(size)}
}

func TestApplySnapshot_RejectsNonIncreasingUpdateID(t *testing.T) {
	b := NewOrderBook(testPair)

	changed, err := b.ApplySnapshot([]types.OrderBookRow{row(100, 1)}, []types.OrderBookRow{row(101, 1)}, 10)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = b.ApplySnapshot([]types.OrderBookRow{row(200, 1)}, nil, 9)
	require.NoError(t, err)
	assert.False(t, changed)

	top, ok := b.TopPrice(true)
	require.True(t, ok)
	assert.True(t, top.Equal(xdecimal.NewFromFloat(101)))
}

func TestApplyDiff_UpsertsAndRemovesZeroSizeLevels(t *testing.T) {
	b := NewOrderBook(testPair)
	_, err := b.ApplySnapshot([]types.OrderBookRow{row(100, 1)}, []types.OrderBookRow{row(101, 1)}, 10)
	require.NoError(t, err)

	changed, err := b.ApplyDiff([]types.OrderBookRow{row(100, 0)}, []types.OrderBookRow{row(102, 2)}, 11)
	require.NoError(t, err)
	assert.True(t, changed)

	_, ok := b.TopPrice(false)
	assert.False(t, ok, "bid side should be empty after zero-size diff")

	top, ok := b.TopPrice(true)
	require.True(t, ok)
	assert.True(t, top.Equal(xdecimal.NewFromFloat(101)))
}

func TestApplyDiff_RejectsStaleUpdateID(t *testing.T) {
	b := NewOrderBook(testPair)
	_, err := b.ApplySnapshot([]types.OrderBookRow{row(100, 1)}, []types.OrderBookRow{row(101, 1)}, 10)
	require.NoError(t, err)

	changed, err := b.ApplyDiff([]types.OrderBookRow{row(50, 5)}, nil, 9)
	require.NoError(t, err)
	assert.False(t, changed)

	levels := b.Levels(true)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Price.Equal(xdecimal.NewFromFloat(100)))
}

func TestVwapForVolume_CoversMultipleLevels(t *testing.T) {
	b := NewOrderBook(testPair)
	_, err := b.ApplySnapshot(nil, []types.OrderBookRow{row(100, 1), row(101, 1)}, 1)
	require.NoError(t, err)

	vwap, err := b.VwapForVolume(true, xdecimal.NewFromFloat(1.5))
	require.NoError(t, err)
	// (100*1 + 101*0.5) / 1.5 = 100.333...
	expected := xdecimal.NewFromFloat(100.33333333333333)
	assert.True(t, vwap.Sub(expected).Abs().LessThan(xdecimal.NewFromFloat(0.0001)), "got %s", vwap)
}

func TestVwapForVolume_FailsWhenBookExhausted(t *testing.T) {
	b := NewOrderBook(testPair)
	_, err := b.ApplySnapshot(nil, []types.OrderBookRow{row(100, 1)}, 1)
	require.NoError(t, err)

	_, err = b.VwapForVolume(true, xdecimal.NewFromFloat(5))
	assert.ErrorIs(t, err, ErrNotEnoughLiquidity)
}

func TestTopPriceWithTolerance_SkipsThinTopLevel(t *testing.T) {
	b := NewOrderBook(testPair)
	_, err := b.ApplySnapshot(nil, []types.OrderBookRow{row(100, 0.01), row(101, 10)}, 1)
	require.NoError(t, err)

	top, ok := b.TopPriceWithTolerance(true, xdecimal.NewFromFloat(5))
	require.True(t, ok)
	assert.True(t, top.Equal(xdecimal.NewFromFloat(101)), "got %s", top)
}

func TestTopPriceWithTolerance_ZeroBehavesLikeTopPrice(t *testing.T) {
	b := NewOrderBook(testPair)
	_, err := b.ApplySnapshot(nil, []types.OrderBookRow{row(100, 0.01), row(101, 10)}, 1)
	require.NoError(t, err)

	top, ok := b.TopPriceWithTolerance(true, xdecimal.Zero)
	require.True(t, ok)
	assert.True(t, top.Equal(xdecimal.NewFromFloat(100)), "got %s", top)
}

func TestTotalVolume_SumsWholeSide(t *testing.T) {
	b := NewOrderBook(testPair)
	_, err := b.ApplySnapshot(nil, []types.OrderBookRow{row(100, 1), row(101, 2)}, 1)
	require.NoError(t, err)

	total := b.TotalVolume(true)
	assert.True(t, total.Equal(xdecimal.NewFromFloat(3)), "got %s", total)
}

func TestRecordFilledOrder_DrainsOppositeSide(t *testing.T) {
	b := NewOrderBook(testPair)
	_, err := b.ApplySnapshot(nil, []types.OrderBookRow{row(100, 1), row(101, 1)}, 1)
	require.NoError(t, err)

	b.RecordFilledOrder(true, xdecimal.NewFromFloat(1))

	top, ok := b.TopPrice(true)
	require.True(t, ok)
	assert.True(t, top.Equal(xdecimal.NewFromFloat(101)))
}
