package types

import (
	"testing"
	"time"

	"github.com/fenrir-labs/xemm/internal/xdecimal"
	"github.com/stretchr/testify/assert"
)

var testPair = TradingPair{BaseAsset: "BTC", QuoteAsset: "USDT", ExchangePairString: "BTC-USDT"}

func TestNewLimitOrder_RejectsNonPositivePriceOrQuantity(t *testing.T) {
	now := time.Unix(0, 0)

	_, err := NewLimitOrder(testPair, SideBuy, xdecimal.Zero, xdecimal.New(1, 0), now)
	assert.ErrorIs(t, err, ErrNonPositiveOrder)

	_, err = NewLimitOrder(testPair, SideBuy, xdecimal.New(1, 0), xdecimal.Zero, now)
	assert.ErrorIs(t, err, ErrNonPositiveOrder)

	_, err = NewLimitOrder(testPair, SideBuy, xdecimal.New(-1, 0), xdecimal.New(1, 0), now)
	assert.ErrorIs(t, err, ErrNonPositiveOrder)
}

func TestNewLimitOrder_AcceptsPositiveValuesAndEncodesSide(t *testing.T) {
	now := time.Unix(0, 0)

	order, err := NewLimitOrder(testPair, SideSell, xdecimal.New(100, 0), xdecimal.New(5, -1), now)
	assert.NoError(t, err)
	assert.True(t, order.IsBuy() == false)

	side, pairKey, err := DecodeClientOrderID(order.ClientOrderID)
	assert.NoError(t, err)
	assert.Equal(t, SideSell, side)
	assert.Equal(t, testPair.ExchangePairString, pairKey)
}
