package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClientOrderID_RoundTripsSideAndPair(t *testing.T) {
	pair := TradingPair{BaseAsset: "BTC", QuoteAsset: "USDT", ExchangePairString: "BTC-USDT"}

	id := NewClientOrderID(SideBuy, pair)
	assert.True(t, len(id) > len("buy://BTC-USDT/"))

	side, pairKey, err := DecodeClientOrderID(id)
	assert.NoError(t, err)
	assert.Equal(t, SideBuy, side)
	assert.Equal(t, "BTC-USDT", pairKey)

	id = NewClientOrderID(SideSell, pair)
	side, pairKey, err = DecodeClientOrderID(id)
	assert.NoError(t, err)
	assert.Equal(t, SideSell, side)
	assert.Equal(t, "BTC-USDT", pairKey)
}

func TestDecodeClientOrderID_RejectsMalformed(t *testing.T) {
	for _, id := range []string{
		"",
		"garbage",
		"hold://BTC-USDT/abc",
		"buy://",
		"buy:///abc",
	} {
		_, _, err := DecodeClientOrderID(id)
		assert.Error(t, err, "expected error for %q", id)
	}
}
