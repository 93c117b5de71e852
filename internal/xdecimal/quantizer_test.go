package xdecimal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantizePrice_Basic(t *testing.T) {
	q := NewQuantizer()
	q.Register("BTC-USDT", QuantizationParams{
		PricePrecision: 8,
		PriceDecimals:  2,
		SizePrecision:  8,
		SizeDecimals:   4,
	})

	got := q.QuantizePrice("BTC-USDT", NewFromFloat(99.00999999))
	assert.True(t, got.Equal(New(9901, -2)), "got %s", got)
}

func TestQuantizeSize_BelowThresholdIsZero(t *testing.T) {
	q := NewQuantizer()
	q.Register("BTC-USDT", QuantizationParams{
		PricePrecision: 8, PriceDecimals: 2,
		SizePrecision: 8, SizeDecimals: 4,
	})

	got := q.QuantizeSize("BTC-USDT", New(1, -7))
	assert.True(t, got.IsZero())

	got = q.QuantizeSize("BTC-USDT", New(2, -4))
	assert.True(t, got.Equal(New(2, -4)))
}

func TestQuantize_UnknownPairFallsBackToFixedQuanta(t *testing.T) {
	q := NewQuantizer()

	price := q.QuantizePrice("UNKNOWN-PAIR", NewFromFloat(12.3456789012))
	assert.True(t, price.Equal(price.Truncate(10)))

	size := q.QuantizeSize("UNKNOWN-PAIR", NewFromFloat(0.00012345))
	assert.True(t, size.Equal(size.Truncate(7)))
}

func TestQuantizePrice_NaNPropagates(t *testing.T) {
	q := NewQuantizer()
	assert.True(t, IsNaN(q.QuantizePrice("X", NaN())))
}

func TestDecimalArithmetic_NaNPropagation(t *testing.T) {
	assert.True(t, IsNaN(Add(NaN(), New(1, 0))))
	assert.True(t, IsNaN(Mul(New(2, 0), NaN())))
	assert.True(t, IsNaN(Div(New(1, 0), Zero)))
}

func TestMinMax_NaNHandling(t *testing.T) {
	a := New(5, 0)
	assert.True(t, Min(a, NaN()).Equal(a))
	assert.True(t, Max(NaN(), a).Equal(a))
	assert.True(t, IsNaN(Min(NaN(), NaN())))
}
