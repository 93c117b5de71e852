package xdecimal

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

// fallbackPriceQuantum and fallbackSizeQuantum are used when a trading pair
// has no registered QuantizationParams (spec §4.1 failure mode: none, pure
// function, fall back to these constants).
var (
	fallbackPriceQuantum = decimal.New(1, -10)
	fallbackSizeQuantum  = decimal.New(1, -7)
	minSizeThreshold     = decimal.New(1, -7)
	preRoundDigits       = int32(8)
)

// QuantizationParams are the per-pair precision rules from spec §3:
// price_precision (significant digits), price_decimals (fractional digit
// floor), size_precision, size_decimals.
type QuantizationParams struct {
	PricePrecision int32
	PriceDecimals  int32
	SizePrecision  int32
	SizeDecimals   int32
}

// Quantizer holds registered QuantizationParams per trading pair and exposes
// the price/size quantization operations from spec §4.1. It is safe for
// concurrent read access; registration is expected to happen once at setup.
type Quantizer struct {
	mu     sync.RWMutex
	params map[string]QuantizationParams
}

// NewQuantizer returns an empty Quantizer; pairs quantize against the
// fallback quanta until registered.
func NewQuantizer() *Quantizer {
	return &Quantizer{params: make(map[string]QuantizationParams)}
}

// Register associates QuantizationParams with a pair key (typically
// TradingPair.ExchangePairString).
func (q *Quantizer) Register(pairKey string, params QuantizationParams) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.params[pairKey] = params
}

// Lookup returns the registered params for a pair, if any.
func (q *Quantizer) Lookup(pairKey string) (QuantizationParams, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	p, ok := q.params[pairKey]
	return p, ok
}

// priceQuantum computes max(10^(ceil(log10(x)) - precision), 10^(-decimals))
// per spec §3.
func priceQuantum(x Decimal, precision, decimals int32) Decimal {
	floorQuantum := decimal.New(1, -decimals)
	if x.IsZero() {
		return floorQuantum
	}

	f, _ := x.Abs().Float64()
	exp := int32(math.Ceil(math.Log10(f)))
	sigQuantum := decimal.New(1, exp-precision)

	if sigQuantum.GreaterThan(floorQuantum) {
		return sigQuantum
	}
	return floorQuantum
}

// QuantizePrice implements spec §4.1 quantize_price: pre-round to 8
// significant digits to tame floating-point inputs, then floor to the
// nearest multiple of the price quantum.
func (q *Quantizer) QuantizePrice(pairKey string, x Decimal) Decimal {
	if IsNaN(x) {
		return NaN()
	}

	precision, decimals := q.priceRules(pairKey)
	x = roundSignificant(x, preRoundDigits)

	quantum := priceQuantum(x, precision, decimals)
	return floorToMultiple(x, quantum)
}

// QuantizeSize implements spec §4.1 quantize_size: returns zero if x is at
// or below 10^-7, else the floored multiple of the size quantum.
func (q *Quantizer) QuantizeSize(pairKey string, x Decimal) Decimal {
	if IsNaN(x) {
		return NaN()
	}
	if x.LessThanOrEqual(minSizeThreshold) {
		return Zero
	}

	precision, decimals := q.sizeRules(pairKey)
	quantum := priceQuantum(x, precision, decimals)
	return floorToMultiple(x, quantum)
}

// PriceQuantum returns the price quantum that would apply to x for pairKey,
// for callers (C7 drift checks) that need the step size itself rather than a
// quantized value.
func (q *Quantizer) PriceQuantum(pairKey string, x Decimal) Decimal {
	precision, decimals := q.priceRules(pairKey)
	return priceQuantum(x, precision, decimals)
}

func (q *Quantizer) priceRules(pairKey string) (precision, decimals int32) {
	if p, ok := q.Lookup(pairKey); ok {
		return p.PricePrecision, p.PriceDecimals
	}
	// Fallback: treat as "no precision cap", quantum floor only.
	return 100, -fallbackPriceQuantum.Exponent()
}

func (q *Quantizer) sizeRules(pairKey string) (precision, decimals int32) {
	if p, ok := q.Lookup(pairKey); ok {
		return p.SizePrecision, p.SizeDecimals
	}
	return 100, -fallbackSizeQuantum.Exponent()
}

// floorToMultiple returns trunc(x/quantum) * quantum: the nearest multiple of
// quantum between zero and x inclusive (x itself when it is already a
// multiple), rounding toward zero for both
// positive and negative x (spec §3: "Quantization rounds toward zero").
func floorToMultiple(x, quantum Decimal) Decimal {
	if quantum.IsZero() {
		return x
	}
	quo := x.Div(quantum).Truncate(0)
	return quo.Mul(quantum)
}

// roundSignificant rounds x to the given number of significant digits,
// dampening floating-point noise in inputs before quantization.
func roundSignificant(x Decimal, digits int32) Decimal {
	if x.IsZero() {
		return x
	}
	f, _ := x.Abs().Float64()
	exp := int32(math.Ceil(math.Log10(f)))
	return x.Round(digits - exp)
}
