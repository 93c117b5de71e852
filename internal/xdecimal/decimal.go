// Package xdecimal provides fixed-precision decimal arithmetic and the
// per-trading-pair price/size quantization rules the rest of the engine
// builds on.
package xdecimal

import (
	"math"

	"github.com/shopspring/decimal"
)

// Decimal is the arbitrary-precision signed decimal type used everywhere a
// price, size, or balance is represented. It is a thin alias over
// decimal.Decimal plus a distinguished NaN sentinel, since shopspring/decimal
// has no native "undefined" value.
type Decimal = decimal.Decimal

var (
	// Zero is the distinct zero value.
	Zero = decimal.Zero

	// nanRepr is an out-of-band sentinel value used to represent "undefined".
	// No legitimate price, size, or balance in this system is ever this
	// exact value, so identity comparison against it is safe.
	nanRepr = decimal.New(1, 1<<20)
)

// NaN returns the sentinel "undefined" decimal. Arithmetic performed on it
// propagates NaN, mirroring IEEE-754 semantics for the callers in C7 that
// treat "price could not be computed" as a first-class value rather than an
// error.
func NaN() Decimal {
	return nanRepr
}

// IsNaN reports whether d is the NaN sentinel.
func IsNaN(d Decimal) bool {
	return d.Equal(nanRepr)
}

// New constructs a Decimal from an integer mantissa and base-10 exponent,
// e.g. New(1005, -2) == 10.05.
func New(value int64, exp int32) Decimal {
	return decimal.New(value, exp)
}

// NewFromFloat constructs a Decimal from a float64. Used only at the edges
// (test fixtures, feed adapters) where inputs arrive as floats.
func NewFromFloat(f float64) Decimal {
	if math.IsNaN(f) {
		return NaN()
	}
	return decimal.NewFromFloat(f)
}

// NewFromString constructs a Decimal from a base-10 string.
func NewFromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// Add returns a+b, propagating NaN.
func Add(a, b Decimal) Decimal {
	if IsNaN(a) || IsNaN(b) {
		return NaN()
	}
	return a.Add(b)
}

// Sub returns a-b, propagating NaN.
func Sub(a, b Decimal) Decimal {
	if IsNaN(a) || IsNaN(b) {
		return NaN()
	}
	return a.Sub(b)
}

// Mul returns a*b, propagating NaN.
func Mul(a, b Decimal) Decimal {
	if IsNaN(a) || IsNaN(b) {
		return NaN()
	}
	return a.Mul(b)
}

// Div returns a/b, propagating NaN. Division by zero also yields NaN rather
// than panicking, since b is frequently a size/volume that may legitimately
// be zero mid-computation (e.g. an empty book).
func Div(a, b Decimal) Decimal {
	if IsNaN(a) || IsNaN(b) || b.IsZero() {
		return NaN()
	}
	return a.Div(b)
}

// Min returns the smaller of a and b. NaN is never smaller than anything;
// if either input is NaN the other is returned, and if both are NaN, NaN is
// returned.
func Min(a, b Decimal) Decimal {
	switch {
	case IsNaN(a) && IsNaN(b):
		return NaN()
	case IsNaN(a):
		return b
	case IsNaN(b):
		return a
	}
	return decimal.Min(a, b)
}

// Max returns the larger of a and b, with the same NaN handling as Min.
func Max(a, b Decimal) Decimal {
	switch {
	case IsNaN(a) && IsNaN(b):
		return NaN()
	case IsNaN(a):
		return b
	case IsNaN(b):
		return a
	}
	return decimal.Max(a, b)
}
