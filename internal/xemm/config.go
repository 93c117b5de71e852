package xemm

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// Config holds the recognized XEMM options (spec §6). Zero-value decimals
// behave as documented per field; Config is immutable once passed to New.
type Config struct {
	// MinProfitability is the minimum hedged profit ratio before quoting,
	// and doubles as the active-cancel threshold.
	MinProfitability xdecimal.Decimal

	// OrderAmount is a fixed maker order size in base units. Zero means use
	// OrderSizePortfolioRatioLimit instead.
	OrderAmount xdecimal.Decimal

	OrderSizeTakerVolumeFactor  xdecimal.Decimal
	OrderSizeTakerBalanceFactor xdecimal.Decimal
	OrderSizePortfolioRatioLimit xdecimal.Decimal

	TopDepthTolerance xdecimal.Decimal
	SlippageBuffer    xdecimal.Decimal

	AntiHysteresisDuration time.Duration

	ActiveOrderCanceling bool
	CancelOrderThreshold xdecimal.Decimal

	AdjustOrdersEnabled bool

	UseOracleConversionRate          bool
	TakerToMakerBaseConversionRate   xdecimal.Decimal
	TakerToMakerQuoteConversionRate  xdecimal.Decimal

	LimitOrderMinExpiration time.Duration
	StatusReportInterval    time.Duration

	// OrderAdjustSampleInterval is the top-of-book sampling cadence
	// (spec §4.7 step 2, default 5s).
	OrderAdjustSampleInterval time.Duration
	// SampleWindow bounds the sampling deques (spec default 12).
	SampleWindow int
}

// DefaultConfig returns a Config with the spec's stated defaults for the
// fields it calls out explicitly; callers must still set MinProfitability,
// the size factors, and conversion rates.
func DefaultConfig() Config {
	return Config{
		OrderAdjustSampleInterval: 5 * time.Second,
		SampleWindow:              12,
		AntiHysteresisDuration:    30 * time.Second,
		LimitOrderMinExpiration:   60 * time.Second,
		StatusReportInterval:      time.Minute,
		TakerToMakerBaseConversionRate:  xdecimal.New(1, 0),
		TakerToMakerQuoteConversionRate: xdecimal.New(1, 0),
	}
}
