package xemm

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/logging"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// conversionLogInterval is the spec §4.7.5 "log both every 5 minutes"
// cadence, reusing the heartbeat-style last-logged-timestamp guard rather
// than a second bespoke timer type (SPEC_FULL.md §3 supplement).
const conversionLogInterval = 5 * time.Minute

// ConversionOracle resolves a taker-asset -> maker-asset conversion rate
// when Config.UseOracleConversionRate is set. A live deployment would back
// this with a price-feed client; here it is an explicit dependency passed
// at construction (spec §9: "global mutable singletons... pass as explicit
// dependencies").
type ConversionOracle interface {
	Rate(takerAsset, makerAsset string) (xdecimal.Decimal, bool)
}

// conversionRates resolves the base and quote conversion rates for a pair,
// from the oracle when enabled, otherwise from the fixed Config overrides.
func (s *Strategy) conversionRates(p *StrategyPair) (baseRate, quoteRate xdecimal.Decimal) {
	if s.cfg.UseOracleConversionRate && s.oracle != nil {
		base, ok := s.oracle.Rate(p.Taker.Pair.BaseAsset, p.Maker.Pair.BaseAsset)
		if !ok {
			base = xdecimal.NaN()
		}
		quote, ok := s.oracle.Rate(p.Taker.Pair.QuoteAsset, p.Maker.Pair.QuoteAsset)
		if !ok {
			quote = xdecimal.NaN()
		}
		return base, quote
	}
	return s.cfg.TakerToMakerBaseConversionRate, s.cfg.TakerToMakerQuoteConversionRate
}

// marketConversionRate is quote_rate / base_rate (spec §4.7.5), the factor
// applied once inside effectiveHedgingPrice when maker and taker quote
// currencies differ.
func (s *Strategy) marketConversionRate(p *StrategyPair, now time.Time) xdecimal.Decimal {
	baseRate, quoteRate := s.conversionRates(p)
	if xdecimal.IsNaN(baseRate) || xdecimal.IsNaN(quoteRate) || baseRate.IsZero() {
		return xdecimal.NaN()
	}
	rate := xdecimal.Div(quoteRate, baseRate)

	if now.Sub(p.lastConversionLogAt) >= conversionLogInterval {
		logging.Info().
			Str("pair", p.Key).
			Str("base_rate", baseRate.String()).
			Str("quote_rate", quoteRate.String()).
			Msg("xemm conversion rate")
		p.lastConversionLogAt = now
	}
	return rate
}
