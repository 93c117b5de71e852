package xemm

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// effectiveHedgingPrice is spec §4.7.1: given a proposed maker size on side
// isBid, iterate the taker book on the opposite side and return the
// size-weighted average price a hedge of that size would realize, converted
// into the maker's quote currency if it differs from the taker's.
func (s *Strategy) effectiveHedgingPrice(p *StrategyPair, isBid bool, size xdecimal.Decimal, now time.Time) (xdecimal.Decimal, error) {
	b, err := p.Taker.orderBook()
	if err != nil {
		return xdecimal.NaN(), err
	}

	// A maker bid is hedged by selling on the taker; a maker ask is hedged
	// by buying on the taker.
	hedgeIsBuy := !isBid
	vwap, err := b.VwapForVolume(hedgeIsBuy, size)
	if err != nil {
		return xdecimal.NaN(), err
	}

	if p.Taker.Pair.QuoteAsset != p.Maker.Pair.QuoteAsset {
		rate := s.marketConversionRate(p, now)
		if xdecimal.IsNaN(rate) {
			return xdecimal.NaN(), nil
		}
		vwap = xdecimal.Mul(vwap, rate)
	}
	return vwap, nil
}

// ceilToQuantum rounds x up to the next multiple of the pair's price
// quantum, the mirror of the quantizer's floor-toward-zero QuantizePrice
// (spec §4.7.2 "ask price... ceilinged to the maker price quantum").
func ceilToQuantum(floor xdecimal.Decimal, x, quantum xdecimal.Decimal) xdecimal.Decimal {
	if floor.Equal(x) || quantum.IsZero() {
		return floor
	}
	return xdecimal.Add(floor, quantum)
}

// portfolioValueInBase estimates the maker side's total holdings in base
// units using the current mid price, for the portfolio-ratio sizing branch.
func (p *StrategyPair) portfolioValueInBase() (xdecimal.Decimal, error) {
	mid, err := p.Maker.Mid()
	if err != nil {
		return xdecimal.Zero, err
	}
	base := p.Maker.Exchange.GetAvailableBalance(p.Maker.Pair.BaseAsset)
	quote := p.Maker.Exchange.GetAvailableBalance(p.Maker.Pair.QuoteAsset)
	if mid.IsZero() {
		return base, nil
	}
	return xdecimal.Add(base, xdecimal.Div(quote, mid)), nil
}

// orderSize implements spec §4.7.2 "Size": the smaller of the configured
// (or portfolio-derived) target, the maker-side balance that funds this
// side, the taker-side counter-balance scaled by the balance factor, and
// (when the taker book is available) the taker book depth scaled by the
// volume factor.
func (s *Strategy) orderSize(p *StrategyPair, isBid bool) (xdecimal.Decimal, error) {
	target := s.cfg.OrderAmount
	if target.IsZero() || target.IsNegative() {
		portfolio, err := p.portfolioValueInBase()
		if err != nil {
			return xdecimal.Zero, err
		}
		target = xdecimal.Mul(portfolio, s.cfg.OrderSizePortfolioRatioLimit)
	}

	makerAsset := p.Maker.Pair.QuoteAsset
	if !isBid {
		makerAsset = p.Maker.Pair.BaseAsset
	}
	makerBalance := p.Maker.Exchange.GetAvailableBalance(makerAsset)
	if isBid {
		// Quote-denominated balance must be converted to a base-unit cap
		// using the current maker ask so it is comparable to target/size.
		_, ask, err := p.Maker.TopOfBook()
		if err == nil && ask.IsPositive() {
			makerBalance = xdecimal.Div(makerBalance, ask)
		}
	}

	takerCap, err := s.takerCounterCapacity(p, isBid)
	if err != nil {
		return xdecimal.Zero, err
	}

	size := xdecimal.Min(target, xdecimal.Min(makerBalance, xdecimal.Mul(takerCap, s.cfg.OrderSizeTakerBalanceFactor)))

	depthVolume, err := s.takerHedgeableVolume(p, isBid)
	if err == nil {
		size = xdecimal.Min(size, xdecimal.Mul(depthVolume, s.cfg.OrderSizeTakerVolumeFactor))
	}

	return p.Maker.Exchange.QuantizeOrderAmount(p.Maker.Pair, size), nil
}

// takerHedgeableVolume returns, in base units, the full taker-book depth on
// the side a hedge for isBid would consume (spec §6
// "order_size_taker_volume_factor": cap on size as a fraction of this).
func (s *Strategy) takerHedgeableVolume(p *StrategyPair, isBid bool) (xdecimal.Decimal, error) {
	hedgeIsBuy := !isBid
	b, err := p.Taker.orderBook()
	if err != nil {
		return xdecimal.Zero, err
	}
	return b.TotalVolume(hedgeIsBuy), nil
}

// takerCounterCapacity returns, in base units, how much the taker side
// could absorb for a hedge in the direction opposite isBid.
func (s *Strategy) takerCounterCapacity(p *StrategyPair, isBid bool) (xdecimal.Decimal, error) {
	hedgeIsBuy := !isBid
	if !hedgeIsBuy {
		return p.Taker.Exchange.GetAvailableBalance(p.Taker.Pair.BaseAsset), nil
	}
	quoteBal := p.Taker.Exchange.GetAvailableBalance(p.Taker.Pair.QuoteAsset)
	_, ask, err := p.Taker.TopOfBook()
	if err != nil || ask.IsZero() {
		return xdecimal.Zero, err
	}
	return xdecimal.Div(quoteBal, ask), nil
}

// priceAndSize implements spec §4.7.2 in full: size first, then the
// profitability-derived price, clamped into the spread when
// AdjustOrdersEnabled allows it. Returns NaN price when the taker book is
// too thin to price a hedge (caller must skip placement).
func (s *Strategy) priceAndSize(p *StrategyPair, isBid bool, now time.Time) (price, size xdecimal.Decimal, err error) {
	size, err = s.orderSize(p, isBid)
	if err != nil || !size.IsPositive() {
		return xdecimal.NaN(), xdecimal.Zero, err
	}

	takerVwap, err := s.effectiveHedgingPrice(p, isBid, size, now)
	if err != nil || xdecimal.IsNaN(takerVwap) {
		return xdecimal.NaN(), size, err
	}

	onePlusProfit := xdecimal.Add(xdecimal.New(1, 0), s.cfg.MinProfitability)
	quantum := p.Maker.Exchange.GetOrderPriceQuantum(p.Maker.Pair, takerVwap)

	if isBid {
		price = xdecimal.Div(takerVwap, onePlusProfit)
		price = p.Maker.Exchange.QuantizeOrderPrice(p.Maker.Pair, price)
	} else {
		raw := xdecimal.Mul(takerVwap, onePlusProfit)
		floor := p.Maker.Exchange.QuantizeOrderPrice(p.Maker.Pair, raw)
		price = ceilToQuantum(floor, raw, quantum)
	}

	if s.cfg.AdjustOrdersEnabled {
		price = s.clampIntoSpread(p, isBid, price, quantum)
	}
	return price, size, nil
}

// clampIntoSpread steps a price inside the maker's own spread when the book
// is non-empty (spec §4.7.2 "clamp a bid to at most one quantum above the
// top bid, and an ask to at least one quantum below the top ask").
func (s *Strategy) clampIntoSpread(p *StrategyPair, isBid bool, price, quantum xdecimal.Decimal) xdecimal.Decimal {
	bid, ask, err := p.Maker.TopOfBook()
	if err != nil {
		return price
	}
	if isBid {
		ceiling := xdecimal.Add(bid, quantum)
		return xdecimal.Min(price, ceiling)
	}
	floorPrice := xdecimal.Sub(ask, quantum)
	return xdecimal.Max(price, floorPrice)
}
