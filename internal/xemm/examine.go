package xemm

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// examineActiveOrders runs spec §4.7 step 3 over every order this strategy
// currently has resting on the maker venue for this pair.
func (s *Strategy) examineActiveOrders(p *StrategyPair, now time.Time) {
	for id, info := range p.makerOrders {
		if s.isUnprofitable(p, info, now) {
			s.cancelMakerOrder(p, id, now)
			continue
		}
		if s.exceedsBalanceLimit(p, info) {
			s.cancelMakerOrder(p, id, now)
			continue
		}
		if s.hasDrifted(p, info, now) {
			s.cancelMakerOrder(p, id, now)
			p.antiHysteresisUntil = now.Add(s.cfg.AntiHysteresisDuration)
		}
	}
}

func (s *Strategy) isUnprofitable(p *StrategyPair, info makerOrderInfo, now time.Time) bool {
	hedgePrice, err := s.effectiveHedgingPrice(p, info.Side.IsBuy(), info.Quantity, now)
	if err != nil || xdecimal.IsNaN(hedgePrice) {
		return false
	}

	threshold := s.cfg.CancelOrderThreshold
	if s.cfg.ActiveOrderCanceling {
		threshold = s.cfg.MinProfitability
	}
	onePlusThreshold := xdecimal.Add(xdecimal.New(1, 0), threshold)

	if info.Side.IsBuy() {
		return hedgePrice.LessThan(xdecimal.Mul(info.Price, onePlusThreshold))
	}
	return info.Price.LessThan(xdecimal.Mul(hedgePrice, onePlusThreshold))
}

func (s *Strategy) exceedsBalanceLimit(p *StrategyPair, info makerOrderInfo) bool {
	isBid := info.Side.IsBuy()
	makerAsset := p.Maker.Pair.QuoteAsset
	if !isBid {
		makerAsset = p.Maker.Pair.BaseAsset
	}
	makerBalance := p.Maker.Exchange.GetAvailableBalance(makerAsset)
	if isBid {
		_, ask, err := p.Maker.TopOfBook()
		if err == nil && ask.IsPositive() {
			makerBalance = xdecimal.Div(makerBalance, ask)
		}
	}

	takerCap, err := s.takerCounterCapacity(p, isBid)
	if err != nil {
		return false
	}
	limit := xdecimal.Min(makerBalance, xdecimal.Mul(takerCap, s.cfg.OrderSizeTakerBalanceFactor))
	return info.Quantity.GreaterThan(limit)
}

func (s *Strategy) hasDrifted(p *StrategyPair, info makerOrderInfo, now time.Time) bool {
	if now.Before(p.antiHysteresisUntil) {
		return false
	}
	suggested, _, err := s.priceAndSize(p, info.Side.IsBuy(), now)
	if err != nil || xdecimal.IsNaN(suggested) {
		return false
	}
	quantum := p.Maker.Exchange.GetOrderPriceQuantum(p.Maker.Pair, info.Price)
	diff := xdecimal.Sub(suggested, info.Price)
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	return diff.GreaterThan(quantum)
}

func (s *Strategy) cancelMakerOrder(p *StrategyPair, id string, now time.Time) {
	if err := p.Maker.Exchange.Cancel(p.Maker.Pair, id); err != nil {
		return
	}
	delete(p.makerOrders, id)
	s.tracker.StopTracking(id, now)
}
