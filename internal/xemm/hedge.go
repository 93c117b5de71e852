package xemm

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/logging"
	"github.com/fenrir-labs/xemm/internal/tracker"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// onMakerFilled records a maker fill into the pending-hedge bucket and
// immediately attempts to hedge it (spec §4.7.4).
func (s *Strategy) onMakerFilled(p *StrategyPair, ev types.OrderFilled, now time.Time) {
	if ev.TradeType.IsBuy() {
		p.pendingBuy = xdecimal.Add(p.pendingBuy, ev.Amount)
		s.hedge(p, types.SideBuy, now)
	} else {
		p.pendingSell = xdecimal.Add(p.pendingSell, ev.Amount)
		s.hedge(p, types.SideSell, now)
	}
}

// hedge attempts to place a taker-side hedge for whichever pending bucket
// corresponds to makerSide (the side that just filled on the maker).
func (s *Strategy) hedge(p *StrategyPair, makerSide types.Side, now time.Time) {
	pending := p.pendingBuy
	if makerSide == types.SideSell {
		pending = p.pendingSell
	}
	if !pending.IsPositive() {
		return
	}

	hedgeIsBuy := !makerSide.IsBuy()

	capacity, err := s.takerCounterCapacityForHedge(p, hedgeIsBuy)
	if err != nil {
		return
	}

	hedgeSize := xdecimal.Min(pending, xdecimal.Mul(capacity, s.cfg.OrderSizeTakerBalanceFactor))
	hedgeSize = p.Taker.Exchange.QuantizeOrderAmount(p.Taker.Pair, hedgeSize)
	if !hedgeSize.IsPositive() {
		return
	}

	b, err := p.Taker.orderBook()
	if err != nil {
		return
	}
	hedgePrice, err := b.VwapForVolume(hedgeIsBuy, hedgeSize)
	if err != nil {
		return
	}

	onePlusBuffer := xdecimal.Add(xdecimal.New(1, 0), s.cfg.SlippageBuffer)
	oneMinusBuffer := xdecimal.Sub(xdecimal.New(1, 0), s.cfg.SlippageBuffer)
	if hedgeIsBuy {
		hedgePrice = xdecimal.Mul(hedgePrice, onePlusBuffer)
	} else {
		hedgePrice = xdecimal.Mul(hedgePrice, oneMinusBuffer)
	}
	hedgePrice = p.Taker.Exchange.QuantizeOrderPrice(p.Taker.Pair, hedgePrice)

	var id string
	if hedgeIsBuy {
		id, err = p.Taker.Exchange.Buy(p.Taker.Pair, hedgeSize, types.OrderTypeLimit, hedgePrice)
	} else {
		id, err = p.Taker.Exchange.Sell(p.Taker.Pair, hedgeSize, types.OrderTypeLimit, hedgePrice)
	}
	if err != nil {
		logging.Warn().Str("pair", p.Key).Err(err).Msg("xemm hedge placement failed")
		return
	}

	s.tracker.StartTracking(id, tracker.Ref{Exchange: takerRefName, PairKey: p.Key})
	p.outstandingHedge[id] = types.SideFromIsBuy(hedgeIsBuy)

	if makerSide == types.SideBuy {
		p.pendingBuy = xdecimal.Sub(p.pendingBuy, hedgeSize)
	} else {
		p.pendingSell = xdecimal.Sub(p.pendingSell, hedgeSize)
	}
}

// takerCounterCapacityForHedge mirrors takerCounterCapacity but keyed on the
// hedge's own direction rather than the maker side being quoted.
func (s *Strategy) takerCounterCapacityForHedge(p *StrategyPair, hedgeIsBuy bool) (xdecimal.Decimal, error) {
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
