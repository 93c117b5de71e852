package xemm

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/logging"
	"github.com/fenrir-labs/xemm/internal/tracker"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// placeOrder implements spec §4.7.3: submit, track with C5, and when active
// cancellation is disabled, schedule an auto-expire via the clock rather
// than extending the exchange contract with an expiration parameter.
func (s *Strategy) placeOrder(p *StrategyPair, isBid bool, price, size xdecimal.Decimal, now time.Time) {
	var id string
	var err error
	side := types.SideSell
	if isBid {
		side = types.SideBuy
		id, err = p.Maker.Exchange.Buy(p.Maker.Pair, size, types.OrderTypeLimit, price)
	} else {
		id, err = p.Maker.Exchange.Sell(p.Maker.Pair, size, types.OrderTypeLimit, price)
	}
	if err != nil {
		logging.Warn().Str("pair", p.Key).Bool("is_bid", isBid).Err(err).Msg("xemm order placement failed")
		return
	}

	s.tracker.StartTracking(id, tracker.Ref{Exchange: makerRefName, PairKey: p.Key})
	p.makerOrders[id] = makerOrderInfo{Side: side, Price: price, Quantity: size}

	if !s.cfg.ActiveOrderCanceling && s.cfg.LimitOrderMinExpiration > 0 {
		expireAt := now.Add(s.cfg.LimitOrderMinExpiration)
		s.clk.ScheduleDelayed(expireAt, func() {
			if _, ok := p.makerOrders[id]; !ok {
				return
			}
			delete(p.makerOrders, id)
			s.tracker.StopTracking(id, expireAt)
			_ = p.Maker.Exchange.Cancel(p.Maker.Pair, id)
		})
	}
}

func (s *Strategy) handleOrderFilled(ev types.OrderFilled) {
	ref, ok := s.tracker.Lookup(ev.OrderID)
	if !ok || ref.Exchange != makerRefName {
		return
	}
	p, ok := s.byKey[ref.PairKey]
	if !ok {
		return
	}
	s.onMakerFilled(p, ev, ev.TS)
}

func (s *Strategy) handleBuyCompleted(ev types.BuyOrderCompleted) {
	s.clearTracking(ev.OrderID, ev.TS)
}

func (s *Strategy) handleSellCompleted(ev types.SellOrderCompleted) {
	s.clearTracking(ev.OrderID, ev.TS)
}

func (s *Strategy) handleCancelled(ev types.OrderCancelled) {
	s.clearTracking(ev.OrderID, ev.TS)
}

func (s *Strategy) handleFailure(ev types.OrderFailure) {
	s.clearTracking(ev.OrderID, ev.TS)
}

func (s *Strategy) clearTracking(orderID string, ts time.Time) {
	ref, ok := s.tracker.Lookup(orderID)
	if !ok {
		return
	}
	p, ok := s.byKey[ref.PairKey]
	if !ok {
		return
	}
	if ref.Exchange == makerRefName {
		delete(p.makerOrders, orderID)
	} else {
		delete(p.outstandingHedge, orderID)
	}
	s.tracker.StopTracking(orderID, ts)
}
