// Package xemm implements the cross-exchange market-making control loop: it
// quotes limit orders on a maker venue, re-evaluates them every tick for
// profitability, balance, and price drift, and hedges fills on a taker
// venue (spec §4.7).
package xemm

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/clock"
	"github.com/fenrir-labs/xemm/internal/logging"
	"github.com/fenrir-labs/xemm/internal/tracker"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

const (
	makerRefName = "maker"
	takerRefName = "taker"
)

// Strategy drives every registered StrategyPair once per Tick. It implements
// clock.Tickable so a single Clock can advance the exchanges and the
// strategy together in one deterministic order.
type Strategy struct {
	cfg    Config
	oracle ConversionOracle

	bus     *clock.EventBus
	clk     *clock.Clock
	tracker *tracker.Tracker

	pairs []*StrategyPair
	byKey map[string]*StrategyPair

	unsubscribe []func()
}

var _ clock.Tickable = (*Strategy)(nil)

// New constructs a Strategy subscribed to bus for fill/completion/cancel
// events and registered with clk for ticking. oracle may be nil when
// cfg.UseOracleConversionRate is false.
func New(clk *clock.Clock, bus *clock.EventBus, cfg Config, oracle ConversionOracle) *Strategy {
	s := &Strategy{
		cfg:     cfg,
		oracle:  oracle,
		bus:     bus,
		clk:     clk,
		tracker: tracker.New(),
		byKey:   make(map[string]*StrategyPair),
	}
	s.unsubscribe = append(s.unsubscribe,
		clock.Subscribe(bus, s.handleOrderFilled),
		clock.Subscribe(bus, s.handleBuyCompleted),
		clock.Subscribe(bus, s.handleSellCompleted),
		clock.Subscribe(bus, s.handleCancelled),
		clock.Subscribe(bus, s.handleFailure),
	)
	clk.Register(s)
	return s
}

// Stop removes this strategy's event subscriptions (spec §9: "on strategy
// stop, listeners are explicitly removed").
func (s *Strategy) Stop() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil
}

// AddPair registers a new (maker, taker) strategy pair, created at start per
// spec §3's StrategyPair lifetime.
func (s *Strategy) AddPair(maker, taker MarketRef) *StrategyPair {
	maker.DepthTolerance = s.cfg.TopDepthTolerance
	taker.DepthTolerance = s.cfg.TopDepthTolerance
	p := newStrategyPair(maker, taker, s.cfg)
	s.pairs = append(s.pairs, p)
	s.byKey[p.Key] = p
	return p
}

// Snapshot returns the read-only observability view over every pair
// (SPEC_FULL.md §3 supplement; never consulted by pricing/sizing/cancel
// decisions).
func (s *Strategy) Snapshot() []PairSnapshot {
	out := make([]PairSnapshot, 0, len(s.pairs))
	for _, p := range s.pairs {
		out = append(out, p.snapshot())
	}
	return out
}

// Tick drives every pair's control flow in registration order, then GCs
// expired tracking entries.
func (s *Strategy) Tick(now time.Time) {
	for _, p := range s.pairs {
		s.processPairSafely(p, now)
	}
	s.tracker.GC(now)
}

// processPairSafely isolates one pair's panics from the rest (spec §4.7.6:
// "exceptions within process_pair are caught, logged, and do not abort the
// tick").
func (s *Strategy) processPairSafely(p *StrategyPair, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Str("pair", p.Key).Interface("panic", r).Msg("xemm pair processing panicked")
		}
	}()
	s.processPair(p, now)
}

func (s *Strategy) processPair(p *StrategyPair, now time.Time) {
	if !s.checkReadiness(p, now) {
		return
	}

	s.sampleTopOfBook(p, now)
	s.examineActiveOrders(p, now)

	hasBid := p.hasSide(types.SideBuy)
	hasAsk := p.hasSide(types.SideSell)
	if (hasBid && hasAsk) || len(p.outstandingHedge) > 0 {
		return
	}

	if !hasBid {
		s.tryPlace(p, true, now)
	}
	if !hasAsk {
		s.tryPlace(p, false, now)
	}
}

func (s *Strategy) checkReadiness(p *StrategyPair, now time.Time) bool {
	ready := p.Maker.isReady() && p.Taker.isReady()
	if !ready {
		if p.wasReady || now.Sub(p.lastStatusReportAt) >= s.cfg.StatusReportInterval {
			logging.Warn().Str("pair", p.Key).Msg("xemm venue not ready")
			p.lastStatusReportAt = now
		}
	}
	p.wasReady = ready
	return ready
}

func (s *Strategy) sampleTopOfBook(p *StrategyPair, now time.Time) {
	if !p.lastSampleAt.IsZero() && now.Sub(p.lastSampleAt) < s.cfg.OrderAdjustSampleInterval {
		return
	}
	bid, ask, err := p.Maker.TopOfBook()
	if err != nil {
		return
	}
	p.bidSamples.push(bid)
	p.askSamples.push(ask)
	p.lastSampleAt = now
}

func (s *Strategy) tryPlace(p *StrategyPair, isBid bool, now time.Time) {
	price, size, err := s.priceAndSize(p, isBid, now)
	if err != nil || xdecimal.IsNaN(price) || !size.IsPositive() {
		return
	}
	s.placeOrder(p, isBid, price, size, now)
}
