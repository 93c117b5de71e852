package xemm

import (
	"time"

	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// makerOrderInfo is what the strategy remembers about an order it placed,
// since the exchange contract (§6) exposes no "get order by id" accessor.
type makerOrderInfo struct {
	Side     types.Side
	Price    xdecimal.Decimal
	Quantity xdecimal.Decimal
}

// StrategyPair is the per-(maker,taker) state (spec §3 StrategyPair, §4.7
// "State: per-pair anti-hysteresis timer, sample deques, pending
// fill-to-hedge queues, last conversion log timestamp, maker-side order
// ids").
type StrategyPair struct {
	Key string

	Maker MarketRef
	Taker MarketRef

	antiHysteresisUntil time.Time

	bidSamples *sampleWindow
	askSamples *sampleWindow
	lastSampleAt time.Time

	pendingBuy  xdecimal.Decimal
	pendingSell xdecimal.Decimal

	makerOrders     map[string]makerOrderInfo
	outstandingHedge map[string]types.Side

	lastConversionLogAt time.Time

	wasReady           bool
	lastStatusReportAt time.Time
}

func newStrategyPair(maker, taker MarketRef, cfg Config) *StrategyPair {
	return &StrategyPair{
		Key:              maker.Pair.Key(),
		Maker:            maker,
		Taker:            taker,
		bidSamples:       newSampleWindow(cfg.SampleWindow),
		askSamples:       newSampleWindow(cfg.SampleWindow),
		pendingBuy:       xdecimal.Zero,
		pendingSell:      xdecimal.Zero,
		makerOrders:      make(map[string]makerOrderInfo),
		outstandingHedge: make(map[string]types.Side),
		wasReady:         true,
	}
}

func (p *StrategyPair) hasSide(side types.Side) bool {
	for _, info := range p.makerOrders {
		if info.Side == side {
			return true
		}
	}
	return false
}

// PairSnapshot is the read-only observability surface (SPEC_FULL.md §3
// supplement): active maker order ids per side, pending hedge amounts, the
// number of outstanding hedges, and the top-of-book samples.
type PairSnapshot struct {
	Key               string
	ActiveBidOrderIDs []string
	ActiveAskOrderIDs []string
	PendingBuy        xdecimal.Decimal
	PendingSell       xdecimal.Decimal
	OutstandingHedges int
	BidSamples        []xdecimal.Decimal
	AskSamples        []xdecimal.Decimal
}

func (p *StrategyPair) snapshot() PairSnapshot {
	snap := PairSnapshot{
		Key:               p.Key,
		PendingBuy:        p.pendingBuy,
		PendingSell:       p.pendingSell,
		OutstandingHedges: len(p.outstandingHedge),
		BidSamples:        p.bidSamples.values(),
		AskSamples:        p.askSamples.values(),
	}
	for id, info := range p.makerOrders {
		if info.Side.IsBuy() {
			snap.ActiveBidOrderIDs = append(snap.ActiveBidOrderIDs, id)
		} else {
			snap.ActiveAskOrderIDs = append(snap.ActiveAskOrderIDs, id)
		}
	}
	return snap
}
