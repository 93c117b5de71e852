package main

import (
	"math/rand"

	"github.com/fenrir-labs/xemm/internal/xdecimal"
)

// randomWalk produces a synthetic, ever-drifting mid price and derives a
// maker/taker top-of-book pair from it each tick. The two venues are
// perturbed independently so that maker and taker occasionally diverge
// enough to clear the strategy's minimum profitability.
type randomWalk struct {
	mid        float64
	spreadFrac float64
	driftFrac  float64
	rng        *rand.Rand
}

func newRandomWalk(startPrice, spreadBps, driftBps float64, rng *rand.Rand) *randomWalk {
	return &randomWalk{
		mid:        startPrice,
		spreadFrac: spreadBps / 10000,
		driftFrac:  driftBps / 10000,
		rng:        rng,
	}
}

func (w *randomWalk) next() (makerBid, makerAsk, takerBid, takerAsk xdecimal.Decimal) {
	step := (w.rng.Float64()*2 - 1) * w.driftFrac
	w.mid *= 1 + step
	if w.mid <= 0 {
		w.mid = 1
	}

	makerOffset := (w.rng.Float64()*2 - 1) * w.spreadFrac
	takerOffset := (w.rng.Float64()*2 - 1) * w.spreadFrac
	makerMid := w.mid * (1 + makerOffset)
	takerMid := w.mid * (1 + takerOffset)

	makerBid = xdecimal.NewFromFloat(makerMid * (1 - w.spreadFrac))
	makerAsk = xdecimal.NewFromFloat(makerMid * (1 + w.spreadFrac))
	takerBid = xdecimal.NewFromFloat(takerMid * (1 - w.spreadFrac))
	takerAsk = xdecimal.NewFromFloat(takerMid * (1 + w.spreadFrac))
	return
}
