package xemm

import "github.com/fenrir-labs/xemm/internal/xdecimal"

// sampleWindow is a fixed-capacity ring of recently observed prices (spec
// §4.7 step 2: "push top bid/ask into deques... drop the oldest on
// overflow"). Used for the Snapshot() observability surface.
type sampleWindow struct {
	cap     int
	samples []xdecimal.Decimal
}

func newSampleWindow(capacity int) *sampleWindow {
	if capacity <= 0 {
		capacity = 12
	}
	return &sampleWindow{cap: capacity}
}

func (w *sampleWindow) push(x xdecimal.Decimal) {
	w.samples = append(w.samples, x)
	if len(w.samples) > w.cap {
		w.samples = w.samples[len(w.samples)-w.cap:]
	}
}

func (w *sampleWindow) values() []xdecimal.Decimal {
	out := make([]xdecimal.Decimal, len(w.samples))
	copy(out, w.samples)
	return out
}
