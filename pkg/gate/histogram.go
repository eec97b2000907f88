package gate

import (
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// holdLatencyRecorder tracks the distribution of hold-counts a stream's
// admitted requests experienced before admission, for the observability
// surface of spec §6. Modeled on the teacher's use of hdrhistogram for
// bounding the tail of a gated resource's wait time
// (pkg/util/admission/disk_bandwidth.go's sync-latency histogram).
type holdLatencyRecorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func newHoldLatencyRecorder() *holdLatencyRecorder {
	return &holdLatencyRecorder{
		// Hold counts are small (bounded by maximum_epoch_holds, a
		// scheduler tuning knob never expected to exceed a few hundred),
		// so a modest value range with generous precision suffices.
		hist: hdrhistogram.New(0, 1<<20, 3),
	}
}

func (r *holdLatencyRecorder) record(holdCount uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.hist.RecordValue(int64(holdCount))
}

// Snapshot returns the mean and p99 of recorded hold counts.
func (r *holdLatencyRecorder) Snapshot() (mean float64, p99 int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hist.Mean(), r.hist.ValueAtQuantile(99)
}
