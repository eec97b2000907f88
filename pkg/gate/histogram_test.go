package gate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHoldLatencyRecorderSnapshot(t *testing.T) {
	r := newHoldLatencyRecorder()
	r.record(1)
	r.record(2)
	r.record(3)

	mean, p99 := r.Snapshot()
	require.InDelta(t, 2.0, mean, 0.5)
	require.GreaterOrEqual(t, p99, int64(3))
}

func TestHoldLatencyRecorderEmpty(t *testing.T) {
	r := newHoldLatencyRecorder()
	mean, _ := r.Snapshot()
	require.Equal(t, 0.0, mean)
}
