package zmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorEmitsBucketAndGateMetrics(t *testing.T) {
	c := NewCollector(
		func() []BucketStat {
			return []BucketStat{
				{Priority: "best-effort", Queued: 3, Inserted: 10, Merged: 1, Dispatched: 6, Completed: 5},
			}
		},
		func() GateStat {
			return GateStat{ResetQueued: 2, FinishQueued: 0, ResetHoldMean: 1.5, FinishHoldMean: 0, ResetHoldP99: 3, FinishHoldP99: 0}
		},
	)

	require.Equal(t, 11, testutil.CollectAndCount(c))

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestCollectorWithNoBuckets(t *testing.T) {
	c := NewCollector(
		func() []BucketStat { return nil },
		func() GateStat { return GateStat{} },
	)
	require.Equal(t, 6, testutil.CollectAndCount(c))
}
