package merge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stonet-research/zinc-scheduler/pkg/bucket"
	"github.com/stonet-research/zinc-scheduler/pkg/config"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
)

func newTestBuckets() [request.NumPriorities]*bucket.Bucket {
	var buckets [request.NumPriorities]*bucket.Bucket
	for p := request.RealTime; p <= request.Idle; p++ {
		buckets[p] = bucket.New(p, 500*time.Millisecond, 5*time.Second)
	}
	return buckets
}

func TestProbeFindsFrontMergeCandidate(t *testing.T) {
	cfg := config.Default()
	a := New(cfg)
	buckets := newTestBuckets()
	r := request.NewReq(request.OpWrite, request.BestEffort, 100, 8)
	buckets[request.BestEffort].Insert(r, false, time.Now())

	got, verdict := a.Probe(buckets, request.BestEffort, request.OpWrite, 100, false)
	require.Equal(t, request.Request(r), got)
	require.Equal(t, VerdictFront, verdict)
}

func TestProbeReturnsDiscardVerdict(t *testing.T) {
	cfg := config.Default()
	a := New(cfg)
	buckets := newTestBuckets()
	r := request.NewReq(request.OpWrite, request.BestEffort, 100, 8)
	buckets[request.BestEffort].Insert(r, false, time.Now())

	_, verdict := a.Probe(buckets, request.BestEffort, request.OpWrite, 100, true)
	require.Equal(t, VerdictDiscard, verdict)
}

func TestProbeDisabledByFrontMergesKnob(t *testing.T) {
	cfg := config.Default()
	cfg.FrontMerges.Set(context.Background(), 0)
	a := New(cfg)
	buckets := newTestBuckets()
	r := request.NewReq(request.OpWrite, request.BestEffort, 100, 8)
	buckets[request.BestEffort].Insert(r, false, time.Now())

	got, verdict := a.Probe(buckets, request.BestEffort, request.OpWrite, 100, false)
	require.Nil(t, got)
	require.Equal(t, VerdictNone, verdict)
}

func TestProbeNoCandidateFound(t *testing.T) {
	cfg := config.Default()
	a := New(cfg)
	buckets := newTestBuckets()

	got, verdict := a.Probe(buckets, request.BestEffort, request.OpWrite, 999, false)
	require.Nil(t, got)
	require.Equal(t, VerdictNone, verdict)
}

func TestMergedRequestsInheritsDeadlineAndRemovesDonor(t *testing.T) {
	cfg := config.Default()
	a := New(cfg)
	buckets := newTestBuckets()
	now := time.Now()

	donor := request.NewReq(request.OpWrite, request.BestEffort, 90, 8)
	recipient := request.NewReq(request.OpWrite, request.BestEffort, 100, 8)
	buckets[request.BestEffort].Insert(donor, false, now)
	buckets[request.BestEffort].Insert(recipient, false, now.Add(time.Second))

	a.MergedRequests(buckets, recipient, donor)

	require.Equal(t, donor.Deadline(), recipient.Deadline())
	require.Equal(t, uint64(1), buckets[request.BestEffort].Merged)
	require.True(t, buckets[request.BestEffort].FIFOEmpty(request.OpWrite) == false)
}

func TestRequestMergedRepositionsInIndex(t *testing.T) {
	cfg := config.Default()
	a := New(cfg)
	buckets := newTestBuckets()
	now := time.Now()

	r := request.NewReq(request.OpWrite, request.BestEffort, 100, 8)
	other := request.NewReq(request.OpWrite, request.BestEffort, 300, 8)
	buckets[request.BestEffort].Insert(r, false, now)
	buckets[request.BestEffort].Insert(other, false, now)

	r.ExtendTo(90, 18)
	a.RequestMerged(buckets, r)

	require.Nil(t, buckets[request.BestEffort].Predecessor(request.OpWrite, r))
	require.Equal(t, request.Request(other), buckets[request.BestEffort].Successor(request.OpWrite, r))
}
