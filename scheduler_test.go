package zinc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stonet-research/zinc-scheduler/internal/ztime"
	"github.com/stonet-research/zinc-scheduler/pkg/config"
	"github.com/stonet-research/zinc-scheduler/pkg/merge"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
	"github.com/stonet-research/zinc-scheduler/pkg/zone"
)

func newTestScheduler(t *testing.T) (*Scheduler, *ztime.ManualClock) {
	clock := ztime.NewManualClock(time.Now())
	s := New(Options{
		Config:      config.Default(),
		ZoneManager: zone.NewMemory(1<<20, false),
		Clock:       clock,
	})
	require.NoError(t, s.Init(context.Background()))
	return s, clock
}

func TestSchedulerInsertAndDispatchRoundTrip(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	r := request.NewReq(request.OpRead, request.BestEffort, 0, 8)
	require.NoError(t, s.InsertRequests(ctx, []request.Request{r}, false))

	got := s.DispatchRequest(ctx)
	require.Equal(t, request.Request(r), got)
	require.Nil(t, s.DispatchRequest(ctx))
}

func TestSchedulerInsertRejectsOtherOp(t *testing.T) {
	s, _ := newTestScheduler(t)
	r := request.NewReq(request.OpOther, request.BestEffort, 0, 8)
	err := s.InsertRequests(context.Background(), []request.Request{r}, false)
	require.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestSchedulerManagementRequestsRouteToGate(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()
	r := request.NewReq(request.OpReset, request.BestEffort, 0, 0)
	require.NoError(t, s.InsertRequests(ctx, []request.Request{r}, false))

	got := s.DispatchRequest(ctx)
	require.Equal(t, request.Request(r), got)
}

func TestSchedulerFinishRequestUnlocksZoneAndSignalsRestart(t *testing.T) {
	var restarted bool
	clock := ztime.NewManualClock(time.Now())
	zoneMgr := zone.NewMemory(1<<20, false)
	s := New(Options{
		Config:      config.Default(),
		ZoneManager: zoneMgr,
		Clock:       clock,
		Restart:     func(ctx context.Context) { restarted = true },
	})
	require.NoError(t, s.Init(context.Background()))
	ctx := context.Background()

	w1 := request.NewReq(request.OpWrite, request.BestEffort, 0, 8).WithZone(0)
	w2 := request.NewReq(request.OpWrite, request.BestEffort, 100, 8).WithZone(0)
	require.NoError(t, s.InsertRequests(ctx, []request.Request{w1, w2}, false))

	got := s.DispatchRequest(ctx)
	require.Equal(t, request.Request(w1), got)
	require.True(t, zoneMgr.Locked(0))

	// w2 targets the same zone, still locked by w1: nothing dispatchable.
	require.Nil(t, s.DispatchRequest(ctx))

	s.FinishRequest(ctx, w1)
	require.False(t, zoneMgr.Locked(0))
	require.True(t, restarted, "completing w1 should signal a restart since w2 remains queued")

	got = s.DispatchRequest(ctx)
	require.Equal(t, request.Request(w2), got)
}

func TestSchedulerBucketSnapshotTracksCounters(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()
	r := request.NewReq(request.OpRead, request.BestEffort, 0, 8)
	require.NoError(t, s.InsertRequests(ctx, []request.Request{r}, false))
	s.DispatchRequest(ctx)
	s.FinishRequest(ctx, r)

	snap := s.Snapshot()
	var be BucketSnapshot
	for _, b := range snap {
		if b.Priority == request.BestEffort {
			be = b
		}
	}
	require.Equal(t, uint64(1), be.Inserted)
	require.Equal(t, uint64(1), be.Dispatched)
	require.Equal(t, uint64(1), be.Completed)
}

func TestSchedulerMergeWorkflow(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()
	r := request.NewReq(request.OpWrite, request.BestEffort, 100, 8)
	require.NoError(t, s.InsertRequests(ctx, []request.Request{r}, false))

	got, verdict := s.BioMerge(ctx, request.BestEffort, request.OpWrite, 100)
	require.Equal(t, request.Request(r), got)
	require.Equal(t, merge.VerdictFront, verdict)

	r.ExtendTo(92, 8)
	s.RequestMerged(ctx, r)

	got2, verdict2 := s.BioMerge(ctx, request.BestEffort, request.OpWrite, 92)
	require.Equal(t, request.Request(r), got2)
	require.Equal(t, merge.VerdictFront, verdict2)
}

func TestSchedulerHasWorkAndExitWarnsButDoesNotError(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()
	require.False(t, s.HasWork())

	r := request.NewReq(request.OpRead, request.BestEffort, 0, 8)
	require.NoError(t, s.InsertRequests(ctx, []request.Request{r}, false))
	require.True(t, s.HasWork())

	require.NoError(t, s.Exit(ctx))
}

func TestSchedulerDepthLimiting(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()
	s.InitHWContext(ctx, 100)

	depth, limited := s.LimitDepth(request.OpRead, true)
	require.False(t, limited)
	require.Equal(t, 0, depth)

	depth, limited = s.LimitDepth(request.OpWrite, false)
	require.True(t, limited)
	require.Equal(t, 75, depth)
}
