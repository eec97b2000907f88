package bucket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stonet-research/zinc-scheduler/pkg/request"
)

func newTestBucket() *Bucket {
	return New(request.BestEffort, 500*time.Millisecond, 5*time.Second)
}

func TestBucketInsertFIFOAndQueued(t *testing.T) {
	b := newTestBucket()
	now := time.Now()
	r1 := request.NewReq(request.OpRead, request.BestEffort, 100, 8)
	r2 := request.NewReq(request.OpRead, request.BestEffort, 50, 8)
	b.Insert(r1, false, now)
	b.Insert(r2, false, now)

	require.Equal(t, 2, b.Queued())
	require.True(t, b.HasWork())
	require.True(t, b.HasReads())
	require.False(t, b.HasWrites())

	require.Equal(t, request.Request(r1), b.FIFOFront(request.OpRead))
}

func TestBucketInsertSetsDeadline(t *testing.T) {
	b := newTestBucket()
	now := time.Now()
	r := request.NewReq(request.OpRead, request.BestEffort, 0, 8)
	b.Insert(r, false, now)
	require.Equal(t, now.Add(500*time.Millisecond), r.Deadline())
}

func TestBucketHeadInsertGoesToImmediateList(t *testing.T) {
	b := newTestBucket()
	now := time.Now()
	r := request.NewReq(request.OpWrite, request.BestEffort, 0, 8)
	b.Insert(r, true, now)

	require.False(t, b.ImmediateEmpty())
	require.Equal(t, request.Request(r), b.ImmediateFront())
	require.Equal(t, now, r.Deadline())
	require.Equal(t, 1, b.Queued())
}

func TestBucketHeadExpired(t *testing.T) {
	b := newTestBucket()
	base := time.Now()
	r := request.NewReq(request.OpRead, request.BestEffort, 0, 8)
	b.Insert(r, false, base)

	require.False(t, b.HeadExpired(request.OpRead, base))
	require.True(t, b.HeadExpired(request.OpRead, base.Add(time.Second)))
}

func TestBucketCommitDispatchAdvancesCursorAndCounts(t *testing.T) {
	b := newTestBucket()
	now := time.Now()
	r1 := request.NewReq(request.OpRead, request.BestEffort, 100, 8)
	r2 := request.NewReq(request.OpRead, request.BestEffort, 200, 8)
	b.Insert(r1, false, now)
	b.Insert(r2, false, now)

	b.CommitDispatch(request.OpRead, r1)
	b.MarkDispatched()
	require.Equal(t, uint64(1), b.Dispatched)
	require.Equal(t, request.Request(r2), b.Cursor(request.OpRead))
	require.Equal(t, 1, b.Queued())
}

func TestBucketRemoveFromImmediateOrDirection(t *testing.T) {
	b := newTestBucket()
	now := time.Now()
	head := request.NewReq(request.OpWrite, request.BestEffort, 0, 8)
	queued := request.NewReq(request.OpRead, request.BestEffort, 0, 8)
	b.Insert(head, true, now)
	b.Insert(queued, false, now)

	b.Remove(head)
	require.True(t, b.ImmediateEmpty())
	b.Remove(queued)
	require.True(t, b.FIFOEmpty(request.OpRead))
}

func TestBucketMarkMergedAndFrontMergeCandidate(t *testing.T) {
	b := newTestBucket()
	now := time.Now()
	r := request.NewReq(request.OpWrite, request.BestEffort, 100, 8)
	b.Insert(r, false, now)

	got, ok := b.FrontMergeCandidate(request.OpWrite, 100)
	require.True(t, ok)
	require.Equal(t, request.Request(r), got)

	b.MarkMerged()
	require.Equal(t, uint64(1), b.Merged)
}

func TestBucketInheritDeadlineMovesEarlierDeadlineIn(t *testing.T) {
	b := newTestBucket()
	now := time.Now()
	donor := request.NewReq(request.OpWrite, request.BestEffort, 90, 8)
	recipient := request.NewReq(request.OpWrite, request.BestEffort, 100, 8)
	b.Insert(donor, false, now)
	b.Insert(recipient, false, now.Add(time.Second))

	require.True(t, donor.Deadline().Before(recipient.Deadline()))
	b.InheritDeadline(request.OpWrite, donor, recipient)
	require.Equal(t, donor.Deadline(), recipient.Deadline())
}

func TestBucketStartTimeHeadInsertVsFIFO(t *testing.T) {
	b := newTestBucket()
	now := time.Now()
	fifoReq := request.NewReq(request.OpRead, request.BestEffort, 0, 8)
	b.Insert(fifoReq, false, now)
	require.WithinDuration(t, now, b.StartTime(request.OpRead, fifoReq), time.Millisecond)

	headReq := request.NewReq(request.OpRead, request.BestEffort, 0, 8)
	b.Insert(headReq, true, now)
	require.Equal(t, now, b.StartTime(request.OpRead, headReq))
}
