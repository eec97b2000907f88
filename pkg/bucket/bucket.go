package bucket

import (
	"time"

	"go.uber.org/atomic"

	"github.com/stonet-research/zinc-scheduler/internal/ring"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
)

// Bucket is the per-priority-class container described by spec §3: an
// immediate-dispatch list, two sector-sorted/FIFO direction queues, and
// the counters that support the conservation invariant of spec §8
// ("inserted(p) = dispatched(p) + merged(p) + queued(p)").
type Bucket struct {
	Priority request.Priority

	immediate ring.Deque[request.Request]
	Reads     *directionQueue
	Writes    *directionQueue

	// Single-writer counters, mutated only under the caller's scheduler
	// lock (spec §3, §5).
	Inserted   uint64
	Merged     uint64
	Dispatched uint64
	// Completed is touched from completion context outside the scheduler
	// lock (spec §5), hence atomic.
	Completed atomic.Uint64
}

// New constructs a Bucket for the given priority with the given
// read/write expiry intervals.
func New(p request.Priority, readExpire, writeExpire time.Duration) *Bucket {
	return &Bucket{
		Priority: p,
		Reads:    newDirectionQueue(readExpire),
		Writes:   newDirectionQueue(writeExpire),
	}
}

func (b *Bucket) direction(op request.Op) *directionQueue {
	if op == request.OpRead {
		return b.Reads
	}
	return b.Writes
}

// Insert adds req to the bucket: to the immediate list if headInsert is
// set, otherwise to the FIFO tail and sector index of its direction (spec
// §4.2 insert, §3 immediate dispatch list).
func (b *Bucket) Insert(req request.Request, headInsert bool, now time.Time) {
	b.Inserted++
	if headInsert {
		req.SetDeadline(now)
		b.immediate.PushFront(req)
		return
	}
	b.direction(req.Op()).insert(req, now)
}

// Remove deletes req from whichever of the immediate list or direction
// queue currently holds it.
func (b *Bucket) Remove(req request.Request) {
	if b.immediate.Remove(func(r request.Request) bool { return r == req }) {
		return
	}
	b.direction(req.Op()).remove(req)
}

// Queued returns the number of requests the bucket currently holds
// across the immediate list and both direction FIFOs — the "queued(p)"
// term of the conservation invariant (spec §8).
func (b *Bucket) Queued() int {
	return b.immediate.Len() + b.Reads.fifo.Len() + b.Writes.fifo.Len()
}

// HasWork reports whether the bucket holds any request at all (spec §6
// has_work contract).
func (b *Bucket) HasWork() bool { return b.Queued() > 0 }

// HasReads / HasWrites report whether the bucket has any queued request
// of that direction, across the immediate list and the direction FIFO.
func (b *Bucket) HasReads() bool { return !b.Reads.empty() || b.hasImmediate(request.OpRead) }
func (b *Bucket) HasWrites() bool {
	return !b.Writes.empty() || b.hasImmediate(request.OpWrite)
}

func (b *Bucket) hasImmediate(op request.Op) bool {
	found := false
	b.immediate.Each(func(r request.Request) {
		if r.Op() == op {
			found = true
		}
	})
	return found
}

// MarkMerged increments the merged counter, used by the merge adapter
// when a request is absorbed into another rather than dispatched.
func (b *Bucket) MarkMerged() { b.Merged++ }

// MarkDispatched increments the dispatched counter.
func (b *Bucket) MarkDispatched() { b.Dispatched++ }

// ImmediateEmpty reports whether the immediate dispatch list is empty.
func (b *Bucket) ImmediateEmpty() bool { return b.immediate.Empty() }

// ImmediateFront peeks the immediate dispatch list's head.
func (b *Bucket) ImmediateFront() request.Request { return b.immediate.Front() }

// ImmediatePopFront removes and returns the immediate dispatch list's
// head.
func (b *Bucket) ImmediatePopFront() request.Request { return b.immediate.PopFront() }

// Cursor returns the given direction's next-dispatch cursor (spec §3:
// "the request most recently advanced past by the sector-ordered
// iterator"), or nil if unset.
func (b *Bucket) Cursor(op request.Op) request.Request { return b.direction(op).cursor }

// FIFOEmpty reports whether the given direction's expiry FIFO is empty.
func (b *Bucket) FIFOEmpty(op request.Op) bool { return b.direction(op).empty() }

// FIFOFront peeks the given direction's expiry FIFO head.
func (b *Bucket) FIFOFront(op request.Op) request.Request { return b.direction(op).fifo.Front() }

// FIFOEach iterates the given direction's expiry FIFO in arrival order.
func (b *Bucket) FIFOEach(op request.Op, f func(request.Request)) { b.direction(op).fifo.Each(f) }

// HeadExpired reports whether the given direction's FIFO head has
// exceeded its expiry-deadline (spec §4.2, §4.3d).
func (b *Bucket) HeadExpired(op request.Op, now time.Time) bool {
	return b.direction(op).headExpired(now)
}

// StartTime returns req's start-time within the given direction, used by
// priority aging and the latest_start bound (spec §4.3). A request held in
// the immediate list carries its insertion time as its deadline, so that
// deadline is its start-time.
func (b *Bucket) StartTime(op request.Op, req request.Request) time.Time {
	inImmediate := false
	b.immediate.Each(func(r request.Request) {
		if r == req {
			inImmediate = true
		}
	})
	if inImmediate {
		return req.Deadline()
	}
	return b.direction(op).startTime(req)
}

// Successor returns the sector-successor of req within the given
// direction's index.
func (b *Bucket) Successor(op request.Op, req request.Request) request.Request {
	return b.direction(op).index.Successor(req)
}

// Predecessor returns the sector-predecessor of req within the given
// direction's index, used by the sequential-write-run detection of the
// zoned-write admissibility walk (spec §4.3e).
func (b *Bucket) Predecessor(op request.Op, req request.Request) request.Request {
	return b.direction(op).index.Predecessor(req)
}

// CommitDispatch removes req from the given direction's FIFO and sector
// index and advances its next-dispatch cursor (spec §4.3 Commit). The
// caller is responsible for marking the bucket's dispatched counter via
// MarkDispatched exactly once per dispatch.
func (b *Bucket) CommitDispatch(op request.Op, req request.Request) {
	b.direction(op).commitDispatch(req)
}

// FrontMergeCandidate returns the indexed request in the given direction
// whose start sector equals endSector, for the merge adapter's
// bio-into-request front-merge probe (spec §4.2, §4.5).
func (b *Bucket) FrontMergeCandidate(op request.Op, endSector uint64) (request.Request, bool) {
	return b.direction(op).index.ByEndSector(endSector)
}

// Reposition re-indexes req in the given direction's sector index after
// its start sector has changed due to a successful front-merge (spec
// §4.2, §4.5).
func (b *Bucket) Reposition(op request.Op, req request.Request) {
	b.direction(op).index.Reposition(req)
}

// InheritDeadline applies the requests-merged deadline-inheritance rule
// (spec §4.2, §4.5) within the given direction: if donor's deadline
// precedes recipient's, recipient inherits it and moves to donor's FIFO
// position.
func (b *Bucket) InheritDeadline(op request.Op, donor, recipient request.Request) {
	b.direction(op).inheritDeadline(donor, recipient)
}
