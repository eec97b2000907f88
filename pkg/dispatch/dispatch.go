// Package dispatch implements the deadline dispatch engine of spec §4.3:
// management-gate-first ordering, priority aging, and the per-priority
// batching/direction-selection/zoned-write-admissibility algorithm,
// grounded directly on __dd_dispatch_request and dd_dispatch_request in
// original_source/zinc.c, expressed against pkg/bucket's sector-sorted
// indices and pkg/gate's management streams the way the teacher expresses
// its own admission control loop as a small state machine evaluated under
// a single lock (pkg/util/admission/granter.go).
package dispatch

import (
	"context"
	"time"

	"github.com/stonet-research/zinc-scheduler/pkg/accounting"
	"github.com/stonet-research/zinc-scheduler/pkg/bucket"
	"github.com/stonet-research/zinc-scheduler/pkg/config"
	"github.com/stonet-research/zinc-scheduler/pkg/gate"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
	"github.com/stonet-research/zinc-scheduler/pkg/zone"
)

// Engine holds the scheduler-wide dispatch state of spec §4.3: the last
// dispatched direction, the current batch size, and the read/write
// starvation counter. All of it is single-writer under the caller's
// scheduler lock (spec §5); Engine never locks internally.
type Engine struct {
	buckets [request.NumPriorities]*bucket.Bucket
	gate    *gate.Gate
	zone    zone.Manager
	cfg     *config.Config
	streams *accounting.Streams

	lastDir  request.Op
	batching int
	starved  int
}

// New constructs a dispatch Engine wired to the given per-priority
// buckets, management gate, zone manager, configuration, and
// write-accounting streams.
func New(cfg *config.Config, buckets [request.NumPriorities]*bucket.Bucket, g *gate.Gate, zoneMgr zone.Manager, streams *accounting.Streams) *Engine {
	return &Engine{
		buckets: buckets,
		gate:    g,
		zone:    zoneMgr,
		cfg:     cfg,
		streams: streams,
		lastDir: request.OpRead,
	}
}

// Batching returns the current sequential batch size, for the
// observability surface (spec §6: debugfs "batching" field).
func (e *Engine) Batching() int { return e.batching }

// Starved returns the current read/write starvation counter.
func (e *Engine) Starved() int { return e.starved }

// HasWork reports whether the gate or any priority bucket holds a
// request, for the scheduler-wide has_work query (spec §6).
func (e *Engine) HasWork() bool {
	if e.gate.HasWork() {
		return true
	}
	for _, b := range e.buckets {
		if b.HasWork() {
			return true
		}
	}
	return false
}

// Dispatch selects the next request to dispatch at time now: the
// management gate first, then priority-aged requests from non-real-time
// classes, then the strict priority-ordered per-bucket algorithm (spec
// §4.3 steps 1-3). It returns nil if nothing is eligible right now.
func (e *Engine) Dispatch(ctx context.Context, now time.Time) request.Request {
	if req, ok := e.gate.Admit(ctx); ok {
		return e.finalize(req)
	}

	if req := e.dispatchAgedPriorities(now); req != nil {
		return e.finalize(req)
	}

	for prio := request.RealTime; prio <= request.Idle; prio++ {
		b := e.buckets[prio]
		if req := e.dispatchFromBucket(b, now, nil); req != nil {
			return e.finalize(req)
		}
		if b.HasWork() {
			// A higher-priority bucket has queued work it could not
			// currently dispatch (e.g. all target zones locked); lower
			// priorities are not consulted this round (spec §4.3 step 3).
			break
		}
	}
	return nil
}

// finalize applies the write-accounting fan-out (spec §4.4 Write
// accounting) to any dispatched write, regardless of which path produced
// it, mirroring dd_dispatch_request's post-loop accounting update.
func (e *Engine) finalize(req request.Request) request.Request {
	if req == nil {
		return nil
	}
	if req.Op() == request.OpWrite {
		e.streams.OnWriteDispatch(request.UnitsFromBytes(req.ByteLen()))
	}
	return req
}

// dispatchAgedPriorities implements dd_dispatch_prio_aged_requests: if at
// least two priority classes currently hold work, BEST_EFFORT and IDLE
// are each offered a chance to dispatch a request whose start-time
// precedes now - prio_aging_expire, ahead of strict priority order (spec
// §4.3 step 2, "Priority aging").
func (e *Engine) dispatchAgedPriorities(now time.Time) request.Request {
	active := 0
	for _, b := range e.buckets {
		if b.HasWork() {
			active++
		}
	}
	if active < 2 {
		return nil
	}
	bound := now.Add(-e.cfg.PrioAgingExpire())
	for prio := request.BestEffort; prio <= request.Idle; prio++ {
		if req := e.dispatchFromBucket(e.buckets[prio], now, &bound); req != nil {
			return req
		}
	}
	return nil
}

// withinBound reports whether t does not exceed latestStart, where a nil
// latestStart means unbounded (spec §4.3 step 3's ordinary per-priority
// call never restricts start-time; only the aging call does).
func withinBound(t time.Time, latestStart *time.Time) bool {
	return latestStart == nil || !t.After(*latestStart)
}

// dispatchFromBucket runs the per-priority algorithm of
// __dd_dispatch_request against a single bucket: immediate list, batch
// continuation, direction selection, expiry override, zoned-write
// admissibility, and commit (spec §4.3 a-g).
func (e *Engine) dispatchFromBucket(b *bucket.Bucket, now time.Time, latestStart *time.Time) request.Request {
	// a. Immediate dispatch list: head-inserted requests bypass batching
	// and direction selection entirely (zinc.c: the dispatch-list check
	// "goto done"s before touching last_dir/batching).
	if !b.ImmediateEmpty() {
		head := b.ImmediateFront()
		if !withinBound(head.Deadline(), latestStart) {
			return nil
		}
		b.ImmediatePopFront()
		return e.finishDispatch(b, head)
	}

	// b. Batching: continue the last-dispatched direction's sector-sorted
	// cursor if we are still within this bucket's fifo_batch.
	if cur := b.Cursor(e.lastDir); cur != nil && e.batching < int(e.cfg.FifoBatch.Get()) {
		if req := e.nextRequest(b, e.lastDir, cur); req != nil {
			return e.commit(b, e.lastDir, req, latestStart)
		}
	}

	// c. Not running a batch: pick a direction under the read/write
	// starvation rule.
	dir, ok := e.chooseDirection(b)
	if !ok {
		return nil
	}

	// d. Expiry override: restart from the FIFO head if it has expired or
	// there is no sector-sorted continuation; otherwise continue from the
	// cursor.
	var req request.Request
	next := e.nextRequest(b, dir, b.Cursor(dir))
	if b.HeadExpired(dir, now) || next == nil {
		req = e.fifoRequest(b, dir)
	} else {
		req = next
	}
	if req == nil {
		// Only writes queued and none currently zone-dispatchable.
		return nil
	}

	e.lastDir = dir
	e.batching = 0
	return e.commit(b, dir, req, latestStart)
}

// commit applies the latest_start rejection (spec §4.3f) and, if it
// passes, removes req from its direction queue, advances the cursor, and
// increments the batch counter (spec §4.3g).
func (e *Engine) commit(b *bucket.Bucket, dir request.Op, req request.Request, latestStart *time.Time) request.Request {
	if !withinBound(b.StartTime(dir, req), latestStart) {
		return nil
	}
	e.batching++
	b.CommitDispatch(dir, req)
	return e.finishDispatch(b, req)
}

// finishDispatch marks the bucket's dispatched counter and, for writes,
// acquires the target zone's write lock (spec §4.3g, §4.7: the lock is
// released on completion).
func (e *Engine) finishDispatch(b *bucket.Bucket, req request.Request) request.Request {
	if req.Op() != request.OpWrite {
		b.MarkDispatched()
		return req
	}
	b.MarkDispatched()
	e.zone.TryLock(req.Zone())
	return req
}

// chooseDirection implements the read/write starvation rule (spec §4.3c):
// reads are preferred unless a dispatchable write has been starved
// writes_starved times in a row, in which case writes are chosen and the
// counter resets; choosing writes because no reads remain also resets it.
func (e *Engine) chooseDirection(b *bucket.Bucket) (request.Op, bool) {
	if !b.FIFOEmpty(request.OpRead) {
		if e.fifoWriteRequest(b) != nil {
			starved := e.starved
			e.starved++
			if starved >= int(e.cfg.WritesStarved.Get()) {
				e.starved = 0
				return request.OpWrite, true
			}
		}
		return request.OpRead, true
	}
	if !b.FIFOEmpty(request.OpWrite) {
		e.starved = 0
		return request.OpWrite, true
	}
	return 0, false
}

// nextRequest resolves the sector-sorted continuation for dir starting at
// start: reads return start unchanged; writes walk forward past any
// zone-locked (or, on a sequential-only device, sequentially-continuing)
// request the way deadline_next_request does (spec §4.3e).
func (e *Engine) nextRequest(b *bucket.Bucket, dir request.Op, start request.Request) request.Request {
	if start == nil {
		return nil
	}
	if dir == request.OpRead {
		return start
	}
	return e.nextWriteFrom(b, start)
}

// fifoRequest resolves the FIFO-order head for dir: reads return the
// plain FIFO head; writes scan FIFO order for the first request whose
// zone is unlocked and, on a sequential-only device, that does not
// continue a sequential run already headed by an earlier write (spec
// §4.3e, deadline_fifo_request).
func (e *Engine) fifoRequest(b *bucket.Bucket, dir request.Op) request.Request {
	if b.FIFOEmpty(dir) {
		return nil
	}
	if dir == request.OpRead {
		return b.FIFOFront(dir)
	}
	return e.fifoWriteRequest(b)
}

// nextWriteFrom walks the write sector index forward from start, skipping
// zone-locked requests. On a sequential-only device (spec §4.3e: "for
// some HDDs, breaking a sequential write stream can lead to lower
// throughput"), an entire contiguous sequential run is skipped at once
// rather than probing it request by request.
func (e *Engine) nextWriteFrom(b *bucket.Bucket, start request.Request) request.Request {
	req := start
	for req != nil {
		if e.writeAdmissible(req) {
			return req
		}
		if !e.zone.Sequential() {
			req = b.Successor(request.OpWrite, req)
		} else {
			req = e.skipSequentialRun(b, req)
		}
	}
	return nil
}

// skipSequentialRun returns the first write after req (inclusive search
// starting at req) that breaks the contiguous sector run req begins,
// walking the sector-sorted successor chain (deadline_skip_seq_writes).
func (e *Engine) skipSequentialRun(b *bucket.Bucket, req request.Request) request.Request {
	pos := req.StartSector()
	var skipped uint64
	cur := req
	for cur != nil {
		if cur.StartSector() != pos+skipped {
			break
		}
		skipped += uint64(cur.SectorCount())
		cur = b.Successor(request.OpWrite, cur)
	}
	return cur
}

// fifoWriteRequest scans the write FIFO in arrival order for the first
// request that is zone-admissible and, on a sequential-only device, is
// not itself a continuation of an earlier sequential write
// (deadline_fifo_request / deadline_is_seq_write).
func (e *Engine) fifoWriteRequest(b *bucket.Bucket) request.Request {
	if b.FIFOEmpty(request.OpWrite) {
		return nil
	}
	var result request.Request
	b.FIFOEach(request.OpWrite, func(r request.Request) {
		if result != nil || !e.writeAdmissible(r) {
			return
		}
		if e.zone.Sequential() && e.isSequentialContinuation(b, r) {
			return
		}
		result = r
	})
	return result
}

// isSequentialContinuation reports whether req's start sector immediately
// follows its sector-predecessor's end sector, i.e. whether it continues
// an existing sequential write stream (deadline_is_seq_write).
func (e *Engine) isSequentialContinuation(b *bucket.Bucket, req request.Request) bool {
	prev := b.Predecessor(request.OpWrite, req)
	if prev == nil {
		return false
	}
	return prev.StartSector()+uint64(prev.SectorCount()) == req.StartSector()
}

// writeAdmissible reports whether req's target zone is currently
// unlocked, i.e. dispatchable (blk_req_can_dispatch_to_zone).
func (e *Engine) writeAdmissible(req request.Request) bool {
	return !e.zone.Locked(req.Zone())
}
