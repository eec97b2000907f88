// Package zinc implements the ZINC I/O scheduler: a classical multi-queue
// deadline dispatch path (pkg/bucket, pkg/dispatch) coexisting with a
// management-operation gate (pkg/gate) that admits zone-reset and
// zone-finish commands only at moments their interference cost is
// bounded. Scheduler is the elevator-style vtable the host block layer
// drives (spec §6): init/exit, depth limiting, insert, dispatch, merge,
// and completion. It is grounded on dd_init_sched/dd_exit_sched and the
// elevator_type method table in original_source/zinc.c, expressed the
// way the teacher exposes a single coordinating type over several
// cooperating subsystems (pkg/util/admission's GrantCoordinator).
package zinc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stonet-research/zinc-scheduler/internal/zlog"
	"github.com/stonet-research/zinc-scheduler/internal/ztime"
	"github.com/stonet-research/zinc-scheduler/pkg/accounting"
	"github.com/stonet-research/zinc-scheduler/pkg/bucket"
	"github.com/stonet-research/zinc-scheduler/pkg/config"
	"github.com/stonet-research/zinc-scheduler/pkg/depth"
	"github.com/stonet-research/zinc-scheduler/pkg/dispatch"
	"github.com/stonet-research/zinc-scheduler/pkg/gate"
	"github.com/stonet-research/zinc-scheduler/pkg/merge"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
	"github.com/stonet-research/zinc-scheduler/pkg/zone"
)

// RestartSignal is invoked when a write completion drains a zone lock
// while writes remain queued somewhere in the scheduler, the Go analogue
// of blk_mq_sched_mark_restart_hctx (spec §4.7, SPEC_FULL.md §12.6): it
// tells the host block layer to re-run dispatch, since the scheduler
// itself cannot push a dispatched request back out on its own.
type RestartSignal func(ctx context.Context)

// Options configures a Scheduler at construction. Every field is
// optional; zero values fall back to sensible defaults.
type Options struct {
	Config      *config.Config
	ZoneManager zone.Manager
	Clock       ztime.Clock
	Restart     RestartSignal
	// DeviceID identifies the attached device for logging tags and the
	// admin HTTP surface's /devices/{id}/... path segment (spec §6; a
	// fresh uuid.New() is generated if left zero, mirroring how the
	// teacher's servers stamp a generated identity onto a newly attached
	// resource rather than requiring the caller to supply one).
	DeviceID uuid.UUID
}

// Scheduler is a single attached instance of the ZINC elevator (spec §3
// Lifecycle: "one instance per device"). All hot-path state transitions
// (insert, dispatch, merge) execute under mu, held for their full
// duration (spec §5); completion handling deliberately does not take mu,
// touching only the lock-free counters and the zone manager's own lock.
type Scheduler struct {
	mu sync.Mutex

	id      uuid.UUID
	cfg     *config.Config
	buckets [request.NumPriorities]*bucket.Bucket
	streams accounting.Streams
	gate    *gate.Gate
	engine  *dispatch.Engine
	depth   *depth.Limiter
	merge   *merge.Adapter
	zone    zone.Manager
	clock   ztime.Clock
	restart RestartSignal
}

// New constructs an attached-but-not-started Scheduler. Call Init before
// driving it.
func New(opts Options) *Scheduler {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	zoneMgr := opts.ZoneManager
	if zoneMgr == nil {
		zoneMgr = zone.NewMemory(1<<18, false)
	}
	clock := opts.Clock
	if clock == nil {
		clock = ztime.RealClock{}
	}
	id := opts.DeviceID
	if id == uuid.Nil {
		id = uuid.New()
	}

	s := &Scheduler{
		id:      id,
		cfg:     cfg,
		zone:    zoneMgr,
		clock:   clock,
		restart: opts.Restart,
		depth:   depth.New(cfg),
		merge:   merge.New(cfg),
	}
	for p := request.RealTime; p <= request.Idle; p++ {
		s.buckets[p] = bucket.New(p, cfg.ReadExpire(), cfg.WriteExpire())
	}
	s.gate = gate.New(cfg, &s.streams, clock)
	s.engine = dispatch.New(cfg, s.buckets, s.gate, zoneMgr, &s.streams)
	return s
}

// DeviceID returns the scheduler's attachment identifier, used to tag its
// log lines and to scope the admin HTTP surface's /devices/{id}/... routes
// (spec §6).
func (s *Scheduler) DeviceID() uuid.UUID { return s.id }

// taggedContext returns ctx annotated with this scheduler's device id, so
// every diagnostic emitted on the hot path (including the management
// gate's admission logging, reached transitively from DispatchRequest)
// carries the attachment identity (internal/zlog.WithTags).
func (s *Scheduler) taggedContext(ctx context.Context) context.Context {
	return zlog.WithTags(ctx, "device", s.id.String())
}

// Init arms the management gate's epoch timers (dd_init_sched's timer
// setup).
func (s *Scheduler) Init(ctx context.Context) error {
	zlog.Infof(s.taggedContext(ctx), "zinc: attached")
	s.gate.Start()
	return nil
}

// Exit synchronously disarms the epoch timers and warns, rather than
// fails, if any bucket or management queue is non-empty at teardown
// (spec §3 Lifecycle, dd_exit_sched's WARN_ONCE checks).
func (s *Scheduler) Exit(ctx context.Context) error {
	ctx = s.taggedContext(ctx)
	s.gate.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buckets {
		if b.HasWork() {
			zlog.Warningf(ctx, "zinc: exit with non-empty %s bucket (queued=%d)", b.Priority, b.Queued())
		}
	}
	if s.gate.HasWork() {
		zlog.Warningf(ctx, "zinc: exit with non-empty management gate")
	}
	return nil
}

// InitHWContext recomputes async_depth from the device's current
// request-tag pool size (dd_init_hctx).
func (s *Scheduler) InitHWContext(ctx context.Context, nrRequests int) {
	s.depth.Updated(ctx, nrRequests)
}

// DepthUpdated recomputes async_depth when the host resizes its
// request-tag pool (dd_depth_updated).
func (s *Scheduler) DepthUpdated(ctx context.Context, nrRequests int) {
	s.depth.Updated(ctx, nrRequests)
}

// LimitDepth returns the allocation depth the host should apply for a
// request of the given direction and sync/async flag (spec §4.6,
// dd_limit_depth).
func (s *Scheduler) LimitDepth(op request.Op, sync bool) (shallowDepth int, limited bool) {
	return s.depth.ShallowDepth(op, sync)
}

// InsertRequests inserts a batch of already-classified requests (spec
// §4.1 classification happens before this call; a host routes OTHER
// itself or relies on the ErrUnsupportedOperation rejection below).
// headInsert routes every request in the batch to its bucket's immediate
// dispatch list instead of the normal FIFO/index, mirroring
// BLK_MQ_INSERT_AT_HEAD (dd_insert_requests/dd_insert_request).
func (s *Scheduler) InsertRequests(ctx context.Context, reqs []request.Request, headInsert bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for _, req := range reqs {
		if err := s.insertLocked(req, headInsert, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) insertLocked(req request.Request, headInsert bool, now time.Time) error {
	if req.Op() == request.OpOther {
		return ErrUnsupportedOperation
	}
	if req.Op().IsManagement() {
		s.gate.Insert(req)
		return nil
	}
	s.buckets[req.Priority()].Insert(req, headInsert, now)
	return nil
}

// DispatchRequest selects the next request to dispatch, or nil if
// nothing is currently eligible (spec §4.3, dd_dispatch_request).
func (s *Scheduler) DispatchRequest(ctx context.Context) request.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Dispatch(s.taggedContext(ctx), s.clock.Now())
}

// PrepareRequest is a no-op hook called before a request is handed to the
// scheduler (dd_prepare_request clears a private flag the Go port has no
// equivalent for, since Request is host-owned).
func (s *Scheduler) PrepareRequest(req request.Request) {}

// FinishRequest handles request completion (spec §4.7): increments the
// bucket's completed counter, applies write-accounting decrements,
// releases the target zone's write lock, and signals a restart if other
// writes remain blocked on now-unlocked zones. It deliberately does not
// take the scheduler mutex — completion touches only the lock-free
// counters and the zone manager's own lock (spec §5).
func (s *Scheduler) FinishRequest(ctx context.Context, req request.Request) {
	s.buckets[req.Priority()].Completed.Inc()

	switch req.Op() {
	case request.OpWrite:
		s.streams.OnWriteComplete(request.UnitsFromSectors(req.SectorCount()))
		s.zone.Unlock(req.Zone())
		if s.hasQueuedWrites() && s.restart != nil {
			s.restart(ctx)
		}
	case request.OpReset:
		s.gate.OnManagementComplete(request.OpReset)
	case request.OpFinish:
		s.gate.OnManagementComplete(request.OpFinish)
	}
}

func (s *Scheduler) hasQueuedWrites() bool {
	for _, b := range s.buckets {
		if b.HasWrites() {
			return true
		}
	}
	return false
}

// BioMerge attempts to merge an inbound bio, described by its target
// priority, direction, and end sector, into an existing indexed request
// (spec §4.5, dd_bio_merge). The scheduler's own merge logic is a thin
// front-merge probe; request-hash matching against in-flight bios is
// host block-layer machinery out of scope here (spec §1 Out-of-scope).
func (s *Scheduler) BioMerge(ctx context.Context, prio request.Priority, dir request.Op, bioEndSector uint64) (request.Request, merge.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merge.Probe(s.buckets, prio, dir, bioEndSector, false)
}

// RequestMerge implements the front-merge probe a not-yet-allocated bio
// is checked against (spec §4.5, dd_request_merge).
func (s *Scheduler) RequestMerge(ctx context.Context, prio request.Priority, dir request.Op, bioEndSector uint64, isDiscard bool) (request.Request, merge.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merge.Probe(s.buckets, prio, dir, bioEndSector, isDiscard)
}

// RequestMerged re-positions req in its sector index after the caller has
// extended its byte range to absorb a front-merged bio (spec §4.2,
// dd_request_merged).
func (s *Scheduler) RequestMerged(ctx context.Context, req request.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merge.RequestMerged(s.buckets, req)
}

// RequestsMerged applies deadline inheritance and removes donor after the
// caller has fully absorbed it into req (spec §4.2, §4.5,
// dd_merged_requests).
func (s *Scheduler) RequestsMerged(ctx context.Context, req, donor request.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merge.MergedRequests(s.buckets, req, donor)
}

// HasWork reports whether any priority bucket or management stream holds
// a request (spec §6: "must return true if any priority bucket or either
// management queue is non-empty").
func (s *Scheduler) HasWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.HasWork()
}

// BucketSnapshot is a point-in-time count of one priority bucket's
// contents, for the structured has_work snapshot of SPEC_FULL.md §12.3.
type BucketSnapshot struct {
	Priority   request.Priority
	Queued     int
	Inserted   uint64
	Merged     uint64
	Dispatched uint64
	Completed  uint64
}

// Snapshot returns a structured breakdown of every priority bucket's
// counters and the management gate's queue lengths, for the admin
// surface's observability endpoints (spec §6 Observability;
// SPEC_FULL.md §12.3, mirroring zinc_stat_show's per-bucket debugfs
// dump).
func (s *Scheduler) Snapshot() []BucketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]BucketSnapshot, 0, request.NumPriorities)
	for _, b := range s.buckets {
		out = append(out, BucketSnapshot{
			Priority:   b.Priority,
			Queued:     b.Queued(),
			Inserted:   b.Inserted,
			Merged:     b.Merged,
			Dispatched: b.Dispatched,
			Completed:  b.Completed.Load(),
		})
	}
	return out
}

// Config exposes the scheduler's administrative knob registry (spec §6),
// used by the admin HTTP surface and CLI.
func (s *Scheduler) Config() *config.Config { return s.cfg }

// GateSnapshot exposes the management gate's queue depths and
// hold-latency distributions for the observability surface.
func (s *Scheduler) GateSnapshot() gate.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.Snapshot()
}

// Batching and Starved expose the dispatch engine's scheduler-wide state
// for observability (spec §6: debugfs "batching"/"starved" fields).
func (s *Scheduler) Batching() int { return s.engine.Batching() }
func (s *Scheduler) Starved() int  { return s.engine.Starved() }
