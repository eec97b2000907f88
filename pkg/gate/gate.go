package gate

import (
	"context"

	"github.com/stonet-research/zinc-scheduler/internal/ztime"
	"github.com/stonet-research/zinc-scheduler/pkg/accounting"
	"github.com/stonet-research/zinc-scheduler/pkg/config"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
)

// Gate bundles the reset and finish management streams, evaluated in
// that fixed order on every dispatch call when armed (spec §4.4: "Both
// streams (reset, then finish) are evaluated in that fixed order before
// the normal dispatch path runs").
type Gate struct {
	Reset  *Stream
	Finish *Stream
}

// New constructs a Gate wired to the given write-accounting streams and
// configuration.
func New(cfg *config.Config, streams *accounting.Streams, clock ztime.Clock) *Gate {
	return &Gate{
		Reset:  NewStream("reset", &streams.Reset, &cfg.Reset, clock),
		Finish: NewStream("finish", &streams.Finish, &cfg.Finish, clock),
	}
}

// Start arms both streams' epoch timers.
func (g *Gate) Start() {
	g.Reset.Start()
	g.Finish.Start()
}

// Stop synchronously disarms both streams' epoch timers.
func (g *Gate) Stop() {
	g.Reset.Stop()
	g.Finish.Stop()
}

// Admit evaluates the reset stream then the finish stream and returns
// the first admitted management request, if any. Must be called under
// the scheduler lock (spec §4.3 step 1, §5).
func (g *Gate) Admit(ctx context.Context) (request.Request, bool) {
	if req, outcome := g.Reset.Admit(ctx); outcome != outcomeNone {
		if req != nil {
			return req, true
		}
	}
	if req, outcome := g.Finish.Admit(ctx); outcome != outcomeNone {
		if req != nil {
			return req, true
		}
	}
	return nil, false
}

// HasWork reports whether either stream holds a request, for the
// scheduler-wide has_work query (spec §6).
func (g *Gate) HasWork() bool { return g.Reset.HasWork() || g.Finish.HasWork() }

// Snapshot is a point-in-time view of both streams' queue depths and
// hold-latency distributions, for the observability surface of spec §6
// and pkg/zmetrics.
type Snapshot struct {
	ResetQueued, FinishQueued     int
	ResetHoldMean, FinishHoldMean float64
	ResetHoldP99, FinishHoldP99   int64
}

// Snapshot returns the gate's current observability snapshot.
func (g *Gate) Snapshot() Snapshot {
	rm, rp := g.Reset.HoldLatencySnapshot()
	fm, fp := g.Finish.HoldLatencySnapshot()
	return Snapshot{
		ResetQueued:    g.Reset.Len(),
		FinishQueued:   g.Finish.Len(),
		ResetHoldMean:  rm,
		ResetHoldP99:   rp,
		FinishHoldMean: fm,
		FinishHoldP99:  fp,
	}
}

// Insert routes req (already classified OpReset or OpFinish) to the
// matching stream.
func (g *Gate) Insert(req request.Request) {
	if req.Op() == request.OpReset {
		g.Reset.Insert(req)
	} else {
		g.Finish.Insert(req)
	}
}

// OnManagementComplete re-arms the stream matching op immediately if
// inflight writes are now below its drain threshold (spec §4.4 Arming
// event (b), §4.7).
func (g *Gate) OnManagementComplete(op request.Op) {
	if op == request.OpReset {
		g.Reset.OnManagementComplete()
	} else {
		g.Finish.OnManagementComplete()
	}
}
