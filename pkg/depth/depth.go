// Package depth implements the allocation depth limiter of spec §4.6,
// grounded directly on dd_limit_depth and dd_depth_updated in
// original_source/zinc.c: synchronous reads are never throttled, every
// other combination of sync/async and read/write is capped at
// async_depth = max(1, 3*nr_requests/4), recomputed whenever the device's
// request-tag pool is resized.
package depth

import (
	"context"

	"github.com/stonet-research/zinc-scheduler/internal/zlog"
	"github.com/stonet-research/zinc-scheduler/pkg/config"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
)

// Limiter tracks the async_depth knob and recomputes it from the host's
// current tag-pool size.
type Limiter struct {
	cfg *config.Config
}

// New constructs a Limiter bound to cfg.
func New(cfg *config.Config) *Limiter {
	return &Limiter{cfg: cfg}
}

// Updated recomputes async_depth from nrRequests, the host's current
// request-tag pool size (spec §4.6: "recomputed on device request-count
// change"). It is idempotent and safe to call from init_hw_context and
// depth_updated alike.
func (l *Limiter) Updated(ctx context.Context, nrRequests int) {
	depth := 3 * nrRequests / 4
	if depth < 1 {
		depth = 1
	}
	l.cfg.AsyncDepth.Set(ctx, int64(depth))
	zlog.Infof(ctx, "depth: async_depth recomputed to %d from nr_requests=%d", depth, nrRequests)
}

// ShallowDepth returns the allocation depth the host should apply to a
// request with the given direction and sync/async flag, and whether a
// cap applies at all. Synchronous reads are unthrottled (spec §4.6: "do
// not throttle synchronous reads"); every other combination is capped at
// the current async_depth.
func (l *Limiter) ShallowDepth(op request.Op, sync bool) (depth int, limited bool) {
	if sync && op == request.OpRead {
		return 0, false
	}
	return int(l.cfg.AsyncDepth.Get()), true
}
