// Package merge implements the merge adapter of spec §4.5: the
// front-merge probe a bio is checked against before a new request is
// allocated for it, and the post-merge bookkeeping that keeps the sector
// index and FIFO deadlines consistent afterward. Grounded on
// dd_request_merge, dd_request_merged, and dd_merged_requests in
// original_source/zinc.c; the scheduler vtable (the root zinc package)
// owns applying the actual byte-range extension to a concrete Request
// implementation and only calls into this package for the bookkeeping
// that depends on the sector index and FIFO.
package merge

import (
	"github.com/stonet-research/zinc-scheduler/pkg/bucket"
	"github.com/stonet-research/zinc-scheduler/pkg/config"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
)

// Verdict is the outcome of a front-merge probe.
type Verdict int8

const (
	// VerdictNone reports no mergeable request was found (front merges may
	// also be administratively disabled via the front_merges knob).
	VerdictNone Verdict = iota
	// VerdictFront reports an ordinary front-merge candidate: the probed
	// bio's end sector equals an indexed request's start sector.
	VerdictFront
	// VerdictDiscard reports the same front-merge candidate but for a
	// discard-class request, which the caller is expected to route through
	// its discard-specific merge path rather than a byte-range extension
	// (spec §4.5: "discard requests get a distinct merge verdict").
	VerdictDiscard
)

// Adapter is the merge adapter, holding only the front_merges knob it
// needs to decide whether probing is enabled at all.
type Adapter struct {
	cfg *config.Config
}

// New constructs a merge Adapter bound to cfg.
func New(cfg *config.Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// Probe implements dd_request_merge: given a bio described by its target
// direction, priority class, and end sector, it returns the existing
// request it should be front-merged into, if any, and whether that merge
// is an ordinary front-merge or a discard-merge. isDiscard is supplied by
// the caller, since discard classification is a property of the inbound
// bio, not of the indexed request.
func (a *Adapter) Probe(buckets [request.NumPriorities]*bucket.Bucket, prio request.Priority, dir request.Op, bioEndSector uint64, isDiscard bool) (request.Request, Verdict) {
	if a.cfg.FrontMerges.Get() == 0 {
		return nil, VerdictNone
	}
	req, ok := buckets[prio].FrontMergeCandidate(dir, bioEndSector)
	if !ok {
		return nil, VerdictNone
	}
	if isDiscard {
		return req, VerdictDiscard
	}
	return req, VerdictFront
}

// RequestMerged implements dd_request_merged: after the caller has
// extended req's own sector range to absorb a front-merged bio,
// RequestMerged re-positions req in its direction's sector index so later
// lookups see its new start sector (spec §4.2, §4.5).
func (a *Adapter) RequestMerged(buckets [request.NumPriorities]*bucket.Bucket, req request.Request) {
	buckets[req.Priority()].Reposition(req.Op(), req)
}

// MergedRequests implements dd_merged_requests: donor has been fully
// absorbed into req by the caller (their byte ranges combined into req).
// MergedRequests applies the deadline-inheritance rule — req adopts
// donor's deadline and FIFO position if donor's deadline is earlier —
// removes donor from the bucket, and records the merge statistic.
// req and donor must share the same priority class and direction.
func (a *Adapter) MergedRequests(buckets [request.NumPriorities]*bucket.Bucket, req, donor request.Request) {
	b := buckets[req.Priority()]
	b.InheritDeadline(req.Op(), donor, req)
	b.Remove(donor)
	b.MarkMerged()
}
