// Package accounting implements the inflight write accounting of spec
// §3/§4.4/§5: four lock-free counters, expressed in 8 KiB units, that
// gate and drive the management gate's admission rules. These counters
// are touched from completion context outside the scheduler mutex, so
// they use go.uber.org/atomic rather than plain fields — the same
// tension the teacher's admission package resolves by keeping granter
// slot/token counts under the scheduler mutex but exposing separately
// atomic quota counters for cross-context bookkeeping (io_grant_coordinator.go).
package accounting

import "go.uber.org/atomic"

// WriteAccounting tracks, for a single management stream (reset or
// finish), the outstanding write volume gating admission and the write
// volume dispatched since the stream's last admission.
type WriteAccounting struct {
	pendingWrites   atomic.Uint64
	dispatchedSince atomic.Uint64
}

// OnWriteDispatch records that a write of the given size (in 8 KiB
// units, already floored to at least one by the caller) has been
// dispatched: it contributes to both the inflight counter and the
// dispatched-since-last-admission counter (spec §4.4 Write accounting).
func (w *WriteAccounting) OnWriteDispatch(units uint32) {
	w.pendingWrites.Add(uint64(units))
	w.dispatchedSince.Add(uint64(units))
}

// OnWriteComplete records that a write of the given size has completed,
// decrementing the inflight counter (spec §4.4 Write accounting, "on
// completion, writes decrement both inflight counters").
func (w *WriteAccounting) OnWriteComplete(units uint32) {
	w.pendingWrites.Sub(uint64(units))
}

// PendingWrites returns the current inflight write volume in 8 KiB
// units.
func (w *WriteAccounting) PendingWrites() uint64 { return w.pendingWrites.Load() }

// DispatchedSinceAdmission returns the write volume dispatched since the
// stream's last management admission.
func (w *WriteAccounting) DispatchedSinceAdmission() uint64 { return w.dispatchedSince.Load() }

// ResetDispatchedSinceAdmission zeroes the dispatched-since counter, done
// on every management admission (spec §4.4 Admission, all three
// non-defer cases).
func (w *WriteAccounting) ResetDispatchedSinceAdmission() { w.dispatchedSince.Store(0) }

// Streams bundles the reset-stream and finish-stream accounting state,
// since every workload write contributes to both (spec §4.4: "Every
// WRITE request dispatched via the normal path contributes its size ...
// to both streams' dispatched-write counters and inflight counters").
type Streams struct {
	Reset  WriteAccounting
	Finish WriteAccounting
}

// OnWriteDispatch fans a dispatched write's size out to both streams.
func (s *Streams) OnWriteDispatch(units uint32) {
	s.Reset.OnWriteDispatch(units)
	s.Finish.OnWriteDispatch(units)
}

// OnWriteComplete fans a completed write's size out to both streams.
func (s *Streams) OnWriteComplete(units uint32) {
	s.Reset.OnWriteComplete(units)
	s.Finish.OnWriteComplete(units)
}
