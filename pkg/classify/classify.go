// Package classify implements the request classifier (spec §4.1): mapping
// an opaque block-layer operation code to one of the scheduler's five
// internal directions.
package classify

import "github.com/stonet-research/zinc-scheduler/pkg/request"

// Code is a host-supplied operation code, analogous to a Linux block-layer
// REQ_OP_* value. Only the four recognized codes route anywhere other than
// OpOther.
type Code uint32

const (
	CodeRead Code = iota
	CodeWrite
	CodeZoneReset
	CodeZoneFinish
	// CodeZoneAppend is explicitly unsupported (spec §1 Non-goals, §4.1):
	// it is classified OpOther and, per spec §9's second Open Question,
	// rejected at insert rather than silently misrouted.
	CodeZoneAppend
	CodeDiscard
	CodeFlush
)

// Classify maps a host operation code to one of the scheduler's five
// internal directions. Any code not recognized as the first four constants
// is OpOther (spec §4.1: "Any code not recognized as the first four is
// OTHER").
func Classify(code Code) request.Op {
	switch code {
	case CodeRead:
		return request.OpRead
	case CodeWrite:
		return request.OpWrite
	case CodeZoneReset:
		return request.OpReset
	case CodeZoneFinish:
		return request.OpFinish
	default:
		return request.OpOther
	}
}
