// Package request defines the external request entity the scheduler
// operates on (spec §3, "Request (external entity)"). The scheduler never
// allocates or frees a Request; it is owned by the host block layer and
// handed to the scheduler by reference between insert and dispatch/
// completion.
package request

import "time"

// Op is the classified operation direction of a request (spec §4.1).
type Op int8

const (
	// OpRead is a workload read.
	OpRead Op = iota
	// OpWrite is a workload write.
	OpWrite
	// OpReset is a zone-reset management operation.
	OpReset
	// OpFinish is a zone-finish management operation.
	OpFinish
	// OpOther is anything not recognized as the four above, including
	// zone-append (explicitly unsupported, spec §4.1).
	OpOther
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpReset:
		return "reset"
	case OpFinish:
		return "finish"
	default:
		return "other"
	}
}

// IsManagement reports whether o belongs to a management side-queue stream.
func (o Op) IsManagement() bool {
	return o == OpReset || o == OpFinish
}

// Priority is one of the three I/O priority classes (spec §3).
type Priority int8

const (
	// RealTime is the highest priority class.
	RealTime Priority = iota
	// BestEffort is the default priority class; unclassified requests map
	// here (spec §3).
	BestEffort
	// Idle is the lowest priority class.
	Idle
	// NumPriorities is the count of priority classes, used to size arrays.
	NumPriorities = int(Idle) + 1
)

func (p Priority) String() string {
	switch p {
	case RealTime:
		return "real-time"
	case BestEffort:
		return "best-effort"
	case Idle:
		return "idle"
	default:
		return "unknown"
	}
}

// Request is the observable, mutable surface of a block-layer request that
// the scheduler indexes and dispatches. Implementations are owned by the
// host block layer; the scheduler only ever holds a reference.
type Request interface {
	// Op is the classified direction of this request.
	Op() Op
	// Priority is the I/O priority class; unclassified maps to BestEffort.
	Priority() Priority
	// StartSector is the first sector touched by the request.
	StartSector() uint64
	// SectorCount is the number of sectors touched by the request.
	SectorCount() uint32
	// ByteLen is the byte length of the request payload.
	ByteLen() uint32
	// Zone is the target zone identifier for zoned-write admissibility
	// checks (spec §4.3e). Meaningless for non-write requests.
	Zone() uint64
	// Async reports whether the request is asynchronous, for depth
	// limiting (spec §4.6).
	Async() bool
	// HeadInsert reports whether this request was inserted at the head of
	// its bucket's immediate-dispatch list rather than its FIFO (spec
	// §4.3). Head-inserted requests carry fifo_time = now and never appear
	// expired relative to themselves.
	HeadInsert() bool

	// Deadline returns the current expiry-deadline.
	Deadline() time.Time
	// SetDeadline overwrites the expiry-deadline, used for FIFO insertion
	// and for deadline inheritance during requests-merged (spec §4.2).
	SetDeadline(time.Time)

	// HoldCount returns the management-aging hold count (spec §3); zero
	// for non-management requests.
	HoldCount() uint32
	// IncHoldCount increments the hold count by one.
	IncHoldCount()
	// ResetHoldCount zeroes the hold count on admission.
	ResetHoldCount()
}

// UnitsFromBytes converts a byte length to 8 KiB units with a floor of one,
// following the unit convention of spec §6: units = bytes >> 13.
func UnitsFromBytes(bytes uint32) uint32 {
	u := bytes >> 13
	if u == 0 {
		return 1
	}
	return u
}

// UnitsFromSectors converts a sector count to 8 KiB units with a floor of
// one: units = sectors >> 4 (512-byte sectors, 16 per 8 KiB unit).
func UnitsFromSectors(sectors uint32) uint32 {
	u := sectors >> 4
	if u == 0 {
		return 1
	}
	return u
}
