package request

import "time"

// Req is a reference Request implementation used by tests and by any
// caller that does not already have its own block-layer request type to
// adapt. Production integrations are expected to implement Request
// directly atop their own request struct instead of wrapping it in a Req.
type Req struct {
	op          Op
	priority    Priority
	startSector uint64
	sectorCount uint32
	byteLen     uint32
	zone        uint64
	async       bool
	headInsert  bool

	deadline  time.Time
	holdCount uint32
}

// NewReq constructs a Req for the given op, priority, and sector range.
// Its byte length defaults to sectorCount*512; WithByteLen overrides it.
func NewReq(op Op, priority Priority, startSector uint64, sectorCount uint32) *Req {
	return &Req{
		op:          op,
		priority:    priority,
		startSector: startSector,
		sectorCount: sectorCount,
		byteLen:     sectorCount * 512,
	}
}

// WithByteLen overrides the byte length (default derived from sector count
// assuming 512-byte sectors).
func (r *Req) WithByteLen(n uint32) *Req { r.byteLen = n; return r }

// WithZone sets the target zone identifier.
func (r *Req) WithZone(zone uint64) *Req { r.zone = zone; return r }

// WithAsync marks the request asynchronous.
func (r *Req) WithAsync(async bool) *Req { r.async = async; return r }

// WithHeadInsert marks the request as inserted at the head of its bucket's
// immediate-dispatch list.
func (r *Req) WithHeadInsert(head bool) *Req { r.headInsert = head; return r }

func (r *Req) Op() Op                  { return r.op }
func (r *Req) Priority() Priority      { return r.priority }
func (r *Req) StartSector() uint64     { return r.startSector }
func (r *Req) SectorCount() uint32     { return r.sectorCount }
func (r *Req) ByteLen() uint32         { return r.byteLen }
func (r *Req) Zone() uint64            { return r.zone }
func (r *Req) Async() bool             { return r.async }
func (r *Req) HeadInsert() bool        { return r.headInsert }
func (r *Req) Deadline() time.Time     { return r.deadline }
func (r *Req) SetDeadline(t time.Time) { r.deadline = t }
func (r *Req) HoldCount() uint32       { return r.holdCount }
func (r *Req) IncHoldCount()           { r.holdCount++ }
func (r *Req) ResetHoldCount()         { r.holdCount = 0 }

// ExtendTo moves the request's start sector to newStart, grows its sector
// count by addSectors, and resets its byte length accordingly, used by the
// merge adapter (spec §4.2 front-merge).
func (r *Req) ExtendTo(newStart uint64, addSectors uint32) {
	r.startSector = newStart
	r.sectorCount += addSectors
	r.byteLen = r.sectorCount * 512
}
