// Package zone models the per-zone write-lock primitive that spec §1
// treats as an external collaborator ("assumed provided by the
// surrounding zoned-device infrastructure") and §4.3e/§4.7 drive
// dispatch and completion decisions against. Manager is the
// interface the scheduler depends on; Memory is an in-memory reference
// implementation for tests (SPEC_FULL.md §12.5).
package zone

import "sync"

// ID identifies a zone on a zoned block device.
type ID = uint64

// Manager is the collaborator interface the scheduler drives zoned-write
// admissibility (spec §4.3e) and completion zone-unlock (spec §4.7)
// through. A production integration backs this with the host's real
// per-zone write-lock bitmap; it is guarded by a short-held spinlock
// distinct from the scheduler mutex (spec §5).
type Manager interface {
	// TryLock attempts to acquire the write lock for zone and reports
	// whether it succeeded. Never blocks (spec §5: "no suspension point
	// beyond a spinlock acquire").
	TryLock(zone ID) bool
	// Unlock releases the write lock for zone. It is the caller's
	// responsibility to only unlock a zone it holds.
	Unlock(zone ID)
	// Locked reports whether zone is currently write-locked, for
	// dispatch's zoned-write admissibility walk (spec §4.3e).
	Locked(zone ID) bool
	// ZoneOf maps a sector to its owning zone, used when the device
	// reports only sector ranges. A Memory device is configured with a
	// fixed zone size at construction.
	ZoneOf(sector uint64) ID
	// Sequential reports whether the device requires sequential-only
	// writes within a zone (spec §4.3e: "on rotational zoned devices");
	// non-rotational (SSD-class, ZNS) devices still enforce per-zone
	// single-writer but do not require group-skipping of sequential runs.
	Sequential() bool
}

// Memory is an in-memory Manager for tests: a fixed zone size and a set
// of currently locked zones.
type Memory struct {
	mu         sync.Mutex
	zoneSize   uint64
	locked     map[ID]bool
	sequential bool
}

// NewMemory constructs a Memory zone manager with the given zone size in
// sectors. sequential mirrors spec §4.3e's rotational-device behavior.
func NewMemory(zoneSizeSectors uint64, sequential bool) *Memory {
	return &Memory{
		zoneSize:   zoneSizeSectors,
		locked:     make(map[ID]bool),
		sequential: sequential,
	}
}

func (m *Memory) TryLock(zone ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[zone] {
		return false
	}
	m.locked[zone] = true
	return true
}

func (m *Memory) Unlock(zone ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locked, zone)
}

func (m *Memory) Locked(zone ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked[zone]
}

func (m *Memory) ZoneOf(sector uint64) ID {
	if m.zoneSize == 0 {
		return 0
	}
	return sector / m.zoneSize
}

func (m *Memory) Sequential() bool { return m.sequential }
