package bucket

import (
	"time"

	"github.com/stonet-research/zinc-scheduler/internal/ring"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
)

// directionQueue holds one direction's (read or write) expiry FIFO,
// sector-sorted index, and next cursor (spec §4.2, §3).
type directionQueue struct {
	fifo   ring.Deque[request.Request]
	index  *SectorIndex
	cursor request.Request
	expire time.Duration
}

func newDirectionQueue(expire time.Duration) *directionQueue {
	return &directionQueue{index: NewSectorIndex(), expire: expire}
}

func (d *directionQueue) empty() bool { return d.fifo.Empty() }

// insert appends req to the FIFO tail and indexes it by sector, setting
// its expiry-deadline to now + the direction's expiry interval (spec
// §4.2 insert).
func (d *directionQueue) insert(req request.Request, now time.Time) {
	req.SetDeadline(now.Add(d.expire))
	d.fifo.PushBack(req)
	d.index.Insert(req)
}

// remove deletes req from both the FIFO and the sector index, advancing
// the next cursor to req's sector-successor if the cursor pointed at req
// (spec §4.2 remove).
func (d *directionQueue) remove(req request.Request) {
	if d.cursor == req {
		d.cursor = d.index.Successor(req)
	}
	d.fifo.Remove(func(r request.Request) bool { return r == req })
	d.index.Remove(req)
}

// headExpired returns true iff the FIFO head's expiry-deadline has
// elapsed (spec §4.2: "head-of-FIFO expiry check").
func (d *directionQueue) headExpired(now time.Time) bool {
	if d.fifo.Empty() {
		return false
	}
	return !d.fifo.Front().Deadline().After(now)
}

// startTime returns a request's start-time, used by priority aging and
// the latest_start bound (spec §4.3): expiry-deadline minus the
// direction's expiry interval, or the deadline itself for head-inserted
// requests which carry fifo_time = now and never appear expired relative
// to themselves.
func (d *directionQueue) startTime(req request.Request) time.Time {
	if req.HeadInsert() {
		return req.Deadline()
	}
	return req.Deadline().Add(-d.expire)
}

// commitDispatch removes req from the FIFO and sector index and
// unconditionally advances the next cursor to req's sector-successor,
// regardless of where the cursor previously pointed (spec §4.3 Commit:
// "advance that direction's next cursor to the sector-successor" of the
// request just dispatched).
func (d *directionQueue) commitDispatch(req request.Request) {
	successor := d.index.Successor(req)
	d.fifo.Remove(func(r request.Request) bool { return r == req })
	d.index.Remove(req)
	d.cursor = successor
}

// inheritDeadline implements the requests-merged deadline-inheritance
// rule of spec §4.2: if donor's deadline precedes recipient's, recipient
// inherits the earlier deadline and moves to donor's FIFO position.
func (d *directionQueue) inheritDeadline(donor, recipient request.Request) {
	if donor.Deadline().Before(recipient.Deadline()) {
		recipient.SetDeadline(donor.Deadline())
		d.fifo.Remove(func(r request.Request) bool { return r == recipient })
		// Re-insert recipient at the donor's position by removing the
		// donor's FIFO slot and substituting recipient in place, so
		// recipient's relative order matches the donor's.
		var replaced bool
		n := d.fifo.Len()
		items := make([]request.Request, 0, n)
		d.fifo.Each(func(r request.Request) {
			if r == donor && !replaced {
				items = append(items, recipient)
				replaced = true
				return
			}
			items = append(items, r)
		})
		if !replaced {
			items = append(items, recipient)
		}
		d.fifo = ring.Deque[request.Request]{}
		for _, r := range items {
			d.fifo.PushBack(r)
		}
	}
}
