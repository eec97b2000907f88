// Package bucket implements the per-priority request index and FIFO of
// spec §4.2: for each of {REAL_TIME, BEST_EFFORT, IDLE}, an immediate
// dispatch list, two sector-sorted indices (one per direction), two
// expiry FIFOs, and a next-cursor per direction.
package bucket

import (
	"github.com/google/btree"
	"github.com/stonet-research/zinc-scheduler/pkg/request"
)

// sectorIndexDegree mirrors the teacher's usage of a wide-fanout btree for
// ordered in-memory indices (pkg/util/btree): a wide degree keeps tree
// height low for the request counts a single device queue ever holds.
const sectorIndexDegree = 32

type sectorItem struct {
	sector uint64
	seq    uint64
	req    request.Request
}

func (a *sectorItem) Less(than btree.Item) bool {
	b := than.(*sectorItem)
	if a.sector != b.sector {
		return a.sector < b.sector
	}
	return a.seq < b.seq
}

// SectorIndex is an ordered index of requests keyed by starting sector,
// supporting predecessor/successor traversal and exact-sector lookup for
// front-merge probes (spec §4.2, §4.5).
type SectorIndex struct {
	tree  *btree.BTree
	items map[request.Request]*sectorItem
	seq   uint64
}

// NewSectorIndex constructs an empty SectorIndex.
func NewSectorIndex() *SectorIndex {
	return &SectorIndex{
		tree:  btree.New(sectorIndexDegree),
		items: make(map[request.Request]*sectorItem),
	}
}

// Len returns the number of indexed requests.
func (si *SectorIndex) Len() int { return si.tree.Len() }

// Insert adds req to the index, keyed by its current start sector. Ties
// in sector are broken by insertion order (spec §4.3 Tie-breaks).
func (si *SectorIndex) Insert(req request.Request) {
	si.seq++
	it := &sectorItem{sector: req.StartSector(), seq: si.seq, req: req}
	si.items[req] = it
	si.tree.ReplaceOrInsert(it)
}

// Remove deletes req from the index.
func (si *SectorIndex) Remove(req request.Request) {
	it, ok := si.items[req]
	if !ok {
		return
	}
	si.tree.Delete(it)
	delete(si.items, req)
}

// Contains reports whether req is currently indexed.
func (si *SectorIndex) Contains(req request.Request) bool {
	_, ok := si.items[req]
	return ok
}

// Reposition re-indexes req after its start sector has changed (spec
// §4.2: "re-position it in the sector index after a successful merge").
// It is a no-op if req is not indexed.
func (si *SectorIndex) Reposition(req request.Request) {
	it, ok := si.items[req]
	if !ok {
		return
	}
	si.tree.Delete(it)
	it.sector = req.StartSector()
	si.tree.ReplaceOrInsert(it)
}

// Successor returns the request immediately after req in sector order, or
// nil if req is the maximum or is not indexed.
func (si *SectorIndex) Successor(req request.Request) request.Request {
	it, ok := si.items[req]
	if !ok {
		return nil
	}
	var result request.Request
	skippedSelf := false
	si.tree.AscendGreaterOrEqual(it, func(i btree.Item) bool {
		cur := i.(*sectorItem)
		if !skippedSelf && cur == it {
			skippedSelf = true
			return true
		}
		result = cur.req
		return false
	})
	return result
}

// Predecessor returns the request immediately before req in sector order,
// or nil if req is the minimum or is not indexed.
func (si *SectorIndex) Predecessor(req request.Request) request.Request {
	it, ok := si.items[req]
	if !ok {
		return nil
	}
	var result request.Request
	skippedSelf := false
	si.tree.DescendLessOrEqual(it, func(i btree.Item) bool {
		cur := i.(*sectorItem)
		if !skippedSelf && cur == it {
			skippedSelf = true
			return true
		}
		result = cur.req
		return false
	})
	return result
}

// Min returns the lowest-sector indexed request, or nil if empty.
func (si *SectorIndex) Min() request.Request {
	it := si.tree.Min()
	if it == nil {
		return nil
	}
	return it.(*sectorItem).req
}

// ByEndSector returns the request whose start sector equals sector,
// preferring the earliest-inserted among ties, used by the front-merge
// hook (spec §4.2: "given a bio whose end sector equals some indexed
// request's starting sector").
func (si *SectorIndex) ByEndSector(sector uint64) (request.Request, bool) {
	probe := &sectorItem{sector: sector, seq: 0}
	var result request.Request
	found := false
	si.tree.AscendGreaterOrEqual(probe, func(i btree.Item) bool {
		cur := i.(*sectorItem)
		if cur.sector == sector {
			result = cur.req
			found = true
		}
		return false
	})
	return result, found
}
