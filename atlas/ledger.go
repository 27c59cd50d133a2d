package atlas

import (
	"cmp"
	"slices"
)

// Band is a vertical span [Start, End) of the atlas.
type Band struct {
	Start, End uint32
}

// Height returns End-Start.
func (b Band) Height() uint32 { return b.End - b.Start }

// ledger records the vertical bands of the atlas that hold no row.
//
// Both directions are indexed so that a freed span can be merged with the
// band ending at its start and the band starting at its end in O(1).
// Adjacent bands are always merged, so no two entries touch.
type ledger struct {
	endForStart map[uint32]uint32
	startForEnd map[uint32]uint32
}

func newLedger(height uint32) ledger {
	l := ledger{
		endForStart: make(map[uint32]uint32),
		startForEnd: make(map[uint32]uint32),
	}
	l.reset(height)
	return l
}

// reset makes the whole atlas one free band.
func (l *ledger) reset(height uint32) {
	clear(l.endForStart)
	clear(l.startForEnd)
	l.endForStart[0] = height
	l.startForEnd[height] = 0
}

// find returns the lowest free band at least h pixels tall.
func (l *ledger) find(h uint32) (Band, bool) {
	var (
		best  Band
		found bool
	)
	for start, end := range l.endForStart {
		if end-start < h {
			continue
		}
		if !found || start < best.Start {
			best = Band{Start: start, End: end}
			found = true
		}
	}
	return best, found
}

// take carves h pixels off the top of free band b.
func (l *ledger) take(b Band, h uint32) {
	delete(l.endForStart, b.Start)
	rest := b.Start + h
	if rest == b.End {
		delete(l.startForEnd, b.End)
		return
	}
	l.endForStart[rest] = b.End
	l.startForEnd[b.End] = rest
}

// release returns [start, end) to the ledger, merging it with neighbouring
// free bands, and returns the merged band.
func (l *ledger) release(start, end uint32) Band {
	if e, ok := l.endForStart[end]; ok {
		delete(l.endForStart, end)
		delete(l.startForEnd, e)
		end = e
	}
	if s, ok := l.startForEnd[start]; ok {
		delete(l.startForEnd, start)
		delete(l.endForStart, s)
		start = s
	}
	l.endForStart[start] = end
	l.startForEnd[end] = start
	return Band{Start: start, End: end}
}

// bands returns the free bands sorted by start.
func (l *ledger) bands() []Band {
	out := make([]Band, 0, len(l.endForStart))
	for start, end := range l.endForStart {
		out = append(out, Band{Start: start, End: end})
	}
	slices.SortFunc(out, func(a, b Band) int { return cmp.Compare(a.Start, b.Start) })
	return out
}

// freeHeight returns the total height of all free bands.
func (l *ledger) freeHeight() uint32 {
	var total uint32
	for start, end := range l.endForStart {
		total += end - start
	}
	return total
}
