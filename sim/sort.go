package sim

// cellPair couples a flat cell id with the agent occupying it. The sort
// rearranges pairs by cell so each occupied cell's agents form one
// contiguous run.
type cellPair struct {
	cell  int32
	agent int32
}

// sortByCell sorts pairs by cell id with an LSD radix sort, using scratch as
// the ping-pong buffer. Keys are shifted by one so the out-of-bounds
// sentinel (-1) participates as the lowest key and sorts to the front.
// O(N) per digit; digit count depends only on the grid size.
func sortByCell(pairs, scratch []cellPair, cellCount int) {
	n := len(pairs)
	if n < 2 {
		return
	}

	src, dst := pairs, scratch
	maxKey := uint32(cellCount) // cellCount-1 + sentinel shift
	for shift := uint(0); maxKey>>shift > 0; shift += 8 {
		var counts [256]int
		for _, p := range src {
			counts[(uint32(p.cell+1)>>shift)&0xff]++
		}
		sum := 0
		for d := range counts {
			counts[d], sum = sum, sum+counts[d]
		}
		for _, p := range src {
			d := (uint32(p.cell+1) >> shift) & 0xff
			dst[counts[d]] = p
			counts[d]++
		}
		src, dst = dst, src
	}

	// An odd number of digit passes leaves the result in scratch.
	if &src[0] != &pairs[0] {
		copy(pairs, src)
	}
}

// buildCellRanges derives the per-cell [start, end) tables from the sorted
// pairs in positions [i0, i1). Each position writes a bound only when it is
// the first or last of its cell's run, so positions can be processed in any
// order or split across workers. Both array ends are explicit cases: p==0
// has no predecessor to differ from and p==n-1 no successor, and a
// derivation that only compares against the predecessor leaves the final
// cell's end bound unset.
//
// The caller must reset start/end to the sentinel first; pairs with the
// out-of-bounds sentinel cell are skipped and never produce a range.
func buildCellRanges(pairs []cellPair, start, end []int32, i0, i1 int) {
	n := len(pairs)
	for p := i0; p < i1; p++ {
		c := pairs[p].cell
		if c == cellOutOfBounds {
			continue
		}
		if p == 0 || pairs[p-1].cell != c {
			start[c] = int32(p)
		}
		if p == n-1 || pairs[p+1].cell != c {
			end[c] = int32(p + 1)
		}
	}
}

// resetCellRanges marks cells [c0, c1) empty.
func resetCellRanges(start, end []int32, c0, c1 int) {
	for c := c0; c < c1; c++ {
		start[c] = cellOutOfBounds
		end[c] = cellOutOfBounds
	}
}
