package sim

import (
	"math/rand"
	"testing"
)

func rangesFromCells(t *testing.T, cells []int32, cellCount int) (start, end []int32) {
	t.Helper()
	pairs := make([]cellPair, len(cells))
	for i, c := range cells {
		pairs[i] = cellPair{cell: c, agent: int32(i)}
	}
	start = make([]int32, cellCount)
	end = make([]int32, cellCount)
	resetCellRanges(start, end, 0, cellCount)
	buildCellRanges(pairs, start, end, 0, len(pairs))
	return start, end
}

func TestBuildCellRanges(t *testing.T) {
	start, end := rangesFromCells(t, []int32{0, 0, 0, 1, 1, 2}, 8)

	wantStart := []int32{0, 3, 5}
	wantEnd := []int32{3, 5, 6}
	for c := 0; c < 3; c++ {
		if start[c] != wantStart[c] || end[c] != wantEnd[c] {
			t.Errorf("cell %d: range [%d,%d), want [%d,%d)",
				c, start[c], end[c], wantStart[c], wantEnd[c])
		}
	}
	for c := 3; c < 8; c++ {
		if start[c] != cellOutOfBounds || end[c] != cellOutOfBounds {
			t.Errorf("cell %d: range [%d,%d), want sentinel", c, start[c], end[c])
		}
	}
}

func TestBuildCellRangesBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		cells []int32
		check func(t *testing.T, start, end []int32)
	}{
		{
			// The last two agents sit in different cells; the final
			// cell's run is length one and its end bound is only set by
			// the explicit p==N-1 case.
			name:  "last two agents in different cells",
			cells: []int32{4, 4, 5},
			check: func(t *testing.T, start, end []int32) {
				if start[5] != 2 || end[5] != 3 {
					t.Errorf("cell 5: range [%d,%d), want [2,3)", start[5], end[5])
				}
				if start[4] != 0 || end[4] != 2 {
					t.Errorf("cell 4: range [%d,%d), want [0,2)", start[4], end[4])
				}
			},
		},
		{
			name:  "single agent",
			cells: []int32{3},
			check: func(t *testing.T, start, end []int32) {
				if start[3] != 0 || end[3] != 1 {
					t.Errorf("cell 3: range [%d,%d), want [0,1)", start[3], end[3])
				}
			},
		},
		{
			name:  "every agent in its own cell",
			cells: []int32{0, 1, 2, 3},
			check: func(t *testing.T, start, end []int32) {
				for c := int32(0); c < 4; c++ {
					if start[c] != c || end[c] != c+1 {
						t.Errorf("cell %d: range [%d,%d), want [%d,%d)",
							c, start[c], end[c], c, c+1)
					}
				}
			},
		},
		{
			// Out-of-bounds agents sort to the front and never open a
			// range.
			name:  "sentinel cells are skipped",
			cells: []int32{cellOutOfBounds, cellOutOfBounds, 2, 2},
			check: func(t *testing.T, start, end []int32) {
				if start[2] != 2 || end[2] != 4 {
					t.Errorf("cell 2: range [%d,%d), want [2,4)", start[2], end[2])
				}
				if start[0] != cellOutOfBounds {
					t.Errorf("cell 0 opened by sentinel agents: start=%d", start[0])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := rangesFromCells(t, tt.cells, 8)
			tt.check(t, start, end)
		})
	}
}

func TestBuildCellRangesEmpty(t *testing.T) {
	start, end := rangesFromCells(t, nil, 4)
	for c := 0; c < 4; c++ {
		if start[c] != cellOutOfBounds || end[c] != cellOutOfBounds {
			t.Errorf("cell %d not empty: [%d,%d)", c, start[c], end[c])
		}
	}
}

func TestSortByCell(t *testing.T) {
	const n = 2000
	const cellCount = 300

	rng := rand.New(rand.NewSource(42))
	pairs := make([]cellPair, n)
	for i := range pairs {
		c := int32(rng.Intn(cellCount + 1)) // cellCount maps to the sentinel
		if c == cellCount {
			c = cellOutOfBounds
		}
		pairs[i] = cellPair{cell: c, agent: int32(i)}
	}
	orig := make([]cellPair, n)
	copy(orig, pairs)

	scratch := make([]cellPair, n)
	sortByCell(pairs, scratch, cellCount)

	for i := 1; i < n; i++ {
		if pairs[i-1].cell > pairs[i].cell {
			t.Fatalf("pairs[%d].cell=%d > pairs[%d].cell=%d", i-1, pairs[i-1].cell, i, pairs[i].cell)
		}
	}

	// The agent payload must remain a permutation that still carries each
	// agent's original cell.
	cellOf := make(map[int32]int32, n)
	for _, p := range orig {
		cellOf[p.agent] = p.cell
	}
	seen := make(map[int32]bool, n)
	for _, p := range pairs {
		if seen[p.agent] {
			t.Fatalf("agent %d appears twice after sort", p.agent)
		}
		seen[p.agent] = true
		if cellOf[p.agent] != p.cell {
			t.Fatalf("agent %d: cell %d after sort, want %d", p.agent, p.cell, cellOf[p.agent])
		}
	}
}

func TestSortByCellSmall(t *testing.T) {
	pairs := []cellPair{{cell: 7, agent: 0}}
	sortByCell(pairs, make([]cellPair, 1), 8)
	if pairs[0].cell != 7 || pairs[0].agent != 0 {
		t.Errorf("single pair disturbed: %+v", pairs[0])
	}

	sortByCell(nil, nil, 8)
}
