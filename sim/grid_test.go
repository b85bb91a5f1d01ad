package sim

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/config"
)

// testConfig returns the embedded defaults with a small population.
func testConfig(t *testing.T, n int) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	cfg.Population.Count = n
	return cfg
}

func defaultGrid(t *testing.T) grid {
	t.Helper()
	return newGrid(testConfig(t, 0).Derived)
}

func TestGridGeometryDefaults(t *testing.T) {
	g := defaultGrid(t)

	// Largest rule radius is 5, so cells are 10 wide; scene scale 100
	// gives 11 half-cells per side, 22 cells per axis.
	if g.cellWidth != 10 {
		t.Errorf("cellWidth = %v, want 10", g.cellWidth)
	}
	if g.sideCount != 22 {
		t.Errorf("sideCount = %v, want 22", g.sideCount)
	}
	if g.cellCount != 22*22*22 {
		t.Errorf("cellCount = %v, want %v", g.cellCount, 22*22*22)
	}
	if g.min.X != -110 {
		t.Errorf("min.X = %v, want -110", g.min.X)
	}
}

func TestCellCoord(t *testing.T) {
	g := defaultGrid(t)

	tests := []struct {
		name    string
		pos     r3.Vec
		x, y, z int
	}{
		{"min corner", r3.Vec{X: -110, Y: -110, Z: -110}, 0, 0, 0},
		{"origin", r3.Vec{}, 11, 11, 11},
		{"interior", r3.Vec{X: -104.5, Y: 3, Z: 57}, 0, 11, 16},
		{"cell edge belongs to upper cell", r3.Vec{X: -100, Y: -110, Z: -110}, 1, 0, 0},
		{"far edge clamps to last cell", r3.Vec{X: 110, Y: 110, Z: 110}, 21, 21, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := g.cellCoord(tt.pos)
			if x != tt.x || y != tt.y || z != tt.z {
				t.Errorf("cellCoord(%v) = (%d,%d,%d), want (%d,%d,%d)",
					tt.pos, x, y, z, tt.x, tt.y, tt.z)
			}
		})
	}
}

func TestCellID(t *testing.T) {
	g := defaultGrid(t)
	side := int32(g.sideCount)

	if got := g.cellID(0, 0, 0); got != 0 {
		t.Errorf("cellID(0,0,0) = %d, want 0", got)
	}
	if got, want := g.cellID(3, 2, 1), 3+2*side+1*side*side; got != want {
		t.Errorf("cellID(3,2,1) = %d, want %d", got, want)
	}

	outOfBounds := [][3]int{
		{-1, 0, 0},
		{0, -1, 0},
		{0, 0, -1},
		{g.sideCount, 0, 0},
		{0, g.sideCount, 0},
		{0, 0, g.sideCount},
	}
	for _, c := range outOfBounds {
		if got := g.cellID(c[0], c[1], c[2]); got != cellOutOfBounds {
			t.Errorf("cellID(%v) = %d, want sentinel", c, got)
		}
	}
}

func TestCellOfOutsideGrid(t *testing.T) {
	g := defaultGrid(t)

	for _, p := range []r3.Vec{
		{X: -500},
		{Y: 1e6},
		{Z: -110.0001},
	} {
		if got := g.cellOf(p); got != cellOutOfBounds {
			t.Errorf("cellOf(%v) = %d, want sentinel", p, got)
		}
	}
}
