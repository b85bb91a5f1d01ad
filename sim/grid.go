// Package sim implements the spatial-neighbor flocking simulation engine.
package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/config"
)

// cellOutOfBounds marks a cell id outside the precomputed grid. Agents in
// such cells contribute to no cell range for the step; the integrator wraps
// them back in bounds at step end.
const cellOutOfBounds int32 = -1

// grid holds the fixed uniform-grid geometry. It carries no mutable state,
// so its methods are safe to call from any worker.
type grid struct {
	cellWidth    float64
	invCellWidth float64
	sideCount    int
	cellCount    int
	min          r3.Vec
}

func newGrid(d config.DerivedConfig) grid {
	return grid{
		cellWidth:    d.CellWidth,
		invCellWidth: d.InvCellWidth,
		sideCount:    d.SideCount,
		cellCount:    d.CellCount,
		min:          r3.Vec{X: d.GridMin, Y: d.GridMin, Z: d.GridMin},
	}
}

// cellCoord returns the 3-D cell coordinate containing p. A coordinate that
// lands exactly on the far edge of the grid is pulled back to the last valid
// index; float rounding can otherwise push a position at the boundary one
// cell too far. Positions outside the grid yield out-of-range coordinates,
// which cellID maps to the sentinel.
func (g grid) cellCoord(p r3.Vec) (x, y, z int) {
	x = g.axisCoord(p.X - g.min.X)
	y = g.axisCoord(p.Y - g.min.Y)
	z = g.axisCoord(p.Z - g.min.Z)
	return x, y, z
}

func (g grid) axisCoord(offset float64) int {
	c := int(math.Floor(offset * g.invCellWidth))
	if c == g.sideCount {
		c = g.sideCount - 1
	}
	return c
}

// cellID converts a 3-D cell coordinate to a flat cell id, or
// cellOutOfBounds if any coordinate falls outside the grid.
func (g grid) cellID(x, y, z int) int32 {
	if x < 0 || x >= g.sideCount ||
		y < 0 || y >= g.sideCount ||
		z < 0 || z >= g.sideCount {
		return cellOutOfBounds
	}
	return int32(x + y*g.sideCount + z*g.sideCount*g.sideCount)
}

// cellOf returns the flat cell id containing p.
func (g grid) cellOf(p r3.Vec) int32 {
	x, y, z := g.cellCoord(p)
	return g.cellID(x, y, z)
}
