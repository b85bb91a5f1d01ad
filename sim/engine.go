package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/config"
)

// Strategy selects how a step gathers neighbor candidates.
type Strategy int

const (
	// BruteForce tests every other agent. O(N²); the correctness baseline.
	BruteForce Strategy = iota
	// ScatteredGrid walks the 3x3x3 cell block and indirects through the
	// sorted permutation to reach agent data in original order.
	ScatteredGrid
	// CoherentGrid walks the same cell block over position/velocity copies
	// physically reordered into sorted order, so cell ranges index agent
	// data directly.
	CoherentGrid
)

func (s Strategy) String() string {
	switch s {
	case BruteForce:
		return "brute"
	case ScatteredGrid:
		return "scattered"
	case CoherentGrid:
		return "coherent"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a CLI/config name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "brute":
		return BruteForce, nil
	case "scattered":
		return ScatteredGrid, nil
	case "coherent":
		return CoherentGrid, nil
	}
	return 0, fmt.Errorf("unknown strategy %q (want brute, scattered or coherent)", name)
}

// Engine holds the complete simulation state: the position buffer, the
// velocity ping-pong pair, and the spatial index rebuilt every step.
//
// Velocities are double-buffered because each agent's new velocity depends
// on other agents' old velocities; writes always go to the buffer not being
// read, and the two swap roles between steps, never inside one.
type Engine struct {
	n          int
	sceneScale float64
	grid       grid
	params     ruleParams
	pool       *workerPool
	step       int64

	// Agent state, indexed by agent. pos is always in original agent
	// order; cur selects which of the vel pair is current (read-only
	// during a step).
	pos []r3.Vec
	vel [2][]r3.Vec
	cur int

	// Spatial index, rebuilt every step.
	pairs     []cellPair
	scratch   []cellPair
	cellStart []int32
	cellEnd   []int32

	// Coherent-mode shadow buffers: slot k holds agent pairs[k].agent's
	// data after the gather phase.
	posShadow []r3.Vec
	velShadow []r3.Vec
}

// New allocates all engine buffers and derives the grid geometry from cfg.
// Allocation problems are fatal: any invalid size aborts with a diagnostic
// naming the buffer, and no partially-initialized engine is returned.
func New(cfg *config.Config) (*Engine, error) {
	n := cfg.Population.Count
	if n < 0 {
		return nil, fmt.Errorf("position buffer: negative agent count %d", n)
	}
	if cfg.World.SceneScale <= 0 {
		return nil, fmt.Errorf("grid geometry: scene scale %v must be positive", cfg.World.SceneScale)
	}
	if cfg.Rules.MaxRadius() <= 0 {
		return nil, fmt.Errorf("grid geometry: largest rule radius %v must be positive", cfg.Rules.MaxRadius())
	}
	g := newGrid(cfg.Derived)
	if g.cellCount <= 0 {
		return nil, fmt.Errorf("cell start/end tables: invalid cell count %d", g.cellCount)
	}

	e := &Engine{
		n:          n,
		sceneScale: cfg.World.SceneScale,
		grid:       g,
		params:     newRuleParams(cfg.Rules, cfg.Physics),
		pool:       newWorkerPool(),

		pos:       make([]r3.Vec, n),
		pairs:     make([]cellPair, n),
		scratch:   make([]cellPair, n),
		cellStart: make([]int32, g.cellCount),
		cellEnd:   make([]int32, g.cellCount),
		posShadow: make([]r3.Vec, n),
		velShadow: make([]r3.Vec, n),
	}
	e.vel[0] = make([]r3.Vec, n)
	e.vel[1] = make([]r3.Vec, n)
	return e, nil
}

// N returns the agent count.
func (e *Engine) N() int { return e.n }

// StepCount returns the number of completed steps.
func (e *Engine) StepCount() int64 { return e.step }

// SceneScale returns the simulation-space bound; positions stay within
// [-SceneScale, SceneScale] on every axis.
func (e *Engine) SceneScale() float64 { return e.sceneScale }

// Positions returns the position buffer. The view is valid to read only
// between steps, never concurrently with a Step in progress.
func (e *Engine) Positions() []r3.Vec { return e.pos }

// Velocities returns the current velocity buffer, under the same contract
// as Positions.
func (e *Engine) Velocities() []r3.Vec { return e.vel[e.cur] }

// SetState overwrites agent positions and velocities. The placement policy
// itself is the host's concern; Seed provides the default one. Slices
// shorter than N leave the remaining agents untouched.
func (e *Engine) SetState(pos, vel []r3.Vec) {
	copy(e.pos, pos)
	copy(e.vel[e.cur], vel)
}

// Close stops the worker pool and releases all buffers. The engine must not
// be used afterwards.
func (e *Engine) Close() {
	e.pool.stop()
	e.pos = nil
	e.vel[0] = nil
	e.vel[1] = nil
	e.pairs = nil
	e.scratch = nil
	e.cellStart = nil
	e.cellEnd = nil
	e.posShadow = nil
	e.velShadow = nil
}
