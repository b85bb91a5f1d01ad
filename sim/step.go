package sim

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// PhaseTimer receives phase boundary notifications during a step. The
// telemetry perf collector satisfies this; a nil timer disables timing.
type PhaseTimer interface {
	StartPhase(name string)
}

// Step phase names, in execution order.
const (
	PhaseIndex     = "index"
	PhaseSort      = "sort"
	PhaseBucket    = "bucket"
	PhaseReorder   = "reorder"
	PhaseSearch    = "search"
	PhaseIntegrate = "integrate"
)

// Step advances the simulation by one timestep using the given strategy.
// After return the current position/velocity buffers hold the fully
// integrated next state. Phases run in strict order with a barrier between
// them; neighbor search reads depend on globally complete index, sort and
// bucket writes.
func (e *Engine) Step(s Strategy, dt float64) {
	e.StepTimed(s, dt, nil)
}

// StepTimed is Step with per-phase timing reported to t.
func (e *Engine) StepTimed(s Strategy, dt float64, t PhaseTimer) {
	if e.n == 0 {
		e.step++
		return
	}

	switch s {
	case ScatteredGrid, CoherentGrid:
		e.buildSpatialIndex(t)
		if s == CoherentGrid {
			startPhase(t, PhaseReorder)
			e.gatherShadow()
		}
		startPhase(t, PhaseSearch)
		if s == CoherentGrid {
			e.searchCoherent()
		} else {
			e.searchScattered()
		}
	default:
		startPhase(t, PhaseSearch)
		e.searchBruteForce()
	}

	startPhase(t, PhaseIntegrate)
	e.integrate(dt)

	// Ping-pong swap: the buffer just written becomes current. Mutated
	// only here, between parallel phases.
	e.cur = 1 - e.cur
	e.step++
}

func startPhase(t PhaseTimer, name string) {
	if t != nil {
		t.StartPhase(name)
	}
}

// buildSpatialIndex runs phases 1-3: per-agent cell ids with the identity
// permutation, the sort by cell key, and the per-cell range tables.
func (e *Engine) buildSpatialIndex(t PhaseTimer) {
	startPhase(t, PhaseIndex)
	pos := e.pos
	e.pool.forEach(e.n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			e.pairs[i] = cellPair{cell: e.grid.cellOf(pos[i]), agent: int32(i)}
		}
	})

	// The sort is the one cross-element rearrangement; it completes
	// entirely before any downstream phase reads its output.
	startPhase(t, PhaseSort)
	sortByCell(e.pairs, e.scratch, e.grid.cellCount)

	startPhase(t, PhaseBucket)
	e.pool.forEach(e.grid.cellCount, func(c0, c1 int) {
		resetCellRanges(e.cellStart, e.cellEnd, c0, c1)
	})
	e.pool.forEach(e.n, func(i0, i1 int) {
		buildCellRanges(e.pairs, e.cellStart, e.cellEnd, i0, i1)
	})
}

// gatherShadow copies position/velocity into sorted order, so shadow slot k
// holds agent pairs[k].agent's data.
func (e *Engine) gatherShadow() {
	pos, vel := e.pos, e.vel[e.cur]
	e.pool.forEach(e.n, func(k0, k1 int) {
		for k := k0; k < k1; k++ {
			a := e.pairs[k].agent
			e.posShadow[k] = pos[a]
			e.velShadow[k] = vel[a]
		}
	})
}

// searchBruteForce evaluates the rules against the whole population.
func (e *Engine) searchBruteForce() {
	pos, velCur, velNext := e.pos, e.vel[e.cur], e.vel[1-e.cur]
	e.pool.forEach(e.n, func(i0, i1 int) {
		var acc ruleAccum
		for i := i0; i < i1; i++ {
			self := pos[i]
			acc.reset()
			for j := 0; j < e.n; j++ {
				if j == i {
					continue
				}
				acc.add(self, pos[j], velCur[j], &e.params)
			}
			velNext[i] = clampSpeed(r3.Add(velCur[i], acc.accel(self, &e.params)), e.params.maxSpeed)
		}
	})
}

// searchScattered evaluates the rules over the 3x3x3 block of cells around
// each agent, indirecting through the sorted permutation for every
// candidate since agent data is still in original order.
func (e *Engine) searchScattered() {
	pos, velCur, velNext := e.pos, e.vel[e.cur], e.vel[1-e.cur]
	e.pool.forEach(e.n, func(i0, i1 int) {
		var acc ruleAccum
		for i := i0; i < i1; i++ {
			self := pos[i]
			cx, cy, cz := e.grid.cellCoord(self)
			acc.reset()
			for dz := -1; dz <= 1; dz++ {
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						c := e.grid.cellID(cx+dx, cy+dy, cz+dz)
						if c == cellOutOfBounds || e.cellStart[c] == cellOutOfBounds {
							continue
						}
						for k := e.cellStart[c]; k < e.cellEnd[c]; k++ {
							j := e.pairs[k].agent
							if int(j) == i {
								continue
							}
							acc.add(self, pos[j], velCur[j], &e.params)
						}
					}
				}
			}
			velNext[i] = clampSpeed(r3.Add(velCur[i], acc.accel(self, &e.params)), e.params.maxSpeed)
		}
	})
}

// searchCoherent is searchScattered over the reordered shadow buffers: cell
// ranges index position/velocity memory directly, no indirection per
// candidate. Results scatter back through the permutation so the public
// buffers stay in original agent order.
func (e *Engine) searchCoherent() {
	velNext := e.vel[1-e.cur]
	e.pool.forEach(e.n, func(k0, k1 int) {
		var acc ruleAccum
		for k := k0; k < k1; k++ {
			self := e.posShadow[k]
			cx, cy, cz := e.grid.cellCoord(self)
			acc.reset()
			for dz := -1; dz <= 1; dz++ {
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						c := e.grid.cellID(cx+dx, cy+dy, cz+dz)
						if c == cellOutOfBounds || e.cellStart[c] == cellOutOfBounds {
							continue
						}
						for j := e.cellStart[c]; j < e.cellEnd[c]; j++ {
							if int(j) == k {
								continue
							}
							acc.add(self, e.posShadow[j], e.velShadow[j], &e.params)
						}
					}
				}
			}
			// Each task owns exactly one slot of velNext: agent ids are
			// unique across the permutation.
			velNext[e.pairs[k].agent] = clampSpeed(
				r3.Add(e.velShadow[k], acc.accel(self, &e.params)), e.params.maxSpeed)
		}
	})
}

// integrate advances positions by the newly written velocities and applies
// the toroidal wraparound: a coordinate past a scene bound resets to the
// opposite bound, it does not reflect or carry the overshoot.
func (e *Engine) integrate(dt float64) {
	pos, velNext := e.pos, e.vel[1-e.cur]
	s := e.sceneScale
	e.pool.forEach(e.n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			p := r3.Add(pos[i], r3.Scale(dt, velNext[i]))
			p.X = wrapAxis(p.X, s)
			p.Y = wrapAxis(p.Y, s)
			p.Z = wrapAxis(p.Z, s)
			pos[i] = p
		}
	})
}

func wrapAxis(v, bound float64) float64 {
	if v > bound {
		return -bound
	}
	if v < -bound {
		return bound
	}
	return v
}
