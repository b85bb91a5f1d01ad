package sim

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/config"
)

// ruleParams holds the flocking rule constants with radii pre-squared for
// the hot path.
type ruleParams struct {
	cohesionRadiusSq   float64
	separationRadiusSq float64
	alignmentRadiusSq  float64
	cohesionWeight     float64
	separationWeight   float64
	alignmentWeight    float64
	maxSpeed           float64
}

func newRuleParams(rules config.RulesConfig, physics config.PhysicsConfig) ruleParams {
	return ruleParams{
		cohesionRadiusSq:   rules.CohesionRadius * rules.CohesionRadius,
		separationRadiusSq: rules.SeparationRadius * rules.SeparationRadius,
		alignmentRadiusSq:  rules.AlignmentRadius * rules.AlignmentRadius,
		cohesionWeight:     rules.CohesionWeight,
		separationWeight:   rules.SeparationWeight,
		alignmentWeight:    rules.AlignmentWeight,
		maxSpeed:           physics.MaxSpeed,
	}
}

// ruleAccum accumulates rule contributions from candidate neighbors for one
// agent. Candidates are fed one at a time; the caller is responsible for
// never feeding the agent itself.
type ruleAccum struct {
	center  r3.Vec // Sum of positions within the cohesion radius
	centerN int
	repel   r3.Vec // Negated sum of offsets within the separation radius
	heading r3.Vec // Sum of velocities within the alignment radius
}

func (a *ruleAccum) reset() {
	*a = ruleAccum{}
}

// add considers one candidate neighbor at otherPos/otherVel, as seen from
// self. Each rule applies independently within its own radius.
func (a *ruleAccum) add(self, otherPos, otherVel r3.Vec, p *ruleParams) {
	d := r3.Sub(otherPos, self)
	distSq := r3.Norm2(d)

	if distSq < p.cohesionRadiusSq {
		a.center = r3.Add(a.center, otherPos)
		a.centerN++
	}
	if distSq < p.separationRadiusSq {
		a.repel = r3.Sub(a.repel, d)
	}
	if distSq < p.alignmentRadiusSq {
		a.heading = r3.Add(a.heading, otherVel)
	}
}

// accel returns the summed weighted acceleration for the agent at self.
// Cohesion steers toward the average candidate position, separation away
// from close candidates, alignment along the summed candidate velocities.
func (a *ruleAccum) accel(self r3.Vec, p *ruleParams) r3.Vec {
	var out r3.Vec
	if a.centerN > 0 {
		center := r3.Scale(1/float64(a.centerN), a.center)
		out = r3.Add(out, r3.Scale(p.cohesionWeight, r3.Sub(center, self)))
	}
	out = r3.Add(out, r3.Scale(p.separationWeight, a.repel))
	out = r3.Add(out, r3.Scale(p.alignmentWeight, a.heading))
	return out
}

// clampSpeed limits v to maxSpeed while preserving its direction. The zero
// vector is returned as-is rather than normalized.
func clampSpeed(v r3.Vec, maxSpeed float64) r3.Vec {
	n := r3.Norm(v)
	if n == 0 || n <= maxSpeed {
		return v
	}
	return r3.Scale(maxSpeed/n, v)
}
