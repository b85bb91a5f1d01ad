package sim

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Seed populates positions uniformly inside the scene and gives each agent
// a small random starting velocity. Placement is hashed per agent index, so
// the layout is deterministic for a given seed regardless of agent count or
// worker scheduling.
func (e *Engine) Seed(seed uint64) {
	s := e.sceneScale
	pos := e.pos
	vel := e.vel[e.cur]
	e.pool.forEach(e.n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			pos[i] = r3.Vec{
				X: (2*hashUnit(seed, i, 0) - 1) * s,
				Y: (2*hashUnit(seed, i, 1) - 1) * s,
				Z: (2*hashUnit(seed, i, 2) - 1) * s,
			}
			vel[i] = r3.Scale(e.params.maxSpeed, r3.Vec{
				X: 2*hashUnit(seed, i, 3) - 1,
				Y: 2*hashUnit(seed, i, 4) - 1,
				Z: 2*hashUnit(seed, i, 5) - 1,
			})
		}
	})
}

// hashUnit maps (seed, agent index, axis) to a float in [0, 1).
func hashUnit(seed uint64, index, axis int) float64 {
	var b [24]byte
	binary.LittleEndian.PutUint64(b[0:], seed)
	binary.LittleEndian.PutUint64(b[8:], uint64(index))
	binary.LittleEndian.PutUint64(b[16:], uint64(axis))
	h := xxhash.Sum64(b[:])
	return float64(h>>11) / (1 << 53)
}
