package sim

import (
	"testing"

	"github.com/pthm-cable/flock/config"
)

func benchEngine(b *testing.B, n int) *Engine {
	b.Helper()
	cfg, err := config.Load("")
	if err != nil {
		b.Fatalf("loading default config: %v", err)
	}
	cfg.Population.Count = n
	e, err := New(cfg)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	b.Cleanup(e.Close)
	e.Seed(1)
	return e
}

func BenchmarkStepBruteForce(b *testing.B) {
	e := benchEngine(b, 1<<12)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Step(BruteForce, 0.2)
	}
}

func BenchmarkStepScatteredGrid(b *testing.B) {
	e := benchEngine(b, 1<<15)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Step(ScatteredGrid, 0.2)
	}
}

func BenchmarkStepCoherentGrid(b *testing.B) {
	e := benchEngine(b, 1<<15)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Step(CoherentGrid, 0.2)
	}
}

func BenchmarkSortByCell(b *testing.B) {
	e := benchEngine(b, 1<<15)
	e.buildSpatialIndex(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sortByCell(e.pairs, e.scratch, e.grid.cellCount)
	}
}
