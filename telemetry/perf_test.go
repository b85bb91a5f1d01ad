package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorPhases(t *testing.T) {
	p := NewPerfCollector(10)

	p.StartStep()
	p.StartPhase("index")
	time.Sleep(time.Millisecond)
	p.StartPhase("search")
	time.Sleep(time.Millisecond)
	p.EndStep()

	stats := p.Stats()
	if stats.AvgStepDuration <= 0 {
		t.Errorf("AvgStepDuration = %v, want > 0", stats.AvgStepDuration)
	}
	if stats.PhaseAvg["index"] <= 0 {
		t.Errorf("index phase duration = %v, want > 0", stats.PhaseAvg["index"])
	}
	if stats.PhaseAvg["search"] <= 0 {
		t.Errorf("search phase duration = %v, want > 0", stats.PhaseAvg["search"])
	}

	var pctSum float64
	for _, pct := range stats.PhasePct {
		pctSum += pct
	}
	if pctSum < 50 || pctSum > 101 {
		t.Errorf("phase percentages sum to %v", pctSum)
	}
}

func TestPerfCollectorWindowRolls(t *testing.T) {
	p := NewPerfCollector(4)

	for i := 0; i < 10; i++ {
		p.StartStep()
		p.EndStep()
	}

	if p.sampleCount != 4 {
		t.Errorf("sampleCount = %d, want capped at 4", p.sampleCount)
	}

	stats := p.Stats()
	if stats.MinStepDuration > stats.AvgStepDuration || stats.AvgStepDuration > stats.MaxStepDuration {
		t.Errorf("min/avg/max ordering violated: %v / %v / %v",
			stats.MinStepDuration, stats.AvgStepDuration, stats.MaxStepDuration)
	}
	if stats.P50StepDuration > stats.P95StepDuration {
		t.Errorf("p50 %v > p95 %v", stats.P50StepDuration, stats.P95StepDuration)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	p := NewPerfCollector(8)
	stats := p.Stats()
	if stats.AvgStepDuration != 0 || stats.StepsPerSecond != 0 {
		t.Errorf("empty collector produced stats: %+v", stats)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	p := NewPerfCollector(2)
	p.StartStep()
	p.StartPhase("sort")
	time.Sleep(time.Millisecond)
	p.EndStep()

	rec := p.Stats().ToCSV(120)
	if rec.WindowEnd != 120 {
		t.Errorf("WindowEnd = %d, want 120", rec.WindowEnd)
	}
	if rec.SortPct <= 0 {
		t.Errorf("SortPct = %v, want > 0", rec.SortPct)
	}
}
