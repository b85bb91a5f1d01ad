package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/sim"
	"github.com/pthm-cable/flock/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	strategyName := flag.String("strategy", "coherent", "Neighbor search strategy: brute, scattered or coherent")
	count := flag.Int("n", 0, "Agent count (0 = use config)")
	seed := flag.Uint64("seed", 0, "Placement seed (0 = time-based)")
	maxSteps := flag.Int64("max-steps", 0, "Stop after N steps (0 = unlimited)")
	logStats := flag.Bool("log-stats", false, "Output perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and state snapshots")
	snapshotEvery := flag.Int64("snapshot-every", 0, "Steps between state snapshots (0 = final state only)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation steps per viewer frame")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *count > 0 {
		cfg.Population.Count = *count
	}

	strategy, err := sim.ParseStrategy(*strategyName)
	if err != nil {
		slog.Error("invalid strategy", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to initialize output", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write run config", "error", err)
		os.Exit(1)
	}

	engine, err := sim.New(cfg)
	if err != nil {
		slog.Error("failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()
	engine.Seed(rngSeed)

	run := &runner{
		cfg:           cfg,
		engine:        engine,
		strategy:      strategy,
		seed:          rngSeed,
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		output:        output,
		logStats:      *logStats,
		maxSteps:      *maxSteps,
		snapshotEvery: *snapshotEvery,
	}

	slog.Info("starting simulation",
		"n", engine.N(),
		"strategy", strategy.String(),
		"seed", rngSeed,
		"max_steps", *maxSteps,
		"headless", *headless,
	)

	if *headless {
		run.runHeadless()
	} else {
		run.runViewer(*stepsPerUpdate)
	}

	run.snapshot()
}

// runner drives the step loop and its telemetry.
type runner struct {
	cfg           *config.Config
	engine        *sim.Engine
	strategy      sim.Strategy
	seed          uint64
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	logStats      bool
	maxSteps      int64
	snapshotEvery int64
}

// stepOnce advances the simulation one step with timing, and flushes
// window stats at window boundaries.
func (r *runner) stepOnce() {
	r.perf.StartStep()
	r.engine.StepTimed(r.strategy, r.cfg.Physics.DT, r.perf)
	r.perf.EndStep()

	step := r.engine.StepCount()
	if interval := int64(r.cfg.Telemetry.LogInterval); interval > 0 && step%interval == 0 {
		stats := r.perf.Stats()
		if r.logStats {
			stats.LogStats()
		}
		if err := r.output.WritePerf(stats, step); err != nil {
			slog.Error("failed to write perf stats", "error", err)
		}
	}
	if r.snapshotEvery > 0 && step%r.snapshotEvery == 0 {
		r.snapshot()
	}
}

func (r *runner) done() bool {
	return r.maxSteps > 0 && r.engine.StepCount() >= r.maxSteps
}

func (r *runner) runHeadless() {
	for !r.done() {
		r.stepOnce()
	}
	slog.Info("max steps reached", "step", r.engine.StepCount())
}

func (r *runner) runViewer(stepsPerUpdate int) {
	cfg := r.cfg
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Flock")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	for !rl.WindowShouldClose() && !r.done() {
		for i := 0; i < stepsPerUpdate && !r.done(); i++ {
			r.stepOnce()
		}
		r.perf.RecordFrame()
		r.draw()
	}
}

// draw renders agents as points, projecting the XY plane to the screen and
// coloring by velocity direction.
func (r *runner) draw() {
	cfg := r.cfg
	scale := r.engine.SceneScale()
	sx := float64(cfg.Screen.Width) / (2 * scale)
	sy := float64(cfg.Screen.Height) / (2 * scale)
	maxSpeed := cfg.Physics.MaxSpeed

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	pos := r.engine.Positions()
	vel := r.engine.Velocities()
	for i := range pos {
		x := int32((pos[i].X + scale) * sx)
		y := int32((pos[i].Y + scale) * sy)
		c := rl.NewColor(
			velocityChannel(vel[i].X, maxSpeed),
			velocityChannel(vel[i].Y, maxSpeed),
			velocityChannel(vel[i].Z, maxSpeed),
			255,
		)
		rl.DrawPixel(x, y, c)
	}

	rl.DrawText(r.strategy.String(), 10, 10, 20, rl.RayWhite)
	rl.DrawFPS(10, 34)
	rl.EndDrawing()
}

// velocityChannel maps a velocity component in [-maxSpeed, maxSpeed] to a
// color channel, biased so slow agents stay visible.
func velocityChannel(v, maxSpeed float64) uint8 {
	u := (v/maxSpeed + 1) / 2
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	return uint8(95 + u*160)
}

// snapshot writes the current engine state into the output dir, when output
// is enabled.
func (r *runner) snapshot() {
	path := r.output.SnapshotPath(r.engine.StepCount())
	if path == "" {
		return
	}
	snap := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Seed:       r.seed,
		Step:       r.engine.StepCount(),
		Strategy:   r.strategy.String(),
		SceneScale: r.engine.SceneScale(),
		Positions:  r.engine.Positions(),
		Velocities: r.engine.Velocities(),
	}
	if err := telemetry.WriteSnapshot(path, snap); err != nil {
		slog.Error("failed to write snapshot", "error", err, "path", path)
	}
}
