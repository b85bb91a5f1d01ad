package telemetry

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/sugawarayuuta/sonnet"
	"gonum.org/v1/gonum/spatial/r3"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the simulation state at one step boundary, for offline
// analysis or replay. Stored as zstd-compressed JSON.
type Snapshot struct {
	Version    int      `json:"version"`
	Seed       uint64   `json:"seed"`
	Step       int64    `json:"step"`
	Strategy   string   `json:"strategy"`
	SceneScale float64  `json:"scene_scale"`
	Positions  []r3.Vec `json:"positions"`
	Velocities []r3.Vec `json:"velocities"`
}

// WriteSnapshot writes s to path as zstd-compressed JSON. Must only be
// called between steps; the position/velocity slices are read during the
// call.
func WriteSnapshot(path string, s *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if err := sonnet.NewEncoder(enc).Encode(s); err != nil {
		enc.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()

	s := &Snapshot{}
	if err := sonnet.NewDecoder(dec).Decode(s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return s, nil
}
