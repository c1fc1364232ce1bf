// Package storage records simulation runs to disk: one directory per
// run holding metadata.json and a snapshots.jsonl stream.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Config    config.Config      `json:"config"`
	Ticks     int                `json:"ticks"`
	Notes     []string           `json:"notes,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// A Recorder implements sim.Publisher by appending every snapshot to a
// run directory. Close writes the final metadata.
type Recorder struct {
	store *Store
	meta  RunMetadata
	file  *os.File
	w     *bufio.Writer
	enc   *json.Encoder
}

// NewRecorder opens a fresh run directory under the store.
func (s *Store) NewRecorder(cfg config.Config, notes []string) (*Recorder, error) {
	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	file, err := os.Create(filepath.Join(runDir, "snapshots.jsonl"))
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriter(file)
	return &Recorder{
		store: s,
		meta: RunMetadata{
			ID:        runID,
			Timestamp: time.Now(),
			Config:    cfg,
			Notes:     notes,
		},
		file: file,
		w:    w,
		enc:  json.NewEncoder(w),
	}, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

func (r *Recorder) Publish(snap sim.Snapshot) error {
	if err := r.enc.Encode(snap); err != nil {
		return err
	}
	r.meta.Ticks++
	return nil
}

// Close flushes the snapshot stream and writes metadata.json,
// attaching the final metric values.
func (r *Recorder) Close(metrics map[string]float64) error {
	r.meta.Metrics = metrics

	if err := r.w.Flush(); err != nil {
		r.file.Close()
		return err
	}
	if err := r.file.Close(); err != nil {
		return err
	}

	metaPath := filepath.Join(r.store.baseDir, r.meta.ID, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(r.meta)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSnapshots reads the recorded snapshot stream of a run. Corrupt
// trailing lines are skipped rather than failing the whole load.
func (s *Store) LoadSnapshots(runID string) ([]sim.Snapshot, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "snapshots.jsonl"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snaps []sim.Snapshot
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<22)
	for sc.Scan() {
		var snap sim.Snapshot
		if err := json.Unmarshal(sc.Bytes(), &snap); err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, sc.Err()
}
