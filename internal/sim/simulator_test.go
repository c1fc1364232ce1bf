package sim

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/san-kum/crowdsim/internal/config"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Seed = 42
	cfg.PersonCount = 10
	return cfg
}

func newTestSim(pub Publisher) *Simulator {
	return New(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResetReturnsEffectiveConfig(t *testing.T) {
	s := newTestSim(nil)

	cfg := testConfig()
	cfg.PersonCount = -3
	cfg.ObstacleShape = "hexagon"

	eff, notes := s.Reset(cfg)

	if eff.PersonCount != 0 {
		t.Errorf("expected clamped person count 0, got %d", eff.PersonCount)
	}
	if eff.ObstacleShape != config.ShapeRandom {
		t.Errorf("expected shape fallback, got %q", eff.ObstacleShape)
	}
	if len(notes) < 2 {
		t.Errorf("expected clamp notes, got %v", notes)
	}
}

func TestResetZeroAgents(t *testing.T) {
	s := newTestSim(nil)

	cfg := testConfig()
	cfg.PersonCount = 0
	s.Reset(cfg)

	snap := s.Step()
	if len(snap.Agents) != 0 {
		t.Errorf("expected 0 agents in snapshot, got %d", len(snap.Agents))
	}
}

func TestResetCircleObstacles(t *testing.T) {
	s := newTestSim(nil)

	cfg := testConfig()
	cfg.ObstacleCount = 5
	cfg.ObstacleShape = config.ShapeCircle
	_, notes := s.Reset(cfg)

	snap := s.GetState()
	for i, o := range snap.Environment.Obstacles {
		if o.Type != "circle" {
			t.Errorf("obstacle %d has type %q, want circle", i, o.Type)
		}
		if o.Radius <= 0 {
			t.Errorf("obstacle %d has non-positive radius", i)
		}
	}
	if len(snap.Environment.Obstacles) != 5 && len(notes) == 0 {
		t.Errorf("placed %d obstacles with no shortfall note", len(snap.Environment.Obstacles))
	}
}

func TestStartIdempotent(t *testing.T) {
	s := newTestSim(nil)
	s.Reset(testConfig())

	s.Start()
	s.Start()

	if !s.Running() {
		t.Error("expected running after Start")
	}

	s.Stop()
	if s.Running() {
		t.Error("one Stop must suffice after repeated Starts")
	}
	s.Stop() // idempotent
}

func TestStartBeforeResetIsNoop(t *testing.T) {
	s := newTestSim(nil)
	s.Start()
	if s.Running() {
		t.Error("Start before the first Reset should be a no-op")
	}
}

func TestGetStateStableWhileStopped(t *testing.T) {
	s := newTestSim(nil)
	s.Reset(testConfig())

	first := s.GetState()
	time.Sleep(20 * time.Millisecond)
	second := s.GetState()

	if !reflect.DeepEqual(first, second) {
		t.Error("snapshot changed while stopped")
	}
	if first.Running {
		t.Error("stopped snapshot reports running")
	}
}

func TestStepAdvancesClock(t *testing.T) {
	s := newTestSim(nil)
	cfg := testConfig()
	s.Reset(cfg)

	before := s.GetState()
	after := s.Step()

	if after.Time <= before.Time {
		t.Errorf("clock did not advance: %f -> %f", before.Time, after.Time)
	}
	if diff := after.Time - before.Time; diff < cfg.Dt*0.99 || diff > cfg.Dt*1.01 {
		t.Errorf("clock advanced by %f, want %f", diff, cfg.Dt)
	}
}

func TestSnapshotDetachedFromState(t *testing.T) {
	s := newTestSim(nil)
	s.Reset(testConfig())

	snap := s.Step()
	positions := make([]Point, len(snap.Agents))
	for i, a := range snap.Agents {
		positions[i] = a.Position
	}

	// more ticks mutate the registry; the old snapshot must not move
	for i := 0; i < 10; i++ {
		s.Step()
	}

	for i, a := range snap.Agents {
		if a.Position != positions[i] {
			t.Errorf("agent %d position in old snapshot changed", i)
		}
	}
}

func TestSeparationMaintained(t *testing.T) {
	s := newTestSim(nil)
	cfg := testConfig()
	cfg.PersonCount = 20
	s.Reset(cfg)

	const eps = 0.05
	minGap := 1e9

	for tick := 0; tick < 200; tick++ {
		snap := s.Step()
		for i := 0; i < len(snap.Agents); i++ {
			for j := i + 1; j < len(snap.Agents); j++ {
				a, b := snap.Agents[i].Position, snap.Agents[j].Position
				dx, dy := a.X-b.X, a.Y-b.Y
				gap := math.Hypot(dx, dy) - 2*cfg.AgentRadius
				if gap < minGap {
					minGap = gap
				}
			}
		}
	}

	if minGap < -eps {
		t.Errorf("agents overlapped by %f", -minGap)
	}
}

func TestPublishFailureDoesNotStopLoop(t *testing.T) {
	failing := publisherFunc(func(Snapshot) error { return errors.New("transport down") })
	s := newTestSim(failing)
	s.Reset(testConfig())

	// tick() publishes and must swallow the error
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.GetState().Time > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("loop made no progress with a failing publisher")
}

func TestPublisherPanicContained(t *testing.T) {
	boom := publisherFunc(func(Snapshot) error { panic("publisher bug") })
	s := newTestSim(boom)
	s.Reset(testConfig())

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.GetState().Time > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("loop made no progress with a panicking publisher")
}

type publisherFunc func(Snapshot) error

func (f publisherFunc) Publish(s Snapshot) error { return f(s) }

func TestResetWhileRunningStops(t *testing.T) {
	s := newTestSim(nil)
	s.Reset(testConfig())

	s.Start()
	s.Reset(testConfig())

	if s.Running() {
		t.Error("Reset must leave the simulation stopped")
	}
	if got := s.GetState().Time; got != 0 {
		t.Errorf("Reset must zero the clock, got %f", got)
	}
}
