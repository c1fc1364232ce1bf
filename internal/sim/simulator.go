// Package sim owns the simulation state machine and the tick loop.
// A single mutex serializes ticks against control commands: no tick
// overlaps a command and no command overlaps a tick.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/san-kum/crowdsim/internal/agent"
	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/env"
	"github.com/san-kum/crowdsim/internal/planner"
)

// A Publisher receives one snapshot per tick. Publishing is
// fire-and-forget: errors are logged at the loop boundary and never
// stop the simulation.
type Publisher interface {
	Publish(Snapshot) error
}

// An Observer is called once per tick while the simulation lock is
// held. Implementations must not retain the agent slice and must not
// call back into the simulator.
type Observer interface {
	OnTick(t float64, agents []*agent.Agent, arrivals int)
}

type Simulator struct {
	mu      sync.Mutex
	cfg     config.Config
	world   *env.Environment
	pool    *env.Pool
	reg     *agent.Registry
	plan    *planner.Planner
	rng     *rand.Rand
	clock   float64
	running bool
	last    Snapshot
	stop    chan struct{}

	pub       Publisher
	observers []Observer
	log       *slog.Logger
}

// New builds a simulator. The simulation state does not exist until
// the first Reset; Start before Reset is a no-op. pub may be nil.
func New(pub Publisher, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{
		plan: planner.New(),
		pub:  pub,
		log:  log,
	}
}

// AddObserver registers a per-tick observer. Call before Start.
func (s *Simulator) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Reset stops the loop if it is running, clamps the config, regenerates
// the environment and agents, and returns the effective configuration
// along with notes describing every adjustment and placement shortfall.
// It never fails.
func (s *Simulator) Reset(cfg config.Config) (config.Config, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	eff, notes := cfg.Clamp()
	if eff.Seed == 0 {
		eff.Seed = time.Now().UnixNano()
	}

	s.rng = rand.New(rand.NewSource(eff.Seed))
	s.world = env.Generate(eff, s.rng)
	s.pool = env.NewPool(s.world.Destinations)

	var agentShortfall int
	s.reg, agentShortfall = agent.Spawn(eff, s.world, s.pool, s.rng)

	if s.world.ObstacleShortfall > 0 {
		notes = append(notes, fmt.Sprintf("placed %d of %d obstacles", len(s.world.Obstacles), eff.ObstacleCount))
	}
	if agentShortfall > 0 {
		notes = append(notes, fmt.Sprintf("placed %d of %d agents", s.reg.Len(), eff.PersonCount))
	}

	s.cfg = eff
	s.clock = 0
	for _, o := range s.observers {
		if r, ok := o.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
	s.last = buildSnapshot(s.clock, s.running, s.world, s.reg)

	return eff, notes
}

// Start begins ticking at the configured interval. Calling Start while
// already running is a no-op.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.world == nil {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.last = buildSnapshot(s.clock, s.running, s.world, s.reg)

	go s.loop(s.stop, s.cfg.Dt)
}

// Stop halts the tick loop. Idempotent; takes effect by the next tick
// boundary.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Simulator) stopLocked() {
	if !s.running {
		return
	}
	s.running = false
	close(s.stop)
	s.stop = nil
	s.last = buildSnapshot(s.clock, s.running, s.world, s.reg)
}

// Running reports whether the tick loop is active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetState returns the latest snapshot. Safe to call at any time,
// including while stopped; while stopped it returns the same snapshot
// on every call.
func (s *Simulator) GetState() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Config returns the effective configuration of the current run.
func (s *Simulator) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// loop drives ticks on a wall-clock interval until stop closes. The
// ticker drops missed ticks, so a slow tick is followed by the most
// recent due tick rather than a burst of catch-up ticks.
func (s *Simulator) loop(stop <-chan struct{}, dt float64) {
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick advances the simulation by one step. No fault originating
// inside a tick propagates past it.
func (s *Simulator) tick() {
	snap, ok := s.step()
	if !ok {
		return
	}
	if s.pub == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("publisher panicked", "cause", r)
		}
	}()
	if err := s.pub.Publish(snap); err != nil {
		s.log.Warn("publish failed", "err", err)
	}
}

// Step advances the simulation one tick synchronously, without the
// wall-clock driver. Exposed for headless runs and tests.
func (s *Simulator) Step() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked()
}

func (s *Simulator) step() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		// a stop raced the ticker
		return Snapshot{}, false
	}
	return s.stepLocked(), true
}

func (s *Simulator) stepLocked() (snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tick fault contained", "cause", r, "time", s.clock)
			snap = s.last
		}
	}()

	agents := s.reg.All()
	dt := s.cfg.Dt

	s.plan.Plan(agents, s.world, s.cfg.ArrivalTolerance, dt)

	for _, a := range agents {
		next := a.Pos.Add(a.Vel.Scale(dt))
		if !next.IsFinite() {
			next = a.Pos
		}
		a.Pos = s.world.Bounds.ClampPoint(next, a.Radius)
	}

	arrivals := 0
	for _, a := range agents {
		if a.Arrived(s.cfg.ArrivalTolerance) {
			a.Dest = s.pool.Pick(s.rng, a.Dest)
			arrivals++
		}
	}

	s.clock += dt

	for _, o := range s.observers {
		o.OnTick(s.clock, agents, arrivals)
	}

	s.last = buildSnapshot(s.clock, s.running, s.world, s.reg)
	return s.last
}
