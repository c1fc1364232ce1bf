// Package metrics provides per-tick crowd observers. Each type
// satisfies sim.Observer and carries a scalar summary for run metadata.
package metrics

import (
	"math"

	"github.com/san-kum/crowdsim/internal/agent"
)

type Metric interface {
	Name() string
	OnTick(t float64, agents []*agent.Agent, arrivals int)
	Value() float64
	Reset()
}

// MinSeparation tracks the smallest boundary-to-boundary gap between
// any agent pair over the run. Negative values mean overlap.
type MinSeparation struct {
	min float64
	set bool

	// Series holds the per-tick minimum gap for plotting.
	Series []float64
}

func NewMinSeparation() *MinSeparation { return &MinSeparation{} }

func (m *MinSeparation) Name() string { return "min_separation" }

func (m *MinSeparation) OnTick(t float64, agents []*agent.Agent, arrivals int) {
	tickMin := math.Inf(1)
	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			gap := agents[i].Pos.Dist(agents[j].Pos) - agents[i].Radius - agents[j].Radius
			if gap < tickMin {
				tickMin = gap
			}
		}
	}
	if math.IsInf(tickMin, 1) {
		return
	}
	m.Series = append(m.Series, tickMin)
	if !m.set || tickMin < m.min {
		m.min = tickMin
		m.set = true
	}
}

func (m *MinSeparation) Value() float64 {
	if !m.set {
		return 0
	}
	return m.min
}

func (m *MinSeparation) Reset() {
	m.min = 0
	m.set = false
	m.Series = nil
}

// Arrivals counts destination reassignments over the run.
type Arrivals struct {
	total int
}

func NewArrivals() *Arrivals { return &Arrivals{} }

func (a *Arrivals) Name() string { return "arrivals" }

func (a *Arrivals) OnTick(t float64, agents []*agent.Agent, arrivals int) {
	a.total += arrivals
}

func (a *Arrivals) Value() float64 { return float64(a.total) }
func (a *Arrivals) Reset()         { a.total = 0 }

// MeanSpeed averages agent speed across all ticks and agents.
type MeanSpeed struct {
	sum     float64
	samples int
}

func NewMeanSpeed() *MeanSpeed { return &MeanSpeed{} }

func (m *MeanSpeed) Name() string { return "mean_speed" }

func (m *MeanSpeed) OnTick(t float64, agents []*agent.Agent, arrivals int) {
	for _, a := range agents {
		m.sum += a.Vel.Len()
		m.samples++
	}
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.sum = 0
	m.samples = 0
}
