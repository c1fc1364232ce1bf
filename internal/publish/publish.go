// Package publish provides local snapshot publishers: a structured-log
// summary, a fan-out broadcaster, and a function adapter. The real-time
// transport layer lives outside this repo and plugs in through the same
// sim.Publisher interface.
package publish

import (
	"log/slog"

	"github.com/san-kum/crowdsim/internal/sim"
)

// Func adapts a plain function to sim.Publisher.
type Func func(sim.Snapshot) error

func (f Func) Publish(s sim.Snapshot) error { return f(s) }

// A Broadcaster fans one snapshot out to several publishers. A failing
// subscriber never blocks the others; the first error is returned for
// the loop boundary to log.
type Broadcaster struct {
	subs []sim.Publisher
}

func NewBroadcaster(subs ...sim.Publisher) *Broadcaster {
	return &Broadcaster{subs: subs}
}

func (b *Broadcaster) Add(p sim.Publisher) { b.subs = append(b.subs, p) }

func (b *Broadcaster) Publish(s sim.Snapshot) error {
	var first error
	for _, p := range b.subs {
		if err := p.Publish(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// A SlogPublisher logs a one-line summary every Interval ticks.
type SlogPublisher struct {
	Log      *slog.Logger
	Interval int
	count    int
}

func NewSlogPublisher(log *slog.Logger, interval int) *SlogPublisher {
	if log == nil {
		log = slog.Default()
	}
	if interval < 1 {
		interval = 1
	}
	return &SlogPublisher{Log: log, Interval: interval}
}

func (p *SlogPublisher) Publish(s sim.Snapshot) error {
	p.count++
	if p.count%p.Interval != 0 {
		return nil
	}
	p.Log.Info("tick", "time", s.Time, "agents", len(s.Agents), "running", s.Running)
	return nil
}
