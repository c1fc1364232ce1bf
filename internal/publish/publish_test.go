package publish

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/san-kum/crowdsim/internal/sim"
)

func TestBroadcasterFanOut(t *testing.T) {
	var got []int
	sub := func(id int) sim.Publisher {
		return Func(func(sim.Snapshot) error {
			got = append(got, id)
			return nil
		})
	}

	b := NewBroadcaster(sub(1), sub(2))
	b.Add(sub(3))

	if err := b.Publish(sim.Snapshot{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("delivery order = %v", got)
	}
}

func TestBroadcasterFailureDoesNotBlockOthers(t *testing.T) {
	delivered := false
	bad := Func(func(sim.Snapshot) error { return errors.New("down") })
	good := Func(func(sim.Snapshot) error {
		delivered = true
		return nil
	})

	b := NewBroadcaster(bad, good)
	err := b.Publish(sim.Snapshot{})

	if err == nil {
		t.Error("expected the first error back")
	}
	if !delivered {
		t.Error("a failing subscriber blocked a later one")
	}
}

func TestSlogPublisherInterval(t *testing.T) {
	p := NewSlogPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)), 10)

	for i := 0; i < 25; i++ {
		if err := p.Publish(sim.Snapshot{Time: float64(i)}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if p.count != 25 {
		t.Errorf("count = %d, want 25", p.count)
	}
}
