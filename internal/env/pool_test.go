package env

import (
	"math/rand"
	"testing"

	"github.com/san-kum/crowdsim/internal/geom"
)

func TestPoolPickExcludesRepeat(t *testing.T) {
	points := []geom.Vec{{X: 1}, {X: 2}, {X: 3}}
	pool := NewPool(points)
	rng := rand.New(rand.NewSource(1))

	last := points[0]
	for i := 0; i < 200; i++ {
		got := pool.Pick(rng, last)
		if got == last {
			t.Fatalf("pick %d returned the excluded point %v", i, got)
		}
		last = got
	}
}

func TestPoolSinglePoint(t *testing.T) {
	only := geom.Vec{X: 5, Y: 5}
	pool := NewPool([]geom.Vec{only})
	rng := rand.New(rand.NewSource(1))

	// with one point, repetition is unavoidable and allowed
	if got := pool.Pick(rng, only); got != only {
		t.Errorf("got %v, want %v", got, only)
	}
}

func TestPoolReusable(t *testing.T) {
	points := []geom.Vec{{X: 1}, {X: 2}}
	pool := NewPool(points)
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 50; i++ {
		pool.Pick(rng, geom.Vec{})
	}
	if pool.Len() != 2 {
		t.Errorf("picking must not consume points, len=%d", pool.Len())
	}
}
