package infra

import (
	"sync"
	"time"
)

// Gate implementa domain.Gate. O último Engage vence e reinicia o relógio.
type Gate struct {
	mu        sync.Mutex
	engagedAt time.Time
	duration  time.Duration
}

func NewGate() *Gate { return &Gate{} }

func (g *Gate) Engage(now time.Time, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.engagedAt = now
	g.duration = d
}

func (g *Gate) IsEngaged(now time.Time) bool {
	return g.Remaining(now) > 0
}

func (g *Gate) Remaining(now time.Time) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.engagedAt.IsZero() {
		return 0
	}
	rem := g.engagedAt.Add(g.duration).Sub(now)
	if rem < 0 {
		return 0
	}
	return rem
}
