package infra

import (
	"sync"
	"time"

	"request-governor/middleware/governor/domain"
)

// Backoff implementa domain.Backoff: 2^n * base, com teto de maxRetries.
type Backoff struct {
	mu         sync.Mutex
	count      int
	maxRetries int
	base       time.Duration
}

func NewBackoff(maxRetries int, base time.Duration) *Backoff {
	if base <= 0 {
		base = 1 * time.Second
	}
	return &Backoff{maxRetries: maxRetries, base: base}
}

func (b *Backoff) NextDelay() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= b.maxRetries {
		return 0, false
	}
	b.count++
	return domain.Exp2(b.base, b.count), true
}

func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count = 0
}

func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
