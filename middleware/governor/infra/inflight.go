package infra

import (
	"sync"

	"request-governor/middleware/governor/domain"
)

// InFlightRegistry implementa domain.InFlightRegistry com um set protegido por mutex.
type InFlightRegistry struct {
	mu      sync.Mutex
	entries map[domain.Fingerprint]struct{}
}

func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{entries: make(map[domain.Fingerprint]struct{})}
}

func (r *InFlightRegistry) TryAdmit(fp domain.Fingerprint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[fp]; ok {
		return false
	}
	r.entries[fp] = struct{}{}
	return true
}

func (r *InFlightRegistry) Release(fp domain.Fingerprint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, fp)
}

func (r *InFlightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
