package infra

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PacerStore implementa domain.Pacer com um token bucket (x/time/rate) por chave,
// cache por chave e limpeza periódica de chaves inativas.
type PacerStore struct {
	mu           sync.Mutex
	entries      map[string]*pacerEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type pacerEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type PacerOption func(*PacerStore)

func WithIdleTTL(d time.Duration) PacerOption {
	return func(s *PacerStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) PacerOption {
	return func(s *PacerStore) { s.cleanupEvery = d }
}

func NewPacerStore(rps float64, burst int, opts ...PacerOption) *PacerStore {
	s := &PacerStore{
		entries:      make(map[string]*pacerEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PacerStore) RPS() float64 { return float64(s.rps) }
func (s *PacerStore) Burst() int   { return s.burst }

// Wait implementa domain.Pacer: bloqueia até haver token para a chave ou o ctx encerrar.
func (s *PacerStore) Wait(ctx context.Context, key string) error {
	return s.Get(key).Wait(ctx)
}

func (s *PacerStore) Get(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &pacerEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *PacerStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *PacerStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
