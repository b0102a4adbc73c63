package infra

import (
	"context"
	"sync"

	"request-governor/middleware/governor/domain"
)

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   map[domain.Outcome]int64
	byRoute map[string]map[domain.Outcome]int64
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		total:   make(map[domain.Outcome]int64),
		byRoute: make(map[string]map[domain.Outcome]int64),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++
	c, ok := s.byRoute[route]
	if !ok {
		c = make(map[domain.Outcome]int64)
		s.byRoute[route] = c
	}
	c[ev.Outcome]++
	return nil
}

// Count retorna o total de eventos com o outcome informado.
func (s *MemoryStatsStore) Count(o domain.Outcome) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total[o]
}

func (s *MemoryStatsStore) ByRoute() map[string]map[domain.Outcome]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[domain.Outcome]int64, len(s.byRoute))
	for route, counts := range s.byRoute {
		cp := make(map[domain.Outcome]int64, len(counts))
		for o, n := range counts {
			cp[o] = n
		}
		out[route] = cp
	}
	return out
}
