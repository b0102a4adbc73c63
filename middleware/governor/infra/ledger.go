package infra

import (
	"sync"
	"time"

	"request-governor/middleware/governor/domain"
)

// Ledger implementa domain.CooldownLedger: último instante de conclusão por fingerprint,
// com limpeza periódica de entradas mais antigas que a retenção.
type Ledger struct {
	mu       sync.Mutex
	lastSeen map[domain.Fingerprint]time.Time
}

// NewLedger cria um ledger vazio.
func NewLedger() *Ledger {
	return &Ledger{lastSeen: make(map[domain.Fingerprint]time.Time)}
}

func (l *Ledger) RecordCompletion(fp domain.Fingerprint, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastSeen[fp] = now
}

func (l *Ledger) IsCoolingDown(fp domain.Fingerprint, now time.Time, cooldown time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.lastSeen[fp]
	if !ok {
		return false
	}
	return now.Sub(last) < cooldown
}

// Sweep remove entradas com now-lastSeen > retention.
func (l *Ledger) Sweep(now time.Time, retention time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for fp, last := range l.lastSeen {
		if now.Sub(last) > retention {
			delete(l.lastSeen, fp)
		}
	}
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastSeen)
}

// StartJanitor inicia uma goroutine que chama Sweep a cada `every`.
// Pare cancelando o contexto.
func (l *Ledger) StartJanitor(ctx DoneContext, clock domain.Clock, every, retention time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Sweep(clock.Now(), retention)
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
type DoneContext interface {
	Done() <-chan struct{}
}
