package application

import (
	"context"
	"sync"
	"time"

	"request-governor/middleware/governor/domain"

	"go.uber.org/zap"
)

// Attempt executa uma tentativa da chamada e devolve o status recebido.
// err != nil significa falha de transporte (rede, timeout, cancelamento).
type Attempt func(ctx context.Context) (status int, err error)

// Governor orquestra admissão, execução e retry de uma chamada lógica.
//
// Gate e Backoff são compartilhados por todas as chamadas do mesmo Governor:
// um 429 em qualquer rota é tratado como sinal de saúde global do servidor.
type Governor struct {
	Config        domain.Config
	Clock         domain.Clock
	Fingerprinter domain.Fingerprinter
	InFlight      domain.InFlightRegistry
	Ledger        domain.CooldownLedger
	Gate          domain.Gate
	Backoff       domain.Backoff

	Stats  domain.StatsStore
	Logger *zap.Logger

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// Execute roda a chamada sob governança.
//
// Retornos:
//   - nil: a tentativa final chegou ao servidor com status diferente de 429
//   - *domain.Rejection: rejeição sintetizada, nada foi enviado
//   - *domain.RetriesExhaustedError: 429 após MaxRetries retries
//   - qualquer outro erro: o erro do transporte, sem modificação
func (g *Governor) Execute(ctx context.Context, req domain.Request, attempt Attempt) error {
	fp := g.Fingerprinter.Fingerprint(req)
	log := g.logger().With(zap.String("fingerprint", string(fp)))

	attempts := 0
	for {
		if err := g.admit(ctx, req, fp, attempts > 0); err != nil {
			if attempts > 0 && !domain.IsRejection(err) {
				// ctx encerrado esperando o gate durante um retry.
				g.Backoff.Reset()
			}
			return err
		}
		attempts++

		status, err := g.run(ctx, req, fp, attempt)
		if err != nil {
			g.Backoff.Reset()
			g.record(ctx, req, fp, domain.OutcomeFailure)
			return err
		}

		if status != domain.StatusRateLimited {
			g.Backoff.Reset()
			if status >= 400 {
				g.record(ctx, req, fp, domain.OutcomeFailure)
			} else {
				g.record(ctx, req, fp, domain.OutcomeSuccess)
			}
			return nil
		}

		g.record(ctx, req, fp, domain.OutcomeRateLimited)
		gateFor := domain.Exp2(g.Config.GlobalCooldownBase, g.Backoff.Attempts())
		g.Gate.Engage(g.Clock.Now(), gateFor)

		delay, ok := g.Backoff.NextDelay()
		if !ok {
			log.Warn("rate limit retries exhausted",
				zap.Int("attempts", attempts),
				zap.Duration("global_cooldown", gateFor))
			g.record(ctx, req, fp, domain.OutcomeRetriesExhausted)
			return &domain.RetriesExhaustedError{Fingerprint: fp, Attempts: attempts, Status: status}
		}

		log.Warn("rate limited, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("delay", delay),
			zap.Duration("global_cooldown", gateFor))
		if err := g.Clock.Sleep(ctx, delay); err != nil {
			g.Backoff.Reset()
			return err
		}
	}
}

// admit decide se a tentativa pode seguir. Em caso positivo, uma leitura fica
// registrada como em voo e run é responsável por liberá-la.
//
// Escritas só passam pelo gate: não entram no registro nem no ledger.
func (g *Governor) admit(ctx context.Context, req domain.Request, fp domain.Fingerprint, retry bool) error {
	g.maybeSweep(g.Clock.Now())

	for {
		rem := g.Gate.Remaining(g.Clock.Now())
		if rem <= 0 {
			break
		}
		if !retry {
			return g.reject(ctx, req, fp, domain.GloballyGated, rem)
		}
		// o retry espera o gate expirar; outro 429 pode rearmá-lo nesse meio tempo.
		if err := g.Clock.Sleep(ctx, rem); err != nil {
			return err
		}
	}

	if !req.Idempotent {
		return nil
	}
	if !g.InFlight.TryAdmit(fp) {
		return g.reject(ctx, req, fp, domain.DuplicateInFlight, 0)
	}
	// a entrada do ledger gravada pela tentativa anterior da mesma chamada não bloqueia o retry.
	if !retry && g.Ledger.IsCoolingDown(fp, g.Clock.Now(), g.Config.CooldownDuration) {
		g.InFlight.Release(fp)
		return g.reject(ctx, req, fp, domain.CooldownActive, g.Config.CooldownDuration)
	}
	return nil
}

func (g *Governor) run(ctx context.Context, req domain.Request, fp domain.Fingerprint, attempt Attempt) (int, error) {
	if req.Idempotent {
		// ledger antes do release: quem passar no TryAdmit já enxerga a conclusão.
		defer func() {
			g.Ledger.RecordCompletion(fp, g.Clock.Now())
			g.InFlight.Release(fp)
		}()
	}
	return attempt(ctx)
}

// maybeSweep limpa o ledger no caminho de admissão quando SweepEvery já passou
// (LedgerRetention se SweepEvery for 0), sem depender de um janitor em background.
func (g *Governor) maybeSweep(now time.Time) {
	every := g.Config.SweepEvery
	if every <= 0 {
		every = g.Config.LedgerRetention
	}

	g.sweepMu.Lock()
	if g.lastSweep.IsZero() {
		g.lastSweep = now
	}
	due := now.Sub(g.lastSweep) >= every
	if due {
		g.lastSweep = now
	}
	g.sweepMu.Unlock()

	if due {
		g.Ledger.Sweep(now, g.Config.LedgerRetention)
	}
}

func (g *Governor) reject(ctx context.Context, req domain.Request, fp domain.Fingerprint, kind domain.RejectionKind, retryAfter time.Duration) error {
	g.logger().Debug("request rejected",
		zap.String("fingerprint", string(fp)),
		zap.String("kind", string(kind)),
		zap.Duration("retry_after", retryAfter))
	g.record(ctx, req, fp, domain.OutcomeFor(kind))
	return &domain.Rejection{Kind: kind, Fingerprint: fp, RetryAfter: retryAfter}
}

func (g *Governor) record(ctx context.Context, req domain.Request, fp domain.Fingerprint, o domain.Outcome) {
	if g.Stats == nil {
		return
	}
	err := g.Stats.Record(ctx, domain.StatsEvent{
		Fingerprint: fp,
		Outcome:     o,
		Method:      req.Method,
		Path:        req.Path,
		At:          g.Clock.Now(),
	})
	if err != nil {
		g.logger().Debug("stats record failed", zap.Error(err))
	}
}

func (g *Governor) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}
