package domain

import (
	"context"
	"time"
)

type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeFailure          Outcome = "failure"
	OutcomeRateLimited      Outcome = "rate_limited"
	OutcomeRetriesExhausted Outcome = "retries_exhausted"
	OutcomeDuplicate        Outcome = "rejected_duplicate"
	OutcomeCooldown         Outcome = "rejected_cooldown"
	OutcomeGated            Outcome = "rejected_gated"
)

// OutcomeFor traduz o tipo de rejeição para o Outcome registrado em estatísticas.
func OutcomeFor(kind RejectionKind) Outcome {
	switch kind {
	case DuplicateInFlight:
		return OutcomeDuplicate
	case CooldownActive:
		return OutcomeCooldown
	default:
		return OutcomeGated
	}
}

// StatsEvent representa um evento de decisão da governança.
//
// Observação: cuidado com cardinalidade. Fingerprints de escrita são únicas por chamada,
// então salvar Fingerprint sem controle pode explodir o número de chaves no Redis.
type StatsEvent struct {
	Fingerprint Fingerprint
	Outcome     Outcome

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas da governança.
//
// Implementações podem armazenar em Redis, memória, etc.
// O governor trata erro como best-effort (não derruba a requisição).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
