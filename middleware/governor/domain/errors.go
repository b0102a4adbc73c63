package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDuplicateInFlight = errors.New("governor: duplicate request in flight")
	ErrCooldownActive    = errors.New("governor: request cooling down")
	ErrGloballyGated     = errors.New("governor: blocked by global cooldown")
	ErrRetriesExhausted  = errors.New("governor: rate limit retries exhausted")
)

type RejectionKind string

const (
	DuplicateInFlight RejectionKind = "duplicate_in_flight"
	CooldownActive    RejectionKind = "cooldown_active"
	GloballyGated     RejectionKind = "globally_gated"
)

// Rejection é um resultado sintetizado localmente: a requisição nunca chegou à rede.
type Rejection struct {
	Kind        RejectionKind
	Fingerprint Fingerprint
	// RetryAfter é uma sugestão de espera. Se 0, não há recomendação.
	RetryAfter time.Duration
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s (%s)", r.Unwrap().Error(), r.Fingerprint)
}

func (r *Rejection) Unwrap() error {
	switch r.Kind {
	case DuplicateInFlight:
		return ErrDuplicateInFlight
	case CooldownActive:
		return ErrCooldownActive
	default:
		return ErrGloballyGated
	}
}

// RetriesExhaustedError indica que a chamada recebeu 429 mesmo após todos os retries.
type RetriesExhaustedError struct {
	Fingerprint Fingerprint
	Attempts    int
	Status      int
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts (%s, last status %d)",
		ErrRetriesExhausted.Error(), e.Attempts, e.Fingerprint, e.Status)
}

func (e *RetriesExhaustedError) Unwrap() error { return ErrRetriesExhausted }

// IsRejection informa se err é uma rejeição sintetizada (duplicata, cooldown ou gate).
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// IsRetriesExhausted informa se err é o esgotamento de retries por rate limit.
func IsRetriesExhausted(err error) bool {
	return errors.Is(err, ErrRetriesExhausted)
}
