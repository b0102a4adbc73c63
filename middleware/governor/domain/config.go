package domain

import (
	"errors"
	"fmt"
	"time"
)

// Config reúne os parâmetros da política de governança.
type Config struct {
	// CooldownDuration é o espaçamento mínimo entre leituras admitidas com a mesma fingerprint.
	CooldownDuration time.Duration
	// GlobalCooldownBase é quanto o gate fica armado no primeiro 429. Trips consecutivos
	// multiplicam esse valor por 2^tentativas.
	GlobalCooldownBase time.Duration
	MaxRetries         int
	// BackoffBase é a unidade do atraso exponencial (2^n * BackoffBase).
	BackoffBase time.Duration
	// LedgerRetention é por quanto tempo uma conclusão é lembrada. Deve exceder CooldownDuration.
	LedgerRetention time.Duration
	SweepEvery      time.Duration
}

const (
	// MaxRetriesLimit é o teto aceito por Validate para MaxRetries.
	MaxRetriesLimit = 30
	// MaxDelay satura atrasos de backoff e durações do gate.
	MaxDelay = 1 * time.Hour
)

// DefaultConfig retorna os valores padrão (1s de cooldown/base, 3 retries, 5m de retenção).
func DefaultConfig() Config {
	return Config{
		CooldownDuration:   1 * time.Second,
		GlobalCooldownBase: 1 * time.Second,
		MaxRetries:         3,
		BackoffBase:        1 * time.Second,
		LedgerRetention:    5 * time.Minute,
		SweepEvery:         1 * time.Minute,
	}
}

// Validate rejeita valores negativos, MaxRetries acima do teto e retenção <= cooldown.
func (c Config) Validate() error {
	if c.CooldownDuration < 0 || c.GlobalCooldownBase < 0 || c.BackoffBase < 0 || c.SweepEvery < 0 {
		return errors.New("durations must be >= 0")
	}
	if c.MaxRetries < 0 || c.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("max retries must be between 0 and %d", MaxRetriesLimit)
	}
	if c.LedgerRetention <= c.CooldownDuration {
		return errors.New("ledger retention must exceed cooldown duration")
	}
	return nil
}

// Exp2 retorna base * 2^n saturado em MaxDelay (sem overflow de time.Duration).
func Exp2(base time.Duration, n int) time.Duration {
	if base <= 0 {
		return 0
	}
	if n < 0 {
		n = 0
	}
	if base >= MaxDelay {
		return MaxDelay
	}
	for i := 0; i < n; i++ {
		base *= 2
		if base >= MaxDelay {
			return MaxDelay
		}
	}
	return base
}
