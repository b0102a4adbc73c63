package domain

import "time"

// InFlightRegistry rastreia leituras em execução.
//
// TryAdmit é atômico: no máximo uma entrada por fingerprint.
// Release deve ser chamado exatamente uma vez para cada TryAdmit bem-sucedido,
// tanto no caminho de sucesso quanto no de falha.
type InFlightRegistry interface {
	TryAdmit(Fingerprint) bool
	Release(Fingerprint)
}

// CooldownLedger guarda o instante da última conclusão de cada fingerprint.
type CooldownLedger interface {
	RecordCompletion(fp Fingerprint, now time.Time)
	IsCoolingDown(fp Fingerprint, now time.Time, cooldown time.Duration) bool
	Sweep(now time.Time, retention time.Duration)
}

// Gate é o bloqueio global, independente de fingerprint, armado por um 429.
//
// Não existe "disengage": a expiração é calculada sob demanda em IsEngaged.
type Gate interface {
	IsEngaged(now time.Time) bool
	Engage(now time.Time, d time.Duration)
	Remaining(now time.Time) time.Duration
}

// Backoff conta falhas 429 consecutivas e calcula o atraso exponencial do retry.
type Backoff interface {
	// NextDelay retorna ok=false quando o teto de retries foi atingido.
	NextDelay() (delay time.Duration, ok bool)
	Reset()
	Attempts() int
}

// StatusRateLimited é o status que participa do protocolo de backoff/gate (HTTP 429).
// Qualquer outro status, incluindo 401, é repassado sem retry.
const StatusRateLimited = 429
