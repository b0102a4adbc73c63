package domain

import (
	"context"
	"net/url"
	"time"
)

// Fingerprint é a identidade estável de uma requisição, usada como chave de
// deduplicação e cooldown.
type Fingerprint string

// Request descreve uma chamada de saída de forma agnóstica de HTTP.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Idempotent marca leituras. Só leituras são deduplicadas/sujeitas a cooldown.
	Idempotent bool
}

// Fingerprinter deriva a Fingerprint de uma requisição.
//
// Leituras idênticas colapsam na mesma chave; escritas recebem uma chave única por chamada.
type Fingerprinter interface {
	Fingerprint(Request) Fingerprint
}

// Clock fornece o tempo atual e uma espera cancelável.
type Clock interface {
	Now() time.Time
	// Sleep espera d ou até o ctx encerrar (retorna ctx.Err()).
	Sleep(ctx context.Context, d time.Duration) error
}
