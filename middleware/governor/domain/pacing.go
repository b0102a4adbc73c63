package domain

import "context"

// Pacer espaça as requisições de saída por chave (ex: host do upstream).
//
// A camada de infra usa golang.org/x/time/rate (token bucket).
type Pacer interface {
	Wait(ctx context.Context, key string) error
}
