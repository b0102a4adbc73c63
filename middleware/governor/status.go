package governor

import (
	"errors"
	"net/http"
	"time"

	"request-governor/middleware/governor/domain"
)

const HeaderRejection = "X-Governor-Rejection"

// RejectionStatus traduz os resultados produzidos pelo próprio governor para HTTP.
//   - rejeições sintetizadas: 429 + Retry-After sugerido
//   - retries esgotados: 503
//
// ok=false para qualquer outro erro (falha de transporte, que não é nossa).
func RejectionStatus(err error) (status int, retryAfter time.Duration, ok bool) {
	var rej *domain.Rejection
	if errors.As(err, &rej) {
		return http.StatusTooManyRequests, rej.RetryAfter, true
	}
	if domain.IsRetriesExhausted(err) {
		return http.StatusServiceUnavailable, 0, true
	}
	return 0, 0, false
}

// WriteError escreve a resposta de um resultado sintetizado. Retorna false se err
// não foi produzido pelo governor, deixando o tratamento para o chamador.
func WriteError(w http.ResponseWriter, err error) bool {
	status, retryAfter, ok := RejectionStatus(err)
	if !ok {
		return false
	}

	var rej *domain.Rejection
	if errors.As(err, &rej) {
		w.Header().Set(HeaderRejection, string(rej.Kind))
	} else {
		w.Header().Set(HeaderRejection, string(domain.OutcomeRetriesExhausted))
	}
	if retryAfter > 0 {
		w.Header().Set("Retry-After", formatRetryAfter(retryAfter))
	}
	http.Error(w, http.StatusText(status), status)
	return true
}
