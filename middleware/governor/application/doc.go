// Package application contém os casos de uso da governança de requisições de saída.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Governor.Execute(ctx, req, attempt) admite ou rejeita a chamada, executa a
// tentativa e aplica gate global + backoff quando o resultado é 429.
package application
