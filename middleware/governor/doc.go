// Package governor fornece um http.RoundTripper que governa as requisições de saída:
// deduplicação de leituras concorrentes, cooldown entre leituras idênticas, gate global
// armado por 429 e retry com backoff exponencial.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: Governor (máquina de estados admissão/execução/retry) sem net/http
//   - infra: implementações concretas (ledger, gate, backoff, token bucket, semáforo, stats)
//   - governor (este pacote): Transport + descrição da requisição + normalização de payload
//     + tradução de rejeições para status/headers
//
// Fluxo por chamada:
//
//  1. Deriva a fingerprint (leituras: método+path+query ordenada; escritas: única)
//  2. Gate global armado? rejeita com GloballyGated
//  3. Leitura idêntica em voo ou em cooldown? rejeita com DuplicateInFlight/CooldownActive
//  4. Envia pelo transporte; 429 arma o gate, espera 2^n * base e reenvia
//  5. Esgotou MaxRetries? devolve RetriesExhaustedError
//
// Rejeições nunca tocam a rede e são distinguíveis com errors.As / errors.Is.
package governor
