// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - Ledger: último instante de conclusão por fingerprint, com limpeza periódica
//   - Gate / Backoff: estado global de rate limit (um por Governor, não por processo)
//   - PacerStore: token bucket por host usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limite de concorrência de saída
//   - MemoryStatsStore / RedisStatsStore: contadores de decisões
package infra
