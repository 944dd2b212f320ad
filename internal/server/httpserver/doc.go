// Package httpserver provides the operational HTTP endpoint for memkv.
//
// It is separate from the command port and only serves:
//
//   - /metrics: Prometheus exposition
//   - /health: liveness
//   - /ready: readiness, reporting the current command listener address
//
// Every request passes through RequestID, Recover and Access middleware.
// The listener is only started when metrics.addr is set.
package httpserver
