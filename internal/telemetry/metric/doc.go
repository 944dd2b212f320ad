// Package metric provides Prometheus metrics for memkv.
//
//   - prometheus.go: the Registry of server counters and the /metrics
//     handler
//   - collector.go: a collector reading store and broker state at scrape
//     time (keys per shard, pending expiries, active channels)
//
// A nil *Registry is valid and records nothing, so components can be
// built without metrics.
package metric
