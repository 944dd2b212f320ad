// Package memory provides the sharded in-memory store for memkv.
//
// Keys are partitioned over a fixed number of independently locked shards
// (see pkg/cmap). Every single-key operation takes exactly one shard lock.
//
// Features:
//
//   - Typed values: String, List and Set, with type errors on mismatch
//   - Last-write timestamps on every entry
//   - Expiry: lazy on access plus a background janitor driven by a
//     min-ordered TTL marker queue
//
// Consistency:
//
// Copy and Rename touch two keys. By default they run as two separate
// critical sections (read/remove the source, then write the destination),
// so another client can briefly observe the value in neither or both
// places. WithAtomicMoves switches them to a single transaction that
// locks both shards in ascending shard index order.
package memory
