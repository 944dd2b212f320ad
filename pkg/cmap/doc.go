// Package cmap provides the sharded concurrent map behind the memkv store.
//
// This package implements a sharded map with the following features:
//
//   - Sharding: Power-of-two shard count, MurmurHash3 key placement
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Transactions: Atomic runs a callback with one or more shards
//     write-locked, acquiring them in ascending shard index order
//   - Iteration: Shard-by-shard iteration under read locks
//
// Usage:
//
//	m := cmap.NewWithShards[Entry](32)
//	err := m.Atomic([]string{"key"}, func(tx *cmap.Txn[Entry]) error {
//		e, ok := tx.Get("key")
//		...
//		tx.Set("key", e)
//		return nil
//	})
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has, Range) use
// RLock, write operations (Set, Delete, Atomic) use Lock.
package cmap
