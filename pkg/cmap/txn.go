package cmap

import "sort"

// Txn is a view over the shards locked by Atomic.
//
// A Txn is only valid inside the callback it was passed to, and only for
// keys named in the Atomic call (or keys that hash to the same shards).
type Txn[V any] struct {
	m    *Map[V]
	held map[int]*shard[V]
}

func (t *Txn[V]) shardFor(key string) *shard[V] {
	s, ok := t.held[t.m.ShardIndex(key)]
	if !ok {
		panic("cmap: key " + key + " is outside the transaction")
	}
	return s
}

// Get returns the value stored under key.
func (t *Txn[V]) Get(key string) (V, bool) {
	v, ok := t.shardFor(key).items[key]
	return v, ok
}

// Set stores value under key.
func (t *Txn[V]) Set(key string, value V) {
	t.shardFor(key).items[key] = value
}

// Delete removes key and reports whether it was present.
func (t *Txn[V]) Delete(key string) bool {
	s := t.shardFor(key)
	_, ok := s.items[key]
	delete(s.items, key)
	return ok
}

// Atomic write-locks every shard owning one of keys and runs fn.
//
// Shards are locked in ascending index order and each shard is locked
// once, so concurrent Atomic calls over overlapping shard sets cannot
// deadlock. The error returned by fn is returned unchanged.
func (m *Map[V]) Atomic(keys []string, fn func(tx *Txn[V]) error) error {
	idx := make([]int, 0, len(keys))
	held := make(map[int]*shard[V], len(keys))
	for _, k := range keys {
		i := m.ShardIndex(k)
		if _, dup := held[i]; dup {
			continue
		}
		held[i] = m.shards[i]
		idx = append(idx, i)
	}
	sort.Ints(idx)

	for _, i := range idx {
		m.shards[i].mu.Lock()
	}
	defer func() {
		for j := len(idx) - 1; j >= 0; j-- {
			m.shards[idx[j]].mu.Unlock()
		}
	}()

	return fn(&Txn[V]{m: m, held: held})
}

// Range iterates over all key-value pairs.
//
// The callback returns false to stop iteration.
// Note: This acquires locks shard by shard, so the view may not be consistent.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, shard := range m.shards {
		shard.mu.RLock()
		for k, v := range shard.items {
			if !fn(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
