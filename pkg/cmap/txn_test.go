package cmap

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

// keysInDistinctShards returns two keys that hash to different shards.
func keysInDistinctShards(t *testing.T, m *Map[int]) (string, string) {
	t.Helper()
	first := "alpha"
	for i := 0; i < 1000; i++ {
		k := fmt.Sprintf("other-%d", i)
		if m.ShardIndex(k) != m.ShardIndex(first) {
			return first, k
		}
	}
	t.Fatal("no key found in a different shard")
	return "", ""
}

func TestAtomic_SingleKey(t *testing.T) {
	m := New[int]()

	err := m.Atomic([]string{"counter"}, func(tx *Txn[int]) error {
		v, ok := tx.Get("counter")
		if ok {
			t.Errorf("counter exists before first write: %d", v)
		}
		tx.Set("counter", v+1)
		return nil
	})
	if err != nil {
		t.Fatalf("Atomic() error = %v", err)
	}

	if v, _ := m.Get("counter"); v != 1 {
		t.Errorf("counter = %d, want 1", v)
	}
}

func TestAtomic_ReturnsCallbackError(t *testing.T) {
	m := New[int]()
	want := errors.New("boom")

	err := m.Atomic([]string{"k"}, func(tx *Txn[int]) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("Atomic() error = %v, want %v", err, want)
	}
}

func TestAtomic_TwoShardsMove(t *testing.T) {
	m := NewWithShards[int](16)
	a, b := keysInDistinctShards(t, m)
	m.Set(a, 42)

	err := m.Atomic([]string{b, a}, func(tx *Txn[int]) error {
		v, ok := tx.Get(a)
		if !ok {
			return errors.New("missing source")
		}
		tx.Delete(a)
		tx.Set(b, v)
		return nil
	})
	if err != nil {
		t.Fatalf("Atomic() error = %v", err)
	}

	if m.Has(a) {
		t.Error("source still present after move")
	}
	if v, ok := m.Get(b); !ok || v != 42 {
		t.Errorf("Get(%s) = (%d, %v), want (42, true)", b, v, ok)
	}
}

func TestAtomic_SameShardLockedOnce(t *testing.T) {
	m := NewWithShards[int](1)

	done := make(chan struct{})
	go func() {
		_ = m.Atomic([]string{"x", "y", "x"}, func(tx *Txn[int]) error {
			tx.Set("x", 1)
			tx.Set("y", 2)
			return nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Atomic deadlocked on keys sharing a shard")
	}
}

func TestAtomic_KeyOutsideTransactionPanics(t *testing.T) {
	m := NewWithShards[int](16)
	a, b := keysInDistinctShards(t, m)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for key outside transaction")
		}
	}()

	_ = m.Atomic([]string{a}, func(tx *Txn[int]) error {
		tx.Get(b)
		return nil
	})
}

func TestAtomic_OppositeOrderNoDeadlock(t *testing.T) {
	m := NewWithShards[int](16)
	a, b := keysInDistinctShards(t, m)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.Atomic([]string{a, b}, func(tx *Txn[int]) error {
				v, _ := tx.Get(a)
				tx.Set(a, v+1)
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = m.Atomic([]string{b, a}, func(tx *Txn[int]) error {
				v, _ := tx.Get(b)
				tx.Set(b, v+1)
				return nil
			})
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("opposite-order Atomic calls deadlocked")
	}

	va, _ := m.Get(a)
	vb, _ := m.Get(b)
	if va != 50 || vb != 50 {
		t.Errorf("counters = (%d, %d), want (50, 50)", va, vb)
	}
}

func TestAtomic_DistinctShardsDoNotBlock(t *testing.T) {
	m := NewWithShards[int](16)
	a, b := keysInDistinctShards(t, m)

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.Atomic([]string{a}, func(tx *Txn[int]) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	done := make(chan struct{})
	go func() {
		m.Set(b, 1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("write to another shard blocked on a held shard lock")
	}
}

func TestRangeAndKeys(t *testing.T) {
	m := New[int]()
	m.Set("x", 1)
	m.Set("y", 2)
	m.Set("z", 3)

	keys := m.Keys()
	sort.Strings(keys)
	if fmt.Sprint(keys) != "[x y z]" {
		t.Errorf("Keys() = %v, want [x y z]", keys)
	}

	count := 0
	m.Range(func(string, int) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Errorf("Range stopped at %d, want 2", count)
	}
}
