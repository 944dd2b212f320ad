package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

func mustExpire(t *testing.T, s *Store, key string, seconds int64) bool {
	t.Helper()
	found, err := s.Expire(key, seconds)
	if err != nil {
		t.Fatalf("Expire(%q, %d) error = %v", key, seconds, err)
	}
	return found
}

func TestStore_ExpireOutOfRange(t *testing.T) {
	s := New()
	s.Set("k", "v")

	for _, secs := range []int64{MaxExpireSeconds + 1, 10000000000} {
		found, err := s.Expire("k", secs)
		if !errors.Is(err, domain.ErrInvalidArgument) || found {
			t.Errorf("Expire(k, %d) = (%v, %v), want ErrInvalidArgument", secs, found, err)
		}
	}
	if got, err := s.Get("k"); err != nil || got != "v" {
		t.Errorf("Get(k) = %q, %v after rejected Expire", got, err)
	}
	if ttl := s.TTL("k"); ttl != TTLNoExpiry {
		t.Errorf("TTL(k) = %d, want %d", ttl, TTLNoExpiry)
	}

	if !mustExpire(t, s, "k", MaxExpireSeconds) {
		t.Fatal("Expire(k, MaxExpireSeconds) = false")
	}
	if ttl := s.TTL("k"); ttl <= 0 {
		t.Errorf("TTL(k) = %d after maximal Expire", ttl)
	}
}

func TestStore_ExpireAndTTL(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	if mustExpire(t, s, "missing", 10) {
		t.Error("Expire(missing) = true")
	}
	if ttl := s.TTL("missing"); ttl != TTLMissing {
		t.Errorf("TTL(missing) = %d, want %d", ttl, TTLMissing)
	}

	s.Set("k", "v")
	if ttl := s.TTL("k"); ttl != TTLNoExpiry {
		t.Errorf("TTL(persistent) = %d, want %d", ttl, TTLNoExpiry)
	}

	if !mustExpire(t, s, "k", 10) {
		t.Fatal("Expire(k) = false")
	}
	clock.Advance(2500 * time.Millisecond)
	if ttl := s.TTL("k"); ttl != 8 {
		t.Errorf("TTL() = %d, want 8", ttl)
	}

	clock.Advance(8 * time.Second)
	if _, err := s.Get("k"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("Get(expired) error = %v, want ErrKeyNotFound", err)
	}
	if s.TTL("k") != TTLMissing {
		t.Error("expired key still reports a TTL")
	}
}

func TestStore_ExpireNonPositiveDeletes(t *testing.T) {
	s := New()
	s.Set("k", "v")

	if !mustExpire(t, s, "k", 0) {
		t.Fatal("Expire(k, 0) = false")
	}
	if s.Exists("k") != 0 {
		t.Error("key survived Expire(0)")
	}
}

func TestStore_SetClearsTTL(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))
	s.Set("k", "v")
	s.Expire("k", 5)

	s.Set("k", "w")
	if ttl := s.TTL("k"); ttl != TTLNoExpiry {
		t.Errorf("TTL after Set = %d, want %d", ttl, TTLNoExpiry)
	}

	clock.Advance(10 * time.Second)
	if n := s.Sweep(clock.Now()); n != 0 {
		t.Errorf("Sweep() removed %d keys, want 0 (stale marker)", n)
	}
	if got, _ := s.Get("k"); got != "w" {
		t.Errorf("Get() = %q, want w", got)
	}
}

func TestStore_Persist(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))
	s.Set("k", "v")

	if s.Persist("k") {
		t.Error("Persist(no ttl) = true")
	}
	s.Expire("k", 1)
	if !s.Persist("k") {
		t.Error("Persist(ttl) = false")
	}

	clock.Advance(time.Minute)
	if s.Sweep(clock.Now()) != 0 || s.Exists("k") != 1 {
		t.Error("persisted key was removed")
	}
}

func TestStore_IncrKeepsTTL(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))
	s.Set("n", "1")
	s.Expire("n", 30)

	if _, err := s.IncrBy("n", "1"); err != nil {
		t.Fatalf("IncrBy: %v", err)
	}
	if ttl := s.TTL("n"); ttl != 30 {
		t.Errorf("TTL() = %d, want 30", ttl)
	}
}

func TestStore_SweepOrder(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))
	s.Set("short", "v")
	s.Set("long", "v")
	s.Expire("short", 1)
	s.Expire("long", 60)

	if s.PendingExpiries() != 2 {
		t.Fatalf("PendingExpiries() = %d, want 2", s.PendingExpiries())
	}

	clock.Advance(2 * time.Second)
	if n := s.Sweep(clock.Now()); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if s.Exists("long") != 1 {
		t.Error("long-lived key was swept early")
	}
	if s.PendingExpiries() != 1 {
		t.Errorf("PendingExpiries() = %d, want 1", s.PendingExpiries())
	}
}

func TestStore_IdleTime(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))

	if _, err := s.IdleTime("missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("IdleTime(missing) error = %v", err)
	}

	s.Set("k", "v")
	clock.Advance(7 * time.Second)
	if idle, _ := s.IdleTime("k"); idle != 7 {
		t.Errorf("IdleTime() = %d, want 7", idle)
	}

	if _, err := s.Append("k", "x"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idle, _ := s.IdleTime("k"); idle != 0 {
		t.Errorf("IdleTime() after write = %d, want 0", idle)
	}
}

func TestStore_JanitorSweeps(t *testing.T) {
	s := New(WithSweepInterval(10 * time.Millisecond))
	s.Start()
	defer s.Close()

	s.Set("k", "v")
	s.Expire("k", 1)

	deadline := time.Now().Add(3 * time.Second)
	for s.data.Has("k") {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not remove the expired key")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStore_CloseWithoutStart(t *testing.T) {
	s := New()
	done := make(chan struct{})
	go func() {
		_ = s.Close()
		_ = s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a janitor that never started")
	}
}
