package memory

import (
	"math"
	"time"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// TTL results for keys without a death time.
const (
	TTLMissing  int64 = -2
	TTLNoExpiry int64 = -1
)

// schedule queues a TTL marker for e if it carries a death time.
func (s *Store) schedule(key string, e domain.Entry) {
	if e.HasTTL() {
		s.expiry.Push(domain.TTLMarker{Key: key, DeathTime: e.ExpireAt})
	}
}

// MaxExpireSeconds is the largest lifetime Expire accepts.
const MaxExpireSeconds = math.MaxInt64 / int64(time.Second)

// Expire sets key to die after seconds. A non-positive value deletes the
// key immediately. It reports whether the key existed. Lifetimes above
// MaxExpireSeconds are rejected with ErrInvalidArgument.
func (s *Store) Expire(key string, seconds int64) (bool, error) {
	if seconds > MaxExpireSeconds {
		return false, domain.ErrInvalidArgument.WithDetails("invalid expire time")
	}
	now := s.now()
	var (
		found bool
		set   domain.Entry
	)
	_ = s.update(key, now, func(tx *txn, e domain.Entry, ok bool) error {
		if !ok {
			return nil
		}
		found = true
		if seconds <= 0 {
			tx.Delete(key)
			return nil
		}
		e.ExpireAt = now.Add(time.Duration(seconds) * time.Second)
		tx.Set(key, e)
		set = e
		return nil
	})
	s.schedule(key, set)
	return found, nil
}

// TTL returns the remaining lifetime of key in whole seconds (rounded up),
// TTLNoExpiry if it never expires, or TTLMissing if it does not exist.
func (s *Store) TTL(key string) int64 {
	now := s.now()
	ttl := TTLMissing
	_ = s.view(key, now, func(e domain.Entry, ok bool) error {
		switch {
		case !ok:
			ttl = TTLMissing
		case !e.HasTTL():
			ttl = TTLNoExpiry
		default:
			left := e.TTL(now)
			ttl = int64(left / time.Second)
			if left%time.Second > 0 {
				ttl++
			}
		}
		return nil
	})
	return ttl
}

// Persist clears the death time of key and reports whether one was set.
func (s *Store) Persist(key string) bool {
	cleared := false
	_ = s.update(key, s.now(), func(tx *txn, e domain.Entry, ok bool) error {
		if ok && e.HasTTL() {
			e.ExpireAt = time.Time{}
			tx.Set(key, e)
			cleared = true
		}
		return nil
	})
	return cleared
}

// IdleTime returns whole seconds since key was last written.
func (s *Store) IdleTime(key string) (int64, error) {
	now := s.now()
	var idle int64
	err := s.view(key, now, func(e domain.Entry, ok bool) error {
		if !ok {
			return domain.ErrKeyNotFound
		}
		idle = int64(now.Sub(e.Modified) / time.Second)
		return nil
	})
	return idle, err
}

// Sweep deletes every key whose TTL marker is due at now and whose current
// death time still matches the marker. It returns the number of deleted
// keys.
func (s *Store) Sweep(now time.Time) int {
	removed := 0
	for _, m := range s.expiry.PopDue(now) {
		_ = s.data.Atomic([]string{m.Key}, func(tx *txn) error {
			e, ok := tx.Get(m.Key)
			if ok && e.ExpireAt.Equal(m.DeathTime) && e.Expired(now) {
				tx.Delete(m.Key)
				removed++
			}
			return nil
		})
	}
	return removed
}

// PendingExpiries returns the number of scheduled TTL markers.
func (s *Store) PendingExpiries() int {
	return s.expiry.Len()
}

// Start launches the expiry janitor. Calling Start more than once has no
// effect.
func (s *Store) Start() {
	s.startOnce.Do(func() {
		s.running.Store(true)
		go s.janitorLoop()
	})
}

func (s *Store) janitorLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.Debug("expired keys swept", "count", n)
			}
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the janitor if it was started.
func (s *Store) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	// A Start after Close must not launch the janitor.
	s.startOnce.Do(func() {})
	if s.running.Load() {
		<-s.doneCh
	}
	return nil
}
