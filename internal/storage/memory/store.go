package memory

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/pkg/cmap"
	"github.com/yndnr/memkv-go/pkg/glob"
)

// DefaultSweepInterval is how often the janitor drains due TTL markers.
const DefaultSweepInterval = time.Second

// Store is the sharded key/value store.
type Store struct {
	data        *cmap.Map[domain.Entry]
	expiry      *domain.ExpiryQueue
	atomicMoves bool
	now         func() time.Time
	logger      *slog.Logger

	sweepInterval time.Duration
	running       atomic.Bool
	startOnce     sync.Once
	stopOnce      sync.Once
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// Option configures the Store.
type Option func(*Store)

// WithShardCount sets the number of shards (rounded to the default if it
// is not a power of two).
func WithShardCount(n int) Option {
	return func(s *Store) {
		s.data = cmap.NewWithShards[domain.Entry](n)
	}
}

// WithAtomicMoves makes Copy and Rename lock both shards at once.
func WithAtomicMoves(enabled bool) Option {
	return func(s *Store) {
		s.atomicMoves = enabled
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used by the janitor.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithSweepInterval sets the janitor period.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		data:          cmap.New[domain.Entry](),
		expiry:        domain.NewExpiryQueue(),
		now:           time.Now,
		logger:        slog.Default(),
		sweepInterval: DefaultSweepInterval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type txn = cmap.Txn[domain.Entry]

// lookup returns the live entry for key, dropping it if it has expired.
func lookup(tx *txn, key string, now time.Time) (domain.Entry, bool) {
	e, ok := tx.Get(key)
	if ok && e.Expired(now) {
		tx.Delete(key)
		return domain.Entry{}, false
	}
	return e, ok
}

// update runs fn under the lock of key's shard with key's live entry.
func (s *Store) update(key string, now time.Time, fn func(tx *txn, e domain.Entry, ok bool) error) error {
	return s.data.Atomic([]string{key}, func(tx *txn) error {
		e, ok := lookup(tx, key, now)
		return fn(tx, e, ok)
	})
}

// view runs fn with key's live entry under the shard read lock. An expired
// entry is retried through update, which drops it under the write lock.
func (s *Store) view(key string, now time.Time, fn func(e domain.Entry, ok bool) error) error {
	var (
		err   error
		stale bool
	)
	s.data.View(key, func(e domain.Entry, ok bool) {
		if ok && e.Expired(now) {
			stale = true
			return
		}
		err = fn(e, ok)
	})
	if !stale {
		return err
	}
	return s.update(key, now, func(_ *txn, e domain.Entry, ok bool) error {
		return fn(e, ok)
	})
}

// ============================================================================
// String operations
// ============================================================================

// Get returns the String stored at key.
func (s *Store) Get(key string) (string, error) {
	var out string
	err := s.view(key, s.now(), func(e domain.Entry, ok bool) error {
		if !ok {
			return domain.ErrKeyNotFound
		}
		text, err := e.Value.Text()
		out = text
		return err
	})
	return out, err
}

// Set stores value at key, replacing any previous value, type and TTL.
func (s *Store) Set(key, value string) {
	now := s.now()
	_ = s.data.Atomic([]string{key}, func(tx *txn) error {
		tx.Set(key, domain.NewEntry(domain.StringValue(value), now))
		return nil
	})
}

// Append concatenates text onto the String at key and returns the new
// length. An absent key behaves like Set.
func (s *Store) Append(key, text string) (int, error) {
	now := s.now()
	var n int
	err := s.update(key, now, func(tx *txn, e domain.Entry, ok bool) error {
		if !ok {
			tx.Set(key, domain.NewEntry(domain.StringValue(text), now))
			n = len(text)
			return nil
		}
		cur, err := e.Value.Text()
		if err != nil {
			return err
		}
		e.Value = domain.StringValue(cur + text)
		e.Modified = now
		tx.Set(key, e)
		n = len(e.Value.Str)
		return nil
	})
	return n, err
}

// IncrBy adds the integer in delta to the integer held at key and returns
// the result. An absent key counts as 0.
func (s *Store) IncrBy(key, delta string) (int64, error) {
	d, err := strconv.ParseInt(delta, 10, 64)
	if err != nil {
		return 0, domain.ErrNotInteger
	}
	return s.addInt(key, d)
}

// DecrBy subtracts the integer in delta from the integer held at key.
func (s *Store) DecrBy(key, delta string) (int64, error) {
	d, err := strconv.ParseInt(delta, 10, 64)
	if err != nil || d == math.MinInt64 {
		return 0, domain.ErrNotInteger
	}
	return s.addInt(key, -d)
}

func (s *Store) addInt(key string, delta int64) (int64, error) {
	now := s.now()
	var result int64
	err := s.update(key, now, func(tx *txn, e domain.Entry, ok bool) error {
		var cur int64
		if ok {
			text, err := e.Value.Text()
			if err != nil {
				return err
			}
			cur, err = strconv.ParseInt(text, 10, 64)
			if err != nil {
				return domain.ErrNotInteger
			}
		}
		if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
			return domain.ErrNotInteger.WithDetails("increment would overflow")
		}
		result = cur + delta

		if !ok {
			e = domain.NewEntry(domain.Value{}, now)
		}
		e.Value = domain.StringValue(strconv.FormatInt(result, 10))
		e.Modified = now
		tx.Set(key, e)
		return nil
	})
	return result, err
}

// GetDel returns the String at key and removes the key.
func (s *Store) GetDel(key string) (string, error) {
	var out string
	err := s.update(key, s.now(), func(tx *txn, e domain.Entry, ok bool) error {
		if !ok {
			return domain.ErrKeyNotFound
		}
		text, err := e.Value.Text()
		if err != nil {
			return err
		}
		out = text
		tx.Delete(key)
		return nil
	})
	return out, err
}

// GetSet stores value at key and returns the previous String. When the key
// was absent the value is still stored and ErrKeyNotFound is returned.
func (s *Store) GetSet(key, value string) (string, error) {
	now := s.now()
	var prev string
	err := s.update(key, now, func(tx *txn, e domain.Entry, ok bool) error {
		if ok {
			text, err := e.Value.Text()
			if err != nil {
				return err
			}
			prev = text
		}
		tx.Set(key, domain.NewEntry(domain.StringValue(value), now))
		if !ok {
			return domain.ErrKeyNotFound
		}
		return nil
	})
	return prev, err
}

// ============================================================================
// Keyspace operations
// ============================================================================

// Del removes keys and returns how many were present.
func (s *Store) Del(keys ...string) int {
	now := s.now()
	n := 0
	for _, key := range keys {
		_ = s.update(key, now, func(tx *txn, _ domain.Entry, ok bool) error {
			if ok {
				tx.Delete(key)
				n++
			}
			return nil
		})
	}
	return n
}

// Exists returns how many of keys are present. Repeated keys count once
// per mention.
func (s *Store) Exists(keys ...string) int {
	now := s.now()
	n := 0
	for _, key := range keys {
		_ = s.view(key, now, func(_ domain.Entry, ok bool) error {
			if ok {
				n++
			}
			return nil
		})
	}
	return n
}

// Type returns the kind name of the value at key, or "none".
func (s *Store) Type(key string) string {
	kind := domain.Kind(0)
	_ = s.view(key, s.now(), func(e domain.Entry, ok bool) error {
		if ok {
			kind = e.Value.Kind
		}
		return nil
	})
	return kind.String()
}

// Copy duplicates the value at src into dst. dst must not exist.
//
// Unless atomic moves are enabled, the source read and destination write
// are separate critical sections.
func (s *Store) Copy(src, dst string) error {
	now := s.now()
	if s.atomicMoves {
		return s.copyAtomic(src, dst, now)
	}

	var snapshot domain.Entry
	err := s.view(src, now, func(e domain.Entry, ok bool) error {
		if !ok {
			return domain.ErrKeyNotFound
		}
		snapshot = e
		snapshot.Value = e.Value.Clone()
		return nil
	})
	if err != nil {
		return err
	}

	snapshot.Modified = now
	err = s.update(dst, now, func(tx *txn, _ domain.Entry, ok bool) error {
		if ok {
			return domain.ErrKeyExists
		}
		tx.Set(dst, snapshot)
		return nil
	})
	if err != nil {
		return err
	}
	s.schedule(dst, snapshot)
	return nil
}

func (s *Store) copyAtomic(src, dst string, now time.Time) error {
	var copied domain.Entry
	err := s.data.Atomic([]string{src, dst}, func(tx *txn) error {
		e, ok := lookup(tx, src, now)
		if !ok {
			return domain.ErrKeyNotFound
		}
		if _, exists := lookup(tx, dst, now); exists {
			return domain.ErrKeyExists
		}
		copied = e
		copied.Value = e.Value.Clone()
		copied.Modified = now
		tx.Set(dst, copied)
		return nil
	})
	if err != nil {
		return err
	}
	s.schedule(dst, copied)
	return nil
}

// Rename moves the value at src to dst, overwriting dst.
//
// Unless atomic moves are enabled, removing src and writing dst are
// separate critical sections.
func (s *Store) Rename(src, dst string) error {
	now := s.now()
	if src == dst {
		return s.view(src, now, func(_ domain.Entry, ok bool) error {
			if !ok {
				return domain.ErrKeyNotFound
			}
			return nil
		})
	}
	if s.atomicMoves {
		return s.renameAtomic(src, dst, now)
	}

	var moved domain.Entry
	err := s.update(src, now, func(tx *txn, e domain.Entry, ok bool) error {
		if !ok {
			return domain.ErrKeyNotFound
		}
		moved = e
		tx.Delete(src)
		return nil
	})
	if err != nil {
		return err
	}

	moved.Modified = now
	_ = s.data.Atomic([]string{dst}, func(tx *txn) error {
		tx.Set(dst, moved)
		return nil
	})
	s.schedule(dst, moved)
	return nil
}

func (s *Store) renameAtomic(src, dst string, now time.Time) error {
	var moved domain.Entry
	err := s.data.Atomic([]string{src, dst}, func(tx *txn) error {
		e, ok := lookup(tx, src, now)
		if !ok {
			return domain.ErrKeyNotFound
		}
		tx.Delete(src)
		e.Modified = now
		tx.Set(dst, e)
		moved = e
		return nil
	})
	if err != nil {
		return err
	}
	s.schedule(dst, moved)
	return nil
}

// Keys returns the sorted names of live keys matching pattern. A pattern
// with glob metacharacters is matched as an anchored glob; any other
// pattern matches by substring. No match is reported as ErrNoMatch.
func (s *Store) Keys(pattern string) ([]string, error) {
	match, err := glob.Matcher(pattern)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails("bad pattern").WithCause(err)
	}

	now := s.now()
	var keys []string
	s.data.Range(func(key string, e domain.Entry) bool {
		if !e.Expired(now) && match(key) {
			keys = append(keys, key)
		}
		return true
	})

	if len(keys) == 0 {
		return nil, domain.ErrNoMatch
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	now := s.now()
	n := 0
	s.data.Range(func(_ string, e domain.Entry) bool {
		if !e.Expired(now) {
			n++
		}
		return true
	})
	return n
}

// ShardStats reports the entry count of every shard.
func (s *Store) ShardStats() []cmap.ShardStats {
	return s.data.Stats()
}

// ShardCount returns the number of shards.
func (s *Store) ShardCount() int {
	return s.data.ShardCount()
}

// ShardOf returns the shard index owning key.
func (s *Store) ShardOf(key string) int {
	return s.data.ShardIndex(key)
}
