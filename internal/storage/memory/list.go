package memory

import "github.com/yndnr/memkv-go/internal/core/domain"

// listEntry returns the live List entry at key. ok is false when the key
// is absent; a non-List value yields ErrWrongType.
func listEntry(e domain.Entry, ok bool) (domain.Entry, bool, error) {
	if !ok {
		return e, false, nil
	}
	if e.Value.Kind != domain.KindList {
		return e, true, domain.ErrWrongType
	}
	return e, true, nil
}

func (s *Store) push(key string, values []string, front bool) (int, error) {
	now := s.now()
	var n int
	err := s.update(key, now, func(tx *txn, e domain.Entry, ok bool) error {
		e, ok, err := listEntry(e, ok)
		if err != nil {
			return err
		}
		if !ok {
			e = domain.NewEntry(domain.ListValue(), now)
		}

		list := e.Value.List
		if front {
			head := make([]string, 0, len(values)+len(list))
			for i := len(values) - 1; i >= 0; i-- {
				head = append(head, values[i])
			}
			list = append(head, list...)
		} else {
			list = append(list, values...)
		}

		e.Value.List = list
		e.Modified = now
		tx.Set(key, e)
		n = len(list)
		return nil
	})
	return n, err
}

// LPush inserts values at the head of the list at key, one after another,
// and returns the new length.
func (s *Store) LPush(key string, values ...string) (int, error) {
	return s.push(key, values, true)
}

// RPush appends values to the list at key and returns the new length.
func (s *Store) RPush(key string, values ...string) (int, error) {
	return s.push(key, values, false)
}

func (s *Store) pop(key string, front bool) (string, error) {
	now := s.now()
	var out string
	err := s.update(key, now, func(tx *txn, e domain.Entry, ok bool) error {
		e, ok, err := listEntry(e, ok)
		if err != nil {
			return err
		}
		if !ok || len(e.Value.List) == 0 {
			return domain.ErrKeyNotFound
		}

		list := e.Value.List
		if front {
			out, list = list[0], list[1:]
		} else {
			out, list = list[len(list)-1], list[:len(list)-1]
		}

		if len(list) == 0 {
			tx.Delete(key)
			return nil
		}
		e.Value.List = list
		e.Modified = now
		tx.Set(key, e)
		return nil
	})
	return out, err
}

// LPop removes and returns the head of the list at key.
func (s *Store) LPop(key string) (string, error) {
	return s.pop(key, true)
}

// RPop removes and returns the tail of the list at key.
func (s *Store) RPop(key string) (string, error) {
	return s.pop(key, false)
}

// LLen returns the length of the list at key (0 if absent).
func (s *Store) LLen(key string) (int, error) {
	var n int
	err := s.view(key, s.now(), func(e domain.Entry, ok bool) error {
		e, ok, err := listEntry(e, ok)
		if err != nil {
			return err
		}
		if ok {
			n = len(e.Value.List)
		}
		return nil
	})
	return n, err
}

// LIndex returns the element at index; negative indexes count from the
// tail.
func (s *Store) LIndex(key string, index int64) (string, error) {
	var out string
	err := s.view(key, s.now(), func(e domain.Entry, ok bool) error {
		e, ok, err := listEntry(e, ok)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrKeyNotFound
		}
		list := e.Value.List
		i := index
		if i < 0 {
			i += int64(len(list))
		}
		if i < 0 || i >= int64(len(list)) {
			return domain.ErrIndexOutOfRange
		}
		out = list[i]
		return nil
	})
	return out, err
}

// LRange returns a copy of the elements between start and stop inclusive,
// with negative offsets counting from the tail. Out-of-range bounds are
// clamped.
func (s *Store) LRange(key string, start, stop int64) ([]string, error) {
	var out []string
	err := s.view(key, s.now(), func(e domain.Entry, ok bool) error {
		e, ok, err := listEntry(e, ok)
		if err != nil || !ok {
			return err
		}
		lo, hi, empty := clampRange(start, stop, int64(len(e.Value.List)))
		if empty {
			return nil
		}
		out = make([]string, hi-lo+1)
		copy(out, e.Value.List[lo:hi+1])
		return nil
	})
	return out, err
}

func clampRange(start, stop, n int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, true
	}
	return start, stop, false
}

