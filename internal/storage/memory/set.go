package memory

import "github.com/yndnr/memkv-go/internal/core/domain"

func setEntry(e domain.Entry, ok bool) (domain.Entry, bool, error) {
	if !ok {
		return e, false, nil
	}
	if e.Value.Kind != domain.KindSet {
		return e, true, domain.ErrWrongType
	}
	return e, true, nil
}

// SAdd adds members to the set at key and returns how many were new.
func (s *Store) SAdd(key string, members ...string) (int, error) {
	now := s.now()
	added := 0
	err := s.update(key, now, func(tx *txn, e domain.Entry, ok bool) error {
		e, ok, err := setEntry(e, ok)
		if err != nil {
			return err
		}
		if !ok {
			e = domain.NewEntry(domain.SetValue(), now)
		}
		for _, m := range members {
			if _, dup := e.Value.Set[m]; !dup {
				e.Value.Set[m] = struct{}{}
				added++
			}
		}
		e.Modified = now
		tx.Set(key, e)
		return nil
	})
	return added, err
}

// SRem removes members from the set at key and returns how many were
// present. An emptied set is deleted.
func (s *Store) SRem(key string, members ...string) (int, error) {
	now := s.now()
	removed := 0
	err := s.update(key, now, func(tx *txn, e domain.Entry, ok bool) error {
		e, ok, err := setEntry(e, ok)
		if err != nil || !ok {
			return err
		}
		for _, m := range members {
			if _, present := e.Value.Set[m]; present {
				delete(e.Value.Set, m)
				removed++
			}
		}
		if len(e.Value.Set) == 0 {
			tx.Delete(key)
			return nil
		}
		if removed > 0 {
			e.Modified = now
			tx.Set(key, e)
		}
		return nil
	})
	return removed, err
}

// SMembers returns the sorted members of the set at key.
func (s *Store) SMembers(key string) ([]string, error) {
	var out []string
	err := s.view(key, s.now(), func(e domain.Entry, ok bool) error {
		e, ok, err := setEntry(e, ok)
		if err != nil || !ok {
			return err
		}
		out = e.Value.Members()
		return nil
	})
	return out, err
}

// SIsMember reports whether member belongs to the set at key.
func (s *Store) SIsMember(key, member string) (bool, error) {
	var found bool
	err := s.view(key, s.now(), func(e domain.Entry, ok bool) error {
		e, ok, err := setEntry(e, ok)
		if err != nil || !ok {
			return err
		}
		_, found = e.Value.Set[member]
		return nil
	})
	return found, err
}

// SCard returns the cardinality of the set at key.
func (s *Store) SCard(key string) (int, error) {
	var n int
	err := s.view(key, s.now(), func(e domain.Entry, ok bool) error {
		e, ok, err := setEntry(e, ok)
		if err != nil || !ok {
			return err
		}
		n = len(e.Value.Set)
		return nil
	})
	return n, err
}
