package domain

import (
	"sort"
	"time"
)

// Kind identifies which variant of Value is active.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindList
	KindSet
)

// String returns the name reported by the TYPE command.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	default:
		return "none"
	}
}

// Value is the tagged union stored under a key. Exactly one of Str, List
// or Set is meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Str  string
	List []string
	Set  map[string]struct{}
}

// StringValue returns a String variant.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// ListValue returns a List variant holding items in order.
func ListValue(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{Kind: KindList, List: list}
}

// SetValue returns a Set variant holding the distinct members.
func SetValue(members ...string) Value {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return Value{Kind: KindSet, Set: set}
}

// Text returns the String payload, or ErrWrongType for other variants.
func (v Value) Text() (string, error) {
	if v.Kind != KindString {
		return "", ErrWrongType
	}
	return v.Str, nil
}

// Members returns the Set members sorted.
func (v Value) Members() []string {
	out := make([]string, 0, len(v.Set))
	for m := range v.Set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindList:
		return ListValue(v.List...)
	case KindSet:
		set := make(map[string]struct{}, len(v.Set))
		for m := range v.Set {
			set[m] = struct{}{}
		}
		return Value{Kind: KindSet, Set: set}
	default:
		return v
	}
}

// Entry is what a shard stores per key.
type Entry struct {
	Value Value

	// Modified is the time of the last mutation.
	Modified time.Time

	// ExpireAt is the death time, zero when the key does not expire.
	ExpireAt time.Time
}

// NewEntry wraps v with a write time of now and no expiry.
func NewEntry(v Value, now time.Time) Entry {
	return Entry{Value: v, Modified: now}
}

// Expired reports whether the entry is past its death time.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpireAt.IsZero() && !now.Before(e.ExpireAt)
}

// HasTTL reports whether the entry carries a death time.
func (e Entry) HasTTL() bool {
	return !e.ExpireAt.IsZero()
}

// TTL returns the remaining lifetime; zero or negative means due.
func (e Entry) TTL(now time.Time) time.Duration {
	return e.ExpireAt.Sub(now)
}
