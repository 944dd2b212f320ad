package memory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

func TestStore_SetMembers(t *testing.T) {
	s := New()

	n, err := s.SAdd("s", "b", "a", "b")
	if err != nil || n != 2 {
		t.Fatalf("SAdd() = (%d, %v), want (2, nil)", n, err)
	}
	n, _ = s.SAdd("s", "a", "c")
	if n != 1 {
		t.Errorf("SAdd(dup) = %d, want 1", n)
	}

	members, err := s.SMembers("s")
	if err != nil {
		t.Fatalf("SMembers: %v", err)
	}
	if fmt.Sprint(members) != "[a b c]" {
		t.Errorf("SMembers() = %v, want [a b c]", members)
	}

	if ok, _ := s.SIsMember("s", "b"); !ok {
		t.Error("SIsMember(b) = false")
	}
	if ok, _ := s.SIsMember("s", "z"); ok {
		t.Error("SIsMember(z) = true")
	}
	if c, _ := s.SCard("s"); c != 3 {
		t.Errorf("SCard() = %d, want 3", c)
	}
}

func TestStore_SRemDeletesEmptySet(t *testing.T) {
	s := New()
	if _, err := s.SAdd("s", "a", "b"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	n, err := s.SRem("s", "a", "x")
	if err != nil || n != 1 {
		t.Fatalf("SRem() = (%d, %v), want (1, nil)", n, err)
	}
	if n, _ := s.SRem("s", "b"); n != 1 {
		t.Fatalf("SRem(last) = %d, want 1", n)
	}
	if s.Exists("s") != 0 {
		t.Error("emptied set still exists")
	}
	if n, err := s.SRem("s", "b"); err != nil || n != 0 {
		t.Errorf("SRem(absent) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestStore_SetWrongType(t *testing.T) {
	s := New()
	if _, err := s.RPush("l", "a"); err != nil {
		t.Fatalf("RPush: %v", err)
	}

	if _, err := s.SAdd("l", "x"); !errors.Is(err, domain.ErrWrongType) {
		t.Errorf("SAdd(list) error = %v", err)
	}
	if _, err := s.SCard("l"); !errors.Is(err, domain.ErrWrongType) {
		t.Errorf("SCard(list) error = %v", err)
	}
	if _, err := s.Get("l"); !errors.Is(err, domain.ErrWrongType) {
		t.Errorf("Get(list) error = %v", err)
	}
}
