package cart

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSessionAdd(t *testing.T) {
	s := Session{}

	s.Add(1, 3)
	s.Add(1, 2)
	s.Add(2, 1)

	want := Session{1: 5, 2: 1}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("unexpected cart contents:\n%s", diff)
	}
}

func TestSessionRemove(t *testing.T) {
	s := Session{1: 5, 2: 1}

	s.Remove(1, 2)
	if s[1] != 3 {
		t.Fatalf("expected quantity 3, got %d", s[1])
	}

	// Removing more than present floors at zero, keeping the entry.
	s.Remove(2, 10)
	q, ok := s[2]
	if !ok {
		t.Fatal("zeroed entry should stay in the cart")
	}
	if q != 0 {
		t.Fatalf("expected quantity 0, got %d", q)
	}

	// Absent products are ignored.
	s.Remove(99, 1)
	if _, ok := s[99]; ok {
		t.Fatal("removing an absent product must not create an entry")
	}
}

func TestSessionQuantities(t *testing.T) {
	s := Session{1: 2, 2: 0, 3: 7}

	want := map[int64]int{1: 2, 3: 7}
	if diff := cmp.Diff(want, s.Quantities()); diff != "" {
		t.Fatalf("zeroed entries must be hidden:\n%s", diff)
	}
}
