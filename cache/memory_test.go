package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	var got []string
	ok, err := c.Get(ctx, "missing", &got)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected a miss on an empty cache")
	}

	want := []string{"a", "b"}
	if err := c.Set(ctx, "key", want, time.Minute); err != nil {
		t.Fatal(err)
	}

	ok, err = c.Get(ctx, "key", &got)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cached value differs:\n%s", diff)
	}

	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	if err := c.Set(ctx, "key", 42, 5*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)

	var got int
	ok, err := c.Get(ctx, "key", &got)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected the entry to expire")
	}
}
