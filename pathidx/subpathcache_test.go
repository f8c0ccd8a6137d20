package pathidx

import "testing"

func TestSubPathCacheUnboundedHasAndUnion(t *testing.T) {
	c := NewSubPathCache(2)
	if c.Has("a") {
		t.Fatalf("empty cache should not report any path as known")
	}
	c.Union([]string{"a", "a.b"})
	if !c.Has("a") || !c.Has("a.b") {
		t.Fatalf("expected cached prefixes to be reported present")
	}
	if c.Has("a.b.c") {
		t.Fatalf("did not expect un-unioned path to be present")
	}
	if c.Len() != 2 {
		t.Fatalf("expected Len 2, got %d", c.Len())
	}
}

func TestSubPathCacheDefaultsDepth(t *testing.T) {
	c := NewSubPathCache(0)
	if c.StoreToDepth != DefaultStoreToDepth {
		t.Fatalf("expected non-positive depth to fall back to default, got %d", c.StoreToDepth)
	}
}

func TestBoundedSubPathCacheEvicts(t *testing.T) {
	c, err := NewBoundedSubPathCache(2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Union([]string{"a", "b"})
	if c.Len() != 2 {
		t.Fatalf("expected Len 2 before eviction, got %d", c.Len())
	}
	c.Union([]string{"c"})
	if c.Len() != 2 {
		t.Fatalf("expected Len capped at capacity 2, got %d", c.Len())
	}
	if c.Has("a") && c.Has("b") && c.Has("c") {
		t.Fatalf("expected least-recently-used entry to have been evicted")
	}
}
