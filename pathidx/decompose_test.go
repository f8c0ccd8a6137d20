package pathidx

import (
	"reflect"
	"testing"

	"github.com/raintank/corehouse/schema"
)

func TestDecomposeNoCache(t *testing.T) {
	got := Decompose("acme", "a.b.c", nil)
	want := []schema.PathDoc{
		{Tenant: "acme", Path: "a", Depth: 1, Leaf: false},
		{Tenant: "acme", Path: "a.b", Depth: 2, Leaf: false},
		{Tenant: "acme", Path: "a.b.c", Depth: 3, Leaf: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecomposeSingleSegment(t *testing.T) {
	got := Decompose("acme", "a", nil)
	want := []schema.PathDoc{
		{Tenant: "acme", Path: "a", Depth: 1, Leaf: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecomposeOmitsKnownShallowPrefixes(t *testing.T) {
	cache := NewSubPathCache(2)
	cache.Union([]string{"a"})

	got := Decompose("acme", "a.b.c", cache)
	want := []schema.PathDoc{
		{Tenant: "acme", Path: "a.b", Depth: 2, Leaf: false},
		{Tenant: "acme", Path: "a.b.c", Depth: 3, Leaf: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecomposeNeverOmitsBeyondStoreToDepth(t *testing.T) {
	cache := NewSubPathCache(1)
	cache.Union([]string{"a", "a.b"})

	got := Decompose("acme", "a.b.c", cache)
	want := []schema.PathDoc{
		{Tenant: "acme", Path: "a.b", Depth: 2, Leaf: false},
		{Tenant: "acme", Path: "a.b.c", Depth: 3, Leaf: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecomposeLeafNeverOmitted(t *testing.T) {
	cache := NewSubPathCache(5)
	cache.Union([]string{"a.b.c"})

	got := Decompose("acme", "a.b.c", cache)
	if len(got) == 0 || !got[len(got)-1].Leaf || got[len(got)-1].Path != "a.b.c" {
		t.Fatalf("leaf document must always be emitted, got %+v", got)
	}
}
