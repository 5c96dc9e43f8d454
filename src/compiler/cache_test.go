package compiler

import (
	"errors"
	"testing"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/rel"
)

func TestPlanCacheFetch(t *testing.T) {
	cache := newPlanCache(10)
	plan := &rel.Query{}
	calls := 0

	build := func() (*rel.Query, error) {
		calls++
		return plan, nil
	}

	got, hit, err := cache.Fetch("k", build)
	if err != nil || hit {
		t.Fatalf("first fetch: hit=%v err=%v", hit, err)
	}
	if got != plan {
		t.Fatal("first fetch should return the built plan")
	}

	got, hit, err = cache.Fetch("k", build)
	if err != nil || !hit {
		t.Fatalf("second fetch: hit=%v err=%v", hit, err)
	}
	if got != plan || calls != 1 {
		t.Errorf("cached fetch should not rebuild: calls=%d", calls)
	}
}

func TestPlanCacheDoesNotCacheErrors(t *testing.T) {
	cache := newPlanCache(10)
	boom := errors.New("boom")

	if _, _, err := cache.Fetch("k", func() (*rel.Query, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if cache.Len() != 0 {
		t.Error("failed builds must not be cached")
	}

	plan := &rel.Query{}
	got, hit, err := cache.Fetch("k", func() (*rel.Query, error) { return plan, nil })
	if err != nil || hit || got != plan {
		t.Errorf("retry after failure should build: hit=%v err=%v", hit, err)
	}
}

func TestPlanCacheFIFOEviction(t *testing.T) {
	cache := newPlanCache(2)
	build := func() (*rel.Query, error) { return &rel.Query{}, nil }

	cache.Fetch("a", build)
	cache.Fetch("b", build)
	cache.Fetch("c", build)

	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}
	if _, hit, _ := cache.Fetch("a", build); hit {
		t.Error("oldest entry should have been evicted")
	}
}

func TestCacheKeyDeterminism(t *testing.T) {
	clauses := []ast.Clause{
		matchOf(pathOf("", nodePat("n", "Person"))),
		returnItems(item(ident("n"), "")),
	}

	k1 := cacheKey("test", 3, clauses)
	k2 := cacheKey("test", 3, clauses)
	if k1 != k2 {
		t.Errorf("same input should produce the same key: %s vs %s", k1, k2)
	}

	if cacheKey("test", 4, clauses) == k1 {
		t.Error("a generation bump must change the key")
	}
	if cacheKey("other", 3, clauses) == k1 {
		t.Error("the graph name must participate in the key")
	}

	other := []ast.Clause{returnItems(item(lit(int64(1)), "one"))}
	if cacheKey("test", 3, other) == k1 {
		t.Error("different chains must produce different keys")
	}
}
