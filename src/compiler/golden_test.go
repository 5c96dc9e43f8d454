package compiler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/catalog"
)

// Golden plans pin the serialized plan shape. The store uses a fixed graph
// id so label_name arguments stay identical across runs.
func goldenCompiler(t *testing.T) *Compiler {
	t.Helper()
	store := catalog.NewMemoryStoreWithID("golden",
		uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	if _, err := store.CreateLabel("Person", catalog.KindVertex,
		catalog.DefaultLabelFor(catalog.KindVertex)); err != nil {
		t.Fatalf("seed label: %v", err)
	}
	return New(store, nil)
}

func assertGoldenPlan(t *testing.T, name string, clauses ...ast.Clause) {
	t.Helper()
	c := goldenCompiler(t)
	query, err := c.Compile(context.Background(), clauses)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	data, err := json.MarshalIndent(query, "", "  ")
	if err != nil {
		t.Fatalf("marshal plan: %v", err)
	}
	g := goldie.New(t)
	g.Assert(t, name, append(data, '\n'))
}

func TestGoldenReturnLiteral(t *testing.T) {
	assertGoldenPlan(t, "return_literal",
		returnItems(item(lit(int64(1)), "one")))
}

func TestGoldenMatchReturnVertex(t *testing.T) {
	assertGoldenPlan(t, "match_return_vertex",
		matchOf(pathOf("", nodePat("n", "Person"))),
		returnItems(item(ident("n"), "")))
}
