package compiler

import (
	"testing"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/rel"
)

func agg(name string, args ...ast.Expr) *ast.FuncCallExpr {
	return &ast.FuncCallExpr{Name: name, Args: args}
}

func TestOrderByResolvesAlias(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		&ast.ReturnClause{
			Items:   []*ast.Item{item(prop("a", "x"), "v")},
			OrderBy: []*ast.SortItem{{Expr: ident("v")}},
		},
	)
	if err := rel.Validate(query); err != nil {
		t.Fatalf("plan validation: %v", err)
	}

	if len(query.SortClause) != 1 {
		t.Fatalf("sort clause = %d entries", len(query.SortClause))
	}
	// The sort key is the projected column, no junk entry appended.
	if len(query.TargetList) != 1 {
		t.Fatalf("target list = %d entries, want 1", len(query.TargetList))
	}
	if query.TargetList[0].SortGroupRef != query.SortClause[0].TleRef {
		t.Error("sort clause does not reference the aliased column")
	}
}

func TestOrderByUnprojectedKeyBecomesJunk(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		&ast.ReturnClause{
			Items:   []*ast.Item{item(ident("a"), "")},
			OrderBy: []*ast.SortItem{{Expr: prop("a", "age")}},
		},
	)

	if len(query.TargetList) != 2 {
		t.Fatalf("target list = %d entries, want projected + junk", len(query.TargetList))
	}
	if !query.TargetList[1].Junk {
		t.Error("unprojected sort key should be junk")
	}
}

func TestOrderByCompositeConstantMatchesProjection(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c, &ast.ReturnClause{
		Items:   []*ast.Item{item(lit([]any{int64(1), int64(2)}), "v")},
		OrderBy: []*ast.SortItem{{Expr: lit([]any{int64(1), int64(2)})}},
	})

	// The structurally equal composite key resolves to the projected
	// column instead of a junk entry.
	if len(query.TargetList) != 1 {
		t.Fatalf("target list = %d entries, want 1", len(query.TargetList))
	}
	if query.TargetList[0].SortGroupRef != query.SortClause[0].TleRef {
		t.Error("sort clause does not reference the projected column")
	}
}

func TestOrderByDefaults(t *testing.T) {
	c := newTestCompiler(t)
	nullsFirst := false
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		&ast.ReturnClause{
			Items: []*ast.Item{item(prop("a", "x"), "v")},
			OrderBy: []*ast.SortItem{
				{Expr: ident("v"), Descending: true},
				{Expr: prop("a", "y"), Descending: true, NullsFirst: &nullsFirst},
			},
		},
	)

	first := query.SortClause[0]
	if !first.Descending || !first.NullsFirst {
		t.Errorf("descending defaults to nulls first, got %+v", first)
	}
	second := query.SortClause[1]
	if !second.Descending || second.NullsFirst {
		t.Errorf("explicit nulls last lost, got %+v", second)
	}
}

func TestImplicitGroupBy(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		returnItems(
			item(prop("a", "x"), "v"),
			item(agg("count", ident("a")), "n"),
		),
	)

	if !query.HasAggs {
		t.Error("aggregation not flagged")
	}
	if len(query.GroupClause) != 1 {
		t.Fatalf("group clause = %d entries, want 1", len(query.GroupClause))
	}
	if query.GroupClause[0].TleRef != query.TargetList[0].SortGroupRef {
		t.Error("grouping should target the non-aggregate column")
	}
}

func TestGroupByAdoptsOrderBySemantics(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		&ast.ReturnClause{
			Items: []*ast.Item{
				item(prop("a", "x"), "v"),
				item(agg("count", ident("a")), "n"),
			},
			OrderBy: []*ast.SortItem{{Expr: ident("v"), Descending: true}},
		},
	)

	if len(query.GroupClause) != 1 {
		t.Fatalf("group clause = %d entries", len(query.GroupClause))
	}
	gc := query.GroupClause[0]
	if !gc.Descending || !gc.NullsFirst {
		t.Errorf("group entry should adopt the ORDER BY ordering, got %+v", gc)
	}
	if gc.TleRef != query.SortClause[0].TleRef {
		t.Error("group entry should share the sort key's ref")
	}
}

func TestAggregateInWhereRejected(t *testing.T) {
	c := newTestCompiler(t)
	m := &ast.MatchClause{
		Pattern: []*ast.Path{pathOf("", nodePat("a", "Person"))},
		Where:   &ast.OpExpr{Op: ">", Left: agg("count", ident("a")), Right: lit(int64(1))},
	}
	code := compileErrCode(t, c, m, returnItems(item(ident("a"), "")))
	if code != ErrUnsupportedFeature {
		t.Errorf("code = %s, want %s", code, ErrUnsupportedFeature)
	}
}

func TestDistinct(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		&ast.ReturnClause{
			Distinct: true,
			Items:    []*ast.Item{item(prop("a", "x"), "v"), item(prop("a", "y"), "w")},
		},
	)

	if len(query.DistinctClause) != 2 {
		t.Fatalf("distinct clause = %d entries, want 2", len(query.DistinctClause))
	}
}

func TestSkipLimit(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		&ast.ReturnClause{
			Items: []*ast.Item{item(ident("a"), "")},
			Skip:  lit(int64(5)),
			Limit: &ast.Param{Name: "n"},
		},
	)

	if query.LimitOffset == nil || query.LimitCount == nil {
		t.Fatal("SKIP/LIMIT missing from plan")
	}
	if _, ok := query.LimitCount.(*rel.Param); !ok {
		t.Errorf("LIMIT = %T, want parameter", query.LimitCount)
	}
}

func TestLimitMayNotReferenceCurrentClause(t *testing.T) {
	c := newTestCompiler(t)
	code := compileErrCode(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		&ast.ReturnClause{
			Items: []*ast.Item{item(ident("a"), "")},
			Limit: ident("a"),
		},
	)
	if code != ErrInvalidLimitReference {
		t.Errorf("code = %s, want %s", code, ErrInvalidLimitReference)
	}
}

func TestWithWhereFilters(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		&ast.WithClause{
			Items: []*ast.Item{item(prop("a", "age"), "age")},
			Where: &ast.OpExpr{Op: ">", Left: ident("age"), Right: lit(int64(30))},
		},
		returnItems(item(ident("age"), "")),
	)
	if err := rel.Validate(query); err != nil {
		t.Fatalf("plan validation: %v", err)
	}

	filtered := query.RangeTable[0].Subquery
	if filtered.Jointree.Qual == nil {
		t.Fatal("WITH ... WHERE lost its predicate")
	}
	op, ok := filtered.Jointree.Qual.(*rel.OpExpr)
	if !ok || op.Op != ">" {
		t.Errorf("qual = %T", filtered.Jointree.Qual)
	}
	// The predicate applies over the projected rows, one level outside
	// the projection itself.
	if filtered.RangeTable[0].Kind != rel.RTESubquery {
		t.Error("WHERE should wrap the projection as a subquery")
	}
}

func TestWithRequiresAlias(t *testing.T) {
	c := newTestCompiler(t)
	code := compileErrCode(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		&ast.WithClause{Items: []*ast.Item{item(prop("a", "age"), "")}},
		returnItems(item(ident("age"), "")),
	)
	if code != ErrUnsupportedFeature {
		t.Errorf("code = %s, want %s", code, ErrUnsupportedFeature)
	}
}

func TestWithNarrowsVisibility(t *testing.T) {
	c := newTestCompiler(t)
	// b is projected away by WITH; referencing it afterwards fails.
	code := compileErrCode(t, c,
		matchOf(pathOf("", nodePat("a", ""), relPat("r", "", ast.DirRight), nodePat("b", ""))),
		&ast.WithClause{Items: []*ast.Item{item(ident("a"), "")}},
		returnItems(item(ident("b"), "")),
	)
	if code != ErrUndefinedVariable {
		t.Errorf("code = %s, want %s", code, ErrUndefinedVariable)
	}
}

func TestDefaultColumnNames(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		returnItems(
			item(ident("a"), ""),
			item(prop("a", "name"), ""),
			item(agg("count", ident("a")), ""),
			item(lit(int64(1)), ""),
		),
	)

	want := []string{"a", "name", "count", "?column?"}
	for i, name := range want {
		if query.TargetList[i].Name != name {
			t.Errorf("column %d = %q, want %q", i, query.TargetList[i].Name, name)
		}
	}
}

func TestCollectIsAggregate(t *testing.T) {
	c := newTestCompiler(t)
	query := mustCompile(t, c,
		matchOf(pathOf("", nodePat("a", "Person"))),
		returnItems(item(agg("collect", ident("a")), "all")),
	)
	if !query.HasAggs {
		t.Error("collect should flag aggregation")
	}
	if len(query.GroupClause) != 0 {
		t.Errorf("nothing to group by, got %d entries", len(query.GroupClause))
	}
}
