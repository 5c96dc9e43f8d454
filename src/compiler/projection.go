package compiler

import (
	"strings"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/rel"
)

func (s *clauseState) compileWith(node *clauseNode, w *ast.WithClause) (*rel.Query, error) {
	for _, item := range w.Items {
		if item.Alias == "" {
			if _, ok := item.Expr.(*ast.Ident); !ok {
				return nil, compileErrorf(ErrUnsupportedFeature, item.Loc,
					"WITH expression items must be aliased")
			}
		}
	}
	ret := &ast.ReturnClause{
		Distinct: w.Distinct,
		Items:    w.Items,
		OrderBy:  w.OrderBy,
		Skip:     w.Skip,
		Limit:    w.Limit,
		Loc:      w.Loc,
	}
	return s.compileReturnWithWhere(node, ret, w.Where)
}

// compileReturnWithWhere projects the clause chain. A WHERE predicate (the
// WITH form) applies after projection, over the projected rows.
func (s *clauseState) compileReturnWithWhere(node *clauseNode, r *ast.ReturnClause, where ast.Expr) (*rel.Query, error) {
	return s.compileWithWhere(func(cs *clauseState) (*rel.Query, error) {
		return cs.compileReturn(node, r)
	}, where)
}

func (s *clauseState) compileReturn(node *clauseNode, r *ast.ReturnClause) (*rel.Query, error) {
	if node.prev != nil {
		if _, _, err := s.wrapPrevClause(node); err != nil {
			return nil, err
		}
	}

	for _, item := range r.Items {
		expr, err := s.compileExpr(item.Expr)
		if err != nil {
			return nil, err
		}
		name := item.Alias
		if name == "" {
			name = itemName(item.Expr)
		}
		s.appendTarget(name, expr)
	}

	sortClause, err := s.transformOrderBy(r.OrderBy)
	if err != nil {
		return nil, err
	}

	groupClause, err := s.buildImplicitGroupClause(sortClause)
	if err != nil {
		return nil, err
	}

	var distinctClause []*rel.SortGroupClause
	if r.Distinct {
		distinctClause = s.buildDistinctClause(sortClause)
	}

	offset, err := s.limitExpr(r.Skip, "SKIP")
	if err != nil {
		return nil, err
	}
	count, err := s.limitExpr(r.Limit, "LIMIT")
	if err != nil {
		return nil, err
	}

	query := s.finalize(nil)
	query.SortClause = sortClause
	query.GroupClause = groupClause
	query.DistinctClause = distinctClause
	query.LimitOffset = offset
	query.LimitCount = count

	if s.c.config.Logging.enabled(LogLevelDebug, LogCategoryProjection) {
		s.c.logger.Debug("compiled projection",
			"items", len(r.Items), "sortKeys", len(sortClause),
			"grouped", len(groupClause) > 0, "distinct", r.Distinct)
	}

	return query, nil
}

// itemName picks the output column name of an unaliased projection item.
func itemName(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.PropertyRef:
		return x.Key
	case *ast.FuncCallExpr:
		return strings.ToLower(x.Name)
	default:
		return "?column?"
	}
}

// transformOrderBy resolves each sort key against the target list by
// structural equality; keys that match nothing become junk entries.
func (s *clauseState) transformOrderBy(items []*ast.SortItem) ([]*rel.SortGroupClause, error) {
	var sortClause []*rel.SortGroupClause
	for _, item := range items {
		// Output aliases win over expression resolution, so ORDER BY can
		// name a projected column.
		var te *rel.TargetEntry
		if ident, ok := item.Expr.(*ast.Ident); ok {
			te = s.findTarget(ident.Name)
		}
		if te == nil {
			expr, err := s.compileExpr(item.Expr)
			if err != nil {
				return nil, err
			}
			te = s.matchingTargetEntry(expr)
			if te == nil {
				te = &rel.TargetEntry{Expr: expr, ResNo: s.nextResno, Junk: true}
				s.nextResno++
				s.targetList = append(s.targetList, te)
			}
		}

		nullsFirst := item.Descending
		if item.NullsFirst != nil {
			nullsFirst = *item.NullsFirst
		}
		sortClause = append(sortClause, &rel.SortGroupClause{
			TleRef:     rel.AssignSortGroupRef(te, s.targetList),
			Descending: item.Descending,
			NullsFirst: nullsFirst,
		})
	}
	return sortClause, nil
}

// matchingTargetEntry finds a target entry structurally equal to expr, after
// stripping volatile wrappers from both sides.
func (s *clauseState) matchingTargetEntry(expr rel.Expr) *rel.TargetEntry {
	stripped := rel.StripVolatile(expr)
	for _, te := range s.targetList {
		if rel.ExprEqual(rel.StripVolatile(te.Expr), stripped) {
			return te
		}
	}
	return nil
}

// buildImplicitGroupClause groups by every non-aggregate output when the
// projection contains aggregates. Row constructors flatten into individual
// grouping columns; a grouping entry that matches an ORDER BY key adopts
// that key's ordering semantics so sorting and grouping agree.
func (s *clauseState) buildImplicitGroupClause(sortClause []*rel.SortGroupClause) ([]*rel.SortGroupClause, error) {
	if !s.hasAggs {
		return nil, nil
	}

	var groupClause []*rel.SortGroupClause
	seen := make(map[int]bool)

	for _, te := range s.targetList {
		if te.Junk {
			continue
		}
		expr := rel.StripVolatile(te.Expr)
		if containsAggregate(expr) {
			continue
		}

		for _, groupExpr := range flattenRowExprs(expr) {
			if hasGroupingSet(groupExpr) {
				return nil, compileErrorf(ErrUnsupportedFeature, -1,
					"grouping sets are not supported")
			}

			groupTE := s.matchingTargetEntry(groupExpr)
			if groupTE == nil {
				groupTE = &rel.TargetEntry{Expr: groupExpr, ResNo: s.nextResno, Junk: true}
				s.nextResno++
				s.targetList = append(s.targetList, groupTE)
			}

			ref := rel.AssignSortGroupRef(groupTE, s.targetList)
			if seen[ref] {
				continue
			}
			seen[ref] = true

			if sc := rel.RefInSortList(ref, sortClause); sc != nil {
				groupClause = append(groupClause, &rel.SortGroupClause{
					TleRef:     sc.TleRef,
					Descending: sc.Descending,
					NullsFirst: sc.NullsFirst,
				})
			} else {
				groupClause = append(groupClause, &rel.SortGroupClause{TleRef: ref})
			}
		}
	}
	return groupClause, nil
}

// buildDistinctClause covers every non-junk output column, reusing ORDER BY
// entries where present so DISTINCT does not fight the sort order.
func (s *clauseState) buildDistinctClause(sortClause []*rel.SortGroupClause) []*rel.SortGroupClause {
	var distinct []*rel.SortGroupClause
	for _, te := range s.targetList {
		if te.Junk {
			continue
		}
		ref := rel.AssignSortGroupRef(te, s.targetList)
		if sc := rel.RefInSortList(ref, sortClause); sc != nil {
			distinct = append(distinct, &rel.SortGroupClause{
				TleRef:     sc.TleRef,
				Descending: sc.Descending,
				NullsFirst: sc.NullsFirst,
			})
		} else {
			distinct = append(distinct, &rel.SortGroupClause{TleRef: ref})
		}
	}
	return distinct
}

// limitExpr compiles a SKIP/LIMIT operand. The operand runs before any row
// of the current clause exists, so it may not reference this clause's
// columns.
func (s *clauseState) limitExpr(e ast.Expr, what string) (rel.Expr, error) {
	if e == nil {
		return nil, nil
	}
	expr, err := s.compileExpr(e)
	if err != nil {
		return nil, err
	}
	if rel.ContainsVarsOfLevel(expr, 0) {
		return nil, compileErrorf(ErrInvalidLimitReference, e.Pos(),
			"%s may not reference columns of the current clause", what)
	}
	return expr, nil
}

func containsAggregate(e rel.Expr) bool {
	found := false
	rel.WalkExpr(e, func(x rel.Expr) {
		if fc, ok := x.(*rel.FuncCall); ok && fc.Aggregate {
			found = true
		}
	})
	return found
}

func hasGroupingSet(e rel.Expr) bool {
	found := false
	rel.WalkExpr(e, func(x rel.Expr) {
		if _, ok := x.(*rel.GroupingSet); ok {
			found = true
		}
	})
	return found
}

func flattenRowExprs(e rel.Expr) []rel.Expr {
	row, ok := e.(*rel.RowExpr)
	if !ok {
		return []rel.Expr{e}
	}
	var out []rel.Expr
	for _, arg := range row.Args {
		out = append(out, flattenRowExprs(arg)...)
	}
	return out
}
