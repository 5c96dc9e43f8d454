package rel

import "fmt"

// Validate performs structural checks over a compiled plan tree. It exists
// for tests and tooling; the compiler is expected to always emit plans that
// pass.
//
// Checks, per query and recursively into subqueries:
//   - target entry resnos are 1..N in order
//   - every Var at level 0 points at an existing range table entry and a
//     column within that entry
//   - join tree from-list indexes are within the range table
//   - sort, group and distinct clauses reference assigned SortGroupRefs
func Validate(q *Query) error {
	if q == nil {
		return fmt.Errorf("nil query")
	}
	return validateQuery(q, nil)
}

func validateQuery(q *Query, outer []*Query) error {
	for i, te := range q.TargetList {
		if te.ResNo != i+1 {
			return fmt.Errorf("target entry %q: resno %d at position %d", te.Name, te.ResNo, i+1)
		}
		if te.Expr == nil {
			return fmt.Errorf("target entry %q: nil expression", te.Name)
		}
		if err := validateExpr(te.Expr, q, outer); err != nil {
			return fmt.Errorf("target entry %q: %w", te.Name, err)
		}
	}

	if q.Jointree != nil {
		for _, idx := range q.Jointree.FromList {
			if idx < 1 || idx > len(q.RangeTable) {
				return fmt.Errorf("join tree references range table entry %d of %d", idx, len(q.RangeTable))
			}
		}
		if q.Jointree.Qual != nil {
			if err := validateExpr(q.Jointree.Qual, q, outer); err != nil {
				return fmt.Errorf("join qual: %w", err)
			}
		}
	}

	refs := map[int]bool{}
	for _, te := range q.TargetList {
		if te.SortGroupRef > 0 {
			refs[te.SortGroupRef] = true
		}
	}
	for _, sc := range q.SortClause {
		if !refs[sc.TleRef] {
			return fmt.Errorf("sort clause references unassigned ref %d", sc.TleRef)
		}
	}
	for _, gc := range q.GroupClause {
		if !refs[gc.TleRef] {
			return fmt.Errorf("group clause references unassigned ref %d", gc.TleRef)
		}
	}
	for _, dc := range q.DistinctClause {
		if !refs[dc.TleRef] {
			return fmt.Errorf("distinct clause references unassigned ref %d", dc.TleRef)
		}
	}

	for i, rte := range q.RangeTable {
		if rte.Kind == RTESubquery {
			if rte.Subquery == nil {
				return fmt.Errorf("range table entry %d: subquery kind with nil subquery", i+1)
			}
			if err := validateQuery(rte.Subquery, append(outer, q)); err != nil {
				return fmt.Errorf("subquery %q: %w", rte.Alias, err)
			}
		}
	}

	return nil
}

func validateExpr(e Expr, q *Query, outer []*Query) error {
	var walkErr error
	WalkExpr(e, func(x Expr) {
		if walkErr != nil {
			return
		}
		switch v := x.(type) {
		case *Var:
			target := q
			if v.Level > 0 {
				if v.Level > len(outer) {
					walkErr = fmt.Errorf("var level %d exceeds nesting depth %d", v.Level, len(outer))
					return
				}
				target = outer[len(outer)-v.Level]
			}
			if v.RTIndex < 1 || v.RTIndex > len(target.RangeTable) {
				walkErr = fmt.Errorf("var references range table entry %d of %d", v.RTIndex, len(target.RangeTable))
				return
			}
			rte := target.RangeTable[v.RTIndex-1]
			if v.AttNo < 1 || v.AttNo > len(rte.Columns) {
				walkErr = fmt.Errorf("var references column %d of %d in %q", v.AttNo, len(rte.Columns), rte.Alias)
			}
		case *SubLink:
			if v.Subquery == nil {
				walkErr = fmt.Errorf("sublink with nil subquery")
				return
			}
			if err := validateQuery(v.Subquery, append(outer, q)); err != nil {
				walkErr = fmt.Errorf("sublink: %w", err)
			}
		}
	})
	return walkErr
}
