// Package rel defines the relational plan produced by the clause compiler:
// a tree of SELECT-like queries with target lists, range tables and join
// trees. The execution engine consumes these plans; nothing here knows
// about graph syntax.
package rel

// RTEKind discriminates range table entries.
type RTEKind int

const (
	// RTERelation scans a label's backing storage relation.
	RTERelation RTEKind = iota
	// RTESubquery wraps a previously compiled clause.
	RTESubquery
)

func (k RTEKind) String() string {
	if k == RTESubquery {
		return "subquery"
	}
	return "relation"
}

// RangeTblEntry is one row source of a query. Relation entries carry the
// storage relation name and its column layout; subquery entries own the
// wrapped plan and expose its output names as columns.
type RangeTblEntry struct {
	Kind     RTEKind
	Alias    string
	Relation string   // storage relation name, RTERelation only
	Columns  []string // visible column names, in attribute order
	Subquery *Query   // RTESubquery only
}

// TargetEntry is one output column of a query.
type TargetEntry struct {
	Expr         Expr
	ResNo        int // 1-based output position
	Name         string
	Junk         bool
	SortGroupRef int // shared reference for sort/group/distinct clauses
}

// FromExpr is the join tree: the range table indexes being scanned plus a
// single boolean qualification.
type FromExpr struct {
	FromList []int // 1-based indexes into RangeTable
	Qual     Expr
}

// SortGroupClause orders or groups by one target entry, identified through
// its SortGroupRef.
type SortGroupClause struct {
	TleRef     int
	Descending bool
	NullsFirst bool
}

// Query is one compiled clause. A multi-clause chain nests: each clause
// wraps its predecessor as an RTESubquery range table entry, so the final
// clause's Query is the whole plan.
type Query struct {
	TargetList     []*TargetEntry
	RangeTable     []*RangeTblEntry
	Jointree       *FromExpr
	SortClause     []*SortGroupClause
	GroupClause    []*SortGroupClause
	DistinctClause []*SortGroupClause
	LimitOffset    Expr
	LimitCount     Expr
	HasAggs        bool
}

// FindTarget returns the non-junk target entry with the given output name,
// or nil.
func (q *Query) FindTarget(name string) *TargetEntry {
	if name == "" {
		return nil
	}
	for _, te := range q.TargetList {
		if te.Junk {
			continue
		}
		if te.Name == name {
			return te
		}
	}
	return nil
}

// assignSortGroupRef gives te a SortGroupRef, reusing an existing one.
// Refs are unique across the target list.
func assignSortGroupRef(te *TargetEntry, targetList []*TargetEntry) int {
	if te.SortGroupRef > 0 {
		return te.SortGroupRef
	}
	max := 0
	for _, t := range targetList {
		if t.SortGroupRef > max {
			max = t.SortGroupRef
		}
	}
	te.SortGroupRef = max + 1
	return te.SortGroupRef
}

// AssignSortGroupRef is the exported form used by the projection transform.
func AssignSortGroupRef(te *TargetEntry, targetList []*TargetEntry) int {
	return assignSortGroupRef(te, targetList)
}

// RefInSortList returns the sort/group entry carrying the ref, or nil.
func RefInSortList(ref int, list []*SortGroupClause) *SortGroupClause {
	for _, sc := range list {
		if sc.TleRef == ref {
			return sc
		}
	}
	return nil
}
