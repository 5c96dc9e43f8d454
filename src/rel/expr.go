package rel

// Expr is a compiled relational expression.
//
// This is a sealed interface; only types in this package implement it.
// The marker method keeps type switches in the compiler exhaustive and
// prevents foreign expression nodes from leaking into a plan.
type Expr interface {
	exprNode()
}

// Var references a column of a range table entry by position.
// Level is 0 for the current query and N for a query N levels up;
// SKIP/LIMIT validation depends on it.
type Var struct {
	RTIndex int // 1-based index into Query.RangeTable
	AttNo   int // 1-based column position within the entry
	Level   int
}

// Const is a literal value carried inside the plan. Blob payloads hold
// serialized write plans and must be self-contained: nothing in a Const
// may point back into the compilation that produced it.
type Const struct {
	Value any
	Blob  []byte
}

// Param is a placeholder for a query parameter supplied at execution time.
type Param struct {
	Name string
}

// FuncCall invokes a runtime function. The names used by the compiler are
// listed in functions.go. Aggregate marks aggregation functions so the
// projection transform can build the implicit GROUP BY.
type FuncCall struct {
	Name      string
	Args      []Expr
	Aggregate bool
}

// OpExpr is a binary operator expression, e.g. "=" for join quals.
type OpExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// BoolOp enumerates the boolean connectives of BoolExpr.
type BoolOp int

const (
	BoolAnd BoolOp = iota
	BoolOr
	BoolNot
)

func (op BoolOp) String() string {
	switch op {
	case BoolAnd:
		return "AND"
	case BoolOr:
		return "OR"
	case BoolNot:
		return "NOT"
	default:
		return "?"
	}
}

// BoolExpr combines predicates with AND/OR/NOT.
type BoolExpr struct {
	Op   BoolOp
	Args []Expr
}

// RowExpr is an implicit row constructor. The grouping transform flattens
// these before building the group clause.
type RowExpr struct {
	Args []Expr
}

// GroupingSet is only ever produced by an external expression compiler;
// the projection transform rejects it as unsupported.
type GroupingSet struct {
	Exprs []Expr
}

// SubLink embeds a sub-select, e.g. an EXISTS over a sub-pattern.
type SubLink struct {
	Exists   bool
	Subquery *Query
}

func (*Var) exprNode()         {}
func (*Const) exprNode()       {}
func (*Param) exprNode()       {}
func (*FuncCall) exprNode()    {}
func (*OpExpr) exprNode()      {}
func (*BoolExpr) exprNode()    {}
func (*RowExpr) exprNode()     {}
func (*GroupingSet) exprNode() {}
func (*SubLink) exprNode()     {}

// AndAll joins quals with a single AND node. One qual is returned as-is,
// zero quals return nil.
func AndAll(quals []Expr) Expr {
	switch len(quals) {
	case 0:
		return nil
	case 1:
		return quals[0]
	default:
		return &BoolExpr{Op: BoolAnd, Args: quals}
	}
}

// OrAll is AndAll for disjunctions.
func OrAll(quals []Expr) Expr {
	switch len(quals) {
	case 0:
		return nil
	case 1:
		return quals[0]
	default:
		return &BoolExpr{Op: BoolOr, Args: quals}
	}
}

// Eq builds the equality operator expression used for join predicates.
func Eq(left, right Expr) Expr {
	return &OpExpr{Op: "=", Left: left, Right: right}
}

// ContainsVarsOfLevel reports whether any Var of the given level appears in
// the expression tree. SKIP and LIMIT must not reference columns of the
// query they belong to.
func ContainsVarsOfLevel(e Expr, level int) bool {
	found := false
	WalkExpr(e, func(x Expr) {
		if v, ok := x.(*Var); ok && v.Level == level {
			found = true
		}
	})
	return found
}

// WalkExpr visits every node of an expression tree in depth-first order.
func WalkExpr(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch x := e.(type) {
	case *FuncCall:
		for _, a := range x.Args {
			WalkExpr(a, fn)
		}
	case *OpExpr:
		WalkExpr(x.Left, fn)
		WalkExpr(x.Right, fn)
	case *BoolExpr:
		for _, a := range x.Args {
			WalkExpr(a, fn)
		}
	case *RowExpr:
		for _, a := range x.Args {
			WalkExpr(a, fn)
		}
	case *GroupingSet:
		for _, a := range x.Exprs {
			WalkExpr(a, fn)
		}
	}
}
