package ast

// Expr is a scalar expression node. The set here is the slice of openCypher
// expressions the clause compiler needs: literals, parameters, variable and
// property references, maps, function calls and operators.
type Expr interface {
	exprNode()
	Pos() int
}

// Literal is a constant value: string, int64, float64, bool or nil.
type Literal struct {
	Value any
	Loc   int
}

// Param is a query parameter reference: $name.
type Param struct {
	Name string
	Loc  int
}

// Ident references a bound variable by name.
type Ident struct {
	Name string
	Loc  int
}

// PropertyRef accesses one property of an entity: expr.key.
type PropertyRef struct {
	Expr Expr
	Key  string
	Loc  int
}

// MapExpr is an inline map literal; Keys and Values run in parallel.
type MapExpr struct {
	Keys   []string
	Values []Expr
	Loc    int
}

// FuncCallExpr calls a scalar or aggregate function.
type FuncCallExpr struct {
	Name     string
	Args     []Expr
	Distinct bool
	Loc      int
}

// OpExpr is a binary operator: comparison or arithmetic.
type OpExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Loc   int
}

// BoolExpr combines predicates: AND, OR, NOT (NOT uses Args[0] only).
type BoolExpr struct {
	Op   string // "and", "or", "not"
	Args []Expr
	Loc  int
}

// ExistsExpr is EXISTS over a sub-pattern.
type ExistsExpr struct {
	Pattern []*Path
	Loc     int
}

func (*Literal) exprNode()      {}
func (*Param) exprNode()        {}
func (*Ident) exprNode()        {}
func (*PropertyRef) exprNode()  {}
func (*MapExpr) exprNode()      {}
func (*FuncCallExpr) exprNode() {}
func (*OpExpr) exprNode()       {}
func (*BoolExpr) exprNode()     {}
func (*ExistsExpr) exprNode()   {}

func (e *Literal) Pos() int      { return e.Loc }
func (e *Param) Pos() int        { return e.Loc }
func (e *Ident) Pos() int        { return e.Loc }
func (e *PropertyRef) Pos() int  { return e.Loc }
func (e *MapExpr) Pos() int      { return e.Loc }
func (e *FuncCallExpr) Pos() int { return e.Loc }
func (e *OpExpr) Pos() int       { return e.Loc }
func (e *BoolExpr) Pos() int     { return e.Loc }
func (e *ExistsExpr) Pos() int   { return e.Loc }
