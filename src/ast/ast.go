// Package ast holds the clause-level abstract syntax the compiler consumes.
// A parser (out of scope here) produces these nodes; the compiler never
// sees query text.
package ast

// Clause is one stage of a query: MATCH, CREATE, SET, REMOVE, DELETE, WITH
// or RETURN. Clauses compile in sequence, each seeing only the relational
// output of its predecessor.
type Clause interface {
	clauseNode()
	// Pos returns the clause's source location for error reporting.
	Pos() int
}

// MatchClause matches one or more patterns, optionally filtered by WHERE.
type MatchClause struct {
	Pattern  []*Path
	Where    Expr
	Optional bool
	Loc      int
}

// CreateClause creates the vertices and edges of its patterns.
type CreateClause struct {
	Pattern []*Path
	Loc     int
}

// SetClause updates (or, with IsRemove, removes) entity properties.
type SetClause struct {
	Items    []*SetItem
	IsRemove bool
	Loc      int
}

// SetItem is a single `variable.property = value` assignment. IsAdd marks
// the `+=` map-merge form, which the compiler rejects.
type SetItem struct {
	Prop  Expr // must be a PropertyRef
	Value Expr // nil for REMOVE
	IsAdd bool
	Loc   int
}

// DeleteClause deletes previously bound entities. Detach removes dependent
// edges automatically.
type DeleteClause struct {
	Detach bool
	Items  []Expr // each must be a bare Ident
	Loc    int
}

// ReturnClause projects the clause chain's output.
type ReturnClause struct {
	Distinct bool
	Items    []*Item
	OrderBy  []*SortItem
	Skip     Expr
	Limit    Expr
	Loc      int
}

// WithClause is RETURN plus an optional WHERE over the projected rows.
type WithClause struct {
	Distinct bool
	Items    []*Item
	OrderBy  []*SortItem
	Skip     Expr
	Limit    Expr
	Where    Expr
	Loc      int
}

// SubPattern is a pattern compiled as a sub-select, e.g. inside EXISTS.
type SubPattern struct {
	Pattern []*Path
	Loc     int
}

func (*MatchClause) clauseNode()  {}
func (*CreateClause) clauseNode() {}
func (*SetClause) clauseNode()    {}
func (*DeleteClause) clauseNode() {}
func (*ReturnClause) clauseNode() {}
func (*WithClause) clauseNode()   {}
func (*SubPattern) clauseNode()   {}

func (c *MatchClause) Pos() int  { return c.Loc }
func (c *CreateClause) Pos() int { return c.Loc }
func (c *SetClause) Pos() int    { return c.Loc }
func (c *DeleteClause) Pos() int { return c.Loc }
func (c *ReturnClause) Pos() int { return c.Loc }
func (c *WithClause) Pos() int   { return c.Loc }
func (c *SubPattern) Pos() int   { return c.Loc }

// Item is one projection item with an optional alias.
type Item struct {
	Expr  Expr
	Alias string
	Loc   int
}

// SortItem is one ORDER BY key. NullsFirst is nil for the default ordering
// (nulls last ascending, nulls first descending).
type SortItem struct {
	Expr       Expr
	Descending bool
	NullsFirst *bool
	Loc        int
}
