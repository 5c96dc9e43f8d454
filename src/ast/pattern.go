package ast

// Direction of a relationship pattern.
type Direction int

const (
	// DirNone is an undirected edge: (a)-[r]-(b).
	DirNone Direction = iota
	// DirRight points from the left neighbor to the right: (a)-[r]->(b).
	DirRight
	// DirLeft points from the right neighbor to the left: (a)<-[r]-(b).
	DirLeft
)

func (d Direction) String() string {
	switch d {
	case DirRight:
		return "right"
	case DirLeft:
		return "left"
	default:
		return "none"
	}
}

// PatternElement is either a *NodePattern or a *RelPattern.
type PatternElement interface {
	patternElement()
	Pos() int
}

// Path is an alternating vertex/edge/vertex sequence, optionally bound to a
// path variable.
type Path struct {
	Variable string
	Elements []PatternElement
	Loc      int
}

// NodePattern is one vertex descriptor: (name:Label {props}).
type NodePattern struct {
	Variable string
	Label    string
	Props    Expr // inline property-map filter, nil if absent
	Loc      int
}

// VarLength carries the bounds of a variable-length relationship. The
// compiler rejects these; the type exists so the parser has somewhere to
// put them.
type VarLength struct {
	Min, Max int
}

// RelPattern is one edge descriptor: -[name:TYPE {props}]->.
type RelPattern struct {
	Variable  string
	Label     string
	Dir       Direction
	Props     Expr
	VarLength *VarLength
	Loc       int
}

func (*NodePattern) patternElement() {}
func (*RelPattern) patternElement()  {}

func (n *NodePattern) Pos() int { return n.Loc }
func (r *RelPattern) Pos() int  { return r.Loc }
