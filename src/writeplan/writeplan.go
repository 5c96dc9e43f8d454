// Package writeplan defines the self-contained descriptions of graph
// mutations that a compiled plan carries. CREATE, SET, REMOVE and DELETE
// clauses each serialize one of these structures into a binary blob that
// rides along as a constant argument of the clause function call, so the
// executor can recover the full write intent without access to the
// compilation that produced it.
package writeplan

import (
	"github.com/google/uuid"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/catalog"
	"github.com/relgraph/relgraph/src/rel"
)

// Version tags every encoded blob. Decoders reject other versions.
const Version = 1

// Clause-level flags shared by all write plans.
const (
	// ClauseFlagTerminal marks the clause as the last one in the chain;
	// its results are discarded rather than projected.
	ClauseFlagTerminal uint32 = 1 << iota
	// ClauseFlagPreviousClause marks the clause as having a predecessor
	// whose rows drive the writes.
	ClauseFlagPreviousClause
)

// Per-target-node flags for CREATE plans.
const (
	// NodeFlagInsert means the node is created by this clause rather than
	// referenced from an earlier one.
	NodeFlagInsert uint32 = 1 << iota
	// NodeFlagIsVar means the entity is bound to a variable and its value
	// must be surfaced in the clause output.
	NodeFlagIsVar
	// NodeFlagInPath means the entity contributes to a named path value.
	NodeFlagInPath
	// NodeFlagSameClause means an existing entity was declared earlier in
	// this same CREATE clause, not in a predecessor.
	NodeFlagSameClause
)

// CreateInfo is the write plan of one CREATE clause.
type CreateInfo struct {
	GraphID   uuid.UUID
	GraphName string
	Flags     uint32
	Paths     []CreatePath
}

// CreatePath describes one path in a CREATE pattern. PathPos is the target
// list position reserved for the assembled path value, or zero when the
// path is anonymous.
type CreatePath struct {
	PathPos int
	Nodes   []TargetNode
}

// TargetNode describes one vertex or edge in a CREATE path.
//
// For inserted entities TuplePos and PropPos locate the placeholder target
// entries carrying the generated id and the property map; IDExpr is the
// catalog default that produces new ids for the entity's relation. For
// referenced entities TuplePos locates the column holding the existing
// value.
type TargetNode struct {
	Kind         catalog.Kind
	Flags        uint32
	LabelName    string
	RelationName string
	Variable     string
	Dir          ast.Direction
	TuplePos     int
	PropPos      int
	IDExpr       rel.Expr
}

// Inserted reports whether the node is created by its clause.
func (n *TargetNode) Inserted() bool {
	return n.Flags&NodeFlagInsert != 0
}

// UpdateInfo is the write plan of one SET or REMOVE clause.
type UpdateInfo struct {
	Flags      uint32
	ClauseName string
	Items      []UpdateItem
}

// UpdateItem describes one assignment. EntityPos locates the entity column
// in the clause output and ValuePos the column carrying the new property
// value; ValuePos is zero for removals.
type UpdateItem struct {
	Remove    bool
	Add       bool
	VarName   string
	PropName  string
	EntityPos int
	ValuePos  int
}

// DeleteInfo is the write plan of one DELETE clause.
type DeleteInfo struct {
	GraphID   uuid.UUID
	GraphName string
	Flags     uint32
	Detach    bool
	Items     []DeleteItem
}

// DeleteItem names one entity to delete and the column it occupies in the
// clause output.
type DeleteItem struct {
	VarName   string
	EntityPos int
}
