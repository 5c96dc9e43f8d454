package compiler

import (
	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/catalog"
	"github.com/relgraph/relgraph/src/rel"
)

// JoinClass says how a pattern element participates in the clause's join
// tree. It is computed once when the entity is built and never re-derived.
type JoinClass int

const (
	// ClassJoined entities own a range table entry in the current clause.
	ClassJoined JoinClass = iota
	// ClassReference entities were bound by an earlier clause; the current
	// clause sees them as an opaque column of the wrapped subquery.
	ClassReference
	// ClassFilteredOut entities are anonymous, unfiltered, unreferenced
	// vertices folded into label filters on the adjacent edge instead of
	// being joined.
	ClassFilteredOut
)

// Entity is one vertex or edge variable (or anonymous pattern element)
// known to the compilation. The two variants carry their pattern payloads;
// everything join-related lives in the shared head.
type Entity interface {
	entityNode()

	// Kind reports vertex or edge.
	Kind() catalog.Kind
	// Name returns the variable name, or "" for anonymous elements.
	Name() string
	// Head returns the shared mutable entity state.
	Head() *EntityHead
}

// EntityHead is the state common to both entity variants.
type EntityHead struct {
	// Expr is the compiled value of the entity: a build-vertex/build-edge
	// call for fresh entities, a column Var for referenced ones, nil for
	// filtered-out vertices and write-clause targets.
	Expr rel.Expr
	// Class is the three-valued join classification.
	Class JoinClass
	// RTIndex locates the entity's range table entry when Class is
	// ClassJoined; zero otherwise.
	RTIndex int
	// CurrentClause is true until the owning clause finishes compiling.
	CurrentClause bool
}

// VertexEntity is the vertex variant.
type VertexEntity struct {
	EntityHead
	Node *ast.NodePattern
}

func (*VertexEntity) entityNode() {}
func (v *VertexEntity) Kind() catalog.Kind { return catalog.KindVertex }
func (v *VertexEntity) Name() string { return v.Node.Variable }
func (v *VertexEntity) Head() *EntityHead { return &v.EntityHead }

// EdgeEntity is the edge variant.
type EdgeEntity struct {
	EntityHead
	Rel *ast.RelPattern
}

func (*EdgeEntity) entityNode() {}
func (e *EdgeEntity) Kind() catalog.Kind { return catalog.KindEdge }
func (e *EdgeEntity) Name() string { return e.Rel.Variable }
func (e *EdgeEntity) Head() *EntityHead { return &e.EntityHead }

// inJoinTree reports whether the entity contributes join predicates.
func inJoinTree(e Entity) bool {
	return e.Head().Class != ClassFilteredOut
}

// entityCatalog tracks every entity discovered so far in the clause chain.
// Entities are appended as patterns are walked and never removed; clause
// boundaries only demote their CurrentClause flag.
type entityCatalog struct {
	entities []Entity
}

// register appends an entity.
func (c *entityCatalog) register(e Entity) {
	c.entities = append(c.entities, e)
}

// lookup finds the entity bound to name, or nil. Anonymous entities are
// never found.
func (c *entityCatalog) lookup(name string) Entity {
	if name == "" {
		return nil
	}
	for _, e := range c.entities {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// advanceClause demotes every entity to prior-clause status. Called once
// per clause boundary.
func (c *entityCatalog) advanceClause() {
	for _, e := range c.entities {
		e.Head().CurrentClause = false
	}
}
