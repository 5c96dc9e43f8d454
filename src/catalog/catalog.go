// Package catalog is the label-metadata and storage-relation boundary the
// compiler depends on. The real store belongs to the host engine; the
// in-memory implementation here backs tests and the CLI.
package catalog

import (
	"errors"

	"github.com/google/uuid"

	"github.com/relgraph/relgraph/src/rel"
)

// Kind says whether a label names vertices or edges.
type Kind int

const (
	KindVertex Kind = iota
	KindEdge
)

func (k Kind) String() string {
	if k == KindEdge {
		return "edge"
	}
	return "vertex"
}

// Default labels every graph carries. All user labels descend from one of
// these; anonymous pattern elements resolve to them.
const (
	DefaultVertexLabel = "_default_vertex"
	DefaultEdgeLabel   = "_default_edge"
)

// Storage column names for label relations.
const (
	ColID         = "id"
	ColStartID    = "start_id"
	ColEndID      = "end_id"
	ColProperties = "properties"
)

// VertexColumns and EdgeColumns are the fixed attribute layouts of label
// relations, in attribute order.
var (
	VertexColumns = []string{ColID, ColProperties}
	EdgeColumns   = []string{ColID, ColStartID, ColEndID, ColProperties}
)

var (
	// ErrNotFound reports an unknown label.
	ErrNotFound = errors.New("label not found")
	// ErrExists reports a label created twice, including concurrent
	// creation racing through the host store.
	ErrExists = errors.New("label already exists")
)

// Label is resolved label metadata.
type Label struct {
	ID       int32
	Name     string
	Kind     Kind
	Relation string // backing storage relation name
}

// Relation is an opened storage relation handle.
type Relation struct {
	Name    string
	Label   string
	Kind    Kind
	Columns []string
}

// Graph identifies one property graph in the host store.
type Graph struct {
	ID   uuid.UUID
	Name string
}

// Store is the catalog contract consumed by the compiler. Lookups and
// creation touch shared persistent state and may fail; the compiler
// propagates failures as compile errors and never retries.
type Store interface {
	// Graph returns the graph this catalog serves.
	Graph() Graph
	// ResolveLabel returns metadata for name, or ErrNotFound.
	ResolveLabel(name string) (*Label, error)
	// CreateLabel registers a new label under a parent label and creates
	// its backing relation. ErrExists when the name is already taken.
	CreateLabel(name string, kind Kind, parent string) (*Label, error)
	// OpenRelation opens the backing relation of a resolved label.
	OpenRelation(label *Label) (*Relation, error)
	// ColumnDefault returns the default-value expression of a relation
	// column, e.g. the id sequence call for ColID.
	ColumnDefault(r *Relation, column string) (rel.Expr, error)
	// Generation increments whenever labels change; plan caches key on it.
	Generation() uint64
}

// DefaultLabelFor maps an entity kind to its root label.
func DefaultLabelFor(kind Kind) string {
	if kind == KindEdge {
		return DefaultEdgeLabel
	}
	return DefaultVertexLabel
}

// IsDefaultLabel reports whether name is empty or one of the root labels.
func IsDefaultLabel(name string) bool {
	return name == "" || name == DefaultVertexLabel || name == DefaultEdgeLabel
}
