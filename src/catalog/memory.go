package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/relgraph/relgraph/src/rel"
)

// MemoryStore is a thread-safe in-memory catalog. Every new store starts
// with the two root labels.
type MemoryStore struct {
	mu         sync.RWMutex
	graph      Graph
	labels     map[string]*Label
	nextID     int32
	generation uint64
}

// NewMemoryStore creates a catalog for a fresh graph with the given name.
func NewMemoryStore(graphName string) *MemoryStore {
	return NewMemoryStoreWithID(graphName, uuid.New())
}

// NewMemoryStoreWithID pins the graph identity, for seed files and tests
// that need reproducible plans.
func NewMemoryStoreWithID(graphName string, id uuid.UUID) *MemoryStore {
	s := &MemoryStore{
		graph:  Graph{ID: id, Name: graphName},
		labels: make(map[string]*Label),
		nextID: 1,
	}
	s.mustSeed(DefaultVertexLabel, KindVertex)
	s.mustSeed(DefaultEdgeLabel, KindEdge)
	return s
}

func (s *MemoryStore) mustSeed(name string, kind Kind) {
	s.labels[name] = &Label{
		ID:       s.nextID,
		Name:     name,
		Kind:     kind,
		Relation: relationName(s.graph.Name, name),
	}
	s.nextID++
}

func relationName(graph, label string) string {
	return fmt.Sprintf("%s.%s", graph, label)
}

func (s *MemoryStore) Graph() Graph {
	return s.graph
}

func (s *MemoryStore) ResolveLabel(name string) (*Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.labels[name]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, fmt.Errorf("label %q: %w", name, ErrNotFound)
}

func (s *MemoryStore) CreateLabel(name string, kind Kind, parent string) (*Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.labels[name]; ok {
		return nil, fmt.Errorf("label %q: %w", name, ErrExists)
	}
	if parent != "" {
		p, ok := s.labels[parent]
		if !ok {
			return nil, fmt.Errorf("parent label %q: %w", parent, ErrNotFound)
		}
		if p.Kind != kind {
			return nil, fmt.Errorf("parent label %q is a %s label", parent, p.Kind)
		}
	}

	l := &Label{
		ID:       s.nextID,
		Name:     name,
		Kind:     kind,
		Relation: relationName(s.graph.Name, name),
	}
	s.nextID++
	s.labels[name] = l
	s.generation++

	cp := *l
	return &cp, nil
}

func (s *MemoryStore) OpenRelation(label *Label) (*Relation, error) {
	if label == nil {
		return nil, fmt.Errorf("open relation: nil label")
	}
	cols := VertexColumns
	if label.Kind == KindEdge {
		cols = EdgeColumns
	}
	return &Relation{
		Name:    label.Relation,
		Label:   label.Name,
		Kind:    label.Kind,
		Columns: cols,
	}, nil
}

// ColumnDefault mirrors the storage schema: ids come from the relation's
// sequence, properties default to an empty map. Endpoint ids of edges have
// no default; they are only known once both endpoints are materialized.
func (s *MemoryStore) ColumnDefault(r *Relation, column string) (rel.Expr, error) {
	switch column {
	case ColID:
		return &rel.FuncCall{
			Name: rel.FuncNextID,
			Args: []rel.Expr{&rel.Const{Value: r.Name}},
		}, nil
	case ColProperties:
		return &rel.FuncCall{Name: rel.FuncBuildMap}, nil
	default:
		return nil, fmt.Errorf("column %q of %q has no default", column, r.Name)
	}
}

func (s *MemoryStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Labels returns all labels sorted by id, for tooling.
func (s *MemoryStore) Labels() []*Label {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Label, 0, len(s.labels))
	for _, l := range s.labels {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ Store = (*MemoryStore)(nil)
