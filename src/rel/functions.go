package rel

// Runtime function names the compiler emits. The execution engine provides
// the implementations; the compiler only needs stable names and arities.
const (
	// FuncBuildVertex builds a vertex value: (id, label_name, properties).
	FuncBuildVertex = "build_vertex"
	// FuncBuildEdge builds an edge value:
	// (id, start_id, end_id, label_name, properties).
	FuncBuildEdge = "build_edge"
	// FuncBuildPath builds a path value from alternating vertex/edge values.
	FuncBuildPath = "build_path"
	// FuncLabelName resolves a graph id to its label name: (graph_id, id).
	FuncLabelName = "label_name"
	// FuncExtractLabelID extracts the label id portion of an entity id.
	FuncExtractLabelID = "extract_label_id"
	// FuncPropertyConstraint checks map containment of inline property
	// filters: (properties, constraint_map).
	FuncPropertyConstraint = "property_constraint_check"
	// FuncEdgeUniqueness asserts pairwise distinctness of all matched edge
	// ids in one pattern.
	FuncEdgeUniqueness = "edge_uniqueness_check"
	// FuncVolatile wraps a value so the optimizer can neither fold it to a
	// constant nor eliminate it as dead.
	FuncVolatile = "volatile_wrapper"
	// FuncNextID generates a fresh entity id from a relation's id sequence.
	FuncNextID = "nextid"
	// FuncBuildMap builds a property map from alternating key/value args.
	FuncBuildMap = "build_map"

	// Accessors applied to entity values inherited from a prior clause.
	FuncVertexID    = "vertex_id"
	FuncVertexProps = "vertex_properties"
	FuncEdgeID      = "edge_id"
	FuncEdgeStartID = "edge_start_id"
	FuncEdgeEndID   = "edge_end_id"
	FuncEdgeProps   = "edge_properties"

	// Mutation operators consuming serialized write plans.
	FuncCreateClause = "create_clause"
	FuncSetClause    = "set_clause"
	FuncDeleteClause = "delete_clause"
)

// Volatile wraps e in the volatile marker function.
func Volatile(e Expr) Expr {
	return &FuncCall{Name: FuncVolatile, Args: []Expr{e}}
}

// IsVolatileWrapper reports whether e is a volatile wrapper call.
func IsVolatileWrapper(e Expr) bool {
	fc, ok := e.(*FuncCall)
	return ok && fc.Name == FuncVolatile && len(fc.Args) == 1
}
