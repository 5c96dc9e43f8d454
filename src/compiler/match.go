package compiler

import (
	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/catalog"
	"github.com/relgraph/relgraph/src/rel"
)

// joinSide says which side of the current edge a neighboring edge sits on
// when the vertex between them was folded out of the join tree.
type joinSide int

const (
	sideLeft joinSide = iota
	sideRight
)

func (s *clauseState) compileMatch(node *clauseNode, m *ast.MatchClause) (*rel.Query, error) {
	if m.Optional {
		return nil, compileErrorf(ErrUnsupportedFeature, m.Loc, "OPTIONAL MATCH is not supported")
	}
	return s.compileWithWhere(func(cs *clauseState) (*rel.Query, error) {
		return cs.compileMatchPattern(node, m)
	}, m.Where)
}

func (s *clauseState) compileMatchPattern(node *clauseNode, m *ast.MatchClause) (*rel.Query, error) {
	if node.prev != nil {
		rte, rtindex, err := s.wrapPrevClause(node)
		if err != nil {
			return nil, err
		}
		s.expandRelAttrs(rte, rtindex)
	}

	var joinQuals []rel.Expr
	for _, path := range m.Pattern {
		quals, err := s.compilePath(path)
		if err != nil {
			return nil, err
		}
		joinQuals = append(joinQuals, quals...)
	}

	if s.c.config.Logging.enabled(LogLevelDebug, LogCategoryMatch) {
		s.c.logger.Debug("compiled match pattern",
			"paths", len(m.Pattern), "joinQuals", len(joinQuals), "propQuals", len(s.propQuals))
	}

	// Property constraints apply after the structural join predicates.
	joinQuals = append(joinQuals, s.propQuals...)
	return s.finalize(rel.AndAll(joinQuals)), nil
}

// validatePathShape rejects paths that do not alternate vertex, edge,
// vertex. The join walk and the write planners index neighboring slots by
// parity, so the shape must hold before either runs. Decoded input is not
// checked anywhere earlier.
func validatePathShape(path *ast.Path) error {
	if len(path.Elements) == 0 || len(path.Elements)%2 == 0 {
		return compileErrorf(ErrInvalidPattern, path.Loc,
			"path must alternate vertices and edges, starting and ending with a vertex")
	}
	for i, elem := range path.Elements {
		switch elem.(type) {
		case *ast.NodePattern:
			if i%2 == 1 {
				return compileErrorf(ErrInvalidPattern, elem.Pos(),
					"expected an edge at pattern position %d", i+1)
			}
		case *ast.RelPattern:
			if i%2 == 0 {
				return compileErrorf(ErrInvalidPattern, elem.Pos(),
					"expected a vertex at pattern position %d", i+1)
			}
		default:
			return compileErrorf(ErrInternal, elem.Pos(), "unexpected pattern element %T", elem)
		}
	}
	return nil
}

// compilePath turns one path into entities, join predicates and, when the
// path binds a variable, a path-value target entry.
func (s *clauseState) compilePath(path *ast.Path) ([]rel.Expr, error) {
	if err := validatePathShape(path); err != nil {
		return nil, err
	}
	if path.Variable != "" {
		if s.entities.lookup(path.Variable) != nil || s.columnVar(path.Variable) != nil {
			return nil, compileErrorf(ErrVariableRedeclaration, path.Loc,
				"variable %s already declared", path.Variable)
		}
		if len(path.Elements) < 3 {
			return nil, compileErrorf(ErrPathTooShort, path.Loc,
				"path variable %s requires at least one edge", path.Variable)
		}
	}

	entities, err := s.compilePathEntities(path)
	if err != nil {
		return nil, err
	}

	quals, err := s.makePathJoinQuals(entities)
	if err != nil {
		return nil, err
	}

	// A path with two or more edges may not bind one physical edge to two
	// different edge slots.
	if len(entities) > 3 {
		unique, err := s.preventDuplicateEdges(entities)
		if err != nil {
			return nil, err
		}
		quals = append(quals, unique)
	}

	if path.Variable != "" {
		te, err := s.pathTargetEntry(path, entities)
		if err != nil {
			return nil, err
		}
		s.targetList = append(s.targetList, te)
	}

	return quals, nil
}

// compilePathEntities walks the alternating vertex/edge elements and builds
// one entity per element, in pattern order. Folded-out vertices still
// occupy their slot so the edge-driven join walk can see its neighbors.
func (s *clauseState) compilePathEntities(path *ast.Path) ([]Entity, error) {
	pathHasVar := path.Variable != ""

	entities := make([]Entity, 0, len(path.Elements))
	for _, elem := range path.Elements {
		switch el := elem.(type) {
		case *ast.NodePattern:
			entity, err := s.compileMatchVertex(el, pathHasVar)
			if err != nil {
				return nil, err
			}
			entities = append(entities, entity)
		case *ast.RelPattern:
			entity, err := s.compileMatchEdge(el)
			if err != nil {
				return nil, err
			}
			entities = append(entities, entity)
		default:
			return nil, compileErrorf(ErrInternal, elem.Pos(), "unexpected pattern element %T", elem)
		}
	}
	return entities, nil
}

func (s *clauseState) compileMatchVertex(n *ast.NodePattern, pathHasVar bool) (*VertexEntity, error) {
	if existing := s.entities.lookup(n.Variable); existing != nil {
		return s.reuseVertex(existing, n)
	}
	if n.Variable != "" && s.columnVar(n.Variable) != nil {
		// The name is a projected value of a prior clause, not an entity.
		return nil, compileErrorf(ErrVariableRedeclaration, n.Loc,
			"variable %s already declared", n.Variable)
	}
	if n.Variable != "" && s.exprKind == exprKindWhere {
		return nil, compileErrorf(ErrUndefinedVariable, n.Loc,
			"variable %s not defined", n.Variable)
	}

	// Anonymous, unfiltered, unreferenced vertices are not joined; the
	// adjacent edge carries their label filter instead.
	if !pathHasVar && n.Variable == "" && n.Props == nil {
		entity := &VertexEntity{
			EntityHead: EntityHead{Class: ClassFilteredOut, CurrentClause: true},
			Node:       n,
		}
		s.entities.register(entity)
		return entity, nil
	}

	rtindex, relation, err := s.joinLabelRelation(n.Label, catalog.KindVertex, n.Variable, n.Loc)
	if err != nil {
		return nil, err
	}

	idVar := &rel.Var{RTIndex: rtindex, AttNo: columnAttNo(relation.Columns, catalog.ColID)}
	propsVar := &rel.Var{RTIndex: rtindex, AttNo: columnAttNo(relation.Columns, catalog.ColProperties)}
	expr := makeVertexExpr(s.c.store.Graph(), idVar, propsVar)

	entity := &VertexEntity{
		EntityHead: EntityHead{Expr: expr, Class: ClassJoined, RTIndex: rtindex, CurrentClause: true},
		Node:       n,
	}
	s.entities.register(entity)

	if n.Variable != "" {
		s.appendTarget(n.Variable, expr)
	}
	if n.Props != nil {
		if err := s.appendPropertyConstraint(propsVar, n.Props); err != nil {
			return nil, err
		}
	}
	return entity, nil
}

func (s *clauseState) reuseVertex(existing Entity, n *ast.NodePattern) (*VertexEntity, error) {
	if existing.Kind() != catalog.KindVertex {
		return nil, compileErrorf(ErrVariableRedeclaration, n.Loc,
			"variable %s already declared as an edge", n.Variable)
	}
	if n.Label != "" || n.Props != nil {
		return nil, compileErrorf(ErrVariableRedeclaration, n.Loc,
			"variable %s is already bound; labels and property filters are not allowed here", n.Variable)
	}

	head, err := s.referenceHead(existing, n.Loc)
	if err != nil {
		return nil, err
	}
	// Not registered: the name stays bound to its original entity.
	return &VertexEntity{EntityHead: *head, Node: n}, nil
}

func (s *clauseState) compileMatchEdge(r *ast.RelPattern) (*EdgeEntity, error) {
	if r.VarLength != nil {
		return nil, compileErrorf(ErrUnsupportedFeature, r.Loc,
			"variable-length relationships are not supported")
	}

	if existing := s.entities.lookup(r.Variable); existing != nil {
		return s.reuseEdge(existing, r)
	}
	if r.Variable != "" && s.columnVar(r.Variable) != nil {
		return nil, compileErrorf(ErrVariableRedeclaration, r.Loc,
			"variable %s already declared", r.Variable)
	}
	if r.Variable != "" && s.exprKind == exprKindWhere {
		return nil, compileErrorf(ErrUndefinedVariable, r.Loc,
			"variable %s not defined", r.Variable)
	}

	rtindex, relation, err := s.joinLabelRelation(r.Label, catalog.KindEdge, r.Variable, r.Loc)
	if err != nil {
		return nil, err
	}

	col := func(name string) *rel.Var {
		return &rel.Var{RTIndex: rtindex, AttNo: columnAttNo(relation.Columns, name)}
	}
	expr := makeEdgeExpr(s.c.store.Graph(),
		col(catalog.ColID), col(catalog.ColStartID), col(catalog.ColEndID), col(catalog.ColProperties))

	entity := &EdgeEntity{
		EntityHead: EntityHead{Expr: expr, Class: ClassJoined, RTIndex: rtindex, CurrentClause: true},
		Rel:        r,
	}
	s.entities.register(entity)

	if r.Variable != "" {
		s.appendTarget(r.Variable, expr)
	}
	if r.Props != nil {
		if err := s.appendPropertyConstraint(col(catalog.ColProperties), r.Props); err != nil {
			return nil, err
		}
	}
	return entity, nil
}

func (s *clauseState) reuseEdge(existing Entity, r *ast.RelPattern) (*EdgeEntity, error) {
	if existing.Kind() != catalog.KindEdge {
		return nil, compileErrorf(ErrVariableRedeclaration, r.Loc,
			"variable %s already declared as a vertex", r.Variable)
	}
	if r.Label != "" || r.Props != nil {
		return nil, compileErrorf(ErrVariableRedeclaration, r.Loc,
			"variable %s is already bound; labels and property filters are not allowed here", r.Variable)
	}

	head, err := s.referenceHead(existing, r.Loc)
	if err != nil {
		return nil, err
	}
	return &EdgeEntity{EntityHead: *head, Rel: r}, nil
}

// referenceHead builds the head of a pattern slot that re-references an
// already-bound variable: within the declaring clause it shares the
// original range table entry, across clauses it becomes a column of the
// wrapped predecessor.
func (s *clauseState) referenceHead(existing Entity, loc int) (*EntityHead, error) {
	head := existing.Head()
	if head.CurrentClause {
		return &EntityHead{
			Expr:          head.Expr,
			Class:         head.Class,
			RTIndex:       head.RTIndex,
			CurrentClause: true,
		}, nil
	}

	v := s.columnVar(existing.Name())
	if v == nil {
		return nil, compileErrorf(ErrUndefinedVariable, loc,
			"variable %s not defined", existing.Name())
	}
	return &EntityHead{Expr: v, Class: ClassReference, CurrentClause: true}, nil
}

// joinLabelRelation resolves the label, opens its backing relation and
// appends a relation RTE to the join list.
func (s *clauseState) joinLabelRelation(labelName string, kind catalog.Kind, variable string, loc int) (int, *catalog.Relation, error) {
	label, err := s.labelOf(labelName, kind, loc)
	if err != nil {
		return 0, nil, err
	}
	relation, err := s.c.store.OpenRelation(label)
	if err != nil {
		return 0, nil, compileErrorf(ErrInternal, loc, "open relation for label %s: %v", label.Name, err)
	}

	alias := variable
	if alias == "" {
		alias = s.nextAlias()
	}
	s.rtable = append(s.rtable, &rel.RangeTblEntry{
		Kind:     rel.RTERelation,
		Alias:    alias,
		Relation: relation.Name,
		Columns:  relation.Columns,
	})
	rtindex := len(s.rtable)
	s.joinlist = append(s.joinlist, rtindex)
	return rtindex, relation, nil
}

func (s *clauseState) appendTarget(name string, expr rel.Expr) *rel.TargetEntry {
	te := &rel.TargetEntry{Expr: expr, ResNo: s.nextResno, Name: name}
	s.nextResno++
	s.targetList = append(s.targetList, te)
	return te
}

// appendPropertyConstraint compiles an inline property-map filter into a
// single deferred containment predicate over the entity's properties. The
// map may be a run-time parameter, so it is never decomposed statically.
func (s *clauseState) appendPropertyConstraint(props rel.Expr, filter ast.Expr) error {
	constraint, err := s.compileExpr(filter)
	if err != nil {
		return err
	}
	s.propQuals = append(s.propQuals, &rel.FuncCall{
		Name: rel.FuncPropertyConstraint,
		Args: []rel.Expr{props, constraint},
	})
	return nil
}

// makePathJoinQuals builds the join predicates of one path, edge by edge.
// Each edge sees its neighboring vertices and, when a neighbor was folded
// out, the edge beyond it.
func (s *clauseState) makePathJoinQuals(entities []Entity) ([]rel.Expr, error) {
	var quals []rel.Expr
	for i := 1; i < len(entities); i += 2 {
		edge, ok := entities[i].(*EdgeEntity)
		if !ok {
			return nil, compileErrorf(ErrInternal, -1, "pattern element %d is not an edge", i)
		}

		var prevEdge, nextEdge *EdgeEntity
		if i-2 >= 0 {
			prevEdge = entities[i-2].(*EdgeEntity)
		}
		if i+2 < len(entities) {
			nextEdge = entities[i+2].(*EdgeEntity)
		}
		prevNode := entities[i-1].(*VertexEntity)
		nextNode := entities[i+1].(*VertexEntity)

		edgeQuals, err := s.makeJoinConditionForEdge(prevEdge, prevNode, edge, nextNode, nextEdge)
		if err != nil {
			return nil, err
		}
		quals = append(quals, edgeQuals...)
	}
	return quals, nil
}

func (s *clauseState) makeJoinConditionForEdge(prevEdge *EdgeEntity, prevNode *VertexEntity, edge *EdgeEntity, nextNode *VertexEntity, nextEdge *EdgeEntity) ([]rel.Expr, error) {
	switch edge.Rel.Dir {
	case ast.DirRight:
		return s.makeDirectedEdgeJoinConditions(prevEdge, prevNode, edge, nextNode, nextEdge,
			catalog.ColStartID, catalog.ColEndID)
	case ast.DirLeft:
		return s.makeDirectedEdgeJoinConditions(prevEdge, prevNode, edge, nextNode, nextEdge,
			catalog.ColEndID, catalog.ColStartID)
	case ast.DirNone:
		// Both directed interpretations, each a conjunction, OR'd together.
		forward, err := s.makeDirectedEdgeJoinConditions(prevEdge, prevNode, edge, nextNode, nextEdge,
			catalog.ColStartID, catalog.ColEndID)
		if err != nil {
			return nil, err
		}
		backward, err := s.makeDirectedEdgeJoinConditions(prevEdge, prevNode, edge, nextNode, nextEdge,
			catalog.ColEndID, catalog.ColStartID)
		if err != nil {
			return nil, err
		}
		if len(forward) == 0 && len(backward) == 0 {
			return nil, nil
		}
		return []rel.Expr{rel.OrAll([]rel.Expr{rel.AndAll(forward), rel.AndAll(backward)})}, nil
	default:
		return nil, compileErrorf(ErrInternal, edge.Rel.Loc, "unknown edge direction %v", edge.Rel.Dir)
	}
}

// makeDirectedEdgeJoinConditions builds one directed interpretation of an
// edge's join predicates. prevCol/nextCol are the edge's endpoint columns
// facing the previous and next neighbor under that interpretation.
func (s *clauseState) makeDirectedEdgeJoinConditions(prevEdge *EdgeEntity, prevNode *VertexEntity, edge *EdgeEntity, nextNode *VertexEntity, nextEdge *EdgeEntity, prevCol, nextCol string) ([]rel.Expr, error) {
	var quals []rel.Expr

	// Previous side: the vertex when joined, otherwise the edge beyond it.
	// A folded previous vertex always contributes its label filter here.
	if inJoinTree(prevNode) {
		qual, err := s.joinToEntity(edge, prevCol, prevNode, sideLeft)
		if err != nil {
			return nil, err
		}
		quals = append(quals, qual)
	} else if prevEdge != nil {
		qual, err := s.joinToEntity(edge, prevCol, prevEdge, sideLeft)
		if err != nil {
			return nil, err
		}
		quals = append(quals, qual)
	}
	if !inJoinTree(prevNode) {
		filter, err := s.filterVertexOnLabelID(edge, prevCol, prevNode.Node.Label)
		if err != nil {
			return nil, err
		}
		if filter != nil {
			quals = append(quals, filter)
		}
	}

	// Next side: a folded next vertex is this edge's responsibility only
	// when no further edge exists to claim it as its previous side.
	if inJoinTree(nextNode) {
		qual, err := s.joinToEntity(edge, nextCol, nextNode, sideRight)
		if err != nil {
			return nil, err
		}
		quals = append(quals, qual)
	} else if nextEdge == nil {
		filter, err := s.filterVertexOnLabelID(edge, nextCol, nextNode.Node.Label)
		if err != nil {
			return nil, err
		}
		if filter != nil {
			quals = append(quals, filter)
		}
	}

	return quals, nil
}

// joinToEntity equates one endpoint of edge with the identifier of a
// neighboring entity: a vertex's id, or the facing endpoint(s) of a
// neighboring edge when the vertex between them was folded out.
func (s *clauseState) joinToEntity(edge *EdgeEntity, col string, entity Entity, side joinSide) (rel.Expr, error) {
	edgeQual, err := s.entityQual(edge, col)
	if err != nil {
		return nil, err
	}

	switch other := entity.(type) {
	case *VertexEntity:
		idQual, err := s.entityQual(other, catalog.ColID)
		if err != nil {
			return nil, err
		}
		return rel.Eq(edgeQual, idQual), nil

	case *EdgeEntity:
		cols := facingEndpointColumns(other, side)
		quals := make([]rel.Expr, 0, len(cols))
		for _, c := range cols {
			otherQual, err := s.entityQual(other, c)
			if err != nil {
				return nil, err
			}
			quals = append(quals, rel.Eq(edgeQual, otherQual))
		}
		return rel.OrAll(quals), nil

	default:
		return nil, compileErrorf(ErrInternal, -1, "unexpected entity type %T", entity)
	}
}

// facingEndpointColumns returns the endpoint columns of a neighboring edge
// that touch the folded vertex it shares with the current edge. side says
// on which side of the current edge the neighbor sits.
func facingEndpointColumns(edge *EdgeEntity, side joinSide) []string {
	switch edge.Rel.Dir {
	case ast.DirRight:
		if side == sideLeft {
			return []string{catalog.ColEndID}
		}
		return []string{catalog.ColStartID}
	case ast.DirLeft:
		if side == sideLeft {
			return []string{catalog.ColStartID}
		}
		return []string{catalog.ColEndID}
	default:
		return []string{catalog.ColStartID, catalog.ColEndID}
	}
}

// filterVertexOnLabelID constrains a folded vertex through the adjacent
// edge's endpoint: the endpoint's label id must equal the vertex's label.
// Default labels match everything and produce no filter.
func (s *clauseState) filterVertexOnLabelID(edge *EdgeEntity, col string, labelName string) (rel.Expr, error) {
	if catalog.IsDefaultLabel(labelName) {
		return nil, nil
	}
	label, err := s.labelOf(labelName, catalog.KindVertex, edge.Rel.Loc)
	if err != nil {
		return nil, err
	}
	edgeQual, err := s.entityQual(edge, col)
	if err != nil {
		return nil, err
	}
	extract := &rel.FuncCall{Name: rel.FuncExtractLabelID, Args: []rel.Expr{edgeQual}}
	return rel.Eq(extract, &rel.Const{Value: int64(label.ID)}), nil
}

// entityQual builds the expression for one storage column of an entity: a
// direct column reference when the entity owns a range table entry in this
// clause, an accessor call over its bound value otherwise.
func (s *clauseState) entityQual(e Entity, col string) (rel.Expr, error) {
	head := e.Head()
	if head.RTIndex > 0 {
		return &rel.Var{RTIndex: head.RTIndex, AttNo: attNoFor(e.Kind(), col)}, nil
	}
	if v, ok := head.Expr.(*rel.Var); ok {
		accessor, err := accessorFunction(e.Kind(), col)
		if err != nil {
			return nil, err
		}
		return &rel.FuncCall{Name: accessor, Args: []rel.Expr{&rel.Var{
			RTIndex: v.RTIndex, AttNo: v.AttNo, Level: v.Level,
		}}}, nil
	}
	return nil, compileErrorf(ErrInternal, -1, "entity %s has no addressable value", e.Name())
}

// accessorFunction maps an entity kind and storage column to the runtime
// accessor extracting that field from a bound graph value.
func accessorFunction(kind catalog.Kind, col string) (string, error) {
	if kind == catalog.KindVertex {
		switch col {
		case catalog.ColID:
			return rel.FuncVertexID, nil
		case catalog.ColProperties:
			return rel.FuncVertexProps, nil
		}
	} else {
		switch col {
		case catalog.ColID:
			return rel.FuncEdgeID, nil
		case catalog.ColStartID:
			return rel.FuncEdgeStartID, nil
		case catalog.ColEndID:
			return rel.FuncEdgeEndID, nil
		case catalog.ColProperties:
			return rel.FuncEdgeProps, nil
		}
	}
	return "", compileErrorf(ErrInternal, -1, "no accessor for %s column %s", kind, col)
}

func attNoFor(kind catalog.Kind, col string) int {
	if kind == catalog.KindEdge {
		return columnAttNo(catalog.EdgeColumns, col)
	}
	return columnAttNo(catalog.VertexColumns, col)
}

func columnAttNo(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i + 1
		}
	}
	return 0
}

// preventDuplicateEdges emits the single predicate asserting pairwise
// distinctness of every matched edge identifier in the path.
func (s *clauseState) preventDuplicateEdges(entities []Entity) (rel.Expr, error) {
	var ids []rel.Expr
	for _, e := range entities {
		edge, ok := e.(*EdgeEntity)
		if !ok {
			continue
		}
		id, err := s.entityQual(edge, catalog.ColID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return &rel.FuncCall{Name: rel.FuncEdgeUniqueness, Args: ids}, nil
}

// pathTargetEntry builds the path value from every element's compiled
// expression, in pattern order.
func (s *clauseState) pathTargetEntry(path *ast.Path, entities []Entity) (*rel.TargetEntry, error) {
	args := make([]rel.Expr, 0, len(entities))
	for _, e := range entities {
		if e.Head().Expr == nil {
			return nil, compileErrorf(ErrInternal, path.Loc,
				"path element %s has no value expression", e.Name())
		}
		args = append(args, e.Head().Expr)
	}
	te := &rel.TargetEntry{
		Expr:  &rel.FuncCall{Name: rel.FuncBuildPath, Args: args},
		ResNo: s.nextResno,
		Name:  path.Variable,
	}
	s.nextResno++
	return te, nil
}

// makeVertexExpr builds the runtime vertex value: id, label name resolved
// from the id, and the property map.
func makeVertexExpr(g catalog.Graph, id, props *rel.Var) rel.Expr {
	labelName := &rel.FuncCall{
		Name: rel.FuncLabelName,
		Args: []rel.Expr{graphIDConst(g), id},
	}
	return &rel.FuncCall{Name: rel.FuncBuildVertex, Args: []rel.Expr{id, labelName, props}}
}

func makeEdgeExpr(g catalog.Graph, id, startID, endID, props *rel.Var) rel.Expr {
	labelName := &rel.FuncCall{
		Name: rel.FuncLabelName,
		Args: []rel.Expr{graphIDConst(g), id},
	}
	return &rel.FuncCall{Name: rel.FuncBuildEdge, Args: []rel.Expr{id, startID, endID, labelName, props}}
}
