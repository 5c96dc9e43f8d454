package compiler

import (
	"errors"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/catalog"
	"github.com/relgraph/relgraph/src/rel"
	"github.com/relgraph/relgraph/src/writeplan"
)

// compileCreate synthesizes the CREATE write plan. Identifier and property
// expressions resolve at compile time; the rows themselves are built by the
// execution operator that consumes the serialized plan blob.
func (s *clauseState) compileCreate(node *clauseNode, c *ast.CreateClause) (*rel.Query, error) {
	g := s.c.store.Graph()
	info := &writeplan.CreateInfo{GraphID: g.ID, GraphName: g.Name}

	if node.next == nil {
		info.Flags |= writeplan.ClauseFlagTerminal
	}
	if node.prev != nil {
		info.Flags |= writeplan.ClauseFlagPreviousClause
		rte, rtindex, err := s.wrapPrevClause(node)
		if err != nil {
			return nil, err
		}
		s.expandRelAttrs(rte, rtindex)
	}

	// The clause output always starts with a null column; execution keys
	// pending-row bookkeeping off it.
	s.targetList = append(s.targetList, &rel.TargetEntry{
		Expr:  &rel.Const{Value: nil},
		ResNo: s.nextResno,
		Name:  varnameCreateNull,
	})
	s.nextResno++

	for _, path := range c.Pattern {
		created, err := s.createPath(path)
		if err != nil {
			return nil, err
		}
		info.Paths = append(info.Paths, created)
	}

	blob, err := writeplan.EncodeCreate(info)
	if err != nil {
		return nil, compileErrorf(ErrInternal, c.Loc, "encode create plan: %v", err)
	}
	s.targetList = append(s.targetList, &rel.TargetEntry{
		Expr:  &rel.FuncCall{Name: rel.FuncCreateClause, Args: []rel.Expr{&rel.Const{Blob: blob}}},
		ResNo: s.nextResno,
		Name:  varnameCreateClause,
	})
	s.nextResno++

	if s.c.config.Logging.enabled(LogLevelDebug, LogCategoryWrite) {
		s.c.logger.Debug("compiled create clause",
			"paths", len(info.Paths), "terminal", info.Flags&writeplan.ClauseFlagTerminal != 0)
	}

	return s.finalize(nil), nil
}

func (s *clauseState) createPath(path *ast.Path) (writeplan.CreatePath, error) {
	var created writeplan.CreatePath

	if err := validatePathShape(path); err != nil {
		return created, err
	}

	inPath := path.Variable != ""
	if inPath {
		if s.entities.lookup(path.Variable) != nil || s.columnVar(path.Variable) != nil {
			return created, compileErrorf(ErrVariableRedeclaration, path.Loc,
				"variable %s already declared", path.Variable)
		}
		if len(path.Elements) < 3 {
			return created, compileErrorf(ErrPathTooShort, path.Loc,
				"path variable %s requires at least one edge", path.Variable)
		}
	}

	for _, elem := range path.Elements {
		var (
			target writeplan.TargetNode
			err    error
		)
		switch el := elem.(type) {
		case *ast.NodePattern:
			target, err = s.createVertex(el, inPath)
		case *ast.RelPattern:
			target, err = s.createEdge(el, inPath)
		default:
			err = compileErrorf(ErrInternal, elem.Pos(), "unexpected pattern element %T", elem)
		}
		if err != nil {
			return created, err
		}
		created.Nodes = append(created.Nodes, target)
	}

	if inPath {
		// The path value depends on entities that do not exist yet; its
		// slot is filled once the row is materialized.
		te := s.placeholderTargetEntry(path.Variable)
		s.targetList = append(s.targetList, te)
		created.PathPos = te.ResNo
	}
	return created, nil
}

func (s *clauseState) createVertex(n *ast.NodePattern, inPath bool) (writeplan.TargetNode, error) {
	if existing := s.entities.lookup(n.Variable); existing != nil {
		return s.referenceCreateVertex(existing, n, inPath)
	}
	if n.Variable != "" && s.columnVar(n.Variable) != nil {
		return writeplan.TargetNode{}, compileErrorf(ErrVariableRedeclaration, n.Loc,
			"variable %s already declared", n.Variable)
	}

	relation, label, err := s.ensureLabelRelation(n.Label, catalog.KindVertex, n.Loc)
	if err != nil {
		return writeplan.TargetNode{}, err
	}

	target := writeplan.TargetNode{
		Kind:         catalog.KindVertex,
		Flags:        writeplan.NodeFlagInsert,
		LabelName:    label.Name,
		RelationName: relation.Name,
		Variable:     n.Variable,
	}
	if n.Variable != "" {
		target.Flags |= writeplan.NodeFlagIsVar
	}
	if inPath {
		target.Flags |= writeplan.NodeFlagInPath
	}

	if target.IDExpr, err = s.c.store.ColumnDefault(relation, catalog.ColID); err != nil {
		return writeplan.TargetNode{}, compileErrorf(ErrInternal, n.Loc,
			"id default for %s: %v", relation.Name, err)
	}
	if target.PropPos, err = s.createPropsEntry(relation, n.Props, n.Loc); err != nil {
		return writeplan.TargetNode{}, err
	}

	name := n.Variable
	if name == "" {
		name = s.nextAlias()
	}
	te := s.placeholderTargetEntry(name)
	s.targetList = append(s.targetList, te)
	target.TuplePos = te.ResNo

	s.entities.register(&VertexEntity{
		EntityHead: EntityHead{Class: ClassReference, CurrentClause: true},
		Node:       n,
	})
	return target, nil
}

// referenceCreateVertex handles a CREATE pattern slot naming an existing
// vertex: the entity is not inserted, and annotating it is an error.
func (s *clauseState) referenceCreateVertex(existing Entity, n *ast.NodePattern, inPath bool) (writeplan.TargetNode, error) {
	if existing.Kind() != catalog.KindVertex {
		return writeplan.TargetNode{}, compileErrorf(ErrVariableRedeclaration, n.Loc,
			"variable %s already declared as an edge", n.Variable)
	}
	if n.Label != "" || n.Props != nil {
		return writeplan.TargetNode{}, compileErrorf(ErrExistingEntityAnnotated, n.Loc,
			"variable %s is already bound; labels and properties are not allowed here", n.Variable)
	}

	target := writeplan.TargetNode{
		Kind:     catalog.KindVertex,
		Flags:    writeplan.NodeFlagIsVar,
		Variable: n.Variable,
	}
	if inPath {
		target.Flags |= writeplan.NodeFlagInPath
	}
	if existing.Head().CurrentClause {
		target.Flags |= writeplan.NodeFlagSameClause
	}

	resno := s.targetEntryResno(n.Variable)
	if resno < 0 {
		return writeplan.TargetNode{}, compileErrorf(ErrUndefinedVariable, n.Loc,
			"variable %s not defined", n.Variable)
	}
	target.TuplePos = resno
	return target, nil
}

func (s *clauseState) createEdge(r *ast.RelPattern, inPath bool) (writeplan.TargetNode, error) {
	if r.VarLength != nil {
		return writeplan.TargetNode{}, compileErrorf(ErrUnsupportedFeature, r.Loc,
			"variable-length relationships are not supported")
	}
	if r.Dir == ast.DirNone {
		return writeplan.TargetNode{}, compileErrorf(ErrUnsupportedFeature, r.Loc,
			"created relationships must specify a direction")
	}
	if r.Label == "" {
		return writeplan.TargetNode{}, compileErrorf(ErrUnsupportedFeature, r.Loc,
			"created relationships must specify a label")
	}
	if s.entities.lookup(r.Variable) != nil || (r.Variable != "" && s.columnVar(r.Variable) != nil) {
		return writeplan.TargetNode{}, compileErrorf(ErrVariableRedeclaration, r.Loc,
			"variable %s already declared", r.Variable)
	}

	relation, label, err := s.ensureLabelRelation(r.Label, catalog.KindEdge, r.Loc)
	if err != nil {
		return writeplan.TargetNode{}, err
	}

	target := writeplan.TargetNode{
		Kind:         catalog.KindEdge,
		Flags:        writeplan.NodeFlagInsert,
		LabelName:    label.Name,
		RelationName: relation.Name,
		Variable:     r.Variable,
		Dir:          r.Dir,
	}
	if r.Variable != "" {
		target.Flags |= writeplan.NodeFlagIsVar
	}
	if inPath {
		target.Flags |= writeplan.NodeFlagInPath
	}

	if target.IDExpr, err = s.c.store.ColumnDefault(relation, catalog.ColID); err != nil {
		return writeplan.TargetNode{}, compileErrorf(ErrInternal, r.Loc,
			"id default for %s: %v", relation.Name, err)
	}
	if target.PropPos, err = s.createPropsEntry(relation, r.Props, r.Loc); err != nil {
		return writeplan.TargetNode{}, err
	}

	name := r.Variable
	if name == "" {
		name = s.nextAlias()
	}
	te := s.placeholderTargetEntry(name)
	s.targetList = append(s.targetList, te)
	target.TuplePos = te.ResNo

	s.entities.register(&EdgeEntity{
		EntityHead: EntityHead{Class: ClassReference, CurrentClause: true},
		Rel:        r,
	})
	return target, nil
}

// createPropsEntry reserves the target slot computing the new entity's
// property map: the inline map when given, the relation's column default
// otherwise. The slot is volatile-wrapped so the value survives later
// optimization untouched.
func (s *clauseState) createPropsEntry(relation *catalog.Relation, props ast.Expr, loc int) (int, error) {
	var expr rel.Expr
	if props != nil {
		if _, ok := props.(*ast.Param); ok {
			return 0, compileErrorf(ErrUnsupportedFeature, loc,
				"parameterized properties are not supported in CREATE")
		}
		compiled, err := s.compileExpr(props)
		if err != nil {
			return 0, err
		}
		expr = compiled
	} else {
		def, err := s.c.store.ColumnDefault(relation, catalog.ColProperties)
		if err != nil {
			return 0, compileErrorf(ErrInternal, loc,
				"properties default for %s: %v", relation.Name, err)
		}
		expr = def
	}

	te := &rel.TargetEntry{Expr: rel.Volatile(expr), ResNo: s.nextResno, Name: s.nextAlias()}
	s.nextResno++
	s.targetList = append(s.targetList, te)
	return te.ResNo, nil
}

// ensureLabelRelation resolves a label for a write clause, creating it
// (under the default root label) when it does not exist yet.
func (s *clauseState) ensureLabelRelation(name string, kind catalog.Kind, loc int) (*catalog.Relation, *catalog.Label, error) {
	if name == "" {
		name = catalog.DefaultLabelFor(kind)
	}
	label, err := s.c.store.ResolveLabel(name)
	switch {
	case err == nil:
		if label.Kind != kind {
			return nil, nil, compileErrorf(ErrLabelKindMismatch, loc,
				"label %s is for %ss, not %ss", name, label.Kind, kind)
		}
	case errors.Is(err, catalog.ErrNotFound):
		label, err = s.c.store.CreateLabel(name, kind, catalog.DefaultLabelFor(kind))
		if err != nil {
			return nil, nil, compileErrorf(ErrInternal, loc, "create label %s: %v", name, err)
		}
		s.c.obs.recordLabelCreated(kind.String(), s.c.config.Observability)
		if s.c.config.Logging.enabled(LogLevelInfo, LogCategoryCatalog) {
			s.c.logger.Info("created label", "label", name, "kind", kind.String())
		}
	default:
		return nil, nil, compileErrorf(ErrInternal, loc, "resolve label %s: %v", name, err)
	}

	relation, err := s.c.store.OpenRelation(label)
	if err != nil {
		return nil, nil, compileErrorf(ErrInternal, loc, "open relation for label %s: %v", name, err)
	}
	return relation, label, nil
}
