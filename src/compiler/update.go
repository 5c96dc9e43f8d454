package compiler

import (
	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/rel"
	"github.com/relgraph/relgraph/src/writeplan"
)

// compileSet synthesizes the SET/REMOVE write plan. Each item resolves to
// the output position of the updated entity plus, for SET, a fresh slot
// computing the new property value.
func (s *clauseState) compileSet(node *clauseNode, c *ast.SetClause) (*rel.Query, error) {
	clauseName := "SET"
	if c.IsRemove {
		clauseName = "REMOVE"
	}

	if node.prev == nil {
		return nil, compileErrorf(ErrClauseCannotBeFirst, c.Loc,
			"%s cannot be the first clause", clauseName)
	}
	if len(c.Items) != 1 {
		return nil, compileErrorf(ErrUnsupportedFeature, c.Loc,
			"%s supports exactly one item, got %d", clauseName, len(c.Items))
	}

	info := &writeplan.UpdateInfo{
		Flags:      writeplan.ClauseFlagPreviousClause,
		ClauseName: clauseName,
	}
	if node.next == nil {
		info.Flags |= writeplan.ClauseFlagTerminal
	}

	rte, rtindex, err := s.wrapPrevClause(node)
	if err != nil {
		return nil, err
	}
	s.expandRelAttrs(rte, rtindex)

	item, err := s.updateItem(c.Items[0], c.IsRemove)
	if err != nil {
		return nil, err
	}
	info.Items = append(info.Items, item)

	blob, err := writeplan.EncodeUpdate(info)
	if err != nil {
		return nil, compileErrorf(ErrInternal, c.Loc, "encode %s plan: %v", clauseName, err)
	}
	s.targetList = append(s.targetList, &rel.TargetEntry{
		Expr:  &rel.FuncCall{Name: rel.FuncSetClause, Args: []rel.Expr{&rel.Const{Blob: blob}}},
		ResNo: s.nextResno,
		Name:  varnameSetClause,
	})
	s.nextResno++

	if s.c.config.Logging.enabled(LogLevelDebug, LogCategoryWrite) {
		s.c.logger.Debug("compiled update clause",
			"clause", clauseName, "variable", item.VarName, "property", item.PropName)
	}

	return s.finalize(nil), nil
}

func (s *clauseState) updateItem(item *ast.SetItem, isRemove bool) (writeplan.UpdateItem, error) {
	var out writeplan.UpdateItem

	if item.IsAdd {
		return out, compileErrorf(ErrUnsupportedFeature, item.Loc,
			"property map merge (+=) is not supported")
	}
	prop, ok := item.Prop.(*ast.PropertyRef)
	if !ok {
		return out, compileErrorf(ErrUnsupportedFeature, item.Loc,
			"only variable.property targets are supported")
	}
	ident, ok := prop.Expr.(*ast.Ident)
	if !ok {
		return out, compileErrorf(ErrUnsupportedFeature, prop.Loc,
			"only variable.property targets are supported")
	}

	out.Remove = isRemove
	out.VarName = ident.Name
	out.PropName = prop.Key

	out.EntityPos = s.targetEntryResno(ident.Name)
	if out.EntityPos < 0 {
		return out, compileErrorf(ErrUndefinedVariable, ident.Loc,
			"variable %s not defined", ident.Name)
	}

	if !isRemove {
		value, err := s.compileExpr(item.Value)
		if err != nil {
			return out, err
		}
		// The new value occupies the next output slot; wrapping keeps the
		// optimizer from eliminating a column nothing projects.
		out.ValuePos = s.nextResno
		s.targetList = append(s.targetList, &rel.TargetEntry{
			Expr:  rel.Volatile(value),
			ResNo: s.nextResno,
			Name:  s.nextAlias(),
		})
		s.nextResno++
	}
	return out, nil
}
