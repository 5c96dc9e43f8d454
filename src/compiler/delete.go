package compiler

import (
	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/rel"
	"github.com/relgraph/relgraph/src/writeplan"
)

// compileDelete synthesizes the DELETE write plan. Every target must be a
// bare variable bound by an earlier clause; resolution only records output
// positions, removal happens at execution time.
func (s *clauseState) compileDelete(node *clauseNode, c *ast.DeleteClause) (*rel.Query, error) {
	if node.prev == nil {
		return nil, compileErrorf(ErrClauseCannotBeFirst, c.Loc,
			"DELETE cannot be the first clause")
	}

	g := s.c.store.Graph()
	info := &writeplan.DeleteInfo{
		GraphID:   g.ID,
		GraphName: g.Name,
		Flags:     writeplan.ClauseFlagPreviousClause,
		Detach:    c.Detach,
	}
	if node.next == nil {
		info.Flags |= writeplan.ClauseFlagTerminal
	}

	rte, rtindex, err := s.wrapPrevClause(node)
	if err != nil {
		return nil, err
	}
	s.expandRelAttrs(rte, rtindex)

	for _, item := range c.Items {
		ident, ok := item.(*ast.Ident)
		if !ok {
			return nil, compileErrorf(ErrUnsupportedFeature, item.Pos(),
				"only bound variables can be deleted")
		}
		pos := s.targetEntryResno(ident.Name)
		if pos < 0 {
			return nil, compileErrorf(ErrUndefinedVariable, ident.Loc,
				"variable %s not defined", ident.Name)
		}
		info.Items = append(info.Items, writeplan.DeleteItem{
			VarName:   ident.Name,
			EntityPos: pos,
		})
	}

	blob, err := writeplan.EncodeDelete(info)
	if err != nil {
		return nil, compileErrorf(ErrInternal, c.Loc, "encode delete plan: %v", err)
	}
	s.targetList = append(s.targetList, &rel.TargetEntry{
		Expr:  &rel.FuncCall{Name: rel.FuncDeleteClause, Args: []rel.Expr{&rel.Const{Blob: blob}}},
		ResNo: s.nextResno,
		Name:  varnameDeleteClause,
	})
	s.nextResno++

	if s.c.config.Logging.enabled(LogLevelDebug, LogCategoryWrite) {
		s.c.logger.Debug("compiled delete clause",
			"targets", len(info.Items), "detach", c.Detach)
	}

	return s.finalize(nil), nil
}
