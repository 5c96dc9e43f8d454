package compiler

import (
	"strings"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/rel"
)

// aggregateFunctions are the functions whose presence flags the query for
// the implicit-grouping projection transform.
var aggregateFunctions = map[string]bool{
	"count":   true,
	"sum":     true,
	"avg":     true,
	"min":     true,
	"max":     true,
	"collect": true,
}

// compileExpr lowers a scalar expression to its relational form. Variable
// references resolve positionally against the visible range tables; names
// that resolve nowhere are an error, since pattern variables can only be
// introduced by MATCH and CREATE, never inside an expression.
func (s *clauseState) compileExpr(e ast.Expr) (rel.Expr, error) {
	switch x := e.(type) {
	case *ast.Literal:
		return &rel.Const{Value: x.Value}, nil

	case *ast.Param:
		return &rel.Param{Name: x.Name}, nil

	case *ast.Ident:
		if v := s.columnVar(x.Name); v != nil {
			return v, nil
		}
		return nil, compileErrorf(ErrUndefinedVariable, x.Loc,
			"variable %s not defined", x.Name)

	case *ast.PropertyRef:
		base, err := s.compileExpr(x.Expr)
		if err != nil {
			return nil, err
		}
		return &rel.OpExpr{Op: "->", Left: base, Right: &rel.Const{Value: x.Key}}, nil

	case *ast.MapExpr:
		return s.compileMapExpr(x)

	case *ast.FuncCallExpr:
		return s.compileFuncCall(x)

	case *ast.OpExpr:
		left, err := s.compileExpr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := s.compileExpr(x.Right)
		if err != nil {
			return nil, err
		}
		return &rel.OpExpr{Op: x.Op, Left: left, Right: right}, nil

	case *ast.BoolExpr:
		return s.compileBoolExpr(x)

	case *ast.ExistsExpr:
		return s.compileExists(x)

	default:
		return nil, compileErrorf(ErrInternal, e.Pos(), "unexpected expression type %T", e)
	}
}

// compileMapExpr builds a runtime map constructor with alternating
// key/value arguments, keys as constants.
func (s *clauseState) compileMapExpr(m *ast.MapExpr) (rel.Expr, error) {
	args := make([]rel.Expr, 0, len(m.Keys)*2)
	for i, key := range m.Keys {
		value, err := s.compileExpr(m.Values[i])
		if err != nil {
			return nil, err
		}
		args = append(args, &rel.Const{Value: key}, value)
	}
	return &rel.FuncCall{Name: rel.FuncBuildMap, Args: args}, nil
}

func (s *clauseState) compileFuncCall(fc *ast.FuncCallExpr) (rel.Expr, error) {
	name := strings.ToLower(fc.Name)
	aggregate := aggregateFunctions[name]
	if aggregate {
		if s.exprKind == exprKindWhere {
			return nil, compileErrorf(ErrUnsupportedFeature, fc.Loc,
				"aggregate functions are not allowed in WHERE")
		}
		s.hasAggs = true
	}
	if fc.Distinct && !aggregate {
		return nil, compileErrorf(ErrUnsupportedFeature, fc.Loc,
			"DISTINCT is only valid inside an aggregate")
	}

	args := make([]rel.Expr, 0, len(fc.Args))
	for _, arg := range fc.Args {
		compiled, err := s.compileExpr(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, compiled)
	}
	return &rel.FuncCall{Name: name, Args: args, Aggregate: aggregate}, nil
}

func (s *clauseState) compileBoolExpr(b *ast.BoolExpr) (rel.Expr, error) {
	args := make([]rel.Expr, 0, len(b.Args))
	for _, arg := range b.Args {
		compiled, err := s.compileExpr(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, compiled)
	}

	var op rel.BoolOp
	switch b.Op {
	case "and":
		op = rel.BoolAnd
	case "or":
		op = rel.BoolOr
	case "not":
		op = rel.BoolNot
	default:
		return nil, compileErrorf(ErrInternal, b.Loc, "unknown boolean operator %q", b.Op)
	}
	return &rel.BoolExpr{Op: op, Args: args}, nil
}

// compileExists lowers EXISTS over a pattern to an EXISTS sub-link whose
// subquery is the pattern compiled as its own MATCH, with outer variables
// visible one level up.
func (s *clauseState) compileExists(e *ast.ExistsExpr) (rel.Expr, error) {
	sub := &ast.SubPattern{Pattern: e.Pattern, Loc: e.Loc}

	child := newClauseState(s.c, s)
	child.exprKind = exprKindWhere
	child.entities.entities = s.entities.entities

	query, err := child.compileSubPattern(sub)
	if err != nil {
		return nil, err
	}
	return &rel.SubLink{Exists: true, Subquery: query}, nil
}
