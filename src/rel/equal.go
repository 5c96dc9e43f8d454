package rel

import "reflect"

// ExprEqual reports structural equality of two expressions. ORDER BY and
// the implicit GROUP BY use it to resolve sort keys against existing target
// entries instead of projecting a duplicate column.
func ExprEqual(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Var:
		y, ok := b.(*Var)
		return ok && x.RTIndex == y.RTIndex && x.AttNo == y.AttNo && x.Level == y.Level
	case *Const:
		y, ok := b.(*Const)
		if !ok || !constValueEqual(x.Value, y.Value) {
			return false
		}
		return bytesEqual(x.Blob, y.Blob)
	case *Param:
		y, ok := b.(*Param)
		return ok && x.Name == y.Name
	case *FuncCall:
		y, ok := b.(*FuncCall)
		return ok && x.Name == y.Name && x.Aggregate == y.Aggregate && exprsEqual(x.Args, y.Args)
	case *OpExpr:
		y, ok := b.(*OpExpr)
		return ok && x.Op == y.Op && ExprEqual(x.Left, y.Left) && ExprEqual(x.Right, y.Right)
	case *BoolExpr:
		y, ok := b.(*BoolExpr)
		return ok && x.Op == y.Op && exprsEqual(x.Args, y.Args)
	case *RowExpr:
		y, ok := b.(*RowExpr)
		return ok && exprsEqual(x.Args, y.Args)
	case *GroupingSet:
		y, ok := b.(*GroupingSet)
		return ok && exprsEqual(x.Exprs, y.Exprs)
	case *SubLink:
		// Subqueries never compare equal structurally; a fresh sub-select
		// is a fresh row source.
		return false
	default:
		return false
	}
}

func exprsEqual(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ExprEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// constValueEqual compares constant values without assuming comparability:
// a Const built outside the compiler may carry a slice or map, and the ==
// operator panics on those dynamic types.
func constValueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a).Comparable() && reflect.TypeOf(b).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// StripVolatile unwraps volatile wrappers before structural comparison.
func StripVolatile(e Expr) Expr {
	for IsVolatileWrapper(e) {
		e = e.(*FuncCall).Args[0]
	}
	return e
}
