package rel

import "testing"

func TestExprEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Expr
		want bool
	}{
		{"vars equal", &Var{RTIndex: 1, AttNo: 2}, &Var{RTIndex: 1, AttNo: 2}, true},
		{"vars differ by level", &Var{RTIndex: 1, AttNo: 2}, &Var{RTIndex: 1, AttNo: 2, Level: 1}, false},
		{"consts equal", &Const{Value: int64(7)}, &Const{Value: int64(7)}, true},
		{"consts differ", &Const{Value: int64(7)}, &Const{Value: "7"}, false},
		{"composite consts equal", &Const{Value: []any{int64(1), int64(2)}}, &Const{Value: []any{int64(1), int64(2)}}, true},
		{"composite consts differ", &Const{Value: []any{int64(1)}}, &Const{Value: []any{int64(2)}}, false},
		{"composite vs scalar", &Const{Value: []any{int64(1)}}, &Const{Value: int64(1)}, false},
		{"map consts equal", &Const{Value: map[string]any{"a": int64(1)}}, &Const{Value: map[string]any{"a": int64(1)}}, true},
		{"params equal", &Param{Name: "p"}, &Param{Name: "p"}, true},
		{"func args differ", &FuncCall{Name: "f", Args: []Expr{&Const{Value: int64(1)}}}, &FuncCall{Name: "f"}, false},
		{"aggregate flag matters", &FuncCall{Name: "count", Aggregate: true}, &FuncCall{Name: "count"}, false},
		{
			"ops recurse",
			&OpExpr{Op: "=", Left: &Var{RTIndex: 1, AttNo: 1}, Right: &Const{Value: int64(1)}},
			&OpExpr{Op: "=", Left: &Var{RTIndex: 1, AttNo: 1}, Right: &Const{Value: int64(1)}},
			true,
		},
		{"cross-type", &Var{RTIndex: 1, AttNo: 1}, &Const{Value: int64(1)}, false},
		{"sublinks never equal", &SubLink{Exists: true}, &SubLink{Exists: true}, false},
		{"nils equal", nil, nil, true},
		{"nil vs value", nil, &Const{Value: int64(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExprEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("ExprEqual = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStripVolatile(t *testing.T) {
	inner := &Var{RTIndex: 1, AttNo: 1}
	wrapped := Volatile(Volatile(inner))

	if StripVolatile(wrapped) != Expr(inner) {
		t.Error("StripVolatile should unwrap nested wrappers")
	}
	if StripVolatile(inner) != Expr(inner) {
		t.Error("StripVolatile should pass unwrapped expressions through")
	}
}

func TestAndAllOrAll(t *testing.T) {
	a := &Const{Value: true}
	b := &Const{Value: false}

	if AndAll(nil) != nil {
		t.Error("AndAll of nothing should be nil")
	}
	if AndAll([]Expr{a}) != Expr(a) {
		t.Error("a single qual should pass through unchanged")
	}
	and, ok := AndAll([]Expr{a, b}).(*BoolExpr)
	if !ok || and.Op != BoolAnd || len(and.Args) != 2 {
		t.Errorf("AndAll = %#v", and)
	}
	or, ok := OrAll([]Expr{a, b}).(*BoolExpr)
	if !ok || or.Op != BoolOr {
		t.Errorf("OrAll = %#v", or)
	}
}

func TestContainsVarsOfLevel(t *testing.T) {
	e := &OpExpr{
		Op:    "=",
		Left:  &Var{RTIndex: 1, AttNo: 1, Level: 1},
		Right: &Const{Value: int64(1)},
	}
	if ContainsVarsOfLevel(e, 0) {
		t.Error("no level-0 vars present")
	}
	if !ContainsVarsOfLevel(e, 1) {
		t.Error("the level-1 var should be found")
	}
}
