package rel

import "encoding/json"

// JSON encoding for plans. Expressions are a sum type, so each variant tags
// itself with a "kind" field; tooling and golden tests rely on the output
// being deterministic.

func (v *Var) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string `json:"kind"`
		RTIndex int    `json:"rtindex"`
		AttNo   int    `json:"attno"`
		Level   int    `json:"level,omitempty"`
	}{"var", v.RTIndex, v.AttNo, v.Level})
}

func (c *Const) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value any    `json:"value,omitempty"`
		Blob  []byte `json:"blob,omitempty"`
	}{"const", c.Value, c.Blob})
}

func (p *Param) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}{"param", p.Name})
}

func (f *FuncCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind      string `json:"kind"`
		Name      string `json:"name"`
		Args      []Expr `json:"args,omitempty"`
		Aggregate bool   `json:"aggregate,omitempty"`
	}{"func", f.Name, f.Args, f.Aggregate})
}

func (o *OpExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Op    string `json:"op"`
		Left  Expr   `json:"left"`
		Right Expr   `json:"right"`
	}{"op", o.Op, o.Left, o.Right})
}

func (b *BoolExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Op   string `json:"op"`
		Args []Expr `json:"args"`
	}{"bool", b.Op.String(), b.Args})
}

func (r *RowExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Args []Expr `json:"args"`
	}{"row", r.Args})
}

func (g *GroupingSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Exprs []Expr `json:"exprs"`
	}{"grouping_set", g.Exprs})
}

func (s *SubLink) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string `json:"kind"`
		Exists   bool   `json:"exists,omitempty"`
		Subquery *Query `json:"subquery"`
	}{"sublink", s.Exists, s.Subquery})
}

func (k RTEKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}
