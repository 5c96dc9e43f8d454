package ast

import (
	"encoding/json"
	"fmt"
)

// JSON decoding of clause chains. This is the CLI's front door: a parser
// running elsewhere emits the AST as kind-tagged JSON and the compile
// command reads it back.
//
// Top level shape:
//
//	{"clauses": [{"kind": "match", "pattern": [...]}, ...]}

// DecodeQuery parses a JSON document into a clause chain.
func DecodeQuery(data []byte) ([]Clause, error) {
	var doc struct {
		Clauses []json.RawMessage `json:"clauses"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	if len(doc.Clauses) == 0 {
		return nil, fmt.Errorf("decode query: no clauses")
	}
	clauses := make([]Clause, 0, len(doc.Clauses))
	for i, raw := range doc.Clauses {
		c, err := decodeClause(raw)
		if err != nil {
			return nil, fmt.Errorf("clause %d: %w", i+1, err)
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func kindOf(raw json.RawMessage) (string, error) {
	var k struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &k); err != nil {
		return "", err
	}
	if k.Kind == "" {
		return "", fmt.Errorf("missing kind tag")
	}
	return k.Kind, nil
}

func decodeClause(raw json.RawMessage) (Clause, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "match":
		var c struct {
			Pattern  []json.RawMessage `json:"pattern"`
			Where    json.RawMessage   `json:"where"`
			Optional bool              `json:"optional"`
			Loc      int               `json:"loc"`
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		pattern, err := decodePaths(c.Pattern)
		if err != nil {
			return nil, err
		}
		where, err := decodeOptionalExpr(c.Where)
		if err != nil {
			return nil, err
		}
		return &MatchClause{Pattern: pattern, Where: where, Optional: c.Optional, Loc: c.Loc}, nil
	case "create":
		var c struct {
			Pattern []json.RawMessage `json:"pattern"`
			Loc     int               `json:"loc"`
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		pattern, err := decodePaths(c.Pattern)
		if err != nil {
			return nil, err
		}
		return &CreateClause{Pattern: pattern, Loc: c.Loc}, nil
	case "set", "remove":
		var c struct {
			Items []struct {
				Prop  json.RawMessage `json:"prop"`
				Value json.RawMessage `json:"value"`
				IsAdd bool            `json:"is_add"`
				Loc   int             `json:"loc"`
			} `json:"items"`
			Loc int `json:"loc"`
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		items := make([]*SetItem, 0, len(c.Items))
		for _, it := range c.Items {
			prop, err := decodeExpr(it.Prop)
			if err != nil {
				return nil, err
			}
			value, err := decodeOptionalExpr(it.Value)
			if err != nil {
				return nil, err
			}
			items = append(items, &SetItem{Prop: prop, Value: value, IsAdd: it.IsAdd, Loc: it.Loc})
		}
		return &SetClause{Items: items, IsRemove: kind == "remove", Loc: c.Loc}, nil
	case "delete":
		var c struct {
			Detach bool              `json:"detach"`
			Items  []json.RawMessage `json:"items"`
			Loc    int               `json:"loc"`
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		items := make([]Expr, 0, len(c.Items))
		for _, it := range c.Items {
			e, err := decodeExpr(it)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		return &DeleteClause{Detach: c.Detach, Items: items, Loc: c.Loc}, nil
	case "return", "with":
		var c struct {
			Distinct bool `json:"distinct"`
			Items    []struct {
				Expr  json.RawMessage `json:"expr"`
				Alias string          `json:"alias"`
				Loc   int             `json:"loc"`
			} `json:"items"`
			OrderBy []struct {
				Expr       json.RawMessage `json:"expr"`
				Descending bool            `json:"descending"`
				NullsFirst *bool           `json:"nulls_first"`
				Loc        int             `json:"loc"`
			} `json:"order_by"`
			Skip  json.RawMessage `json:"skip"`
			Limit json.RawMessage `json:"limit"`
			Where json.RawMessage `json:"where"`
			Loc   int             `json:"loc"`
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		items := make([]*Item, 0, len(c.Items))
		for _, it := range c.Items {
			e, err := decodeExpr(it.Expr)
			if err != nil {
				return nil, err
			}
			items = append(items, &Item{Expr: e, Alias: it.Alias, Loc: it.Loc})
		}
		var orderBy []*SortItem
		for _, ob := range c.OrderBy {
			e, err := decodeExpr(ob.Expr)
			if err != nil {
				return nil, err
			}
			orderBy = append(orderBy, &SortItem{Expr: e, Descending: ob.Descending, NullsFirst: ob.NullsFirst, Loc: ob.Loc})
		}
		skip, err := decodeOptionalExpr(c.Skip)
		if err != nil {
			return nil, err
		}
		limit, err := decodeOptionalExpr(c.Limit)
		if err != nil {
			return nil, err
		}
		if kind == "return" {
			return &ReturnClause{Distinct: c.Distinct, Items: items, OrderBy: orderBy, Skip: skip, Limit: limit, Loc: c.Loc}, nil
		}
		where, err := decodeOptionalExpr(c.Where)
		if err != nil {
			return nil, err
		}
		return &WithClause{Distinct: c.Distinct, Items: items, OrderBy: orderBy, Skip: skip, Limit: limit, Where: where, Loc: c.Loc}, nil
	default:
		return nil, fmt.Errorf("unknown clause kind %q", kind)
	}
}

func decodePaths(raws []json.RawMessage) ([]*Path, error) {
	paths := make([]*Path, 0, len(raws))
	for _, raw := range raws {
		var p struct {
			Variable string            `json:"variable"`
			Elements []json.RawMessage `json:"elements"`
			Loc      int               `json:"loc"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		elems := make([]PatternElement, 0, len(p.Elements))
		for _, er := range p.Elements {
			el, err := decodePatternElement(er)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		}
		paths = append(paths, &Path{Variable: p.Variable, Elements: elems, Loc: p.Loc})
	}
	return paths, nil
}

func decodePatternElement(raw json.RawMessage) (PatternElement, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "node":
		var n struct {
			Variable string          `json:"variable"`
			Label    string          `json:"label"`
			Props    json.RawMessage `json:"props"`
			Loc      int             `json:"loc"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		props, err := decodeOptionalExpr(n.Props)
		if err != nil {
			return nil, err
		}
		return &NodePattern{Variable: n.Variable, Label: n.Label, Props: props, Loc: n.Loc}, nil
	case "rel":
		var r struct {
			Variable  string          `json:"variable"`
			Label     string          `json:"label"`
			Direction string          `json:"direction"`
			Props     json.RawMessage `json:"props"`
			VarLength *VarLength      `json:"var_length"`
			Loc       int             `json:"loc"`
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		props, err := decodeOptionalExpr(r.Props)
		if err != nil {
			return nil, err
		}
		var dir Direction
		switch r.Direction {
		case "right":
			dir = DirRight
		case "left":
			dir = DirLeft
		case "", "none":
			dir = DirNone
		default:
			return nil, fmt.Errorf("unknown direction %q", r.Direction)
		}
		return &RelPattern{Variable: r.Variable, Label: r.Label, Dir: dir, Props: props, VarLength: r.VarLength, Loc: r.Loc}, nil
	default:
		return nil, fmt.Errorf("unknown pattern element kind %q", kind)
	}
}

func decodeOptionalExpr(raw json.RawMessage) (Expr, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return decodeExpr(raw)
}

func decodeExpr(raw json.RawMessage) (Expr, error) {
	kind, err := kindOf(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "literal":
		var e struct {
			Value any `json:"value"`
			Loc   int `json:"loc"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		// JSON numbers land as float64; keep whole numbers as int64 so
		// SKIP/LIMIT and id comparisons stay integral.
		if f, ok := e.Value.(float64); ok && f == float64(int64(f)) {
			e.Value = int64(f)
		}
		switch e.Value.(type) {
		case string, int64, float64, bool, nil:
		default:
			// Composite values are spelled as map expressions, not literals.
			return nil, fmt.Errorf("literal value must be a scalar, got %T", e.Value)
		}
		return &Literal{Value: e.Value, Loc: e.Loc}, nil
	case "param":
		var e struct {
			Name string `json:"name"`
			Loc  int    `json:"loc"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &Param{Name: e.Name, Loc: e.Loc}, nil
	case "ident":
		var e struct {
			Name string `json:"name"`
			Loc  int    `json:"loc"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &Ident{Name: e.Name, Loc: e.Loc}, nil
	case "property":
		var e struct {
			Expr json.RawMessage `json:"expr"`
			Key  string          `json:"key"`
			Loc  int             `json:"loc"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		inner, err := decodeExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		return &PropertyRef{Expr: inner, Key: e.Key, Loc: e.Loc}, nil
	case "map":
		var e struct {
			Keys   []string          `json:"keys"`
			Values []json.RawMessage `json:"values"`
			Loc    int               `json:"loc"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		if len(e.Keys) != len(e.Values) {
			return nil, fmt.Errorf("map keys/values length mismatch")
		}
		values := make([]Expr, 0, len(e.Values))
		for _, vr := range e.Values {
			v, err := decodeExpr(vr)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &MapExpr{Keys: e.Keys, Values: values, Loc: e.Loc}, nil
	case "call":
		var e struct {
			Name     string            `json:"name"`
			Args     []json.RawMessage `json:"args"`
			Distinct bool              `json:"distinct"`
			Loc      int               `json:"loc"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		args := make([]Expr, 0, len(e.Args))
		for _, ar := range e.Args {
			a, err := decodeExpr(ar)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return &FuncCallExpr{Name: e.Name, Args: args, Distinct: e.Distinct, Loc: e.Loc}, nil
	case "op":
		var e struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
			Loc   int             `json:"loc"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		left, err := decodeExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return &OpExpr{Op: e.Op, Left: left, Right: right, Loc: e.Loc}, nil
	case "bool":
		var e struct {
			Op   string            `json:"op"`
			Args []json.RawMessage `json:"args"`
			Loc  int               `json:"loc"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		args := make([]Expr, 0, len(e.Args))
		for _, ar := range e.Args {
			a, err := decodeExpr(ar)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return &BoolExpr{Op: e.Op, Args: args, Loc: e.Loc}, nil
	case "exists":
		var e struct {
			Pattern []json.RawMessage `json:"pattern"`
			Loc     int               `json:"loc"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		pattern, err := decodePaths(e.Pattern)
		if err != nil {
			return nil, err
		}
		return &ExistsExpr{Pattern: pattern, Loc: e.Loc}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", kind)
	}
}
