package ast

import (
	"strings"
	"testing"
)

func TestDecodeQueryMatchReturn(t *testing.T) {
	clauses, err := DecodeQuery([]byte(`{
		"clauses": [
			{
				"kind": "match",
				"pattern": [
					{
						"variable": "p",
						"elements": [
							{"kind": "node", "variable": "a", "label": "Person"},
							{"kind": "rel", "variable": "r", "label": "KNOWS", "direction": "right"},
							{"kind": "node", "variable": "b", "label": "Person"}
						]
					}
				],
				"where": {"kind": "op", "op": ">",
					"left": {"kind": "property", "expr": {"kind": "ident", "name": "a"}, "key": "age"},
					"right": {"kind": "literal", "value": 30}}
			},
			{
				"kind": "return",
				"distinct": true,
				"items": [{"expr": {"kind": "ident", "name": "b"}, "alias": "friend"}],
				"order_by": [{"expr": {"kind": "ident", "name": "friend"}, "descending": true}],
				"limit": {"kind": "literal", "value": 10}
			}
		]
	}`))
	if err != nil {
		t.Fatalf("DecodeQuery: %v", err)
	}
	if len(clauses) != 2 {
		t.Fatalf("len = %d, want 2", len(clauses))
	}

	m, ok := clauses[0].(*MatchClause)
	if !ok {
		t.Fatalf("clause 1 = %T, want *MatchClause", clauses[0])
	}
	if len(m.Pattern) != 1 || m.Pattern[0].Variable != "p" || len(m.Pattern[0].Elements) != 3 {
		t.Fatalf("pattern = %#v", m.Pattern)
	}
	r, ok := m.Pattern[0].Elements[1].(*RelPattern)
	if !ok || r.Dir != DirRight || r.Label != "KNOWS" {
		t.Errorf("edge = %#v", m.Pattern[0].Elements[1])
	}
	where, ok := m.Where.(*OpExpr)
	if !ok || where.Op != ">" {
		t.Fatalf("where = %#v", m.Where)
	}
	if _, ok := where.Left.(*PropertyRef); !ok {
		t.Errorf("where lhs = %#v", where.Left)
	}

	ret, ok := clauses[1].(*ReturnClause)
	if !ok {
		t.Fatalf("clause 2 = %T, want *ReturnClause", clauses[1])
	}
	if !ret.Distinct || len(ret.Items) != 1 || ret.Items[0].Alias != "friend" {
		t.Errorf("return = %#v", ret)
	}
	if len(ret.OrderBy) != 1 || !ret.OrderBy[0].Descending {
		t.Errorf("order by = %#v", ret.OrderBy)
	}
}

func TestDecodeQueryWholeNumbersStayIntegral(t *testing.T) {
	clauses, err := DecodeQuery([]byte(`{"clauses": [
		{"kind": "return", "items": [
			{"expr": {"kind": "literal", "value": 10}, "alias": "n"},
			{"expr": {"kind": "literal", "value": 1.5}, "alias": "f"}
		]}
	]}`))
	if err != nil {
		t.Fatalf("DecodeQuery: %v", err)
	}
	ret := clauses[0].(*ReturnClause)

	if v := ret.Items[0].Expr.(*Literal).Value; v != int64(10) {
		t.Errorf("whole number = %v (%T), want int64(10)", v, v)
	}
	if v := ret.Items[1].Expr.(*Literal).Value; v != 1.5 {
		t.Errorf("fraction = %v (%T), want 1.5", v, v)
	}
}

func TestDecodeQueryWriteClauses(t *testing.T) {
	clauses, err := DecodeQuery([]byte(`{"clauses": [
		{"kind": "create", "pattern": [
			{"elements": [{"kind": "node", "variable": "n", "label": "Person",
				"props": {"kind": "map", "keys": ["name"], "values": [{"kind": "literal", "value": "Ann"}]}}]}
		]},
		{"kind": "set", "items": [
			{"prop": {"kind": "property", "expr": {"kind": "ident", "name": "n"}, "key": "age"},
			 "value": {"kind": "param", "name": "age"}}
		]},
		{"kind": "remove", "items": [
			{"prop": {"kind": "property", "expr": {"kind": "ident", "name": "n"}, "key": "age"}}
		]},
		{"kind": "delete", "detach": true, "items": [{"kind": "ident", "name": "n"}]}
	]}`))
	if err != nil {
		t.Fatalf("DecodeQuery: %v", err)
	}

	create := clauses[0].(*CreateClause)
	node := create.Pattern[0].Elements[0].(*NodePattern)
	if _, ok := node.Props.(*MapExpr); !ok {
		t.Errorf("props = %#v", node.Props)
	}

	set := clauses[1].(*SetClause)
	if set.IsRemove || len(set.Items) != 1 || set.Items[0].Value == nil {
		t.Errorf("set = %#v", set)
	}

	remove := clauses[2].(*SetClause)
	if !remove.IsRemove || remove.Items[0].Value != nil {
		t.Errorf("remove = %#v", remove)
	}

	del := clauses[3].(*DeleteClause)
	if !del.Detach || len(del.Items) != 1 {
		t.Errorf("delete = %#v", del)
	}
}

func TestDecodeQueryExists(t *testing.T) {
	clauses, err := DecodeQuery([]byte(`{"clauses": [
		{"kind": "match",
		 "pattern": [{"elements": [{"kind": "node", "variable": "a", "label": "Person"}]}],
		 "where": {"kind": "exists", "pattern": [
			{"elements": [
				{"kind": "node", "variable": "a"},
				{"kind": "rel", "label": "KNOWS", "direction": "right"},
				{"kind": "node"}
			]}
		 ]}}
	]}`))
	if err != nil {
		t.Fatalf("DecodeQuery: %v", err)
	}
	m := clauses[0].(*MatchClause)
	exists, ok := m.Where.(*ExistsExpr)
	if !ok || len(exists.Pattern) != 1 {
		t.Fatalf("where = %#v", m.Where)
	}
}

func TestDecodeQueryErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", `{"clauses": []}`, "no clauses"},
		{"missing kind", `{"clauses": [{"items": []}]}`, "missing kind"},
		{"unknown clause", `{"clauses": [{"kind": "merge"}]}`, "unknown clause kind"},
		{"unknown direction", `{"clauses": [{"kind": "match", "pattern": [
			{"elements": [{"kind": "rel", "direction": "sideways"}]}]}]}`, "unknown direction"},
		{"unknown expr", `{"clauses": [{"kind": "return",
			"items": [{"expr": {"kind": "lambda"}}]}]}`, "unknown expression kind"},
		{"map mismatch", `{"clauses": [{"kind": "return",
			"items": [{"expr": {"kind": "map", "keys": ["a"], "values": []}}]}]}`, "length mismatch"},
		{"array literal", `{"clauses": [{"kind": "return",
			"items": [{"expr": {"kind": "literal", "value": [1, 2]}}]}]}`, "must be a scalar"},
		{"object literal", `{"clauses": [{"kind": "return",
			"items": [{"expr": {"kind": "literal", "value": {"a": 1}}}]}]}`, "must be a scalar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeQuery([]byte(tt.in))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
