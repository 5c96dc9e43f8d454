package writeplan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/catalog"
	"github.com/relgraph/relgraph/src/packstream"
	"github.com/relgraph/relgraph/src/rel"
)

// Plan kind discriminators inside encoded blobs.
const (
	planCreate = "create"
	planUpdate = "update"
	planDelete = "delete"
)

// EncodeCreate serializes a CREATE write plan.
func EncodeCreate(info *CreateInfo) ([]byte, error) {
	paths := make([]any, len(info.Paths))
	for i, p := range info.Paths {
		nodes := make([]any, len(p.Nodes))
		for j, n := range p.Nodes {
			m := map[string]any{
				"kind":     int64(n.Kind),
				"flags":    int64(n.Flags),
				"label":    n.LabelName,
				"relation": n.RelationName,
				"variable": n.Variable,
				"dir":      int64(n.Dir),
				"tuple":    int64(n.TuplePos),
				"prop":     int64(n.PropPos),
			}
			if n.IDExpr != nil {
				encoded, err := encodeExpr(n.IDExpr)
				if err != nil {
					return nil, err
				}
				m["id_expr"] = encoded
			}
			nodes[j] = m
		}
		paths[i] = map[string]any{
			"path_pos": int64(p.PathPos),
			"nodes":    nodes,
		}
	}

	return packstream.Marshal(map[string]any{
		"version":    int64(Version),
		"plan":       planCreate,
		"graph_id":   info.GraphID.String(),
		"graph_name": info.GraphName,
		"flags":      int64(info.Flags),
		"paths":      paths,
	})
}

// DecodeCreate deserializes a CREATE write plan.
func DecodeCreate(data []byte) (*CreateInfo, error) {
	root, err := decodeRoot(data, planCreate)
	if err != nil {
		return nil, err
	}

	info := &CreateInfo{
		GraphName: asString(root["graph_name"]),
		Flags:     uint32(asInt(root["flags"])),
	}
	if info.GraphID, err = uuid.Parse(asString(root["graph_id"])); err != nil {
		return nil, fmt.Errorf("writeplan: bad graph id: %w", err)
	}

	rawPaths, _ := root["paths"].([]any)
	info.Paths = make([]CreatePath, 0, len(rawPaths))
	for _, rp := range rawPaths {
		pm, ok := rp.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("writeplan: malformed path entry")
		}
		path := CreatePath{PathPos: int(asInt(pm["path_pos"]))}
		rawNodes, _ := pm["nodes"].([]any)
		for _, rn := range rawNodes {
			nm, ok := rn.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("writeplan: malformed target node")
			}
			node := TargetNode{
				Kind:         catalog.Kind(asInt(nm["kind"])),
				Flags:        uint32(asInt(nm["flags"])),
				LabelName:    asString(nm["label"]),
				RelationName: asString(nm["relation"]),
				Variable:     asString(nm["variable"]),
				Dir:          ast.Direction(asInt(nm["dir"])),
				TuplePos:     int(asInt(nm["tuple"])),
				PropPos:      int(asInt(nm["prop"])),
			}
			if raw, ok := nm["id_expr"]; ok {
				if node.IDExpr, err = decodeExpr(raw); err != nil {
					return nil, err
				}
			}
			path.Nodes = append(path.Nodes, node)
		}
		info.Paths = append(info.Paths, path)
	}
	return info, nil
}

// EncodeUpdate serializes a SET or REMOVE write plan.
func EncodeUpdate(info *UpdateInfo) ([]byte, error) {
	items := make([]any, len(info.Items))
	for i, it := range info.Items {
		items[i] = map[string]any{
			"remove":     it.Remove,
			"add":        it.Add,
			"var":        it.VarName,
			"prop":       it.PropName,
			"entity_pos": int64(it.EntityPos),
			"value_pos":  int64(it.ValuePos),
		}
	}
	return packstream.Marshal(map[string]any{
		"version": int64(Version),
		"plan":    planUpdate,
		"flags":   int64(info.Flags),
		"clause":  info.ClauseName,
		"items":   items,
	})
}

// DecodeUpdate deserializes a SET or REMOVE write plan.
func DecodeUpdate(data []byte) (*UpdateInfo, error) {
	root, err := decodeRoot(data, planUpdate)
	if err != nil {
		return nil, err
	}

	info := &UpdateInfo{
		Flags:      uint32(asInt(root["flags"])),
		ClauseName: asString(root["clause"]),
	}
	rawItems, _ := root["items"].([]any)
	for _, ri := range rawItems {
		im, ok := ri.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("writeplan: malformed update item")
		}
		remove, _ := im["remove"].(bool)
		add, _ := im["add"].(bool)
		info.Items = append(info.Items, UpdateItem{
			Remove:    remove,
			Add:       add,
			VarName:   asString(im["var"]),
			PropName:  asString(im["prop"]),
			EntityPos: int(asInt(im["entity_pos"])),
			ValuePos:  int(asInt(im["value_pos"])),
		})
	}
	return info, nil
}

// EncodeDelete serializes a DELETE write plan.
func EncodeDelete(info *DeleteInfo) ([]byte, error) {
	items := make([]any, len(info.Items))
	for i, it := range info.Items {
		items[i] = map[string]any{
			"var":        it.VarName,
			"entity_pos": int64(it.EntityPos),
		}
	}
	return packstream.Marshal(map[string]any{
		"version":    int64(Version),
		"plan":       planDelete,
		"graph_id":   info.GraphID.String(),
		"graph_name": info.GraphName,
		"flags":      int64(info.Flags),
		"detach":     info.Detach,
		"items":      items,
	})
}

// DecodeDelete deserializes a DELETE write plan.
func DecodeDelete(data []byte) (*DeleteInfo, error) {
	root, err := decodeRoot(data, planDelete)
	if err != nil {
		return nil, err
	}

	detach, _ := root["detach"].(bool)
	info := &DeleteInfo{
		GraphName: asString(root["graph_name"]),
		Flags:     uint32(asInt(root["flags"])),
		Detach:    detach,
	}
	if info.GraphID, err = uuid.Parse(asString(root["graph_id"])); err != nil {
		return nil, fmt.Errorf("writeplan: bad graph id: %w", err)
	}

	rawItems, _ := root["items"].([]any)
	for _, ri := range rawItems {
		im, ok := ri.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("writeplan: malformed delete item")
		}
		info.Items = append(info.Items, DeleteItem{
			VarName:   asString(im["var"]),
			EntityPos: int(asInt(im["entity_pos"])),
		})
	}
	return info, nil
}

func decodeRoot(data []byte, wantPlan string) (map[string]any, error) {
	value, err := packstream.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("writeplan: %w", err)
	}
	root, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("writeplan: blob is not a map")
	}
	if v := asInt(root["version"]); v != Version {
		return nil, fmt.Errorf("writeplan: unsupported version %d", v)
	}
	if p := asString(root["plan"]); p != wantPlan {
		return nil, fmt.Errorf("writeplan: expected %s plan, got %q", wantPlan, p)
	}
	return root, nil
}

func asInt(v any) int64 {
	i, _ := v.(int64)
	return i
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// encodeExpr renders a relational expression as a packstream-compatible map
// tree. Only the expression forms that can appear in column defaults and
// property constraints are supported; subqueries in particular cannot be
// carried inside a blob.
func encodeExpr(e rel.Expr) (any, error) {
	switch x := e.(type) {
	case *rel.Var:
		return map[string]any{
			"expr":    "var",
			"rtindex": int64(x.RTIndex),
			"attno":   int64(x.AttNo),
			"level":   int64(x.Level),
		}, nil
	case *rel.Const:
		m := map[string]any{"expr": "const"}
		if x.Blob != nil {
			m["blob"] = string(x.Blob)
		} else {
			m["value"] = x.Value
		}
		return m, nil
	case *rel.Param:
		return map[string]any{"expr": "param", "name": x.Name}, nil
	case *rel.FuncCall:
		args := make([]any, len(x.Args))
		for i, a := range x.Args {
			encoded, err := encodeExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = encoded
		}
		return map[string]any{
			"expr":      "func",
			"name":      x.Name,
			"args":      args,
			"aggregate": x.Aggregate,
		}, nil
	case *rel.OpExpr:
		left, err := encodeExpr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeExpr(x.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"expr": "op", "op": x.Op, "left": left, "right": right}, nil
	case *rel.BoolExpr:
		args := make([]any, len(x.Args))
		for i, a := range x.Args {
			encoded, err := encodeExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = encoded
		}
		return map[string]any{"expr": "bool", "op": int64(x.Op), "args": args}, nil
	default:
		return nil, fmt.Errorf("writeplan: cannot serialize %T into a blob", e)
	}
}

func decodeExpr(raw any) (rel.Expr, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("writeplan: malformed expression node")
	}
	switch asString(m["expr"]) {
	case "var":
		return &rel.Var{
			RTIndex: int(asInt(m["rtindex"])),
			AttNo:   int(asInt(m["attno"])),
			Level:   int(asInt(m["level"])),
		}, nil
	case "const":
		if blob, ok := m["blob"].(string); ok {
			return &rel.Const{Blob: []byte(blob)}, nil
		}
		return &rel.Const{Value: m["value"]}, nil
	case "param":
		return &rel.Param{Name: asString(m["name"])}, nil
	case "func":
		rawArgs, _ := m["args"].([]any)
		args := make([]rel.Expr, len(rawArgs))
		for i, ra := range rawArgs {
			a, err := decodeExpr(ra)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		agg, _ := m["aggregate"].(bool)
		return &rel.FuncCall{Name: asString(m["name"]), Args: args, Aggregate: agg}, nil
	case "op":
		left, err := decodeExpr(m["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(m["right"])
		if err != nil {
			return nil, err
		}
		return &rel.OpExpr{Op: asString(m["op"]), Left: left, Right: right}, nil
	case "bool":
		rawArgs, _ := m["args"].([]any)
		args := make([]rel.Expr, len(rawArgs))
		for i, ra := range rawArgs {
			a, err := decodeExpr(ra)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return &rel.BoolExpr{Op: rel.BoolOp(asInt(m["op"])), Args: args}, nil
	default:
		return nil, fmt.Errorf("writeplan: unknown expression kind %q", asString(m["expr"]))
	}
}
