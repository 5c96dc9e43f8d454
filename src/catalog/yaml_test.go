package catalog

import (
	"testing"
)

func TestParseSeed(t *testing.T) {
	store, err := ParseSeed([]byte(`
graph: social
labels:
  - name: Person
    kind: vertex
  - name: KNOWS
    kind: edge
  - name: Employee
    kind: vertex
    parent: Person
`))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}

	if store.Graph().Name != "social" {
		t.Errorf("graph name = %q", store.Graph().Name)
	}
	p, err := store.ResolveLabel("Person")
	if err != nil || p.Kind != KindVertex {
		t.Errorf("Person = %v, %v", p, err)
	}
	k, err := store.ResolveLabel("KNOWS")
	if err != nil || k.Kind != KindEdge {
		t.Errorf("KNOWS = %v, %v", k, err)
	}
	if _, err := store.ResolveLabel("Employee"); err != nil {
		t.Errorf("Employee: %v", err)
	}
}

func TestParseSeedDefaultsKindToVertex(t *testing.T) {
	store, err := ParseSeed([]byte("graph: g\nlabels:\n  - name: Thing\n"))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	l, err := store.ResolveLabel("Thing")
	if err != nil || l.Kind != KindVertex {
		t.Errorf("Thing = %v, %v", l, err)
	}
}

func TestParseSeedPinnedGraphID(t *testing.T) {
	store, err := ParseSeed([]byte("graph: g\nid: 00000000-0000-0000-0000-000000000009\n"))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if store.Graph().ID.String() != "00000000-0000-0000-0000-000000000009" {
		t.Errorf("graph id = %v", store.Graph().ID)
	}

	if _, err := ParseSeed([]byte("graph: g\nid: not-a-uuid\n")); err == nil {
		t.Error("a malformed graph id should be rejected")
	}
}

func TestParseSeedErrors(t *testing.T) {
	if _, err := ParseSeed([]byte("labels: []\n")); err == nil {
		t.Error("a seed without a graph name should be rejected")
	}
	if _, err := ParseSeed([]byte("graph: g\nlabels:\n  - name: X\n    kind: hyperedge\n")); err == nil {
		t.Error("an unknown label kind should be rejected")
	}
	if _, err := ParseSeed([]byte(":\n  -")); err == nil {
		t.Error("malformed YAML should be rejected")
	}
}
