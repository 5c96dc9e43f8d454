package catalog

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Seed describes a graph and its labels in YAML, used by the CLI to build
// a catalog before compiling:
//
//	graph: social
//	labels:
//	  - name: Person
//	    kind: vertex
//	  - name: KNOWS
//	    kind: edge
type Seed struct {
	Graph  string      `yaml:"graph"`
	ID     string      `yaml:"id"`
	Labels []SeedLabel `yaml:"labels"`
}

// SeedLabel is one label declaration in a seed file.
type SeedLabel struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Parent string `yaml:"parent"`
}

// LoadSeed reads and applies a YAML seed file, returning the populated
// store.
func LoadSeed(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed builds a store from YAML seed bytes.
func ParseSeed(data []byte) (*MemoryStore, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if seed.Graph == "" {
		return nil, fmt.Errorf("parse seed: graph name is required")
	}

	var store *MemoryStore
	if seed.ID != "" {
		id, err := uuid.Parse(seed.ID)
		if err != nil {
			return nil, fmt.Errorf("parse seed: graph id: %w", err)
		}
		store = NewMemoryStoreWithID(seed.Graph, id)
	} else {
		store = NewMemoryStore(seed.Graph)
	}
	for _, sl := range seed.Labels {
		var kind Kind
		switch sl.Kind {
		case "vertex", "":
			kind = KindVertex
		case "edge":
			kind = KindEdge
		default:
			return nil, fmt.Errorf("label %q: unknown kind %q", sl.Name, sl.Kind)
		}
		parent := sl.Parent
		if parent == "" {
			parent = DefaultLabelFor(kind)
		}
		if _, err := store.CreateLabel(sl.Name, kind, parent); err != nil {
			return nil, err
		}
	}
	return store, nil
}
