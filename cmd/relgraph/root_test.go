package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSeed = `graph: social
id: 00000000-0000-0000-0000-000000000042
labels:
  - name: Person
    kind: vertex
  - name: KNOWS
    kind: edge
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "")
	require.NoError(t, err)
	_ = stdout

	stdout, _, err = execute(t, "", "version")
	require.NoError(t, err)
	require.Contains(t, stdout, "relgraph version")
}

func TestCompileCommand(t *testing.T) {
	seed := writeSeed(t)
	query := `{"clauses": [
		{"kind": "match", "pattern": [{"elements": [{"kind": "node", "variable": "n", "label": "Person"}]}]},
		{"kind": "return", "items": [{"expr": {"kind": "ident", "name": "n"}}]}
	]}`

	stdout, _, err := execute(t, query, "compile", "--seed", seed, "-")
	require.NoError(t, err)

	var plan map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &plan))
	require.Contains(t, plan, "TargetList")
	require.Contains(t, stdout, "social.Person")
}

func TestCompileCommandWritesOutputFile(t *testing.T) {
	seed := writeSeed(t)
	input := filepath.Join(t.TempDir(), "query.json")
	output := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(input, []byte(
		`{"clauses": [{"kind": "return", "items": [{"expr": {"kind": "literal", "value": 1}, "alias": "one"}]}]}`,
	), 0o644))

	stdout, _, err := execute(t, "", "compile", "--seed", seed, "-o", output, input)
	require.NoError(t, err)
	require.Empty(t, stdout)

	plan, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Contains(t, string(plan), `"Name": "one"`)
}

func TestCompileCommandReportsCompileErrors(t *testing.T) {
	seed := writeSeed(t)
	query := `{"clauses": [
		{"kind": "match", "pattern": [{"elements": [{"kind": "node", "variable": "n", "label": "Robot"}]}]},
		{"kind": "return", "items": [{"expr": {"kind": "ident", "name": "n"}}]}
	]}`

	_, _, err := execute(t, query, "compile", "--seed", seed, "-")
	require.Error(t, err)
	require.Contains(t, err.Error(), "UnknownLabel")
}

func TestCompileCommandRequiresSeed(t *testing.T) {
	_, _, err := execute(t, "{}", "compile", "-")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--seed is required")
}

func TestLabelsCommand(t *testing.T) {
	seed := writeSeed(t)

	stdout, _, err := execute(t, "", "labels", "--seed", seed)
	require.NoError(t, err)
	require.Contains(t, stdout, "Person")
	require.Contains(t, stdout, "social.KNOWS")
	require.Contains(t, stdout, "_default_vertex")

	stdout, _, err = execute(t, "", "labels", "--seed", seed, "--json")
	require.NoError(t, err)
	var labels []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &labels))
	require.Len(t, labels, 4)
}
