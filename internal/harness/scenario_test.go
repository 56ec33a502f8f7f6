package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

const minimalScenario = `
name: minimal
description: One rule, one case.
document:
  settings: {merge_method: transforms_only}
  transforms:
    - x: input.a + 1
cases:
  - name: adds one
    input: {a: 1}
    expect:
      result: {x: 2}
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Cases, 1)
	assert.Equal(t, "adds one", s.Cases[0].Name)
	assert.Equal(t, map[string]any{"x": 2}, s.Cases[0].Expect.Result)

	doc, err := s.CompiledDocument()
	require.NoError(t, err)
	assert.Equal(t, "minimal", doc.Name, "document name defaults to the scenario name")
	assert.Equal(t, "transforms_only", doc.Settings.MergeMethod)
	assert.Equal(t, []ir.Rule{{"x": ir.Scalar("input.a + 1")}}, doc.Transforms)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		contains string
	}{
		{
			name:     "unknown field",
			yaml:     minimalScenario + "expects: {}\n",
			contains: "failed to parse YAML",
		},
		{
			name:     "missing name",
			yaml:     "description: d\ndocument: {transforms: []}\ncases: [{name: c, expect: {error: error-101}}]\n",
			contains: "name is required",
		},
		{
			name:     "missing description",
			yaml:     "name: n\ndocument: {transforms: []}\ncases: [{name: c, expect: {error: error-101}}]\n",
			contains: "description is required",
		},
		{
			name:     "missing document",
			yaml:     "name: n\ndescription: d\ncases: [{name: c, expect: {error: error-101}}]\n",
			contains: "document is required",
		},
		{
			name:     "document without transforms",
			yaml:     "name: n\ndescription: d\ndocument: {settings: {}}\ncases: [{name: c, expect: {error: error-101}}]\n",
			contains: "transforms",
		},
		{
			name:     "no cases",
			yaml:     "name: n\ndescription: d\ndocument: {transforms: []}\n",
			contains: "cases list is required",
		},
		{
			name:     "unnamed case",
			yaml:     "name: n\ndescription: d\ndocument: {transforms: []}\ncases: [{expect: {error: error-101}}]\n",
			contains: "cases[0]: name is required",
		},
		{
			name:     "duplicate case",
			yaml:     "name: n\ndescription: d\ndocument: {transforms: []}\ncases: [{name: c, expect: {error: error-101}}, {name: c, expect: {error: error-101}}]\n",
			contains: `duplicate case name "c"`,
		},
		{
			name:     "empty expect",
			yaml:     "name: n\ndescription: d\ndocument: {transforms: []}\ncases: [{name: c, expect: {}}]\n",
			contains: "one of result, derived or error is required",
		},
		{
			name:     "result and error",
			yaml:     "name: n\ndescription: d\ndocument: {transforms: []}\ncases: [{name: c, expect: {result: {}, error: error-101}}]\n",
			contains: "mutually exclusive",
		},
		{
			name:     "unknown code",
			yaml:     "name: n\ndescription: d\ndocument: {transforms: []}\ncases: [{name: c, expect: {error: error-999}}]\n",
			contains: `unknown error code "error-999"`,
		},
		{
			name:     "message without error",
			yaml:     "name: n\ndescription: d\ndocument: {transforms: []}\ncases: [{name: c, expect: {derived: {}, message: m}}]\n",
			contains: "message requires error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
