package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakshavingxyz/datadance/internal/ir"
	"github.com/yakshavingxyz/datadance/internal/testutil"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_Passes(t *testing.T) {
	result, err := Run(mustParse(t, minimalScenario))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Cases, 1)

	c := result.Cases[0]
	assert.True(t, c.Pass)
	assert.Equal(t, int64(1), c.Seq)
	assert.NotEmpty(t, c.RunID)
	assert.Equal(t, ir.Object{"x": ir.Int(2)}, c.Result)
	assert.Equal(t, ir.Object{"a": ir.Int(1), "x": ir.Int(2)}, c.Derived)
	assert.Empty(t, c.ErrorCode)
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	s := mustParse(t, `
name: failing
description: Expects the wrong value.
document:
  settings: {merge_method: transforms_only}
  transforms:
    - x: input.a + 1
cases:
  - name: wrong
    input: {a: 1}
    expect:
      result: {x: 3}
  - name: right
    input: {a: 2}
    expect:
      derived: {x: 3}
`)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Cases, 2)
	assert.False(t, result.Cases[0].Pass)
	assert.True(t, result.Cases[1].Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "wrong: result assertion failed at x")
}

func TestRun_CaseSettingsOverride(t *testing.T) {
	s := mustParse(t, `
name: override
description: Per-case merge methods.
document:
  settings: {merge_method: overwrite}
  transforms:
    - x: "1"
cases:
  - name: document settings
    input: {a: 0}
    expect:
      result: {a: 0, x: 1}
  - name: preserve
    input: {a: 0}
    settings: {merge_method: preserve}
    expect:
      result: {a: 0, transforms: {x: 1}}
  - name: invalid
    input: {a: 0}
    settings: {merge_method: merge}
    expect:
      error: error-104
      message: Invalid merge method
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "error-104", result.Cases[2].ErrorCode)
	assert.Equal(t, []int64{1, 2, 3}, []int64{result.Cases[0].Seq, result.Cases[1].Seq, result.Cases[2].Seq})
}

func TestRun_PreludeAndCustomEvaluator(t *testing.T) {
	s := mustParse(t, `
name: counter
description: A non-deterministic evaluator fails replay.
prelude: "rate: 2"
document:
  settings: {merge_method: transforms_only}
  transforms:
    - n: input.a * rate
cases:
  - name: counted
    input: {a: 5}
    expect:
      derived: {n: 1}
`)

	result, err := Run(s, WithEvaluator(testutil.Counter()))
	require.NoError(t, err)

	assert.True(t, result.Cases[0].Pass, "the case itself sees the first count")
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "replay of seq 1 produced {\"n\":2}")
}

func TestRun_Deterministic(t *testing.T) {
	first, err := Run(mustParse(t, minimalScenario))
	require.NoError(t, err)
	second, err := Run(mustParse(t, minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, first.Cases[0].RunID, second.Cases[0].RunID)

	a, err := Snapshot(first)
	require.NoError(t, err)
	b, err := Snapshot(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_BadPrelude(t *testing.T) {
	s := mustParse(t, minimalScenario)
	s.Prelude = "rate: "

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario minimal")
}

func TestRun_Logs(t *testing.T) {
	var buf bytes.Buffer
	_, err := Run(mustParse(t, minimalScenario), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "case completed")
	assert.Contains(t, buf.String(), "scenario=minimal")
}

func TestSnapshot(t *testing.T) {
	result := NewResult("snap")
	result.AddCase(CaseResult{
		Name:    "one",
		Seq:     1,
		Result:  ir.Object{"b": ir.Int(2), "a": ir.Int(1)},
		Derived: nil,
	})

	data, err := Snapshot(result)
	require.NoError(t, err)
	assert.Equal(t, `{"cases":[{"derived":{},"name":"one","result":{"a":1,"b":2},"seq":1}],"scenario":"snap"}`, string(data))
}

func TestResultAddCase(t *testing.T) {
	result := NewResult("s")
	result.AddCase(CaseResult{Name: "ok"})
	result.AddCase(CaseResult{Name: "bad", Errors: []string{"boom"}})

	assert.False(t, result.Pass)
	assert.True(t, result.Cases[0].Pass)
	assert.False(t, result.Cases[1].Pass)
	assert.Equal(t, []string{"bad: boom"}, result.Errors)
}
