package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakshavingxyz/datadance/internal/codec"
	"github.com/yakshavingxyz/datadance/internal/ir"
	"github.com/yakshavingxyz/datadance/internal/store"
)

func TestTransformFromFile(t *testing.T) {
	cmd := NewTransformCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "--doc", ordersCUE, "--input", orderJSON)
	require.NoError(t, err)

	result, err := codec.DecodeObject(codec.JSON(), []byte(out))
	require.NoError(t, err)
	assert.Equal(t, ir.Object{
		"sku":   ir.String("abc"),
		"price": ir.Int(50),
		"qty":   ir.Int(3),
		"total": ir.Int(150),
		"flags": ir.Object{"big": ir.Bool(true)},
	}, result)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestTransformErrorResultExitsOne(t *testing.T) {
	cmd := NewTransformCommand(&RootOptions{Format: "text"})
	cmd.SetIn(strings.NewReader(`{"price": 5}`))
	out, _, err := execute(t, cmd, "--doc", ordersCUE)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	result, decodeErr := codec.DecodeObject(codec.JSON(), []byte(out))
	require.NoError(t, decodeErr)
	assert.Equal(t, ir.Object{
		"error-102": ir.String("the transform input.price * input.qty uses variables not available in the context"),
	}, result)
}

func TestTransformNamedDocumentAsYAML(t *testing.T) {
	cmd := NewTransformCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "--doc", ordersYAML, "--name", "labels", "--input", orderJSON, "--codec", "yaml")
	require.NoError(t, err)

	result, err := codec.DecodeObject(codec.YAML(), []byte(out))
	require.NoError(t, err)
	assert.Equal(t, ir.Object{
		"sku":        ir.String("abc"),
		"price":      ir.Int(50),
		"qty":        ir.Int(3),
		"transforms": ir.Object{"label": ir.String("ABC")},
	}, result)
}

func TestTransformMergeOverrideToFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "result.msgpack")

	cmd := NewTransformCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd,
		"--doc", ordersCUE, "--input", orderJSON,
		"--merge", "transforms_only", "--codec", "msgpack", "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	result, err := codec.DecodeObject(codec.MsgPack(), data)
	require.NoError(t, err)
	assert.Equal(t, ir.Object{
		"total": ir.Int(150),
		"flags": ir.Object{"big": ir.Bool(true)},
	}, result)
}

func TestTransformInvalidMergeOverride(t *testing.T) {
	cmd := NewTransformCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "--doc", ordersCUE, "--input", orderJSON, "--merge", "append")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "error-104")
}

func TestTransformJournalsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	cmd := NewTransformCommand(&RootOptions{Format: "text"})
	_, _, err := execute(t, cmd, "--doc", ordersCUE, "--input", orderJSON, "--journal", path)
	require.NoError(t, err)

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	batches, err := st.ListBatches(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 1, batches[0].Runs)
	assert.Equal(t, 0, batches[0].Errors)
	assert.Equal(t, int64(1), batches[0].FirstSeq)
}

func TestTransformCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing doc flag", []string{"--input", orderJSON}, `required flag(s) "doc" not set`},
		{"unknown codec", []string{"--doc", ordersCUE, "--codec", "xml"}, "unknown codec"},
		{"ambiguous document", []string{"--doc", ordersYAML, "--input", orderJSON}, ErrCodeAmbiguousDoc},
		{"missing input", []string{"--doc", ordersCUE, "--input", "nope.json"}, "failed to read input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewTransformCommand(&RootOptions{Format: "text"})
			_, _, err := execute(t, cmd, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
