package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/yakshavingxyz/datadance/internal/runner"
	"github.com/yakshavingxyz/datadance/internal/store"
)

var (
	ordersCUE   = filepath.Join("testdata", "docs", "orders.cue")
	ordersYAML  = filepath.Join("testdata", "docs", "orders.yaml")
	packageDir  = filepath.Join("testdata", "docs", "pkg")
	invalidJSON = filepath.Join("testdata", "docs", "invalid.json")
	orderJSON   = filepath.Join("testdata", "order.json")
	ordersJSONL = filepath.Join("testdata", "orders.jsonl")
)

// execute runs cmd with args and returns what it wrote to stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// journaledBatch runs testdata/orders.jsonl through orders.cue into a fresh
// journal under the token "batch-1" and returns the journal path.
func journaledBatch(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "runs.db")
	opts := &BatchOptions{
		RootOptions:    &RootOptions{Format: "text"},
		Doc:            ordersCUE,
		Records:        ordersJSONL,
		Journal:        path,
		TokenGenerator: runner.NewFixedGenerator("batch-1"),
	}
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	require.NoError(t, runBatch(opts, cmd))
	return path
}

// readBatch returns the journaled runs of a batch.
func readBatch(t *testing.T, path, token string) []store.Run {
	t.Helper()

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ReadBatch(context.Background(), token)
	require.NoError(t, err)
	return runs
}
