package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayAllBatches(t *testing.T) {
	path := journaledBatch(t)

	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "--journal", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Replayed 1 batch(es)")
	assert.Contains(t, out, "✓ batch-1: 3/3 runs matched")
	assert.Contains(t, out, "All batches deterministic")
}

func TestReplaySingleBatchJSON(t *testing.T) {
	path := journaledBatch(t)

	cmd := NewReplayCommand(&RootOptions{Format: "json"})
	out, _, err := execute(t, cmd, "--journal", path, "--batch", "batch-1")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	require.Len(t, resp.Data.Batches, 1)
	assert.Equal(t, "batch-1", resp.Data.Batches[0].BatchToken)
	assert.Equal(t, 3, resp.Data.Batches[0].Runs)
	assert.Equal(t, 3, resp.Data.Batches[0].Matched)
	assert.Empty(t, resp.Data.Batches[0].Mismatches)
}

func TestReplayEmptyJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")

	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "--journal", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No batches found in journal.")
}

func TestReplayErrors(t *testing.T) {
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	_, _, err := execute(t, cmd)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal is required")

	path := journaledBatch(t)
	cmd = NewReplayCommand(&RootOptions{Format: "text"})
	_, _, err = execute(t, cmd, "--journal", path, "--batch", "unknown")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "batch not found")
}

func TestReplayUsesConfiguredJournal(t *testing.T) {
	path := journaledBatch(t)

	root := &RootOptions{Format: "text"}
	root.Config.Journal.Path = path
	cmd := NewReplayCommand(root)
	out, _, err := execute(t, cmd)
	require.NoError(t, err)
	assert.Contains(t, out, "batch-1")
}
