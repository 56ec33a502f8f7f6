package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunsListsBatch(t *testing.T) {
	path := journaledBatch(t)
	runs := readBatch(t, path, "batch-1")

	cmd := NewRunsCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "--journal", path, "--batch", "batch-1")
	require.NoError(t, err)

	for _, run := range runs {
		assert.Contains(t, out, run.ID)
	}
	assert.Contains(t, out, "error-102")
}

func TestRunsFailedJSON(t *testing.T) {
	path := journaledBatch(t)

	cmd := NewRunsCommand(&RootOptions{Format: "json"})
	out, _, err := execute(t, cmd, "--journal", path, "--failed")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(2), resp.Data[0].Seq)
	assert.Equal(t, "error-102", resp.Data[0].ErrorCode)
}

func TestRunsNoMatch(t *testing.T) {
	path := journaledBatch(t)

	cmd := NewRunsCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "--journal", path, "--error", "error-105")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found.")
}

func TestRunsQueryFromFlags(t *testing.T) {
	opts := &RunsOptions{Limit: 2}
	assert.Nil(t, opts.runQuery().Filter)
	assert.Equal(t, 2, opts.runQuery().Limit)

	opts = &RunsOptions{BatchToken: "b", Failed: true}
	assert.NotNil(t, opts.runQuery().Filter)
}
