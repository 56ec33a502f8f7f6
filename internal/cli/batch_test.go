package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakshavingxyz/datadance/internal/codec"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

func TestBatchText(t *testing.T) {
	cmd := NewBatchCommand(&RootOptions{Format: "text"})
	out, errOut, err := execute(t, cmd, "--doc", ordersCUE, "--records", ordersJSONL)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"flags":{"big":true},"price":50,"qty":3,"sku":"abc","total":150}`, lines[0])
	assert.Contains(t, lines[1], `"error-102"`)
	assert.Equal(t, `{"flags":{"big":false},"price":2,"qty":10,"sku":"ghi","total":20}`, lines[2])

	assert.Contains(t, errOut, "3 records, 1 errors")
}

func TestBatchStrict(t *testing.T) {
	cmd := NewBatchCommand(&RootOptions{Format: "text"})
	_, _, err := execute(t, cmd, "--doc", ordersCUE, "--records", ordersJSONL, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 3 records failed")
}

func TestBatchJSON(t *testing.T) {
	cmd := NewBatchCommand(&RootOptions{Format: "json"})
	out, _, err := execute(t, cmd, "--doc", ordersCUE, "--records", ordersJSONL)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   BatchOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.BatchToken)
	assert.Len(t, resp.Data.DocumentHash, 64)
	assert.Equal(t, 1, resp.Data.Errors)
	require.Len(t, resp.Data.Runs, 3)

	for i, run := range resp.Data.Runs {
		assert.Equal(t, int64(i+1), run.Seq)
		assert.Len(t, run.ID, 64)
	}
	assert.Equal(t, ir.Int(20), resp.Data.Runs[2].Result["total"])
}

func TestBatchFromStdin(t *testing.T) {
	cmd := NewBatchCommand(&RootOptions{Format: "text"})
	cmd.SetIn(strings.NewReader("{\"price\": 1, \"qty\": 2}\n"))
	out, _, err := execute(t, cmd, "--doc", ordersCUE, "--records", "-")
	require.NoError(t, err)

	result, err := codec.DecodeObject(codec.JSON(), []byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.Equal(t, ir.Int(2), result["total"])
}

func TestBatchJournalsEveryRun(t *testing.T) {
	path := journaledBatch(t)

	runs := readBatch(t, path, "batch-1")
	require.Len(t, runs, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{runs[0].Seq, runs[1].Seq, runs[2].Seq})
	assert.Equal(t, "", runs[0].ErrorCode)
	assert.Equal(t, "error-102", runs[1].ErrorCode)
	assert.Equal(t, ir.Object{"price": ir.Int(5), "sku": ir.String("def")}, runs[1].Input)
}

func TestBatchMissingRecords(t *testing.T) {
	cmd := NewBatchCommand(&RootOptions{Format: "text"})
	_, _, err := execute(t, cmd, "--doc", ordersCUE, "--records", "missing.jsonl")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
