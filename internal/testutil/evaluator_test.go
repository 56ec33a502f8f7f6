package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakshavingxyz/datadance/internal/evaluator"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

func TestRecordingEvaluator(t *testing.T) {
	inner := evaluator.Func(func(_ context.Context, expr string, _ evaluator.Scope) (ir.Value, error) {
		return ir.String(expr), nil
	})
	rec := NewRecordingEvaluator(inner)
	ctx := context.Background()

	v, err := rec.Evaluate(ctx, "a", evaluator.Scope{})
	require.NoError(t, err)
	assert.Equal(t, ir.String("a"), v)
	_, _ = rec.Evaluate(ctx, "b", evaluator.Scope{})

	assert.Equal(t, []string{"a", "b"}, rec.Calls())

	rec.Reset()
	assert.Empty(t, rec.Calls())
}

func TestCounter(t *testing.T) {
	c := Counter()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		v, err := c.Evaluate(ctx, "ignored", evaluator.Scope{})
		require.NoError(t, err)
		assert.Equal(t, ir.Int(want), v)
	}

	fresh, err := Counter().Evaluate(ctx, "ignored", evaluator.Scope{})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(1), fresh)
}
