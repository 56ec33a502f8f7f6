package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

func TestParseMergeMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected MergeMethod
		ok       bool
	}{
		{"overwrite", MergeOverwrite, true},
		{"OVERWRITE", MergeOverwrite, true},
		{"Preserve", MergePreserve, true},
		{"TRANSFORMS_ONLY", MergeTransformsOnly, true},
		{"", "", false},
		{"bogus", "", false},
		{"transforms-only", "", false},
		{" overwrite", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseMergeMethod(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMerge(t *testing.T) {
	input := ir.Object{"a": ir.Int(1), "c": ir.Int(5)}
	output := ir.Object{"a": ir.Int(2), "b": ir.Int(3)}

	assert.Equal(t,
		ir.Object{"a": ir.Int(2), "b": ir.Int(3), "c": ir.Int(5)},
		Merge(MergeOverwrite, input, output))

	assert.Equal(t,
		ir.Object{"a": ir.Int(1), "c": ir.Int(5), "transforms": output},
		Merge(MergePreserve, input, output))

	assert.Equal(t, output, Merge(MergeTransformsOnly, input, output))

	assert.Equal(t, ir.Object{"a": ir.Int(1), "c": ir.Int(5)}, input, "input is not modified")
}
