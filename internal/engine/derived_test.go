package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

func TestWriteDerived(t *testing.T) {
	tests := []struct {
		name     string
		target   ir.Object
		source   ir.Object
		path     []string
		expected ir.Object
	}{
		{
			name:     "creates intermediate levels",
			target:   ir.Object{},
			source:   ir.Object{"x": ir.Int(1)},
			path:     []string{"a", "b", "x"},
			expected: ir.Object{"a": ir.Object{"b": ir.Object{"x": ir.Int(1)}}},
		},
		{
			name:     "keeps existing siblings",
			target:   ir.Object{"a": ir.Object{"y": ir.Int(2)}},
			source:   ir.Object{"x": ir.Int(1)},
			path:     []string{"a", "x"},
			expected: ir.Object{"a": ir.Object{"x": ir.Int(1), "y": ir.Int(2)}},
		},
		{
			name:     "replaces scalar in the way",
			target:   ir.Object{"a": ir.String("scalar")},
			source:   ir.Object{"x": ir.Int(1)},
			path:     []string{"a", "x"},
			expected: ir.Object{"a": ir.Object{"x": ir.Int(1)}},
		},
		{
			name:     "single segment",
			target:   ir.Object{"x": ir.Int(0)},
			source:   ir.Object{"x": ir.Int(1), "ignored": ir.Int(2)},
			path:     []string{"x"},
			expected: ir.Object{"x": ir.Int(1)},
		},
		{
			name:     "empty path is a no-op",
			target:   ir.Object{"x": ir.Int(0)},
			source:   ir.Object{"x": ir.Int(1)},
			path:     nil,
			expected: ir.Object{"x": ir.Int(0)},
		},
		{
			name:     "missing source key is a no-op",
			target:   ir.Object{},
			source:   ir.Object{"y": ir.Int(1)},
			path:     []string{"a", "x"},
			expected: ir.Object{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			WriteDerived(tt.target, tt.source, tt.path)
			assert.Equal(t, tt.expected, tt.target)
		})
	}
}

func TestWriteDerivedCopiesValue(t *testing.T) {
	target := ir.Object{}
	source := ir.Object{"x": ir.Object{"k": ir.Int(1)}}

	WriteDerived(target, source, []string{"x"})
	source["x"].(ir.Object)["k"] = ir.Int(2)

	assert.Equal(t, ir.Int(1), target["x"].(ir.Object)["k"])
}
