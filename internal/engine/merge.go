package engine

import (
	"golang.org/x/text/cases"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// MergeMethod selects how the transformed output is combined with the input.
type MergeMethod string

const (
	// MergeOverwrite overlays the output on the input.
	MergeOverwrite MergeMethod = "overwrite"

	// MergePreserve keeps the input and nests the output under "transforms".
	MergePreserve MergeMethod = "preserve"

	// MergeTransformsOnly returns the output alone.
	MergeTransformsOnly MergeMethod = "transforms_only"
)

// PreserveKey is the key holding the output under MergePreserve.
const PreserveKey = "transforms"

// MergeMethods lists the recognized methods.
var MergeMethods = []MergeMethod{MergeOverwrite, MergePreserve, MergeTransformsOnly}

// ParseMergeMethod matches s case-insensitively against the recognized
// methods. There is no default: "" is not recognized.
func ParseMergeMethod(s string) (MergeMethod, bool) {
	folded := cases.Fold().String(s)
	for _, m := range MergeMethods {
		if folded == string(m) {
			return m, true
		}
	}
	return "", false
}

// Merge composes the final result from input and output.
func Merge(method MergeMethod, input, output ir.Object) ir.Object {
	switch method {
	case MergeOverwrite:
		result := make(ir.Object, len(input)+len(output))
		for k, v := range input {
			result[k] = v
		}
		for k, v := range output {
			result[k] = v
		}
		return result
	case MergePreserve:
		result := make(ir.Object, len(input)+1)
		for k, v := range input {
			result[k] = v
		}
		result[PreserveKey] = output
		return result
	default:
		return output
	}
}
