package store

import (
	"encoding/json"
	"fmt"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// marshalObject converts an Object to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalObject(what string, obj ir.Object) (string, error) {
	if obj == nil {
		obj = ir.Object{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

// unmarshalObject parses canonical JSON TEXT to an Object.
// Uses ir.Object.UnmarshalJSON which keeps integers as ir.Int, so values
// above 2^53 keep their precision.
func unmarshalObject(what, data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return obj, nil
}
