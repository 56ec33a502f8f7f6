// Package cuevalue converts between CUE values and ir values.
package cuevalue

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// ToCUE encodes v in the given context.
func ToCUE(ctx *cue.Context, v ir.Value) cue.Value {
	return ctx.Encode(ir.ToGo(v))
}

// FromCUE decodes a concrete CUE value. Definitions, hidden fields and
// optional fields are skipped; incomplete values are an error.
func FromCUE(v cue.Value) (ir.Value, error) {
	if err := v.Err(); err != nil {
		return nil, err
	}

	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Path(), err)
		}
		return ir.Int(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Path(), err)
		}
		return ir.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return ir.String(s), nil
	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, err
		}
		return ir.String(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		arr := ir.Array{}
		for iter.Next() {
			elem, err := FromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		obj := ir.Object{}
		for iter.Next() {
			elem, err := FromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Selector().Unquoted()] = elem
		}
		return obj, nil
	case cue.BottomKind:
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: value is not concrete", v.Path())
	default:
		return nil, fmt.Errorf("%s: value is not concrete (kind %s)", v.Path(), v.IncompleteKind())
	}
}
