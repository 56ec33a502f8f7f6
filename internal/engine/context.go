package engine

import (
	"fmt"
	"strings"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Context carries the state of one transformation call.
//
// Derived and PathTrace are shared by every recursive step of a top-level
// call. Independent calls must not share them.
type Context struct {
	// Input is the source record. It is never mutated.
	Input ir.Object

	// Transforms are the rules, applied in order.
	Transforms []ir.Rule

	// Settings selects the merge method.
	Settings ir.Settings

	// Derived accumulates computed values. Seeded with a deep copy of Input
	// when nil.
	Derived ir.Object

	// PathTrace is the current nesting path into Derived. Created empty when
	// nil.
	PathTrace *PathTrace

	// IsSubTransformation suppresses direct writes of scalar results into
	// Derived. Set on recursive steps inside a group.
	IsSubTransformation bool
}

// PathTrace is a stack of field names.
type PathTrace struct {
	segments []string
}

// NewPathTrace returns a trace seeded with segments.
func NewPathTrace(segments ...string) *PathTrace {
	return &PathTrace{segments: append([]string(nil), segments...)}
}

// Push appends a field name.
func (p *PathTrace) Push(field string) {
	p.segments = append(p.segments, field)
}

// Pop removes and returns the last field name. Popping an empty trace
// returns "".
func (p *PathTrace) Pop() string {
	if len(p.segments) == 0 {
		return ""
	}
	last := p.segments[len(p.segments)-1]
	p.segments = p.segments[:len(p.segments)-1]
	return last
}

// Len returns the depth of the trace.
func (p *PathTrace) Len() int {
	return len(p.segments)
}

// Segments returns a copy of the trace.
func (p *PathTrace) Segments() []string {
	return append([]string(nil), p.segments...)
}

func (p *PathTrace) String() string {
	return strings.Join(p.segments, ".")
}

// DecodeContext builds a Context from the data-object shape
//
//	{input, transforms, settings, derived?, path_trace?, is_sub_transformation?}
//
// accepted by the HTTP and CLI layers.
func DecodeContext(obj ir.Object) (*Context, error) {
	tc := &Context{}

	switch in := obj["input"].(type) {
	case nil, ir.Null:
		tc.Input = ir.Object{}
	case ir.Object:
		tc.Input = in
	default:
		return nil, &ir.DecodeError{Path: "input", Message: fmt.Sprintf("must be an object, got %s", ir.KindOf(in))}
	}

	transforms, ok := obj["transforms"]
	if !ok {
		return nil, &ir.DecodeError{Path: "transforms", Message: "transforms is required"}
	}
	rules, err := ir.DecodeRules(transforms)
	if err != nil {
		return nil, err
	}
	tc.Transforms = rules

	if settings, ok := obj["settings"]; ok {
		s, err := ir.DecodeSettings(settings)
		if err != nil {
			return nil, err
		}
		tc.Settings = s
	}

	switch d := obj["derived"].(type) {
	case nil, ir.Null:
	case ir.Object:
		tc.Derived = d
	default:
		return nil, &ir.DecodeError{Path: "derived", Message: fmt.Sprintf("must be an object, got %s", ir.KindOf(d))}
	}

	switch trace := obj["path_trace"].(type) {
	case nil, ir.Null:
	case ir.Array:
		segments := make([]string, len(trace))
		for i, seg := range trace {
			s, ok := seg.(ir.String)
			if !ok {
				return nil, &ir.DecodeError{Path: fmt.Sprintf("path_trace[%d]", i), Message: "must be a string"}
			}
			segments[i] = string(s)
		}
		tc.PathTrace = NewPathTrace(segments...)
	default:
		return nil, &ir.DecodeError{Path: "path_trace", Message: fmt.Sprintf("must be an array, got %s", ir.KindOf(trace))}
	}

	switch sub := obj["is_sub_transformation"].(type) {
	case nil, ir.Null:
	case ir.Bool:
		tc.IsSubTransformation = bool(sub)
	default:
		return nil, &ir.DecodeError{Path: "is_sub_transformation", Message: fmt.Sprintf("must be a boolean, got %s", ir.KindOf(sub))}
	}

	return tc, nil
}
