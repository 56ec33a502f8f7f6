// Package codec provides content-type aware marshaling of transformation
// inputs and results.
//
// Every codec understands ir values: marshaling an ir.Value goes through its
// plain Go form with sorted object keys, and unmarshaling into *ir.Value or
// *ir.Object decodes generically and converts with ir.FromGo. Other types
// are handed to the underlying library unchanged.
package codec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Codec provides content-type aware marshaling.
type Codec interface {
	// Name is the short name accepted by ForName (e.g. "json").
	Name() string

	// ContentType returns the MIME type for this codec (e.g. "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

var registry = map[string]func() Codec{
	"json":    JSON,
	"yaml":    YAML,
	"yml":     YAML,
	"msgpack": MsgPack,
}

// ForName returns the codec registered under name (case-insensitive).
func ForName(name string) (Codec, error) {
	ctor, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q: must be one of %v", name, Names())
	}
	return ctor(), nil
}

// ForContentType returns the codec whose ContentType matches ct, ignoring
// parameters such as charset.
func ForContentType(ct string) (Codec, bool) {
	mediaType, _, _ := strings.Cut(ct, ";")
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	for _, name := range Names() {
		c := registry[name]()
		if c.ContentType() == mediaType {
			return c, true
		}
	}
	return nil, false
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeObject decodes data with c and requires a top-level object.
func DecodeObject(c Codec, data []byte) (ir.Object, error) {
	var obj ir.Object
	if err := c.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// unmarshalIR decodes generic data into an ir target. handled is false when
// target is not an ir type.
func unmarshalIR(target any, decode func(*any) error) (handled bool, err error) {
	switch t := target.(type) {
	case *ir.Value:
		var raw any
		if err := decode(&raw); err != nil {
			return true, err
		}
		v, err := ir.FromGo(raw)
		if err != nil {
			return true, err
		}
		*t = v
		return true, nil

	case *ir.Object:
		var raw any
		if err := decode(&raw); err != nil {
			return true, err
		}
		v, err := ir.FromGo(raw)
		if err != nil {
			return true, err
		}
		obj, ok := v.(ir.Object)
		if !ok {
			return true, fmt.Errorf("expected object, got %s", ir.KindOf(v))
		}
		*t = obj
		return true, nil
	}
	return false, nil
}

// plain converts ir values to their Go form and leaves anything else alone.
func plain(v any) any {
	if val, ok := v.(ir.Value); ok {
		return ir.ToGo(val)
	}
	return v
}
