package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

type jsonCodec struct{}

// JSON returns a codec producing two-space indented JSON with sorted keys.
// Integers decode as ir.Int without passing through float64.
func JSON() Codec {
	return jsonCodec{}
}

func (jsonCodec) Name() string        { return "json" }
func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if val, ok := v.(ir.Value); ok {
		compact, err := ir.MarshalValue(val)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, compact, "", "  "); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return json.MarshalIndent(v, "", "  ")
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	handled, err := unmarshalIR(v, func(raw *any) error {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(raw); err != nil {
			return err
		}
		if _, err := dec.Token(); err != io.EOF {
			return errors.New("unexpected data after JSON value")
		}
		return nil
	})
	if handled {
		return err
	}
	return json.Unmarshal(data, v)
}
