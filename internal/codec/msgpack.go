package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

type msgpackCodec struct{}

// MsgPack returns a MessagePack codec. Map keys are written in sorted order
// so equal values encode to equal bytes.
func MsgPack() Codec {
	return msgpackCodec{}
}

func (msgpackCodec) Name() string        { return "msgpack" }
func (msgpackCodec) ContentType() string { return "application/msgpack" }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(plain(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	handled, err := unmarshalIR(v, func(raw *any) error {
		return msgpack.Unmarshal(data, raw)
	})
	if handled {
		return err
	}
	return msgpack.Unmarshal(data, v)
}
