// Package msgpack provides a MessagePack codec for pseudo frames, schemas
// and rules.
//
// Integers are written in their most compact form and decoded into
// interfaces as int64 or uint64, so frames stay small on the wire and
// scalar columns see a single integer width.
package msgpack

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zoobzio/pseudo"
)

var _ pseudo.Codec = (*msgpackCodec)(nil)

// msgpackCodec implements pseudo.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() pseudo.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack.
func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes MessagePack data into v.
func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}
