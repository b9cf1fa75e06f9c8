// Package json provides a JSON codec for pseudo frames, schemas and rules.
//
// Numbers are decoded as json.Number so integer columns keep their full
// 64-bit range instead of passing through float64.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/zoobzio/pseudo"
)

var _ pseudo.Codec = (*jsonCodec)(nil)

// jsonCodec implements pseudo.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec.
func New() pseudo.Codec {
	return &jsonCodec{}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes a single JSON value into v. Trailing data is an error.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("json: unexpected data after top-level value")
	}
	return nil
}
