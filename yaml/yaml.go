// Package yaml provides a YAML codec for pseudo frames, schemas and rules.
//
// Decoding is strict: keys that do not map to a struct field are rejected,
// so a misspelled key in a hand-written rule file fails loudly.
package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/zoobzio/pseudo"
	"gopkg.in/yaml.v3"
)

var _ pseudo.Codec = (*yamlCodec)(nil)

// yamlCodec implements pseudo.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() pseudo.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML with two-space indentation.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes the first YAML document into v. An empty input leaves
// v unchanged.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
