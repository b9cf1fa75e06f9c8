// Package bson provides a BSON codec for pseudo frames, schemas and rules.
//
// BSON documents cannot be top-level arrays, so only document-shaped values
// (structs and maps) can be marshaled. Embedded documents and arrays decoded
// into interfaces become map[string]any and []any, the shapes FromRecords
// and InferSchema accept.
package bson

import (
	"reflect"

	"github.com/zoobzio/pseudo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var _ pseudo.Codec = (*bsonCodec)(nil)

var registry = newRegistry()

func newRegistry() *bsoncodec.Registry {
	r := bson.NewRegistry()
	r.RegisterTypeMapEntry(bsontype.EmbeddedDocument, reflect.TypeOf(map[string]any{}))
	r.RegisterTypeMapEntry(bsontype.Array, reflect.TypeOf([]any{}))
	return r
}

// bsonCodec implements pseudo.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() pseudo.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as a BSON document.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes a BSON document into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data))
	if err != nil {
		return err
	}
	if err := dec.SetRegistry(registry); err != nil {
		return err
	}
	return dec.Decode(v)
}
