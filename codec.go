package pseudo

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// ruleFile is the encoded form of a rule list. Rules are wrapped in a
// document because some formats cannot hold a top-level array.
type ruleFile struct {
	Rules []Rule `json:"rules" yaml:"rules" msgpack:"rules" bson:"rules"`
}

// EncodeFrame encodes the columnar form of doc.
func EncodeFrame(c Codec, doc *Document) ([]byte, error) {
	data, err := c.Marshal(doc.ToFrame())
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return data, nil
}

// DecodeFrame decodes a frame and builds a Document from it. Numbers are
// converted to their column's type, so any codec's numeric widths are
// accepted.
func DecodeFrame(c Codec, data []byte) (*Document, error) {
	var frame Frame
	if err := c.Unmarshal(data, &frame); err != nil {
		return nil, newCodecError(ErrUnmarshal, err)
	}
	return FromFrame(&frame)
}

// EncodeSchema encodes a schema tree.
func EncodeSchema(c Codec, schema *Field) ([]byte, error) {
	data, err := c.Marshal(schema)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return data, nil
}

// DecodeSchema decodes and validates a schema tree.
func DecodeSchema(c Codec, data []byte) (*Field, error) {
	var schema Field
	if err := c.Unmarshal(data, &schema); err != nil {
		return nil, newCodecError(ErrUnmarshal, err)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &schema, nil
}

// EncodeRules encodes a rule list as a {"rules": [...]} document.
func EncodeRules(c Codec, rules []Rule) ([]byte, error) {
	data, err := c.Marshal(ruleFile{Rules: rules})
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return data, nil
}

// DecodeRules decodes a rule document and compiles it.
func DecodeRules(c Codec, data []byte) (*RuleSet, error) {
	var rf ruleFile
	if err := c.Unmarshal(data, &rf); err != nil {
		return nil, newCodecError(ErrUnmarshal, err)
	}
	return NewRuleSet(rf.Rules...)
}
