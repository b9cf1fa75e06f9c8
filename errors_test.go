package pseudo

import (
	"errors"
	"testing"
)

func TestSchemaError_Is(t *testing.T) {
	err := newSchemaError("matrix", "list<list<int64>>", "nested collections are not addressable")

	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Error("SchemaError should unwrap to ErrUnsupportedSchema")
	}
	if errors.Is(err, ErrMalformedRule) {
		t.Error("SchemaError should not match ErrMalformedRule")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "schema with type",
			err:  newSchemaError("matrix", "list<list<int64>>", "nested collections are not addressable"),
			want: `unsupported schema at "matrix" (list<list<int64>>): nested collections are not addressable`,
		},
		{
			name: "schema without type",
			err:  newSchemaError("", "", "root must be a struct"),
			want: `unsupported schema at "": root must be a struct`,
		},
		{
			name: "rule with name",
			err:  newRuleError(1, Rule{Name: "fnr", Pattern: "{a"}, errors.New("unclosed brace")),
			want: `malformed rule 1 pattern "{a" (rule fnr): unclosed brace`,
		},
		{
			name: "rule without name",
			err:  &RuleError{Pattern: "[", Index: 0},
			want: `malformed rule 0 pattern "["`,
		},
		{
			name: "structure counts",
			err:  newStructureError("identifiers/fnr", 3, 2),
			want: `structural mismatch at "identifiers/fnr": expected 3 values, got 2`,
		},
		{
			name: "structure reason",
			err:  newStructureReason("tags", "offsets must start at 0"),
			want: `structural mismatch at "tags": offsets must start at 0`,
		},
		{
			name: "count",
			err:  newCountError("fnr", 3, 1),
			want: `value count mismatch for "fnr": column has 3 rows, got 1 values`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuleError_As(t *testing.T) {
	err := newRuleError(2, Rule{Name: "x", Pattern: "a{b"}, nil)

	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("errors.As() failed for %T", err)
	}
	if ruleErr.Index != 2 {
		t.Errorf("RuleError.Index = %d, want 2", ruleErr.Index)
	}
	if !errors.Is(err, ErrMalformedRule) {
		t.Error("RuleError should unwrap to ErrMalformedRule")
	}
}

func TestStructureError_Is(t *testing.T) {
	err := newStructureError("a", 1, 2)
	if !errors.Is(err, ErrStructuralMismatch) {
		t.Error("StructureError should unwrap to ErrStructuralMismatch")
	}
}

func TestCountError_As(t *testing.T) {
	err := newCountError("fnr", 3, 1)

	var countErr *CountError
	if !errors.As(err, &countErr) {
		t.Fatalf("errors.As() failed for %T", err)
	}
	if countErr.Want != 3 || countErr.Got != 1 {
		t.Errorf("CountError = %d/%d, want 3/1", countErr.Want, countErr.Got)
	}
	if !errors.Is(err, ErrValueCountMismatch) {
		t.Error("CountError should unwrap to ErrValueCountMismatch")
	}
}

func TestTransformError_Is(t *testing.T) {
	err := newTransformError(ErrTransform, "fnr", "daead()", errors.New("service unavailable"))

	if !errors.Is(err, ErrTransform) {
		t.Error("TransformError should unwrap to ErrTransform")
	}
	if errors.Is(err, ErrMarshal) {
		t.Error("TransformError should not match ErrMarshal")
	}
}

func TestTransformError_Message(t *testing.T) {
	err := newTransformError(ErrTransform, "fnr", "daead()", errors.New("service unavailable"))

	want := "daead() field fnr: service unavailable"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := newTransformError(ErrTransform, "fnr", "daead()", nil)
	if got := bare.Error(); got != "daead() field fnr" {
		t.Errorf("Error() = %q, want %q", got, "daead() field fnr")
	}
}

func TestCodecError_Is(t *testing.T) {
	err := newCodecError(ErrUnmarshal, errors.New("invalid json"))

	if !errors.Is(err, ErrUnmarshal) {
		t.Error("CodecError should unwrap to ErrUnmarshal")
	}
	if errors.Is(err, ErrMarshal) {
		t.Error("CodecError should not match ErrMarshal")
	}
}

func TestCodecError_Message(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := newCodecError(ErrUnmarshal, cause)

	want := "unmarshal failed: unexpected end of JSON input"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := newCodecError(ErrMarshal, nil)
	if got := bare.Error(); got != "marshal failed" {
		t.Errorf("Error() = %q, want %q", got, "marshal failed")
	}
}
