package pseudo

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrUnsupportedSchema indicates a schema shape the path scheme cannot address,
	// such as a list of lists.
	ErrUnsupportedSchema = errors.New("unsupported schema")

	// ErrMalformedRule indicates a rule pattern failed glob validation.
	ErrMalformedRule = errors.New("malformed rule")

	// ErrStructuralMismatch indicates tabular input whose columns disagree
	// with each other or with the schema.
	ErrStructuralMismatch = errors.New("structural mismatch")

	// ErrValueCountMismatch indicates an update whose value count differs from
	// the column's row count.
	ErrValueCountMismatch = errors.New("value count mismatch")

	// ErrUnknownColumn indicates a column handle that does not belong to the document.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnmatchedPath indicates an update by path for a path that no rule matched.
	ErrUnmatchedPath = errors.New("unmatched path")

	// ErrInvalidFunction indicates a function expression that cannot be parsed.
	ErrInvalidFunction = errors.New("invalid function")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")

	// ErrTransform indicates a transformer failed for a matched field.
	ErrTransform = errors.New("transform failed")
)

// SchemaError reports a schema shape that cannot be matched.
// It unwraps to ErrUnsupportedSchema.
type SchemaError struct {
	Path   string // Path of the offending field
	Type   string // Type description of the offending field
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s at %q (%s): %s", ErrUnsupportedSchema.Error(), e.Path, e.Type, e.Reason)
	}
	return fmt.Sprintf("%s at %q: %s", ErrUnsupportedSchema.Error(), e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrUnsupportedSchema
}

// RuleError reports a rule whose pattern is not a valid glob.
// It unwraps to ErrMalformedRule.
type RuleError struct {
	Pattern string // Offending pattern
	Name    string // Rule name, if any
	Index   int    // Position of the rule in its list
	Cause   error
}

func (e *RuleError) Error() string {
	msg := fmt.Sprintf("%s %d pattern %q", ErrMalformedRule.Error(), e.Index, e.Pattern)
	if e.Name != "" {
		msg += fmt.Sprintf(" (rule %s)", e.Name)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RuleError) Unwrap() error {
	return ErrMalformedRule
}

// StructureError reports inconsistent tabular input.
// It unwraps to ErrStructuralMismatch.
type StructureError struct {
	Path   string
	Want   int
	Got    int
	Reason string
}

func (e *StructureError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s at %q: %s", ErrStructuralMismatch.Error(), e.Path, e.Reason)
	}
	return fmt.Sprintf("%s at %q: expected %d values, got %d", ErrStructuralMismatch.Error(), e.Path, e.Want, e.Got)
}

func (e *StructureError) Unwrap() error {
	return ErrStructuralMismatch
}

// CountError reports an update with the wrong number of values.
// It unwraps to ErrValueCountMismatch.
type CountError struct {
	Path string
	Want int
	Got  int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("%s for %q: column has %d rows, got %d values", ErrValueCountMismatch.Error(), e.Path, e.Want, e.Got)
}

func (e *CountError) Unwrap() error {
	return ErrValueCountMismatch
}

// TransformError represents a failure while transforming a matched field.
// It wraps a sentinel error with context about which field and function failed.
type TransformError struct {
	Err      error  // Underlying sentinel error
	Path     string // Path of the matched field
	Function string // Function expression of the winning rule
	Cause    error  // Original error from the transformer
}

func (e *TransformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s field %s: %v", e.Function, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s field %s", e.Function, e.Path)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// FunctionError reports an expression that cannot be parsed.
// It unwraps to ErrInvalidFunction.
type FunctionError struct {
	Expr   string
	Reason string
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidFunction.Error(), e.Expr, e.Reason)
}

func (e *FunctionError) Unwrap() error {
	return ErrInvalidFunction
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func newSchemaError(path, typ, reason string) error {
	return &SchemaError{Path: path, Type: typ, Reason: reason}
}

func newRuleError(index int, rule Rule, cause error) error {
	return &RuleError{Pattern: rule.Pattern, Name: rule.Name, Index: index, Cause: cause}
}

func newStructureError(path string, want, got int) error {
	return &StructureError{Path: path, Want: want, Got: got}
}

func newStructureReason(path, reason string) error {
	return &StructureError{Path: path, Reason: reason}
}

func newCountError(path string, want, got int) error {
	return &CountError{Path: path, Want: want, Got: got}
}

func newTransformError(sentinel error, path, function string, cause error) error {
	return &TransformError{
		Err:      sentinel,
		Path:     path,
		Function: function,
		Cause:    cause,
	}
}

func newFunctionError(expr, reason string) error {
	return &FunctionError{Expr: expr, Reason: reason}
}

func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}
