package pseudo

// Override interfaces let a type skip reflection in SchemaOf and RulesOf.
// Generated code can implement them from the same struct tags the reflective
// path reads.

// SchemaProvider supplies the schema of a type directly.
type SchemaProvider interface {
	// PseudoSchema returns the root struct field describing one record.
	PseudoSchema() *Field
}

// RulesProvider supplies the pseudonymization rules of a type directly.
type RulesProvider interface {
	// PseudoRules returns rules in priority order.
	PseudoRules() []Rule
}
