// Package pseudo finds the fields of nested tabular data that
// pseudonymization rules apply to, and writes transformed values back.
//
// A rule pairs a glob pattern with a function expression. Patterns are
// matched against slash-separated field paths such as "identifiers/fnr":
//
//	*        any run of characters within one segment
//	**       any run of characters across segments; "**/" also matches nothing
//	?        one character other than '/'
//	{a,b}    either alternative
//	[a-z]    a character class; [!a-z] negates it
//	\x       a literal x
//
// Matching is case-insensitive and a single leading '/' is ignored on both
// sides. Malformed patterns are rejected when a RuleSet is built, never at
// match time. When several rules match a path the first one wins.
//
// # Schemas
//
// A schema is a tree of Field values. Structs contribute a path segment per
// child. Lists and arrays are transparent: the fields of a list of structs
// have the same paths as if the list were a single struct, and a list of
// scalars is a leaf at the list's own path. Collections of collections are
// not supported.
//
//	schema := pseudo.Schema(
//	    pseudo.Scalar("fnr", pseudo.TypeString),
//	    pseudo.List("addresses", pseudo.Struct("",
//	        pseudo.Scalar("street", pseudo.TypeString),
//	    )),
//	)
//	rules := pseudo.MustRuleSet(pseudo.Rule{Pattern: "**/fnr", Func: "daead(keyId=ssb-common-key-1)"})
//	concrete, _ := pseudo.MatchSchema(schema, rules)
//
// Schemas can also be derived from Go types with SchemaOf, and rules from
// `pseudo:"..."` struct tags with RulesOf.
//
// # Documents
//
// A Document holds data column by column: one column per schema node,
// addressed by a stable ColumnID. Lists use offsets into a single element
// column, arrays a fixed element count per row. Documents are built from a
// Frame (the serializable columnar form) or from row maps, and read back
// the same ways.
//
//	doc, _ := pseudo.FromRecords(schema, rows)
//	tree := pseudo.NewTree(doc, pseudo.WithWorkers(4))
//	matches, _ := tree.MatchRules(ctx, rules)
//	for _, m := range matches {
//	    _ = tree.Update(m, transform(m))
//	}
//
// MatchRules walks the document concurrently. Each composite child runs in
// its own goroutine while a worker slot is free and inline otherwise; the
// result is always in depth-first order. Update replaces one leaf column in
// place and rejects a value count that differs from the column's length
// without changing anything.
//
// # Transformation
//
// Apply sends every matched column, split into partitions, to a Transformer
// and writes the results back only when all calls succeed. A Router sends
// each function name to its own Transformer; redact(...) is evaluated
// locally by Redactor.
//
// # Codecs
//
// Frames, schemas and rule lists can be encoded with any Codec. The json,
// yaml, msgpack and bson sub-packages provide implementations. Decoded
// numbers are converted to their column's type, so each format's numeric
// widths are accepted.
//
// # Events
//
// Operations emit capitan signals (SignalRulesCompiled, SignalMatchComplete,
// SignalColumnUpdated and others) carrying counts, durations and errors.
package pseudo
