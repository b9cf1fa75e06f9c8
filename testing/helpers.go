// Package testing provides fixtures for pseudo tests: a nested person
// dataset in record, struct and document form, and a deterministic
// transformer standing in for the remote pseudonymization service.
package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/zoobzio/pseudo"
)

// Identifiers is the nested identifier block of a Person.
type Identifiers struct {
	FNR string `json:"fnr" pseudo:"daead(keyId=ssb-common-key-1)"`
	DNR string `json:"dnr"`
}

// Address is one element of Person.Addresses.
type Address struct {
	Street string `json:"street" pseudo:"redact(placeholder=#)"`
	Zip    string `json:"zip"`
}

// Person is the struct form of the person dataset. Its tags declare the
// same rules as PersonRules.
type Person struct {
	FNR         string       `json:"fnr" pseudo:"daead(keyId=ssb-common-key-1)"`
	Identifiers *Identifiers `json:"identifiers"`
	Addresses   []Address    `json:"addresses"`
	Tags        []string     `json:"tags"`
	Scores      [2]int64     `json:"scores"`
}

// PersonSchema returns the schema of the person dataset.
func PersonSchema() *pseudo.Field {
	return pseudo.Schema(
		pseudo.Scalar("fnr", pseudo.TypeString),
		pseudo.Struct("identifiers",
			pseudo.Scalar("fnr", pseudo.TypeString),
			pseudo.Scalar("dnr", pseudo.TypeString),
		),
		pseudo.List("addresses", pseudo.Struct("",
			pseudo.Scalar("street", pseudo.TypeString),
			pseudo.Scalar("zip", pseudo.TypeString),
		)),
		pseudo.List("tags", pseudo.Scalar("", pseudo.TypeString)),
		pseudo.Array("scores", pseudo.Scalar("", pseudo.TypeInt64), 2),
	)
}

// PersonRecords returns three rows covering null structs, empty lists and
// missing fields.
func PersonRecords() []map[string]any {
	return []map[string]any{
		{
			"fnr":         "11111111111",
			"identifiers": map[string]any{"fnr": "22222222222", "dnr": "41111111111"},
			"addresses":   []any{map[string]any{"street": "Storgata 1", "zip": "0150"}},
			"tags":        []any{"x", "y"},
			"scores":      []any{int64(1), int64(2)},
		},
		{
			"fnr":       "33333333333",
			"addresses": []any{},
			"scores":    []any{int64(3), int64(4)},
		},
		{
			"identifiers": map[string]any{"fnr": "44444444444"},
			"addresses": []any{
				map[string]any{"street": "Bryggen 2", "zip": "5003"},
				map[string]any{"street": "Torget 3", "zip": "7011"},
			},
			"tags": []any{"z"},
		},
	}
}

// PersonRules returns the rules declared by Person's tags, written as
// globs.
func PersonRules() []pseudo.Rule {
	return []pseudo.Rule{
		{Name: "fnr", Pattern: "**/fnr", Func: "daead(keyId=ssb-common-key-1)"},
		{Name: "street", Pattern: "addresses/street", Func: "redact(placeholder=#)"},
	}
}

// PersonDocument builds the person dataset as a Document.
func PersonDocument(tb testing.TB) *pseudo.Document {
	tb.Helper()
	doc, err := pseudo.FromRecords(PersonSchema(), PersonRecords())
	if err != nil {
		tb.Fatalf("FromRecords() error: %v", err)
	}
	return doc
}

// WideDocument builds a document of n rows shaped like the person dataset,
// each with addrs addresses.
func WideDocument(tb testing.TB, n, addrs int) *pseudo.Document {
	tb.Helper()
	rows := make([]map[string]any, n)
	for i := range rows {
		list := make([]any, addrs)
		for j := range list {
			list[j] = map[string]any{"street": fmt.Sprintf("Gate %d", j), "zip": fmt.Sprintf("%04d", j)}
		}
		rows[i] = map[string]any{
			"fnr":         fmt.Sprintf("%011d", i),
			"identifiers": map[string]any{"fnr": fmt.Sprintf("%011d", i+1), "dnr": fmt.Sprintf("%011d", i+2)},
			"addresses":   list,
			"tags":        []any{"a"},
			"scores":      []any{int64(i), int64(i + 1)},
		}
	}
	doc, err := pseudo.FromRecords(PersonSchema(), rows)
	if err != nil {
		tb.Fatalf("FromRecords() error: %v", err)
	}
	return doc
}

// RecordingTransformer prefixes every string with its function name, e.g.
// "daead:11111111111", and records the requests it receives. Non-string
// values pass through. It is safe for concurrent use.
type RecordingTransformer struct {
	mu   sync.Mutex
	reqs []pseudo.TransformRequest
}

// Transform implements pseudo.Transformer.
func (r *RecordingTransformer) Transform(_ context.Context, req pseudo.TransformRequest) ([]any, error) {
	fn, err := pseudo.ParseFunction(req.Func)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()

	out := make([]any, len(req.Values))
	for i, v := range req.Values {
		if s, ok := v.(string); ok {
			out[i] = fn.Name + ":" + s
			continue
		}
		out[i] = v
	}
	return out, nil
}

// Requests returns a copy of the recorded requests.
func (r *RecordingTransformer) Requests() []pseudo.TransformRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pseudo.TransformRequest, len(r.reqs))
	copy(out, r.reqs)
	return out
}

// Reveal undoes RecordingTransformer's prefix.
func Reveal(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if _, rest, found := strings.Cut(s, ":"); found {
		return rest
	}
	return s
}
