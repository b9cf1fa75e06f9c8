package benchmarks

import (
	"context"
	"testing"

	"github.com/zoobzio/pseudo"
	"github.com/zoobzio/pseudo/json"
	"github.com/zoobzio/pseudo/msgpack"
	pseudotest "github.com/zoobzio/pseudo/testing"
)

func BenchmarkMatch_Cached(b *testing.B) {
	pseudo.Reset()
	_ = pseudo.Match("identifiers/fnr", "**/fnr")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pseudo.Match("identifiers/fnr", "**/fnr")
	}
}

func BenchmarkCompile(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = pseudo.Compile("**/{fnr,dnr}/[a-z]*")
	}
}

func BenchmarkMatchSchema(b *testing.B) {
	schema := pseudotest.PersonSchema()
	rules := pseudo.MustRuleSet(pseudotest.PersonRules()...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pseudo.MatchSchema(schema, rules)
	}
}

func BenchmarkMatchRules_Inline(b *testing.B) {
	benchmarkMatchRules(b, 0)
}

func BenchmarkMatchRules_Workers4(b *testing.B) {
	benchmarkMatchRules(b, 4)
}

func benchmarkMatchRules(b *testing.B, workers int) {
	tree := pseudo.NewTree(pseudotest.WideDocument(b, 1000, 3), pseudo.WithWorkers(workers))
	rules := pseudo.MustRuleSet(pseudotest.PersonRules()...)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = tree.MatchRules(ctx, rules)
	}
}

func BenchmarkFromRecords(b *testing.B) {
	rows := pseudotest.WideDocument(b, 1000, 3).Records()
	schema := pseudotest.PersonSchema()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pseudo.FromRecords(schema, rows)
	}
}

func BenchmarkApply(b *testing.B) {
	base := pseudotest.WideDocument(b, 1000, 3)
	rules := pseudo.MustRuleSet(pseudotest.PersonRules()...)
	router := pseudo.NewRouter(&pseudotest.RecordingTransformer{})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree := pseudo.NewTree(base.Clone())
		matches, _ := tree.MatchRules(ctx, rules)
		_ = pseudo.Apply(ctx, tree, matches, router, pseudo.WithPartitionSize(100))
	}
}

func BenchmarkDecodeFrame_JSON(b *testing.B) {
	benchmarkDecodeFrame(b, json.New())
}

func BenchmarkDecodeFrame_MessagePack(b *testing.B) {
	benchmarkDecodeFrame(b, msgpack.New())
}

func benchmarkDecodeFrame(b *testing.B, c pseudo.Codec) {
	data, err := pseudo.EncodeFrame(c, pseudotest.WideDocument(b, 1000, 3))
	if err != nil {
		b.Fatalf("EncodeFrame() error: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pseudo.DecodeFrame(c, data)
	}
}
