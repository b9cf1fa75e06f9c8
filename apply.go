package pseudo

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Defaults for Apply, matching the pseudo service client.
const (
	DefaultPartitionSize = 10000
	DefaultMaxPartitions = 200
)

// TransformRequest carries the values of one matched column, or a partition
// of them, to a Transformer.
type TransformRequest struct {
	Path       string
	Func       string // expression of the winning rule
	TargetFunc string // expression of the target rule, if any
	Values     []any
}

// Transformer turns a batch of values into the same number of transformed
// values, in order.
type Transformer interface {
	Transform(ctx context.Context, req TransformRequest) ([]any, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, req TransformRequest) ([]any, error)

// Transform calls f.
func (f TransformerFunc) Transform(ctx context.Context, req TransformRequest) ([]any, error) {
	return f(ctx, req)
}

// Router dispatches requests to transformers by function name. Redaction is
// handled locally unless overridden; every other name goes to the fallback.
//
// Routers are safe for concurrent use.
type Router struct {
	mu       sync.RWMutex
	routes   map[FunctionName]Transformer
	fallback Transformer
}

// NewRouter returns a router that sends unrouted functions to fallback.
// A nil fallback rejects them.
func NewRouter(fallback Transformer) *Router {
	return &Router{
		routes:   map[FunctionName]Transformer{FuncRedact: Redactor{}},
		fallback: fallback,
	}
}

// Handle routes the named function to t.
// Returns the router for chaining. Safe for concurrent use.
func (r *Router) Handle(name FunctionName, t Transformer) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[name] = t
	return r
}

// Transform implements Transformer.
func (r *Router) Transform(ctx context.Context, req TransformRequest) ([]any, error) {
	fn, err := ParseFunction(req.Func)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	t, ok := r.routes[FunctionName(fn.Name)]
	r.mu.RUnlock()
	if !ok {
		t = r.fallback
	}
	if t == nil {
		return nil, newFunctionError(req.Func, "no transformer for "+fn.Name)
	}
	return t.Transform(ctx, req)
}

// ApplyOption configures Apply.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	partitionSize int
	maxPartitions int
	concurrency   int
}

// WithPartitionSize sets the number of rows per partition.
func WithPartitionSize(n int) ApplyOption {
	return func(c *applyConfig) {
		c.partitionSize = n
	}
}

// WithMaxPartitions bounds the total number of partitions across all matches.
func WithMaxPartitions(n int) ApplyOption {
	return func(c *applyConfig) {
		c.maxPartitions = n
	}
}

// WithConcurrency bounds the number of transform calls in flight.
func WithConcurrency(n int) ApplyOption {
	return func(c *applyConfig) {
		c.concurrency = n
	}
}

// Apply transforms every matched column and writes the results back into
// the tree. Each column's values are split into partitions, transformed
// concurrently and re-joined in order. Nothing is written unless every
// transform succeeds, returns as many values as it was given and fits its
// column; all columns are then updated together.
func Apply(ctx context.Context, tree *Tree, matches []FieldMatch, t Transformer, opts ...ApplyOption) error {
	cfg := applyConfig{
		partitionSize: DefaultPartitionSize,
		maxPartitions: DefaultMaxPartitions,
		concurrency:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	type job struct {
		match int
		part  int
		req   TransformRequest
	}

	var jobs []job
	results := make([][][]any, len(matches))
	starts := make([]time.Time, len(matches))
	for i, fm := range matches {
		values, err := tree.values(fm.Column)
		if err != nil {
			return err
		}
		parts := partition(values, len(matches), cfg)
		results[i] = make([][]any, len(parts))
		starts[i] = time.Now()
		for p, part := range parts {
			req := TransformRequest{Path: fm.Path, Func: fm.Rule.Func, Values: part}
			if fm.Target != nil {
				req.TargetFunc = fm.Target.Func
			}
			jobs = append(jobs, job{match: i, part: p, req: req})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.concurrency > 0 {
		g.SetLimit(cfg.concurrency)
	}
	for _, j := range jobs {
		g.Go(func() error {
			out, err := t.Transform(gctx, j.req)
			if err == nil && len(out) != len(j.req.Values) {
				err = newCountError(j.req.Path, len(j.req.Values), len(out))
			}
			if err != nil {
				err = newTransformError(ErrTransform, j.req.Path, j.req.Func, err)
				emitTransformComplete(ctx, j.req.Path, j.req.Func, len(results[j.match]), time.Since(starts[j.match]), err)
				return err
			}
			results[j.match][j.part] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	joined := make([][]any, len(matches))
	for i := range matches {
		joined[i] = []any{}
		for _, part := range results[i] {
			joined[i] = append(joined[i], part...)
		}
	}
	if i, err := tree.updateAll(matches, joined); err != nil {
		fm := matches[i]
		emitTransformComplete(ctx, fm.Path, fm.Rule.Func, len(results[i]), time.Since(starts[i]), err)
		return fmt.Errorf("update %s: %w", fm.Path, err)
	}
	for i, fm := range matches {
		emitTransformComplete(ctx, fm.Path, fm.Rule.Func, len(results[i]), time.Since(starts[i]), nil)
	}
	return nil
}

// partition splits values into chunks. The chunk count follows the pseudo
// service client: it shrinks as more columns share the partition budget
// and a column below the partition size is never split.
func partition(values []any, columns int, cfg applyConfig) [][]any {
	n := 1
	if columns > 0 && cfg.partitionSize > 0 {
		n = min(cfg.maxPartitions/columns, len(values)/(cfg.partitionSize*columns))
	}
	if n <= 1 {
		return [][]any{values}
	}
	size := max(1, len(values)/n)
	parts := make([][]any, 0, n+1)
	for start := 0; start < len(values); start += size {
		parts = append(parts, values[start:min(start+size, len(values))])
	}
	return parts
}

// values returns a copy of a leaf column's values under the tree's lock.
func (t *Tree) values(id ColumnID) ([]any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.doc.Values(id)
}
