package pseudo

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Tree pairs a Document with rule matching and in-place updates.
//
// Matching walks the document with a bounded pool of goroutines: each
// composite child gets its own task while a worker slot is free and is
// walked inline otherwise. Every task owns its result slice; results are
// joined in column order, so the output is the depth-first walk order.
//
// A Tree is safe for concurrent use. Updates wait for running walks.
type Tree struct {
	doc     *Document
	workers int

	mu      sync.RWMutex
	matches map[string]FieldMatch
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithWorkers bounds the number of goroutines a walk may spawn beyond the
// caller's own. Zero or less walks everything inline.
func WithWorkers(n int) TreeOption {
	return func(t *Tree) {
		t.workers = n
	}
}

// NewTree wraps doc. Workers default to GOMAXPROCS.
func NewTree(doc *Document, opts ...TreeOption) *Tree {
	t := &Tree{
		doc:     doc,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Document returns the wrapped document. Callers must not mutate it while
// the tree is in use.
func (t *Tree) Document() *Document {
	return t.doc
}

// MatchRules returns one FieldMatch per leaf column that some rule matches.
// Lists and arrays of structs are transparent in paths. Documents never hold
// directly nested collections; FromFrame rejects them with a *SchemaError.
func (t *Tree) MatchRules(ctx context.Context, rules *RuleSet) ([]FieldMatch, error) {
	return t.match(ctx, rules, nil)
}

// MatchRulePair matches source rules like MatchRules and additionally
// records, for each match, the first target rule that matches the same
// path. It serves repseudonymization, where values move from the source
// function to the target function.
func (t *Tree) MatchRulePair(ctx context.Context, source, target *RuleSet) ([]FieldMatch, error) {
	return t.match(ctx, source, target)
}

func (t *Tree) match(ctx context.Context, source, target *RuleSet) (matches []FieldMatch, retErr error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()
	emitMatchStart(ctx, source.Len())

	w := &walker{
		doc:    t.doc,
		sem:    semaphore.NewWeighted(int64(max(t.workers, 0))),
		source: source,
		target: target,
	}

	defer func() {
		emitMatchComplete(ctx, source.Len(), len(matches), int(w.tasks.Load()), time.Since(start), retErr)
	}()

	out, err := w.walk(ctx, t.doc.roots)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []FieldMatch{}
	}

	t.matches = make(map[string]FieldMatch, len(out))
	for _, fm := range out {
		t.matches[fm.Path] = fm
	}
	return out, nil
}

// Update replaces the values of a matched leaf column. The number of values
// must equal the column's current count; otherwise a *CountError is
// returned and the document is left untouched. Values are converted to the
// column's type, or the column takes the type the values share when they
// do not fit it.
func (t *Tree) Update(fm FieldMatch, values []any) error {
	_, err := t.updateAll([]FieldMatch{fm}, [][]any{values})
	return err
}

// pendingUpdate is a validated column write.
type pendingUpdate struct {
	col    *column
	values []any
	dtype  DataType
}

// updateAll validates every update before committing any of them. On
// failure it returns the index of the offending match and leaves the
// document untouched.
func (t *Tree) updateAll(fms []FieldMatch, values [][]any) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := make([]pendingUpdate, len(fms))
	for i, fm := range fms {
		p, err := t.prepareUpdate(fm, values[i])
		if err != nil {
			emitColumnUpdated(context.Background(), fm.Path, len(values[i]), err)
			return i, err
		}
		pending[i] = p
	}
	for i, p := range pending {
		copy(p.col.values, p.values)
		p.col.dtype = p.dtype
		emitColumnUpdated(context.Background(), fms[i].Path, len(values[i]), nil)
	}
	return -1, nil
}

// prepareUpdate checks and converts values for the column of fm. The
// caller holds t.mu.
func (t *Tree) prepareUpdate(fm FieldMatch, values []any) (pendingUpdate, error) {
	c, err := t.doc.column(fm.Column)
	if err != nil {
		return pendingUpdate{}, err
	}
	if c.dtype.IsNested() {
		return pendingUpdate{}, fmt.Errorf("%w: column %q is not a leaf", ErrUnknownColumn, c.path)
	}
	if fm.Path != "" && normalizeMatchPath(fm.Path) != c.path {
		return pendingUpdate{}, fmt.Errorf("%w: column %d is %q, not %q", ErrUnknownColumn, fm.Column, c.path, fm.Path)
	}
	if len(values) != len(c.values) {
		return pendingUpdate{}, newCountError(c.path, len(c.values), len(values))
	}

	coerced, dtype, err := coerceValues(c.dtype, values)
	if err != nil {
		return pendingUpdate{}, newStructureReason(c.path, err.Error())
	}
	return pendingUpdate{col: c, values: coerced, dtype: dtype}, nil
}

// UpdatePath updates the column matched under path by the most recent
// MatchRules or MatchRulePair call.
func (t *Tree) UpdatePath(path string, values []any) error {
	t.mu.RLock()
	fm, ok := t.matches[normalizeMatchPath(path)]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnmatchedPath, path)
	}
	return t.Update(fm, values)
}

func normalizeMatchPath(path string) string {
	return strings.TrimPrefix(path, "/")
}

// walker is the state of one concurrent match pass.
type walker struct {
	doc    *Document
	sem    *semaphore.Weighted
	source *RuleSet
	target *RuleSet
	tasks  atomic.Int64
}

// walk visits ids in order and returns their matches concatenated in the
// same order. Composite columns run in their own goroutine when a slot is
// free.
func (w *walker) walk(ctx context.Context, ids []ColumnID) ([]FieldMatch, error) {
	slots := make([][]FieldMatch, len(ids))
	g, gctx := errgroup.WithContext(ctx)

	for i, id := range ids {
		if w.doc.columns[id].dtype.IsNested() && w.sem.TryAcquire(1) {
			w.tasks.Add(1)
			g.Go(func() error {
				defer w.sem.Release(1)
				out, err := w.visit(gctx, id)
				slots[i] = out
				return err
			})
			continue
		}
		out, err := w.visit(gctx, id)
		if err != nil {
			_ = g.Wait()
			return nil, err
		}
		slots[i] = out
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, s := range slots {
		n += len(s)
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]FieldMatch, 0, n)
	for _, s := range slots {
		out = append(out, s...)
	}
	return out, nil
}

func (w *walker) visit(ctx context.Context, id ColumnID) ([]FieldMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := &w.doc.columns[id]
	switch c.dtype {
	case TypeStruct:
		return w.walk(ctx, c.children)
	case TypeList, TypeArray:
		eid := c.children[0]
		if elem := &w.doc.columns[eid]; elem.dtype == TypeStruct {
			return w.walk(ctx, elem.children)
		}
		return w.leaf(eid), nil
	}
	return w.leaf(id), nil
}

func (w *walker) leaf(id ColumnID) []FieldMatch {
	c := &w.doc.columns[id]
	r, ok := w.source.Match(c.path)
	if !ok {
		return nil
	}
	fm := FieldMatch{
		Path:   c.path,
		Column: id,
		Rule:   r,
		Rows:   len(c.values),
	}
	if w.target != nil {
		if tr, ok := w.target.Match(c.path); ok {
			fm.Target = &tr
		}
	}
	return []FieldMatch{fm}
}
