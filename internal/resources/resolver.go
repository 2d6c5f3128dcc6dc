package resources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/observability"
)

// Defaults for NewResolver.
const (
	DefaultMaxTotal      = 5
	DefaultSourceTimeout = 10 * time.Second

	// reservedExternal is the number of slots local candidates never take.
	reservedExternal = 2
)

type namedSource struct {
	tag      Source
	searcher Searcher
}

// Resolver merges local candidates with web and video lookups.
// A Resolver is safe for concurrent use.
type Resolver struct {
	maxTotal int
	timeout  time.Duration
	sources  []namedSource
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxTotal sets the result cap. Values below 1 keep the default.
func WithMaxTotal(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxTotal = n
		}
	}
}

// WithSourceTimeout bounds each external lookup.
func WithSourceTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithWebSearch sets the general web search source.
func WithWebSearch(s Searcher) Option {
	return func(r *Resolver) { r.setSource(SourceWeb, s) }
}

// WithVideoSearch sets the video search source.
func WithVideoSearch(s Searcher) Option {
	return func(r *Resolver) { r.setSource(SourceVideo, s) }
}

// WithLogger sets the logger used for skipped sources.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the recorder for source failures.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(r *Resolver) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewResolver creates a Resolver. Without WithWebSearch or WithVideoSearch
// only local candidates are used.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		maxTotal: DefaultMaxTotal,
		timeout:  DefaultSourceTimeout,
		sources:  []namedSource{{tag: SourceWeb}, {tag: SourceVideo}},
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) setSource(tag Source, s Searcher) {
	for i := range r.sources {
		if r.sources[i].tag == tag {
			r.sources[i].searcher = s
		}
	}
}

// MaxTotal returns the result cap.
func (r *Resolver) MaxTotal() int {
	return r.maxTotal
}

// Resolve returns at most MaxTotal items with distinct URLs.
//
// Local candidates come first but fill at most MaxTotal-2 slots. Web results
// follow, then video results, each source stopping once the cap is reached.
// Items without an http or https URL are skipped. A source that errors,
// panics or exceeds its timeout is logged and skipped; it never empties the
// result.
func (r *Resolver) Resolve(ctx context.Context, query string, local []Item) []Item {
	m := newMerger(r.maxTotal)
	m.add(local, SourceLocal, max(r.maxTotal-reservedExternal, 0))

	for _, src := range r.sources {
		if m.full() {
			break
		}
		if src.searcher == nil {
			continue
		}
		items, err := r.lookup(ctx, src, query)
		if err != nil {
			observability.LogSourceFailure(r.loggerFor(ctx), string(src.tag), query, err)
			r.metrics.RecordSourceFailure(ctx, string(src.tag))
			continue
		}
		m.add(items, src.tag, r.maxTotal)
	}
	return m.items
}

// loggerFor prefers the run-scoped logger carried by ctx.
func (r *Resolver) loggerFor(ctx context.Context) *slog.Logger {
	if lc, ok := ctx.(interface{ Logger() *slog.Logger }); ok {
		if l := lc.Logger(); l != nil {
			return l
		}
	}
	return r.logger
}

type lookupResult struct {
	items []Item
	err   error
}

// lookup runs one source inside its failure boundary.
func (r *Resolver) lookup(ctx context.Context, src namedSource, query string) (items []Item, err error) {
	ctx, span := observability.StartCallSpan(ctx, "search", string(src.tag))
	defer func() { observability.EndSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan lookupResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- lookupResult{err: fmt.Errorf("panic: %v\n%s", p, debug.Stack())}
			}
		}()
		items, err := src.searcher.Search(ctx, query, r.maxTotal)
		done <- lookupResult{items: items, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, r.sourceError(src.tag, res.err)
		}
		return res.items, nil
	case <-ctx.Done():
		return nil, r.sourceError(src.tag, ctx.Err())
	}
}

func (r *Resolver) sourceError(tag Source, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = &fgerrors.TimeoutError{Operation: "search " + string(tag), Duration: r.timeout}
	}
	return &fgerrors.SourceError{Source: string(tag), Err: err}
}

// merger accumulates items under a cap with URL dedup.
type merger struct {
	limit int
	seen  map[string]struct{}
	items []Item
}

func newMerger(limit int) *merger {
	return &merger{limit: limit, seen: make(map[string]struct{}), items: make([]Item, 0, limit)}
}

func (m *merger) full() bool {
	return len(m.items) >= m.limit
}

// add appends admissible, unseen candidates tagged with source until the
// merged list reaches sourceCap items from this call or the overall cap.
func (m *merger) add(candidates []Item, source Source, sourceCap int) {
	added := 0
	for _, it := range candidates {
		if m.full() || added >= sourceCap {
			return
		}
		if !it.Admissible() {
			continue
		}
		if _, dup := m.seen[it.URL]; dup {
			continue
		}
		m.seen[it.URL] = struct{}{}
		it.Source = source
		if it.Title == "" {
			it.Title = it.URL
		}
		m.items = append(m.items, it)
		added++
	}
}
