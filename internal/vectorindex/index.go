// Package vectorindex is the read-only similarity index over the curated
// resource library.
//
// An index file is a SQLite database of position-aligned rows (metadata plus
// an embedding). Load reads it once into memory; the resulting Index is
// immutable and safe for concurrent Search calls.
package vectorindex

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/randalmurphal/cognigen/internal/resources"
)

// DefaultK is the number of neighbours returned when k is not set.
const DefaultK = 5

// Document is one indexed resource.
type Document struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description string  `json:"description"`
	Score       float64 `json:"score,omitempty"`
}

// Item converts the document into a local resource item.
func (d Document) Item() resources.Item {
	return resources.Item{
		Title:       d.Title,
		URL:         d.URL,
		Source:      resources.SourceLocal,
		Description: d.Description,
	}
}

// Index is an in-memory cosine-similarity index.
type Index struct {
	embedder Embedder
	docs     []Document
	vectors  [][]float32
	norms    []float64
	dims     int
}

// New builds an index from aligned documents and vectors. All vectors must
// have the same length.
func New(embedder Embedder, docs []Document, vectors [][]float32) (*Index, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("%d documents but %d vectors", len(docs), len(vectors))
	}
	ix := &Index{
		embedder: embedder,
		docs:     slices.Clone(docs),
		vectors:  vectors,
		norms:    make([]float64, len(vectors)),
	}
	for i, vec := range vectors {
		if i == 0 {
			ix.dims = len(vec)
		} else if len(vec) != ix.dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, want %d", i, len(vec), ix.dims)
		}
		ix.norms[i] = norm(vec)
	}
	return ix, nil
}

// Empty returns an index with no documents. Search on it always returns
// nothing.
func Empty() *Index {
	return &Index{}
}

// Load reads the index file at path. The file is opened read-only and
// closed before Load returns. A missing file yields an error wrapping
// os.ErrNotExist.
func Load(ctx context.Context, path string, embedder Embedder) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer db.Close()

	docs, vectors, err := readAll(ctx, db)
	if err != nil {
		return nil, err
	}
	return New(embedder, docs, vectors)
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docs)
}

// Search returns up to k documents most similar to query, best first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Document, error) {
	query = strings.TrimSpace(query)
	if ix.Len() == 0 || query == "" || ix.embedder == nil {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultK
	}

	embedded, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embedded) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(embedded))
	}
	q := embedded[0]
	if len(q) != ix.dims {
		return nil, fmt.Errorf("query has %d dimensions, index has %d", len(q), ix.dims)
	}
	qn := norm(q)

	scored := make([]Document, len(ix.docs))
	for i, doc := range ix.docs {
		doc.Score = cosine(q, qn, ix.vectors[i], ix.norms[i])
		scored[i] = doc
	}
	slices.SortStableFunc(scored, func(a, b Document) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Lookup adapts Search to resource items.
func (ix *Index) Lookup(ctx context.Context, query string, k int) ([]resources.Item, error) {
	docs, err := ix.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	items := make([]resources.Item, len(docs))
	for i, d := range docs {
		items[i] = d.Item()
	}
	return items, nil
}

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
