// Package content turns parsed generator payloads into schema-conformant
// artifacts.
//
// Nothing in this package fails. Missing fields take defaults from the
// submodule being generated, and when generation produced nothing usable
// Stub builds an artifact that says so.
package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/extract"
	"github.com/randalmurphal/cognigen/internal/resources"
)

// Shape selects the artifact body layout.
type Shape string

const (
	// ShapeStructured fills StructuredContent and renders it to cells.
	ShapeStructured Shape = "structured"

	// ShapeNotebook keeps a markdown document or the model's own cells.
	ShapeNotebook Shape = "notebook"
)

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	return s == ShapeStructured || s == ShapeNotebook
}

// Placeholder texts for fields the generator left out.
const (
	NoExplanation      = "No explanation provided."
	NoCodeExplanation  = "Explanation unavailable."
	NoProject          = "No project suggested."
	untitledCodeSample = "Example"
)

// SubmoduleContext is what the normalizer knows about the submodule being
// generated, independent of the generator's output.
type SubmoduleContext struct {
	ID         string
	Title      string
	Summary    string
	TopicName  string
	CourseName string
	Level      domain.ExperienceLevel
}

// Normalizer builds artifacts of one Shape.
type Normalizer struct {
	shape Shape
	now   func() time.Time
	newID func() string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithIDGenerator sets the id source used when the submodule has no id.
func WithIDGenerator(fn func() string) Option {
	return func(n *Normalizer) {
		if fn != nil {
			n.newID = fn
		}
	}
}

// NewNormalizer creates a Normalizer for shape. Unknown shapes fall back
// to ShapeStructured.
func NewNormalizer(shape Shape, opts ...Option) *Normalizer {
	if !shape.Valid() {
		shape = ShapeStructured
	}
	n := &Normalizer{
		shape: shape,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Shape returns the configured shape.
func (n *Normalizer) Shape() Shape {
	return n.shape
}

// Normalize builds an artifact from a parsed payload. An empty payload
// yields a complete artifact built from defaults.
func (n *Normalizer) Normalize(p extract.Payload, sc SubmoduleContext, res []resources.Item) domain.ContentArtifact {
	art := n.base(sc)
	art.Title = p.String("title", art.Title)
	art.Summary = p.String("summary", art.Summary)

	switch n.shape {
	case ShapeNotebook:
		art.Cells = notebookCells(p)
		art.MiniQuiz = RepairQuiz(quizPayloads(p, "mini_quiz", "miniQuiz", "quiz"))
	default:
		body := structuredFrom(p)
		art.Structured = &body
		art.Cells = renderStructured(body)
		art.MiniQuiz = body.MiniQuiz
	}

	art.Cells = appendResourceCell(art.Cells, res)
	return art
}

// Stub builds the artifact used when generation failed. Its explanation
// states that generation failed and it is marked Degraded.
func (n *Normalizer) Stub(sc SubmoduleContext, res []resources.Item) domain.ContentArtifact {
	art := n.base(sc)
	art.Degraded = true
	msg := FailureMessage(art.Title)

	switch n.shape {
	case ShapeNotebook:
		art.Cells = []domain.Cell{{Type: domain.CellMarkdown, Content: msg}}
	default:
		body := domain.StructuredContent{
			Explanation:       msg,
			CodeExamples:      []domain.CodeExample{},
			RealWorldExamples: []string{},
			StepByStep:        []string{},
			MiniQuiz:          []domain.QuizQuestion{},
			ProjectSuggestion: NoProject,
		}
		art.Structured = &body
		art.Cells = renderStructured(body)
	}

	art.Cells = appendResourceCell(art.Cells, res)
	return art
}

// FailureMessage is the explanation carried by stub artifacts.
func FailureMessage(title string) string {
	return fmt.Sprintf("Content generation failed for %q. Regenerate this submodule to try again.", title)
}

func (n *Normalizer) base(sc SubmoduleContext) domain.ContentArtifact {
	now := n.now()
	id := strings.TrimSpace(sc.ID)
	if id == "" {
		id = n.newID()
	}
	title := strings.TrimSpace(sc.Title)
	if title == "" {
		title = strings.TrimSpace(sc.TopicName)
	}
	return domain.ContentArtifact{
		ID:              id,
		Title:           title,
		Summary:         strings.TrimSpace(sc.Summary),
		Cells:           []domain.Cell{},
		MiniQuiz:        []domain.QuizQuestion{},
		ContentVersion:  domain.ContentVersion,
		GeneratedAt:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
		LastGeneratedAt: now,
	}
}

func structuredFrom(p extract.Payload) domain.StructuredContent {
	sc := domain.StructuredContent{
		Explanation:       p.String("explanation", NoExplanation),
		CodeExamples:      []domain.CodeExample{},
		RealWorldExamples: p.Strings("real_world_examples"),
		StepByStep:        p.Strings("step_by_step"),
		MiniQuiz:          RepairQuiz(quizPayloads(p, "mini_quiz", "miniQuiz", "quiz")),
		ProjectSuggestion: p.String("project_suggestion", NoProject),
	}
	if sc.RealWorldExamples == nil {
		sc.RealWorldExamples = []string{}
	}
	if sc.StepByStep == nil {
		sc.StepByStep = []string{}
	}

	for i, ex := range p.Objects("code_examples") {
		sc.CodeExamples = append(sc.CodeExamples, domain.CodeExample{
			Title:       ex.String("title", fmt.Sprintf("%s %d", untitledCodeSample, i+1)),
			Code:        ex.Text("code", ""),
			Explanation: ex.String("explanation", NoCodeExplanation),
			Language:    ex.String("language", ""),
		})
	}
	return sc
}

// quizPayloads returns the question objects under the first present key.
func quizPayloads(p extract.Payload, keys ...string) []extract.Payload {
	for _, k := range keys {
		if p.Has(k) {
			return extract.ObjectsOf(p.Any(k, nil))
		}
	}
	return nil
}
