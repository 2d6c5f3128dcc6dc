// Package pipeline defines the three generation workflows (learning path,
// topic content and quiz) as flowgraph graphs.
//
// Graphs are compiled once by New and reused for every request. All
// per-request data lives in the state value passed to Run, so concurrent
// requests share nothing but the read-only collaborators in Deps.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/cognigen/internal/content"
	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/generate"
	"github.com/randalmurphal/cognigen/internal/prompt"
	"github.com/randalmurphal/cognigen/internal/resources"
	"github.com/randalmurphal/cognigen/pkg/flowgraph"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/llm"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/observability"
)

// Default settings.
const (
	DefaultSubmodulesPerTopic = 2
	DefaultLocalCandidates    = 5
	DefaultQuizTemperature    = 0.2
	DefaultMaxQuizTextChars   = 12000
	DefaultPathModel          = "gemma3:1b"
	DefaultContentModel       = "gemma3:1b"
	DefaultQuizModel          = "qwen2.5:3b"
)

// LocalSearcher finds candidates in the local similarity index.
type LocalSearcher interface {
	Lookup(ctx context.Context, query string, k int) ([]resources.Item, error)
}

// Models names the backend model used by each pipeline.
type Models struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
	Quiz    string `yaml:"quiz"`
}

// Settings tune pipeline behaviour.
type Settings struct {
	Models Models

	// MaxAttempts is the attempt budget of every generation step.
	MaxAttempts int

	// Backoff is the pause before a generation step's second attempt.
	Backoff time.Duration

	// MaxTopics caps topics per learning path.
	MaxTopics int

	// SubmodulesPerTopic caps generated submodules per topic.
	SubmodulesPerTopic int

	// LocalCandidates is k for the similarity search.
	LocalCandidates int

	QuizTemperature float64

	// MaxQuizTextChars bounds the learning text sent for quiz generation.
	MaxQuizTextChars int
}

// DefaultSettings returns the settings used for zero fields.
func DefaultSettings() Settings {
	return Settings{
		Models: Models{
			Path:    DefaultPathModel,
			Content: DefaultContentModel,
			Quiz:    DefaultQuizModel,
		},
		MaxAttempts:        generate.DefaultMaxAttempts,
		MaxTopics:          domain.DefaultMaxTopics,
		SubmodulesPerTopic: DefaultSubmodulesPerTopic,
		LocalCandidates:    DefaultLocalCandidates,
		QuizTemperature:    DefaultQuizTemperature,
		MaxQuizTextChars:   DefaultMaxQuizTextChars,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Models.Path == "" {
		s.Models.Path = d.Models.Path
	}
	if s.Models.Content == "" {
		s.Models.Content = d.Models.Content
	}
	if s.Models.Quiz == "" {
		s.Models.Quiz = d.Models.Quiz
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = d.MaxAttempts
	}
	if s.MaxTopics <= 0 {
		s.MaxTopics = d.MaxTopics
	}
	if s.SubmodulesPerTopic <= 0 {
		s.SubmodulesPerTopic = d.SubmodulesPerTopic
	}
	if s.LocalCandidates <= 0 {
		s.LocalCandidates = d.LocalCandidates
	}
	if s.QuizTemperature <= 0 {
		s.QuizTemperature = d.QuizTemperature
	}
	if s.MaxQuizTextChars <= 0 {
		s.MaxQuizTextChars = d.MaxQuizTextChars
	}
	return s
}

// Deps are the collaborators shared by every run.
type Deps struct {
	// Client is the generation backend. Required.
	Client llm.Client

	// Prompts defaults to prompt.Defaults().
	Prompts *prompt.Library

	// Normalizer defaults to a structured-shape normalizer.
	Normalizer *content.Normalizer

	// Resolver defaults to a resolver with no external sources.
	Resolver *resources.Resolver

	// Local is the similarity index. Nil skips local candidates.
	Local LocalSearcher

	Metrics observability.MetricsRecorder
	Logger  *slog.Logger

	// RunOptions are applied to every graph run.
	RunOptions []flowgraph.RunOption

	Now   func() time.Time
	NewID func() string
}

// Pipelines runs the compiled workflows.
type Pipelines struct {
	deps     Deps
	settings Settings

	path    *flowgraph.CompiledGraph[PathState]
	content *flowgraph.CompiledGraph[ContentState]
	quiz    *flowgraph.CompiledGraph[QuizState]
}

// New validates deps and compiles the three graphs.
func New(deps Deps, settings Settings) (*Pipelines, error) {
	if deps.Client == nil {
		return nil, errors.New("pipeline: generation client is required")
	}
	if deps.Prompts == nil {
		deps.Prompts = prompt.Defaults()
	}
	if deps.Normalizer == nil {
		deps.Normalizer = content.NewNormalizer(content.ShapeStructured)
	}
	if deps.Resolver == nil {
		deps.Resolver = resources.NewResolver()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	p := &Pipelines{deps: deps, settings: settings.withDefaults()}

	var err error
	if p.path, err = p.learningPathGraph().Compile(); err != nil {
		return nil, fmt.Errorf("compile learning path graph: %w", err)
	}
	if p.content, err = p.topicContentGraph().Compile(); err != nil {
		return nil, fmt.Errorf("compile topic content graph: %w", err)
	}
	if p.quiz, err = p.quizGraph().Compile(); err != nil {
		return nil, fmt.Errorf("compile quiz graph: %w", err)
	}
	return p, nil
}

// Settings returns the effective settings.
func (p *Pipelines) Settings() Settings {
	return p.settings
}

// flowContext reuses ctx when it already is a flowgraph context, so callers
// can pass their own logger and run id.
func (p *Pipelines) flowContext(ctx context.Context) flowgraph.Context {
	if fc, ok := ctx.(flowgraph.Context); ok {
		return fc
	}
	return flowgraph.NewContext(ctx, flowgraph.WithLogger(p.deps.Logger))
}

// request renders the named template into a completion request.
func (p *Pipelines) request(name, model string, vars prompt.Vars, opts ...llm.RequestOption) (llm.CompletionRequest, error) {
	tpl, err := p.deps.Prompts.Get(name)
	if err != nil {
		return llm.CompletionRequest{}, err
	}
	system, user, err := tpl.Render(vars)
	if err != nil {
		return llm.CompletionRequest{}, err
	}
	opts = append([]llm.RequestOption{llm.WithModel(model), llm.WithSystem(system), llm.WithJSONMode()}, opts...)
	return llm.NewRequest(user, opts...), nil
}

// spec fills the shared parts of a generation step.
func spec[T any](p *Pipelines, name string, validate func(any) (T, error), fallback func() T) generate.Spec[T] {
	return generate.Spec[T]{
		Name:        name,
		MaxAttempts: p.settings.MaxAttempts,
		Backoff:     p.settings.Backoff,
		Validate:    validate,
		Fallback:    fallback,
		Metrics:     p.deps.Metrics,
	}
}
