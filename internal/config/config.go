// Package config loads service settings from a YAML or JSON file, applies
// environment overrides and fills unset fields with defaults.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/randalmurphal/cognigen/internal/content"
	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/pipeline"
	"github.com/randalmurphal/cognigen/internal/prompt"
)

// LLM providers.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// Search cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Trace exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Similarity index embedders.
const (
	EmbedderHash   = "hash"
	EmbedderGemini = "gemini"
)

// Config is the complete service configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
	LLM       LLM       `yaml:"llm"`
	Pipeline  Pipeline  `yaml:"pipeline"`
	Resources Resources `yaml:"resources"`
	Search    Search    `yaml:"search"`
	Cache     Cache     `yaml:"cache"`
	Index     Index     `yaml:"index"`
	Telemetry Telemetry `yaml:"telemetry"`

	// Prompts overrides built-in templates by name.
	Prompts map[string]prompt.Template `yaml:"prompts"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr string `yaml:"addr"`

	// MaxConcurrentRuns bounds pipeline invocations in flight.
	MaxConcurrentRuns int64 `yaml:"max_concurrent_runs"`

	// QueueTimeout is how long a request waits for a run slot before
	// getting 503.
	QueueTimeout time.Duration `yaml:"queue_timeout"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins       []string      `yaml:"cors_origins"`
}

// Log configures the process logger.
type Log struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// LLM configures the generation backend.
type LLM struct {
	Provider     string        `yaml:"provider"`
	OllamaURL    string        `yaml:"ollama_url"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
	CallTimeout  time.Duration `yaml:"call_timeout"`

	// MockResponse is what the mock provider answers.
	MockResponse string `yaml:"mock_response"`
}

// Pipeline tunes the generation workflows.
type Pipeline struct {
	Models             pipeline.Models `yaml:"models"`
	MaxAttempts        int             `yaml:"max_attempts"`
	Backoff            time.Duration   `yaml:"backoff"`
	MaxTopics          int             `yaml:"max_topics"`
	SubmodulesPerTopic int             `yaml:"submodules_per_topic"`
	LocalCandidates    int             `yaml:"local_candidates"`
	QuizTemperature    float64         `yaml:"quiz_temperature"`
	MaxQuizTextChars   int             `yaml:"max_quiz_text_chars"`
	ContentShape       string          `yaml:"content_shape"`
}

// Resources configures the resolver.
type Resources struct {
	MaxTotal      int           `yaml:"max_total"`
	SourceTimeout time.Duration `yaml:"source_timeout"`
}

// Search configures the external lookup sources.
type Search struct {
	DisableWeb    bool    `yaml:"disable_web"`
	WebEndpoint   string  `yaml:"web_endpoint"`
	WebRatePerSec float64 `yaml:"web_rate_per_sec"`
	WebBurst      int     `yaml:"web_burst"`

	// YouTubeAPIKey enables video search when set.
	YouTubeAPIKey string `yaml:"youtube_api_key"`
}

// Cache configures lookup result caching.
type Cache struct {
	Backend       string        `yaml:"backend"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Prefix        string        `yaml:"prefix"`
}

// Index configures the local similarity index.
type Index struct {
	Path           string `yaml:"path"`
	DataDir        string `yaml:"data_dir"`
	Embedder       string `yaml:"embedder"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// Telemetry configures trace export.
type Telemetry struct {
	Exporter     string `yaml:"exporter"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
	Metrics      bool   `yaml:"metrics"`
}

// Default returns the configuration used for every unset field.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8000",
			MaxConcurrentRuns: 4,
			QueueTimeout:      30 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			CORSOrigins:       []string{"*"},
		},
		Log: Log{
			Format: "text",
			Level:  "info",
		},
		LLM: LLM{
			Provider:    ProviderOllama,
			OllamaURL:   "http://localhost:11434",
			GeminiModel: "gemini-2.0-flash",
			CallTimeout: 120 * time.Second,
		},
		Pipeline: Pipeline{
			Models: pipeline.Models{
				Path:    pipeline.DefaultPathModel,
				Content: pipeline.DefaultContentModel,
				Quiz:    pipeline.DefaultQuizModel,
			},
			MaxAttempts:        3,
			Backoff:            500 * time.Millisecond,
			MaxTopics:          domain.DefaultMaxTopics,
			SubmodulesPerTopic: pipeline.DefaultSubmodulesPerTopic,
			LocalCandidates:    pipeline.DefaultLocalCandidates,
			QuizTemperature:    pipeline.DefaultQuizTemperature,
			MaxQuizTextChars:   pipeline.DefaultMaxQuizTextChars,
			ContentShape:       string(content.ShapeStructured),
		},
		Resources: Resources{
			MaxTotal:      5,
			SourceTimeout: 10 * time.Second,
		},
		Search: Search{
			WebRatePerSec: 1,
			WebBurst:      2,
		},
		Cache: Cache{
			Backend: CacheMemory,
			TTL:     time.Hour,
			Prefix:  "cognigen:search:",
		},
		Index: Index{
			Path:     "data/index.db",
			DataDir:  "data/resources",
			Embedder: EmbedderHash,
		},
		Telemetry: Telemetry{
			Exporter:    ExporterNone,
			ServiceName: "cognigen",
		},
	}
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	var errs []string
	oneOf := func(field, got string, allowed ...string) {
		if !slices.Contains(allowed, got) {
			errs = append(errs, fmt.Sprintf("%s: must be one of %s; got %q", field, strings.Join(allowed, ", "), got))
		}
	}

	oneOf("log.format", c.Log.Format, "text", "json")
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, fmt.Sprintf("log.level: %v", err))
	}
	oneOf("llm.provider", c.LLM.Provider, ProviderOllama, ProviderGemini, ProviderMock)
	if c.LLM.Provider == ProviderGemini && c.LLM.GeminiAPIKey == "" {
		errs = append(errs, "llm.gemini_api_key: required for the gemini provider")
	}
	if c.Index.Embedder == EmbedderGemini && c.LLM.GeminiAPIKey == "" {
		errs = append(errs, "llm.gemini_api_key: required for the gemini embedder")
	}
	if !content.Shape(c.Pipeline.ContentShape).Valid() {
		errs = append(errs, fmt.Sprintf("pipeline.content_shape: must be structured or notebook; got %q", c.Pipeline.ContentShape))
	}
	if c.Pipeline.QuizTemperature < 0 || c.Pipeline.QuizTemperature > 2 {
		errs = append(errs, fmt.Sprintf("pipeline.quiz_temperature: must be between 0 and 2; got %g", c.Pipeline.QuizTemperature))
	}
	oneOf("cache.backend", c.Cache.Backend, CacheMemory, CacheRedis, CacheNone)
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		errs = append(errs, "cache.redis_addr: required for the redis backend")
	}
	oneOf("index.embedder", c.Index.Embedder, EmbedderHash, EmbedderGemini)
	oneOf("telemetry.exporter", c.Telemetry.Exporter, ExporterNone, ExporterStdout, ExporterOTLP)
	if c.Server.MaxConcurrentRuns < 1 {
		errs = append(errs, "server.max_concurrent_runs: must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PipelineSettings converts the pipeline section.
func (c Config) PipelineSettings() pipeline.Settings {
	p := c.Pipeline
	return pipeline.Settings{
		Models:             p.Models,
		MaxAttempts:        p.MaxAttempts,
		Backoff:            p.Backoff,
		MaxTopics:          p.MaxTopics,
		SubmodulesPerTopic: p.SubmodulesPerTopic,
		LocalCandidates:    p.LocalCandidates,
		QuizTemperature:    p.QuizTemperature,
		MaxQuizTextChars:   p.MaxQuizTextChars,
	}
}

// PromptLibrary returns the built-in templates with overrides applied.
func (c Config) PromptLibrary() (*prompt.Library, error) {
	return prompt.Defaults().With(c.Prompts)
}

func (l Log) level() (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(l.Level))
	return lvl, err
}

// NewLogger builds the process logger writing to w.
func (l Log) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
