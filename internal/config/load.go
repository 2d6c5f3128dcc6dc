package config

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/cognigen/internal/pipeline"
)

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads path when it is non-empty, applies environment overrides,
// fills defaults and validates the result.
func Load(path string) (Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load with an explicit environment.
func LoadWith(path string, lookup LookupFunc) (Config, error) {
	var cfg Config
	if path != "" {
		var err error
		if cfg, err = FromFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.fillDefaults(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromFile loads configuration from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Config. Unknown keys are rejected.
func FromYAML(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// FromJSON parses JSON data into a Config. The document is decoded as
// YAML, so durations are written as strings such as "30s".
func FromJSON(data []byte) (Config, error) {
	cfg, err := FromYAML(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse json: %w", errors.Unwrap(err))
	}
	return cfg, nil
}

// fillDefaults sets every zero field from Default. A gemini provider with
// no models configured uses the gemini model for all pipelines.
func (c *Config) fillDefaults() error {
	d := Default()
	if c.LLM.Provider == ProviderGemini && c.Pipeline.Models == (pipeline.Models{}) {
		model := cmp.Or(c.LLM.GeminiModel, d.LLM.GeminiModel)
		c.Pipeline.Models = pipeline.Models{Path: model, Content: model, Quiz: model}
	}
	if err := mergo.Merge(c, d); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	return nil
}

func (c *Config) stringEnv() map[string]*string {
	return map[string]*string{
		"COGNIGEN_ADDR":               &c.Server.Addr,
		"COGNIGEN_LOG_FORMAT":         &c.Log.Format,
		"COGNIGEN_LOG_LEVEL":          &c.Log.Level,
		"COGNIGEN_LLM_PROVIDER":       &c.LLM.Provider,
		"COGNIGEN_OLLAMA_URL":         &c.LLM.OllamaURL,
		"COGNIGEN_INDEX_PATH":         &c.Index.Path,
		"COGNIGEN_CACHE_BACKEND":      &c.Cache.Backend,
		"COGNIGEN_TELEMETRY_EXPORTER": &c.Telemetry.Exporter,
		"GEMINI_API_KEY":              &c.LLM.GeminiAPIKey,
		"YOUTUBE_API_KEY":             &c.Search.YouTubeAPIKey,
		"OTEL_EXPORTER_OTLP_ENDPOINT": &c.Telemetry.OTLPEndpoint,
	}
}

// applyEnv overrides file values with non-empty environment variables.
// REDIS_ADDR also selects the redis cache unless a backend was chosen.
func applyEnv(c *Config, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	for key, dst := range c.stringEnv() {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	if v, ok := get("COGNIGEN_MAX_CONCURRENT_RUNS"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("COGNIGEN_MAX_CONCURRENT_RUNS: %w", err)
		}
		c.Server.MaxConcurrentRuns = n
	}
	if v, ok := get("REDIS_ADDR"); ok {
		c.Cache.RedisAddr = v
		if c.Cache.Backend == "" {
			c.Cache.Backend = CacheRedis
		}
	}
	return nil
}
