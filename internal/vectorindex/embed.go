package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"google.golang.org/genai"
)

// Embedder turns texts into vectors. Implementations must return one vector
// per input text, in order, all of the same length.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// DefaultHashDimensions is the vector length of a zero-value HashEmbedder.
const DefaultHashDimensions = 256

// HashEmbedder is a deterministic offline embedder. Each token is hashed
// into a signed bucket and the result is L2-normalized, so texts sharing
// words score higher under cosine similarity.
type HashEmbedder struct {
	Dimensions int
}

// Name implements Embedder.
func (h HashEmbedder) Name() string {
	return fmt.Sprintf("hash:%d", h.dims())
}

// Embed implements Embedder.
func (h HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h HashEmbedder) dims() int {
	if h.Dimensions <= 0 {
		return DefaultHashDimensions
	}
	return h.Dimensions
}

func (h HashEmbedder) vector(text string) []float32 {
	dims := h.dims()
	vec := make([]float32, dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		sum := f.Sum32()
		bucket := int(sum % uint32(dims))
		if sum&(1<<31) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	normalize(vec)
	return vec
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	n := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= n
	}
}

// DefaultGenAIModel is the embedding model used when none is configured.
const DefaultGenAIModel = "gemini-embedding-001"

// genaiBatchSize bounds texts per EmbedContent call.
const genaiBatchSize = 50

// GenAIEmbedder embeds texts with the Gemini embedding API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder creates an embedder for the Gemini API.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("genai API key is required")
	}
	if model == "" {
		model = DefaultGenAIModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model}, nil
}

// Name implements Embedder.
func (e *GenAIEmbedder) Name() string {
	return "genai:" + e.model
}

// Embed implements Embedder.
func (e *GenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += genaiBatchSize {
		end := min(start+genaiBatchSize, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		result, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("genai embed: %w", err)
		}
		if len(result.Embeddings) != end-start {
			return nil, fmt.Errorf("genai embed: got %d embeddings for %d texts", len(result.Embeddings), end-start)
		}
		for _, emb := range result.Embeddings {
			out = append(out, emb.Values)
		}
	}
	return out, nil
}
