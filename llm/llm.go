// Package llm adapts the hosted model APIs used to embed questions and
// generate answers.
package llm

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"hoa-assistant-backend/config"
)

// Provider names accepted in ai.embedding_provider and ai.generation_provider
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Embedder turns text into a fixed-length vector
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for a fully assembled prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider bundles the configured embedder and generator
type Provider struct {
	embedder  Embedder
	generator Generator
	closers   []func() error
}

// Embedder returns the configured embedder
func (p *Provider) Embedder() Embedder { return p.embedder }

// Generator returns the configured generator
func (p *Provider) Generator() Generator { return p.generator }

// Close releases any underlying clients
func (p *Provider) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewProvider builds the embedder and generator named in cfg.AI
func NewProvider(ctx context.Context, cfg *config.Config) (*Provider, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	p := &Provider{}
	var gemini *geminiClient

	getGemini := func() (*geminiClient, error) {
		if gemini != nil {
			return gemini, nil
		}
		c, err := newGeminiClient(ctx, cfg.Gemini, cfg.AI)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, c.Close)
		gemini = c
		return c, nil
	}

	switch cfg.AI.EmbeddingProvider {
	case ProviderGemini:
		c, err := getGemini()
		if err != nil {
			return nil, err
		}
		p.embedder = c.Embedder()
	case ProviderOpenAI:
		e, err := NewOpenAIEmbedder(cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		p.embedder = e
	}

	switch cfg.AI.GenerationProvider {
	case ProviderGemini:
		c, err := getGemini()
		if err != nil {
			p.Close()
			return nil, err
		}
		p.generator = c.Generator()
	case ProviderOpenAI:
		g, err := NewOpenAIGenerator(cfg.OpenAI, cfg.AI)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.generator = g
	case ProviderAnthropic:
		p.generator = NewAnthropicGenerator(cfg.Anthropic, cfg.AI)
	}

	zap.L().Info("llm: providers ready",
		zap.String("embedding", cfg.AI.EmbeddingProvider),
		zap.String("generation", cfg.AI.GenerationProvider),
	)
	return p, nil
}

// Validate checks provider names and that each selected provider has a key.
// Anthropic has no embeddings endpoint and is rejected as an embedder.
func Validate(cfg *config.Config) error {
	switch cfg.AI.EmbeddingProvider {
	case ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return eris.New("llm: gemini.api_key is required for gemini embeddings")
		}
	case ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return eris.New("llm: openai.api_key is required for openai embeddings")
		}
	case ProviderAnthropic:
		return eris.New("llm: anthropic does not provide embeddings")
	default:
		return eris.Errorf("llm: unknown embedding provider %q", cfg.AI.EmbeddingProvider)
	}

	switch cfg.AI.GenerationProvider {
	case ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return eris.New("llm: gemini.api_key is required for gemini generation")
		}
	case ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return eris.New("llm: openai.api_key is required for openai generation")
		}
	case ProviderAnthropic:
		if cfg.Anthropic.APIKey == "" {
			return eris.New("llm: anthropic.api_key is required for anthropic generation")
		}
	default:
		return eris.Errorf("llm: unknown generation provider %q", cfg.AI.GenerationProvider)
	}
	return nil
}

// normalize scales v to unit length in place
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
