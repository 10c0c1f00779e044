package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"hoa-assistant-backend/config"
)

func newOpenAIClient(cfg config.OpenAIConfig) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.ChatModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, eris.Wrap(err, "llm: create openai client")
	}
	return client, nil
}

// OpenAIEmbedder embeds questions with an OpenAI-compatible embeddings API
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
}

// NewOpenAIEmbedder creates an embedder for cfg.EmbeddingModel
func NewOpenAIEmbedder(cfg config.OpenAIConfig) (*OpenAIEmbedder, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	e, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, eris.Wrap(err, "llm: create openai embedder")
	}
	return &OpenAIEmbedder{embedder: e}, nil
}

// EmbedText returns the embedding of text
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, eris.Wrap(err, "llm: openai embed")
	}
	if len(vec) == 0 {
		return nil, eris.New("llm: openai returned an empty embedding")
	}
	return vec, nil
}

// OpenAIGenerator generates answers with an OpenAI-compatible chat model
type OpenAIGenerator struct {
	model        llms.Model
	systemPrompt string
	temperature  float64
}

// NewOpenAIGenerator creates a generator for cfg.ChatModel
func NewOpenAIGenerator(cfg config.OpenAIConfig, ai config.AIConfig) (*OpenAIGenerator, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	return newOpenAIGenerator(client, ai), nil
}

func newOpenAIGenerator(model llms.Model, ai config.AIConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		model:        model,
		systemPrompt: ai.SystemPrompt,
		temperature:  ai.Temperature,
	}
}

// Generate sends the system prompt and prompt as a two-message chat
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if g.systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, g.systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := g.model.GenerateContent(ctx, messages, llms.WithTemperature(g.temperature))
	if err != nil {
		return "", eris.Wrap(err, "llm: openai generate content")
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", eris.New("llm: openai returned no choices")
	}
	return resp.Choices[0].Content, nil
}
