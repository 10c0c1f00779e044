package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"hoa-assistant-backend/config"
)

type geminiClient struct {
	client *genai.Client
	cfg    config.GeminiConfig
	ai     config.AIConfig
}

func newGeminiClient(ctx context.Context, cfg config.GeminiConfig, ai config.AIConfig) (*geminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, eris.Wrap(err, "llm: create gemini client")
	}
	return &geminiClient{client: client, cfg: cfg, ai: ai}, nil
}

func (c *geminiClient) Close() error {
	return c.client.Close()
}

// Embedder returns a query embedder backed by the configured embedding model
func (c *geminiClient) Embedder() *GeminiEmbedder {
	em := c.client.EmbeddingModel(c.cfg.EmbeddingModel)
	em.TaskType = genai.TaskTypeRetrievalQuery
	return &GeminiEmbedder{model: em}
}

// Generator returns a generator backed by the configured generation model
func (c *geminiClient) Generator() *GeminiGenerator {
	m := c.client.GenerativeModel(c.cfg.GenerationModel)
	m.SetTemperature(float32(c.ai.Temperature))
	if c.ai.SystemPrompt != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(c.ai.SystemPrompt)}}
	}
	return &GeminiGenerator{model: m}
}

// GeminiEmbedder embeds questions with a Gemini embedding model
type GeminiEmbedder struct {
	model *genai.EmbeddingModel
}

// EmbedText returns the unit-length embedding of text
func (e *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	res, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, eris.Wrap(err, "llm: gemini embed")
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, eris.New("llm: gemini returned an empty embedding")
	}
	return normalize(res.Embedding.Values), nil
}

// GeminiGenerator generates answers with a Gemini model
type GeminiGenerator struct {
	model *genai.GenerativeModel
}

// Generate returns the concatenated text parts of the first usable candidate
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", eris.Wrap(err, "llm: gemini generate content")
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", eris.Errorf("llm: gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", eris.New("llm: gemini returned no candidates")
	}

	var b strings.Builder
	for i, candidate := range resp.Candidates {
		if candidate.Content == nil {
			zap.L().Warn("llm: gemini candidate has no content",
				zap.Int("candidate", i),
				zap.String("finish_reason", candidate.FinishReason.String()),
			)
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			break
		}
	}

	if b.Len() == 0 {
		return "", eris.New("llm: gemini returned no text")
	}
	return b.String(), nil
}
