package llm

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"hoa-assistant-backend/config"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicGenerator generates answers with the Anthropic Messages API
type AnthropicGenerator struct {
	client       sdk.Client
	model        string
	maxTokens    int64
	systemPrompt string
	temperature  float64
}

// NewAnthropicGenerator creates a generator for cfg.Model
func NewAnthropicGenerator(cfg config.AnthropicConfig, ai config.AIConfig) *AnthropicGenerator {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicGenerator{
		client:       sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:        cfg.Model,
		maxTokens:    maxTokens,
		systemPrompt: ai.SystemPrompt,
		temperature:  ai.Temperature,
	}
}

// Generate sends prompt as a single user message
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
		Temperature: sdk.Float(g.temperature),
	}
	if g.systemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: g.systemPrompt}}
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", eris.New("llm: anthropic returned no text")
	}
	return b.String(), nil
}
