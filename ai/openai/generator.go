package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/tmc/langchaingo/llms"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

func newGenerator(client llms.Model) *Generator {
	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator creates a generator with its own client.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return newGenerator(client), nil
}

// Generate sends the primed conversation as chat messages and returns the first choice.
func (g *Generator) Generate(ctx context.Context, conv ai.Conversation, cfg ai.GenerationConfig) (ai.Reply, error) {
	if _, _, err := conv.Split(); err != nil {
		return ai.Reply{}, ai.NewProviderError(ai.KindFatal, err)
	}

	turns := conv.Turns()
	content := make([]llms.MessageContent, len(turns))
	for i, turn := range turns {
		content[i] = llms.MessageContent{
			Role:  messageType(turn.Role),
			Parts: []llms.ContentPart{llms.TextPart(turn.Text)},
		}
	}

	opts := []llms.CallOption{llms.WithTemperature(float64(cfg.Temperature))}
	if cfg.MaxOutputTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxOutputTokens))
	}
	if cfg.CandidateCount > 0 {
		opts = append(opts, llms.WithCandidateCount(cfg.CandidateCount))
	}

	response, err := g.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return ai.Reply{}, ai.Classify(err)
	}

	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		g.logger.Warn("no choices returned from model")
		return ai.MalformedReply("no choices"), nil
	}

	text := response.Choices[0].Content
	if strings.TrimSpace(text) == "" && len(response.Choices[0].ToolCalls) > 0 {
		return ai.MalformedReply("tool call instead of text"), nil
	}
	return ai.TextReply(text), nil
}

func messageType(role core.Role) llms.ChatMessageType {
	if core.NormalizeRole(role) == core.RoleModel {
		return llms.ChatMessageTypeAI
	}
	return llms.ChatMessageTypeHuman
}
