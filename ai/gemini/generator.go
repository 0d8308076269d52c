package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
)

// Generator implements ai.Generator with a Gemini chat session.
type Generator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

func newGenerator(client *genai.Client, model string) *Generator {
	return &Generator{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "gemini-generator"),
	}
}

// Generate starts a chat seeded with every turn but the last and sends the
// last turn as the message.
func (g *Generator) Generate(ctx context.Context, conv ai.Conversation, cfg ai.GenerationConfig) (ai.Reply, error) {
	history, message, err := conv.Split()
	if err != nil {
		return ai.Reply{}, ai.NewProviderError(ai.KindFatal, err)
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(cfg.Temperature)
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxOutputTokens))
	}
	if cfg.CandidateCount > 0 {
		model.SetCandidateCount(int32(cfg.CandidateCount))
	}

	cs := model.StartChat()
	cs.History = toContents(history)

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			g.logger.Warn("response blocked", "err", err)
			return ai.MalformedReply(blocked.Error()), nil
		}
		g.logger.Debug("chat request failed", "err", err)
		return ai.Reply{}, ai.Classify(err)
	}

	reply := replyFrom(resp)
	if reply.Malformed() {
		g.logger.Warn("malformed response", "detail", reply.Detail())
	}
	return reply, nil
}

func toContents(turns []ai.Turn) []*genai.Content {
	contents := make([]*genai.Content, len(turns))
	for i, t := range turns {
		contents[i] = &genai.Content{
			Role:  string(core.NormalizeRole(t.Role)),
			Parts: []genai.Part{genai.Text(t.Text)},
		}
	}
	return contents
}

// replyFrom concatenates the text parts of the first candidate.
func replyFrom(resp *genai.GenerateContentResponse) ai.Reply {
	if resp == nil || len(resp.Candidates) == 0 {
		return ai.MalformedReply("no candidates")
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return ai.MalformedReply("candidate has no content")
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		txt, ok := part.(genai.Text)
		if !ok {
			return ai.MalformedReply(fmt.Sprintf("non-text part %T", part))
		}
		b.WriteString(string(txt))
	}
	return ai.TextReply(b.String())
}
