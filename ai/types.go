package ai

import (
	"fmt"

	"github.com/poiesic/docqa/core"
)

// TaskType hints the intended use of an embedding.
type TaskType int

const (
	// TaskSemanticSimilarity embeds text for symmetric similarity comparison.
	TaskSemanticSimilarity TaskType = iota
	// TaskRetrievalDocument embeds text that will be searched.
	TaskRetrievalDocument
	// TaskRetrievalQuery embeds a search query.
	TaskRetrievalQuery
)

func (t TaskType) String() string {
	switch t {
	case TaskSemanticSimilarity:
		return "semantic_similarity"
	case TaskRetrievalDocument:
		return "retrieval_document"
	case TaskRetrievalQuery:
		return "retrieval_query"
	}
	return fmt.Sprintf("task(%d)", int(t))
}

const (
	primeContextPrefix = "You are a helpful assistant. Here is some context to help answer questions: "
	primeAcknowledge   = "I understand. I'll use this context to help answer questions."
)

// Turn is one provider-facing conversation entry.
type Turn struct {
	Role core.Role
	Text string
}

// Conversation is everything a Generator needs to answer a question.
type Conversation struct {
	// Context is the retrieved grounding text. May be empty.
	Context string
	// History is the session transcript. Its last turn is the pending user question.
	History []Turn
}

// Turns returns the provider-facing sequence: a priming exchange carrying the
// context, followed by the history with roles normalized.
func (c Conversation) Turns() []Turn {
	turns := make([]Turn, 0, len(c.History)+2)
	turns = append(turns,
		Turn{Role: core.RoleUser, Text: primeContextPrefix + c.Context},
		Turn{Role: core.RoleModel, Text: primeAcknowledge},
	)
	for _, t := range c.History {
		turns = append(turns, Turn{Role: core.NormalizeRole(t.Role), Text: t.Text})
	}
	return turns
}

// Split returns the chat history and the message to send. The message is the
// final turn of Turns; an error is returned if it is not a user turn.
func (c Conversation) Split() ([]Turn, string, error) {
	if len(c.History) == 0 {
		return nil, "", fmt.Errorf("%w: conversation has no question", core.ErrInvalidArgument)
	}
	turns := c.Turns()
	last := turns[len(turns)-1]
	if last.Role != core.RoleUser {
		return nil, "", fmt.Errorf("%w: last turn is from %q, not user", core.ErrInvalidArgument, last.Role)
	}
	return turns[:len(turns)-1], last.Text, nil
}

// HistoryFromMessages converts a session transcript into conversation turns.
func HistoryFromMessages(msgs []core.Message) []Turn {
	turns := make([]Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = Turn{Role: core.NormalizeRole(m.Role), Text: m.Text}
	}
	return turns
}

// GenerationConfig controls sampling for a single Generate call.
type GenerationConfig struct {
	Temperature     float32
	MaxOutputTokens int
	CandidateCount  int
}

// DefaultGenerationConfig returns low-temperature, bounded-length sampling
// with a single candidate.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.5,
		MaxOutputTokens: 256,
		CandidateCount:  1,
	}
}

// Reply is the outcome of a Generate call: either text or a malformed payload.
type Reply struct {
	text      string
	malformed bool
	detail    string
}

// TextReply wraps a text answer.
func TextReply(text string) Reply {
	return Reply{text: text}
}

// MalformedReply records that the provider returned something other than text.
// detail describes what was received, for logging.
func MalformedReply(detail string) Reply {
	return Reply{malformed: true, detail: detail}
}

// Text returns the answer text. Empty for malformed replies.
func (r Reply) Text() string { return r.text }

// Malformed reports whether the provider response was not usable text.
func (r Reply) Malformed() bool { return r.malformed }

// Detail describes a malformed response.
func (r Reply) Detail() string { return r.detail }
