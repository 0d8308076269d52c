package core

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DefaultSessionName is the display name given to newly created sessions.
const DefaultSessionName = "New Chat"

// Role identifies the author of a message in a session transcript.
type Role string

const (
	// RoleUser marks a message written by the person asking questions.
	RoleUser Role = "user"
	// RoleModel marks a message produced by the inference provider.
	RoleModel Role = "model"

	// roleAssistant is the label some clients and providers use for model turns.
	roleAssistant Role = "assistant"
)

// NormalizeRole maps alternate role labels onto the two roles stored in a transcript.
// "assistant" becomes RoleModel. Unknown roles are returned unchanged.
func NormalizeRole(r Role) Role {
	if r == roleAssistant {
		return RoleModel
	}
	return r
}

// Message is a single transcript entry.
type Message struct {
	Role      Role
	Text      string
	Timestamp time.Time
}

// Document marks the document ingested into a session.
type Document struct {
	ChunkID    string
	Filename   string
	Text       string
	IngestedAt time.Time
}

// ChatSession is an isolated conversation about at most one document.
// Messages are append-only; their order is both the displayed transcript and
// the conversation context sent to the inference provider.
type ChatSession struct {
	ID        string
	Name      string
	Document  *Document
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasDocument reports whether a document has been ingested into the session.
func (s *ChatSession) HasDocument() bool {
	return s.Document != nil
}

// AppendMessage adds a message to the end of the transcript.
func (s *ChatSession) AppendMessage(role Role, text string) Message {
	msg := Message{
		Role:      NormalizeRole(role),
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	s.Messages = append(s.Messages, msg)
	return msg
}

// Clone returns a deep copy of the session.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	out := *s
	if s.Document != nil {
		doc := *s.Document
		out.Document = &doc
	}
	out.Messages = append([]Message(nil), s.Messages...)
	return &out
}

// StoredChunk is a vector store record. Namespace is the owning session id.
type StoredChunk struct {
	ID         string
	Namespace  string
	Text       string
	Vector     []float32
	InsertedAt time.Time
}

// ChunkMatch is a chunk returned by a similarity query.
type ChunkMatch struct {
	Chunk *StoredChunk
	Score float32
}

// ChunkID derives a deterministic chunk id from the namespace and text using
// BLAKE2b hashing, so identical content in one namespace maps to one record.
func ChunkID(namespace, text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
