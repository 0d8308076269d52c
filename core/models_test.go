package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkID_Deterministic(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		text      string
	}{
		{name: "simple", namespace: "s1", text: "The sky is blue."},
		{name: "empty text", namespace: "s1", text: ""},
		{name: "long text", namespace: "s2", text: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := ChunkID(tt.namespace, tt.text)
			id2 := ChunkID(tt.namespace, tt.text)
			assert.Equal(t, id1, id2)
			assert.Len(t, id1, 32)
		})
	}
}

func TestChunkID_NamespaceScoped(t *testing.T) {
	assert.NotEqual(t, ChunkID("a", "same text"), ChunkID("b", "same text"))
	assert.NotEqual(t, ChunkID("a", "text1"), ChunkID("a", "text2"))
	// The separator keeps namespace/text boundaries from colliding.
	assert.NotEqual(t, ChunkID("ab", "c"), ChunkID("a", "bc"))
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleModel, NormalizeRole("assistant"))
	assert.Equal(t, RoleModel, NormalizeRole(RoleModel))
	assert.Equal(t, RoleUser, NormalizeRole(RoleUser))
	assert.Equal(t, Role("system"), NormalizeRole("system"))
}

func TestChatSession_AppendMessage(t *testing.T) {
	s := &ChatSession{ID: "s1"}
	s.AppendMessage(RoleUser, "hello")
	s.AppendMessage("assistant", "hi there")

	require.Len(t, s.Messages, 2)
	assert.Equal(t, RoleUser, s.Messages[0].Role)
	assert.Equal(t, RoleModel, s.Messages[1].Role)
	assert.Equal(t, "hi there", s.Messages[1].Text)
	assert.False(t, s.Messages[0].Timestamp.IsZero())
}

func TestChatSession_Clone(t *testing.T) {
	s := &ChatSession{
		ID:       "s1",
		Name:     DefaultSessionName,
		Document: &Document{ChunkID: "c1", Text: "doc"},
	}
	s.AppendMessage(RoleUser, "q")

	c := s.Clone()
	c.Document.Text = "changed"
	c.AppendMessage(RoleModel, "a")
	c.Messages[0].Text = "changed"

	assert.Equal(t, "doc", s.Document.Text)
	assert.Len(t, s.Messages, 1)
	assert.Equal(t, "q", s.Messages[0].Text)
	assert.True(t, c.HasDocument())

	var nilSession *ChatSession
	assert.Nil(t, nilSession.Clone())
}
