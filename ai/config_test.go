// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-embedding-exp-03-07", cfg.EmbeddingModel)
	assert.Equal(t, "gemini-2.0-flash", cfg.ChatModel)
	assert.Equal(t, 3072, cfg.Dimension)
	assert.Empty(t, cfg.APIKey)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with openai options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderOpenAI),
			WithHost("http://localhost:11434"),
			WithEmbeddingModel("nomic-embed-text"),
			WithChatModel("qwen2.5:3b"),
			WithDimension(768),
		)

		assert.Equal(t, ProviderOpenAI, cfg.Provider)
		assert.Equal(t, "http://localhost:11434", cfg.Host)
		assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
		assert.Equal(t, "qwen2.5:3b", cfg.ChatModel)
		assert.Equal(t, 768, cfg.Dimension)
	})

	t.Run("with api key", func(t *testing.T) {
		cfg := NewConfig(WithAPIKey("secret"))
		assert.Equal(t, "secret", cfg.APIKey)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name         string
		provider     string
		host         string
		wantProvider string
		wantHost     string
	}{
		{name: "already has /v1", provider: "openai", host: "http://localhost:11434/v1", wantProvider: "openai", wantHost: "http://localhost:11434/v1"},
		{name: "missing /v1", provider: "openai", host: "http://localhost:11434", wantProvider: "openai", wantHost: "http://localhost:11434/v1"},
		{name: "trailing slash", provider: "openai", host: "http://localhost:11434/", wantProvider: "openai", wantHost: "http://localhost:11434/v1"},
		{name: "empty host", provider: "gemini", host: "", wantProvider: "gemini", wantHost: ""},
		{name: "provider case", provider: " Gemini ", host: "", wantProvider: "gemini", wantHost: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: tt.provider, Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.wantProvider, cfg.Provider)
			assert.Equal(t, tt.wantHost, cfg.Host)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid gemini config", func(t *testing.T) {
		cfg := NewConfig(WithAPIKey("key"))
		assert.NoError(t, cfg.Validate())
	})

	t.Run("valid openai config normalizes host", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider("OpenAI"),
			WithHost("http://localhost:11434"),
		)
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
		assert.Equal(t, ProviderOpenAI, cfg.Provider)
	})

	tests := []struct {
		name    string
		cfg     *Config
		wantMsg string
	}{
		{name: "gemini without key", cfg: NewConfig(), wantMsg: "APIKey"},
		{name: "openai without host", cfg: NewConfig(WithProvider(ProviderOpenAI)), wantMsg: "Host"},
		{name: "missing provider", cfg: NewConfig(WithProvider("")), wantMsg: "Provider is required"},
		{name: "unknown provider", cfg: NewConfig(WithProvider("bard")), wantMsg: "unknown Provider"},
		{name: "missing embedding model", cfg: NewConfig(WithAPIKey("k"), WithEmbeddingModel("")), wantMsg: "EmbeddingModel"},
		{name: "missing chat model", cfg: NewConfig(WithAPIKey("k"), WithChatModel("")), wantMsg: "ChatModel"},
		{name: "bad dimension", cfg: NewConfig(WithAPIKey("k"), WithDimension(0)), wantMsg: "Dimension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
