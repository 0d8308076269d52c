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

package openai

import (
	"log/slog"

	"github.com/poiesic/docqa/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider serves embeddings and answers from one OpenAI-compatible client,
// so both directions share a connection pool and credentials.
type Provider struct {
	host      string
	embedder  *Embedder
	generator *Generator
	logger    *slog.Logger
}

// NewProvider validates config and connects both services to config.Host.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(client)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With(
		"component", "openai-provider",
		"chatModel", config.ChatModel,
		"embeddingModel", config.EmbeddingModel)

	return &Provider{
		host:      config.Host,
		embedder:  embedder,
		generator: newGenerator(client),
		logger:    logger,
	}, nil
}

// newClient builds the langchaingo client carrying both model names.
func newClient(config *ai.Config) (*openai.LLM, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(token(config)),
		openai.WithModel(config.ChatModel),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
}

// token returns the configured key. Local servers ignore auth but the client
// refuses an empty token, so "none" stands in.
func token(config *ai.Config) string {
	if config.APIKey == "" {
		return "none"
	}
	return config.APIKey
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the HTTP client holds no per-provider resources.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider", "host", p.host)
	return nil
}
