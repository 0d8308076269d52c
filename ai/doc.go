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

// Package ai provides abstractions for the inference provider used by docqa.
//
// The ingestion and query pipelines depend on two capabilities:
//
//   - Embedder: turns a document or a question into a vector
//   - Generator: answers the final turn of a primed conversation
//
// AIProvider aggregates both for initialization and lifecycle management.
//
// # Implementation Packages
//
//   - ai/gemini: Google Gemini via generative-ai-go
//   - ai/openai: OpenAI-compatible APIs (OpenAI, Ollama, vLLM) via langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Provider Errors
//
// Adapters pass upstream failures through Classify, which attaches an
// ErrorKind. The resilience package retries every kind except KindFatal.
//
// # Replies
//
// Generate returns a Reply that is either text or malformed. The decision is
// made once in the adapter; pipelines check Reply.Malformed and never inspect
// the provider's raw response.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
//	provider, err := gemini.NewProvider(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "The sky is blue.", ai.TaskSemanticSimilarity)
//	reply, err := provider.Generator().Generate(ctx, conv, ai.DefaultGenerationConfig())
package ai
