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

// Package resilience wraps calls to the inference provider with a shared rate
// limiter and bounded retries.
//
// Every attempt made through an Executor, from any goroutine, waits on one
// limiter, so two attempts are never closer together than the configured
// minimum interval. Failures are classified with ai.IsRetryable: retryable
// ones are retried with multiplicative backoff plus jitter, anything else is
// returned immediately.
//
//	exec := resilience.New()
//	vec, err := resilience.Do(ctx, exec, func(ctx context.Context) ([]float32, error) {
//	    return embedder.EmbedText(ctx, text, ai.TaskSemanticSimilarity)
//	})
package resilience
