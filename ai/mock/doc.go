// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
// All mocks are safe for concurrent use.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test", ai.TaskSemanticSimilarity)
//
//	// Custom behavior injection
//	mockGen := mock.NewMockGenerator().
//	    WithGenerateFunc(func(ctx context.Context, conv ai.Conversation, cfg ai.GenerationConfig) (ai.Reply, error) {
//	        return ai.TextReply("blue"), nil
//	    })
//
//	// Check call counts and recorded requests
//	count := mockGen.CallCount()
//	last := mockGen.LastConversation()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockGenerator: Echoes the question back as the answer
//   - MockProvider: Aggregates mock embedder and generator
package mock
