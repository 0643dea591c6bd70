// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ChatModel,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vectors, err := mockProvider.Embedder().EmbedDocuments(ctx, []string{"test"})
//
//	// Custom behavior injection
//	chat := mock.NewMockChatModelWithReplies("standalone question", "final answer")
//
//	// Check call counts and captured prompts
//	count := chat.CallCount()
//	prompts := chat.Calls()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic bag-of-words vectors
//   - MockChatModel: Echoes the text of the last message
//   - MockProvider: Aggregates mock embedder and chat model
package mock
