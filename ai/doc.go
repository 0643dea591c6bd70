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


// Package ai provides abstractions for the model services used by docqa.
//
// This package defines interfaces for text embeddings and chat completion.
// Ingestion and chat depend on these abstractions rather than on a concrete
// provider, so tests can substitute the doubles in ai/mock.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - ChatModel: Generates chat completions from an ordered message list
//   - AIProvider: Aggregates both for convenient initialization
//
// Embedder has the method set of langchaingo's embeddings.Embedder and ChatModel
// uses langchaingo's message types, so implementations plug into langchaingo
// vector stores and prompt helpers without adapters.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types. Mock constructors return concrete types so tests can inject
// behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedDocuments(ctx, chunks)
//	resp, err := provider.ChatModel().GenerateContent(ctx, messages, llms.WithTemperature(0))
package ai
