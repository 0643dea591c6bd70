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

// Package chat answers questions about indexed documentation.
//
// Service.Ask runs one retrieval-augmented exchange. When the conversation
// already has turns, the question is first rewritten by the chat model into a
// standalone question. The (rewritten) question is sent to a search.Retriever,
// the retrieved chunks are stuffed into a single prompt as context, and the
// model's reply is returned together with exactly those chunks as sources.
//
// Model calls run at temperature 0. Nothing is cached or retried: a failure
// in rewriting, retrieval or generation is returned to the caller.
//
// Conversation keeps the turn history between calls for interactive use.
package chat
