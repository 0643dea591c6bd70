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

// Package search retrieves documentation chunks for a question.
//
// The Searcher asks a storage.VectorIndex for the top-K most similar chunks
// and then optionally:
//   - drops results below a minimum similarity score
//   - moves chunks containing every significant query word to the front
//
// The Retriever interface is what the chat service depends on, so tests can
// substitute a stub.
package search
