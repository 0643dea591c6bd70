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


// Package storage provides the vector index abstraction used by ingestion and
// retrieval.
//
// A VectorIndex embeds chunk text on upsert and ranks stored chunks against a
// query string on search. Two families of implementation are provided:
//
//   - storage/badger: a local BadgerDB index with brute-force cosine search
//   - storage/vectorstore: an adapter over langchaingo vector stores
//     (Pinecone and Qdrant constructors are included)
//
// Public constructors return the storage.VectorIndex interface so callers
// cannot couple to a particular backend.
//
// # Serialization
//
// Records held by the local index are encoded with mus-go. The layout is
// documented on MarshalIndexRecord.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use. The indexer upserts
// several batches at once.
package storage
