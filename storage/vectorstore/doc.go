// Package vectorstore adapts hosted vector databases to storage.VectorIndex.
//
// The adapter wraps any langchaingo vectorstores.VectorStore. Constructors
// are provided for Pinecone and Qdrant; both embed text with the supplied
// ai.Embedder, so the index and the retriever always share one embedding model.
//
// Chunk metadata is stored alongside each vector under the keys "source",
// "index" and "chunk_id", and restored on search.
package vectorstore
