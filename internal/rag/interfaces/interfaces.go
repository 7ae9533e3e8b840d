package interfaces

import (
	"context"

	"github.com/omdiwan06/CricketRAG/internal/rag/models"
)

// Chunker defines the interface for splitting documents into chunks.
type Chunker interface {
	// ChunkDocument splits a document into overlapping text chunks
	ChunkDocument(document *models.Document) ([]*models.Chunk, error)

	// GetChunkingStrategy returns the strategy name used by this chunker
	GetChunkingStrategy() string
}

// Embedder defines the interface for generating vector embeddings.
type Embedder interface {
	// GenerateEmbedding creates a vector embedding for the given content
	GenerateEmbedding(ctx context.Context, content string) ([]float32, error)

	// GetModelName returns the name of the embedding model
	GetModelName() string
}

// ChatModel defines the interface for chat completion.
type ChatModel interface {
	// Complete generates a completion for the given prompt
	Complete(ctx context.Context, prompt string) (string, error)

	// GetModelName returns the name of the chat model
	GetModelName() string
}

// DocumentLoader defines the interface for loading chunk-ready documents
// from an external source.
type DocumentLoader interface {
	// LoadDirectory parses all supported files under the directory
	LoadDirectory(path string) ([]*models.Document, error)
}

// VectorSearcher defines the similarity-search surface of the vector store.
type VectorSearcher interface {
	// Search returns ranked rows for the given query vector, discarding
	// rows below the similarity cutoff
	Search(ctx context.Context, vector []float32, limit int, cutoff float64) ([]*models.ScoredChunk, error)
}
