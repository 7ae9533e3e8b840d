package repository

import (
	"context"

	"github.com/omdiwan06/CricketRAG/internal/rag/interfaces"
	"github.com/omdiwan06/CricketRAG/internal/rag/models"
)

// IndexHandle is the in-memory handle over the persisted vector store.
// Hydrating one is cheap: it wires the embedder to the store's similarity
// search without touching the persisted rows.
type IndexHandle struct {
	searcher interfaces.VectorSearcher
	embedder interfaces.Embedder
}

func newIndexHandle(searcher interfaces.VectorSearcher, embedder interfaces.Embedder) *IndexHandle {
	return &IndexHandle{searcher: searcher, embedder: embedder}
}

// Retrieve embeds the query and runs cutoff-filtered similarity search.
func (h *IndexHandle) Retrieve(ctx context.Context, query string, limit int, cutoff float64) ([]*models.ScoredChunk, error) {
	vector, err := h.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	return h.searcher.Search(ctx, vector, limit, cutoff)
}
