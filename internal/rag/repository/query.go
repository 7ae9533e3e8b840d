package repository

import (
	"context"
	"fmt"

	"github.com/omdiwan06/CricketRAG/internal/rag/models"
)

const (
	// similarityCutoff discards weak matches before truncation.
	similarityCutoff = 0.6
	// maxOverFetch caps the over-fetch window regardless of top_k.
	maxOverFetch = 15
)

// overFetchLimit returns the candidate count requested from similarity
// search: min(topK * 2, 15). The multiplier gives the cutoff filter room
// to discard noise before the result is truncated back to topK.
func overFetchLimit(topK int) int {
	limit := topK * 2
	if limit > maxOverFetch {
		return maxOverFetch
	}
	return limit
}

// Query runs the retrieval pipeline: health gate, empty-index gate, lazy
// handle hydration, over-fetch-then-truncate similarity search, response
// synthesis and metadata normalization.
func (r *Repository) Query(ctx context.Context, request *models.QueryRequest) (*models.QueryResponse, error) {
	health := r.HealthCheck(ctx, false)
	if !health.BasicOK() {
		r.logger.Error().
			Bool("database", health.Database).
			Bool("vector_store", health.VectorStore).
			Bool("models", health.Models).
			Msg("System not ready for queries - basic components failed")
		return nil, ErrNotHealthy
	}

	count := r.DocumentCount(ctx)
	if count == 0 {
		r.logger.Error().Msg("No documents in vector store - cannot perform queries")
		return nil, ErrEmptyIndex
	}
	r.logger.Info().Int("documents", count).Msg("Vector store ready")

	handle, err := r.EnsureIndexHandle()
	if err != nil {
		return nil, err
	}

	r.logger.Info().Str("query", truncateForLog(request.Query)).Msg("Executing query")

	candidates, err := handle.Retrieve(ctx, request.Query, overFetchLimit(request.TopK), similarityCutoff)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	answer, err := r.synthesizer.Synthesize(ctx, request.Query, chunkTexts(candidates))
	if err != nil {
		return nil, fmt.Errorf("response synthesis failed: %w", err)
	}

	if len(candidates) > request.TopK {
		candidates = candidates[:request.TopK]
	}

	sourceDocuments := make([]models.SourceDocument, 0, len(candidates))
	for _, candidate := range candidates {
		sourceDocuments = append(sourceDocuments, models.SourceDocument{
			Content:  candidate.Text,
			Score:    candidate.Score,
			Metadata: models.NormalizeMetadata(candidate.Metadata),
		})
	}

	r.logger.Info().Msg("Query executed successfully")
	return &models.QueryResponse{
		ChatResponse:    answer,
		SourceDocuments: sourceDocuments,
	}, nil
}

func chunkTexts(chunks []*models.ScoredChunk) []string {
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	return texts
}

const logQueryPreview = 50

func truncateForLog(query string) string {
	if len(query) <= logQueryPreview {
		return query
	}
	return query[:logQueryPreview] + "..."
}
