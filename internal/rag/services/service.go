package services

import (
	"context"
	"time"

	"github.com/omdiwan06/CricketRAG/internal/rag/interfaces"
	"github.com/omdiwan06/CricketRAG/internal/rag/models"
	"github.com/omdiwan06/CricketRAG/internal/rag/repository"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// failureResponse is the placeholder answer returned to the caller when
// the pipeline fails. The real reason lives in the history ledger.
const failureResponse = "Error processing query."

// QueryPipeline is the retrieval surface the service orchestrates.
type QueryPipeline interface {
	Query(ctx context.Context, request *models.QueryRequest) (*models.QueryResponse, error)
	HealthCheck(ctx context.Context, requireIndex bool) repository.Health
	DocumentCount(ctx context.Context) int
	IndexDocuments(ctx context.Context, documents []*models.Document) bool
	ClearIndex(ctx context.Context) bool
	ForceRecreateIndex(ctx context.Context) bool
}

// HistoryRecorder persists one ledger record per query attempt. A nil
// record id means the write failed.
type HistoryRecorder interface {
	SaveQueryHistory(ctx context.Context, request *models.QueryRequest, response *models.QueryResponse,
		responseTimeMs *int, success bool, errorMessage *string) *uuid.UUID
}

// RAGService composes the query pipeline with the history ledger: every
// query attempt, success or failure, produces exactly one ledger record.
type RAGService struct {
	repository QueryPipeline
	history    HistoryRecorder
	loader     interfaces.DocumentLoader
	logger     zerolog.Logger
}

func NewRAGService(repo QueryPipeline, history HistoryRecorder, loader interfaces.DocumentLoader) *RAGService {
	return &RAGService{
		repository: repo,
		history:    history,
		loader:     loader,
		logger:     util.NewLogger(zerolog.InfoLevel),
	}
}

// Query runs the pipeline and records the outcome. The caller always gets
// a response: failures surface only through the placeholder text and the
// ledger, never as an error.
func (s *RAGService) Query(ctx context.Context, request *models.QueryRequest) *models.QueryResponse {
	start := time.Now()
	success := true
	var errorMessage *string

	result := &models.QueryResponse{
		ChatResponse:    failureResponse,
		SourceDocuments: []models.SourceDocument{},
	}

	response, err := s.repository.Query(ctx, request)
	if err != nil {
		success = false
		message := err.Error()
		errorMessage = &message
		s.logger.Error().Err(err).Str("query", request.Query).Msg("Query failed")
	} else {
		result = response
	}

	elapsed := int(time.Since(start).Milliseconds())
	if id := s.history.SaveQueryHistory(ctx, request, result, &elapsed, success, errorMessage); id == nil {
		// A history malfunction must never make the query itself fail
		s.logger.Error().Msg("Failed to save query history")
	}

	return result
}

// GetHealthStatus reports the health of the pipeline's dependencies.
func (s *RAGService) GetHealthStatus(ctx context.Context, includeIndex bool) repository.Health {
	return s.repository.HealthCheck(ctx, includeIndex)
}

// GetDocumentCount returns the number of indexed chunks.
func (s *RAGService) GetDocumentCount(ctx context.Context) int {
	return s.repository.DocumentCount(ctx)
}

// IndexDocuments indexes an in-memory document batch.
func (s *RAGService) IndexDocuments(ctx context.Context, documents []*models.Document) bool {
	if len(documents) == 0 {
		s.logger.Warn().Msg("No documents to index")
		return false
	}
	s.logger.Info().Int("documents", len(documents)).Msg("Indexing documents")
	return s.repository.IndexDocuments(ctx, documents)
}

// ClearIndex drops the vector table and rebinds the store.
func (s *RAGService) ClearIndex(ctx context.Context) bool {
	return s.repository.ClearIndex(ctx)
}

// ForceRecreateIndex drops the vector table and discards the in-memory
// index handle and store binding before rebinding.
func (s *RAGService) ForceRecreateIndex(ctx context.Context) bool {
	return s.repository.ForceRecreateIndex(ctx)
}

// IndexFromDirectory loads every supported file under the directory and
// indexes the batch.
func (s *RAGService) IndexFromDirectory(ctx context.Context, directoryPath string) bool {
	documents, err := s.loader.LoadDirectory(directoryPath)
	if err != nil {
		s.logger.Error().Err(err).Str("directory", directoryPath).Msg("Failed to index documents from directory")
		return false
	}
	return s.IndexDocuments(ctx, documents)
}
