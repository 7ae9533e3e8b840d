package services

import (
	"context"
	"math"

	"github.com/omdiwan06/CricketRAG/internal/history/models"
	"github.com/omdiwan06/CricketRAG/internal/history/repository"
	ragmodels "github.com/omdiwan06/CricketRAG/internal/rag/models"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// contentPreviewLimit caps the stored source content at its first 500
// characters.
const contentPreviewLimit = 500

// Repository is the ledger data access surface the service needs. It is an
// interface so tests can substitute a double.
type Repository interface {
	CreateQueryHistory(ctx context.Context, params repository.CreateQueryHistoryParams) (*models.QueryHistory, error)
	CreateSourceDocumentHistory(ctx context.Context, queryID uuid.UUID, contentPreview string,
		similarityScore float64, metadata *ragmodels.DocumentMetadata) (*models.SourceDocumentHistory, error)
	GetQueryHistoryPaginated(ctx context.Context, limit, offset int) (*models.QueryHistoryList, error)
	GetQueryHistoryByID(ctx context.Context, queryID uuid.UUID) (*models.QueryHistory, error)
	GetSourceDocumentsByQueryID(ctx context.Context, queryID uuid.UUID) ([]*models.SourceDocumentHistory, error)
	GetTotalQueryCount(ctx context.Context) (int, error)
	GetSuccessfulQueryCount(ctx context.Context) (int, error)
	GetQueriesWithResponseTime(ctx context.Context) ([]*models.QueryHistory, error)
}

// HistoryService tracks query history. Ledger malfunctions are absorbed
// here: every method degrades to an empty result instead of failing the
// caller.
type HistoryService struct {
	repository Repository
	logger     zerolog.Logger
}

func NewHistoryService(repo Repository) *HistoryService {
	return &HistoryService{
		repository: repo,
		logger:     util.NewLogger(zerolog.InfoLevel),
	}
}

// SaveQueryHistory writes one ledger row for the attempt plus one source
// document row per retrieved document. If the parent row fails, nothing
// else is attempted and nil is returned. A failed child row is logged and
// the remaining children are still written.
func (s *HistoryService) SaveQueryHistory(
	ctx context.Context,
	request *ragmodels.QueryRequest,
	response *ragmodels.QueryResponse,
	responseTimeMs *int,
	success bool,
	errorMessage *string,
) *uuid.UUID {
	record, err := s.repository.CreateQueryHistory(ctx, repository.CreateQueryHistoryParams{
		Query:               request.Query,
		ChatResponse:        response.ChatResponse,
		TopK:                request.TopK,
		ResponseTimeMs:      responseTimeMs,
		SourceDocumentCount: len(response.SourceDocuments),
		Success:             success,
		ErrorMessage:        errorMessage,
	})
	if err != nil || record == nil {
		s.logger.Error().Err(err).Msg("Failed to save query history")
		return nil
	}

	for _, document := range response.SourceDocuments {
		metadata := document.Metadata
		_, err := s.repository.CreateSourceDocumentHistory(
			ctx,
			record.ID,
			previewContent(document.Content),
			document.Score,
			&metadata,
		)
		if err != nil {
			s.logger.Error().Err(err).
				Str("query_id", record.ID.String()).
				Msg("Failed to save source document history")
		}
	}

	s.logger.Info().Str("query_id", record.ID.String()).Msg("Saved query history")
	return &record.ID
}

// GetQueryHistory returns one page of recent history, most recent first.
func (s *HistoryService) GetQueryHistory(ctx context.Context, limit, offset int) *models.QueryHistoryList {
	list, err := s.repository.GetQueryHistoryPaginated(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get query history")
		return &models.QueryHistoryList{
			Items:      []*models.QueryHistory{},
			TotalCount: 0,
			Limit:      limit,
			Offset:     offset,
		}
	}
	return list
}

// GetQueryByID returns a specific ledger row, or nil when it does not
// exist.
func (s *HistoryService) GetQueryByID(ctx context.Context, queryID uuid.UUID) *models.QueryHistory {
	record, err := s.repository.GetQueryHistoryByID(ctx, queryID)
	if err != nil {
		return nil
	}
	return record
}

// GetSourceDocumentsForQuery returns the source documents recorded for a
// query.
func (s *HistoryService) GetSourceDocumentsForQuery(ctx context.Context, queryID uuid.UUID) []*models.SourceDocumentHistory {
	records, err := s.repository.GetSourceDocumentsByQueryID(ctx, queryID)
	if err != nil {
		return []*models.SourceDocumentHistory{}
	}
	return records
}

// GetQueryStatistics aggregates the ledger: totals, success rate and mean
// response time over rows that have one.
func (s *HistoryService) GetQueryStatistics(ctx context.Context) *models.QueryStatistics {
	statistics := &models.QueryStatistics{}

	total, err := s.repository.GetTotalQueryCount(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get query statistics")
		return statistics
	}
	successful, err := s.repository.GetSuccessfulQueryCount(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get query statistics")
		return statistics
	}
	timed, err := s.repository.GetQueriesWithResponseTime(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get query statistics")
		return statistics
	}

	statistics.TotalQueries = total
	statistics.SuccessfulQueries = successful
	if total > 0 {
		statistics.SuccessRatePercent = roundTwoDecimals(float64(successful) / float64(total) * 100)
	}

	if len(timed) > 0 {
		sum := 0
		for _, record := range timed {
			if record.ResponseTimeMs != nil {
				sum += *record.ResponseTimeMs
			}
		}
		average := roundTwoDecimals(float64(sum) / float64(len(timed)))
		statistics.AverageResponseTimeMs = &average
	}

	return statistics
}

func previewContent(content string) string {
	runes := []rune(content)
	if len(runes) <= contentPreviewLimit {
		return content
	}
	return string(runes[:contentPreviewLimit])
}

func roundTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}
