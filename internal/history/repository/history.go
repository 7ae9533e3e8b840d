package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/omdiwan06/CricketRAG/internal/history/models"
	ragmodels "github.com/omdiwan06/CricketRAG/internal/rag/models"
	"github.com/omdiwan06/CricketRAG/pkg/db"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrQueryNotFound = errors.New("query not found")

// HistoryRepository is the raw-SQL data access layer for the query ledger.
type HistoryRepository struct {
	db     *db.DB
	logger zerolog.Logger
}

func NewHistoryRepository(database *db.DB) *HistoryRepository {
	return &HistoryRepository{
		db:     database,
		logger: util.NewLogger(zerolog.ErrorLevel),
	}
}

// CreateQueryHistoryParams are the fields of a new ledger row.
type CreateQueryHistoryParams struct {
	Query               string
	ChatResponse        string
	TopK                int
	ResponseTimeMs      *int
	SourceDocumentCount int
	Success             bool
	ErrorMessage        *string
}

// CreateQueryHistory inserts one query attempt row.
func (r *HistoryRepository) CreateQueryHistory(ctx context.Context, params CreateQueryHistoryParams) (*models.QueryHistory, error) {
	record := &models.QueryHistory{
		ID:                  uuid.New(),
		Query:               params.Query,
		ChatResponse:        params.ChatResponse,
		TopK:                params.TopK,
		ResponseTimeMs:      params.ResponseTimeMs,
		SourceDocumentCount: params.SourceDocumentCount,
		CreatedAt:           time.Now().UTC(),
		Success:             params.Success,
		ErrorMessage:        params.ErrorMessage,
	}

	query := `
		INSERT INTO query_history (id, query, chat_response, top_k, response_time_ms,
		                           source_document_count, created_at, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query, record.ID, record.Query, record.ChatResponse,
		record.TopK, record.ResponseTimeMs, record.SourceDocumentCount,
		record.CreatedAt, record.Success, record.ErrorMessage)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to create query history")
		return nil, err
	}

	return record, nil
}

// CreateSourceDocumentHistory inserts one source document row for a query.
// The metadata is stored as its JSON serialization.
func (r *HistoryRepository) CreateSourceDocumentHistory(
	ctx context.Context,
	queryID uuid.UUID,
	contentPreview string,
	similarityScore float64,
	metadata *ragmodels.DocumentMetadata,
) (*models.SourceDocumentHistory, error) {
	record := &models.SourceDocumentHistory{
		ID:               uuid.New(),
		QueryID:          queryID,
		ContentPreview:   contentPreview,
		SimilarityScore:  similarityScore,
		DocumentMetadata: metadata,
		CreatedAt:        time.Now().UTC(),
	}

	var metadataJSON *string
	if metadata != nil {
		serialized, err := json.Marshal(metadata)
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to serialize document metadata")
			return nil, err
		}
		text := string(serialized)
		metadataJSON = &text
	}

	query := `
		INSERT INTO source_document_history (id, query_id, content_preview,
		                                     similarity_score, document_metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, record.ID, record.QueryID, record.ContentPreview,
		record.SimilarityScore, metadataJSON, record.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to create source document history")
		return nil, err
	}

	return record, nil
}

// GetQueryHistoryPaginated returns one page ordered most recent first,
// with the total count computed independently of the page window.
func (r *HistoryRepository) GetQueryHistoryPaginated(ctx context.Context, limit, offset int) (*models.QueryHistoryList, error) {
	query := `
		SELECT id, query, chat_response, top_k, response_time_ms,
		       source_document_count, created_at, success, error_message
		FROM query_history ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to get paginated query history")
		return nil, err
	}
	defer rows.Close()

	items := []*models.QueryHistory{}
	for rows.Next() {
		record, err := scanQueryHistory(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to scan query history")
			return nil, err
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	total, err := r.GetTotalQueryCount(ctx)
	if err != nil {
		return nil, err
	}

	return &models.QueryHistoryList{
		Items:      items,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// GetQueryHistoryByID returns one ledger row, or ErrQueryNotFound.
func (r *HistoryRepository) GetQueryHistoryByID(ctx context.Context, queryID uuid.UUID) (*models.QueryHistory, error) {
	query := `
		SELECT id, query, chat_response, top_k, response_time_ms,
		       source_document_count, created_at, success, error_message
		FROM query_history WHERE id = $1
	`
	record, err := scanQueryHistory(r.db.QueryRowContext(ctx, query, queryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueryNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("query_id", queryID.String()).Msg("Failed to get query by ID")
		return nil, err
	}
	return record, nil
}

// GetSourceDocumentsByQueryID returns the source documents recorded for a
// query. A row whose stored metadata cannot be parsed keeps its other
// fields; only the metadata is dropped.
func (r *HistoryRepository) GetSourceDocumentsByQueryID(ctx context.Context, queryID uuid.UUID) ([]*models.SourceDocumentHistory, error) {
	query := `
		SELECT id, content_preview, similarity_score, document_metadata, created_at
		FROM source_document_history WHERE query_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, queryID)
	if err != nil {
		r.logger.Error().Err(err).Str("query_id", queryID.String()).Msg("Failed to get source documents for query")
		return nil, err
	}
	defer rows.Close()

	records := []*models.SourceDocumentHistory{}
	for rows.Next() {
		record := &models.SourceDocumentHistory{QueryID: queryID}
		var metadataJSON sql.NullString
		err := rows.Scan(&record.ID, &record.ContentPreview, &record.SimilarityScore,
			&metadataJSON, &record.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to scan source document history")
			return nil, err
		}

		if metadataJSON.Valid && metadataJSON.String != "" {
			metadata, err := ParseDocumentMetadata(metadataJSON.String)
			if err != nil {
				r.logger.Warn().Err(err).
					Str("document_id", record.ID.String()).
					Str("raw_metadata", metadataJSON.String).
					Msg("Failed to parse metadata for document")
			} else {
				record.DocumentMetadata = metadata
			}
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

// GetTotalQueryCount returns the number of ledger rows.
func (r *HistoryRepository) GetTotalQueryCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_history").Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to get total query count")
		return 0, err
	}
	return count, nil
}

// GetSuccessfulQueryCount returns the number of successful ledger rows.
func (r *HistoryRepository) GetSuccessfulQueryCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_history WHERE success = TRUE").Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to get successful query count")
		return 0, err
	}
	return count, nil
}

// GetQueriesWithResponseTime returns every row that has a recorded
// response time.
func (r *HistoryRepository) GetQueriesWithResponseTime(ctx context.Context) ([]*models.QueryHistory, error) {
	query := `
		SELECT id, query, chat_response, top_k, response_time_ms,
		       source_document_count, created_at, success, error_message
		FROM query_history WHERE response_time_ms IS NOT NULL
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to get queries with response time")
		return nil, err
	}
	defer rows.Close()

	var records []*models.QueryHistory
	for rows.Next() {
		record, err := scanQueryHistory(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to scan query history")
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueryHistory(row rowScanner) (*models.QueryHistory, error) {
	record := &models.QueryHistory{}
	var responseTime sql.NullInt64
	var errorMessage sql.NullString

	err := row.Scan(&record.ID, &record.Query, &record.ChatResponse, &record.TopK,
		&responseTime, &record.SourceDocumentCount, &record.CreatedAt,
		&record.Success, &errorMessage)
	if err != nil {
		return nil, err
	}

	if responseTime.Valid {
		value := int(responseTime.Int64)
		record.ResponseTimeMs = &value
	}
	if errorMessage.Valid {
		record.ErrorMessage = &errorMessage.String
	}

	return record, nil
}
