package models

import (
	"time"

	ragmodels "github.com/omdiwan06/CricketRAG/internal/rag/models"

	"github.com/google/uuid"
)

// QueryHistory is one immutable row per query attempt. Rows are written
// once after the attempt completes and never updated.
type QueryHistory struct {
	ID                  uuid.UUID `json:"id"`
	Query               string    `json:"query"`
	ChatResponse        string    `json:"chat_response"`
	TopK                int       `json:"top_k"`
	ResponseTimeMs      *int      `json:"response_time_ms,omitempty"`
	SourceDocumentCount int       `json:"source_document_count"`
	CreatedAt           time.Time `json:"created_at"`
	Success             bool      `json:"success"`
	ErrorMessage        *string   `json:"error_message,omitempty"`
}

// SourceDocumentHistory records one source document used by a successful
// query. DocumentMetadata is the parsed form of the stored serialization;
// it is nil when nothing was stored or the stored value could not be
// parsed.
type SourceDocumentHistory struct {
	ID               uuid.UUID                   `json:"id"`
	QueryID          uuid.UUID                   `json:"query_id"`
	ContentPreview   string                      `json:"content_preview"`
	SimilarityScore  float64                     `json:"similarity_score"`
	DocumentMetadata *ragmodels.DocumentMetadata `json:"document_metadata,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
}

// QueryHistoryList is one page of history plus the window-independent
// total.
type QueryHistoryList struct {
	Items      []*QueryHistory `json:"items"`
	TotalCount int             `json:"total_count"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// QueryStatistics are the aggregate figures over the whole ledger.
type QueryStatistics struct {
	TotalQueries          int      `json:"total_queries"`
	SuccessfulQueries     int      `json:"successful_queries"`
	SuccessRatePercent    float64  `json:"success_rate_percent"`
	AverageResponseTimeMs *float64 `json:"average_response_time_ms,omitempty"`
}

// QueryDetail is a history row together with its source documents.
type QueryDetail struct {
	QueryHistory    *QueryHistory            `json:"query_history"`
	SourceDocuments []*SourceDocumentHistory `json:"source_documents"`
}
