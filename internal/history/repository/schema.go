package repository

import "context"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS query_history (
		id UUID PRIMARY KEY,
		query TEXT NOT NULL,
		chat_response TEXT NOT NULL,
		top_k INTEGER NOT NULL,
		response_time_ms INTEGER,
		source_document_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		success BOOLEAN NOT NULL DEFAULT TRUE,
		error_message TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS source_document_history (
		id UUID PRIMARY KEY,
		query_id UUID NOT NULL REFERENCES query_history(id),
		content_preview TEXT NOT NULL,
		similarity_score DOUBLE PRECISION NOT NULL,
		document_metadata TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_query_history_created_at
		ON query_history (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_source_document_history_query_id
		ON source_document_history (query_id)`,
}

// InitSchema creates the ledger tables if they do not exist yet.
func (r *HistoryRepository) InitSchema(ctx context.Context) error {
	for _, statement := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, statement); err != nil {
			r.logger.Error().Err(err).Msg("Failed to initialize history schema")
			return err
		}
	}
	return nil
}
