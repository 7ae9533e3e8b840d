package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/omdiwan06/CricketRAG/internal/rag/models"
	"github.com/omdiwan06/CricketRAG/pkg/db"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"
)

var ErrStoreNotBound = errors.New("vector store not bound to a database")

// Row is one chunk persisted in the vector table.
type Row struct {
	NodeID    string
	Text      string
	Metadata  map[string]any
	Embedding []float32
}

// Store binds a named table in the relational store to pgvector similarity
// search. The backing table is data_<name>, created lazily on first write.
type Store struct {
	db        *db.DB
	name      string
	dimension int
	logger    zerolog.Logger
}

// Open binds the store and ensures the pgvector extension exists. Extension
// creation is best-effort: the extension may already exist or the role may
// lack the privilege, and either is fine as long as search works later.
func Open(ctx context.Context, database *db.DB, name string, dimension int) *Store {
	logger := util.NewLogger(zerolog.InfoLevel)

	s := &Store{
		db:        database,
		name:      name,
		dimension: dimension,
		logger:    logger,
	}

	if _, err := database.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		logger.Warn().Err(err).Msg("could not ensure pgvector extension")
	} else {
		logger.Info().Msg("pgvector extension ensured")
	}

	logger.Info().Str("table", s.TableName()).Int("embed_dim", dimension).Msg("Vector store configured")
	return s
}

// TableName returns the backing table name.
func (s *Store) TableName() string {
	return "data_" + s.name
}

// Dimension returns the embedding dimension the table was bound with.
func (s *Store) Dimension() int {
	return s.dimension
}

func (s *Store) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			node_id VARCHAR NOT NULL,
			text TEXT NOT NULL,
			metadata_ JSONB,
			embedding VECTOR(%d)
		)
	`, s.TableName(), s.dimension)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Str("table", s.TableName()).Msg("Failed to create vector table")
	}
	return err
}

// InsertRows writes chunk+vector+metadata rows. Writes are at-least-once:
// rows written before a failure are not rolled back.
func (s *Store) InsertRows(ctx context.Context, rows []*Row) error {
	if s.db == nil {
		return ErrStoreNotBound
	}
	if err := s.ensureTable(ctx); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (node_id, text, metadata_, embedding)
		VALUES ($1, $2, $3, $4)
	`, s.TableName())

	for _, row := range rows {
		nodeID := row.NodeID
		if nodeID == "" {
			nodeID = uuid.New().String()
		}

		metadataJSON, err := json.Marshal(row.Metadata)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to marshal chunk metadata")
			return err
		}

		_, err = s.db.ExecContext(ctx, query, nodeID, row.Text, metadataJSON, pgvector.NewVector(row.Embedding))
		if err != nil {
			s.logger.Error().Err(err).Str("node_id", nodeID).Msg("Failed to insert chunk")
			return err
		}
	}

	return nil
}

// Search returns up to limit rows ranked by cosine similarity to the query
// vector, keeping rows whose similarity is at or above the cutoff.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, cutoff float64) ([]*models.ScoredChunk, error) {
	if s.db == nil {
		return nil, ErrStoreNotBound
	}

	query := fmt.Sprintf(`
		SELECT text, metadata_, 1 - (embedding <=> $1) AS similarity
		FROM %s
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, s.TableName())

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), cutoff, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Similarity search failed")
		return nil, err
	}
	defer rows.Close()

	var results []*models.ScoredChunk
	for rows.Next() {
		var (
			text         string
			metadataJSON []byte
			score        float64
		)
		if err := rows.Scan(&text, &metadataJSON, &score); err != nil {
			s.logger.Error().Err(err).Msg("Failed to scan search result")
			return nil, err
		}

		metadata := make(map[string]any)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to decode chunk metadata")
				metadata = map[string]any{}
			}
		}

		results = append(results, &models.ScoredChunk{
			Text:     text,
			Score:    score,
			Metadata: metadata,
		})
	}

	return results, rows.Err()
}

// Count returns the number of rows in the backing table. A missing table
// counts as zero rows, not an error.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrStoreNotBound
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)",
		s.TableName(),
	).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if !exists {
		s.logger.Info().Str("table", s.TableName()).Msg("Vector table not found (no rows to count yet)")
		return 0, nil
	}

	var count int
	err = s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.TableName())).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Drop removes the backing table. Dropping a non-existent table is not an
// error.
func (s *Store) Drop(ctx context.Context) error {
	if s.db == nil {
		return ErrStoreNotBound
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", s.TableName()))
	if err != nil {
		s.logger.Error().Err(err).Str("table", s.TableName()).Msg("Failed to drop vector table")
	}
	return err
}
