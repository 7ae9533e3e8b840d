package repository

import (
	"context"
	"errors"

	"github.com/omdiwan06/CricketRAG/internal/config"
	"github.com/omdiwan06/CricketRAG/internal/rag/binding"
	"github.com/omdiwan06/CricketRAG/internal/rag/chunkers"
	"github.com/omdiwan06/CricketRAG/internal/rag/interfaces"
	"github.com/omdiwan06/CricketRAG/internal/rag/models"
	"github.com/omdiwan06/CricketRAG/internal/rag/vectorstore"
	"github.com/omdiwan06/CricketRAG/pkg/db"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/rs/zerolog"
)

var (
	ErrNotHealthy    = errors.New("system not healthy for queries")
	ErrEmptyIndex    = errors.New("no documents in vector store")
	ErrStoreNotBound = errors.New("vector store not initialized")
)

// Health reports the state of each dependency the query path relies on.
type Health struct {
	Database    bool `json:"database"`
	VectorStore bool `json:"vector_store"`
	Models      bool `json:"models"`
	Index       bool `json:"index"`
}

// BasicOK reports whether everything except the index handle is healthy.
// The index may legitimately not be hydrated yet.
func (h Health) BasicOK() bool {
	return h.Database && h.VectorStore && h.Models
}

// Repository owns the retrieval state: the model binding, the vector store
// binding and the lazily hydrated index handle.
//
// The binding and handle are shared, read-mostly state. Concurrent indexing
// and querying is not coordinated here; callers that need exclusivity must
// serialize themselves.
type Repository struct {
	db      *db.DB
	cfg     *config.Config
	binding *binding.ModelBinding
	store   *vectorstore.Store
	chunker interfaces.Chunker

	synthesizer *Synthesizer

	// index is nil until the first successful hydration
	index *IndexHandle

	logger zerolog.Logger
}

// New constructs the repository: binds the models (with the dimension
// probe), then binds the vector store with the effective dimension.
func New(ctx context.Context, cfg *config.Config, database *db.DB) (*Repository, error) {
	modelBinding := binding.New(ctx, cfg)

	chunker, err := chunkers.NewSentenceSplitterWithSize(chunkSizeTokens, chunkOverlapTokens)
	if err != nil {
		return nil, err
	}

	store := vectorstore.Open(ctx, database, cfg.VectorTableName, modelBinding.EffectiveDim())

	return &Repository{
		db:          database,
		cfg:         cfg,
		binding:     modelBinding,
		store:       store,
		chunker:     chunker,
		synthesizer: NewSynthesizer(modelBinding.Chat(), chunker),
		logger:      util.NewLogger(zerolog.InfoLevel),
	}, nil
}

const (
	chunkSizeTokens    = 256
	chunkOverlapTokens = 20
)

// IndexDocuments splits each document into overlapping chunks, embeds each
// chunk and writes chunk+vector+metadata rows into the vector store.
//
// Writes are at-least-once: a failure part-way leaves already-written rows
// in place, and re-running may duplicate them.
func (r *Repository) IndexDocuments(ctx context.Context, documents []*models.Document) bool {
	if len(documents) == 0 {
		r.logger.Warn().Msg("No documents to index")
		return false
	}

	r.logger.Info().Int("documents", len(documents)).Msg("Creating index from documents")

	var rows []*vectorstore.Row
	embedder := r.binding.Embedder()
	for _, document := range documents {
		chunks, err := r.chunker.ChunkDocument(document)
		if err != nil {
			r.logger.Error().Err(err).Msg("Error indexing documents: chunking failed")
			return false
		}

		for _, chunk := range chunks {
			vector, err := embedder.GenerateEmbedding(ctx, chunk.Text)
			if err != nil {
				r.logger.Error().Err(err).Msg("Error indexing documents: embedding failed")
				return false
			}
			rows = append(rows, &vectorstore.Row{
				Text:      chunk.Text,
				Metadata:  chunk.Metadata,
				Embedding: vector,
			})
		}
	}

	if err := r.store.InsertRows(ctx, rows); err != nil {
		r.logger.Error().Err(err).Msg("Error indexing documents: persist failed")
		return false
	}

	r.index = newIndexHandle(r.store, embedder)
	r.logger.Info().Int("chunks", len(rows)).Msg("Documents indexed successfully")
	return true
}

// EnsureIndexHandle returns the in-memory index handle, reconstructing it
// from the persisted vector store if the process restarted without
// rebuilding. No re-embedding or re-chunking happens on this path.
func (r *Repository) EnsureIndexHandle() (*IndexHandle, error) {
	if r.index != nil {
		return r.index, nil
	}
	if r.store == nil {
		r.logger.Error().Msg("Vector store not initialized")
		return nil, ErrStoreNotBound
	}

	r.logger.Info().Msg("Index not initialized, creating from vector store")
	r.index = newIndexHandle(r.store, r.binding.Embedder())
	return r.index, nil
}

// DocumentCount returns the number of chunks in the vector store's backing
// table. A missing table or a failed count is reported as zero.
func (r *Repository) DocumentCount(ctx context.Context) int {
	if r.store == nil {
		r.logger.Warn().Msg("DocumentCount called before vector store initialization")
		return 0
	}

	count, err := r.store.Count(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to get document count")
		return 0
	}
	return count
}

// ClearIndex drops the backing table and rebinds the vector store, ready
// for a fresh indexing run.
func (r *Repository) ClearIndex(ctx context.Context) bool {
	if r.store == nil || r.db == nil {
		return false
	}

	if err := r.store.Drop(ctx); err != nil {
		r.logger.Error().Err(err).Msg("Failed to clear index")
		return false
	}

	r.store = vectorstore.Open(ctx, r.db, r.cfg.VectorTableName, r.binding.EffectiveDim())
	r.index = nil

	r.logger.Info().Msg("Index cleared successfully")
	return true
}

// ForceRecreateIndex drops the backing table and discards both the
// in-memory handle and the store binding before rebinding. Used to recover
// from a dimension mismatch.
func (r *Repository) ForceRecreateIndex(ctx context.Context) bool {
	if r.db == nil {
		r.logger.Error().Msg("Cannot recreate index: database not initialized")
		return false
	}

	if r.store != nil {
		if err := r.store.Drop(ctx); err != nil {
			r.logger.Error().Err(err).Msg("Failed to force recreate index")
			return false
		}
		r.logger.Info().Str("table", r.store.TableName()).Msg("Dropped existing vector table")
	}

	r.store = nil
	r.index = nil
	r.store = vectorstore.Open(ctx, r.db, r.cfg.VectorTableName, r.binding.EffectiveDim())
	return true
}

// HealthCheck probes each dependency. When requireIndex is false the index
// field reports true regardless, since the handle is hydrated on demand.
func (r *Repository) HealthCheck(ctx context.Context, requireIndex bool) Health {
	health := Health{}

	if r.db != nil {
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err == nil {
			health.Database = true
		} else {
			r.logger.Error().Err(err).Msg("Health check failed: database unreachable")
		}
	}

	health.VectorStore = r.store != nil
	health.Models = r.binding != nil && r.binding.IsBound()

	if requireIndex {
		health.Index = r.index != nil
	} else {
		health.Index = true
	}

	return health
}

// Binding exposes the model binding for diagnostics (configured vs probed
// dimension).
func (r *Repository) Binding() *binding.ModelBinding {
	return r.binding
}
