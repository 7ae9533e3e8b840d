package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"

	historymodels "github.com/omdiwan06/CricketRAG/internal/history/models"
	"github.com/omdiwan06/CricketRAG/internal/rag/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultTopK    = 5
	defaultLimit   = 10
	maxLimit       = 100
	serviceName    = "Ultimate Advisor API"
	serviceVersion = "1.0.0"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Welcome to Ultimate Advisor API",
		"description": "A RAG-based chat system for cricket laws and guidance",
		"version":     serviceVersion,
		"endpoints": map[string]string{
			"health":  "/health",
			"rag":     "/rag",
			"history": "/history",
		},
	})
}

func (s *Server) handleServiceHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var request models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if request.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if request.TopK == 0 {
		request.TopK = defaultTopK
	}
	if request.TopK < 1 {
		s.writeError(w, http.StatusBadRequest, "top_k must be at least 1")
		return
	}

	response := s.rag.Query(r.Context(), &request)
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleRAGHealth(w http.ResponseWriter, r *http.Request) {
	includeIndex := r.URL.Query().Get("include_index") == "true"
	health := s.rag.GetHealthStatus(r.Context(), includeIndex)
	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleDocumentCount(w http.ResponseWriter, r *http.Request) {
	count := s.rag.GetDocumentCount(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]any{
		"document_count": count,
		"message":        "Vector store contains " + strconv.Itoa(count) + " documents",
	})
}

func (s *Server) handleQueryHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultLimit)
	offset := queryInt(r, "offset", 0)
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	s.writeJSON(w, http.StatusOK, s.history.GetQueryHistory(r.Context(), limit, offset))
}

func (s *Server) handleQueryByID(w http.ResponseWriter, r *http.Request) {
	queryID, ok := s.parseQueryID(w, r)
	if !ok {
		return
	}

	record := s.history.GetQueryByID(r.Context(), queryID)
	if record == nil {
		s.writeError(w, http.StatusNotFound, "Query not found: "+queryID.String())
		return
	}

	s.writeJSON(w, http.StatusOK, historymodels.QueryDetail{
		QueryHistory:    record,
		SourceDocuments: s.history.GetSourceDocumentsForQuery(r.Context(), queryID),
	})
}

func (s *Server) handleQuerySources(w http.ResponseWriter, r *http.Request) {
	queryID, ok := s.parseQueryID(w, r)
	if !ok {
		return
	}

	if record := s.history.GetQueryByID(r.Context(), queryID); record == nil {
		s.writeError(w, http.StatusNotFound, "Query not found: "+queryID.String())
		return
	}

	s.writeJSON(w, http.StatusOK, s.history.GetSourceDocumentsForQuery(r.Context(), queryID))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.history.GetQueryStatistics(r.Context()))
}

var safeFilename = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !safeFilename.MatchString(filename) {
		s.writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	filePath := filepath.Join(s.dataFolder, filename)
	s.logger.Info().Str("file", filename).Msg("Serving file download")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	http.ServeFile(w, r, filePath)
}

func (s *Server) parseQueryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	queryID, err := uuid.Parse(chi.URLParam(r, "queryID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid query id")
		return uuid.UUID{}, false
	}
	return queryID, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
