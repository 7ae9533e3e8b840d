package server

import (
	"encoding/json"
	"net/http"
	"time"

	historyservices "github.com/omdiwan06/CricketRAG/internal/history/services"
	ragservices "github.com/omdiwan06/CricketRAG/internal/rag/services"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Server exposes the RAG service and the history ledger over HTTP.
type Server struct {
	rag        *ragservices.RAGService
	history    *historyservices.HistoryService
	dataFolder string
	logger     zerolog.Logger
}

func New(rag *ragservices.RAGService, history *historyservices.HistoryService, dataFolder string) *Server {
	return &Server{
		rag:        rag,
		history:    history,
		dataFolder: dataFolder,
		logger:     util.NewLogger(zerolog.InfoLevel),
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(s.requestLogger)

	router.Get("/", s.handleRoot)
	router.Get("/health", s.handleServiceHealth)

	router.Route("/rag", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/health", s.handleRAGHealth)
		r.Get("/documents/count", s.handleDocumentCount)
	})

	router.Route("/history", func(r chi.Router) {
		r.Get("/queries", s.handleQueryHistory)
		r.Get("/queries/{queryID}", s.handleQueryByID)
		r.Get("/queries/{queryID}/sources", s.handleQuerySources)
		r.Get("/statistics", s.handleStatistics)
	})

	router.Get("/files/download/{filename}", s.handleFileDownload)

	return router
}

// requestLogger logs every request with its status and latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"detail": message})
}
