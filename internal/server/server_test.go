package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	historymodels "github.com/omdiwan06/CricketRAG/internal/history/models"
	historyrepo "github.com/omdiwan06/CricketRAG/internal/history/repository"
	historyservices "github.com/omdiwan06/CricketRAG/internal/history/services"
	"github.com/omdiwan06/CricketRAG/internal/rag/models"
	ragrepo "github.com/omdiwan06/CricketRAG/internal/rag/repository"
	ragservices "github.com/omdiwan06/CricketRAG/internal/rag/services"

	"github.com/google/uuid"
)

type stubPipeline struct {
	response *models.QueryResponse
	count    int
}

func (s *stubPipeline) Query(_ context.Context, _ *models.QueryRequest) (*models.QueryResponse, error) {
	return s.response, nil
}

func (s *stubPipeline) HealthCheck(_ context.Context, requireIndex bool) ragrepo.Health {
	return ragrepo.Health{Database: true, VectorStore: true, Models: true, Index: !requireIndex}
}

func (s *stubPipeline) DocumentCount(_ context.Context) int { return s.count }

func (s *stubPipeline) IndexDocuments(_ context.Context, _ []*models.Document) bool { return true }

func (s *stubPipeline) ClearIndex(_ context.Context) bool { return true }

func (s *stubPipeline) ForceRecreateIndex(_ context.Context) bool { return true }

type stubRecorder struct{}

func (stubRecorder) SaveQueryHistory(
	_ context.Context, _ *models.QueryRequest, _ *models.QueryResponse, _ *int, _ bool, _ *string,
) *uuid.UUID {
	id := uuid.New()
	return &id
}

type stubLoader struct{}

func (stubLoader) LoadDirectory(_ string) ([]*models.Document, error) {
	return []*models.Document{}, nil
}

type stubHistoryRepo struct {
	queries []*historymodels.QueryHistory
}

func (s *stubHistoryRepo) CreateQueryHistory(
	_ context.Context, params historyrepo.CreateQueryHistoryParams,
) (*historymodels.QueryHistory, error) {
	return &historymodels.QueryHistory{ID: uuid.New(), Query: params.Query, CreatedAt: time.Now().UTC()}, nil
}

func (s *stubHistoryRepo) CreateSourceDocumentHistory(
	_ context.Context, queryID uuid.UUID, _ string, _ float64, _ *models.DocumentMetadata,
) (*historymodels.SourceDocumentHistory, error) {
	return &historymodels.SourceDocumentHistory{ID: uuid.New(), QueryID: queryID}, nil
}

func (s *stubHistoryRepo) GetQueryHistoryPaginated(_ context.Context, limit, offset int) (*historymodels.QueryHistoryList, error) {
	return &historymodels.QueryHistoryList{
		Items:      s.queries,
		TotalCount: len(s.queries),
		Limit:      limit,
		Offset:     offset,
	}, nil
}

func (s *stubHistoryRepo) GetQueryHistoryByID(_ context.Context, queryID uuid.UUID) (*historymodels.QueryHistory, error) {
	for _, record := range s.queries {
		if record.ID == queryID {
			return record, nil
		}
	}
	return nil, historyrepo.ErrQueryNotFound
}

func (s *stubHistoryRepo) GetSourceDocumentsByQueryID(_ context.Context, _ uuid.UUID) ([]*historymodels.SourceDocumentHistory, error) {
	return []*historymodels.SourceDocumentHistory{}, nil
}

func (s *stubHistoryRepo) GetTotalQueryCount(_ context.Context) (int, error) { return len(s.queries), nil }

func (s *stubHistoryRepo) GetSuccessfulQueryCount(_ context.Context) (int, error) {
	return len(s.queries), nil
}

func (s *stubHistoryRepo) GetQueriesWithResponseTime(_ context.Context) ([]*historymodels.QueryHistory, error) {
	return nil, nil
}

func newTestServer(t *testing.T, pipeline *stubPipeline, historyRepo *stubHistoryRepo) http.Handler {
	t.Helper()
	rag := ragservices.NewRAGService(pipeline, stubRecorder{}, stubLoader{})
	history := historyservices.NewHistoryService(historyRepo)
	return New(rag, history, t.TempDir()).Handler()
}

func TestHandleQuery(t *testing.T) {
	pipeline := &stubPipeline{
		response: &models.QueryResponse{
			ChatResponse:    "Leg before wicket.",
			SourceDocuments: []models.SourceDocument{},
		},
	}
	handler := newTestServer(t, pipeline, &stubHistoryRepo{})

	tests := []struct {
		name        string
		body        string
		status      int
		description string
	}{
		{
			name:        "valid query",
			body:        `{"query": "What is lbw?", "top_k": 3}`,
			status:      http.StatusOK,
			description: "should answer a well-formed query",
		},
		{
			name:        "defaulted top_k",
			body:        `{"query": "What is lbw?"}`,
			status:      http.StatusOK,
			description: "should default a missing top_k",
		},
		{
			name:        "empty query",
			body:        `{"query": ""}`,
			status:      http.StatusBadRequest,
			description: "should reject an empty query",
		},
		{
			name:        "negative top_k",
			body:        `{"query": "What is lbw?", "top_k": -1}`,
			status:      http.StatusBadRequest,
			description: "should reject negative top_k",
		},
		{
			name:        "malformed body",
			body:        `{"query": `,
			status:      http.StatusBadRequest,
			description: "should reject malformed JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/rag/query", bytes.NewBufferString(tt.body))
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			if recorder.Code != tt.status {
				t.Errorf("Expected status %d, got %d (%s)", tt.status, recorder.Code, tt.description)
			}
			if tt.status == http.StatusOK {
				var response models.QueryResponse
				if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if response.ChatResponse != "Leg before wicket." {
					t.Errorf("Unexpected answer: %q", response.ChatResponse)
				}
			}
		})
	}
}

func TestHandleQueryHistory_LimitClamping(t *testing.T) {
	handler := newTestServer(t, &stubPipeline{}, &stubHistoryRepo{})

	tests := []struct {
		name          string
		url           string
		expectedLimit int
		description   string
	}{
		{
			name:          "default limit",
			url:           "/history/queries",
			expectedLimit: 10,
			description:   "should fall back to the default window",
		},
		{
			name:          "oversized limit",
			url:           "/history/queries?limit=500",
			expectedLimit: 100,
			description:   "should clamp the limit to the maximum",
		},
		{
			name:          "zero limit",
			url:           "/history/queries?limit=0",
			expectedLimit: 1,
			description:   "should raise the limit to the minimum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, tt.url, nil)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			if recorder.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", recorder.Code)
			}
			var list historymodels.QueryHistoryList
			if err := json.NewDecoder(recorder.Body).Decode(&list); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if list.Limit != tt.expectedLimit {
				t.Errorf("Expected limit %d, got %d (%s)", tt.expectedLimit, list.Limit, tt.description)
			}
		})
	}
}

func TestHandleQueryByID(t *testing.T) {
	record := &historymodels.QueryHistory{ID: uuid.New(), Query: "What is lbw?"}
	handler := newTestServer(t, &stubPipeline{}, &stubHistoryRepo{queries: []*historymodels.QueryHistory{record}})

	t.Run("found", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/history/queries/"+record.ID.String(), nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if recorder.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", recorder.Code)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/history/queries/"+uuid.NewString(), nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if recorder.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", recorder.Code)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/history/queries/not-a-uuid", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", recorder.Code)
		}
	})
}

func TestHandleDocumentCount(t *testing.T) {
	handler := newTestServer(t, &stubPipeline{count: 42}, &stubHistoryRepo{})

	request := httptest.NewRequest(http.MethodGet, "/rag/documents/count", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if payload["document_count"] != float64(42) {
		t.Errorf("Expected document_count 42, got %v", payload["document_count"])
	}
}

func TestHandleFileDownload(t *testing.T) {
	rag := ragservices.NewRAGService(&stubPipeline{}, stubRecorder{}, stubLoader{})
	history := historyservices.NewHistoryService(&stubHistoryRepo{})

	dataFolder := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataFolder, "laws.txt"), []byte("Law 1."), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	handler := New(rag, history, dataFolder).Handler()

	t.Run("existing file", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/files/download/laws.txt", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if recorder.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", recorder.Code)
		}
		if recorder.Body.String() != "Law 1." {
			t.Errorf("Unexpected body: %q", recorder.Body.String())
		}
	})

	t.Run("unsafe filename", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/files/download/laws%7Ctxt", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", recorder.Code)
		}
	})
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		safe     bool
	}{
		{name: "plain name", filename: "laws.txt", safe: true},
		{name: "underscores and dashes", filename: "mcc_laws-2017.pdf", safe: true},
		{name: "path separator", filename: "sub/laws.txt", safe: false},
		{name: "space", filename: "the laws.txt", safe: false},
		{name: "empty", filename: "", safe: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safeFilename.MatchString(tt.filename); got != tt.safe {
				t.Errorf("safeFilename(%q) = %v, want %v", tt.filename, got, tt.safe)
			}
		})
	}
}
