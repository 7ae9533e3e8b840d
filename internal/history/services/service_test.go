package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/omdiwan06/CricketRAG/internal/history/models"
	"github.com/omdiwan06/CricketRAG/internal/history/repository"
	ragmodels "github.com/omdiwan06/CricketRAG/internal/rag/models"

	"github.com/google/uuid"
)

type savedSourceDocument struct {
	queryID         uuid.UUID
	contentPreview  string
	similarityScore float64
	metadata        *ragmodels.DocumentMetadata
}

// fakeRepository is an in-memory stand-in for the ledger repository.
type fakeRepository struct {
	parentErr error
	childErr  error
	listErr   error
	countErr  error

	savedParents  []repository.CreateQueryHistoryParams
	savedChildren []savedSourceDocument

	queries []*models.QueryHistory
	timed   []*models.QueryHistory
	total   int
	success int
}

func (f *fakeRepository) CreateQueryHistory(
	_ context.Context, params repository.CreateQueryHistoryParams,
) (*models.QueryHistory, error) {
	if f.parentErr != nil {
		return nil, f.parentErr
	}
	f.savedParents = append(f.savedParents, params)
	return &models.QueryHistory{
		ID:                  uuid.New(),
		Query:               params.Query,
		ChatResponse:        params.ChatResponse,
		TopK:                params.TopK,
		ResponseTimeMs:      params.ResponseTimeMs,
		SourceDocumentCount: params.SourceDocumentCount,
		CreatedAt:           time.Now().UTC(),
		Success:             params.Success,
		ErrorMessage:        params.ErrorMessage,
	}, nil
}

func (f *fakeRepository) CreateSourceDocumentHistory(
	_ context.Context, queryID uuid.UUID, contentPreview string,
	similarityScore float64, metadata *ragmodels.DocumentMetadata,
) (*models.SourceDocumentHistory, error) {
	if f.childErr != nil {
		return nil, f.childErr
	}
	f.savedChildren = append(f.savedChildren, savedSourceDocument{
		queryID:         queryID,
		contentPreview:  contentPreview,
		similarityScore: similarityScore,
		metadata:        metadata,
	})
	return &models.SourceDocumentHistory{ID: uuid.New(), QueryID: queryID}, nil
}

func (f *fakeRepository) GetQueryHistoryPaginated(_ context.Context, limit, offset int) (*models.QueryHistoryList, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &models.QueryHistoryList{
		Items:      f.queries,
		TotalCount: len(f.queries),
		Limit:      limit,
		Offset:     offset,
	}, nil
}

func (f *fakeRepository) GetQueryHistoryByID(_ context.Context, queryID uuid.UUID) (*models.QueryHistory, error) {
	for _, record := range f.queries {
		if record.ID == queryID {
			return record, nil
		}
	}
	return nil, repository.ErrQueryNotFound
}

func (f *fakeRepository) GetSourceDocumentsByQueryID(_ context.Context, _ uuid.UUID) ([]*models.SourceDocumentHistory, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []*models.SourceDocumentHistory{}, nil
}

func (f *fakeRepository) GetTotalQueryCount(_ context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}

func (f *fakeRepository) GetSuccessfulQueryCount(_ context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.success, nil
}

func (f *fakeRepository) GetQueriesWithResponseTime(_ context.Context) ([]*models.QueryHistory, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.timed, nil
}

func intPtr(v int) *int { return &v }

func TestSaveQueryHistory_Success(t *testing.T) {
	repo := &fakeRepository{}
	service := NewHistoryService(repo)

	request := &ragmodels.QueryRequest{Query: "What is lbw?", TopK: 5}
	response := &ragmodels.QueryResponse{
		ChatResponse: "Leg before wicket.",
		SourceDocuments: []ragmodels.SourceDocument{
			{Content: "Law 36 covers lbw.", Score: 0.91, Metadata: ragmodels.DocumentMetadata{FileName: "laws.pdf"}},
			{Content: "The striker is out lbw.", Score: 0.85, Metadata: ragmodels.DocumentMetadata{FileName: "laws.pdf"}},
		},
	}

	queryID := service.SaveQueryHistory(context.Background(), request, response, intPtr(120), true, nil)
	if queryID == nil {
		t.Fatal("Expected a query id")
	}

	if len(repo.savedParents) != 1 {
		t.Fatalf("Expected 1 parent row, got %d", len(repo.savedParents))
	}
	parent := repo.savedParents[0]
	if parent.Query != "What is lbw?" || parent.TopK != 5 {
		t.Errorf("Unexpected parent row: %+v", parent)
	}
	if parent.SourceDocumentCount != 2 {
		t.Errorf("Expected source count 2, got %d", parent.SourceDocumentCount)
	}
	if !parent.Success {
		t.Error("Expected success flag set")
	}
	if parent.ResponseTimeMs == nil || *parent.ResponseTimeMs != 120 {
		t.Errorf("Expected response time 120, got %v", parent.ResponseTimeMs)
	}

	if len(repo.savedChildren) != 2 {
		t.Fatalf("Expected 2 child rows, got %d", len(repo.savedChildren))
	}
	for _, child := range repo.savedChildren {
		if child.queryID != *queryID {
			t.Errorf("Child row references %s, want %s", child.queryID, *queryID)
		}
	}
}

func TestSaveQueryHistory_FailedAttemptRecorded(t *testing.T) {
	repo := &fakeRepository{}
	service := NewHistoryService(repo)

	message := "similarity search failed"
	request := &ragmodels.QueryRequest{Query: "What is lbw?", TopK: 5}
	response := &ragmodels.QueryResponse{
		ChatResponse:    "Error processing query.",
		SourceDocuments: []ragmodels.SourceDocument{},
	}

	queryID := service.SaveQueryHistory(context.Background(), request, response, intPtr(40), false, &message)
	if queryID == nil {
		t.Fatal("Expected a query id for the failed attempt")
	}

	parent := repo.savedParents[0]
	if parent.Success {
		t.Error("Expected success flag unset")
	}
	if parent.ErrorMessage == nil || *parent.ErrorMessage != message {
		t.Errorf("Expected error message recorded, got %v", parent.ErrorMessage)
	}
	if len(repo.savedChildren) != 0 {
		t.Errorf("Expected no child rows, got %d", len(repo.savedChildren))
	}
}

func TestSaveQueryHistory_ParentFailureReturnsNil(t *testing.T) {
	repo := &fakeRepository{parentErr: errors.New("connection reset")}
	service := NewHistoryService(repo)

	request := &ragmodels.QueryRequest{Query: "q", TopK: 5}
	response := &ragmodels.QueryResponse{
		ChatResponse: "answer",
		SourceDocuments: []ragmodels.SourceDocument{
			{Content: "content", Score: 0.9},
		},
	}

	queryID := service.SaveQueryHistory(context.Background(), request, response, nil, true, nil)
	if queryID != nil {
		t.Errorf("Expected nil query id on parent failure, got %s", *queryID)
	}
	if len(repo.savedChildren) != 0 {
		t.Errorf("Expected no child rows after parent failure, got %d", len(repo.savedChildren))
	}
}

func TestSaveQueryHistory_ChildFailureStillReturnsID(t *testing.T) {
	repo := &fakeRepository{childErr: errors.New("constraint violation")}
	service := NewHistoryService(repo)

	request := &ragmodels.QueryRequest{Query: "q", TopK: 5}
	response := &ragmodels.QueryResponse{
		ChatResponse: "answer",
		SourceDocuments: []ragmodels.SourceDocument{
			{Content: "content", Score: 0.9},
		},
	}

	queryID := service.SaveQueryHistory(context.Background(), request, response, nil, true, nil)
	if queryID == nil {
		t.Error("Expected a query id despite child failures")
	}
}

func TestSaveQueryHistory_ContentPreviewTruncated(t *testing.T) {
	repo := &fakeRepository{}
	service := NewHistoryService(repo)

	longContent := strings.Repeat("a", contentPreviewLimit+200)
	request := &ragmodels.QueryRequest{Query: "q", TopK: 1}
	response := &ragmodels.QueryResponse{
		ChatResponse: "answer",
		SourceDocuments: []ragmodels.SourceDocument{
			{Content: longContent, Score: 0.9},
		},
	}

	service.SaveQueryHistory(context.Background(), request, response, nil, true, nil)

	if len(repo.savedChildren) != 1 {
		t.Fatalf("Expected 1 child row, got %d", len(repo.savedChildren))
	}
	preview := repo.savedChildren[0].contentPreview
	if len([]rune(preview)) != contentPreviewLimit {
		t.Errorf("Expected preview of %d characters, got %d", contentPreviewLimit, len([]rune(preview)))
	}
}

func TestGetQueryStatistics(t *testing.T) {
	tests := []struct {
		name            string
		total           int
		success         int
		responseTimes   []int
		expectedRate    float64
		expectedAverage *float64
		description     string
	}{
		{
			name:          "two thirds successful",
			total:         3,
			success:       2,
			responseTimes: []int{100, 200},
			expectedRate:  66.67,
			expectedAverage: func() *float64 {
				v := 150.0
				return &v
			}(),
			description: "should round the rate and average to two decimals",
		},
		{
			name:            "empty ledger",
			total:           0,
			success:         0,
			responseTimes:   nil,
			expectedRate:    0,
			expectedAverage: nil,
			description:     "should report zeros with no average",
		},
		{
			name:            "all successful no timings",
			total:           4,
			success:         4,
			responseTimes:   nil,
			expectedRate:    100,
			expectedAverage: nil,
			description:     "should omit the average when no row has a response time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepository{total: tt.total, success: tt.success}
			for _, ms := range tt.responseTimes {
				value := ms
				repo.timed = append(repo.timed, &models.QueryHistory{ResponseTimeMs: &value})
			}
			service := NewHistoryService(repo)

			statistics := service.GetQueryStatistics(context.Background())
			if statistics.TotalQueries != tt.total {
				t.Errorf("TotalQueries = %d, want %d", statistics.TotalQueries, tt.total)
			}
			if statistics.SuccessfulQueries != tt.success {
				t.Errorf("SuccessfulQueries = %d, want %d", statistics.SuccessfulQueries, tt.success)
			}
			if statistics.SuccessRatePercent != tt.expectedRate {
				t.Errorf("SuccessRatePercent = %v, want %v (%s)", statistics.SuccessRatePercent, tt.expectedRate, tt.description)
			}
			if (statistics.AverageResponseTimeMs == nil) != (tt.expectedAverage == nil) {
				t.Fatalf("AverageResponseTimeMs = %v, want %v (%s)", statistics.AverageResponseTimeMs, tt.expectedAverage, tt.description)
			}
			if statistics.AverageResponseTimeMs != nil && *statistics.AverageResponseTimeMs != *tt.expectedAverage {
				t.Errorf("AverageResponseTimeMs = %v, want %v (%s)", *statistics.AverageResponseTimeMs, *tt.expectedAverage, tt.description)
			}
		})
	}
}

func TestGetQueryStatistics_RepositoryError(t *testing.T) {
	repo := &fakeRepository{countErr: errors.New("connection reset")}
	service := NewHistoryService(repo)

	statistics := service.GetQueryStatistics(context.Background())
	if statistics.TotalQueries != 0 || statistics.SuccessfulQueries != 0 {
		t.Errorf("Expected zeroed statistics on error, got %+v", statistics)
	}
	if statistics.AverageResponseTimeMs != nil {
		t.Error("Expected no average on error")
	}
}

func TestGetQueryHistory_DegradesToEmptyList(t *testing.T) {
	repo := &fakeRepository{listErr: errors.New("connection reset")}
	service := NewHistoryService(repo)

	list := service.GetQueryHistory(context.Background(), 10, 0)
	if list == nil {
		t.Fatal("Expected non-nil list")
	}
	if len(list.Items) != 0 || list.TotalCount != 0 {
		t.Errorf("Expected empty page, got %+v", list)
	}
	if list.Limit != 10 || list.Offset != 0 {
		t.Errorf("Expected window echoed back, got limit=%d offset=%d", list.Limit, list.Offset)
	}
}

func TestGetQueryByID(t *testing.T) {
	record := &models.QueryHistory{ID: uuid.New(), Query: "What is lbw?"}
	repo := &fakeRepository{queries: []*models.QueryHistory{record}}
	service := NewHistoryService(repo)

	found := service.GetQueryByID(context.Background(), record.ID)
	if found == nil {
		t.Fatal("Expected the record to be found")
	}
	if found.Query != "What is lbw?" {
		t.Errorf("Unexpected record: %+v", found)
	}

	missing := service.GetQueryByID(context.Background(), uuid.New())
	if missing != nil {
		t.Errorf("Expected nil for unknown id, got %+v", missing)
	}
}
