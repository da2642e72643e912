package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

type MockRetrievalService struct {
	mock.Mock
}

func (m *MockRetrievalService) Retrieve(ctx context.Context, input service.RetrieveInput) ([]*service.SearchCandidate, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*service.SearchCandidate), args.Error(1)
}

type MockSuggestionService struct {
	mock.Mock
}

func (m *MockSuggestionService) SuggestAlternatives(ctx context.Context, input service.SuggestInput) ([]*service.Suggestion, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*service.Suggestion), args.Error(1)
}

type MockSchemeService struct {
	mock.Mock
}

func (m *MockSchemeService) List(ctx context.Context, activeOnly bool) ([]*domain.Scheme, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Scheme), args.Error(1)
}

func (m *MockSchemeService) Get(ctx context.Context, id string) (*domain.Scheme, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scheme), args.Error(1)
}

func (m *MockSchemeService) Rename(ctx context.Context, id, name string) (*domain.Scheme, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scheme), args.Error(1)
}

func (m *MockSchemeService) SetActive(ctx context.Context, id string, active bool) (*domain.Scheme, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scheme), args.Error(1)
}

func (m *MockSchemeService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockIngestionJobService struct {
	mock.Mock
}

func (m *MockIngestionJobService) Enqueue(ctx context.Context, input service.EnqueueIngestionInput) (*domain.IngestionJob, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionJob), args.Error(1)
}

func (m *MockIngestionJobService) Get(ctx context.Context, id string) (*domain.IngestionJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionJob), args.Error(1)
}

type MockUploadURLSigner struct {
	mock.Mock
}

func (m *MockUploadURLSigner) GenerateUploadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestRetrievalHandler_Retrieve_Success(t *testing.T) {
	mockSvc := new(MockRetrievalService)
	handler := NewRetrievalHandler(mockSvc)
	lambda := 0.7

	mockSvc.On("Retrieve", mock.Anything, service.RetrieveInput{
		QueryText: "land holding limit",
		SchemeID:  "s1",
		Limit:     3,
		Lambda:    &lambda,
	}).Return([]*service.SearchCandidate{{
		Chunk: domain.Chunk{
			ID: "c1", SchemeID: "s1", SchemeName: "PM-KISAN", Content: "Up to 2 hectares.",
			Metadata: domain.ChunkMetadata{PageNumber: 2, Section: "Eligibility Criteria", ParagraphNumber: 1},
		},
		Score: 1.1, SemanticScore: 0.8, LexicalScore: 0.1,
	}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/retrieve", jsonBody(t, map[string]any{
		"query": "land holding limit", "scheme_id": " s1 ", "limit": 3, "lambda": 0.7,
	}))
	w := httptest.NewRecorder()
	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	results := decodeData(t, w)["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "c1", first["chunk_id"])
	assert.Equal(t, "Eligibility Criteria", first["section"])
	assert.Equal(t, 1.1, first["score"])
	mockSvc.AssertExpectations(t)
}

func TestRetrievalHandler_Retrieve_EmptyResultIsOK(t *testing.T) {
	mockSvc := new(MockRetrievalService)
	mockSvc.On("Retrieve", mock.Anything, mock.Anything).Return([]*service.SearchCandidate{}, nil)

	w := httptest.NewRecorder()
	NewRetrievalHandler(mockSvc).Retrieve(w, httptest.NewRequest(http.MethodPost, "/retrieve", jsonBody(t, map[string]any{"query": "tractor"})))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData(t, w)["results"])
}

func TestRetrievalHandler_Retrieve_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
	}{
		{"invalid json", `{`, nil, http.StatusBadRequest},
		{"blank query", `{"query":"  "}`, nil, http.StatusBadRequest},
		{"limit too large", `{"query":"x","limit":500}`, nil, http.StatusBadRequest},
		{"unknown scheme", `{"query":"x","scheme_id":"nope"}`, domain.ErrSchemeNotFound, http.StatusNotFound},
		{"index not configured", `{"query":"x"}`, domain.ErrSemanticIndexNotConfigured, http.StatusServiceUnavailable},
		{"store unavailable", `{"query":"x"}`, domain.NewTransientError("search", errors.New("reset")), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockRetrievalService)
			if tt.svcErr != nil {
				mockSvc.On("Retrieve", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}

			w := httptest.NewRecorder()
			NewRetrievalHandler(mockSvc).Retrieve(w, httptest.NewRequest(http.MethodPost, "/retrieve", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSuggestionHandler_Suggest(t *testing.T) {
	mockSvc := new(MockSuggestionService)
	handler := NewSuggestionHandler(mockSvc)

	mockSvc.On("SuggestAlternatives", mock.Anything, mock.MatchedBy(func(in service.SuggestInput) bool {
		return in.ExcludeSchemeID == "s1" && in.Profile.State == "Punjab" && in.CandidateLimit == 4
	})).Return([]*service.Suggestion{
		{SchemeID: "s2", SchemeName: "PMFBY", Eligible: true, Confidence: 0.9, Reason: "Insures notified crops.", TopScore: 0.8},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/suggestions", jsonBody(t, map[string]any{
		"profile":           map[string]any{"state": "Punjab", "land_holding_hectares": 1.5},
		"exclude_scheme_id": "s1",
		"candidate_limit":   4,
	}))
	w := httptest.NewRecorder()
	handler.Suggest(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	suggestions := decodeData(t, w)["suggestions"].([]any)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "PMFBY", suggestions[0].(map[string]any)["scheme_name"])
	assert.Equal(t, true, suggestions[0].(map[string]any)["eligible"])
}

func TestSuggestionHandler_Suggest_Validation(t *testing.T) {
	mockSvc := new(MockSuggestionService)
	handler := NewSuggestionHandler(mockSvc)

	w := httptest.NewRecorder()
	handler.Suggest(w, httptest.NewRequest(http.MethodPost, "/suggestions", bytes.NewBufferString(`{"exclude_scheme_id":"s1"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockSvc.On("SuggestAlternatives", mock.Anything, mock.Anything).Return(nil, domain.ErrDecisionNotConfigured)
	w = httptest.NewRecorder()
	handler.Suggest(w, httptest.NewRequest(http.MethodPost, "/suggestions", bytes.NewBufferString(`{"profile":{"state":"Bihar"}}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSchemeHandler_List(t *testing.T) {
	mockSvc := new(MockSchemeService)
	handler := NewSchemeHandler(mockSvc)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mockSvc.On("List", mock.Anything, true).Return([]*domain.Scheme{
		{ID: "s1", Name: "PM-KISAN", Active: true, TotalChunks: 12, CreatedAt: now, UpdatedAt: now},
	}, nil)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/schemes?active=true", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []SchemeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 12, resp.Data[0].TotalChunks)
	assert.Equal(t, "2026-01-02T03:04:05Z", resp.Data[0].CreatedAt)

	w = httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/schemes?active=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchemeHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockSchemeService)
	mockSvc.On("Get", mock.Anything, "missing").Return(nil, domain.ErrSchemeNotFound)

	w := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/schemes/missing", nil), "id", "missing")
	NewSchemeHandler(mockSvc).Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchemeHandler_Update_RenameAndDeactivate(t *testing.T) {
	mockSvc := new(MockSchemeService)
	handler := NewSchemeHandler(mockSvc)

	mockSvc.On("Rename", mock.Anything, "s1", "PM-KISAN").Return(&domain.Scheme{ID: "s1", Name: "PM-KISAN", Active: true}, nil)
	mockSvc.On("SetActive", mock.Anything, "s1", false).Return(&domain.Scheme{ID: "s1", Name: "PM-KISAN", Active: false}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/schemes/s1", bytes.NewBufferString(`{"name":"PM-KISAN","active":false}`)), "id", "s1")
	w := httptest.NewRecorder()
	handler.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "PM-KISAN", data["name"])
	assert.Equal(t, false, data["active"])
	mockSvc.AssertExpectations(t)
}

func TestSchemeHandler_Update_Validation(t *testing.T) {
	mockSvc := new(MockSchemeService)
	handler := NewSchemeHandler(mockSvc)

	w := httptest.NewRecorder()
	handler.Update(w, withURLParam(httptest.NewRequest(http.MethodPatch, "/schemes/s1", bytes.NewBufferString(`{}`)), "id", "s1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockSvc.On("Rename", mock.Anything, "s1", "Taken").Return(nil, domain.ErrSchemeAlreadyExists)
	w = httptest.NewRecorder()
	handler.Update(w, withURLParam(httptest.NewRequest(http.MethodPatch, "/schemes/s1", bytes.NewBufferString(`{"name":"Taken"}`)), "id", "s1"))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSchemeHandler_Delete(t *testing.T) {
	mockSvc := new(MockSchemeService)
	mockSvc.On("Delete", mock.Anything, "s1").Return(nil)

	w := httptest.NewRecorder()
	NewSchemeHandler(mockSvc).Delete(w, withURLParam(httptest.NewRequest(http.MethodDelete, "/schemes/s1", nil), "id", "s1"))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestIngestionHandler_Create(t *testing.T) {
	mockSvc := new(MockIngestionJobService)
	handler := NewIngestionHandler(mockSvc, nil)
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mockSvc.On("Enqueue", mock.Anything, service.EnqueueIngestionInput{
		SchemeName: "PMFBY", Category: "insurance", DocumentKey: "documents/pmfby.json",
	}).Return(&domain.IngestionJob{
		ID: "job-1", SchemeName: "PMFBY", Category: "insurance", DocumentKey: "documents/pmfby.json",
		Status: domain.IngestionJobStatusPending, CreatedAt: created,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/ingestion-jobs", jsonBody(t, map[string]string{
		"scheme_name": "PMFBY", "category": "insurance", "document_key": "documents/pmfby.json",
	}))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "job-1", data["id"])
	assert.Equal(t, "pending", data["status"])
	assert.NotContains(t, data, "processed_at")
}

func TestIngestionHandler_Get(t *testing.T) {
	mockSvc := new(MockIngestionJobService)
	processed := time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC)
	mockSvc.On("Get", mock.Anything, "job-1").Return(&domain.IngestionJob{
		ID: "job-1", Status: domain.IngestionJobStatusFailed, Error: "document not found", ProcessedAt: &processed,
	}, nil)
	mockSvc.On("Get", mock.Anything, "job-2").Return(nil, domain.ErrIngestionJobNotFound)

	handler := NewIngestionHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	handler.Get(w, withURLParam(httptest.NewRequest(http.MethodGet, "/ingestion-jobs/job-1", nil), "id", "job-1"))
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "failed", data["status"])
	assert.Equal(t, "2026-03-01T00:05:00Z", data["processed_at"])

	w = httptest.NewRecorder()
	handler.Get(w, withURLParam(httptest.NewRequest(http.MethodGet, "/ingestion-jobs/job-2", nil), "id", "job-2"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngestionHandler_UploadURL(t *testing.T) {
	signer := new(MockUploadURLSigner)
	signer.On("GenerateUploadURL", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > len("documents/") && key[len(key)-len("/pmfby.json"):] == "/pmfby.json"
	})).Return("https://storage.example.com/upload", nil)

	handler := NewIngestionHandler(new(MockIngestionJobService), signer)

	w := httptest.NewRecorder()
	handler.UploadURL(w, httptest.NewRequest(http.MethodPost, "/documents/upload-url", bytes.NewBufferString(`{"filename":"../../pmfby.json"}`)))

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "https://storage.example.com/upload", data["upload_url"])
	assert.Contains(t, data["document_key"], "documents/")

	w = httptest.NewRecorder()
	NewIngestionHandler(new(MockIngestionJobService), nil).UploadURL(w, httptest.NewRequest(http.MethodPost, "/documents/upload-url", bytes.NewBufferString(`{"filename":"a.json"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
