package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// MockChunkStore mocks the chunk store
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) SearchSemantic(ctx context.Context, embedding []float32, schemeID string, limit int) ([]*SearchCandidate, error) {
	args := m.Called(ctx, embedding, schemeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SearchCandidate), args.Error(1)
}

func (m *MockChunkStore) SearchLexical(ctx context.Context, query string, schemeID string, limit int) ([]*SearchCandidate, error) {
	args := m.Called(ctx, query, schemeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SearchCandidate), args.Error(1)
}

// MockSchemeLookup mocks scheme lookups
type MockSchemeLookup struct {
	mock.Mock
}

func (m *MockSchemeLookup) GetByID(ctx context.Context, id string) (*domain.Scheme, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scheme), args.Error(1)
}

// MockQueryEmbedder mocks query embedding
type MockQueryEmbedder struct {
	mock.Mock
}

func (m *MockQueryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// memoryChunkStore scores chunks by cosine similarity and by a fixed lexical
// score for chunks containing every query keyword.
type memoryChunkStore struct {
	chunks []domain.Chunk
}

func (s *memoryChunkStore) SearchSemantic(_ context.Context, embedding []float32, schemeID string, limit int) ([]*SearchCandidate, error) {
	var out []*SearchCandidate
	for _, c := range s.chunks {
		if schemeID != "" && c.SchemeID != schemeID {
			continue
		}
		score := cosineSimilarity(embedding, c.Embedding)
		out = append(out, &SearchCandidate{Chunk: c, SemanticScore: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SemanticScore > out[j].SemanticScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryChunkStore) SearchLexical(_ context.Context, query string, schemeID string, limit int) ([]*SearchCandidate, error) {
	terms := strings.Fields(keywordQuery(query))
	var out []*SearchCandidate
	for _, c := range s.chunks {
		if schemeID != "" && c.SchemeID != schemeID {
			continue
		}
		content := strings.ToLower(c.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				matched++
			}
		}
		if matched == len(terms) && matched > 0 {
			out = append(out, &SearchCandidate{Chunk: c, LexicalScore: 0.1})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func unitAt(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos)), 0}
}

func landHoldingStore() *memoryChunkStore {
	semantic := []float64{0.82, 0.80, 0.78, 0.75, 0.72, 0.70, 0.66, 0.60, 0.55, 0.50}
	contents := []string{
		"Agricultural land ownership records are maintained by the revenue department.",
		"Small and marginal farmers whose land holding limit is up to 2 hectares are eligible.",
		"Farm size categories are defined by the agriculture census.",
		"Cultivable area includes fallow plots under the farmer's name.",
		"Tenant cultivators are covered under the state extension.",
		"Ownership is verified against the land records portal.",
		"Joint family holdings are assessed per member.",
		"Area under cultivation is reported each season.",
		"Plot boundaries follow the cadastral survey.",
		"Landless labourers are excluded from the benefit.",
	}
	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = domain.Chunk{
			ID:         fmt.Sprintf("chunk-%02d", i),
			SchemeID:   "pm-kisan",
			SchemeName: "PM-KISAN",
			ChunkIndex: i,
			Content:    content,
			Embedding:  unitAt(semantic[i]),
		}
	}
	return &memoryChunkStore{chunks: chunks}
}

func TestRetriever_LexicalMatchOutranksSemanticNearMiss(t *testing.T) {
	retriever := NewRetriever(landHoldingStore(), nil, nil, DefaultRetrieverConfig(), zerolog.Nop())

	results, err := retriever.Retrieve(context.Background(), RetrieveInput{
		QueryText:   "land holding limit",
		QueryVector: []float32{1, 0, 0},
		SchemeID:    "pm-kisan",
		Limit:       3,
	})

	require.NoError(t, err)
	require.Len(t, results, 3)
	top3 := ids(results)
	assert.Contains(t, top3, "chunk-01")
	assert.Equal(t, "chunk-01", results[0].ID)
	assert.InDelta(t, 1.1, results[0].Score, 1e-9)
	assert.InDelta(t, 0.80, results[0].SemanticScore, 1e-6)
	for _, r := range results {
		assert.Nil(t, r.Embedding)
	}
}

func TestRetriever_ZeroConfigKeepsLexicalBoost(t *testing.T) {
	retriever := NewRetriever(landHoldingStore(), nil, nil, RetrieverConfig{}, zerolog.Nop())

	results, err := retriever.Retrieve(context.Background(), RetrieveInput{
		QueryText:   "land holding limit",
		QueryVector: []float32{1, 0, 0},
		SchemeID:    "pm-kisan",
		Limit:       3,
	})

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "chunk-01", results[0].ID)
	assert.InDelta(t, 1.1, results[0].Score, 1e-9)
}

func TestRetriever_Idempotent(t *testing.T) {
	retriever := NewRetriever(landHoldingStore(), nil, nil, DefaultRetrieverConfig(), zerolog.Nop())
	input := RetrieveInput{QueryText: "land records", QueryVector: []float32{0.9, 0.4, 0.1}, Limit: 5}

	first, err := retriever.Retrieve(context.Background(), input)
	require.NoError(t, err)
	second, err := retriever.Retrieve(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRetriever_EmptyQuery(t *testing.T) {
	retriever := NewRetriever(new(MockChunkStore), nil, nil, DefaultRetrieverConfig(), zerolog.Nop())

	results, err := retriever.Retrieve(context.Background(), RetrieveInput{QueryText: "   "})

	assert.Nil(t, results)
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestRetriever_OverFetch(t *testing.T) {
	tests := []struct {
		limit    int
		expected int
	}{
		{0, 30},
		{8, 30},
		{10, 30},
		{20, 60},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit=%d", tt.limit), func(t *testing.T) {
			store := new(MockChunkStore)
			retriever := NewRetriever(store, nil, nil, DefaultRetrieverConfig(), zerolog.Nop())
			vec := []float32{1, 0}

			store.On("SearchSemantic", mock.Anything, vec, "", tt.expected).Return([]*SearchCandidate{}, nil)
			store.On("SearchLexical", mock.Anything, "subsidy", "", tt.expected).Return([]*SearchCandidate{}, nil)

			results, err := retriever.Retrieve(context.Background(), RetrieveInput{QueryText: "subsidy", QueryVector: vec, Limit: tt.limit})

			require.NoError(t, err)
			assert.Empty(t, results)
			assert.NotNil(t, results)
			store.AssertExpectations(t)
		})
	}
}

func TestRetriever_StopwordQuerySkipsLexical(t *testing.T) {
	store := new(MockChunkStore)
	retriever := NewRetriever(store, nil, nil, DefaultRetrieverConfig(), zerolog.Nop())
	vec := []float32{1, 0}

	store.On("SearchSemantic", mock.Anything, vec, "", 30).Return([]*SearchCandidate{
		{Chunk: domain.Chunk{ID: "c1", Embedding: vec}, SemanticScore: 0.7},
	}, nil)

	results, err := retriever.Retrieve(context.Background(), RetrieveInput{QueryText: "what is the ?", QueryVector: vec})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.7, results[0].Score, 1e-9)
	store.AssertNotCalled(t, "SearchLexical", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetriever_EmbedsMissingVector(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockQueryEmbedder)
	retriever := NewRetriever(store, nil, embedder, DefaultRetrieverConfig(), zerolog.Nop())
	vec := []float32{0, 1}

	embedder.On("Embed", mock.Anything, "drip irrigation subsidy").Return(vec, nil)
	store.On("SearchSemantic", mock.Anything, vec, "", 30).Return([]*SearchCandidate{}, nil)
	store.On("SearchLexical", mock.Anything, "drip irrigation subsidy", "", 30).Return([]*SearchCandidate{}, nil)

	_, err := retriever.RetrieveText(context.Background(), "  drip irrigation subsidy ", "", 0)

	require.NoError(t, err)
	embedder.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRetriever_EmbeddingFailurePropagates(t *testing.T) {
	embedder := new(MockQueryEmbedder)
	retriever := NewRetriever(new(MockChunkStore), nil, embedder, DefaultRetrieverConfig(), zerolog.Nop())
	initErr := domain.NewResourceInitError(errors.New("no model"))

	embedder.On("Embed", mock.Anything, "subsidy").Return(nil, initErr)

	_, err := retriever.RetrieveText(context.Background(), "subsidy", "", 0)

	assert.True(t, domain.IsCode(err, domain.ErrCodeResourceInit))
}

func TestRetriever_ErrorsKeepTheirClassification(t *testing.T) {
	tests := []struct {
		name         string
		semanticErr  error
		lexicalErr   error
		expectedCode string
	}{
		{
			name:         "semantic index missing",
			semanticErr:  domain.NewConfigurationError("semantic index is not configured", errors.New("42883")),
			expectedCode: domain.ErrCodeConfiguration,
		},
		{
			name:         "lexical timeout",
			lexicalErr:   domain.NewTransientError("lexical search failed", context.DeadlineExceeded),
			expectedCode: domain.ErrCodeTransientIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockChunkStore)
			retriever := NewRetriever(store, nil, nil, DefaultRetrieverConfig(), zerolog.Nop())
			vec := []float32{1, 0}

			if tt.semanticErr != nil {
				store.On("SearchSemantic", mock.Anything, vec, "", 30).Return(nil, tt.semanticErr)
			} else {
				store.On("SearchSemantic", mock.Anything, vec, "", 30).Return([]*SearchCandidate{}, nil)
			}
			if tt.lexicalErr != nil {
				store.On("SearchLexical", mock.Anything, "subsidy", "", 30).Return(nil, tt.lexicalErr)
			} else {
				store.On("SearchLexical", mock.Anything, "subsidy", "", 30).Return([]*SearchCandidate{}, nil)
			}

			results, err := retriever.Retrieve(context.Background(), RetrieveInput{QueryText: "subsidy", QueryVector: vec})

			assert.Nil(t, results)
			assert.Equal(t, tt.expectedCode, domain.ErrorCode(err))
		})
	}
}

func TestRetriever_UnknownScope(t *testing.T) {
	store := new(MockChunkStore)
	schemes := new(MockSchemeLookup)
	retriever := NewRetriever(store, schemes, nil, DefaultRetrieverConfig(), zerolog.Nop())

	schemes.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrSchemeNotFound)

	_, err := retriever.Retrieve(context.Background(), RetrieveInput{QueryText: "subsidy", QueryVector: []float32{1}, SchemeID: "missing"})

	assert.ErrorIs(t, err, domain.ErrSchemeNotFound)
	store.AssertNotCalled(t, "SearchSemantic", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFuseCandidates_MaxScoreAndDeterministicTies(t *testing.T) {
	semantic := []*SearchCandidate{
		{Chunk: domain.Chunk{ID: "b"}, SemanticScore: 0.9},
		{Chunk: domain.Chunk{ID: "a"}, SemanticScore: 0.9},
		{Chunk: domain.Chunk{ID: "c"}, SemanticScore: 0.4},
	}
	lexical := []*SearchCandidate{
		{Chunk: domain.Chunk{ID: "c"}, LexicalScore: 0.05},
		{Chunk: domain.Chunk{ID: "d"}, LexicalScore: 0.0},
	}

	fused := fuseCandidates(semantic, lexical, 1.0)

	require.Len(t, fused, 4)
	assert.Equal(t, []string{"c", "d", "a", "b"}, ids(fused))
	assert.InDelta(t, 1.05, fused[0].Score, 1e-9)
	assert.InDelta(t, 0.4, fused[0].SemanticScore, 1e-9)
	assert.InDelta(t, 0.05, fused[0].LexicalScore, 1e-9)
	assert.InDelta(t, 0.9, fused[2].Score, 1e-9)
}

func TestKeywordQuery(t *testing.T) {
	assert.Equal(t, "land holding limit", keywordQuery("What is the land-holding limit?"))
	assert.Equal(t, "", keywordQuery("what is the ?!"))
	assert.Equal(t, "pm kisan 2019", keywordQuery("PM-KISAN 2019"))
}
