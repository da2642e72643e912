package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

type testTxRepos struct {
	schemes       SchemeRepository
	chunks        ChunkRepository
	ingestionJobs IngestionJobRepository
}

func (t *testTxRepos) Schemes() SchemeRepository {
	return t.schemes
}

func (t *testTxRepos) Chunks() ChunkRepository {
	return t.chunks
}

func (t *testTxRepos) IngestionJobs() IngestionJobRepository {
	return t.ingestionJobs
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	return fn(t.repos)
}

// MockSchemeRepository mocks scheme persistence
type MockSchemeRepository struct {
	mock.Mock
}

func (m *MockSchemeRepository) Create(ctx context.Context, s *domain.Scheme) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSchemeRepository) GetByID(ctx context.Context, id string) (*domain.Scheme, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scheme), args.Error(1)
}

func (m *MockSchemeRepository) GetByName(ctx context.Context, name string) (*domain.Scheme, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scheme), args.Error(1)
}

func (m *MockSchemeRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Scheme, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Scheme), args.Error(1)
}

func (m *MockSchemeRepository) Rename(ctx context.Context, id, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockSchemeRepository) SetActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockSchemeRepository) SetTotalChunks(ctx context.Context, id string, total int) error {
	args := m.Called(ctx, id, total)
	return args.Error(0)
}

func (m *MockSchemeRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockChunkRepository mocks chunk writes
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) ReplaceChunks(ctx context.Context, schemeID string, chunks []domain.Chunk) error {
	args := m.Called(ctx, schemeID, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) RenameScheme(ctx context.Context, schemeID, name string) error {
	args := m.Called(ctx, schemeID, name)
	return args.Error(0)
}

// MockIngestionJobRepository mocks ingestion job persistence
type MockIngestionJobRepository struct {
	mock.Mock
}

func (m *MockIngestionJobRepository) Create(ctx context.Context, job *domain.IngestionJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockIngestionJobRepository) GetByID(ctx context.Context, id string) (*domain.IngestionJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionJob), args.Error(1)
}

// MockUUIDGenerator returns a fixed sequence of IDs
type MockUUIDGenerator struct {
	ids []string
	n   int
}

func (g *MockUUIDGenerator) NewString() string {
	if g.n < len(g.ids) {
		id := g.ids[g.n]
		g.n++
		return id
	}
	g.n++
	return "generated-id"
}
