package service

import (
	"context"
	"strings"
	"time"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// IngestionJobRepository defines the repository interface for ingestion job persistence
type IngestionJobRepository interface {
	Create(ctx context.Context, job *domain.IngestionJob) error
	GetByID(ctx context.Context, id string) (*domain.IngestionJob, error)
}

// EnqueueIngestionInput describes a document to ingest asynchronously.
type EnqueueIngestionInput struct {
	SchemeName  string
	Category    string
	DocumentKey string
}

// IngestionJobService queues documents for the background ingestion worker.
type IngestionJobService struct {
	repo    IngestionJobRepository
	uuidGen UUIDGenerator
}

// NewIngestionJobService creates a new IngestionJobService instance
func NewIngestionJobService(repo IngestionJobRepository) *IngestionJobService {
	return &IngestionJobService{repo: repo, uuidGen: &DefaultUUIDGenerator{}}
}

// NewIngestionJobServiceWithUUIDGen creates an IngestionJobService with a custom ID generator
func NewIngestionJobServiceWithUUIDGen(repo IngestionJobRepository, uuidGen UUIDGenerator) *IngestionJobService {
	return &IngestionJobService{repo: repo, uuidGen: uuidGen}
}

// Enqueue creates a pending ingestion job.
func (s *IngestionJobService) Enqueue(ctx context.Context, input EnqueueIngestionInput) (*domain.IngestionJob, error) {
	job := domain.NewIngestionJob(
		s.uuidGen.NewString(),
		strings.TrimSpace(input.SchemeName),
		strings.TrimSpace(input.Category),
		strings.TrimSpace(input.DocumentKey),
		time.Now().UTC(),
	)
	if err := domain.ValidateIngestionJob(job); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get returns an ingestion job by ID.
func (s *IngestionJobService) Get(ctx context.Context, id string) (*domain.IngestionJob, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrMissingRequiredField
	}
	return s.repo.GetByID(ctx, id)
}
