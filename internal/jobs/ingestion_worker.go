package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/telemetry"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3

	claimBatchSize = 10
)

// IngestionJobRepository defines the interface for ingestion job persistence
type IngestionJobRepository interface {
	// ClaimPending retrieves and claims pending ingestion jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestionJob, error)

	// UpdateStatus updates the status of an ingestion job
	UpdateStatus(ctx context.Context, jobID string, status domain.IngestionJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error
}

// Ingester ingests one extracted document into the corpus
type Ingester interface {
	Ingest(ctx context.Context, input service.IngestInput) (*service.IngestResult, error)
}

// IngestionWorker processes queued document ingestion jobs
type IngestionWorker struct {
	repo     IngestionJobRepository
	source   service.DocumentSource
	ingester Ingester
	logger   zerolog.Logger
}

// NewIngestionWorker creates a new IngestionWorker instance
func NewIngestionWorker(repo IngestionJobRepository, source service.DocumentSource, ingester Ingester, logger zerolog.Logger) *IngestionWorker {
	return &IngestionWorker{
		repo:     repo,
		source:   source,
		ingester: ingester,
		logger:   logger.With().Str("component", "ingestion_worker").Logger(),
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestionWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	w.logger.Info().Int("count", len(jobs)).Msg("processing pending ingestion jobs")

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("error processing job")
		}
	}

	return nil
}

func (w *IngestionWorker) processJob(ctx context.Context, job *domain.IngestionJob) error {
	ctx, span := telemetry.StartTransaction(ctx, "ingestion.job", "job.ingest")
	defer span.End()
	span.SetData("job_id", job.ID)

	w.logger.Info().
		Str("job_id", job.ID).
		Str("scheme", job.SchemeName).
		Str("document_key", job.DocumentKey).
		Msg("processing ingestion job")

	doc, err := w.source.Load(ctx, job.DocumentKey)
	if err == nil {
		_, err = w.ingester.Ingest(ctx, service.IngestInput{
			SchemeName: job.SchemeName,
			Category:   job.Category,
			Document:   doc,
		})
	}
	if err != nil {
		span.SetError(err)
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	w.logger.Info().Str("job_id", job.ID).Msg("ingestion job completed")
	return nil
}

// handleJobFailure retries transient failures up to MaxRetries and fails
// everything else immediately.
func (w *IngestionWorker) handleJobFailure(ctx context.Context, job *domain.IngestionJob, jobErr error) error {
	w.logger.Warn().Err(jobErr).Str("job_id", job.ID).Str("code", domain.ErrorCode(jobErr)).Msg("ingestion job failed")

	if !domain.IsRetryable(jobErr) {
		telemetry.CaptureError(ctx, jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusFailed, jobErr.Error()); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		w.logger.Error().Str("job_id", job.ID).Int("max_retries", MaxRetries).Msg("job exceeded max retries, marking as failed")
		telemetry.CaptureError(ctx, jobErr)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	w.logger.Info().Str("job_id", job.ID).Int32("attempt", job.Retries+1).Int("max_retries", MaxRetries).Msg("job will be retried")
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
