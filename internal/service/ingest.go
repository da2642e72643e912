package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/telemetry"
)

// BatchEmbedder embeds passages in order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentSource loads an extracted document by key.
type DocumentSource interface {
	Load(ctx context.Context, key string) (*domain.ExtractedDocument, error)
}

// IngestInput describes one document to ingest.
type IngestInput struct {
	SchemeName  string
	Category    string
	Description string
	Document    *domain.ExtractedDocument
	ChunkSize   int
	// Overlap overrides the configured overlap when set; 0 is a valid override.
	Overlap *int
}

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	SchemeID   string
	SchemeName string
	Chunks     int
	Created    bool
}

// IngestionService segments, embeds and stores scheme documents.
type IngestionService struct {
	tx       TxRunner
	embedder BatchEmbedder
	segment  SegmentConfig
	uuidGen  UUIDGenerator
	now      func() time.Time
	logger   zerolog.Logger
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(tx TxRunner, embedder BatchEmbedder, segment SegmentConfig, logger zerolog.Logger) *IngestionService {
	return NewIngestionServiceWithUUIDGen(tx, embedder, segment, &DefaultUUIDGenerator{}, logger)
}

// NewIngestionServiceWithUUIDGen creates an IngestionService with a custom ID generator
func NewIngestionServiceWithUUIDGen(tx TxRunner, embedder BatchEmbedder, segment SegmentConfig, uuidGen UUIDGenerator, logger zerolog.Logger) *IngestionService {
	return &IngestionService{
		tx:       tx,
		embedder: embedder,
		segment:  segment,
		uuidGen:  uuidGen,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("component", "ingestion").Logger(),
	}
}

// Ingest replaces the chunks of the named scheme with the segmented document,
// creating the scheme when it does not exist yet.
func (s *IngestionService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	name := strings.TrimSpace(input.SchemeName)
	if name == "" {
		return nil, domain.NewValidationError("scheme name is required")
	}
	if input.Document == nil || strings.TrimSpace(input.Document.Text) == "" {
		return nil, domain.ErrEmptyText
	}

	ctx, span := telemetry.StartSpan(ctx, "ingestion.ingest", telemetry.SpanAttributes{Operation: "ingest"})
	defer span.End()

	start := time.Now()

	cfg := s.segment
	if input.ChunkSize > 0 {
		cfg.ChunkSize = input.ChunkSize
	}
	if input.Overlap != nil {
		if *input.Overlap < 0 || *input.Overlap >= cfg.ChunkSize {
			return nil, domain.NewValidationError("overlap must be in [0, chunk size)")
		}
		cfg.Overlap = *input.Overlap
	}
	cfg.PageCount = input.Document.EffectivePageCount()
	cfg.DocumentPath = input.Document.Path

	segments := SegmentDocument(input.Document.Text, input.Document.Pages, cfg)
	if len(segments) == 0 {
		return nil, domain.ErrEmptyText
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	result := &IngestResult{SchemeName: name, Chunks: len(segments)}
	now := s.now()

	err = s.tx.WithTx(ctx, func(repos TxRepositories) error {
		scheme, err := repos.Schemes().GetByName(ctx, name)
		switch {
		case errors.Is(err, domain.ErrSchemeNotFound):
			scheme = domain.NewScheme(s.uuidGen.NewString(), name, input.Category, input.Description, now)
			if err := domain.ValidateScheme(scheme); err != nil {
				return domain.NewValidationError(err.Error())
			}
			if err := repos.Schemes().Create(ctx, scheme); err != nil {
				return err
			}
			result.Created = true
		case err != nil:
			return err
		}
		result.SchemeID = scheme.ID

		chunks := make([]domain.Chunk, len(segments))
		for i, seg := range segments {
			chunks[i] = domain.Chunk{
				ID:         s.uuidGen.NewString(),
				SchemeID:   scheme.ID,
				SchemeName: scheme.Name,
				ChunkIndex: seg.Index,
				Content:    seg.Content,
				Embedding:  vectors[i],
				Metadata:   seg.Metadata.WithDefaults(),
				CreatedAt:  now,
			}
		}

		if err := repos.Chunks().ReplaceChunks(ctx, scheme.ID, chunks); err != nil {
			return err
		}
		return repos.Schemes().SetTotalChunks(ctx, scheme.ID, len(chunks))
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	span.SetData("chunks", result.Chunks)
	s.logger.Info().
		Str("scheme_id", result.SchemeID).
		Str("scheme_name", name).
		Int("chunks", result.Chunks).
		Bool("created", result.Created).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("document ingested")

	return result, nil
}
