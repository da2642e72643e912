package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/config"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/database"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/openai"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/repository"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/storage"
)

const connectTimeout = 10 * time.Second

// app holds the wired services shared by every command.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool

	embedder  *service.EmbeddingGenerator
	schemes   *service.SchemeService
	retriever *service.Retriever
	suggester *service.Suggester
	ingester  *service.IngestionService
	jobs      *service.IngestionJobService
	jobRepo   *repository.IngestionJobRepository
	documents *storage.S3Client
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	pool, err := database.NewPool(ctx, database.Config{
		URL:            cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		ConnectTimeout: connectTimeout,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, pool: pool}

	openaiCfg := openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		DecisionModel:       cfg.DecisionModel,
	}
	a.embedder = service.NewEmbeddingGenerator(openai.NewModelLoader(openaiCfg), service.EmbeddingConfig{
		Dimensions: cfg.EmbeddingDimensions,
		CacheSize:  cfg.EmbeddingCacheSize,
		BatchSize:  cfg.EmbeddingBatchSize,
	}, logger)

	// the suggester reports ErrDecisionNotConfigured on a nil decider
	var decider service.Decider
	if cfg.HasOpenAI() {
		decider = openai.NewDecider(openai.NewAPIClient(openaiCfg), cfg.DecisionModel)
	}

	schemeRepo := repository.NewSchemeRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	txRunner := repository.NewTxRunner(pool)
	a.jobRepo = repository.NewIngestionJobRepository(pool)

	a.schemes = service.NewSchemeService(schemeRepo, txRunner, logger)
	a.retriever = service.NewRetriever(chunkRepo, a.schemes, a.embedder, service.RetrieverConfig{
		Limit:        cfg.RetrievalLimit,
		Lambda:       cfg.MMRLambda,
		LexicalBoost: cfg.LexicalBoost,
	}, logger)
	a.suggester = service.NewSuggester(a.schemes, a.retriever, a.embedder, decider, cfg.SuggestCandidates, logger)
	a.ingester = service.NewIngestionService(txRunner, a.embedder, service.SegmentConfig{
		ChunkSize: cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
	}, logger)
	a.jobs = service.NewIngestionJobService(a.jobRepo)

	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		a.documents = s3Client
	}

	return a, nil
}

// documentSource returns S3 when configured, otherwise the local directory root.
func (a *app) documentSource(root string) service.DocumentSource {
	if a.documents != nil {
		return a.documents
	}
	return storage.NewFileSource(root)
}

func (a *app) Close() {
	if err := a.embedder.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to release embedding model")
	}
	a.pool.Close()
}
