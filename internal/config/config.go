package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// SchemaEmbeddingDimensions is the width of chunks.embedding in the migrations.
const SchemaEmbeddingDimensions = 384

// Config is read from SCHEMERAG_-prefixed environment variables, with a
// .env file in the working directory loaded first when present.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"384"`
	EmbeddingCacheSize  int    `envconfig:"EMBEDDING_CACHE_SIZE" default:"1000"`
	EmbeddingBatchSize  int    `envconfig:"EMBEDDING_BATCH_SIZE" default:"16"`
	DecisionModel       string `envconfig:"DECISION_MODEL" default:"gpt-4o-mini"`

	ChunkSize         int     `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap      int     `envconfig:"CHUNK_OVERLAP" default:"200"`
	RetrievalLimit    int     `envconfig:"RETRIEVAL_LIMIT" default:"8"`
	MMRLambda         float64 `envconfig:"MMR_LAMBDA" default:"0.5"`
	LexicalBoost      float64 `envconfig:"LEXICAL_BOOST" default:"1.0"`
	SuggestCandidates int     `envconfig:"SUGGEST_CANDIDATES" default:"5"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"scheme-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	IngestPollInterval time.Duration `envconfig:"INGEST_POLL_INTERVAL" default:"10s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SCHEMERAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects settings the retrieval pipeline cannot run with. It is
// called after command-line overrides are applied.
func (c *Config) Validate() error {
	var problems []string
	if c.EmbeddingDimensions <= 0 {
		problems = append(problems, "EMBEDDING_DIMENSIONS must be positive")
	}
	if c.ChunkSize <= 0 {
		problems = append(problems, "CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		problems = append(problems, "CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if c.MMRLambda < 0 || c.MMRLambda > 1 {
		problems = append(problems, "MMR_LAMBDA must be in [0, 1]")
	}
	if c.LexicalBoost <= 0 {
		problems = append(problems, "LEXICAL_BOOST must be positive")
	}
	if c.EmbeddingDimensions > 0 && c.EmbeddingDimensions != SchemaEmbeddingDimensions {
		problems = append(problems, fmt.Sprintf("EMBEDDING_DIMENSIONS must be %d to match the chunks.embedding column", SchemaEmbeddingDimensions))
	}
	if c.RetrievalLimit <= 0 {
		problems = append(problems, "RETRIEVAL_LIMIT must be positive")
	}
	if len(problems) == 0 {
		return nil
	}
	return domain.NewConfigurationError("invalid configuration", errors.New(strings.Join(problems, "; ")))
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
