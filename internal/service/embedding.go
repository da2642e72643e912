package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

const (
	// DefaultEmbeddingDimensions is the vector width of the chunk store.
	DefaultEmbeddingDimensions = 384
	// DefaultEmbeddingBatchSize is the number of texts sent to the model per request.
	DefaultEmbeddingBatchSize = 16
)

// EmbeddingModel is the loaded embedding resource.
type EmbeddingModel interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// ModelLoader performs the expensive model load. It runs at most once per
// successful initialization.
type ModelLoader func(ctx context.Context) (EmbeddingModel, error)

// EmbeddingConfig configures an EmbeddingGenerator.
type EmbeddingConfig struct {
	Dimensions int
	CacheSize  int
	BatchSize  int
}

// DefaultEmbeddingConfig returns the default embedding configuration.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Dimensions: DefaultEmbeddingDimensions,
		CacheSize:  DefaultEmbeddingCacheSize,
		BatchSize:  DefaultEmbeddingBatchSize,
	}
}

// EmbeddingGenerator turns text into unit-length vectors of a fixed width.
// It owns the model handle and the vector cache; Initialize and Close bracket
// their lifetime.
type EmbeddingGenerator struct {
	loader ModelLoader
	cfg    EmbeddingConfig
	cache  *EmbeddingCache
	logger zerolog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	model   EmbeddingModel
	initErr error
}

// NewEmbeddingGenerator creates a generator. The model is not loaded until
// Initialize or the first Embed call.
func NewEmbeddingGenerator(loader ModelLoader, cfg EmbeddingConfig, logger zerolog.Logger) *EmbeddingGenerator {
	defaults := DefaultEmbeddingConfig()
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaults.Dimensions
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaults.CacheSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	return &EmbeddingGenerator{
		loader: loader,
		cfg:    cfg,
		cache:  NewEmbeddingCache(cfg.CacheSize),
		logger: logger.With().Str("component", "embedding").Logger(),
	}
}

// Dimensions returns the configured vector width.
func (g *EmbeddingGenerator) Dimensions() int {
	return g.cfg.Dimensions
}

// CacheLen returns the number of cached vectors.
func (g *EmbeddingGenerator) CacheLen() int {
	return g.cache.Len()
}

// Initialize loads the model. Concurrent callers share one load; a failure is
// returned to every caller until Close.
func (g *EmbeddingGenerator) Initialize(ctx context.Context) error {
	_, err := g.ensureModel(ctx)
	return err
}

func (g *EmbeddingGenerator) ensureModel(ctx context.Context) (EmbeddingModel, error) {
	g.mu.RLock()
	model, initErr := g.model, g.initErr
	g.mu.RUnlock()
	if model != nil {
		return model, nil
	}
	if initErr != nil {
		return nil, initErr
	}

	v, err, shared := g.group.Do("init", func() (any, error) {
		g.mu.RLock()
		model, initErr := g.model, g.initErr
		g.mu.RUnlock()
		if model != nil {
			return model, nil
		}
		if initErr != nil {
			return nil, initErr
		}

		start := time.Now()
		// a cancelled first caller must not poison the shared load
		loaded, err := g.load(context.WithoutCancel(ctx))

		g.mu.Lock()
		defer g.mu.Unlock()
		if err != nil {
			g.initErr = domain.NewResourceInitError(err)
			g.logger.Error().Err(err).Msg("embedding model failed to initialize")
			return nil, g.initErr
		}
		g.model = loaded
		g.logger.Info().
			Int("dimensions", g.cfg.Dimensions).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("embedding model initialized")
		return loaded, nil
	})
	if shared {
		g.logger.Debug().Msg("joined in-flight embedding initialization")
	}
	if err != nil {
		return nil, err
	}
	return v.(EmbeddingModel), nil
}

func (g *EmbeddingGenerator) load(ctx context.Context) (EmbeddingModel, error) {
	if g.loader == nil {
		return nil, domain.ErrEmbeddingNotConfigured
	}
	model, err := g.loader(ctx)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, errors.New("embedding loader returned no model")
	}
	if dims := model.Dimensions(); dims > 0 && dims != g.cfg.Dimensions {
		return nil, domain.NewConfigurationError(
			fmt.Sprintf("model produces %d dimensions, store expects %d", dims, g.cfg.Dimensions),
			domain.ErrDimensionMismatch,
		)
	}
	return model, nil
}

// Embed returns the unit-normalized embedding of text.
func (g *EmbeddingGenerator) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}

	model, err := g.ensureModel(ctx)
	if err != nil {
		return nil, err
	}

	if cached, ok := g.cache.Get(text); ok {
		return cached, nil
	}

	vectors, err := g.embedWithModel(ctx, model, []string{text})
	if err != nil {
		return nil, err
	}

	g.cache.Put(text, vectors[0])
	return vectors[0], nil
}

// EmbedBatch embeds texts preserving order. Uncached texts are sent to the
// model in sequential sub-batches of BatchSize; each finishes before the next starts.
func (g *EmbeddingGenerator) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("text at index %d cannot be empty", i))
		}
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	model, err := g.ensureModel(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]float32, len(texts))
	positions := make(map[string][]int)
	var pending []string
	for i, text := range texts {
		if cached, ok := g.cache.Get(text); ok {
			results[i] = cached
			continue
		}
		if _, seen := positions[text]; !seen {
			pending = append(pending, text)
		}
		positions[text] = append(positions[text], i)
	}

	for start := 0; start < len(pending); start += g.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+g.cfg.BatchSize, len(pending))
		batch := pending[start:end]

		vectors, err := g.embedWithModel(ctx, model, batch)
		if err != nil {
			return nil, err
		}
		for j, text := range batch {
			g.cache.Put(text, vectors[j])
			for k, idx := range positions[text] {
				if k == 0 {
					results[idx] = vectors[j]
				} else {
					results[idx] = copyVector(vectors[j])
				}
			}
		}
	}

	return results, nil
}

func (g *EmbeddingGenerator) embedWithModel(ctx context.Context, model EmbeddingModel, texts []string) ([][]float32, error) {
	raw, err := model.EmbedTexts(ctx, texts)
	if err != nil {
		if domain.ErrorCode(err) != "" {
			return nil, err
		}
		return nil, domain.NewTransientError("embedding request failed", err)
	}
	if len(raw) != len(texts) {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError,
			fmt.Sprintf("embedding model returned %d vectors for %d texts", len(raw), len(texts)))
	}

	out := make([][]float32, len(raw))
	for i, v := range raw {
		if len(v) != g.cfg.Dimensions {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("model returned %d dimensions, store expects %d", len(v), g.cfg.Dimensions),
				domain.ErrDimensionMismatch,
			)
		}
		if vectorNorm(v) == 0 {
			return nil, domain.NewDomainError(domain.ErrCodeInternalError, "embedding model returned a zero vector")
		}
		out[i] = normalizeVector(v)
	}
	return out, nil
}

// Close releases the model, clears the cache and resets initialization so the
// next call loads the model again.
func (g *EmbeddingGenerator) Close() error {
	g.mu.Lock()
	model := g.model
	g.model = nil
	g.initErr = nil
	g.mu.Unlock()

	g.group.Forget("init")
	g.cache.Clear()

	if closer, ok := model.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
