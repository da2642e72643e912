package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/telemetry"
)

const (
	DefaultRetrievalLimit = 8
	DefaultLexicalBoost   = 1.0

	candidateMultiplier = 3
	minCandidates       = 30
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {}, "for": {}, "with": {}, "by": {},
	"in": {}, "on": {}, "at": {}, "from": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "it": {}, "this": {}, "that": {}, "these": {}, "those": {}, "we": {}, "our": {}, "you": {},
	"your": {}, "i": {}, "me": {}, "my": {}, "us": {}, "them": {}, "they": {}, "their": {}, "do": {},
	"does": {}, "did": {}, "what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "which": {}, "can": {},
	"could": {}, "should": {}, "would": {}, "may": {}, "might": {}, "will": {}, "shall": {}, "am": {},
}

// SearchCandidate is a chunk surfaced by retrieval with its per-path and fused scores.
type SearchCandidate struct {
	domain.Chunk
	SemanticScore float64
	LexicalScore  float64
	Score         float64
}

func (c *SearchCandidate) withoutEmbedding() *SearchCandidate {
	out := *c
	out.Embedding = nil
	return &out
}

// ChunkStore runs nearest-neighbour and full-text searches over stored chunks.
// An empty schemeID searches every scheme.
type ChunkStore interface {
	SearchSemantic(ctx context.Context, embedding []float32, schemeID string, limit int) ([]*SearchCandidate, error)
	SearchLexical(ctx context.Context, query string, schemeID string, limit int) ([]*SearchCandidate, error)
}

// SchemeLookup resolves a scheme by ID, returning domain.ErrSchemeNotFound when absent.
type SchemeLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Scheme, error)
}

// QueryEmbedder embeds query text.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RetrieverConfig holds ranking parameters.
type RetrieverConfig struct {
	Limit        int
	Lambda       float64
	LexicalBoost float64
}

// DefaultRetrieverConfig returns the default ranking parameters.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		Limit:        DefaultRetrievalLimit,
		Lambda:       DefaultMMRLambda,
		LexicalBoost: DefaultLexicalBoost,
	}
}

// RetrieveInput describes one retrieval. At least one of QueryText and
// QueryVector is required; a missing vector is computed from the text.
type RetrieveInput struct {
	QueryText   string
	QueryVector []float32
	SchemeID    string
	Limit       int
	Lambda      *float64
}

// Retriever fuses semantic and lexical search and diversifies the result.
type Retriever struct {
	store    ChunkStore
	schemes  SchemeLookup
	embedder QueryEmbedder
	cfg      RetrieverConfig
	logger   zerolog.Logger
}

// NewRetriever creates a Retriever. schemes may be nil to skip scope validation.
// A non-positive Limit or LexicalBoost falls back to its default; Lambda is
// only clamped since 0 is a meaningful setting.
func NewRetriever(store ChunkStore, schemes SchemeLookup, embedder QueryEmbedder, cfg RetrieverConfig, logger zerolog.Logger) *Retriever {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRetrievalLimit
	}
	if cfg.LexicalBoost <= 0 {
		cfg.LexicalBoost = DefaultLexicalBoost
	}
	cfg.Lambda = clampLambda(cfg.Lambda)
	return &Retriever{
		store:    store,
		schemes:  schemes,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With().Str("component", "retriever").Logger(),
	}
}

// Retrieve returns up to Limit diverse, relevance-ranked passages. An empty
// slice means nothing relevant was found.
func (r *Retriever) Retrieve(ctx context.Context, input RetrieveInput) ([]*SearchCandidate, error) {
	text := strings.TrimSpace(input.QueryText)
	if text == "" && len(input.QueryVector) == 0 {
		return nil, domain.ErrEmptyQuery
	}

	limit := input.Limit
	if limit <= 0 {
		limit = r.cfg.Limit
	}
	lambda := r.cfg.Lambda
	if input.Lambda != nil {
		lambda = clampLambda(*input.Lambda)
	}

	ctx, span := telemetry.StartSpan(ctx, "retrieval.retrieve", telemetry.SpanAttributes{
		SchemeID:  input.SchemeID,
		Operation: "retrieve",
	})
	defer span.End()

	start := time.Now()

	if input.SchemeID != "" && r.schemes != nil {
		if _, err := r.schemes.GetByID(ctx, input.SchemeID); err != nil {
			span.SetError(err)
			return nil, err
		}
	}

	vector := input.QueryVector
	if len(vector) == 0 {
		if r.embedder == nil {
			return nil, domain.ErrEmbeddingNotConfigured
		}
		embedded, err := r.embedder.Embed(ctx, text)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		vector = embedded
	}

	candidateLimit := max(candidateMultiplier*limit, minCandidates)

	var semantic, lexical []*SearchCandidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semantic, err = r.store.SearchSemantic(gctx, vector, input.SchemeID, candidateLimit)
		return err
	})
	if text != "" && keywordQuery(text) != "" {
		g.Go(func() error {
			var err error
			lexical, err = r.store.SearchLexical(gctx, text, input.SchemeID, candidateLimit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		r.logger.Warn().Err(err).Str("scheme_id", input.SchemeID).Msg("retrieval search failed")
		return nil, err
	}

	fused := fuseCandidates(semantic, lexical, r.cfg.LexicalBoost)
	results := Diversify(fused, limit, lambda)

	span.SetData("candidates", len(fused))
	r.logger.Debug().
		Str("scheme_id", input.SchemeID).
		Int("semantic", len(semantic)).
		Int("lexical", len(lexical)).
		Int("results", len(results)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("retrieval completed")

	return results, nil
}

// RetrieveText embeds text and retrieves passages for it.
func (r *Retriever) RetrieveText(ctx context.Context, text, schemeID string, limit int) ([]*SearchCandidate, error) {
	return r.Retrieve(ctx, RetrieveInput{QueryText: text, SchemeID: schemeID, Limit: limit})
}

// fuseCandidates merges both result lists by chunk ID keeping the higher
// of the semantic score and the boosted lexical score.
func fuseCandidates(semantic, lexical []*SearchCandidate, lexicalBoost float64) []*SearchCandidate {
	merged := make(map[string]*SearchCandidate, len(semantic)+len(lexical))

	for _, c := range semantic {
		if c == nil {
			continue
		}
		existing, ok := merged[c.ID]
		if !ok {
			cloned := *c
			cloned.Score = c.SemanticScore
			merged[c.ID] = &cloned
			continue
		}
		if c.SemanticScore > existing.SemanticScore {
			existing.SemanticScore = c.SemanticScore
			existing.Score = max(existing.Score, c.SemanticScore)
		}
	}

	for _, c := range lexical {
		if c == nil {
			continue
		}
		boosted := c.LexicalScore + lexicalBoost
		existing, ok := merged[c.ID]
		if !ok {
			cloned := *c
			cloned.Score = boosted
			merged[c.ID] = &cloned
			continue
		}
		existing.LexicalScore = max(existing.LexicalScore, c.LexicalScore)
		existing.Score = max(existing.Score, boosted)
		if existing.Embedding == nil && c.Embedding != nil {
			existing.Embedding = c.Embedding
		}
	}

	out := make([]*SearchCandidate, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// keywordQuery drops stopwords and punctuation, returning "" when nothing
// searchable remains.
func keywordQuery(query string) string {
	var tokens []string
	for _, token := range strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		clean := strings.ToLower(token)
		if _, ok := stopwords[clean]; ok {
			continue
		}
		tokens = append(tokens, clean)
	}
	return strings.Join(tokens, " ")
}
