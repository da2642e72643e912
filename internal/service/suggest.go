package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/telemetry"
)

const (
	DefaultSuggestCandidates = 5
	defaultPassagesPerScheme = 3
	maxSuggestions           = 3
	suggestConcurrency       = 4
)

// SchemeRegistry supplies scheme metadata.
type SchemeRegistry interface {
	ListActive(ctx context.Context) ([]*domain.Scheme, error)
	GetByID(ctx context.Context, id string) (*domain.Scheme, error)
}

// PassageRetriever retrieves ranked passages for a query.
type PassageRetriever interface {
	Retrieve(ctx context.Context, input RetrieveInput) ([]*SearchCandidate, error)
}

// Decider produces a grounded eligibility verdict for one scheme.
type Decider interface {
	Decide(ctx context.Context, profile *domain.FarmerProfile, scheme *domain.Scheme, passages []*SearchCandidate) (*domain.Determination, error)
}

// Suggestion is an alternative scheme proposed for a rejected profile.
type Suggestion struct {
	SchemeID   string
	SchemeName string
	Category   string
	Eligible   bool
	Confidence float64
	Reason     string
	TopScore   float64
	Passages   []*SearchCandidate
}

// SuggestInput describes one suggestion request. ProfileQuery overrides the
// query derived from Profile when set.
type SuggestInput struct {
	Profile         *domain.FarmerProfile
	ProfileQuery    string
	ExcludeSchemeID string
	CandidateLimit  int
}

// Suggester evaluates other active schemes for a profile rejected by its target scheme.
type Suggester struct {
	registry  SchemeRegistry
	retriever PassageRetriever
	embedder  QueryEmbedder
	decider   Decider
	logger    zerolog.Logger

	candidateLimit int
}

// NewSuggester creates a Suggester. candidateLimit <= 0 uses the default of 5.
func NewSuggester(registry SchemeRegistry, retriever PassageRetriever, embedder QueryEmbedder, decider Decider, candidateLimit int, logger zerolog.Logger) *Suggester {
	if candidateLimit <= 0 {
		candidateLimit = DefaultSuggestCandidates
	}
	return &Suggester{
		registry:       registry,
		retriever:      retriever,
		embedder:       embedder,
		decider:        decider,
		candidateLimit: candidateLimit,
		logger:         logger.With().Str("component", "suggester").Logger(),
	}
}

// SuggestAlternatives returns up to three schemes ranked eligible first, then by
// top passage score. A failure on one candidate scheme skips that scheme only.
func (s *Suggester) SuggestAlternatives(ctx context.Context, input SuggestInput) ([]*Suggestion, error) {
	if s.decider == nil {
		return nil, domain.ErrDecisionNotConfigured
	}

	query := strings.TrimSpace(input.ProfileQuery)
	if query == "" {
		query = BuildProfileQuery(input.Profile)
	}
	if query == "" {
		return nil, domain.NewValidationError("profile or profile query is required")
	}

	ctx, span := telemetry.StartSpan(ctx, "suggest.alternatives", telemetry.SpanAttributes{
		SchemeID:  input.ExcludeSchemeID,
		Operation: "suggest_alternatives",
	})
	defer span.End()

	start := time.Now()

	if input.ExcludeSchemeID != "" {
		if _, err := s.registry.GetByID(ctx, input.ExcludeSchemeID); err != nil {
			span.SetError(err)
			return nil, err
		}
	}

	schemes, err := s.registry.ListActive(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	limit := input.CandidateLimit
	if limit <= 0 {
		limit = s.candidateLimit
	}
	candidates := make([]*domain.Scheme, 0, limit)
	for _, scheme := range schemes {
		if len(candidates) == limit {
			break
		}
		if scheme == nil || scheme.ID == input.ExcludeSchemeID {
			continue
		}
		candidates = append(candidates, scheme)
	}
	if len(candidates) == 0 {
		return []*Suggestion{}, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	profile := input.Profile
	if profile == nil {
		profile = &domain.FarmerProfile{}
	}

	evaluated := make([]*Suggestion, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(suggestConcurrency)
	for i, scheme := range candidates {
		g.Go(func() error {
			suggestion, err := s.evaluate(gctx, profile, scheme, query, vector)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("scheme_id", scheme.ID).
					Str("scheme_name", scheme.Name).
					Msg("skipping candidate scheme")
				return nil
			}
			evaluated[i] = suggestion
			return nil
		})
	}
	_ = g.Wait()

	suggestions := make([]*Suggestion, 0, len(evaluated))
	for _, suggestion := range evaluated {
		if suggestion != nil {
			suggestions = append(suggestions, suggestion)
		}
	}
	rankSuggestions(suggestions)
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	s.logger.Info().
		Str("exclude_scheme_id", input.ExcludeSchemeID).
		Int("candidates", len(candidates)).
		Int("suggestions", len(suggestions)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("alternative suggestions computed")

	return suggestions, nil
}

func (s *Suggester) evaluate(ctx context.Context, profile *domain.FarmerProfile, scheme *domain.Scheme, query string, vector []float32) (*Suggestion, error) {
	passages, err := s.retriever.Retrieve(ctx, RetrieveInput{
		QueryText:   query,
		QueryVector: vector,
		SchemeID:    scheme.ID,
		Limit:       defaultPassagesPerScheme,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", err)
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("no passages to ground a decision")
	}

	determination, err := s.decider.Decide(ctx, profile, scheme, passages)
	if err != nil {
		return nil, fmt.Errorf("decide eligibility: %w", err)
	}
	if determination == nil {
		return nil, fmt.Errorf("decide eligibility: empty determination")
	}

	return &Suggestion{
		SchemeID:   scheme.ID,
		SchemeName: scheme.Name,
		Category:   scheme.Category,
		Eligible:   determination.Eligible,
		Confidence: determination.Score,
		Reason:     determination.Reason,
		TopScore:   passages[0].Score,
		Passages:   passages,
	}, nil
}

func rankSuggestions(suggestions []*Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Eligible != b.Eligible {
			return a.Eligible
		}
		if a.TopScore != b.TopScore {
			return a.TopScore > b.TopScore
		}
		return a.SchemeName < b.SchemeName
	})
}

// BuildProfileQuery turns a profile into a synthetic retrieval query.
func BuildProfileQuery(p *domain.FarmerProfile) string {
	if p == nil {
		return ""
	}

	var parts []string
	switch {
	case p.District != "" && p.State != "":
		parts = append(parts, fmt.Sprintf("from %s district, %s", p.District, p.State))
	case p.State != "":
		parts = append(parts, fmt.Sprintf("from %s", p.State))
	}
	if p.LandHoldingHectares > 0 {
		parts = append(parts, fmt.Sprintf("land holding %s hectares", formatAmount(p.LandHoldingHectares)))
	}
	if p.AnnualIncome > 0 {
		parts = append(parts, fmt.Sprintf("annual income %s rupees", formatAmount(p.AnnualIncome)))
	}
	if len(p.Crops) > 0 {
		parts = append(parts, "growing "+strings.Join(p.Crops, ", "))
	}
	if p.IrrigationType != "" {
		parts = append(parts, p.IrrigationType+" irrigation")
	}
	if p.Age > 0 {
		parts = append(parts, fmt.Sprintf("age %d", p.Age))
	}
	if p.Gender != "" {
		parts = append(parts, p.Gender)
	}
	if len(parts) == 0 && p.Category == "" {
		return ""
	}

	subject := "farmer"
	if p.Category != "" {
		subject = p.Category + " farmer"
	}
	return "Eligibility criteria and benefits for a " + strings.Join(append([]string{subject}, parts...), ", ")
}

func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
