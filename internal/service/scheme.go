package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// SchemeRepository defines the repository interface for scheme persistence
type SchemeRepository interface {
	Create(ctx context.Context, s *domain.Scheme) error
	GetByID(ctx context.Context, id string) (*domain.Scheme, error)
	GetByName(ctx context.Context, name string) (*domain.Scheme, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Scheme, error)
	Rename(ctx context.Context, id, name string) error
	SetActive(ctx context.Context, id string, active bool) error
	SetTotalChunks(ctx context.Context, id string, total int) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepository defines the bulk write side of the chunk store
type ChunkRepository interface {
	ReplaceChunks(ctx context.Context, schemeID string, chunks []domain.Chunk) error
	RenameScheme(ctx context.Context, schemeID, name string) error
}

// SchemeService administers the scheme lifecycle.
type SchemeService struct {
	repo   SchemeRepository
	tx     TxRunner
	logger zerolog.Logger
}

// NewSchemeService creates a new SchemeService instance
func NewSchemeService(repo SchemeRepository, tx TxRunner, logger zerolog.Logger) *SchemeService {
	return &SchemeService{
		repo:   repo,
		tx:     tx,
		logger: logger.With().Str("component", "schemes").Logger(),
	}
}

// Get returns a scheme by ID.
func (s *SchemeService) Get(ctx context.Context, id string) (*domain.Scheme, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrMissingRequiredField
	}
	return s.repo.GetByID(ctx, id)
}

// List returns all schemes, or only active ones.
func (s *SchemeService) List(ctx context.Context, activeOnly bool) ([]*domain.Scheme, error) {
	return s.repo.List(ctx, activeOnly)
}

// ListActive returns active schemes in name order.
func (s *SchemeService) ListActive(ctx context.Context) ([]*domain.Scheme, error) {
	return s.repo.List(ctx, true)
}

// GetByID implements SchemeLookup.
func (s *SchemeService) GetByID(ctx context.Context, id string) (*domain.Scheme, error) {
	return s.repo.GetByID(ctx, id)
}

// Rename changes a scheme's name and the denormalized name on its chunks in one transaction.
func (s *SchemeService) Rename(ctx context.Context, id, name string) (*domain.Scheme, error) {
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, domain.ErrMissingRequiredField
	}

	err := s.tx.WithTx(ctx, func(repos TxRepositories) error {
		if _, err := repos.Schemes().GetByID(ctx, id); err != nil {
			return err
		}
		if err := repos.Schemes().Rename(ctx, id, name); err != nil {
			return err
		}
		return repos.Chunks().RenameScheme(ctx, id, name)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("scheme_id", id).Str("scheme_name", name).Msg("scheme renamed")
	return s.repo.GetByID(ctx, id)
}

// SetActive activates or soft-deactivates a scheme.
func (s *SchemeService) SetActive(ctx context.Context, id string, active bool) (*domain.Scheme, error) {
	if id == "" {
		return nil, domain.ErrMissingRequiredField
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	s.logger.Info().Str("scheme_id", id).Bool("active", active).Msg("scheme activation changed")
	return s.repo.GetByID(ctx, id)
}

// Deactivate hides a scheme from suggestions without deleting its chunks.
func (s *SchemeService) Deactivate(ctx context.Context, id string) (*domain.Scheme, error) {
	return s.SetActive(ctx, id, false)
}

// Activate makes a scheme eligible for suggestions again.
func (s *SchemeService) Activate(ctx context.Context, id string) (*domain.Scheme, error) {
	return s.SetActive(ctx, id, true)
}

// Delete removes a scheme and, by cascade, its chunks.
func (s *SchemeService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrMissingRequiredField
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("scheme_id", id).Msg("scheme deleted")
	return nil
}
