package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

const schemeColumns = `id, name, category, description, active, total_chunks, created_at, updated_at`

type SchemeRepository struct {
	db dbtx
}

func NewSchemeRepository(pool *pgxpool.Pool) *SchemeRepository {
	return &SchemeRepository{db: pool}
}

func NewSchemeRepositoryWithTx(tx pgx.Tx) *SchemeRepository {
	return &SchemeRepository{db: tx}
}

func (r *SchemeRepository) Create(ctx context.Context, s *domain.Scheme) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO schemes (`+schemeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.Name, s.Category, s.Description, s.Active, s.TotalChunks, s.CreatedAt, s.UpdatedAt,
	)
	return classifyError("create scheme", err, nil)
}

func (r *SchemeRepository) GetByID(ctx context.Context, id string) (*domain.Scheme, error) {
	s, err := scanScheme(r.db.QueryRow(ctx,
		`SELECT `+schemeColumns+` FROM schemes WHERE id = $1`, id,
	))
	if err != nil {
		return nil, classifyError("get scheme", err, domain.ErrSchemeNotFound)
	}
	return s, nil
}

func (r *SchemeRepository) GetByName(ctx context.Context, name string) (*domain.Scheme, error) {
	s, err := scanScheme(r.db.QueryRow(ctx,
		`SELECT `+schemeColumns+` FROM schemes WHERE name = $1`, name,
	))
	if err != nil {
		return nil, classifyError("get scheme by name", err, domain.ErrSchemeNotFound)
	}
	return s, nil
}

// List returns schemes ordered by name. activeOnly hides deactivated schemes.
func (r *SchemeRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Scheme, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+schemeColumns+` FROM schemes
		 WHERE NOT $1 OR active
		 ORDER BY name ASC`,
		activeOnly,
	)
	if err != nil {
		return nil, classifyError("list schemes", err, nil)
	}
	defer rows.Close()

	schemes := make([]*domain.Scheme, 0)
	for rows.Next() {
		s, err := scanScheme(rows)
		if err != nil {
			return nil, classifyError("scan scheme", err, nil)
		}
		schemes = append(schemes, s)
	}
	return schemes, classifyError("list schemes", rows.Err(), nil)
}

func (r *SchemeRepository) Rename(ctx context.Context, id, name string) error {
	return r.update(ctx, "rename scheme",
		`UPDATE schemes SET name = $1, updated_at = $2 WHERE id = $3`,
		name, time.Now().UTC(), id,
	)
}

func (r *SchemeRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, "set scheme active",
		`UPDATE schemes SET active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id,
	)
}

func (r *SchemeRepository) SetTotalChunks(ctx context.Context, id string, total int) error {
	return r.update(ctx, "set scheme chunk count",
		`UPDATE schemes SET total_chunks = $1, updated_at = $2 WHERE id = $3`,
		total, time.Now().UTC(), id,
	)
}

// Delete removes the scheme; its chunks go with it via ON DELETE CASCADE.
func (r *SchemeRepository) Delete(ctx context.Context, id string) error {
	return r.update(ctx, "delete scheme", `DELETE FROM schemes WHERE id = $1`, id)
}

func (r *SchemeRepository) update(ctx context.Context, op, sql string, args ...any) error {
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return classifyError(op, err, nil)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSchemeNotFound
	}
	return nil
}

func scanScheme(row pgx.Row) (*domain.Scheme, error) {
	var s domain.Scheme
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.Active, &s.TotalChunks, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
