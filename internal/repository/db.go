package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const (
	pgUndefinedTable    = "42P01"
	pgUndefinedObject   = "42704"
	pgUndefinedFunction = "42883"
	pgUniqueViolation   = "23505"
	pgInvalidText       = "22P02"
	pgDataException     = "22000"
)

// classifyError maps a driver error onto the domain taxonomy. notFound is
// returned for pgx.ErrNoRows.
func classifyError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}
	if domain.ErrorCode(err) != "" {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable, pgUndefinedObject, pgUndefinedFunction:
			return domain.NewConfigurationError(domain.ErrSemanticIndexNotConfigured.Message, err)
		case pgInvalidText:
			// a malformed UUID can never name an existing row
			if notFound != nil {
				return notFound
			}
			return domain.NewValidationError(pgErr.Message)
		case pgDataException:
			// pgvector reports a width mismatch as "expected N dimensions, not M"
			if strings.Contains(pgErr.Message, "dimensions") {
				return domain.NewConfigurationError(domain.ErrDimensionMismatch.Message, err)
			}
		case pgUniqueViolation:
			return domain.NewDomainErrorWithCause(domain.ErrCodeAlreadyExists, domain.ErrSchemeAlreadyExists.Message, err)
		}
	}
	return domain.NewTransientError(op, err)
}
