package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

// TxRunner runs a unit of work against repositories sharing one
// read-committed transaction. The transaction commits only when fn returns nil.
type TxRunner struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, r.opts)
	if err != nil {
		return classifyError("begin transaction", err, nil)
	}
	defer func() {
		if err == nil {
			return
		}
		// Rollback after a failed commit reports ErrTxClosed, which is expected.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rbErr)
		}
	}()

	if err = fn(txScope{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return classifyError("commit transaction", err, nil)
	}
	return nil
}

// txScope hands out repositories bound to the open transaction.
type txScope struct {
	tx pgx.Tx
}

func (s txScope) Schemes() service.SchemeRepository { return NewSchemeRepositoryWithTx(s.tx) }

func (s txScope) Chunks() service.ChunkRepository { return NewChunkRepositoryWithTx(s.tx) }

func (s txScope) IngestionJobs() service.IngestionJobRepository {
	return NewIngestionJobRepositoryWithTx(s.tx)
}
