package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/service"
)

const chunkColumns = `c.id, c.scheme_id, c.scheme_name, c.chunk_index, c.content, c.embedding,
	c.page_number, c.section, c.paragraph_number, c.document_path, c.created_at`

// ChunkRepository persists scheme chunks and serves both retrieval paths.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a scheme and inserts the new set.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, schemeID string, chunks []domain.Chunk) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE scheme_id = $1`, schemeID); err != nil {
		return classifyError("delete chunks", err, nil)
	}

	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		meta := c.Metadata.WithDefaults()
		batch.Queue(
			`INSERT INTO chunks
				(id, scheme_id, scheme_name, chunk_index, content, embedding, page_number, section, paragraph_number, document_path, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID,
			schemeID,
			c.SchemeName,
			c.ChunkIndex,
			c.Content,
			pgvector.NewVector(c.Embedding),
			meta.PageNumber,
			meta.Section,
			meta.ParagraphNumber,
			meta.DocumentPath,
			createdAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return classifyError("insert chunk", err, nil)
		}
	}
	return classifyError("insert chunks", results.Close(), nil)
}

// RenameScheme rewrites the denormalized scheme name on every chunk of a scheme.
func (r *ChunkRepository) RenameScheme(ctx context.Context, schemeID, name string) error {
	_, err := r.db.Exec(ctx, `UPDATE chunks SET scheme_name = $1 WHERE scheme_id = $2`, name, schemeID)
	return classifyError("rename chunk scheme", err, nil)
}

// SearchSemantic returns the nearest chunks by cosine similarity. An empty
// schemeID searches every active scheme.
func (r *ChunkRepository) SearchSemantic(ctx context.Context, embedding []float32, schemeID string, limit int) ([]*service.SearchCandidate, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+chunkColumns+`, 1 - (c.embedding <=> $1) AS score
		 FROM chunks c
		 JOIN schemes s ON s.id = c.scheme_id
		 WHERE ($2 = '' OR c.scheme_id::text = $2) AND ($2 <> '' OR s.active)
		 ORDER BY c.embedding <=> $1, c.id
		 LIMIT $3`,
		pgvector.NewVector(embedding), schemeID, limit,
	)
	if err != nil {
		return nil, classifyError("semantic search", err, nil)
	}
	defer rows.Close()

	candidates := make([]*service.SearchCandidate, 0)
	for rows.Next() {
		c, score, err := scanCandidate(rows)
		if err != nil {
			return nil, classifyError("scan chunk", err, nil)
		}
		c.SemanticScore = score
		candidates = append(candidates, c)
	}
	return candidates, classifyError("semantic search", rows.Err(), nil)
}

// SearchLexical ranks chunks by full-text match. Scores are normalized to [0, 1).
func (r *ChunkRepository) SearchLexical(ctx context.Context, query string, schemeID string, limit int) ([]*service.SearchCandidate, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+chunkColumns+`, ts_rank_cd(c.content_tsv, q, 32) AS score
		 FROM chunks c
		 JOIN schemes s ON s.id = c.scheme_id,
		      plainto_tsquery('english', $1) q
		 WHERE c.content_tsv @@ q
		   AND ($2 = '' OR c.scheme_id::text = $2) AND ($2 <> '' OR s.active)
		 ORDER BY score DESC, c.id
		 LIMIT $3`,
		query, schemeID, limit,
	)
	if err != nil {
		return nil, classifyError("lexical search", err, nil)
	}
	defer rows.Close()

	candidates := make([]*service.SearchCandidate, 0)
	for rows.Next() {
		c, score, err := scanCandidate(rows)
		if err != nil {
			return nil, classifyError("scan chunk", err, nil)
		}
		c.LexicalScore = score
		candidates = append(candidates, c)
	}
	return candidates, classifyError("lexical search", rows.Err(), nil)
}

func scanCandidate(rows pgx.Rows) (*service.SearchCandidate, float64, error) {
	var c service.SearchCandidate
	var vec pgvector.Vector
	var score float64
	err := rows.Scan(
		&c.ID, &c.SchemeID, &c.SchemeName, &c.ChunkIndex, &c.Content, &vec,
		&c.Metadata.PageNumber, &c.Metadata.Section, &c.Metadata.ParagraphNumber, &c.Metadata.DocumentPath,
		&c.CreatedAt, &score,
	)
	if err != nil {
		return nil, 0, err
	}
	c.Embedding = vec.Slice()
	return &c, score, nil
}
