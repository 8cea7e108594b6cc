package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"campus-assist/internal/domain"
)

type chunkRepository struct {
	pool *pgxpool.Pool
}

// NewChunkRepository creates a new ChunkRepository backed by pgvector.
func NewChunkRepository(pool *pgxpool.Pool) domain.ChunkRepository {
	return &chunkRepository{pool: pool}
}

func (r *chunkRepository) BulkInsert(ctx context.Context, chunks []domain.HandbookChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(chunks))
	for i, chunk := range chunks {
		rows[i] = []interface{}{
			chunk.ID,
			chunk.HandbookID,
			string(chunk.Scope),
			chunk.SectionTitle,
			chunk.ChunkIndex,
			chunk.Content,
			chunk.Embedding,
			chunk.CreatedAt,
		}
	}

	_, err := executor(ctx, r.pool).CopyFrom(
		ctx,
		pgx.Identifier{"handbook_chunks"},
		[]string{"id", "handbook_id", "scope", "section_title", "chunk_index", "content", "embedding", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert chunks: %w", err)
	}

	return nil
}

// Search ranks chunks of one scope by cosine similarity to the query vector.
// Score is 1 - cosine distance, so higher is closer.
func (r *chunkRepository) Search(ctx context.Context, queryVector []float32, scope domain.Scope, limit int) ([]domain.Passage, error) {
	query := `
		SELECT id, content, section_title, 1 - (embedding <=> $1) AS score
		FROM handbook_chunks
		WHERE scope = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := executor(ctx, r.pool).Query(ctx, query, pgvector.NewVector(queryVector), string(scope), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var passages []domain.Passage
	for rows.Next() {
		var p domain.Passage
		if err := rows.Scan(&p.ChunkID, &p.Content, &p.SectionTitle, &p.Score); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return passages, nil
}

func (r *chunkRepository) DeleteByScope(ctx context.Context, scope domain.Scope) error {
	_, err := executor(ctx, r.pool).Exec(ctx, `DELETE FROM handbook_chunks WHERE scope = $1`, string(scope))
	if err != nil {
		return fmt.Errorf("failed to delete chunks for scope %q: %w", scope, err)
	}
	return nil
}
