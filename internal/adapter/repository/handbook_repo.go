package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-assist/internal/domain"
)

type handbookRepository struct {
	pool *pgxpool.Pool
}

// NewHandbookRepository creates a new HandbookRepository.
func NewHandbookRepository(pool *pgxpool.Pool) domain.HandbookRepository {
	return &handbookRepository{pool: pool}
}

func (r *handbookRepository) GetByScope(ctx context.Context, scope domain.Scope) (*domain.Handbook, error) {
	query := `
		SELECT id, scope, display_name, chunk_count, uploaded_at
		FROM handbooks
		WHERE scope = $1
	`
	var hb domain.Handbook
	err := executor(ctx, r.pool).QueryRow(ctx, query, string(scope)).Scan(
		&hb.ID, &hb.Scope, &hb.DisplayName, &hb.ChunkCount, &hb.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get handbook: %w", err)
	}
	return &hb, nil
}

func (r *handbookRepository) List(ctx context.Context) ([]domain.Handbook, error) {
	query := `
		SELECT id, scope, display_name, chunk_count, uploaded_at
		FROM handbooks
		ORDER BY uploaded_at DESC
	`
	rows, err := executor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list handbooks: %w", err)
	}
	defer rows.Close()

	var handbooks []domain.Handbook
	for rows.Next() {
		var hb domain.Handbook
		if err := rows.Scan(&hb.ID, &hb.Scope, &hb.DisplayName, &hb.ChunkCount, &hb.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan handbook: %w", err)
		}
		handbooks = append(handbooks, hb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return handbooks, nil
}

func (r *handbookRepository) Create(ctx context.Context, hb *domain.Handbook) error {
	query := `
		INSERT INTO handbooks (id, scope, display_name, chunk_count, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := executor(ctx, r.pool).Exec(ctx, query,
		hb.ID, string(hb.Scope), hb.DisplayName, hb.ChunkCount, hb.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create handbook: %w", err)
	}
	return nil
}

func (r *handbookRepository) UpdateChunkCount(ctx context.Context, id uuid.UUID, count int) error {
	_, err := executor(ctx, r.pool).Exec(ctx,
		`UPDATE handbooks SET chunk_count = $1 WHERE id = $2`, count, id)
	if err != nil {
		return fmt.Errorf("failed to update chunk count: %w", err)
	}
	return nil
}

func (r *handbookRepository) DeleteByScope(ctx context.Context, scope domain.Scope) error {
	_, err := executor(ctx, r.pool).Exec(ctx,
		`DELETE FROM handbooks WHERE scope = $1`, string(scope))
	if err != nil {
		return fmt.Errorf("failed to delete handbook for scope %q: %w", scope, err)
	}
	return nil
}
