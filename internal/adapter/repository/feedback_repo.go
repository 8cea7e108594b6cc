package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"campus-assist/internal/domain"
)

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(pool *pgxpool.Pool) domain.FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Insert(ctx context.Context, fb *domain.Feedback) error {
	query := `
		INSERT INTO feedback (id, feedback_id, session_id, rating, comment, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := executor(ctx, r.pool).Exec(ctx, query,
		fb.ID, fb.FeedbackID, fb.SessionID, string(fb.Rating), fb.Comment, fb.Resolved, fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepository) ListRecent(ctx context.Context, limit int) ([]domain.Feedback, error) {
	query := `
		SELECT id, feedback_id, session_id, rating, comment, resolved, created_at
		FROM feedback
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := executor(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var items []domain.Feedback
	for rows.Next() {
		var fb domain.Feedback
		var rating string
		if err := rows.Scan(&fb.ID, &fb.FeedbackID, &fb.SessionID, &rating, &fb.Comment, &fb.Resolved, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		fb.Rating = domain.FeedbackRating(rating)
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

func (r *feedbackRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := executor(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return n, nil
}
