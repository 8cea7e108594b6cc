package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-assist/internal/domain"
)

type inquiryRepository struct {
	pool *pgxpool.Pool
}

// NewInquiryRepository creates a new InquiryRepository.
func NewInquiryRepository(pool *pgxpool.Pool) domain.InquiryRepository {
	return &inquiryRepository{pool: pool}
}

func (r *inquiryRepository) Insert(ctx context.Context, inq *domain.Inquiry) error {
	query := `
		INSERT INTO inquiries (id, inquiry_id, session_id, user_query, bot_response, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := executor(ctx, r.pool).Exec(ctx, query,
		inq.ID, inq.InquiryID, inq.SessionID, inq.UserQuery, inq.BotResponse, string(inq.Status), inq.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert inquiry: %w", err)
	}
	return nil
}

func (r *inquiryRepository) GetLatestBySession(ctx context.Context, sessionID string) (*domain.Inquiry, error) {
	query := `
		SELECT id, inquiry_id, session_id, user_query, bot_response, status, created_at
		FROM inquiries
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	inq, err := scanInquiry(executor(ctx, r.pool).QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest inquiry: %w", err)
	}
	return inq, nil
}

func (r *inquiryRepository) ListRecent(ctx context.Context, limit int) ([]domain.Inquiry, error) {
	query := `
		SELECT id, inquiry_id, session_id, user_query, bot_response, status, created_at
		FROM inquiries
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := executor(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	defer rows.Close()

	var inquiries []domain.Inquiry
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inquiry: %w", err)
		}
		inquiries = append(inquiries, *inq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return inquiries, nil
}

func scanInquiry(row pgx.Row) (*domain.Inquiry, error) {
	var inq domain.Inquiry
	var status string
	if err := row.Scan(&inq.ID, &inq.InquiryID, &inq.SessionID, &inq.UserQuery, &inq.BotResponse, &status, &inq.CreatedAt); err != nil {
		return nil, err
	}
	inq.Status = domain.InquiryStatus(status)
	return &inq, nil
}
