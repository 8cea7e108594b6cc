package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-assist/internal/domain"
)

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) domain.SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string) (*domain.SessionMemory, error) {
	query := `
		SELECT session_id, user_name, last_topic, summary, updated_at
		FROM session_memories
		WHERE session_id = $1
	`
	var mem domain.SessionMemory
	var lastTopic string
	err := executor(ctx, r.pool).QueryRow(ctx, query, sessionID).Scan(
		&mem.SessionID, &mem.UserName, &lastTopic, &mem.Summary, &mem.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session memory: %w", err)
	}
	mem.LastTopic = domain.Topic(lastTopic)
	return &mem, nil
}

func (r *sessionRepository) Upsert(ctx context.Context, mem *domain.SessionMemory) error {
	query := `
		INSERT INTO session_memories (session_id, user_name, last_topic, summary, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE
		SET user_name = EXCLUDED.user_name,
		    last_topic = EXCLUDED.last_topic,
		    summary = EXCLUDED.summary,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := executor(ctx, r.pool).Exec(ctx, query,
		mem.SessionID, mem.UserName, string(mem.LastTopic), mem.Summary, mem.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session memory: %w", err)
	}
	return nil
}

func (r *sessionRepository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := executor(ctx, r.pool).Exec(ctx,
		`DELETE FROM session_memories WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
