package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ErrScopeOccupied is returned when an upload targets a scope that already
// holds an active handbook. The old handbook must be deleted first.
var ErrScopeOccupied = errors.New("scope already has an active handbook")

// Handbook represents one uploaded source document. At most one active
// handbook exists per scope.
type Handbook struct {
	ID          uuid.UUID
	Scope       Scope
	DisplayName string
	ChunkCount  int
	UploadedAt  time.Time
}

// HandbookChunk is a retrieval unit: a bounded passage plus its embedding.
// Immutable once created; deleted together with its parent handbook.
type HandbookChunk struct {
	ID           uuid.UUID
	HandbookID   uuid.UUID
	Scope        Scope
	SectionTitle string
	ChunkIndex   int
	Content      string
	Embedding    pgvector.Vector
	CreatedAt    time.Time
}

// Passage is a chunk selected by vector search, with its similarity score.
type Passage struct {
	ChunkID      uuid.UUID
	Content      string
	SectionTitle string
	Score        float32
}

// SessionMemory holds per-session conversational state. Synthesized with
// empty defaults when missing; swept after the idle TTL.
type SessionMemory struct {
	SessionID string
	UserName  string
	LastTopic Topic
	Summary   string
	UpdatedAt time.Time
}

// InquiryStatus classifies how well an exchange was answered.
type InquiryStatus string

const (
	InquiryStatusSolved     InquiryStatus = "solved"
	InquiryStatusPartial    InquiryStatus = "partial"
	InquiryStatusUnresolved InquiryStatus = "unresolved"
)

// Inquiry is an append-only audit record, one per exchange. The latest
// inquiry of a session also serves as the previous-turn context for
// follow-up detection.
type Inquiry struct {
	ID          uuid.UUID
	InquiryID   string
	SessionID   string
	UserQuery   string
	BotResponse string
	Status      InquiryStatus
	CreatedAt   time.Time
}

// FeedbackRating is the user's verdict on an answer.
type FeedbackRating string

const (
	FeedbackPositive FeedbackRating = "positive"
	FeedbackNegative FeedbackRating = "negative"
)

// Feedback is a user-submitted rating of a bot answer.
type Feedback struct {
	ID         uuid.UUID
	FeedbackID string
	SessionID  string
	Rating     FeedbackRating
	Comment    string
	Resolved   bool
	CreatedAt  time.Time
}

// NewFeedback builds a feedback record with a human-readable reference ID,
// mirroring the INQ-prefixed inquiry IDs.
func NewFeedback(sessionID string, rating FeedbackRating, comment string) *Feedback {
	now := time.Now()
	return &Feedback{
		ID:         uuid.New(),
		FeedbackID: fmt.Sprintf("FDB-%d", now.UnixMilli()),
		SessionID:  sessionID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  now,
	}
}

// HandbookRepository manages handbook documents.
type HandbookRepository interface {
	// GetByScope returns the active handbook for a scope, or nil, nil
	// when the scope is empty.
	GetByScope(ctx context.Context, scope Scope) (*Handbook, error)

	// List returns all active handbooks.
	List(ctx context.Context) ([]Handbook, error)

	// Create inserts a new handbook.
	Create(ctx context.Context, hb *Handbook) error

	// UpdateChunkCount records the final chunk count after ingestion.
	UpdateChunkCount(ctx context.Context, id uuid.UUID, count int) error

	// DeleteByScope removes the handbook row for a scope.
	DeleteByScope(ctx context.Context, scope Scope) error
}

// ChunkRepository manages handbook chunks and vector search over them.
type ChunkRepository interface {
	// BulkInsert inserts chunks in one round trip.
	BulkInsert(ctx context.Context, chunks []HandbookChunk) error

	// Search returns the top-limit nearest chunks within one scope,
	// ordered by similarity descending. No score filtering happens here;
	// thresholds are the resolver's concern.
	Search(ctx context.Context, queryVector []float32, scope Scope, limit int) ([]Passage, error)

	// DeleteByScope removes every chunk belonging to a scope.
	DeleteByScope(ctx context.Context, scope Scope) error
}

// SessionRepository manages session memory rows.
type SessionRepository interface {
	// Get returns the memory for a session, or nil, nil when absent.
	Get(ctx context.Context, sessionID string) (*SessionMemory, error)

	// Upsert writes the memory row, creating it on first touch.
	Upsert(ctx context.Context, mem *SessionMemory) error

	// DeleteIdleBefore removes sessions not updated since the cutoff and
	// returns how many were removed.
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// InquiryRepository manages the append-only inquiry log.
type InquiryRepository interface {
	Insert(ctx context.Context, inq *Inquiry) error

	// GetLatestBySession returns the most recent inquiry for a session,
	// or nil, nil when the session has none.
	GetLatestBySession(ctx context.Context, sessionID string) (*Inquiry, error)

	// ListRecent returns the newest inquiries for the dashboard.
	ListRecent(ctx context.Context, limit int) ([]Inquiry, error)
}

// FeedbackRepository manages user feedback records.
type FeedbackRepository interface {
	Insert(ctx context.Context, fb *Feedback) error
	ListRecent(ctx context.Context, limit int) ([]Feedback, error)
	Count(ctx context.Context) (int64, error)
}

// TransactionManager runs a function within a database transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
