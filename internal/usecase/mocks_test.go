package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"campus-assist/internal/domain"
	"campus-assist/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) BulkInsert(ctx context.Context, chunks []domain.HandbookChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) Search(ctx context.Context, queryVector []float32, scope domain.Scope, limit int) ([]domain.Passage, error) {
	args := m.Called(ctx, queryVector, scope, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Passage), args.Error(1)
}

func (m *MockChunkRepository) DeleteByScope(ctx context.Context, scope domain.Scope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

type MockHandbookRepository struct {
	mock.Mock
}

func (m *MockHandbookRepository) GetByScope(ctx context.Context, scope domain.Scope) (*domain.Handbook, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Handbook), args.Error(1)
}

func (m *MockHandbookRepository) List(ctx context.Context) ([]domain.Handbook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Handbook), args.Error(1)
}

func (m *MockHandbookRepository) Create(ctx context.Context, hb *domain.Handbook) error {
	args := m.Called(ctx, hb)
	return args.Error(0)
}

func (m *MockHandbookRepository) UpdateChunkCount(ctx context.Context, id uuid.UUID, count int) error {
	args := m.Called(ctx, id, count)
	return args.Error(0)
}

func (m *MockHandbookRepository) DeleteByScope(ctx context.Context, scope domain.Scope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Get(ctx context.Context, sessionID string) (*domain.SessionMemory, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionMemory), args.Error(1)
}

func (m *MockSessionRepository) Upsert(ctx context.Context, mem *domain.SessionMemory) error {
	args := m.Called(ctx, mem)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockInquiryRepository struct {
	mock.Mock
}

func (m *MockInquiryRepository) Insert(ctx context.Context, inq *domain.Inquiry) error {
	args := m.Called(ctx, inq)
	return args.Error(0)
}

func (m *MockInquiryRepository) GetLatestBySession(ctx context.Context, sessionID string) (*domain.Inquiry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inquiry), args.Error(1)
}

func (m *MockInquiryRepository) ListRecent(ctx context.Context, limit int) ([]domain.Inquiry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Inquiry), args.Error(1)
}

type MockVectorEncoder struct {
	mock.Mock
}

func (m *MockVectorEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockVectorEncoder) Version() string {
	return "mock-encoder"
}

type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Chat(ctx context.Context, messages []domain.Message, maxTokens int) (string, error) {
	args := m.Called(ctx, messages, maxTokens)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) ChatStream(ctx context.Context, messages []domain.Message, maxTokens int) (<-chan domain.StreamChunk, <-chan error, error) {
	args := m.Called(ctx, messages, maxTokens)
	var chunks <-chan domain.StreamChunk
	var errs <-chan error
	if args.Get(0) != nil {
		chunks = args.Get(0).(<-chan domain.StreamChunk)
	}
	if args.Get(1) != nil {
		errs = args.Get(1).(<-chan error)
	}
	return chunks, errs, args.Error(2)
}

func (m *MockLLMClient) Version() string {
	return "mock-llm"
}

type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockResolveContextUsecase struct {
	mock.Mock
}

func (m *MockResolveContextUsecase) Execute(ctx context.Context, input usecase.ResolveContextInput) (*usecase.ResolveContextOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ResolveContextOutput), args.Error(1)
}
