package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"campus-assist/internal/domain"
)

// IngestDocumentInput carries one document upload.
type IngestDocumentInput struct {
	RawText     string
	Scope       domain.Scope
	DisplayName string
}

// IngestDocumentOutput reports how many chunks were persisted.
type IngestDocumentOutput struct {
	ChunkCount int
}

// IngestDocumentUsecase turns raw document text into embedded, searchable
// chunks for one scope, and removes them again.
type IngestDocumentUsecase interface {
	Ingest(ctx context.Context, input IngestDocumentInput) (*IngestDocumentOutput, error)
	DeleteScope(ctx context.Context, scope domain.Scope) error
}

type ingestDocumentUsecase struct {
	handbooks domain.HandbookRepository
	chunks    domain.ChunkRepository
	txManager domain.TransactionManager
	chunker   domain.Chunker
	encoder   domain.VectorEncoder
	progress  *domain.ProgressHub
	logger    *slog.Logger
}

// NewIngestDocumentUsecase creates a new IngestDocumentUsecase.
func NewIngestDocumentUsecase(
	handbooks domain.HandbookRepository,
	chunks domain.ChunkRepository,
	txManager domain.TransactionManager,
	chunker domain.Chunker,
	encoder domain.VectorEncoder,
	progress *domain.ProgressHub,
	logger *slog.Logger,
) IngestDocumentUsecase {
	return &ingestDocumentUsecase{
		handbooks: handbooks,
		chunks:    chunks,
		txManager: txManager,
		chunker:   chunker,
		encoder:   encoder,
		progress:  progress,
		logger:    logger,
	}
}

// Ingest normalizes, chunks and embeds the document, then bulk-inserts the
// chunks. Embedding is sequential per chunk with no retry: a provider
// failure aborts the remaining chunks but keeps the ones already embedded,
// so partial ingestion is possible and observable. Chunking is
// deterministic, so re-ingesting identical text into an emptied scope
// reproduces the same chunk count and section titles.
func (u *ingestDocumentUsecase) Ingest(ctx context.Context, input IngestDocumentInput) (*IngestDocumentOutput, error) {
	existing, err := u.handbooks.GetByScope(ctx, input.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to check scope: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrScopeOccupied
	}

	u.progress.Publish(domain.ProgressEvent{Percent: 5, Stage: "Reading document"})
	normalized := domain.NormalizeDocument(input.RawText)

	u.progress.Publish(domain.ProgressEvent{Percent: 20, Stage: "Processing text"})
	textChunks := u.chunker.Chunk(normalized)
	if len(textChunks) == 0 {
		return nil, fmt.Errorf("document produced no chunks")
	}
	u.progress.Publish(domain.ProgressEvent{Percent: 40, Stage: "Chunking text"})

	now := time.Now()
	handbook := &domain.Handbook{
		ID:          uuid.New(),
		Scope:       input.Scope,
		DisplayName: input.DisplayName,
		ChunkCount:  len(textChunks),
		UploadedAt:  now,
	}
	if err := u.handbooks.Create(ctx, handbook); err != nil {
		return nil, fmt.Errorf("failed to create handbook: %w", err)
	}

	embedded := make([]domain.HandbookChunk, 0, len(textChunks))
	for i, tc := range textChunks {
		vectors, err := u.encoder.Encode(ctx, []string{tc.Content})
		if err != nil || len(vectors) != 1 {
			if err == nil {
				err = fmt.Errorf("expected 1 embedding, got %d", len(vectors))
			}
			u.abortPartial(ctx, handbook, embedded)
			return nil, fmt.Errorf("failed to embed chunk %d/%d: %w", i+1, len(textChunks), err)
		}

		embedded = append(embedded, domain.HandbookChunk{
			ID:           uuid.New(),
			HandbookID:   handbook.ID,
			Scope:        input.Scope,
			SectionTitle: tc.SectionTitle,
			ChunkIndex:   tc.Index,
			Content:      tc.Content,
			Embedding:    pgvector.NewVector(vectors[0]),
			CreatedAt:    now,
		})

		pct := 40 + (i+1)*50/len(textChunks)
		u.progress.Publish(domain.ProgressEvent{
			Percent: pct,
			Stage:   fmt.Sprintf("Embedding %d/%d", i+1, len(textChunks)),
		})
	}

	if err := u.chunks.BulkInsert(ctx, embedded); err != nil {
		u.progress.Publish(domain.ProgressEvent{Percent: 100, Stage: "Upload failed"})
		return nil, fmt.Errorf("failed to insert chunks: %w", err)
	}

	u.progress.Publish(domain.ProgressEvent{Percent: 100, Stage: "Upload completed"})
	u.logger.Info("document_ingested",
		slog.String("scope", string(input.Scope)),
		slog.String("display_name", input.DisplayName),
		slog.Int("chunks", len(embedded)))

	return &IngestDocumentOutput{ChunkCount: len(embedded)}, nil
}

// abortPartial persists whatever was embedded before the failure and fixes
// the recorded chunk count. No rollback: the partial state is deliberate and
// visible to operators.
func (u *ingestDocumentUsecase) abortPartial(ctx context.Context, handbook *domain.Handbook, embedded []domain.HandbookChunk) {
	if len(embedded) > 0 {
		if err := u.chunks.BulkInsert(ctx, embedded); err != nil {
			u.logger.Error("partial_chunk_insert_failed",
				slog.String("scope", string(handbook.Scope)),
				slog.String("error", err.Error()))
		}
	}
	if err := u.handbooks.UpdateChunkCount(ctx, handbook.ID, len(embedded)); err != nil {
		u.logger.Error("chunk_count_update_failed",
			slog.String("scope", string(handbook.Scope)),
			slog.String("error", err.Error()))
	}
	u.progress.Publish(domain.ProgressEvent{Percent: 100, Stage: "Upload failed"})
	u.logger.Warn("document_partially_ingested",
		slog.String("scope", string(handbook.Scope)),
		slog.Int("chunks_persisted", len(embedded)))
}

// DeleteScope removes the scope's handbook and all of its chunks together.
func (u *ingestDocumentUsecase) DeleteScope(ctx context.Context, scope domain.Scope) error {
	return u.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := u.chunks.DeleteByScope(ctx, scope); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
		if err := u.handbooks.DeleteByScope(ctx, scope); err != nil {
			return fmt.Errorf("failed to delete handbook: %w", err)
		}
		return nil
	})
}
