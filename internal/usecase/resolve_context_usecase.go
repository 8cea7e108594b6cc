package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus-assist/internal/domain"
)

// ResolveContextInput defines the input parameters for ResolveContext.
type ResolveContextInput struct {
	Query string

	// ForcedTopic overrides classification, carried over from a detected
	// follow-up. Empty means classify the query normally.
	ForcedTopic domain.Topic
}

// ResolveContextOutput is the resolver's result. Scope is ScopeNone with an
// empty passage list when every scope was exhausted.
type ResolveContextOutput struct {
	Scope    domain.Scope
	Topic    domain.Topic
	Passages []domain.Passage
}

// ResolveContextUsecase selects the passages that ground an answer by
// trying scopes in priority order.
type ResolveContextUsecase interface {
	Execute(ctx context.Context, input ResolveContextInput) (*ResolveContextOutput, error)
}

type resolveContextUsecase struct {
	chunkRepo  domain.ChunkRepository
	encoder    domain.VectorEncoder
	classifier domain.TopicClassifier
	expander   *QueryExpander
	config     RetrievalConfig
	logger     *slog.Logger
}

// NewResolveContextUsecase creates a new ResolveContextUsecase.
func NewResolveContextUsecase(
	chunkRepo domain.ChunkRepository,
	encoder domain.VectorEncoder,
	classifier domain.TopicClassifier,
	expander *QueryExpander,
	config RetrievalConfig,
	logger *slog.Logger,
) ResolveContextUsecase {
	return &resolveContextUsecase{
		chunkRepo:  chunkRepo,
		encoder:    encoder,
		classifier: classifier,
		expander:   expander,
		config:     config,
		logger:     logger,
	}
}

func (u *resolveContextUsecase) Execute(ctx context.Context, input ResolveContextInput) (*ResolveContextOutput, error) {
	if input.Query == "" {
		return nil, fmt.Errorf("query is empty")
	}

	topic := input.ForcedTopic
	if topic == "" {
		topic = u.classifier.Classify(input.Query)
	}
	expanded := u.expander.ExpandForTopic(input.Query, topic)

	embedStart := time.Now()
	embeddings, err := u.encoder.Encode(ctx, []string{expanded})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}
	queryVector := embeddings[0]

	u.logger.Debug("query_encoded",
		slog.String("topic", string(topic)),
		slog.Int("dimensions", len(queryVector)),
		slog.Int64("duration_ms", time.Since(embedStart).Milliseconds()))

	for _, rule := range u.config.ScopeRules {
		// Topic-gated scopes are skipped unless the query asks for them,
		// saving a vector search on every other request.
		if rule.TopicGate != "" && rule.TopicGate != topic {
			continue
		}

		hits, err := u.chunkRepo.Search(ctx, queryVector, rule.Scope, u.config.TopK)
		if err != nil {
			return nil, fmt.Errorf("failed to search scope %q: %w", rule.Scope, err)
		}

		qualifying := hits[:0:0]
		for _, hit := range hits {
			if rule.MinScore == 0 || hit.Score >= rule.MinScore {
				qualifying = append(qualifying, hit)
			}
		}

		u.logger.Info("scope_searched",
			slog.String("scope", string(rule.Scope)),
			slog.Int("hits", len(hits)),
			slog.Int("qualifying", len(qualifying)))

		if len(qualifying) > 0 {
			return &ResolveContextOutput{
				Scope:    rule.Scope,
				Topic:    topic,
				Passages: qualifying,
			}, nil
		}
	}

	u.logger.Info("scopes_exhausted", slog.String("topic", string(topic)))
	return &ResolveContextOutput{
		Scope:    domain.ScopeNone,
		Topic:    topic,
		Passages: nil,
	}, nil
}
