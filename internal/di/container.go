package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"campus-assist/internal/adapter/chathttp"
	"campus-assist/internal/adapter/providerapi"
	"campus-assist/internal/adapter/repository"
	"campus-assist/internal/domain"
	"campus-assist/internal/infra/config"
	"campus-assist/internal/infra/httpclient"
	"campus-assist/internal/usecase"
	"campus-assist/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Repositories
	HandbookRepo domain.HandbookRepository
	ChunkRepo    domain.ChunkRepository
	SessionRepo  domain.SessionRepository
	InquiryRepo  domain.InquiryRepository
	FeedbackRepo domain.FeedbackRepository

	// Usecases
	ChatUsecase    usecase.ChatUsecase
	ResolveUsecase usecase.ResolveContextUsecase
	IngestUsecase  usecase.IngestDocumentUsecase

	// Shared services
	ProgressHub *domain.ProgressHub
	Sweeper     *worker.SessionSweeper

	// HTTP surface
	Handler *chathttp.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	// Repositories
	handbookRepo := repository.NewHandbookRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	inquiryRepo := repository.NewInquiryRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Provider.EmbedTimeoutSecs) * time.Second)
	chatHTTP := httpclient.NewPooledClient(time.Duration(cfg.Provider.ChatTimeoutSecs) * time.Second)

	// Provider clients
	encoder := providerapi.NewEmbedder(
		cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.EmbeddingModel,
		cfg.Provider.EmbedTimeoutSecs, cfg.Provider.EmbedRequestsPerSec, embedderHTTP,
	)
	generator := providerapi.NewGenerator(
		cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.ChatModel,
		cfg.Provider.ChatTimeoutSecs, chatHTTP,
	)

	// Domain services
	classifier := domain.NewKeywordClassifier()
	chunker := domain.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, domain.NewSectionDetector())
	progressHub := domain.NewProgressHub()

	// Retrieval policy from config
	retrievalConfig := usecase.RetrievalConfig{
		TopK: cfg.Retrieval.TopK,
		ScopeRules: []domain.ScopeRule{
			{Scope: domain.ScopeCampus, MinScore: float32(cfg.Retrieval.CampusMinScore)},
			{Scope: domain.ScopeGlobal, MinScore: float32(cfg.Retrieval.GlobalMinScore)},
			{Scope: domain.ScopeSHS, MinScore: float32(cfg.Retrieval.SHSMinScore), TopicGate: domain.TopicSHS},
		},
		MaxContextChars: cfg.Retrieval.MaxContextChars,
	}

	expander := usecase.NewQueryExpander(classifier)
	resolveUsecase := usecase.NewResolveContextUsecase(
		chunkRepo, encoder, classifier, expander, retrievalConfig, log,
	)

	composer := usecase.NewContextComposer(cfg.Retrieval.MaxContextChars)
	promptBuilder := usecase.NewCampusPromptBuilder(cfg.Chat.CampusName, cfg.Chat.ContactLine)
	memory := usecase.NewMemoryManager(
		sessionRepo, generator, cfg.Session.SummaryMax, cfg.Session.SummaryTarget, log,
	)

	chatUsecase := usecase.NewChatUsecase(
		resolveUsecase, composer, promptBuilder, generator, memory, inquiryRepo,
		cfg.Chat.MaxTokens,
		usecase.ChatCacheConfig{Size: cfg.Chat.CacheSize, TTL: cfg.Chat.CacheTTL},
		log,
	)

	ingestUsecase := usecase.NewIngestDocumentUsecase(
		handbookRepo, chunkRepo, txManager, chunker, encoder, progressHub, log,
	)

	sweeper := worker.NewSessionSweeper(sessionRepo, cfg.Session.IdleTTL, cfg.Session.SweepInterval, log)

	handler := chathttp.NewHandler(
		chatUsecase, resolveUsecase, ingestUsecase,
		handbookRepo, inquiryRepo, feedbackRepo, progressHub,
	)

	return &ApplicationComponents{
		HandbookRepo:   handbookRepo,
		ChunkRepo:      chunkRepo,
		SessionRepo:    sessionRepo,
		InquiryRepo:    inquiryRepo,
		FeedbackRepo:   feedbackRepo,
		ChatUsecase:    chatUsecase,
		ResolveUsecase: resolveUsecase,
		IngestUsecase:  ingestUsecase,
		ProgressHub:    progressHub,
		Sweeper:        sweeper,
		Handler:        handler,
	}
}
