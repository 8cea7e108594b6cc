package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/google/uuid"

	"campus-assist/internal/domain"
)

// ChatInput is one inbound user turn.
type ChatInput struct {
	Message   string
	SessionID string
}

// ChatOutput is the completed exchange returned to API clients.
type ChatOutput struct {
	Answer   string
	Scope    domain.Scope
	Topic    domain.Topic
	Passages []domain.Passage
	Language domain.Language
}

// ChatUsecase defines the contract for a full grounded chat turn.
type ChatUsecase interface {
	Execute(ctx context.Context, input ChatInput) (*ChatOutput, error)
	Stream(ctx context.Context, input ChatInput) <-chan StreamEvent
}

type chatUsecase struct {
	resolver  ResolveContextUsecase
	composer  *ContextComposer
	prompts   PromptBuilder
	llm       domain.LLMClient
	memory    *MemoryManager
	inquiries domain.InquiryRepository
	maxTokens int
	cache     *lru.LRU[string, ChatOutput]
	logger    *slog.Logger
}

// ChatCacheConfig sizes the answer cache. Zero size disables caching.
type ChatCacheConfig struct {
	Size int
	TTL  time.Duration
}

// NewChatUsecase wires together the components of a chat turn.
func NewChatUsecase(
	resolver ResolveContextUsecase,
	composer *ContextComposer,
	prompts PromptBuilder,
	llm domain.LLMClient,
	memory *MemoryManager,
	inquiries domain.InquiryRepository,
	maxTokens int,
	cacheCfg ChatCacheConfig,
	logger *slog.Logger,
) ChatUsecase {
	var cache *lru.LRU[string, ChatOutput]
	if cacheCfg.Size > 0 {
		cache = lru.NewLRU[string, ChatOutput](cacheCfg.Size, nil, cacheCfg.TTL)
	}
	return &chatUsecase{
		resolver:  resolver,
		composer:  composer,
		prompts:   prompts,
		llm:       llm,
		memory:    memory,
		inquiries: inquiries,
		maxTokens: maxTokens,
		cache:     cache,
		logger:    logger,
	}
}

// turnState carries everything prepare() derives from the inbound message.
type turnState struct {
	cleaned  string
	language domain.Language
	mem      *domain.SessionMemory
	scope    domain.Scope
	topic    domain.Topic
	passages []domain.Passage
	messages []domain.Message

	// terminal answers skip generation entirely (forbidden topic, memory
	// recall, programs-not-found).
	terminal       bool
	terminalAnswer string
}

func (u *chatUsecase) prepare(ctx context.Context, input ChatInput) (*turnState, error) {
	cleaned := domain.CleanMessage(input.Message)
	if cleaned == "" {
		return nil, fmt.Errorf("message is empty")
	}

	st := &turnState{
		cleaned:  cleaned,
		language: domain.DetectLanguage(cleaned),
		scope:    domain.ScopeNone,
	}

	if domain.IsForbiddenTopic(cleaned) {
		st.terminal = true
		st.terminalAnswer = apologyForbidden(st.language)
		return st, nil
	}

	st.mem = u.memory.Load(ctx, input.SessionID)

	if name := domain.ExtractName(cleaned); name != "" {
		u.memory.RememberName(ctx, st.mem, name)
	}

	if domain.IsMemoryRecall(cleaned) {
		st.terminal = true
		if st.mem.Summary != "" {
			st.terminalAnswer = st.mem.Summary
		} else {
			st.terminalAnswer = recallEmpty(st.language)
		}
		return st, nil
	}

	effectiveQuery := cleaned
	var forcedTopic domain.Topic
	if domain.IsFollowUp(cleaned) {
		last, err := u.inquiries.GetLatestBySession(ctx, input.SessionID)
		if err != nil {
			u.logger.Warn("previous_inquiry_lookup_failed",
				slog.String("session_id", input.SessionID),
				slog.String("error", err.Error()))
		}
		if last != nil {
			forcedTopic = st.mem.LastTopic
			effectiveQuery = fmt.Sprintf("Previous topic: %s\nFollow-up: %s", last.UserQuery, cleaned)
			u.logger.Info("follow_up_detected",
				slog.String("session_id", input.SessionID),
				slog.String("forced_topic", string(forcedTopic)))
		}
	}

	resolved, err := u.resolver.Execute(ctx, ResolveContextInput{
		Query:       effectiveQuery,
		ForcedTopic: forcedTopic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve context: %w", err)
	}
	st.scope = resolved.Scope
	st.topic = resolved.Topic
	st.passages = resolved.Passages

	if st.topic == domain.TopicPrograms && st.scope == domain.ScopeNone {
		st.terminal = true
		st.terminalAnswer = programsNotListed(st.language)
		return st, nil
	}

	contextBlock := u.composer.Compose(st.scope, st.passages)
	st.messages = u.prompts.Build(PromptInput{
		Query:        cleaned,
		Language:     st.language,
		UserName:     st.mem.UserName,
		Scope:        st.scope,
		Topic:        st.topic,
		ContextBlock: contextBlock,
	})
	return st, nil
}

func (u *chatUsecase) Execute(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	st, err := u.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	if st.terminal {
		return st.output(st.terminalAnswer), nil
	}

	cacheKey := u.cacheKey(st)
	if u.cache != nil {
		if cached, ok := u.cache.Get(cacheKey); ok {
			u.logger.Info("answer_cache_hit", slog.String("session_id", input.SessionID))
			u.finalize(ctx, input.SessionID, st, cached.Answer, domain.InquiryStatusSolved)
			return &cached, nil
		}
	}

	answer, err := u.llm.Chat(ctx, st.messages, u.maxTokens)
	if err != nil {
		u.logger.Error("generation_failed",
			slog.String("session_id", input.SessionID),
			slog.String("error", err.Error()))
		apology := apologyProvider(st.language)
		u.finalize(ctx, input.SessionID, st, apology, domain.InquiryStatusUnresolved)
		return st.output(apology), nil
	}

	out := st.output(answer)
	if u.cache != nil {
		u.cache.Add(cacheKey, *out)
	}
	u.finalize(ctx, input.SessionID, st, answer, st.status())
	return out, nil
}

// finalize records the exchange: inquiry insert and memory update run
// concurrently, both best-effort.
func (u *chatUsecase) finalize(ctx context.Context, sessionID string, st *turnState, answer string, status domain.InquiryStatus) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		inq := &domain.Inquiry{
			ID:          uuid.New(),
			InquiryID:   fmt.Sprintf("INQ-%d", time.Now().UnixMilli()),
			SessionID:   sessionID,
			UserQuery:   st.cleaned,
			BotResponse: answer,
			Status:      status,
			CreatedAt:   time.Now(),
		}
		return u.inquiries.Insert(gctx, inq)
	})

	g.Go(func() error {
		return u.memory.Update(gctx, st.mem, st.cleaned, answer, st.topic)
	})

	if err := g.Wait(); err != nil {
		u.logger.Warn("exchange_record_failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
	}
}

// cacheKey includes the remembered user name because the prompt personalizes
// the answer with it; a reply addressed to one user must never be replayed to
// a session that remembers a different name.
func (u *chatUsecase) cacheKey(st *turnState) string {
	return st.cleaned + "|" + string(st.language) + "|" + string(st.scope) + "|" + st.mem.UserName
}

func (st *turnState) output(answer string) *ChatOutput {
	return &ChatOutput{
		Answer:   answer,
		Scope:    st.scope,
		Topic:    st.topic,
		Passages: st.passages,
		Language: st.language,
	}
}

// status classifies the exchange for the inquiry log: grounded answers are
// solved, answers generated without any qualifying passage are partial.
func (st *turnState) status() domain.InquiryStatus {
	if st.scope == domain.ScopeNone {
		return domain.InquiryStatusPartial
	}
	return domain.InquiryStatusSolved
}

func apologyForbidden(lang domain.Language) string {
	if lang == domain.LanguageTagalog {
		return "Pasensya, hindi ako maaaring sumagot sa tanong na ito."
	}
	return "Sorry, I can't help with this question."
}

func apologyProvider(lang domain.Language) string {
	if lang == domain.LanguageTagalog {
		return "Pasensya, may problema ako sa pagsagot ngayon. Pakisubukan muli mamaya."
	}
	return "Sorry, I'm having trouble answering right now. Please try again later."
}

func programsNotListed(lang domain.Language) string {
	if lang == domain.LanguageTagalog {
		return "Ang listahan ng mga kursong inaalok ay hindi nakasaad sa campus handbook."
	}
	return "The list of offered courses is not listed in the campus handbook."
}

func recallEmpty(lang domain.Language) string {
	if lang == domain.LanguageTagalog {
		return "Wala pa tayong napag-usapan."
	}
	return "We haven't discussed anything yet."
}
