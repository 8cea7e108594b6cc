package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campus-assist/internal/domain"
)

const (
	// DefaultSummaryMax is the rolling summary size that triggers
	// compaction.
	DefaultSummaryMax = 1200
	// DefaultSummaryTarget is the size compaction compresses back under.
	DefaultSummaryTarget = 800
	// turnDeltaBotLimit bounds how much of the bot reply lands in the
	// per-turn summary delta.
	turnDeltaBotLimit = 160
)

// MemoryManager maintains per-session rolling summaries and extracted
// attributes. Every operation is best-effort: a missing or unreadable
// session is replaced by empty defaults rather than failing the request.
type MemoryManager struct {
	sessions      domain.SessionRepository
	llm           domain.LLMClient
	summaryMax    int
	summaryTarget int
	logger        *slog.Logger
}

// NewMemoryManager creates a manager. Non-positive limits fall back to the
// defaults.
func NewMemoryManager(sessions domain.SessionRepository, llm domain.LLMClient, summaryMax, summaryTarget int, logger *slog.Logger) *MemoryManager {
	if summaryMax <= 0 {
		summaryMax = DefaultSummaryMax
	}
	if summaryTarget <= 0 || summaryTarget >= summaryMax {
		summaryTarget = DefaultSummaryTarget
	}
	return &MemoryManager{
		sessions:      sessions,
		llm:           llm,
		summaryMax:    summaryMax,
		summaryTarget: summaryTarget,
		logger:        logger,
	}
}

// Load returns the session memory, synthesizing empty defaults when the
// session is unknown or the store errors.
func (m *MemoryManager) Load(ctx context.Context, sessionID string) *domain.SessionMemory {
	mem, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		m.logger.Warn("session_load_failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
	}
	if mem == nil {
		mem = &domain.SessionMemory{SessionID: sessionID}
	}
	return mem
}

// RememberName persists a self-introduced user name.
func (m *MemoryManager) RememberName(ctx context.Context, mem *domain.SessionMemory, name string) {
	mem.UserName = name
	mem.UpdatedAt = time.Now()
	if err := m.sessions.Upsert(ctx, mem); err != nil {
		m.logger.Warn("session_name_save_failed",
			slog.String("session_id", mem.SessionID),
			slog.String("error", err.Error()))
	}
}

// Update appends a compact delta for the finished exchange and compacts the
// summary when it grows past the threshold. Compaction failure falls back to
// keeping the newest tail; the next update retries compaction naturally.
func (m *MemoryManager) Update(ctx context.Context, mem *domain.SessionMemory, userTurn, botTurn string, topic domain.Topic) error {
	delta := turnDelta(userTurn, botTurn)
	if mem.Summary == "" {
		mem.Summary = delta
	} else {
		mem.Summary = mem.Summary + "\n" + delta
	}

	if len(mem.Summary) > m.summaryMax {
		compacted, err := m.compact(ctx, mem.Summary)
		if err != nil {
			m.logger.Warn("summary_compaction_failed",
				slog.String("session_id", mem.SessionID),
				slog.String("error", err.Error()))
			mem.Summary = tailBytes(mem.Summary, m.summaryMax)
		} else {
			mem.Summary = compacted
		}
	}

	mem.LastTopic = topic
	mem.UpdatedAt = time.Now()
	if err := m.sessions.Upsert(ctx, mem); err != nil {
		return fmt.Errorf("failed to save session memory: %w", err)
	}
	return nil
}

func turnDelta(userTurn, botTurn string) string {
	bot := strings.TrimSpace(botTurn)
	if len(bot) > turnDeltaBotLimit {
		bot = clampBytes(bot, turnDeltaBotLimit) + "…"
	}
	return "- Q: " + strings.TrimSpace(userTurn) + " | A: " + bot
}

func (m *MemoryManager) compact(ctx context.Context, summary string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the conversation notes below in short bullet points.
Keep only important facts (names, topics, figures). Stay under %d characters.

NOTES:
%s`, m.summaryTarget, summary)

	text, err := m.llm.Chat(ctx, []domain.Message{{Role: "user", Content: prompt}}, 200)
	if err != nil {
		return "", err
	}
	compacted := strings.TrimSpace(text)
	if len(compacted) > m.summaryMax {
		compacted = clampBytes(compacted, m.summaryMax)
	}
	if compacted == "" {
		return "", fmt.Errorf("compaction produced empty summary")
	}
	return compacted, nil
}
