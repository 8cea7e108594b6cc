package usecase

import (
	"fmt"
	"strings"

	"campus-assist/internal/domain"
)

// ContextComposer merges resolved passages into a single bounded text block
// with numbered citations and a scope-derived voice instruction, ready for
// insertion into the prompt. Pure string assembly, deterministic.
type ContextComposer struct {
	maxChars int
}

// NewContextComposer bounds the composed block to maxChars characters.
func NewContextComposer(maxChars int) *ContextComposer {
	if maxChars <= 0 {
		maxChars = DefaultRetrievalConfig().MaxContextChars
	}
	return &ContextComposer{maxChars: maxChars}
}

// voiceInstruction tells the model how to speak for the scope the passages
// came from. Campus content is spoken campus-specifically; broader scopes
// get a general voice so the bot never pretends global policy is local.
func voiceInstruction(scope domain.Scope) string {
	switch scope {
	case domain.ScopeCampus:
		return "Speak campus-specifically: this content was curated for this campus and is the source of truth."
	case domain.ScopeSHS:
		return "Speak about senior high school offerings only; do not generalize to college programs."
	case domain.ScopeGlobal:
		return "Speak generally: this content applies across campuses, so avoid campus-specific claims."
	}
	return ""
}

// Compose renders the passages. When the block would exceed the character
// budget, the lowest-ranked passages are dropped first. An empty passage
// list composes to an empty string.
func (c *ContextComposer) Compose(scope domain.Scope, passages []domain.Passage) string {
	if len(passages) == 0 {
		return ""
	}

	kept := passages
	for len(kept) > 0 {
		block := c.render(scope, kept)
		if len(block) <= c.maxChars {
			return block
		}
		if len(kept) == 1 {
			// A single oversized passage is clamped rather than dropped.
			return clampBytes(block, c.maxChars)
		}
		kept = kept[:len(kept)-1]
	}
	return ""
}

func (c *ContextComposer) render(scope domain.Scope, passages []domain.Passage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SOURCE: %s HANDBOOK\n", strings.ToUpper(string(scope)))
	sb.WriteString(voiceInstruction(scope))
	sb.WriteString("\n")
	for i, p := range passages {
		fmt.Fprintf(&sb, "%d. ", i+1)
		if p.SectionTitle != "" {
			fmt.Fprintf(&sb, "[%s] ", p.SectionTitle)
		}
		sb.WriteString(strings.TrimSpace(p.Content))
		sb.WriteString("\n")
	}
	return sb.String()
}
