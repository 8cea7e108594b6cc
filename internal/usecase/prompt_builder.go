package usecase

import (
	"fmt"
	"strings"

	"campus-assist/internal/domain"
)

// PromptInput contains the pieces that feed into the prompt builder.
type PromptInput struct {
	Query        string
	Language     domain.Language
	UserName     string
	Scope        domain.Scope
	Topic        domain.Topic
	ContextBlock string
}

// PromptBuilder builds the chat messages sent to the completion provider.
type PromptBuilder interface {
	Build(input PromptInput) []domain.Message
}

// CampusPromptBuilder renders the campus-assistant persona with strict
// grounding rules: answer only from the context block, keep figures exact,
// never merge campus and global content.
type CampusPromptBuilder struct {
	campusName  string
	contactLine string
}

// NewCampusPromptBuilder creates a builder for the given campus identity.
// contactLine is appended to answers that touch enrollment or contact
// topics; empty disables the rule.
func NewCampusPromptBuilder(campusName, contactLine string) PromptBuilder {
	return &CampusPromptBuilder{campusName: campusName, contactLine: contactLine}
}

// Build renders the system persona, the optional grounding block, and the
// user turn.
func (b *CampusPromptBuilder) Build(input PromptInput) []domain.Message {
	messages := []domain.Message{
		{Role: "system", Content: b.persona(input)},
	}
	if input.ContextBlock != "" {
		messages = append(messages, domain.Message{
			Role:    "system",
			Content: b.grounding(input),
		})
	}
	messages = append(messages, domain.Message{Role: "user", Content: input.Query})
	return messages
}

func (b *CampusPromptBuilder) persona(input PromptInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the official virtual academic assistant of %s.\n\n", b.campusName)

	if input.UserName != "" {
		fmt.Fprintf(&sb, "Address the user naturally by their name (%s) when appropriate.\n\n", input.UserName)
	}

	sb.WriteString("VOICE & TONE:\n")
	fmt.Fprintf(&sb, "- Speak directly as %s\n", b.campusName)
	sb.WriteString("- NEVER say \"based on the handbook\", \"according to the information\" or \"as stated in the document\"\n")
	sb.WriteString("- Speak confidently and naturally, as the campus assistant\n\n")

	sb.WriteString("ANSWER FORMAT:\n")
	sb.WriteString("1. Start with a short, direct answer (1-2 sentences)\n")
	sb.WriteString("2. Follow with one clear section title\n")
	sb.WriteString("3. Use bullet points for details, consistently formatted\n\n")

	sb.WriteString("SOURCE RULES:\n")
	sb.WriteString("- Priority order: CAMPUS, then GLOBAL, then SHS (only if explicitly asked)\n")
	sb.WriteString("- If CAMPUS content is provided, it is the ONLY source of truth; do not add or guess missing info\n")
	sb.WriteString("- Rephrase in your own words; never copy text verbatim\n")
	sb.WriteString("- NEVER merge campus and global information\n\n")

	if b.contactLine != "" {
		sb.WriteString("CONTACT RULE:\n")
		fmt.Fprintf(&sb, "- When contact, confirmation, enrollment or updates are mentioned, end with this line: %s\n\n", b.contactLine)
	}

	sb.WriteString("RESTRICTIONS:\n")
	sb.WriteString("- NEVER mention other campuses\n")
	sb.WriteString("- NEVER mention junior high school\n")
	sb.WriteString("- Do not invent phone numbers, emails or links\n")
	fmt.Fprintf(&sb, "- Language: %s\n", languageName(input.Language))

	return sb.String()
}

func (b *CampusPromptBuilder) grounding(input PromptInput) string {
	var sb strings.Builder
	sb.WriteString("REFERENCE INFORMATION (FOR FACTUAL GUIDANCE ONLY):\n\n")
	sb.WriteString("HOW TO USE THIS INFORMATION:\n")
	sb.WriteString("- Use this ONLY as factual grounding\n")
	sb.WriteString("- Keep ALL program names, fees, numbers and policies EXACT\n")
	sb.WriteString("- You may add brief clarifications in your own words, but NEVER invent details\n")
	sb.WriteString("- If information is missing, clearly state that it is NOT LISTED in the campus handbook\n\n")

	if input.Topic == domain.TopicTuition && input.Scope == domain.ScopeCampus {
		sb.WriteString("STRICT TUITION MODE:\nShow the tuition fees exactly as written.\n\n")
	}

	sb.WriteString("FACTS:\n")
	sb.WriteString(input.ContextBlock)
	return sb.String()
}

func languageName(lang domain.Language) string {
	if lang == domain.LanguageTagalog {
		return "Tagalog"
	}
	return "English"
}
