package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Topic is a coarse intent category detected from a user query.
// It drives query expansion and scope gating.
type Topic string

const (
	TopicTuition    Topic = "tuition"
	TopicPrograms   Topic = "programs"
	TopicSHS        Topic = "shs"
	TopicEnrollment Topic = "enrollment"
	TopicGeneral    Topic = "general"
)

// ParseTopic validates a topic name supplied by a caller.
func ParseTopic(raw string) (Topic, error) {
	switch t := Topic(raw); t {
	case TopicTuition, TopicPrograms, TopicSHS, TopicEnrollment, TopicGeneral:
		return t, nil
	}
	return "", fmt.Errorf("unknown topic: %q", raw)
}

// TopicClassifier maps a raw query to a Topic. The default implementation is
// keyword-based; the interface exists so a learned classifier can replace it
// without touching the resolver.
type TopicClassifier interface {
	Classify(text string) Topic
}

var (
	tuitionRe    = regexp.MustCompile(`(?i)\b(tuition|fee|fees|magkano|bayad|payment)\b`)
	programsRe   = regexp.MustCompile(`(?i)\b(course|courses|program|programs|degree|offered|available|inooffer|kurso)\b`)
	shsRe        = regexp.MustCompile(`(?i)\b(shs|senior high|grade 11|grade 12|strand|strands)\b`)
	enrollmentRe = regexp.MustCompile(`(?i)\b(enroll|enrollment|admission|transferee|requirements)\b`)
)

type keywordClassifier struct{}

// NewKeywordClassifier returns the default keyword/regex topic classifier.
func NewKeywordClassifier() TopicClassifier {
	return keywordClassifier{}
}

// Classify checks topic patterns in a fixed order. SHS wins over programs so
// that "what strands do you offer" gates to the shs scope.
func (keywordClassifier) Classify(text string) Topic {
	switch {
	case shsRe.MatchString(text):
		return TopicSHS
	case tuitionRe.MatchString(text):
		return TopicTuition
	case programsRe.MatchString(text):
		return TopicPrograms
	case enrollmentRe.MatchString(text):
		return TopicEnrollment
	}
	return TopicGeneral
}

// Language is the detected response language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTagalog Language = "tl"
)

var tagalogRe = regexp.MustCompile(`(?i)\b(ano|ang|sa|ko|mo|po|opo|kasi|lang|pwede|magkano)\b`)

// DetectLanguage picks Tagalog when common Tagalog function words appear,
// English otherwise. A heuristic, not a guarantee.
func DetectLanguage(text string) Language {
	if tagalogRe.MatchString(text) {
		return LanguageTagalog
	}
	return LanguageEnglish
}

var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(symptom|diagnose|treatment|medicine|dose)\b`),
	regexp.MustCompile(`(?i)\b(lawyer|lawsuit|legal advice|court)\b`),
	regexp.MustCompile(`(?i)\b(bitcoin|crypto|forex|stocks?|investment)\b`),
	regexp.MustCompile(`(?i)\b(hack|cheat|bypass|crack)\b`),
	regexp.MustCompile(`(?i)\b(drugs?|cocaine|weed|porn)\b`),
	regexp.MustCompile(`(?i)\b(election|vote|politics|government)\b`),
}

// IsForbiddenTopic reports whether the query falls outside what a campus
// assistant should answer (medical, legal, financial, etc.).
func IsForbiddenTopic(text string) bool {
	for _, re := range forbiddenPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

const followUpMaxLen = 40

var followUpRe = regexp.MustCompile(`(?i)^(what about|how about|and|then|so|that|it|those|them|this|next|payment|installment|schedule)\b`)

// IsFollowUp reports whether a short reply looks like a continuation of the
// previous turn. Best-effort: false positives and negatives are acceptable.
func IsFollowUp(text string) bool {
	trimmed := strings.TrimSpace(text)
	return len(trimmed) <= followUpMaxLen && followUpRe.MatchString(trimmed)
}

var memoryRecallRe = regexp.MustCompile(`(?i)(remember|recap|summary|naalala|pinag-usapan)`)

// IsMemoryRecall reports whether the user is asking what was discussed so
// far, which is answered from session memory without retrieval.
func IsMemoryRecall(text string) bool {
	return memoryRecallRe.MatchString(text)
}

var nameRe = regexp.MustCompile(`(?i)(?:my name is|i am|i'm|ako si)\s+([A-Za-zÀ-ÖØ-öø-ÿ'\-]{2,60})`)

// ExtractName pulls a self-introduced name out of the message, or "" when
// none is present.
func ExtractName(text string) string {
	m := nameRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

var markupReplacer = strings.NewReplacer("**", "", "`", "")

// CleanMessage strips chat markup the UI may echo back and trims whitespace.
func CleanMessage(text string) string {
	return strings.TrimSpace(markupReplacer.Replace(text))
}
