package usecase

import "campus-assist/internal/domain"

// topicSuffixes carries the fixed expansion keywords per topic. Embedding
// retrieval improves when the query text lexically overlaps the target
// passages' vocabulary, so each topic appends the terms its handbook
// sections actually use.
var topicSuffixes = map[domain.Topic]string{
	domain.TopicTuition:    " estimated tuition fees per semester academic year 2025 2026",
	domain.TopicPrograms:   " program offerings courses available",
	domain.TopicSHS:        " senior high school strands offered",
	domain.TopicEnrollment: " enrollment admission requirements process",
}

// QueryExpander rewrites a raw query into a topic-enriched query string for
// embedding. The raw query always remains the prefix of the output.
type QueryExpander struct {
	classifier domain.TopicClassifier
}

// NewQueryExpander builds an expander around the given classifier.
func NewQueryExpander(classifier domain.TopicClassifier) *QueryExpander {
	return &QueryExpander{classifier: classifier}
}

// Expand appends the topic's keyword suffix to the query. Unmatched queries
// pass through unchanged. There are no error cases.
func (e *QueryExpander) Expand(query string) string {
	return e.ExpandForTopic(query, e.classifier.Classify(query))
}

// ExpandForTopic applies the suffix for an already-known topic, used when a
// follow-up carries a forced topic hint.
func (e *QueryExpander) ExpandForTopic(query string, topic domain.Topic) string {
	if suffix, ok := topicSuffixes[topic]; ok {
		return query + suffix
	}
	return query
}
