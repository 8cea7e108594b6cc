package usecase_test

import (
	"strings"
	"testing"

	"campus-assist/internal/domain"
	"campus-assist/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestQueryExpander_Expand(t *testing.T) {
	expander := usecase.NewQueryExpander(domain.NewKeywordClassifier())

	t.Run("Tuition queries get fee keywords", func(t *testing.T) {
		out := expander.Expand("how much is the tuition")
		assert.True(t, strings.HasPrefix(out, "how much is the tuition"))
		assert.Contains(t, out, "tuition fees per semester")
	})

	t.Run("Program queries get offerings keywords", func(t *testing.T) {
		out := expander.Expand("what courses are available")
		assert.Contains(t, out, "program offerings")
	})

	t.Run("General queries pass through unchanged", func(t *testing.T) {
		assert.Equal(t, "where is the library", expander.Expand("where is the library"))
	})

	t.Run("Raw query is always the prefix", func(t *testing.T) {
		queries := []string{
			"how much is the tuition",
			"what strands are offered",
			"admission requirements",
			"where is the gym",
		}
		for _, q := range queries {
			assert.True(t, strings.HasPrefix(expander.Expand(q), q), "query: %s", q)
		}
	})
}

func TestQueryExpander_ExpandForTopic(t *testing.T) {
	expander := usecase.NewQueryExpander(domain.NewKeywordClassifier())

	// A forced topic overrides whatever the text itself classifies to.
	out := expander.ExpandForTopic("and the schedule?", domain.TopicTuition)
	assert.Contains(t, out, "tuition fees per semester")
	assert.True(t, strings.HasPrefix(out, "and the schedule?"))

	assert.Equal(t, "anything", expander.ExpandForTopic("anything", domain.TopicGeneral))
}
