package usecase_test

import (
	"context"
	"testing"

	"campus-assist/internal/domain"
	"campus-assist/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newResolver(chunkRepo *MockChunkRepository, encoder *MockVectorEncoder) usecase.ResolveContextUsecase {
	classifier := domain.NewKeywordClassifier()
	return usecase.NewResolveContextUsecase(
		chunkRepo, encoder, classifier,
		usecase.NewQueryExpander(classifier),
		usecase.DefaultRetrievalConfig(),
		testLogger(),
	)
}

func stubEncode(encoder *MockVectorEncoder) {
	encoder.On("Encode", mock.Anything, mock.Anything).Return([][]float32{{0.1, 0.2, 0.3}}, nil)
}

func TestResolveContext_CampusWinsFirst(t *testing.T) {
	chunkRepo := new(MockChunkRepository)
	encoder := new(MockVectorEncoder)
	stubEncode(encoder)

	campusHits := []domain.Passage{passage("Fees", "Tuition is 15000.", 0.12)}
	chunkRepo.On("Search", mock.Anything, mock.Anything, domain.ScopeCampus, 5).Return(campusHits, nil)

	out, err := newResolver(chunkRepo, encoder).Execute(context.Background(), usecase.ResolveContextInput{
		Query: "how much is the tuition",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ScopeCampus, out.Scope)
	assert.Equal(t, domain.TopicTuition, out.Topic)
	assert.Equal(t, campusHits, out.Passages)
	// Campus accepts even a very low similarity score, and the lower
	// priority scopes are never searched.
	chunkRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, domain.ScopeGlobal, mock.Anything)
}

func TestResolveContext_FallsThroughToGlobal(t *testing.T) {
	chunkRepo := new(MockChunkRepository)
	encoder := new(MockVectorEncoder)
	stubEncode(encoder)

	chunkRepo.On("Search", mock.Anything, mock.Anything, domain.ScopeCampus, 5).Return([]domain.Passage{}, nil)
	globalHits := []domain.Passage{
		passage("Policies", "Refund policy applies.", 0.52),
		passage("Policies", "Low relevance.", 0.30),
	}
	chunkRepo.On("Search", mock.Anything, mock.Anything, domain.ScopeGlobal, 5).Return(globalHits, nil)

	out, err := newResolver(chunkRepo, encoder).Execute(context.Background(), usecase.ResolveContextInput{
		Query: "what is the refund policy",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ScopeGlobal, out.Scope)
	// Below-threshold global hits are dropped.
	assert.Len(t, out.Passages, 1)
	assert.Equal(t, float32(0.52), out.Passages[0].Score)
}

func TestResolveContext_GlobalAllBelowThresholdYieldsNone(t *testing.T) {
	chunkRepo := new(MockChunkRepository)
	encoder := new(MockVectorEncoder)
	stubEncode(encoder)

	chunkRepo.On("Search", mock.Anything, mock.Anything, domain.ScopeCampus, 5).Return([]domain.Passage{}, nil)
	chunkRepo.On("Search", mock.Anything, mock.Anything, domain.ScopeGlobal, 5).Return([]domain.Passage{
		passage("", "barely related", 0.2),
	}, nil)

	out, err := newResolver(chunkRepo, encoder).Execute(context.Background(), usecase.ResolveContextInput{
		Query: "what is the refund policy",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ScopeNone, out.Scope)
	assert.Empty(t, out.Passages)
	// shs is topic-gated and this query is not about senior high.
	chunkRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, domain.ScopeSHS, mock.Anything)
}

func TestResolveContext_SHSOnlySearchedWhenAsked(t *testing.T) {
	chunkRepo := new(MockChunkRepository)
	encoder := new(MockVectorEncoder)
	stubEncode(encoder)

	chunkRepo.On("Search", mock.Anything, mock.Anything, domain.ScopeCampus, 5).Return([]domain.Passage{}, nil)
	chunkRepo.On("Search", mock.Anything, mock.Anything, domain.ScopeGlobal, 5).Return([]domain.Passage{}, nil)
	shsHits := []domain.Passage{passage("Strands", "STEM and ABM are offered.", 0.61)}
	chunkRepo.On("Search", mock.Anything, mock.Anything, domain.ScopeSHS, 5).Return(shsHits, nil)

	out, err := newResolver(chunkRepo, encoder).Execute(context.Background(), usecase.ResolveContextInput{
		Query: "what strands are offered in senior high",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ScopeSHS, out.Scope)
	assert.Equal(t, domain.TopicSHS, out.Topic)
	assert.Equal(t, shsHits, out.Passages)
}

func TestResolveContext_ForcedTopicSkipsClassification(t *testing.T) {
	chunkRepo := new(MockChunkRepository)
	encoder := new(MockVectorEncoder)
	stubEncode(encoder)

	chunkRepo.On("Search", mock.Anything, mock.Anything, domain.ScopeCampus, 5).Return([]domain.Passage{
		passage("Fees", "Installment plans exist.", 0.4),
	}, nil)

	// The text alone would classify as general; the forced topic keeps the
	// follow-up on tuition.
	out, err := newResolver(chunkRepo, encoder).Execute(context.Background(), usecase.ResolveContextInput{
		Query:       "and the schedule for that?",
		ForcedTopic: domain.TopicTuition,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.TopicTuition, out.Topic)
}

func TestResolveContext_EmptyQuery(t *testing.T) {
	out, err := newResolver(new(MockChunkRepository), new(MockVectorEncoder)).Execute(
		context.Background(), usecase.ResolveContextInput{Query: ""})
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestResolveContext_EncoderFailure(t *testing.T) {
	chunkRepo := new(MockChunkRepository)
	encoder := new(MockVectorEncoder)
	encoder.On("Encode", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	out, err := newResolver(chunkRepo, encoder).Execute(context.Background(), usecase.ResolveContextInput{
		Query: "how much is the tuition",
	})

	assert.Error(t, err)
	assert.Nil(t, out)
	chunkRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
