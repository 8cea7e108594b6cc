package usecase_test

import (
	"context"
	"testing"
	"time"

	"campus-assist/internal/domain"
	"campus-assist/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func collectEvents(t *testing.T, events <-chan usecase.StreamEvent) []usecase.StreamEvent {
	t.Helper()
	var out []usecase.StreamEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream events")
		}
	}
}

func streamChannels(chunks ...domain.StreamChunk) (<-chan domain.StreamChunk, <-chan error) {
	chunkCh := make(chan domain.StreamChunk, len(chunks))
	for _, c := range chunks {
		chunkCh <- c
	}
	close(chunkCh)
	errCh := make(chan error, 1)
	return chunkCh, errCh
}

func TestStream_DeltasThenDone(t *testing.T) {
	f := newChatFixture(0)
	f.stubEmptySession()
	f.inquiries.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.resolver.On("Execute", mock.Anything, mock.Anything).Return(&usecase.ResolveContextOutput{
		Scope:    domain.ScopeCampus,
		Topic:    domain.TopicTuition,
		Passages: []domain.Passage{passage("Fees", "Tuition is 15000.", 0.8)},
	}, nil)

	chunkCh, errCh := streamChannels(
		domain.StreamChunk{Delta: "Tuition is "},
		domain.StreamChunk{Delta: "15000.", Done: true},
	)
	f.llm.On("ChatStream", mock.Anything, mock.Anything, 768).Return(chunkCh, errCh, nil)

	events := collectEvents(t, f.uc.Stream(context.Background(), usecase.ChatInput{
		Message:   "how much is the tuition",
		SessionID: "s1",
	}))

	assert.Equal(t, usecase.StreamEventKindMeta, events[0].Kind)
	meta := events[0].Payload.(usecase.StreamMeta)
	assert.Equal(t, domain.ScopeCampus, meta.Scope)

	var text string
	for _, ev := range events {
		if ev.Kind == usecase.StreamEventKindDelta {
			text += ev.Payload.(string)
		}
	}
	assert.Equal(t, "Tuition is 15000.", text)

	last := events[len(events)-1]
	assert.Equal(t, usecase.StreamEventKindDone, last.Kind)
	assert.Equal(t, "Tuition is 15000.", last.Payload.(*usecase.ChatOutput).Answer)
}

func TestStream_TerminalAnswerIsReplayed(t *testing.T) {
	f := newChatFixture(0)

	events := collectEvents(t, f.uc.Stream(context.Background(), usecase.ChatInput{
		Message:   "should I buy bitcoin",
		SessionID: "s1",
	}))

	assert.Equal(t, usecase.StreamEventKindMeta, events[0].Kind)
	assert.Equal(t, usecase.StreamEventKindDelta, events[1].Kind)
	assert.Equal(t, "Sorry, I can't help with this question.", events[1].Payload.(string))
	assert.Equal(t, usecase.StreamEventKindDone, events[2].Kind)
	f.llm.AssertNotCalled(t, "ChatStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestStream_ProviderFailureBeforeFirstToken(t *testing.T) {
	f := newChatFixture(0)
	f.stubEmptySession()
	f.inquiries.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.resolver.On("Execute", mock.Anything, mock.Anything).Return(&usecase.ResolveContextOutput{
		Scope: domain.ScopeNone,
		Topic: domain.TopicGeneral,
	}, nil)
	f.llm.On("ChatStream", mock.Anything, mock.Anything, 768).Return(nil, nil, assert.AnError)

	events := collectEvents(t, f.uc.Stream(context.Background(), usecase.ChatInput{
		Message:   "where is the gym located",
		SessionID: "s1",
	}))

	var text string
	for _, ev := range events {
		if ev.Kind == usecase.StreamEventKindDelta {
			text += ev.Payload.(string)
		}
	}
	assert.Equal(t, "Sorry, I'm having trouble answering right now. Please try again later.", text)
	assert.Equal(t, usecase.StreamEventKindDone, events[len(events)-1].Kind)
}

func TestStream_MidStreamFailureKeepsPartialText(t *testing.T) {
	f := newChatFixture(0)
	f.stubEmptySession()
	f.inquiries.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.resolver.On("Execute", mock.Anything, mock.Anything).Return(&usecase.ResolveContextOutput{
		Scope:    domain.ScopeCampus,
		Topic:    domain.TopicGeneral,
		Passages: []domain.Passage{passage("", "facts here now", 0.8)},
	}, nil)

	// Unbuffered channels guarantee the delta is consumed before the error.
	chunkCh := make(chan domain.StreamChunk)
	errCh := make(chan error)
	go func() {
		chunkCh <- domain.StreamChunk{Delta: "Partial answer"}
		errCh <- assert.AnError
	}()
	f.llm.On("ChatStream", mock.Anything, mock.Anything, 768).
		Return((<-chan domain.StreamChunk)(chunkCh), (<-chan error)(errCh), nil)

	events := collectEvents(t, f.uc.Stream(context.Background(), usecase.ChatInput{
		Message:   "where is the gym located",
		SessionID: "s1",
	}))

	last := events[len(events)-1]
	assert.Equal(t, usecase.StreamEventKindDone, last.Kind)
	out := last.Payload.(*usecase.ChatOutput)
	assert.Equal(t, "Partial answer", out.Answer)
}

func TestStream_PrepareErrorEmitsErrorEvent(t *testing.T) {
	f := newChatFixture(0)

	events := collectEvents(t, f.uc.Stream(context.Background(), usecase.ChatInput{
		Message:   "",
		SessionID: "s1",
	}))

	assert.Len(t, events, 1)
	assert.Equal(t, usecase.StreamEventKindError, events[0].Kind)
}
