package domain_test

import (
	"testing"

	"campus-assist/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestProgressHub_FanOut(t *testing.T) {
	hub := domain.NewProgressHub()
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Publish(domain.ProgressEvent{Percent: 40, Stage: "Chunking text"})

	assert.Equal(t, domain.ProgressEvent{Percent: 40, Stage: "Chunking text"}, <-a)
	assert.Equal(t, domain.ProgressEvent{Percent: 40, Stage: "Chunking text"}, <-b)
}

func TestProgressHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := domain.NewProgressHub()
	sub := hub.Subscribe()

	// Saturate the buffer and keep publishing; Publish must never block.
	for i := 0; i < 50; i++ {
		hub.Publish(domain.ProgressEvent{Percent: i, Stage: "Embedding"})
	}

	received := 0
	for {
		select {
		case <-sub:
			received++
			continue
		default:
		}
		break
	}
	assert.Greater(t, received, 0)
	assert.Less(t, received, 50)
}

func TestProgressHub_LateSubscriberMissesEarlierEvents(t *testing.T) {
	hub := domain.NewProgressHub()
	hub.Publish(domain.ProgressEvent{Percent: 5, Stage: "Reading document"})

	sub := hub.Subscribe()
	select {
	case ev := <-sub:
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func TestProgressHub_Unsubscribe(t *testing.T) {
	hub := domain.NewProgressHub()
	sub := hub.Subscribe()
	hub.Unsubscribe(sub)

	// Channel is closed; publishing afterwards must not panic.
	hub.Publish(domain.ProgressEvent{Percent: 100, Stage: "Upload completed"})

	_, open := <-sub
	assert.False(t, open)

	// Double unsubscribe is a no-op.
	hub.Unsubscribe(sub)
}
