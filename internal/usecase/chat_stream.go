package usecase

import (
	"context"
	"log/slog"
	"strings"

	"campus-assist/internal/domain"
)

// StreamEventKind tags the events emitted while streaming an answer.
type StreamEventKind string

const (
	StreamEventKindMeta  StreamEventKind = "meta"
	StreamEventKindDelta StreamEventKind = "delta"
	StreamEventKindDone  StreamEventKind = "done"
	StreamEventKindError StreamEventKind = "error"
)

// StreamEvent is one server-sent event of a streamed chat turn.
type StreamEvent struct {
	Kind    StreamEventKind
	Payload interface{}
}

// StreamMeta is sent before the first delta so the client can render
// provenance while tokens arrive.
type StreamMeta struct {
	Scope    domain.Scope
	Topic    domain.Topic
	Passages []domain.Passage
	Language domain.Language
}

// Stream produces the turn as a one-way event stream. Cancellation is
// cooperative: when the client context ends the producer stops emitting, but
// the inquiry record and memory update still run to completion in a
// background continuation.
func (u *chatUsecase) Stream(ctx context.Context, input ChatInput) <-chan StreamEvent {
	events := make(chan StreamEvent, 4)
	go func() {
		defer close(events)

		st, err := u.prepare(ctx, input)
		if err != nil {
			u.send(ctx, events, StreamEvent{Kind: StreamEventKindError, Payload: err.Error()})
			return
		}

		meta := StreamMeta{Scope: st.scope, Topic: st.topic, Passages: st.passages, Language: st.language}
		if !u.send(ctx, events, StreamEvent{Kind: StreamEventKindMeta, Payload: meta}) {
			return
		}

		if st.terminal {
			u.send(ctx, events, StreamEvent{Kind: StreamEventKindDelta, Payload: st.terminalAnswer})
			u.send(ctx, events, StreamEvent{Kind: StreamEventKindDone, Payload: st.output(st.terminalAnswer)})
			return
		}

		cacheKey := u.cacheKey(st)
		if u.cache != nil {
			if cached, ok := u.cache.Get(cacheKey); ok {
				u.logger.Info("streaming_cached_answer", slog.String("session_id", input.SessionID))
				u.send(ctx, events, StreamEvent{Kind: StreamEventKindDelta, Payload: cached.Answer})
				u.send(ctx, events, StreamEvent{Kind: StreamEventKindDone, Payload: &cached})
				u.recordAsync(ctx, input.SessionID, st, cached.Answer, domain.InquiryStatusSolved)
				return
			}
		}

		chunkCh, errCh, err := u.llm.ChatStream(ctx, st.messages, u.maxTokens)
		if err != nil {
			apology := apologyProvider(st.language)
			u.send(ctx, events, StreamEvent{Kind: StreamEventKindDelta, Payload: apology})
			u.send(ctx, events, StreamEvent{Kind: StreamEventKindDone, Payload: st.output(apology)})
			u.recordAsync(ctx, input.SessionID, st, apology, domain.InquiryStatusUnresolved)
			return
		}

		var full strings.Builder
		failed := false
		for chunkCh != nil || errCh != nil {
			select {
			case <-ctx.Done():
				// Client went away. Stop emitting; whatever was already
				// generated still gets recorded below.
				chunkCh, errCh = nil, nil
			case chunk, ok := <-chunkCh:
				if !ok {
					chunkCh = nil
					continue
				}
				if chunk.Delta != "" {
					full.WriteString(chunk.Delta)
					u.send(ctx, events, StreamEvent{Kind: StreamEventKindDelta, Payload: chunk.Delta})
				}
				if chunk.Done {
					chunkCh, errCh = nil, nil
				}
			case streamErr, ok := <-errCh:
				if !ok {
					errCh = nil
					continue
				}
				u.logger.Error("generation_stream_failed",
					slog.String("session_id", input.SessionID),
					slog.String("error", streamErr.Error()))
				failed = true
				chunkCh, errCh = nil, nil
			}
		}

		answer := full.String()
		status := st.status()
		if failed && answer == "" {
			answer = apologyProvider(st.language)
			status = domain.InquiryStatusUnresolved
			u.send(ctx, events, StreamEvent{Kind: StreamEventKindDelta, Payload: answer})
		} else if failed {
			status = domain.InquiryStatusPartial
		}

		out := st.output(answer)
		u.send(ctx, events, StreamEvent{Kind: StreamEventKindDone, Payload: out})

		if !failed && u.cache != nil {
			u.cache.Add(cacheKey, *out)
		}
		u.recordAsync(ctx, input.SessionID, st, answer, status)
	}()
	return events
}

// recordAsync persists the exchange after the stream closes, detached from
// the request context so a client disconnect cannot cancel it.
func (u *chatUsecase) recordAsync(ctx context.Context, sessionID string, st *turnState, answer string, status domain.InquiryStatus) {
	bg := context.WithoutCancel(ctx)
	go u.finalize(bg, sessionID, st, answer, status)
}

func (u *chatUsecase) send(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
