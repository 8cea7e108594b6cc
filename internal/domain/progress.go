package domain

import "sync"

// ProgressEvent reports ingestion progress to polling or streaming UIs.
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

// ProgressHub fans ingestion progress out to subscribers. Delivery is
// fire-and-forget and at most once per listener: a slow subscriber drops
// events rather than blocking the publisher, and a late subscriber misses
// everything published before it attached. Constructed once at startup and
// passed by reference; no ambient singleton.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[chan ProgressEvent]struct{}
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: make(map[chan ProgressEvent]struct{})}
}

// Subscribe registers a listener. The returned channel is buffered so a
// briefly busy listener does not immediately drop events.
func (h *ProgressHub) Subscribe() chan ProgressEvent {
	ch := make(chan ProgressEvent, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *ProgressHub) Unsubscribe(ch chan ProgressEvent) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers the event to every current subscriber without blocking.
func (h *ProgressHub) Publish(ev ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
