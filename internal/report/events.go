package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event is the payload pushed to event-stream subscribers.
type Event struct {
	RunID    string    `json:"runId"`
	Type     string    `json:"type"`
	Progress *Progress `json:"progress,omitempty"`
	Message  string    `json:"message,omitempty"`
	Job      any       `json:"job,omitempty"`
	Time     time.Time `json:"time"`
}

const subscriberBuffer = 64

// EventHub is a Reporter that broadcasts events as server-sent events.
// Slow subscribers miss events instead of blocking the run.
type EventHub struct {
	runID string
	now   func() time.Time

	mu     sync.Mutex
	subs   map[chan Event]struct{}
	last   *Event
	closed bool
}

// NewEventHub creates a hub tagging events with runID.
func NewEventHub(runID string) *EventHub {
	return &EventHub{
		runID: runID,
		now:   time.Now,
		subs:  make(map[chan Event]struct{}),
	}
}

func (h *EventHub) OnProgress(p Progress) {
	h.publish(Event{Type: "progress", Progress: &p})
}

func (h *EventHub) OnBatchSuccess(message string) {
	h.publish(Event{Type: "success", Message: message})
}

func (h *EventHub) OnWarning(message string) {
	h.publish(Event{Type: "warning", Message: message})
}

func (h *EventHub) OnError(message string) {
	h.publish(Event{Type: "error", Message: message})
}

// OnJob publishes a file-level status change.
func (h *EventHub) OnJob(job any) {
	h.publish(Event{Type: "job", Job: job})
}

// Subscribe registers a subscriber. The latest progress event, if any, is
// delivered first. cancel must be called to release the subscription.
func (h *EventHub) Subscribe() (events <-chan Event, cancel func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		close(ch)
		h.mu.Unlock()
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	if h.last != nil {
		ch <- *h.last
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Close ends every subscription.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
}

func (h *EventHub) publish(ev Event) {
	ev.RunID = h.runID
	ev.Time = h.now()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if ev.Type == "progress" {
		last := ev
		h.last = &last
	}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// ServeHTTP streams events as text/event-stream until the client leaves or
// the hub is closed.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
