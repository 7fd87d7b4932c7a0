// Package report delivers translation progress to the terminal, log files
// and event-stream subscribers.
package report

import "sync"

// Progress is a snapshot of how far a run has come.
type Progress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message"`
}

// NewProgress computes the percentage for current out of total.
func NewProgress(current, total int, message string) Progress {
	p := Progress{Current: current, Total: total, Message: message}
	if total > 0 {
		p.Percentage = float64(min(max(current, 0), total)) * 100 / float64(total)
	}
	return p
}

// Reporter receives run events. Implementations must not block for long.
type Reporter interface {
	OnProgress(p Progress)
	OnBatchSuccess(message string)
	OnWarning(message string)
	OnError(message string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) OnProgress(Progress)   {}
func (Nop) OnBatchSuccess(string) {}
func (Nop) OnWarning(string)      {}
func (Nop) OnError(string)        {}

// Multi fans events out to several reporters in order.
type Multi struct {
	mu        sync.Mutex
	reporters []Reporter
}

// NewMulti combines reporters, skipping nil ones.
func NewMulti(reporters ...Reporter) *Multi {
	m := &Multi{}
	for _, r := range reporters {
		m.Add(r)
	}
	return m
}

// Add appends a reporter.
func (m *Multi) Add(r Reporter) {
	if r == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporters = append(m.reporters, r)
}

func (m *Multi) each(fn func(Reporter)) {
	m.mu.Lock()
	reporters := append([]Reporter(nil), m.reporters...)
	m.mu.Unlock()
	for _, r := range reporters {
		fn(r)
	}
}

func (m *Multi) OnProgress(p Progress) {
	m.each(func(r Reporter) { r.OnProgress(p) })
}

func (m *Multi) OnBatchSuccess(message string) {
	m.each(func(r Reporter) { r.OnBatchSuccess(message) })
}

func (m *Multi) OnWarning(message string) {
	m.each(func(r Reporter) { r.OnWarning(message) })
}

func (m *Multi) OnError(message string) {
	m.each(func(r Reporter) { r.OnError(message) })
}
