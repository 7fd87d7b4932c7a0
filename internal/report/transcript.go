package report

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Transcript records every status message of a run so it can be written to
// a progress log when the run ends.
type Transcript struct {
	mu       sync.Mutex
	last     *Progress
	messages []string
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) OnProgress(p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = &p
}

func (t *Transcript) OnBatchSuccess(message string) { t.add(message) }
func (t *Transcript) OnWarning(message string)      { t.add(message) }
func (t *Transcript) OnError(message string)        { t.add(message) }

func (t *Transcript) add(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, message)
}

// String renders the transcript.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	if t.last != nil {
		pct := 0
		if t.last.Total > 0 {
			pct = t.last.Current * 100 / t.last.Total
		}
		fmt.Fprintf(&b, "Progress: %d/%d (%d%%)\n\n", t.last.Current, t.last.Total, pct)
	}
	b.WriteString("Messages:")
	for _, msg := range t.messages {
		b.WriteString("\n" + msg)
	}
	return b.String()
}

// Save writes the transcript to path, replacing earlier content. Nothing is
// written when no message was recorded.
func (t *Transcript) Save(path string) error {
	t.mu.Lock()
	empty := len(t.messages) == 0
	t.mu.Unlock()
	if empty {
		return nil
	}
	if err := os.WriteFile(path, []byte(t.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write progress log: %w", err)
	}
	return nil
}
