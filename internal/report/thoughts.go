package report

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

var thoughtsRule = strings.Repeat("=", 80)

// ThoughtsLog appends model reasoning to a file, one section per batch.
type ThoughtsLog struct {
	path string
	mu   sync.Mutex
}

// NewThoughtsLog creates a log appending to path.
func NewThoughtsLog(path string) *ThoughtsLog {
	return &ThoughtsLog{path: path}
}

// Path returns the log file location.
func (l *ThoughtsLog) Path() string {
	return l.path
}

// Append writes the thoughts of batch. retry > 0 marks a retried attempt.
func (l *ThoughtsLog) Append(batch, retry int, thoughts string) error {
	if strings.TrimSpace(thoughts) == "" {
		return nil
	}

	header := fmt.Sprintf("Batch %d thoughts:", batch)
	if retry > 0 {
		header = fmt.Sprintf("Batch %d.%d thoughts (retry):", batch, retry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open thoughts log: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "\n%s\n\n%s\n\n%s\n\n%s\n\n", thoughtsRule, header, thoughtsRule, thoughts)
	if err != nil {
		return fmt.Errorf("failed to write thoughts log: %w", err)
	}
	return nil
}
