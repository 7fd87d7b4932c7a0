package jobs

import "time"

type Status string

const (
	StatusPending     Status = "pending"
	StatusRunning     Status = "running"
	StatusSuccess     Status = "success"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
	StatusSkipped     Status = "skipped"
)

// Terminal reports whether the job will not change again.
func (s Status) Terminal() bool {
	return s != StatusPending && s != StatusRunning
}

type EnqueueRequest struct {
	Input  string
	Output string
}

// Result is what an executor reports back for a finished file.
type Result struct {
	Total      int
	StartLine  int
	NextLine   int
	Translated int
	Warnings   int
	Duration   time.Duration
}

// Job is one subtitle file in a translate run.
type Job struct {
	ID        string        `json:"id"`
	Input     string        `json:"input"`
	Output    string        `json:"output"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Total     int           `json:"total"`
	StartLine int           `json:"start_line"`
	NextLine  int           `json:"next_line"`
	Done      int           `json:"translated"`
	Warnings  int           `json:"warnings"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
