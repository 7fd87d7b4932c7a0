package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

// Executor translates the file behind job.
type Executor func(ctx context.Context, job *Job) (Result, error)

// Observer receives a snapshot after every status change.
type Observer func(job Job)

type Queue struct {
	workerCount int
	observer    Observer

	mu        sync.RWMutex
	jobs      map[string]*Job
	order     []string
	dedupe    map[string]string
	idCounter uint64
}

type Option func(*Queue)

// WithObserver registers fn for status changes.
func WithObserver(fn Observer) Option {
	return func(q *Queue) {
		q.observer = fn
	}
}

func NewQueue(workerCount int, opts ...Option) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	q := &Queue{
		workerCount: workerCount,
		jobs:        make(map[string]*Job),
		dedupe:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds a file. The same input is only queued once while it is not
// finished; the existing job is returned with created=false.
func (q *Queue) Enqueue(req EnqueueRequest) (*Job, bool) {
	now := time.Now()
	key := dedupeKey(req.Input)

	q.mu.Lock()
	if id, ok := q.dedupe[key]; ok {
		if existing, exists := q.jobs[id]; exists && !existing.Status.Terminal() {
			snapshot := cloneJob(existing)
			q.mu.Unlock()
			return snapshot, false
		}
		delete(q.dedupe, key)
	}

	id := fmt.Sprintf("job-%d", atomic.AddUint64(&q.idCounter, 1))
	job := &Job{
		ID:        id,
		Input:     req.Input,
		Output:    req.Output,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.jobs[id] = job
	q.order = append(q.order, id)
	q.dedupe[key] = id
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.notify(snapshot)
	return snapshot, true
}

func (q *Queue) Get(id string) (*Job, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

// List returns the jobs in the order they were queued.
func (q *Queue) List() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*Job, 0, len(q.order))
	for _, id := range q.order {
		ret = append(ret, cloneJob(q.jobs[id]))
	}
	return ret
}

// Counts tallies jobs by status.
func (q *Queue) Counts() map[Status]int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	counts := make(map[Status]int)
	for _, job := range q.jobs {
		counts[job.Status]++
	}
	return counts
}

// Run executes every pending job and returns when all of them are terminal.
// Once ctx is cancelled the jobs not yet started are marked skipped and
// ctx.Err() is returned.
func (q *Queue) Run(ctx context.Context, exec Executor) error {
	q.mu.RLock()
	pending := make([]string, 0, len(q.order))
	for _, id := range q.order {
		if q.jobs[id].Status == StatusPending {
			pending = append(pending, id)
		}
	}
	q.mu.RUnlock()

	var g errgroup.Group
	g.SetLimit(q.workerCount)
	for _, id := range pending {
		if ctx.Err() != nil {
			q.finish(id, StatusSkipped, Result{}, ctx.Err())
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				q.finish(id, StatusSkipped, Result{}, ctx.Err())
				return nil
			}
			job, ok := q.markRunning(id)
			if !ok {
				return nil
			}

			res, err := exec(ctx, job)
			switch {
			case err == nil:
				q.finish(id, StatusSuccess, res, nil)
			case ctx.Err() != nil:
				q.finish(id, StatusInterrupted, res, err)
			default:
				q.finish(id, StatusFailed, res, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (q *Queue) markRunning(id string) (*Job, bool) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusPending {
		q.mu.Unlock()
		return nil, false
	}
	job.Status = StatusRunning
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.notify(snapshot)
	return snapshot, true
}

func (q *Queue) finish(id string, status Status, res Result, err error) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	job.Status = status
	job.Error = ""
	if err != nil {
		job.Error = err.Error()
	}
	job.Total = res.Total
	job.StartLine = res.StartLine
	job.NextLine = res.NextLine
	job.Done = res.Translated
	job.Warnings = res.Warnings
	job.Duration = res.Duration
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	if status == StatusFailed {
		log.Error("Job %s (%s) failed: %v", id, snapshot.Input, err)
	}
	q.notify(snapshot)
}

func (q *Queue) notify(job *Job) {
	if q.observer != nil && job != nil {
		q.observer(*job)
	}
}

func dedupeKey(input string) string {
	if abs, err := filepath.Abs(input); err == nil {
		return abs
	}
	return filepath.Clean(input)
}

func cloneJob(job *Job) *Job {
	if job == nil {
		return nil
	}
	tmp := *job
	return &tmp
}
