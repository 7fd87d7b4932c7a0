package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/gemini-sub-translator/internal/jobs"
	"github.com/MimeLyc/gemini-sub-translator/internal/report"
)

func newTestQueue(t *testing.T) (*jobs.Queue, *jobs.Job) {
	t.Helper()
	queue := jobs.NewQueue(1)
	job, created := queue.Enqueue(jobs.EnqueueRequest{Input: "movie.srt", Output: "movie_Spanish.srt"})
	require.True(t, created)
	return queue, job
}

func TestServer_ListJobs(t *testing.T) {
	queue, job := newTestQueue(t)
	srv := NewServer(queue, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp jobsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, job.ID, resp.Jobs[0].ID)
	assert.Equal(t, "movie_Spanish.srt", resp.Jobs[0].Output)
	assert.Equal(t, 1, resp.Counts[jobs.StatusPending])
}

func TestServer_JobDetail(t *testing.T) {
	queue, job := newTestQueue(t)
	srv := NewServer(queue, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got jobs.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "movie.srt", got.Input)

	req = httptest.NewRequest(http.MethodGet, "/api/jobs/job-999", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	queue, _ := newTestQueue(t)
	srv := NewServer(queue, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_EventsDisabled(t *testing.T) {
	queue, _ := newTestQueue(t)
	srv := NewServer(queue, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ServeStreamsEvents(t *testing.T) {
	queue, _ := newTestQueue(t)
	hub := report.NewEventHub("run-1")
	hub.OnProgress(report.NewProgress(2, 10, "Sending batch..."))
	srv := NewServer(queue, hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+ln.Addr().String()+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var ev report.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &ev))
	assert.Equal(t, "progress", ev.Type)
	assert.Equal(t, 2, ev.Progress.Current)

	hub.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	require.NoError(t, srv.Shutdown(shutdownCtx))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}
