package report

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHubSubscribe(t *testing.T) {
	hub := NewEventHub("run-1")
	hub.OnProgress(NewProgress(1, 4, "start"))

	events, cancel := hub.Subscribe()
	defer cancel()

	first := <-events
	assert.Equal(t, "progress", first.Type)
	assert.Equal(t, "run-1", first.RunID)
	require.NotNil(t, first.Progress)
	assert.Equal(t, 25.0, first.Progress.Percentage)

	hub.OnWarning("slow down")
	second := <-events
	assert.Equal(t, "warning", second.Type)
	assert.Equal(t, "slow down", second.Message)

	hub.Close()
	_, ok := <-events
	assert.False(t, ok)

	// publishing after close is a no-op
	hub.OnError("late")
}

func TestEventHubServeHTTP(t *testing.T) {
	hub := NewEventHub("run-2")
	server := httptest.NewServer(hub)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// wait for the handler to register its subscription
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.subs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.OnBatchSuccess("Batch 1 completed")

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &ev))
	assert.Equal(t, "success", ev.Type)
	assert.Equal(t, "Batch 1 completed", ev.Message)

	hub.Close()
}

func TestEventHubRejectsPost(t *testing.T) {
	hub := NewEventHub("run-3")
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
