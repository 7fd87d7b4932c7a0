package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolateCLI gives the test its own working directory and home so no real
// configuration, .env or progress file is picked up.
func isolateCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", filepath.Join(dir, "home"))
	for _, key := range []string{
		"GEMINI_API_KEY", "GEMINI_API_KEY_2", "GST_MODEL", "GST_BASE_URL",
		"GST_TARGET_LANGUAGE", "GST_EVENTS_ADDR", "GST_OUTPUT_DIR", "GST_LOG_FILE",
	} {
		t.Setenv(key, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func runCLI(t *testing.T, args []string, stdin string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

type cue struct {
	Index   string `json:"index"`
	Content string `json:"content"`
}

// geminiStub answers generateContent by prefixing every cue of the last
// user message with "ES:" and lists a single model.
type geminiStub struct {
	mu       sync.Mutex
	requests []string
}

func (s *geminiStub) batches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *geminiStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"models":[{"name":"models/gemini-stub","displayName":"Stub","inputTokenLimit":32768,"outputTokenLimit":8192}]}`)
			return
		}

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		last := req.Contents[len(req.Contents)-1]
		text := last.Parts[0].Text

		s.mu.Lock()
		s.requests = append(s.requests, text)
		s.mu.Unlock()

		var cues []cue
		require.NoError(t, json.Unmarshal([]byte(text), &cues))
		for i := range cues {
			cues[i].Content = "ES:" + cues[i].Content
		}
		answer, err := json.Marshal(cues)
		require.NoError(t, err)

		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": string(answer)}},
				},
			}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func startGeminiStub(t *testing.T) *geminiStub {
	t.Helper()
	stub := &geminiStub{}
	server := httptest.NewServer(stub.handler(t))
	t.Cleanup(server.Close)
	t.Setenv("GST_BASE_URL", server.URL+"/")
	return stub
}

const sampleSRT = `1
00:00:01,000 --> 00:00:02,000
Hello

2
00:00:03,000 --> 00:00:04,000
How are you?

3
00:00:05,000 --> 00:00:06,500
Goodbye
`

func writeSRT(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(sampleSRT), 0o644))
}
