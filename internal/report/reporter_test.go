package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) OnProgress(p Progress)         { m.Called(p) }
func (m *mockReporter) OnBatchSuccess(message string) { m.Called(message) }
func (m *mockReporter) OnWarning(message string)      { m.Called(message) }
func (m *mockReporter) OnError(message string)        { m.Called(message) }

func TestNewProgress(t *testing.T) {
	assert.Equal(t, 50.0, NewProgress(5, 10, "").Percentage)
	assert.Equal(t, 100.0, NewProgress(12, 10, "").Percentage)
	assert.Zero(t, NewProgress(3, 0, "").Percentage)
}

func TestMultiFansOut(t *testing.T) {
	a := &mockReporter{}
	b := &mockReporter{}
	p := NewProgress(1, 2, "sending")
	for _, m := range []*mockReporter{a, b} {
		m.On("OnProgress", p).Once()
		m.On("OnBatchSuccess", "Batch 1 completed").Once()
		m.On("OnWarning", "careful").Once()
		m.On("OnError", "boom").Once()
	}

	multi := NewMulti(a, nil, b)
	multi.OnProgress(p)
	multi.OnBatchSuccess("Batch 1 completed")
	multi.OnWarning("careful")
	multi.OnError("boom")

	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestTranscript(t *testing.T) {
	tr := NewTranscript()
	path := filepath.Join(t.TempDir(), "progress.log")

	require.NoError(t, tr.Save(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	tr.OnProgress(NewProgress(3, 4, ""))
	tr.OnBatchSuccess("Batch 1 completed")
	tr.OnWarning("Index 9 not found in original batch")
	require.NoError(t, tr.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Progress: 3/4 (75%)\n\nMessages:\nBatch 1 completed\nIndex 9 not found in original batch", string(data))
}

func TestThoughtsLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thoughts.log")
	l := NewThoughtsLog(path)

	require.NoError(t, l.Append(1, 0, "first pass"))
	require.NoError(t, l.Append(2, 1, "second try"))
	require.NoError(t, l.Append(3, 0, "   "))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	rule := strings.Repeat("=", 80)
	assert.Contains(t, content, "\n"+rule+"\n\nBatch 1 thoughts:\n\n"+rule+"\n\nfirst pass\n\n")
	assert.Contains(t, content, "Batch 2.1 thoughts (retry):")
	assert.NotContains(t, content, "Batch 3")
}

func TestTerminalWritesPlainTextWhenNotATTY(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, true)

	term.OnProgress(NewProgress(1, 10, "Sending batch"))
	term.OnWarning("Batch processing failed, retrying")
	term.Finish()

	out := buf.String()
	assert.Contains(t, out, "Batch processing failed, retrying")
	assert.NotContains(t, out, "\x1b[33m")
	assert.False(t, ShouldColorize(&buf))
}
