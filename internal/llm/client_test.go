package llm

import (
	"context"
	"errors"
	"iter"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	generate Chunk
	chunks   []Chunk
	err      error
	streamAt int
	models   []ModelInfo

	lastKey string
	lastReq Request
}

func (f *fakeBackend) Generate(_ context.Context, apiKey string, _ Config, req Request) (Chunk, error) {
	f.lastKey = apiKey
	f.lastReq = req
	if f.err != nil {
		return Chunk{}, f.err
	}
	return f.generate, nil
}

func (f *fakeBackend) Stream(_ context.Context, apiKey string, _ Config, req Request) iter.Seq2[Chunk, error] {
	f.lastKey = apiKey
	f.lastReq = req
	return func(yield func(Chunk, error) bool) {
		for i, c := range f.chunks {
			if f.err != nil && i == f.streamAt {
				yield(Chunk{}, f.err)
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

func (f *fakeBackend) Models(context.Context, string) ([]ModelInfo, error) {
	return f.models, f.err
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{Model: DefaultModel}, &fakeBackend{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, client.Config().Model)

	_, err = NewClient(Config{}, &fakeBackend{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	bad := -1.0
	_, err = NewClient(Config{Model: "m", Temperature: &bad}, &fakeBackend{})
	require.Error(t, err)

	_, err = NewClient(Config{Model: "m"}, nil)
	require.Error(t, err)
}

func TestCallNonStreaming(t *testing.T) {
	tests := []struct {
		name         string
		chunk        Chunk
		wantText     string
		wantThoughts string
	}{
		{
			name:     "plain answer",
			chunk:    Chunk{Text: `[{"index":"1","content":"Hola"}]`},
			wantText: `[{"index":"1","content":"Hola"}]`,
		},
		{
			name:         "thinking markers split at first close",
			chunk:        Chunk{Text: "<thinking>consider tone</thinking>\n[]</thinking>"},
			wantText:     "[]</thinking>",
			wantThoughts: "consider tone",
		},
		{
			name:     "unterminated marker keeps text",
			chunk:    Chunk{Text: "<thinking>never closed"},
			wantText: "<thinking>never closed",
		},
		{
			name:         "provider thought parts",
			chunk:        Chunk{Text: "[]", Thought: "reasoning"},
			wantText:     "[]",
			wantThoughts: "reasoning",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{generate: tt.chunk}
			client, err := NewClient(Config{Model: "gemini-2.0-flash"}, backend)
			require.NoError(t, err)

			resp, err := client.Call(context.Background(), "key-1", Request{Messages: []Message{{Role: RoleUser, Content: "[]"}}}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, resp.Text)
			assert.Equal(t, tt.wantThoughts, resp.Thoughts)
			assert.Equal(t, "key-1", backend.lastKey)
		})
	}
}

func TestCallStreamingSeparatesThinking(t *testing.T) {
	backend := &fakeBackend{chunks: []Chunk{
		{Text: "<thinking>first "},
		{Text: "idea</thinking>[{\"index\""},
		{Text: ":\"1\",\"content\":\"Hola\"}]"},
		{Thought: "hidden"},
	}}
	client, err := NewClient(Config{Model: "gemini-2.5-flash", Streaming: true}, backend)
	require.NoError(t, err)

	var lengths []int
	resp, err := client.Call(context.Background(), "k", Request{}, func(n int) {
		lengths = append(lengths, n)
	})
	require.NoError(t, err)

	assert.Equal(t, `[{"index":"1","content":"Hola"}]`, resp.Text)
	assert.Equal(t, "hidden\nfirst idea", resp.Thoughts)
	assert.Equal(t, []int{0, 9, 32, 32}, lengths)
}

func TestCallStreamingMarkersSplitAcrossChunks(t *testing.T) {
	tests := []struct {
		name         string
		chunks       []string
		wantText     string
		wantThoughts string
		wantLengths  []int
	}{
		{
			name:         "markers cut mid tag",
			chunks:       []string{"<think", "ing>plan</thi", `nking>[{"index":"1","content":"Hola"}]`},
			wantText:     `[{"index":"1","content":"Hola"}]`,
			wantThoughts: "plan",
			wantLengths:  []int{0, 0, 32},
		},
		{
			name:        "held back tail that is no marker",
			chunks:      []string{`[{"index":"1","content":"a<`, `b"}]`},
			wantText:    `[{"index":"1","content":"a<b"}]`,
			wantLengths: []int{26, 31},
		},
		{
			name:        "possible marker at end of stream",
			chunks:      []string{`[{"index":"1","content":"x"}]`, " <thin"},
			wantText:    `[{"index":"1","content":"x"}] <thin`,
			wantLengths: []int{29, 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			for _, c := range tt.chunks {
				backend.chunks = append(backend.chunks, Chunk{Text: c})
			}
			client, err := NewClient(Config{Model: "gemini-2.5-flash", Streaming: true}, backend)
			require.NoError(t, err)

			var lengths []int
			resp, err := client.Call(context.Background(), "k", Request{}, func(n int) {
				lengths = append(lengths, n)
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, resp.Text)
			assert.Equal(t, tt.wantThoughts, resp.Thoughts)
			assert.Equal(t, tt.wantLengths, lengths)
		})
	}
}

func TestCallStreamingFailureDiscardsPartialAnswer(t *testing.T) {
	backend := &fakeBackend{
		chunks:   []Chunk{{Text: "[{"}, {Text: "more"}},
		err:      errors.New("connection reset"),
		streamAt: 1,
	}
	client, err := NewClient(Config{Model: "m", Streaming: true}, backend)
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), "k", Request{}, nil)
	require.Error(t, err)
	assert.Nil(t, resp)
}

func TestCallHonoursCancellation(t *testing.T) {
	backend := &fakeBackend{chunks: []Chunk{{Text: "[]"}}}
	client, err := NewClient(Config{Model: "m", Streaming: true, Timeout: time.Minute}, backend)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Call(ctx, "k", Request{}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestListModels(t *testing.T) {
	backend := &fakeBackend{models: []ModelInfo{{Name: "gemini-2.5-flash"}}}
	client, err := NewClient(Config{Model: "m"}, backend)
	require.NoError(t, err)

	models, err := client.ListModels(context.Background(), "k")
	require.NoError(t, err)
	assert.Len(t, models, 1)
}

// TestRealAPI calls the live Gemini API when a key is available.
func TestRealAPI(t *testing.T) {
	_ = godotenv.Load("../../.env")
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	client, err := NewClient(Config{Model: "gemini-2.0-flash", Timeout: time.Minute}, NewGeminiBackend())
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), apiKey, Request{
		SystemInstruction: "Translate the content field to Spanish.",
		Messages:          []Message{{Role: RoleUser, Content: `[{"index":"1","content":"Good morning"}]`}},
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
}

func TestKnownModels(t *testing.T) {
	models := KnownModels()
	require.Len(t, models, 9)
	assert.Equal(t, DefaultModel, models[0].Name)
	assert.True(t, models[0].SupportsThinking)
	assert.False(t, models[len(models)-1].SupportsThinking)
}
