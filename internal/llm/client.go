package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/MimeLyc/gemini-sub-translator/internal/translator"
	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

const (
	thinkingOpen  = "<thinking>"
	thinkingClose = "</thinking>"
)

// Backend executes model calls for a single API key.
type Backend interface {
	Generate(ctx context.Context, apiKey string, cfg Config, req Request) (Chunk, error)
	Stream(ctx context.Context, apiKey string, cfg Config, req Request) iter.Seq2[Chunk, error]
	Models(ctx context.Context, apiKey string) ([]ModelInfo, error)
}

// Client executes translation calls against a Backend and separates the
// answer from the model's reasoning.
//
// config: generation settings shared by every call
// backend: provider implementation
type Client struct {
	config  Config
	backend Backend
}

// NewClient creates a new client with the given configuration
//
// Returns an error if configuration is invalid
// Example:
//
//	backend := llm.NewGeminiBackend()
//	client, err := llm.NewClient(llm.Config{Model: llm.DefaultModel, Streaming: true}, backend)
//	if err != nil {
//		log.Fatal(err)
//	}
func NewClient(config Config, backend Backend) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if backend == nil {
		return nil, fmt.Errorf("invalid configuration: backend is required")
	}

	return &Client{
		config:  config,
		backend: backend,
	}, nil
}

// Config returns the generation settings of the client.
func (c *Client) Config() Config {
	return c.config
}

// Call sends req with apiKey. In streaming mode onChunk, when not nil, is
// invoked after every chunk with the answer length so far. A failure while
// streaming discards the partial answer.
func (c *Client) Call(ctx context.Context, apiKey string, req Request, onChunk ChunkFunc) (*Response, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	if c.config.Streaming {
		return c.stream(ctx, apiKey, req, onChunk)
	}

	chunk, err := c.backend.Generate(ctx, apiKey, c.config, req)
	if err != nil {
		return nil, err
	}

	resp := splitThinking(chunk.Text)
	if chunk.Thought != "" {
		resp.Thoughts = joinThoughts(chunk.Thought, resp.Thoughts)
	}
	return resp, nil
}

func (c *Client) stream(ctx context.Context, apiKey string, req Request, onChunk ChunkFunc) (*Response, error) {
	var splitter thinkingSplitter
	var providerThoughts strings.Builder
	chunks := 0

	for chunk, err := range c.backend.Stream(ctx, apiKey, c.config, req) {
		if err != nil {
			return nil, err
		}
		chunks++
		providerThoughts.WriteString(chunk.Thought)
		splitter.feed(chunk.Text)
		if onChunk != nil {
			onChunk(splitter.answer.Len())
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	splitter.flush()

	log.Debug("stream finished after %d chunks, answer %d bytes", chunks, splitter.answer.Len())
	return &Response{
		Text:     splitter.answer.String(),
		Thoughts: joinThoughts(providerThoughts.String(), splitter.thoughts.String()),
	}, nil
}

// ListModels returns the models apiKey can use for content generation.
func (c *Client) ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error) {
	models, err := c.backend.Models(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("list models failed: %w", err)
	}
	return models, nil
}

// splitThinking separates a complete answer at the first closing marker.
func splitThinking(text string) *Response {
	if !strings.Contains(text, thinkingOpen) {
		return &Response{Text: text}
	}
	before, after, found := strings.Cut(text, thinkingClose)
	if !found {
		return &Response{Text: text}
	}
	return &Response{
		Text:     strings.TrimSpace(after),
		Thoughts: strings.TrimSpace(strings.Replace(before, thinkingOpen, "", 1)),
	}
}

// thinkingSplitter routes streamed text inside a <thinking> span to
// thoughts. Only the first span is recognised. A chunk tail that could be
// the start of a marker is held back until the next chunk decides it.
type thinkingSplitter struct {
	answer     strings.Builder
	thoughts   strings.Builder
	pending    string
	inThinking bool
	closed     bool
}

func (s *thinkingSplitter) feed(text string) {
	text = s.pending + text
	s.pending = ""

	for text != "" {
		if s.closed {
			s.answer.WriteString(text)
			return
		}

		marker := thinkingOpen
		if s.inThinking {
			marker = thinkingClose
		}
		if i := strings.Index(text, marker); i >= 0 {
			s.write(text[:i])
			text = text[i+len(marker):]
			if s.inThinking {
				s.closed = true
			}
			s.inThinking = !s.inThinking
			continue
		}

		keep := partialMarker(text, marker)
		s.write(text[:len(text)-keep])
		s.pending = text[len(text)-keep:]
		return
	}
}

// flush writes the held back tail once the stream has ended.
func (s *thinkingSplitter) flush() {
	s.write(s.pending)
	s.pending = ""
}

func (s *thinkingSplitter) write(text string) {
	if s.inThinking {
		s.thoughts.WriteString(text)
		return
	}
	s.answer.WriteString(text)
}

// partialMarker returns the length of the longest suffix of text that is a
// proper prefix of marker.
func partialMarker(text, marker string) int {
	for n := min(len(text), len(marker)-1); n > 0; n-- {
		if strings.HasSuffix(text, marker[:n]) {
			return n
		}
	}
	return 0
}

func joinThoughts(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

var knownModels = []string{
	"gemini-2.5-flash-preview-05-20",
	"gemini-2.5-flash-thinking-latest",
	"gemini-2.5-pro-preview-05-20",
	"gemini-2.5-pro-thinking-latest",
	"gemini-2.0-flash-exp",
	"gemini-1.5-flash",
	"gemini-1.5-flash-8b",
	"gemini-1.5-pro",
	"gemini-1.0-pro",
}

// KnownModels is the offline list shown when the API cannot be asked.
func KnownModels() []ModelInfo {
	models := make([]ModelInfo, 0, len(knownModels))
	for _, name := range knownModels {
		models = append(models, ModelInfo{
			Name:             name,
			SupportsThinking: translator.SupportsThinking(name),
		})
	}
	return models
}
