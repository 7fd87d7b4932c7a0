package llm

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"slices"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/MimeLyc/gemini-sub-translator/internal/translator"
)

var safetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHateSpeech,
	genai.HarmCategoryDangerousContent,
	genai.HarmCategoryHarassment,
	genai.HarmCategorySexuallyExplicit,
}

// GeminiBackend calls the Gemini API through the genai SDK. One SDK client
// is kept per API key.
type GeminiBackend struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// GeminiOption configures a GeminiBackend.
type GeminiOption func(*GeminiBackend)

// WithBaseURL points the backend at a different API endpoint.
func WithBaseURL(baseURL string) GeminiOption {
	return func(b *GeminiBackend) {
		b.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(b *GeminiBackend) {
		b.httpClient = client
	}
}

// NewGeminiBackend creates a Gemini API backend.
func NewGeminiBackend(opts ...GeminiOption) *GeminiBackend {
	b := &GeminiBackend{clients: make(map[string]*genai.Client)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *GeminiBackend) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.clients[apiKey]; ok {
		return c, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: b.httpClient,
	}
	if b.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: b.baseURL}
	}

	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	b.clients[apiKey] = c
	return c, nil
}

// Generate performs a single non-streaming call.
func (b *GeminiBackend) Generate(ctx context.Context, apiKey string, cfg Config, req Request) (Chunk, error) {
	c, err := b.client(ctx, apiKey)
	if err != nil {
		return Chunk{}, err
	}

	resp, err := c.Models.GenerateContent(ctx, cfg.Model, toContents(req.Messages), generateConfig(cfg, req))
	if err != nil {
		return Chunk{}, err
	}
	return responseChunk(resp)
}

// Stream performs a streaming call. Each element is the content of one
// streamed response.
func (b *GeminiBackend) Stream(ctx context.Context, apiKey string, cfg Config, req Request) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		c, err := b.client(ctx, apiKey)
		if err != nil {
			yield(Chunk{}, err)
			return
		}

		for resp, err := range c.Models.GenerateContentStream(ctx, cfg.Model, toContents(req.Messages), generateConfig(cfg, req)) {
			if err != nil {
				yield(Chunk{}, err)
				return
			}
			chunk, err := responseChunk(resp)
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// Models lists models that support content generation.
func (b *GeminiBackend) Models(ctx context.Context, apiKey string) ([]ModelInfo, error) {
	c, err := b.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	var models []ModelInfo
	for m, err := range c.Models.All(ctx) {
		if err != nil {
			return nil, err
		}
		if len(m.SupportedActions) > 0 && !slices.Contains(m.SupportedActions, "generateContent") {
			continue
		}
		name := strings.TrimPrefix(m.Name, "models/")
		models = append(models, ModelInfo{
			Name:             name,
			DisplayName:      m.DisplayName,
			Description:      m.Description,
			InputTokenLimit:  int(m.InputTokenLimit),
			OutputTokenLimit: int(m.OutputTokenLimit),
			SupportsThinking: translator.SupportsThinking(name),
		})
	}
	return models, nil
}

func toContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.RoleUser
		if msg.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}
	return contents
}

func generateConfig(cfg Config, req Request) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   translationSchema(),
	}

	if req.SystemInstruction != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if cfg.Temperature != nil {
		gc.Temperature = genai.Ptr(float32(*cfg.Temperature))
	}
	if cfg.TopP != nil {
		gc.TopP = genai.Ptr(float32(*cfg.TopP))
	}
	if cfg.TopK != nil {
		gc.TopK = genai.Ptr(float32(*cfg.TopK))
	}

	for _, category := range safetyCategories {
		gc.SafetySettings = append(gc.SafetySettings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}

	if cfg.Thinking && translator.SupportsThinking(cfg.Model) {
		gc.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
		if cfg.ThinkingBudget != nil {
			gc.ThinkingConfig.ThinkingBudget = genai.Ptr(*cfg.ThinkingBudget)
		}
	}

	return gc
}

func translationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"index":   {Type: genai.TypeString},
				"content": {Type: genai.TypeString},
			},
			Required: []string{"index", "content"},
		},
	}
}

func responseChunk(resp *genai.GenerateContentResponse) (Chunk, error) {
	var chunk Chunk
	if resp == nil {
		return chunk, nil
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return chunk, fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return chunk, nil
	}

	content := resp.Candidates[0].Content
	if content == nil {
		return chunk, nil
	}

	var text, thought strings.Builder
	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		if part.Thought {
			thought.WriteString(part.Text)
			continue
		}
		text.WriteString(part.Text)
	}
	chunk.Text = text.String()
	chunk.Thought = thought.String()
	return chunk, nil
}
