package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MimeLyc/gemini-sub-translator/internal/credential"
	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
	"github.com/MimeLyc/gemini-sub-translator/internal/progress"
	"github.com/MimeLyc/gemini-sub-translator/pkg/file"
)

const (
	DefaultBatchSize       = 300
	DefaultBatchDelay      = 2 * time.Second
	DefaultMaxBatchRetries = 5

	// batches are shrunk once the estimated request passes this share of
	// the model's input limit
	tokenWarnRatio   = 0.8
	batchShrinkRatio = 0.75
)

// TranslatorConfig contains translator configuration
type TranslatorConfig struct {
	InputPath      string
	OutputPath     string
	TargetLanguage string
	Description    string
	Model          string
	Thinking       bool

	BatchSize       int
	StartLine       int
	FreeQuota       bool
	BatchDelay      time.Duration
	MaxBatchRetries int
	TokenLimit      int

	ProgressLogPath string
	ThoughtsLogPath string
}

// DefaultOutputPath names the output after the input and target language:
// "movie.srt" becomes "movie_Spanish.srt". A non-empty dir replaces the
// input directory.
func DefaultOutputPath(inputPath, targetLanguage, dir string) string {
	return file.AppendToStem(inputPath, "_"+targetLanguage, dir)
}

func (c TranslatorConfig) withDefaults() TranslatorConfig {
	if c.OutputPath == "" {
		c.OutputPath = DefaultOutputPath(c.InputPath, c.TargetLanguage, "")
	}
	if c.Model == "" {
		c.Model = llm.DefaultModel
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.StartLine < 1 {
		c.StartLine = 1
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = DefaultBatchDelay
	}
	if c.MaxBatchRetries <= 0 {
		c.MaxBatchRetries = DefaultMaxBatchRetries
	}
	return c
}

// Validate checks the settings needed before any model call.
func (c TranslatorConfig) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return NewError(ErrInput, "input path is required")
	}
	if strings.TrimSpace(c.TargetLanguage) == "" {
		return NewError(ErrConfig, "target language is required")
	}
	if c.BatchSize < 0 {
		return NewError(ErrConfig, fmt.Sprintf("batch size must be positive, got %d", c.BatchSize))
	}
	return nil
}

// ModelClient executes one model call.
type ModelClient interface {
	Call(ctx context.Context, apiKey string, req llm.Request, onChunk llm.ChunkFunc) (*llm.Response, error)
}

// KeyProvider hands out the active API key and reacts to quota errors.
type KeyProvider interface {
	Key() string
	Slot() int
	MarkSuccess()
	HandleQuota(ctx context.Context, hint time.Duration, notify func(credential.Switch)) (credential.Switch, error)
}

// ProgressStore persists the resume cursor.
type ProgressStore interface {
	Load() (*progress.State, error)
	Save(state progress.State) error
	Clear() error
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Summary describes a finished or stopped run.
type Summary struct {
	Total      int
	StartLine  int
	NextLine   int
	Batches    int
	Translated int
	Warnings   int
	OutputPath string
	Duration   time.Duration
}
