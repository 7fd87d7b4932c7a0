package config

import (
	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
)

const (
	defaultConfigLocation = "~/.config/gst/config.toml"
	projectConfigFile     = "gst.toml"

	defaultThinkingBudget    = 2048
	defaultBatchSize         = 300
	defaultBatchDelaySeconds = 2
	defaultMaxBatchRetries   = 5
	defaultLogLevel          = "info"
)

// Default returns the configuration used when nothing else is set.
func Default() Config {
	budget := defaultThinkingBudget
	return Config{
		Gemini: GeminiConfig{
			Model:          llm.DefaultModel,
			Streaming:      true,
			Thinking:       true,
			ThinkingBudget: &budget,
		},
		Translate: TranslateConfig{
			BatchSize:         defaultBatchSize,
			FreeQuota:         true,
			BatchDelaySeconds: defaultBatchDelaySeconds,
			MaxBatchRetries:   defaultMaxBatchRetries,
		},
		Output: OutputConfig{
			Colors: true,
		},
		Log: LogConfig{
			Level: defaultLogLevel,
		},
	}
}
