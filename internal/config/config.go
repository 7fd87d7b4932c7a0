package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

// Config holds all application configuration.
// Values are layered: defaults, then the TOML file, then a .env file and the
// process environment, then Options (command line flags).
//
// Environment Variables:
// Gemini Configuration:
// - GEMINI_API_KEY: primary API key (required for translation)
// - GEMINI_API_KEY_2: secondary API key used for quota failover (optional)
// - GST_MODEL: model name (default: gemini-2.5-flash-preview-05-20)
// - GST_BASE_URL: API endpoint override (optional)
// - GST_TIMEOUT: request timeout in seconds (default: 0, no timeout)
// - GST_TEMPERATURE, GST_TOP_P, GST_TOP_K: sampling overrides (optional)
// - GST_STREAMING: stream responses (default: true)
// - GST_THINKING: request model thoughts (default: true)
// - GST_THINKING_BUDGET: thinking token budget (default: 2048)
//
// Translate Configuration:
// - GST_TARGET_LANGUAGE: language name or BCP 47 tag (required for translation)
// - GST_DESCRIPTION: free text context added to the instruction (optional)
// - GST_BATCH_SIZE: subtitles per request (default: 300)
// - GST_FREE_QUOTA: pause between batches (default: true)
// - GST_BATCH_DELAY: pause length in seconds (default: 2)
// - GST_MAX_BATCH_RETRIES: consecutive failures before abort (default: 5)
//
// Output Configuration:
// - GST_OUTPUT_DIR: directory for translated files (default: next to input)
// - GST_PROGRESS_LOG, GST_THOUGHTS_LOG: write log files next to the input
// - GST_NO_COLOR: disable colored terminal output
// - GST_EVENTS_ADDR: serve progress events over HTTP at this address
// - GST_LOG_LEVEL: debug, info, warn or error (default: info)
// - GST_LOG_FILE: write diagnostic logs to this file instead of stderr
type Config struct {
	Gemini    GeminiConfig    `toml:"gemini"`
	Translate TranslateConfig `toml:"translate"`
	Output    OutputConfig    `toml:"output"`
	Log       LogConfig       `toml:"log"`
}

// GeminiConfig holds the API credentials and generation settings.
type GeminiConfig struct {
	APIKey         string   `toml:"api_key"`
	APIKey2        string   `toml:"api_key_2"`
	Model          string   `toml:"model"`
	BaseURL        string   `toml:"base_url"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Temperature    *float64 `toml:"temperature"`
	TopP           *float64 `toml:"top_p"`
	TopK           *int     `toml:"top_k"`
	Streaming      bool     `toml:"streaming"`
	Thinking       bool     `toml:"thinking"`
	ThinkingBudget *int     `toml:"thinking_budget"`
}

// TranslateConfig holds the batching and language settings.
type TranslateConfig struct {
	TargetLanguage    string  `toml:"target_language"`
	Description       string  `toml:"description"`
	BatchSize         int     `toml:"batch_size"`
	FreeQuota         bool    `toml:"free_quota"`
	BatchDelaySeconds float64 `toml:"batch_delay_seconds"`
	MaxBatchRetries   int     `toml:"max_batch_retries"`
	TokenLimit        int     `toml:"token_limit"`
}

// OutputConfig controls where results and side logs go.
type OutputConfig struct {
	Dir         string `toml:"dir"`
	ProgressLog bool   `toml:"progress_log"`
	ThoughtsLog bool   `toml:"thoughts_log"`
	Colors      bool   `toml:"colors"`
	EventsAddr  string `toml:"events_addr"`
}

// LogConfig holds the diagnostic log settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// Load builds the configuration from every source. path names the TOML
// file; an empty path searches the default locations. It returns the
// resolved file path and whether that file existed.
func Load(path string, opts ...Option) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	// a missing .env is normal
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to load .env: %v", err)
	}
	cfg.applyEnv()

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	log.Debug("Config loaded from %s (exists=%t)", resolved, exists)
	return &cfg, resolved, exists, nil
}

// LLMConfig converts the Gemini section into client settings.
func (c *Config) LLMConfig() llm.Config {
	var budget *int32
	if b := c.Gemini.ThinkingBudget; b != nil {
		v := int32(min(max(*b, math.MinInt32), math.MaxInt32))
		budget = &v
	}
	return llm.Config{
		Model:          c.Gemini.Model,
		Temperature:    c.Gemini.Temperature,
		TopP:           c.Gemini.TopP,
		TopK:           c.Gemini.TopK,
		Streaming:      c.Gemini.Streaming,
		Thinking:       c.Gemini.Thinking,
		ThinkingBudget: budget,
		Timeout:        time.Duration(c.Gemini.TimeoutSeconds) * time.Second,
	}
}

// BatchDelay returns the pause between batches.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Translate.BatchDelaySeconds * float64(time.Second))
}

// RequireAPIKey reports a missing primary key.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			path = defaultConfigLocation
		}
		return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY, pass --api-key or edit %s (create with 'gst config init')", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	g := &c.Gemini
	g.APIKey = getEnvString("GEMINI_API_KEY", g.APIKey)
	g.APIKey2 = getEnvString("GEMINI_API_KEY_2", g.APIKey2)
	g.Model = getEnvString("GST_MODEL", g.Model)
	g.BaseURL = getEnvString("GST_BASE_URL", g.BaseURL)
	g.TimeoutSeconds = getEnvInt("GST_TIMEOUT", g.TimeoutSeconds)
	g.Streaming = getEnvBool("GST_STREAMING", g.Streaming)
	g.Thinking = getEnvBool("GST_THINKING", g.Thinking)
	if v, ok := lookupEnvFloat("GST_TEMPERATURE"); ok {
		g.Temperature = &v
	}
	if v, ok := lookupEnvFloat("GST_TOP_P"); ok {
		g.TopP = &v
	}
	if v, ok := lookupEnvInt("GST_TOP_K"); ok {
		g.TopK = &v
	}
	if v, ok := lookupEnvInt("GST_THINKING_BUDGET"); ok {
		g.ThinkingBudget = &v
	}

	t := &c.Translate
	t.TargetLanguage = getEnvString("GST_TARGET_LANGUAGE", t.TargetLanguage)
	t.Description = getEnvString("GST_DESCRIPTION", t.Description)
	t.BatchSize = getEnvInt("GST_BATCH_SIZE", t.BatchSize)
	t.FreeQuota = getEnvBool("GST_FREE_QUOTA", t.FreeQuota)
	t.BatchDelaySeconds = getEnvFloat("GST_BATCH_DELAY", t.BatchDelaySeconds)
	t.MaxBatchRetries = getEnvInt("GST_MAX_BATCH_RETRIES", t.MaxBatchRetries)
	t.TokenLimit = getEnvInt("GST_TOKEN_LIMIT", t.TokenLimit)

	o := &c.Output
	o.Dir = getEnvString("GST_OUTPUT_DIR", o.Dir)
	o.ProgressLog = getEnvBool("GST_PROGRESS_LOG", o.ProgressLog)
	o.ThoughtsLog = getEnvBool("GST_THOUGHTS_LOG", o.ThoughtsLog)
	o.Colors = !getEnvBool("GST_NO_COLOR", !o.Colors)
	o.EventsAddr = getEnvString("GST_EVENTS_ADDR", o.EventsAddr)

	c.Log.Level = getEnvString("GST_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnvString("GST_LOG_FILE", c.Log.File)
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value, ok := lookupEnvInt(key); ok {
		return value
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := lookupEnvFloat(key); ok {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func lookupEnvInt(key string) (int, bool) {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue, true
		}
		log.Warn("Ignoring %s: %q is not an integer", key, value)
	}
	return 0, false
}

func lookupEnvFloat(key string) (float64, bool) {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue, true
		}
		log.Warn("Ignoring %s: %q is not a number", key, value)
	}
	return 0, false
}
