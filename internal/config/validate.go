package config

import (
	"errors"
	"fmt"
	"math"
	"net"
)

// Validate ensures the configuration is usable. The API key and target
// language are checked by the commands that need them.
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateTranslate(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

func (c *Config) validateGemini() error {
	if c.Gemini.TimeoutSeconds < 0 {
		return errors.New("gemini.timeout_seconds must not be negative")
	}
	if b := c.Gemini.ThinkingBudget; b != nil && (*b < 0 || *b > math.MaxInt32) {
		return fmt.Errorf("gemini.thinking_budget must be between 0 and %d, got %d", math.MaxInt32, *b)
	}
	cfg := c.LLMConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	return nil
}

func (c *Config) validateTranslate() error {
	t := c.Translate
	if t.BatchSize < 1 {
		return fmt.Errorf("translate.batch_size must be positive, got %d", t.BatchSize)
	}
	if t.BatchDelaySeconds < 0 {
		return errors.New("translate.batch_delay_seconds must not be negative")
	}
	if t.MaxBatchRetries < 1 {
		return fmt.Errorf("translate.max_batch_retries must be positive, got %d", t.MaxBatchRetries)
	}
	if t.TokenLimit < 0 {
		return errors.New("translate.token_limit must not be negative")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.EventsAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Output.EventsAddr); err != nil {
		return fmt.Errorf("output.events_addr: %w", err)
	}
	return nil
}
