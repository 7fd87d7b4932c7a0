package config

import (
	"fmt"
	"strings"

	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
)

func (c *Config) normalize() error {
	c.normalizeGemini()
	if err := c.normalizeTranslate(); err != nil {
		return err
	}
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	var err error
	if c.Log.File, err = expandPath(strings.TrimSpace(c.Log.File)); err != nil {
		return fmt.Errorf("log.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	c.Gemini.APIKey2 = strings.TrimSpace(c.Gemini.APIKey2)
	c.Gemini.BaseURL = strings.TrimSpace(c.Gemini.BaseURL)
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = llm.DefaultModel
	}
	// the same key twice gives nothing to fail over to
	if c.Gemini.APIKey2 == c.Gemini.APIKey {
		c.Gemini.APIKey2 = ""
	}
}

func (c *Config) normalizeTranslate() error {
	t := &c.Translate
	t.Description = strings.TrimSpace(t.Description)
	if strings.TrimSpace(t.TargetLanguage) != "" {
		name, _, err := NormalizeLanguage(t.TargetLanguage)
		if err != nil {
			return fmt.Errorf("translate.target_language: %w", err)
		}
		t.TargetLanguage = name
	}
	if t.BatchSize == 0 {
		t.BatchSize = defaultBatchSize
	}
	if t.MaxBatchRetries == 0 {
		t.MaxBatchRetries = defaultMaxBatchRetries
	}
	return nil
}

func (c *Config) normalizeOutput() error {
	var err error
	if c.Output.Dir, err = expandPath(strings.TrimSpace(c.Output.Dir)); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	c.Output.EventsAddr = strings.TrimSpace(c.Output.EventsAddr)
	return nil
}
