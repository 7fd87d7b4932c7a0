package llm

import (
	"fmt"
	"time"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash-preview-05-20"

// Config holds the generation settings for a translation session.
//
// Temperature, TopP, TopK and ThinkingBudget are optional. A nil value means
// the provider default is used and the field is left out of the request.
type Config struct {
	Model          string
	Temperature    *float64
	TopP           *float64
	TopK           *int
	Streaming      bool
	Thinking       bool
	ThinkingBudget *int32
	Timeout        time.Duration
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.TopP != nil && (*c.TopP < 0 || *c.TopP > 1) {
		return fmt.Errorf("top_p must be between 0 and 1")
	}
	if c.TopK != nil && *c.TopK < 1 {
		return fmt.Errorf("top_k must be greater than 0")
	}
	if c.ThinkingBudget != nil && *c.ThinkingBudget < 0 {
		return fmt.Errorf("thinking budget must not be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
