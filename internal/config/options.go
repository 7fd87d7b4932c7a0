package config

// WithAPIKeys overrides the primary and secondary keys. Empty values keep
// the loaded ones.
func WithAPIKeys(primary, secondary string) Option {
	return func(c *Config) {
		if primary != "" {
			c.Gemini.APIKey = primary
		}
		if secondary != "" {
			c.Gemini.APIKey2 = secondary
		}
	}
}

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *Config) {
		if model != "" {
			c.Gemini.Model = model
		}
	}
}

// WithTargetLanguage overrides the target language.
func WithTargetLanguage(lang string) Option {
	return func(c *Config) {
		if lang != "" {
			c.Translate.TargetLanguage = lang
		}
	}
}

// WithLogLevel overrides the diagnostic log level.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		if level != "" {
			c.Log.Level = level
		}
	}
}
