package main

import (
	"strings"

	"github.com/MimeLyc/gemini-sub-translator/internal/config"
	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
	"github.com/MimeLyc/gemini-sub-translator/internal/service"
	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	logFile      *log.FileLogger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// loadConfig loads the configuration with command specific overrides and
// applies the log level.
func (c *commandContext) loadConfig(opts ...config.Option) (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	if c.logLevelFlag != nil {
		opts = append(opts, config.WithLogLevel(*c.logLevelFlag))
	}

	cfg, _, _, err := config.Load(path, opts...)
	if err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "failed to load configuration")
	}
	level := log.ParseLevel(cfg.Log.Level)
	if cfg.Log.File != "" && c.logFile == nil {
		fileLogger, err := log.NewFileLogger(cfg.Log.File, level)
		if err != nil {
			return nil, service.WrapError(err, service.ErrConfig, "cannot open log file").WithContext("path", cfg.Log.File)
		}
		c.logFile = fileLogger
		log.SetDefault(fileLogger.Logger)
	}
	log.GetLogger().SetLevel(level)
	return cfg, nil
}

// close releases the log file opened by loadConfig.
func (c *commandContext) close() error {
	if c.logFile == nil {
		return nil
	}
	log.SetDefault(nil)
	err := c.logFile.Close()
	c.logFile = nil
	return err
}

func newGeminiBackend(cfg *config.Config) *llm.GeminiBackend {
	var opts []llm.GeminiOption
	if cfg.Gemini.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.Gemini.BaseURL))
	}
	return llm.NewGeminiBackend(opts...)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
