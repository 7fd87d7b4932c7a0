package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MimeLyc/gemini-sub-translator/internal/config"
	"github.com/MimeLyc/gemini-sub-translator/internal/credential"
	"github.com/MimeLyc/gemini-sub-translator/internal/jobs"
	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
	"github.com/MimeLyc/gemini-sub-translator/internal/progress"
	"github.com/MimeLyc/gemini-sub-translator/internal/report"
	"github.com/MimeLyc/gemini-sub-translator/internal/service"
	"github.com/MimeLyc/gemini-sub-translator/pkg/file"
	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

const (
	progressLogName = "progress.log"
	thoughtsLogName = "thoughts.log"
)

type translateOptions struct {
	apiKey         string
	apiKey2        string
	targetLanguage string
	inputs         []string
	output         string
	outputDir      string
	startLine      int
	description    string
	model          string
	batchSize      int
	noStreaming    bool
	noThinking     bool
	thinkingBudget int
	temperature    float64
	topP           float64
	topK           int
	timeout        int
	maxRetries     int
	proQuota       bool
	noColors       bool
	progressLog    bool
	thoughtsLog    bool
	resume         bool
	noResume       bool
	eventsAddr     string
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	opts := &translateOptions{}

	cmd := &cobra.Command{
		Use:   "translate [files or directories...]",
		Short: "Translate subtitle files",
		Long: "Translate one or more SRT files. Directories are searched for .srt files and\n" +
			"glob patterns are expanded. Each output is written as <name>_<language>.srt\n" +
			"next to the input unless --output or --output-dir is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, ctx, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.apiKey, "api-key", "k", "", "Gemini API key (or GEMINI_API_KEY)")
	flags.StringVar(&opts.apiKey2, "api-key2", "", "Secondary Gemini API key used when the first runs out of quota")
	flags.StringVarP(&opts.targetLanguage, "target-language", "l", "", "Target language name or tag, e.g. Spanish or pt-BR")
	flags.StringSliceVarP(&opts.inputs, "input", "i", nil, "Input SRT file, directory or glob (repeatable)")
	flags.StringVarP(&opts.output, "output", "o", "", "Output SRT file path (single input only)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Directory for translated files (default: next to each input)")
	flags.IntVarP(&opts.startLine, "start-line", "s", 0, "Subtitle line to start from (default: saved progress or 1)")
	flags.StringVarP(&opts.description, "description", "d", "", "Additional context for the translation")
	flags.StringVarP(&opts.model, "model", "m", "", "Gemini model name (default "+llm.DefaultModel+")")
	flags.IntVarP(&opts.batchSize, "batch-size", "b", 0, "Subtitles per request (default 300)")
	flags.BoolVar(&opts.noStreaming, "no-streaming", false, "Disable streaming responses")
	flags.BoolVar(&opts.noThinking, "no-thinking", false, "Disable thinking mode")
	flags.IntVar(&opts.thinkingBudget, "thinking-budget", 0, "Token budget for thinking mode (default 2048)")
	flags.Float64Var(&opts.temperature, "temperature", 0, "Model temperature (0.0-2.0)")
	flags.Float64Var(&opts.topP, "top-p", 0, "Top-p sampling (0.0-1.0)")
	flags.IntVar(&opts.topK, "top-k", 0, "Top-k sampling")
	flags.IntVar(&opts.timeout, "timeout", 0, "Request timeout in seconds (default: none)")
	flags.IntVar(&opts.maxRetries, "max-retries", 0, "Consecutive batch failures before giving up (default 5)")
	flags.BoolVar(&opts.proQuota, "pro-quota", false, "Use pro quota settings (no delay between batches)")
	flags.BoolVar(&opts.noColors, "no-colors", false, "Disable colored output")
	flags.BoolVar(&opts.progressLog, "progress-log", false, "Save progress messages to "+progressLogName)
	flags.BoolVar(&opts.thoughtsLog, "thoughts-log", false, "Save model thoughts to "+thoughtsLogName)
	flags.BoolVar(&opts.resume, "resume", false, "Resume from saved progress without asking")
	flags.BoolVar(&opts.noResume, "no-resume", false, "Ignore saved progress without asking")
	flags.StringVar(&opts.eventsAddr, "events-addr", "", "Serve job status and progress events over HTTP at host:port")
	cmd.MarkFlagsMutuallyExclusive("resume", "no-resume")
	cmd.MarkFlagsMutuallyExclusive("output", "output-dir")

	return cmd
}

// configOptions maps the flags the user actually set onto the loaded
// configuration.
func (o *translateOptions) configOptions(cmd *cobra.Command) []config.Option {
	flags := cmd.Flags()
	return []config.Option{
		config.WithAPIKeys(o.apiKey, o.apiKey2),
		config.WithModel(o.model),
		config.WithTargetLanguage(o.targetLanguage),
		func(c *config.Config) {
			if flags.Changed("description") {
				c.Translate.Description = o.description
			}
			if flags.Changed("batch-size") {
				c.Translate.BatchSize = o.batchSize
			}
			if flags.Changed("max-retries") {
				c.Translate.MaxBatchRetries = o.maxRetries
			}
			if o.noStreaming {
				c.Gemini.Streaming = false
			}
			if o.noThinking {
				c.Gemini.Thinking = false
			}
			if flags.Changed("thinking-budget") {
				budget := o.thinkingBudget
				c.Gemini.ThinkingBudget = &budget
			}
			if flags.Changed("temperature") {
				v := o.temperature
				c.Gemini.Temperature = &v
			}
			if flags.Changed("top-p") {
				v := o.topP
				c.Gemini.TopP = &v
			}
			if flags.Changed("top-k") {
				v := o.topK
				c.Gemini.TopK = &v
			}
			if flags.Changed("timeout") {
				c.Gemini.TimeoutSeconds = o.timeout
			}
			if o.proQuota {
				c.Translate.FreeQuota = false
			}
			if o.noColors {
				c.Output.Colors = false
			}
			if o.progressLog {
				c.Output.ProgressLog = true
			}
			if o.thoughtsLog {
				c.Output.ThoughtsLog = true
			}
			if flags.Changed("output-dir") {
				c.Output.Dir = o.outputDir
			}
			if flags.Changed("events-addr") {
				c.Output.EventsAddr = o.eventsAddr
			}
		},
	}
}

func (o *translateOptions) resumeMode() resumeMode {
	switch {
	case o.resume:
		return resumeAlways
	case o.noResume:
		return resumeNever
	default:
		return resumeAsk
	}
}

func runTranslate(cmd *cobra.Command, ctx *commandContext, opts *translateOptions, args []string) error {
	cfg, err := ctx.loadConfig(opts.configOptions(cmd)...)
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return service.WrapError(err, service.ErrConfig, "missing API key")
	}
	if cfg.Translate.TargetLanguage == "" {
		return service.NewError(service.ErrConfig, "target language is required (use --target-language or GST_TARGET_LANGUAGE)")
	}
	if opts.startLine < 0 {
		return service.NewError(service.ErrConfig, fmt.Sprintf("start line must be positive, got %d", opts.startLine))
	}

	inputs, err := resolveInputs(append(opts.inputs, args...), cfg.Translate.TargetLanguage)
	if err != nil {
		return err
	}
	if len(inputs) > 1 && opts.output != "" {
		return service.NewError(service.ErrConfig, "--output needs a single input; use --output-dir for several files")
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	runID := uuid.NewString()
	term := report.NewTerminal(out, cfg.Output.Colors)
	hub := report.NewEventHub(runID)
	queue := jobs.NewQueue(1, jobs.WithObserver(func(job jobs.Job) {
		hub.OnJob(job)
	}))
	for _, in := range inputs {
		queue.Enqueue(jobs.EnqueueRequest{Input: in, Output: outputPathFor(in, opts.output, cfg)})
	}

	client, err := llm.NewClient(cfg.LLMConfig(), newGeminiBackend(cfg))
	if err != nil {
		return service.WrapError(err, service.ErrConfig, "invalid model settings")
	}
	keys, err := credential.New(credential.Pair{Primary: cfg.Gemini.APIKey, Secondary: cfg.Gemini.APIKey2})
	if err != nil {
		return service.WrapError(err, service.ErrConfig, "invalid API keys")
	}

	printConfiguration(term, cfg, queue.List(), opts.startLine)

	runner := &fileRunner{
		cfg:       cfg,
		client:    client,
		keys:      keys,
		term:      term,
		reporter:  report.NewMulti(term, hub),
		runID:     runID,
		startLine: opts.startLine,
		resume:    opts.resumeMode(),
		prompter:  newPrompter(cmd.InOrStdin(), out),
	}
	runErr := withEventServer(runCtx, cfg.Output.EventsAddr, queue, hub, func(ctx context.Context) error {
		return queue.Run(ctx, runner.run)
	})

	list := queue.List()
	if len(list) > 1 {
		fmt.Fprintln(out, renderJobsTable(list))
	}
	return batchError(list, runErr)
}

func outputPathFor(input, explicit string, cfg *config.Config) string {
	if explicit != "" {
		if filepath.Ext(explicit) == "" {
			return file.ReplaceExt(explicit, ".srt")
		}
		return explicit
	}
	return service.DefaultOutputPath(input, cfg.Translate.TargetLanguage, cfg.Output.Dir)
}

func printConfiguration(term *report.Terminal, cfg *config.Config, queued []*jobs.Job, startLine int) {
	term.Info("Translation Configuration:")
	if len(queued) == 1 {
		term.Info("  Input: " + queued[0].Input)
		term.Info("  Output: " + queued[0].Output)
	} else {
		term.Info(fmt.Sprintf("  Files: %d", len(queued)))
	}
	term.Info("  Target Language: " + cfg.Translate.TargetLanguage)
	term.Info("  Model: " + cfg.Gemini.Model)
	term.Info(fmt.Sprintf("  Batch Size: %d", cfg.Translate.BatchSize))
	term.Info("  Streaming: " + yesNo(cfg.Gemini.Streaming) + ", Thinking: " + yesNo(cfg.Gemini.Thinking))
	term.Info("  Secondary Key: " + yesNo(cfg.Gemini.APIKey2 != ""))
	if startLine > 1 {
		term.Info(fmt.Sprintf("  Starting from line: %d", startLine))
	}
}

// batchError turns the final job states into the command result.
func batchError(list []*jobs.Job, runErr error) error {
	var failed, interrupted int
	for _, job := range list {
		switch job.Status {
		case jobs.StatusFailed:
			failed++
		case jobs.StatusInterrupted, jobs.StatusSkipped:
			interrupted++
		}
	}

	switch {
	case interrupted > 0 || errors.Is(runErr, context.Canceled):
		return service.NewError(service.ErrInterrupted, "translation interrupted; run the same command again to resume")
	case runErr != nil:
		return runErr
	case failed == 1 && len(list) == 1:
		return service.NewError(service.ErrAborted, list[0].Error)
	case failed > 0:
		return fmt.Errorf("%d of %d files failed", failed, len(list))
	}
	return nil
}

// fileRunner translates one queued file.
type fileRunner struct {
	cfg       *config.Config
	client    service.ModelClient
	keys      service.KeyProvider
	term      *report.Terminal
	reporter  report.Reporter
	runID     string
	startLine int
	resume    resumeMode
	prompter  *prompter
}

func (r *fileRunner) run(ctx context.Context, job *jobs.Job) (jobs.Result, error) {
	lock, err := progress.Acquire(job.Input)
	if err != nil {
		return jobs.Result{}, service.WrapError(err, service.ErrInput, "cannot lock input").WithContext("path", job.Input)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("Failed to release lock for %s: %v", job.Input, err)
		}
	}()

	store := progress.NewStore(job.Input)
	saved, err := store.Load()
	if err != nil {
		log.Warn("Ignoring saved progress for %s: %v", job.Input, err)
	}
	start := r.decideStart(saved, job.Input)

	dir := filepath.Dir(job.Input)
	tcfg := service.TranslatorConfig{
		InputPath:       job.Input,
		OutputPath:      job.Output,
		TargetLanguage:  r.cfg.Translate.TargetLanguage,
		Description:     r.cfg.Translate.Description,
		Model:           r.cfg.Gemini.Model,
		Thinking:        r.cfg.Gemini.Thinking,
		BatchSize:       r.cfg.Translate.BatchSize,
		StartLine:       start,
		FreeQuota:       r.cfg.Translate.FreeQuota,
		BatchDelay:      r.cfg.BatchDelay(),
		MaxBatchRetries: r.cfg.Translate.MaxBatchRetries,
		TokenLimit:      r.cfg.Translate.TokenLimit,
	}
	if r.cfg.Output.ProgressLog {
		tcfg.ProgressLogPath = filepath.Join(dir, progressLogName)
	}
	if r.cfg.Output.ThoughtsLog {
		tcfg.ThoughtsLogPath = filepath.Join(dir, thoughtsLogName)
	}

	translator, err := service.NewTranslator(tcfg, r.client, r.keys, store,
		service.WithReporter(r.reporter),
		service.WithRunID(r.runID),
	)
	if err != nil {
		return jobs.Result{}, err
	}

	r.term.Info(fmt.Sprintf("Translating %s", job.Input))
	ok, summary, err := translator.TranslateFile(ctx)
	r.term.Finish()

	res := resultFrom(summary)
	if err != nil {
		handler := service.NewDefaultErrorHandler()
		handler.Handle(err)
		var tErr *service.TranslateError
		if errors.As(err, &tErr) {
			r.term.OnError(handler.GetAdvice(tErr))
		}
		return res, err
	}
	if !ok {
		return res, service.NewError(service.ErrUnknown, "translation did not finish")
	}

	r.term.OnBatchSuccess(fmt.Sprintf("Translated %s lines into %s in %s",
		humanize.Comma(int64(res.Total)), job.Output, res.Duration.Round(100*time.Millisecond)))
	return res, nil
}

// decideStart picks the start line: an explicit --start-line wins, then
// saved progress (after asking, unless --resume or --no-resume was given).
func (r *fileRunner) decideStart(saved *progress.State, input string) int {
	line := progress.ResumeLine(saved, input, r.startLine)
	if r.startLine > 1 || line <= 1 {
		return max(line, 1)
	}

	switch r.resume {
	case resumeAlways:
	case resumeNever:
		return 1
	default:
		question := fmt.Sprintf("Found saved progress at line %d. Resume? (y/n): ", line)
		if !r.prompter.confirm(question) {
			return 1
		}
	}
	r.term.Info(fmt.Sprintf("Resuming from line %d", line))
	return line
}

func resultFrom(summary *service.Summary) jobs.Result {
	if summary == nil {
		return jobs.Result{}
	}
	return jobs.Result{
		Total:      summary.Total,
		StartLine:  summary.StartLine,
		NextLine:   summary.NextLine,
		Translated: summary.Translated,
		Warnings:   summary.Warnings,
		Duration:   summary.Duration,
	}
}
