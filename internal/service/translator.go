package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/MimeLyc/gemini-sub-translator/internal/credential"
	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
	"github.com/MimeLyc/gemini-sub-translator/internal/progress"
	"github.com/MimeLyc/gemini-sub-translator/internal/report"
	"github.com/MimeLyc/gemini-sub-translator/internal/subtitle"
	"github.com/MimeLyc/gemini-sub-translator/internal/translator"
	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

// Translator drives a batch translation of one subtitle file.
type Translator struct {
	config   TranslatorConfig
	client   ModelClient
	keys     KeyProvider
	store    ProgressStore
	reader   subtitle.Reader
	writer   subtitle.Writer
	reporter report.Reporter
	sleep    Sleeper
	runID    string

	thoughts   *report.ThoughtsLog
	transcript *report.Transcript

	flushMu sync.Mutex
}

// Option configures a Translator.
type Option func(*Translator)

// WithReporter sets the progress sink.
func WithReporter(r report.Reporter) Option {
	return func(t *Translator) {
		if r != nil {
			t.reporter = r
		}
	}
}

// WithSleeper replaces the wait used between batches.
func WithSleeper(s Sleeper) Option {
	return func(t *Translator) {
		if s != nil {
			t.sleep = s
		}
	}
}

// WithWriter replaces the subtitle writer.
func WithWriter(w subtitle.Writer) Option {
	return func(t *Translator) {
		if w != nil {
			t.writer = w
		}
	}
}

// WithRunID tags log lines with id instead of a generated one.
func WithRunID(id string) Option {
	return func(t *Translator) {
		if id != "" {
			t.runID = id
		}
	}
}

// NewTranslator creates a translator. store may be nil to disable resume
// persistence.
func NewTranslator(config TranslatorConfig, client ModelClient, keys KeyProvider, store ProgressStore, opts ...Option) (*Translator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, NewError(ErrConfig, "model client is required")
	}
	if keys == nil {
		return nil, NewError(ErrConfig, "key provider is required")
	}

	t := &Translator{
		config:   config.withDefaults(),
		client:   client,
		keys:     keys,
		store:    store,
		reader:   subtitle.NewReader(),
		writer:   subtitle.NewWriter(),
		reporter: report.Nop{},
		sleep:    sleepContext,
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.config.ThoughtsLogPath != "" {
		t.thoughts = report.NewThoughtsLog(t.config.ThoughtsLogPath)
	}
	if t.config.ProgressLogPath != "" {
		t.transcript = report.NewTranscript()
		t.reporter = report.NewMulti(t.reporter, t.transcript)
	}
	return t, nil
}

// Config returns the effective configuration.
func (t *Translator) Config() TranslatorConfig {
	return t.config
}

// TranslateFile reads the input file and runs the translation.
func (t *Translator) TranslateFile(ctx context.Context) (bool, *Summary, error) {
	file, err := t.reader.Read(t.config.InputPath)
	if err != nil {
		return false, nil, WrapError(err, ErrInput, "failed to read subtitle file").
			WithContext("path", t.config.InputPath)
	}
	log.Info("[%s] loaded %d entries from %s (detected language: %s)", t.runID, len(file.Entries), t.config.InputPath, file.Language)
	return t.Run(ctx, file.Entries)
}

// Run translates entries from the configured start line to the end. It
// returns true only when every batch was processed. On interruption or
// abort the validated translations are still written and the cursor is
// kept for resuming.
func (t *Translator) Run(ctx context.Context, entries []subtitle.Entry) (bool, *Summary, error) {
	started := time.Now()
	instruction := translator.BuildInstruction(translator.PromptOptions{
		TargetLanguage: t.config.TargetLanguage,
		Model:          t.config.Model,
		Thinking:       t.config.Thinking,
		Description:    t.config.Description,
	})

	sess := newSession(instruction, len(entries), t.config.StartLine, t.config.BatchSize)
	if sess.startLine > 1 {
		t.seedFromOutput(entries, sess)
	}

	summary := func() *Summary {
		return &Summary{
			Total:      sess.total,
			StartLine:  sess.startLine,
			NextLine:   sess.line,
			Batches:    sess.batchNumber,
			Translated: len(sess.translated),
			Warnings:   sess.warnings,
			OutputPath: t.config.OutputPath,
			Duration:   time.Since(started),
		}
	}

	log.Info("[%s] translating %d entries to %s with %s, starting at line %d", t.runID, sess.total, t.config.TargetLanguage, t.config.Model, sess.startLine)
	t.reporter.OnProgress(report.NewProgress(min(sess.line-1, sess.total), sess.total, "Starting"))

	for !sess.done() {
		if ctx.Err() != nil {
			return false, summary(), t.interrupt(entries, sess)
		}

		err := t.step(ctx, entries, sess)
		if err == nil {
			if !sess.done() && t.config.FreeQuota {
				if err := t.sleep(ctx, t.config.BatchDelay); err != nil {
					return false, summary(), t.interrupt(entries, sess)
				}
			}
			continue
		}

		if ctx.Err() != nil {
			return false, summary(), t.interrupt(entries, sess)
		}

		if IsErrorType(err, ErrQuota) {
			_, qErr := t.keys.HandleQuota(ctx, llm.RetryDelay(err), func(sw credential.Switch) {
				t.warn(sess, fmt.Sprintf("Quota exceeded on key %d: %s", sw.From, sw.Pending()))
			})
			if qErr != nil {
				return false, summary(), t.interrupt(entries, sess)
			}
			sess.retry()
			continue
		}

		sess.failures++
		t.warn(sess, fmt.Sprintf("Batch processing failed, retrying... (%d/%d): %v", sess.failures, t.config.MaxBatchRetries, err))
		if sess.failures >= t.config.MaxBatchRetries {
			return false, summary(), t.abort(entries, sess, err)
		}
		sess.retry()
	}

	if err := t.flush(entries, sess); err != nil {
		return false, summary(), err
	}
	if t.store != nil {
		if err := t.store.Clear(); err != nil {
			log.Warn("[%s] %v", t.runID, err)
		}
	}
	t.reporter.OnProgress(report.NewProgress(sess.total, sess.total, "Done"))
	t.saveTranscript()
	log.Info("[%s] translation completed: %d batches in %s", t.runID, sess.batchNumber, time.Since(started).Round(time.Millisecond))
	return true, summary(), nil
}

// step processes the batch at the session cursor and commits it on success.
func (t *Translator) step(ctx context.Context, entries []subtitle.Entry, sess *session) error {
	sess.startBatch()

	batch := t.fitBatch(entries, sess)
	if batch.Blank() {
		log.Debug("[%s] batch %d: lines %d-%d have no text, skipping the model", t.runID, sess.batchNumber, batch.StartLine, batch.NextLine()-1)
		sess.skip(batch)
	} else {
		request, err := translator.BuildRequest(batch)
		if err != nil {
			return WrapError(err, ErrValidation, "failed to build request")
		}

		items, err := t.processBatch(ctx, sess, batch, request)
		if err != nil {
			return err
		}

		answer, err := json.Marshal(items)
		if err != nil {
			return WrapError(err, ErrValidation, "failed to encode translations")
		}

		sess.commit(batch, request, string(answer), items)
		t.keys.MarkSuccess()
	}

	if t.store != nil {
		if err := t.store.Save(progress.State{Line: sess.line, InputFile: t.config.InputPath}); err != nil {
			log.Warn("[%s] failed to save progress: %v", t.runID, err)
		}
	}

	t.reporter.OnBatchSuccess(fmt.Sprintf("Batch %d completed", sess.batchNumber))
	t.reporter.OnProgress(report.NewProgress(sess.line-1, sess.total, fmt.Sprintf("Batch %d completed", sess.batchNumber)))
	return nil
}

// processBatch sends one batch and validates the answer.
func (t *Translator) processBatch(ctx context.Context, sess *session, batch translator.Batch, request string) ([]translator.Item, error) {
	done := batch.StartLine - 1
	t.reporter.OnProgress(report.NewProgress(done, sess.total, "Sending batch..."))

	req := sess.conversation.Request(sess.instruction, request)
	onChunk := func(n int) {
		t.reporter.OnProgress(report.NewProgress(done, sess.total, "Processing... "+humanize.Bytes(uint64(n))))
	}

	log.Debug("[%s] batch %d: lines %d-%d with key %d", t.runID, sess.batchNumber, batch.StartLine, batch.NextLine()-1, t.keys.Slot())
	resp, err := t.client.Call(ctx, t.keys.Key(), req, onChunk)
	if err != nil {
		if llm.IsQuotaError(err) {
			return nil, WrapError(err, ErrQuota, "quota exceeded").WithContext("key", t.keys.Slot())
		}
		return nil, WrapError(err, ErrTransport, "model call failed").WithContext("batch", sess.batchNumber)
	}

	if t.thoughts != nil && resp.Thoughts != "" {
		if err := t.thoughts.Append(sess.batchNumber, sess.attempt, resp.Thoughts); err != nil {
			log.Warn("[%s] %v", t.runID, err)
		}
	}

	result, err := translator.Validate(resp.Text, batch)
	for _, w := range result.Warnings {
		t.warn(sess, w)
	}
	if err != nil {
		return nil, WrapError(err, ErrValidation, "invalid model response").WithContext("batch", sess.batchNumber)
	}
	return result.Items, nil
}

// fitBatch builds the batch at the cursor, shrinking the batch size while
// the estimated request is too close to the model's input limit.
func (t *Translator) fitBatch(entries []subtitle.Entry, sess *session) translator.Batch {
	limit := t.config.TokenLimit
	if limit <= 0 {
		limit = translator.TokenLimit(t.config.Model)
	}

	for {
		batch := translator.NewBatch(entries, sess.line, sess.batchSize)
		if batch.Len() <= 1 {
			return batch
		}
		request, err := translator.BuildRequest(batch)
		if err != nil {
			return batch
		}

		history := sess.conversation.Size()
		tokens := translator.EstimateTokens(sess.instruction, request) + history/4
		if float64(tokens) <= float64(limit)*tokenWarnRatio {
			return batch
		}

		next := max(1, int(float64(sess.batchSize)*batchShrinkRatio))
		if next >= sess.batchSize {
			next = sess.batchSize - 1
		}
		t.warn(sess, fmt.Sprintf("Estimated %d tokens exceeds %d%% of the %d token limit, reducing batch size from %d to %d",
			tokens, int(tokenWarnRatio*100), limit, sess.batchSize, next))
		sess.batchSize = next
	}
}

// seedFromOutput loads translations written by an earlier run for the
// lines before the resume point.
func (t *Translator) seedFromOutput(entries []subtitle.Entry, sess *session) {
	data, err := os.ReadFile(t.config.OutputPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("[%s] cannot read previous output: %v", t.runID, err)
		}
		return
	}
	previous, err := subtitle.ReadSRTBytes(data, t.config.OutputPath)
	if err != nil {
		log.Warn("[%s] ignoring unreadable previous output: %v", t.runID, err)
		return
	}

	limit := min(sess.startLine-1, len(entries), len(previous.Entries))
	seeded := 0
	for i := 0; i < limit; i++ {
		if previous.Entries[i].ID != entries[i].ID {
			continue
		}
		sess.translated[entries[i].ID] = previous.Entries[i].Text
		seeded++
	}
	log.Info("[%s] reused %d translated entries from %s", t.runID, seeded, t.config.OutputPath)
}

// flush writes the subtitle file with every validated translation applied.
func (t *Translator) flush(entries []subtitle.Entry, sess *session) error {
	t.flushMu.Lock()
	defer t.flushMu.Unlock()

	out := make([]subtitle.Entry, len(entries))
	copy(out, entries)
	for i := range out {
		if text, ok := sess.translated[out[i].ID]; ok {
			out[i].Text = text
		}
	}

	if err := t.writer.Write(t.config.OutputPath, &subtitle.File{Entries: out, Format: "SRT"}); err != nil {
		t.reporter.OnError(fmt.Sprintf("Error saving subtitles: %v", err))
		return WrapError(err, ErrOutput, "failed to write output").WithContext("path", t.config.OutputPath)
	}
	return nil
}

func (t *Translator) interrupt(entries []subtitle.Entry, sess *session) error {
	t.reporter.OnWarning(fmt.Sprintf("Interrupted, saving progress at line %d", sess.line))
	t.stop(entries, sess)
	return NewError(ErrInterrupted, "translation interrupted").WithContext("line", sess.line)
}

func (t *Translator) abort(entries []subtitle.Entry, sess *session, cause error) error {
	t.reporter.OnError(fmt.Sprintf("Batch %d failed %d times, aborting", sess.batchNumber, sess.failures))
	t.stop(entries, sess)
	return WrapError(cause, ErrAborted, "translation aborted").WithContext("line", sess.line)
}

// stop flushes partial output and keeps the cursor for a later resume.
func (t *Translator) stop(entries []subtitle.Entry, sess *session) {
	if err := t.flush(entries, sess); err != nil {
		log.Error("[%s] %v", t.runID, err)
	}
	if t.store != nil {
		if err := t.store.Save(progress.State{Line: sess.line, InputFile: t.config.InputPath}); err != nil {
			log.Error("[%s] failed to save progress: %v", t.runID, err)
		}
	}
	t.saveTranscript()
}

func (t *Translator) warn(sess *session, message string) {
	sess.warnings++
	log.Warn("[%s] %s", t.runID, message)
	t.reporter.OnWarning(message)
}

func (t *Translator) saveTranscript() {
	if t.transcript == nil {
		return
	}
	if err := t.transcript.Save(t.config.ProgressLogPath); err != nil {
		log.Warn("[%s] %v", t.runID, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
