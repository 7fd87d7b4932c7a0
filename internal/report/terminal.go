package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Terminal renders a progress bar with colored status lines above it.
type Terminal struct {
	out io.Writer

	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	total   int
	success *color.Color
	warning *color.Color
	failure *color.Color
	info    *color.Color
}

// NewTerminal creates a terminal reporter writing to out. Colors are used
// only when useColors is set and out is a terminal.
func NewTerminal(out io.Writer, useColors bool) *Terminal {
	colorize := useColors && ShouldColorize(out)

	t := &Terminal{
		out:     out,
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
		info:    color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{t.success, t.warning, t.failure, t.info} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// ShouldColorize reports whether writer is an interactive terminal.
func ShouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (t *Terminal) ensureBar(total int) {
	if t.bar != nil && t.total == total {
		return
	}
	t.total = total
	t.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetDescription("Translating:"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      "|",
			BarEnd:        "|",
		}),
	)
}

func (t *Terminal) OnProgress(p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ensureBar(max(p.Total, 1))
	if p.Message != "" {
		t.bar.Describe("Translating: " + p.Message)
	}
	_ = t.bar.Set(p.Current)
}

func (t *Terminal) OnBatchSuccess(message string) {
	t.println(t.success, message)
}

func (t *Terminal) OnWarning(message string) {
	t.println(t.warning, message)
}

func (t *Terminal) OnError(message string) {
	t.println(t.failure, message)
}

// Info prints a neutral status line.
func (t *Terminal) Info(message string) {
	t.println(t.info, message)
}

// Finish completes the bar and moves to a new line.
func (t *Terminal) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar != nil {
		_ = t.bar.Finish()
		fmt.Fprintln(t.out)
		t.bar = nil
	}
}

func (t *Terminal) println(c *color.Color, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil {
		_ = t.bar.Clear()
	}
	c.Fprintln(t.out, message)
	if t.bar != nil {
		_ = t.bar.RenderBlank()
	}
}
