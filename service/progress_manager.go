package service

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/XVilka/fcd/domain"
)

// ProgressBarReporter reports per-function progress on stderr using a
// progress bar. It stays silent in non-interactive environments.
type ProgressBarReporter struct {
	mu          sync.Mutex
	writer      io.Writer
	bar         *progressbar.ProgressBar
	interactive bool
}

// NewProgressReporter creates a progress reporter writing to stderr.
func NewProgressReporter() domain.ProgressReporter {
	return &ProgressBarReporter{
		writer:      os.Stderr,
		interactive: isInteractiveEnvironment(),
	}
}

// Start implements domain.ProgressReporter.
func (p *ProgressBarReporter) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.interactive || total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("structurizing"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.writer)
		}),
	)
}

// Step implements domain.ProgressReporter.
func (p *ProgressBarReporter) Step(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	p.bar.Describe("structurizing " + name)
	_ = p.bar.Add(1)
}

// Finish implements domain.ProgressReporter.
func (p *ProgressBarReporter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// NoopProgressReporter discards all progress events.
type NoopProgressReporter struct{}

func (NoopProgressReporter) Start(int)   {}
func (NoopProgressReporter) Step(string) {}
func (NoopProgressReporter) Finish()     {}

// isInteractiveEnvironment returns true if stderr is a TTY and the
// process is not running under CI.
func isInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
