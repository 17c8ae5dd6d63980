package rcli

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// AttemptBar is a small progress bar tracking attempts against a known
// ceiling, used by retryctl's demo commands to visualize a bounded
// retry policy running live.
type AttemptBar struct {
	bar *progressbar.ProgressBar
}

// NewAttemptBar builds a bar over maxAttempts attempts.
func NewAttemptBar(maxAttempts int, description string) *AttemptBar {
	bar := progressbar.NewOptions(maxAttempts,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &AttemptBar{bar: bar}
}

// Attempt advances the bar by one attempt.
func (a *AttemptBar) Attempt() { _ = a.bar.Add(1) }

// Finish completes the bar, leaving it at 100%.
func (a *AttemptBar) Finish() { _ = a.bar.Finish() }

// Spinner shows an indeterminate wait on stdout. None of retryctl's
// subcommands uses it.
type Spinner struct {
	bar  *progressbar.ProgressBar
	done chan struct{}
}

// NewSpinner starts a spinner with the given message, ticking until
// Stop is called.
func NewSpinner(message string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionSetDescription(message),
		progressbar.OptionSpinnerType(14),
	)
	s := &Spinner{bar: bar, done: make(chan struct{})}
	go s.run()
	return s
}

func (s *Spinner) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_ = s.bar.Add(1)
		}
	}
}

// Stop ends the spinner.
func (s *Spinner) Stop() {
	close(s.done)
	_ = s.bar.Finish()
}
