// Package rcli provides small terminal-output helpers (colorized
// status lines and a retry progress bar) shared by retryctl's
// subcommands.
package rcli

import (
	"fmt"
	"io"
	"os"

	colorable "github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// ColorMode controls whether Success/Warning/Failure colorize their
// output.
type ColorMode int

const (
	// ColorAuto colorizes only when stdout is a terminal.
	ColorAuto ColorMode = iota
	// ColorAlways always colorizes.
	ColorAlways
	// ColorNever never colorizes.
	ColorNever
)

var (
	globalMode = ColorAuto
	out        io.Writer = colorable.NewColorableStdout()
	errOut     io.Writer = colorable.NewColorableStderr()
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
)

// SetColorMode sets the global color mode used by this package's
// output helpers.
func SetColorMode(mode ColorMode) {
	globalMode = mode
}

// SetOutputForTest redirects Success/Warning's stdout writer and
// Failure's stderr writer, for tests that need to capture output
// without touching the real terminal streams.
func SetOutputForTest(stdout, stderr io.Writer) {
	out = stdout
	errOut = stderr
}

func enabled() bool {
	switch globalMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isatty.IsTerminal(os.Stdout.Fd())
	}
}

func colorize(code, text string) string {
	if !enabled() {
		return text
	}
	return code + text + reset
}

// Success prints a green status line to stdout.
func Success(format string, args ...interface{}) {
	fmt.Fprintln(out, colorize(green, "OK  "+fmt.Sprintf(format, args...)))
}

// Warning prints a yellow status line to stdout.
func Warning(format string, args ...interface{}) {
	fmt.Fprintln(out, colorize(yellow, "... "+fmt.Sprintf(format, args...)))
}

// Failure prints a red status line to stderr.
func Failure(format string, args ...interface{}) {
	fmt.Fprintln(errOut, colorize(red, "ERR "+fmt.Sprintf(format, args...)))
}
