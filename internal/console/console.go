// Package console provides the leveled console logger used by refscan.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Logger writes progress lines to out and diagnostics to errOut.
// Safe for concurrent use by multiple goroutines.
type Logger struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool

	warn  *color.Color
	debug *color.Color
	mu    sync.Mutex
}

// New creates a Logger. Verbose lines are dropped unless verbose is true.
// Colors are enabled only when errOut is a terminal.
func New(out, errOut io.Writer, verbose bool) *Logger {
	l := &Logger{
		out:     out,
		errOut:  errOut,
		verbose: verbose,
		warn:    color.New(color.FgYellow),
		debug:   color.New(color.FgCyan),
	}
	if !isTerminal(errOut) {
		l.warn.DisableColor()
		l.debug.DisableColor()
	} else {
		l.warn.EnableColor()
		l.debug.EnableColor()
	}
	return l
}

// Info writes a progress line.
func (l *Logger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.out, format+"\n", args...)
}

// Warn writes a warning line.
func (l *Logger) Warn(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.errOut, "%s %s\n", l.warn.Sprint("Warning:"), fmt.Sprintf(format, args...))
}

// Verbose writes a diagnostic line when verbose output is enabled.
func (l *Logger) Verbose(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.errOut, "%s %s\n", l.debug.Sprint("[VERBOSE]"), fmt.Sprintf(format, args...))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
