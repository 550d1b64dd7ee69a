package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorMode controls ANSI color on the console.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Options configures New.
type Options struct {
	Color   ColorMode
	File    string // optional append-only log file
	Verbose bool

	// Console sinks; nil means os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Logger provides leveled, optionally colored logging with an optional file
// sink. A nil *Logger discards everything.
type Logger struct {
	mu       sync.Mutex
	stdout   io.Writer
	stderr   io.Writer
	console  bool
	verbose  bool
	file     *os.File
	filePath string
	styles   map[string]lipgloss.Style
}

// New builds a Logger. Call Close when a log file was requested.
func New(opts Options) (*Logger, error) {
	l := &Logger{
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		console: true,
		verbose: opts.Verbose,
	}
	if l.stdout == nil {
		l.stdout = os.Stdout
	}
	if l.stderr == nil {
		l.stderr = os.Stderr
	}

	renderer := lipgloss.NewRenderer(l.stdout)
	if colorEnabled(opts.Color, l.stdout) {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
	level := func(c string) lipgloss.Style {
		return renderer.NewStyle().Bold(true).Foreground(lipgloss.Color(c))
	}
	l.styles = map[string]lipgloss.Style{
		"INFO":    level("12"),
		"SUCCESS": level("10"),
		"WARN":    level("11"),
		"ERROR":   level("9"),
		"DEBUG":   level("14"),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		l.filePath = opts.File
	}
	return l, nil
}

func colorEnabled(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f) && os.Getenv("NO_COLOR") == "" && strings.ToLower(os.Getenv("TERM")) != "dumb"
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetConsole enables or disables console output. The file sink is unaffected.
func (l *Logger) SetConsole(on bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.console = on
	l.mu.Unlock()
}

// Verbose reports whether Debug lines are emitted.
func (l *Logger) Verbose() bool { return l != nil && l.verbose }

// Path returns the log file path, if any.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level, text string) {
	if l == nil {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.console {
		out := l.stdout
		if level == "ERROR" {
			out = l.stderr
		}
		_, _ = io.WriteString(out, ts+" "+l.styles[level].Render("["+level+"]")+" "+text+"\n")
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, ts+" ["+level+"] "+text+"\n")
	}
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) {
	l.line("INFO", fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level.
func (l *Logger) Success(format string, args ...any) {
	l.line("SUCCESS", fmt.Sprintf(format, args...))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...any) {
	l.line("WARN", fmt.Sprintf(format, args...))
}

// Error logs at ERROR level to stderr.
func (l *Logger) Error(format string, args ...any) {
	l.line("ERROR", fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level only when the logger is verbose.
func (l *Logger) Debug(format string, args ...any) {
	if !l.Verbose() {
		return
	}
	l.line("DEBUG", fmt.Sprintf(format, args...))
}
