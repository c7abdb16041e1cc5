package kvazz

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambeau/kvazz/pkg/kvazz/evaluator"
)

// Logger receives the output of print. It is an alias for evaluator.Logger.
type Logger = evaluator.Logger

// StdoutLogger returns the logger the CLI and REPL use
func StdoutLogger() Logger {
	return evaluator.DefaultLogger
}

type writerLogger struct {
	w io.Writer
}

func (l *writerLogger) Log(values ...any) {
	io.WriteString(l.w, joinValues(values))
}

func (l *writerLogger) LogLine(values ...any) {
	io.WriteString(l.w, joinValues(values)+"\n")
}

// WriterLogger returns a logger that writes to w
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// BufferedLogger keeps program output in memory. It is safe for use from
// several goroutines, so one logger can collect output from parallel runs.
type BufferedLogger struct {
	mu      sync.Mutex
	lines   []string
	pending strings.Builder
}

// NewBufferedLogger creates an empty buffered logger
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending.WriteString(joinValues(values))
}

// LogLine completes the pending line
func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, l.pending.String()+joinValues(values))
	l.pending.Reset()
}

// String returns everything logged so far, each completed line followed by
// a newline
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sb strings.Builder
	for _, line := range l.lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(l.pending.String())
	return sb.String()
}

// Lines returns a copy of the completed lines
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Reset discards all captured output
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.pending.Reset()
}

type nullLogger struct{}

func (nullLogger) Log(values ...any)     {}
func (nullLogger) LogLine(values ...any) {}

// NullLogger returns a logger that discards everything
func NullLogger() Logger {
	return nullLogger{}
}

// joinValues separates values with single spaces, like print does
func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
