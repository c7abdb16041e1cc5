package kvazz

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	kerrors "github.com/sambeau/kvazz/pkg/kvazz/errors"
	"github.com/sambeau/kvazz/pkg/kvazz/evaluator"
)

func TestEval(t *testing.T) {
	logger := NewBufferedLogger()
	result, err := Eval(`
var greeting = 'hello';
function main() {
  print(greeting, 'world');
  return 1 + 2 * 3;
}`, WithLogger(logger))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.String() != "7" {
		t.Errorf("expected 7, got %s", result.String())
	}
	if logger.String() != "hello world\n" {
		t.Errorf("unexpected output %q", logger.String())
	}
	if _, ok := result.Globals.Get("greeting"); !ok {
		t.Errorf("expected greeting in the global frame")
	}
}

func TestPipelineSteps(t *testing.T) {
	tokens, err := Tokenize("function main() { print('step'); }")
	if err != nil {
		t.Fatal(err)
	}
	program, err := Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := Run(program, WithLogger(WriterLogger(&out))); err != nil {
		t.Fatal(err)
	}
	if out.String() != "step\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestEvalErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(*kerrors.KvazzError) bool
	}{
		{"lex", "function main() { return 1 # 2; }", (*kerrors.KvazzError).IsLexError},
		{"parse", "function main() { return 1 }", (*kerrors.KvazzError).IsParseError},
		{"runtime", "function main() { return nope; }", (*kerrors.KvazzError).IsRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(tt.input, WithLogger(NullLogger()), WithFilename("demo.kvz"))
			kerr, ok := kerrors.As(err)
			if !ok {
				t.Fatalf("expected a KvazzError, got %v", err)
			}
			if !tt.check(kerr) {
				t.Errorf("wrong error class %s for %v", kerr.Class, kerr)
			}
			if kerr.File != "demo.kvz" {
				t.Errorf("expected the file name on the error, got %q", kerr.File)
			}
			if !strings.HasPrefix(kerr.Error(), "demo.kvz: ") {
				t.Errorf("expected the message to start with the file name, got %q", kerr.Error())
			}
		})
	}
}

func TestWithMaxCallDepth(t *testing.T) {
	src := "function down(n) { if n == 0 then { return 0; } return down(n - 1); } function main() { return down(100); }"

	if _, err := Eval(src, WithLogger(NullLogger())); err != nil {
		t.Fatalf("unexpected error without a limit: %v", err)
	}

	_, err := Eval(src, WithLogger(NullLogger()), WithMaxCallDepth(10))
	kerr, ok := kerrors.As(err)
	if !ok || kerr.Code != "STACK-0001" {
		t.Fatalf("expected STACK-0001, got %v", err)
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.kvz")
	if err := os.WriteFile(path, []byte("function main() { return 'hi'; }"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := RunFile(path, WithLogger(NullLogger()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text, ok := result.Value.(*evaluator.Text); !ok || text.Value != "hi" {
		t.Errorf("expected text hi, got %s", result.String())
	}

	bad := filepath.Join(dir, "bad.kvz")
	if err := os.WriteFile(bad, []byte("function main() { return x; }"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = RunFile(bad, WithLogger(NullLogger()))
	kerr, ok := kerrors.As(err)
	if !ok || kerr.File != bad {
		t.Errorf("expected an error for %s, got %v", bad, err)
	}

	if _, err := RunFile(filepath.Join(dir, "missing.kvz")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestBufferedLogger(t *testing.T) {
	l := NewBufferedLogger()
	l.Log("a", 1)
	l.Log(" b")
	if l.String() != "a 1 b" {
		t.Errorf("unexpected pending output %q", l.String())
	}
	l.LogLine("!")
	l.LogLine()
	if got := l.Lines(); len(got) != 2 || got[0] != "a 1 b!" || got[1] != "" {
		t.Errorf("unexpected lines %q", got)
	}
	if l.String() != "a 1 b!\n\n" {
		t.Errorf("unexpected output %q", l.String())
	}
	l.Reset()
	if l.String() != "" || len(l.Lines()) != 0 {
		t.Errorf("expected Reset to clear everything")
	}
}

func TestBufferedLoggerConcurrent(t *testing.T) {
	l := NewBufferedLogger()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Eval("function main() { print('x'); }", WithLogger(l)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := len(l.Lines()); n != 8 {
		t.Errorf("expected 8 lines, got %d", n)
	}
}

func TestResultString(t *testing.T) {
	var r *Result
	if r.String() != "" {
		t.Errorf("expected empty string for a nil result")
	}
	r = &Result{Value: evaluator.EMPTY}
	if r.String() != "empty" {
		t.Errorf("expected empty, got %s", r.String())
	}
}

func TestFormatError(t *testing.T) {
	_, err := Eval("var total = 1; function main() { return totl; }", WithLogger(NullLogger()))
	kerr, ok := kerrors.As(err)
	if !ok {
		t.Fatalf("expected a KvazzError, got %v", err)
	}

	plain := FormatError(err, false)
	if plain != kerr.PrettyString() {
		t.Errorf("expected plain output to match PrettyString:\n%s\n%s", plain, kerr.PrettyString())
	}
	if !strings.HasPrefix(plain, "Runtime error: line 1, column 41") {
		t.Errorf("unexpected header in %q", plain)
	}

	colored := FormatError(err, true)
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("expected ANSI escapes in %q", colored)
	}
	if !strings.Contains(colored, "Did you mean `total`?") {
		t.Errorf("expected the hint to survive coloring: %q", colored)
	}

	other := os.ErrNotExist
	if FormatError(other, true) != other.Error() {
		t.Errorf("expected non-Kvazz errors to pass through")
	}
}

func TestUseColor(t *testing.T) {
	if !UseColor(ColorAlways, os.Stdout) {
		t.Errorf("always must enable color")
	}
	if UseColor(ColorNever, os.Stdout) {
		t.Errorf("never must disable color")
	}
	t.Setenv("NO_COLOR", "1")
	if UseColor(ColorAuto, os.Stdout) {
		t.Errorf("NO_COLOR must disable auto color")
	}
}
