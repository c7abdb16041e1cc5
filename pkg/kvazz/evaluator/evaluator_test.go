package evaluator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sambeau/kvazz/pkg/kvazz/ast"
	kerrors "github.com/sambeau/kvazz/pkg/kvazz/errors"
	"github.com/sambeau/kvazz/pkg/kvazz/lexer"
	"github.com/sambeau/kvazz/pkg/kvazz/parser"
)

// recordingLogger captures print output
type recordingLogger struct {
	out strings.Builder
}

func (l *recordingLogger) Log(values ...interface{}) {
	for i, v := range values {
		if i > 0 {
			l.out.WriteString(" ")
		}
		fmt.Fprint(&l.out, v)
	}
}

func (l *recordingLogger) LogLine(values ...interface{}) {
	l.Log(values...)
	l.out.WriteString("\n")
}

// testRun parses and runs a whole program, returning main's value, the
// printed output and any runtime error
func testRun(t *testing.T, input string) (Object, string, error) {
	t.Helper()
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("tokenize %q: %v", input, err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	logger := &recordingLogger{}
	in := NewInterpreter(logger)
	result, err := in.Run(program)
	return result, logger.out.String(), err
}

// testEval wraps an expression in main and returns its printed form
func testEval(t *testing.T, expr string) string {
	t.Helper()
	result, _, err := testRun(t, "function main() { return "+expr+"; }")
	if err != nil {
		t.Fatalf("eval %q: %v", expr, err)
	}
	return result.Inspect()
}

func errorCode(err error) string {
	if kerr, ok := kerrors.As(err); ok {
		return kerr.Code
	}
	return ""
}

// TestPrecedence checks that * binds tighter than +
func TestPrecedence(t *testing.T) {
	result, _, err := testRun(t, "function main() { return 1 + 2 * 3; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := result.(*Integer)
	if !ok || n.Value != 7 {
		t.Fatalf("expected integer 7, got %s %s", result.Type(), result.Inspect())
	}
}

// TestExpressions covers the operator and built-in value rules
func TestExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(1 + 2) * 3", "9"},
		{"7 / 2", "3"},
		{"-7 / 2", "-3"},
		{"7 % 3", "1"},
		{"7.0 / 2", "3.5"},
		{"1 + 2.5", "3.5"},
		{"2 * 3.0", "6.0"},
		{"10 % 4.0", "2.0"},
		{"-2.5", "-2.5"},
		{"'ab' + \"cd\"", "abcd"},
		{"[1] + [2, 'x']", `[1, 2, "x"]`},
		{"1 < 2", "true"},
		{"2 <= 1", "false"},
		{"'a' < 'b'", "true"},
		{"3 != 4", "true"},
		{"1 == 1.0", "true"},
		{"1 == '1'", "false"},
		{"[1, [2]] == [1, [2]]", "true"},
		{"[1, 2] == [1]", "false"},
		{"1 & 0", "false"},
		{"0 | 2", "true"},
		{"!0", "true"},
		{"!'x'", "false"},
		{"!(1 < 2)", "false"},
		{"lengthof('héllo')", "5"},
		{"lengthof([1, 2, 3])", "3"},
		{"lengthof('')", "0"},
		{"hevec(2)", "[empty, empty]"},
		{"hevec(2, 0)", "[0, 0]"},
		{"hevec(0)", "[]"},
		{"lengthof == lengthof", "true"},
		{"print == lengthof", "false"},
	}

	for _, tt := range tests {
		if got := testEval(t, tt.input); got != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

// TestFactorial checks that a function resolves its own name through the
// global frame
func TestFactorial(t *testing.T) {
	input := `
function fact(n) {
  if n <= 1 then { return 1; } else { return n * fact(n - 1); }
}
function main() { return fact(5); }
`
	result, _, err := testRun(t, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inspect() != "120" {
		t.Errorf("expected 120, got %s", result.Inspect())
	}
}

func TestWhileLoop(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "sum",
			input: `function main() {
  var i = 1; var total = 0;
  while i <= 10 do { total += i; i += 1; }
  return total;
}`,
			expected: "55",
		},
		{
			name: "return stops the loop",
			input: `function main() {
  var i = 0;
  while true do { i += 1; if i == 3 then { return i; } }
  return -1;
}`,
			expected: "3",
		},
		{
			name: "false condition never runs",
			input: `function main() {
  var ran = false;
  while 0 do { ran = true; }
  return ran;
}`,
			expected: "false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := testRun(t, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Inspect() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result.Inspect())
			}
		})
	}
}

// TestBlockScopes checks redeclaration in sibling and identical frames
func TestBlockScopes(t *testing.T) {
	siblings := `function main() {
  if true then { var x = 1; } else { var x = 2; }
  if true then { var x = 1; }
  return 0;
}`
	if _, _, err := testRun(t, siblings); err != nil {
		t.Errorf("sibling blocks: unexpected error: %v", err)
	}

	same := `function main() {
  var x = 1;
  var x = 2;
  return 0;
}`
	_, _, err := testRun(t, same)
	if errorCode(err) != "DECL-0001" {
		t.Fatalf("same block: expected DECL-0001, got %v", err)
	}
	if !strings.Contains(err.Error(), "'x'") {
		t.Errorf("expected the message to name x, got %q", err.Error())
	}
}

func TestShadowing(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "local shadows global",
			input:    "var x = 1; function main() { var x = 2; return x + $x; }",
			expected: "3",
		},
		{
			name:     "body shadows parameter",
			input:    "function f(n) { var n = 2; return n; } function main() { return f(1); }",
			expected: "2",
		},
		{
			name:     "inner block shadows outer",
			input:    "function main() { var x = 1; if true then { var x = 5; x += 1; } return x; }",
			expected: "1",
		},
		{
			name:     "assignment reaches the owning frame",
			input:    "function main() { var x = 1; if true then { x = 5; } return x; }",
			expected: "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := testRun(t, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Inspect() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result.Inspect())
			}
		})
	}
}

func TestGlobalQualifier(t *testing.T) {
	input := `
var count = 0;
function bump() { $count += 1; return $count; }
function main() {
  var count = 100;
  bump();
  bump();
  return count + $count;
}`
	result, _, err := testRun(t, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inspect() != "102" {
		t.Errorf("expected 102, got %s", result.Inspect())
	}
}

// TestFunctionsCaptureNothing checks that a call frame hangs off the global
// frame rather than the frame the function was declared in
func TestFunctionsCaptureNothing(t *testing.T) {
	input := `function main() {
  var secret = 1;
  function peek() { return secret; }
  return peek();
}`
	_, _, err := testRun(t, input)
	if errorCode(err) != "UNDEF-0001" {
		t.Fatalf("expected UNDEF-0001, got %v", err)
	}
}

// TestLogicalOperatorsEvaluateBothSides checks & and | never short-circuit
func TestLogicalOperatorsEvaluateBothSides(t *testing.T) {
	input := `
function side(v) { print('side', v); return v; }
function main() {
  var a = 0 & side(1);
  var b = 1 | side(0);
  return [a, b];
}`
	result, out, err := testRun(t, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "side 1\nside 0\n" {
		t.Errorf("expected both right operands to run, got output %q", out)
	}
	if result.Inspect() != "[false, true]" {
		t.Errorf("expected [false, true], got %s", result.Inspect())
	}
}

func TestPrint(t *testing.T) {
	input := `function main() {
  print(1, 2.0, 'a', [1, 'b'], true, hevec(1));
  print();
  return print('x');
}`
	result, out, err := testRun(t, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "1 2.0 a [1, \"b\"] true [empty]\n\nx\n"
	if out != expected {
		t.Errorf("expected output %q, got %q", expected, out)
	}
	if result != EMPTY {
		t.Errorf("expected print to return empty, got %s", result.Inspect())
	}
}

func TestVectorAliasing(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "shared binding",
			input:    "function main() { var a = [1, 2]; var b = a; b[0] = 9; return a; }",
			expected: "[9, 2]",
		},
		{
			name:     "shared through a call",
			input:    "function set(v) { v[1] = 'x'; } function main() { var a = [1, 2]; set(a); return a; }",
			expected: `[1, "x"]`,
		},
		{
			name:     "hevec fill is shared",
			input:    "function main() { var row = [0]; var grid = hevec(2, row); grid[0][0] = 5; return grid[1][0]; }",
			expected: "5",
		},
		{
			name:     "compound element assignment",
			input:    "function main() { var v = [1]; v[0] += 4; v[0] *= 2; return v[0]; }",
			expected: "10",
		},
		{
			name:     "concatenation copies",
			input:    "function main() { var a = [1]; var b = a + [2]; b[0] = 7; return a; }",
			expected: "[1]",
		},
		{
			name:     "self-containing vectors compare equal",
			input:    "function main() { var v = [0]; v[0] = v; var w = [0]; w[0] = w; return v == w; }",
			expected: "true",
		},
		{
			name:     "self-containing vectors differ",
			input:    "function main() { var v = [0, 1]; v[0] = v; var w = [0, 2]; w[0] = w; return v != w; }",
			expected: "true",
		},
		{
			name:     "vector equals its wrapper",
			input:    "function main() { var v = [0]; v[0] = v; return v == [v]; }",
			expected: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := testRun(t, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Inspect() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result.Inspect())
			}
		})
	}
}

func TestIndexing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"function main() { var s = 'héllo'; return s[1]; }", "é"},
		{"function main() { var v = [1, [2, 3]]; return v[1][0]; }", "2"},
		{"function main() { var v = hevec(2); return v[1]; }", "empty"},
		{"function main() { var v = [1, 2]; var i = 1; return v[i - 1] + v[i]; }", "3"},
	}

	for _, tt := range tests {
		result, _, err := testRun(t, tt.input)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.input, err)
			continue
		}
		if result.Inspect() != tt.expected {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.expected, result.Inspect())
		}
	}
}

func TestEmptyValues(t *testing.T) {
	result, _, err := testRun(t, "function main() { var x; print(x); }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != EMPTY {
		t.Errorf("expected main without return to yield empty, got %s", result.Inspect())
	}
	if IsTruthy(EMPTY) {
		t.Errorf("empty must be falsy")
	}
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		obj      Object
		expected bool
	}{
		{&Integer{Value: 0}, false},
		{&Integer{Value: -1}, true},
		{&Real{Value: 0}, false},
		{&Real{Value: 0.1}, true},
		{FALSE, false},
		{TRUE, true},
		{&Text{Value: ""}, false},
		{&Text{Value: "0"}, true},
		{&Vector{}, false},
		{&Vector{Elements: []Object{EMPTY}}, true},
		{EMPTY, false},
		{builtins["print"], true},
	}

	for _, tt := range tests {
		if got := IsTruthy(tt.obj); got != tt.expected {
			t.Errorf("IsTruthy(%s %s) = %v, want %v", tt.obj.Type(), tt.obj.Inspect(), got, tt.expected)
		}
	}
}

// TestLiteralMemoization checks that evaluating one literal node twice
// yields the very same value
func TestLiteralMemoization(t *testing.T) {
	tokens, err := lexer.Tokenize("3.14")
	if err != nil {
		t.Fatal(err)
	}
	expr, err := parser.ParseExpression(tokens)
	if err != nil {
		t.Fatal(err)
	}

	in := NewInterpreter(&recordingLogger{})
	first, err := in.EvalExpression(expr, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := in.EvalExpression(expr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("expected the memoized value to be reused")
	}
	if r, ok := first.(*Real); !ok || r.Value != 3.14 {
		t.Errorf("expected real 3.14, got %s", first.Inspect())
	}
	if len(in.literals) != 1 {
		t.Errorf("expected one cached literal, got %d", len(in.literals))
	}
}

func TestLiteralParsing(t *testing.T) {
	tests := []struct {
		lit      *ast.Literal
		expected string
		code     string
	}{
		{&ast.Literal{Kind: ast.BoolLiteral, Text: "TRUE"}, "true", ""},
		{&ast.Literal{Kind: ast.BoolLiteral, Text: "False"}, "false", ""},
		{&ast.Literal{Kind: ast.IntLiteral, Text: "007"}, "7", ""},
		{&ast.Literal{Kind: ast.StringLiteral, Text: "a b"}, "a b", ""},
		{&ast.Literal{Kind: ast.IntLiteral, Text: "12x"}, "", "FMT-0001"},
		{&ast.Literal{Kind: ast.IntLiteral, Text: "99999999999999999999"}, "", "FMT-0001"},
		{&ast.Literal{Kind: ast.RealLiteral, Text: "1.2.3"}, "", "FMT-0001"},
		{&ast.Literal{Kind: ast.BoolLiteral, Text: "yes"}, "", "FMT-0001"},
	}

	for _, tt := range tests {
		in := NewInterpreter(&recordingLogger{})
		result, err := in.EvalExpression(tt.lit, nil)
		if tt.code != "" {
			if errorCode(err) != tt.code {
				t.Errorf("%q: expected %s, got %v", tt.lit.Text, tt.code, err)
			} else if !strings.Contains(err.Error(), tt.lit.Text) {
				t.Errorf("%q: expected the error to name the literal, got %q", tt.lit.Text, err.Error())
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.lit.Text, err)
			continue
		}
		if result.Inspect() != tt.expected {
			t.Errorf("%q: expected %s, got %s", tt.lit.Text, tt.expected, result.Inspect())
		}
	}
}

func TestUndefinedIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ident string
	}{
		{"variable", "function main() { return y; }", "y"},
		{"function", "function main() { missing(1); }", "missing"},
		{"assignment target", "function main() { z = 1; }", "z"},
		{"global lookup skips locals", "function main() { var w = 1; return $w; }", "w"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := testRun(t, tt.input)
			if errorCode(err) != "UNDEF-0001" {
				t.Fatalf("expected UNDEF-0001, got %v", err)
			}
			if !strings.Contains(err.Error(), "identifier not found: "+tt.ident) {
				t.Errorf("expected the error to name %s, got %q", tt.ident, err.Error())
			}
		})
	}
}

// TestAssignmentTargetCheckedFirst checks that a missing target fails
// before the right-hand side runs
func TestAssignmentTargetCheckedFirst(t *testing.T) {
	_, out, err := testRun(t, "function main() { z = print('rhs'); }")
	if errorCode(err) != "UNDEF-0001" {
		t.Fatalf("expected UNDEF-0001, got %v", err)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
}

func TestUndefinedIdentifierPositionAndHint(t *testing.T) {
	input := "var total = 1;\nfunction main() {\n  return totl;\n}"
	_, _, err := testRun(t, input)
	kerr, ok := kerrors.As(err)
	if !ok {
		t.Fatalf("expected a KvazzError, got %v", err)
	}
	if kerr.Line != 3 || kerr.Column != 10 {
		t.Errorf("expected line 3, column 10, got line %d, column %d", kerr.Line, kerr.Column)
	}
	if len(kerr.Hints) == 0 || kerr.Hints[0] != "Did you mean `total`?" {
		t.Errorf("expected a hint for total, got %v", kerr.Hints)
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"unimplemented printf", "function main() { printf('x'); }", "IMPL-0001"},
		{"unimplemented hovec", "function main() { return hovec(1, 2); }", "IMPL-0001"},
		{"lengthof without args", "function main() { return lengthof(); }", "ARITY-0001"},
		{"lengthof with two args", "function main() { return lengthof('a', 'b'); }", "ARITY-0001"},
		{"hevec without args", "function main() { return hevec(); }", "ARITY-0002"},
		{"hevec with three args", "function main() { return hevec(1, 2, 3); }", "ARITY-0002"},
		{"user function arity", "function f(a) { return a; } function main() { return f(1, 2); }", "ARITY-0003"},
		{"duplicate parameter", "function f(a, a) { return a; } function main() { return f(1, 2); }", "DECL-0001"},
		{"duplicate top level", "var a = 1; var a = 2; function main() { return 0; }", "DECL-0001"},
		{"declare a built-in", "var print = 1; function main() { return 0; }", "DECL-0002"},
		{"declare a built-in function", "function lengthof(x) { return 0; } function main() { return 0; }", "DECL-0002"},
		{"assign a built-in", "function main() { print = 1; }", "DECL-0002"},
		{"no main", "var x = 1;", "ENTRY-0001"},
		{"main with parameters", "function main(argv) { return 0; }", "ENTRY-0002"},
		{"main is not a function", "var main = 1;", "TYPE-0001"},
		{"integer division by zero", "function main() { return 1 / 0; }", "OP-0003"},
		{"integer modulo by zero", "function main() { return 1 % 0; }", "OP-0003"},
		{"text minus integer", "function main() { return 'a' - 1; }", "OP-0001"},
		{"vector times vector", "function main() { return [1] * [2]; }", "OP-0001"},
		{"negate text", "function main() { return -'a'; }", "OP-0002"},
		{"index out of range", "function main() { var v = [1]; return v[5]; }", "INDEX-0001"},
		{"negative index", "function main() { var v = [1]; return v[-1]; }", "INDEX-0001"},
		{"text index out of range", "function main() { var s = 'ab'; return s[2]; }", "INDEX-0001"},
		{"non-integer index", "function main() { var v = [1]; return v['a']; }", "INDEX-0002"},
		{"assign into text", "function main() { var s = 'abc'; s[0] = 'x'; }", "INDEX-0003"},
		{"call a number", "function main() { var n = 1; return n(2); }", "TYPE-0001"},
		{"index a number", "function main() { var n = 1; return n[0]; }", "TYPE-0002"},
		{"lengthof a number", "function main() { return lengthof(5); }", "TYPE-0003"},
		{"negative hevec size", "function main() { return hevec(-1); }", "TYPE-0003"},
		{"real hevec size", "function main() { return hevec(1.5); }", "TYPE-0003"},
		{"huge hevec size", "function main() { return hevec(9000000000000000000); }", "INDEX-0004"},
		{"hevec size over the limit", "function main() { return hevec(16777217); }", "INDEX-0004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := testRun(t, tt.input)
			if err == nil {
				t.Fatalf("expected %s, got no error", tt.code)
			}
			if got := errorCode(err); got != tt.code {
				t.Errorf("expected %s, got %s (%v)", tt.code, got, err)
			}
			if kerr, ok := kerrors.As(err); ok && !kerr.IsRuntimeError() {
				t.Errorf("expected a runtime error class, got %s", kerr.Class)
			}
		})
	}
}

func TestErrorPositions(t *testing.T) {
	tests := []struct {
		input  string
		code   string
		line   int
		column int
	}{
		// the '(' of the call
		{"function main() {\n  printf('x');\n}", "IMPL-0001", 2, 9},
		// the operator
		{"function main() {\n  return 1 / 0;\n}", "OP-0003", 2, 12},
		// the '[' of the access
		{"function main() {\n  var v = [];\n  return v[0];\n}", "INDEX-0001", 3, 11},
		// the 'var' keyword
		{"function main() {\n  var a = 1;\n  var a = 2;\n}", "DECL-0001", 3, 3},
	}

	for _, tt := range tests {
		_, _, err := testRun(t, tt.input)
		kerr, ok := kerrors.As(err)
		if !ok || kerr.Code != tt.code {
			t.Errorf("%q: expected %s, got %v", tt.input, tt.code, err)
			continue
		}
		if kerr.Line != tt.line || kerr.Column != tt.column {
			t.Errorf("%s: expected %d:%d, got %d:%d", tt.code, tt.line, tt.column, kerr.Line, kerr.Column)
		}
	}
}

func TestMaxCallDepth(t *testing.T) {
	tokens, err := lexer.Tokenize("function loop(n) { return loop(n + 1); } function main() { return loop(0); }")
	if err != nil {
		t.Fatal(err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}

	in := NewInterpreter(&recordingLogger{})
	in.MaxCallDepth = 50
	_, err = in.Run(program)
	if errorCode(err) != "STACK-0001" {
		t.Fatalf("expected STACK-0001, got %v", err)
	}
	if in.depth != 0 {
		t.Errorf("expected call depth to unwind to 0, got %d", in.depth)
	}
}

// TestPersistentGlobals checks that Load and CallMain can be driven
// separately against one global frame
func TestPersistentGlobals(t *testing.T) {
	in := NewInterpreter(&recordingLogger{})

	load := func(src string) error {
		tokens, err := lexer.Tokenize(src)
		if err != nil {
			return err
		}
		program, err := parser.Parse(tokens)
		if err != nil {
			return err
		}
		return in.Load(program)
	}

	if err := load("var base = 40;"); err != nil {
		t.Fatal(err)
	}
	if err := load("function main() { return base + 2; }"); err != nil {
		t.Fatal(err)
	}
	result, err := in.CallMain()
	if err != nil {
		t.Fatal(err)
	}
	if result.Inspect() != "42" {
		t.Errorf("expected 42, got %s", result.Inspect())
	}
	if names := in.Globals.Names(); len(names) != 2 || names[0] != "base" || names[1] != "main" {
		t.Errorf("unexpected globals %v", names)
	}
}

func TestInspect(t *testing.T) {
	cyclic := &Vector{}
	cyclic.Elements = []Object{&Integer{Value: 1}, cyclic}

	tests := []struct {
		obj      Object
		expected string
	}{
		{&Real{Value: 2}, "2.0"},
		{&Real{Value: 0.5}, "0.5"},
		{&Vector{Elements: []Object{&Text{Value: "a"}, &Vector{}}}, `["a", []]`},
		{cyclic, "[1, [...]]"},
		{&Function{Name: "add", Parameters: []string{"a", "b"}}, "function add(a, b)"},
		{builtins["hevec"], "builtin hevec"},
	}

	for _, tt := range tests {
		if got := tt.obj.Inspect(); got != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, got)
		}
	}
}

func TestBuiltinMetadata(t *testing.T) {
	infos := Builtins()
	arities := map[string]string{}
	implemented := map[string]bool{}
	for _, info := range infos {
		arities[info.Name] = info.Arity
		implemented[info.Name] = info.Implemented
	}

	expected := map[string]string{
		"print": "0+", "lengthof": "1", "hevec": "1-2",
		"printf": "1+", "println": "0+", "hovec": "2",
	}
	for name, arity := range expected {
		if arities[name] != arity {
			t.Errorf("%s: expected arity %s, got %s", name, arity, arities[name])
		}
	}
	if !implemented["print"] || implemented["hovec"] {
		t.Errorf("unexpected implemented flags %v", implemented)
	}
	if infos[0].Name != "hevec" {
		t.Errorf("expected builtins sorted by name, first is %s", infos[0].Name)
	}
}

// strayExpr is an expression kind the evaluator has no case for
type strayExpr struct {
	*ast.Literal
}

func TestUnhandledNodeKind(t *testing.T) {
	tok := lexer.Token{Type: lexer.INT, Literal: "1", Line: 2, Column: 5}
	expr := strayExpr{&ast.Literal{Token: tok, Kind: ast.IntLiteral, Text: "1"}}

	in := NewInterpreter(&recordingLogger{})
	_, err := in.EvalExpression(expr, nil)
	if got := errorCode(err); got != "INTERNAL-0001" {
		t.Fatalf("expected INTERNAL-0001, got %s (%v)", got, err)
	}
	kerr, _ := kerrors.As(err)
	if kerr.Line != 2 || kerr.Column != 5 {
		t.Errorf("expected position 2:5, got %d:%d", kerr.Line, kerr.Column)
	}
	if !strings.Contains(kerr.Message, "strayExpr") {
		t.Errorf("expected the node type in %q", kerr.Message)
	}
}
