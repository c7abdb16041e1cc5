package format

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sambeau/kvazz/pkg/kvazz/lexer"
	"github.com/sambeau/kvazz/pkg/kvazz/parser"
)

func parseSource(t *testing.T, input string) string {
	t.Helper()
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Tree(program)
}

func TestTree(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:  "declaration and function",
			input: "var x = 1; function main() { return x + 2; }",
			expected: "`- Program\n" +
				"   |- Declare x\n" +
				"   |  `- int-literal '1'\n" +
				"   `- FunctionDeclare main()\n" +
				"      `- Block\n" +
				"         `- Return\n" +
				"            `- BinaryOp +\n" +
				"               |- VariableLookup x\n" +
				"               `- int-literal '2'\n",
		},
		{
			name:  "if else has three children",
			input: "function main() { if $g then { f(1); } else { v[0] -= 2; } }",
			expected: "`- Program\n" +
				"   `- FunctionDeclare main()\n" +
				"      `- Block\n" +
				"         `- IfElse\n" +
				"            |- VariableLookup $g\n" +
				"            |- Block\n" +
				"            |  `- FunctionCall\n" +
				"            |     |- VariableLookup f\n" +
				"            |     `- int-literal '1'\n" +
				"            `- Block\n" +
				"               `- AssignOp -=\n" +
				"                  |- Access\n" +
				"                  |  |- VariableLookup v\n" +
				"                  |  `- int-literal '0'\n" +
				"                  `- int-literal '2'\n",
		},
		{
			name:  "declaration without value is a leaf",
			input: "var y; function main() { return !y; }",
			expected: "`- Program\n" +
				"   |- Declare y\n" +
				"   `- FunctionDeclare main()\n" +
				"      `- Block\n" +
				"         `- Return\n" +
				"            `- UnaryOp !\n" +
				"               `- VariableLookup y\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSource(t, tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTreeNil(t *testing.T) {
	if got := Tree(nil); got != "" {
		t.Errorf("expected empty output for nil, got %q", got)
	}
}

func TestTokens(t *testing.T) {
	tokens, err := lexer.Tokenize("var x = 42;")
	if err != nil {
		t.Fatal(err)
	}
	expected := "keyword 'var'\n" +
		"identifier 'x'\n" +
		"symbol '='\n" +
		"int-literal '42'\n" +
		"symbol ';'\n"
	if diff := cmp.Diff(expected, Tokens(tokens)); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokensWithPositions(t *testing.T) {
	tokens, err := lexer.Tokenize("var s =\n  'hi';")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(TokensWithPositions(tokens), "\n"), "\n")
	expected := []string{
		"1:1  keyword 'var'",
		"1:5  identifier 's'",
		"1:7  symbol '='",
		"2:3  string-literal 'hi'",
		"2:7  symbol ';'",
	}
	if diff := cmp.Diff(expected, lines); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}
