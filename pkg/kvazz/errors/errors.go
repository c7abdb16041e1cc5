// Package errors provides the structured error type shared by every stage of
// the Kvazz pipeline.
//
// A KvazzError describes a lexer, parser or runtime failure together with its
// catalog code, position and hints, so drivers can print, colorize or
// serialize it without caring which stage produced it.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassLex           ErrorClass = "lex"           // Unrecognized input
	ClassParse         ErrorClass = "parse"         // Grammar mismatch
	ClassUndefined     ErrorClass = "undefined"     // Unresolved identifier
	ClassDeclare       ErrorClass = "declare"       // Duplicate or illegal binding
	ClassFormat        ErrorClass = "format"        // Malformed literal text
	ClassArity         ErrorClass = "arity"         // Wrong argument count
	ClassUnimplemented ErrorClass = "unimplemented" // Registered but missing built-in
	ClassType          ErrorClass = "type"          // Type mismatches
	ClassOperator      ErrorClass = "operator"      // Invalid operations
	ClassIndex         ErrorClass = "index"         // Out of bounds
	ClassEntry         ErrorClass = "entry"         // Missing or invalid main
	ClassStack         ErrorClass = "stack"         // Call depth exceeded
	ClassInternal      ErrorClass = "internal"      // Interpreter bug
)

// KvazzError represents any error from lexing, parsing or evaluation.
type KvazzError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "UNDEF-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`  // File path (if known)
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *KvazzError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *KvazzError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// Header returns the stage name used to introduce the error when displayed.
func (e *KvazzError) Header() string {
	switch e.Class {
	case ClassLex:
		return "Lexer error"
	case ClassParse:
		return "Parser error"
	default:
		return "Runtime error"
	}
}

// PrettyString returns a multi-line formatted string for display.
func (e *KvazzError) PrettyString() string {
	var sb strings.Builder

	sb.WriteString(e.Header())

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *KvazzError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *KvazzError) WithFile(file string) *KvazzError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *KvazzError) WithPosition(line, column int) *KvazzError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsLexError returns true if the error was raised while tokenizing.
func (e *KvazzError) IsLexError() bool {
	return e.Class == ClassLex
}

// IsParseError returns true if this is a parser error.
func (e *KvazzError) IsParseError() bool {
	return e.Class == ClassParse
}

// IsRuntimeError returns true if the error was raised during evaluation.
func (e *KvazzError) IsRuntimeError() bool {
	return e.Class != ClassParse && e.Class != ClassLex
}

// As extracts a *KvazzError from err, if it is one.
func As(err error) (*KvazzError, bool) {
	ke, ok := err.(*KvazzError)
	return ke, ok
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Lexer errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLex,
		Template: "unrecognized character '{{.Char}}'",
	},
	"LEX-0002": {
		Class:    ClassLex,
		Template: "unterminated string starting with {{.Quote}}",
		Hints:    []string{"close the string with a matching {{.Quote}}"},
	},
	"LEX-0003": {
		Class:    ClassLex,
		Template: "unterminated block comment",
		Hints:    []string{"close the comment with ~~"},
	},

	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected '{{.Got}}' at top level",
		Hints:    []string{"var name = value;", "function name() { ... }"},
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "a statement cannot start with '{{.Got}}'",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "invalid assignment target",
		Hints:    []string{"name = value;", "name[index] = value;"},
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "a block needs at least one statement",
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "expected an expression, got '{{.Got}}'",
	},

	// ========================================
	// Undefined errors (UNDEF-0xxx)
	// ========================================
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "identifier not found: {{.Name}}",
	},

	// ========================================
	// Declaration errors (DECL-0xxx)
	// ========================================
	"DECL-0001": {
		Class:    ClassDeclare,
		Template: "'{{.Name}}' is already declared in this scope",
		Hints:    []string{"{{.Name}} = value;"},
	},
	"DECL-0002": {
		Class:    ClassDeclare,
		Template: "cannot bind built-in '{{.Name}}'",
	},

	// ========================================
	// Format errors (FMT-0xxx)
	// ========================================
	"FMT-0001": {
		Class:    ClassFormat,
		Template: "invalid {{.Kind}} '{{.Literal}}'",
	},

	// ========================================
	// Arity errors (ARITY-0xxx)
	// ========================================
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "wrong number of arguments to `{{.Function}}`. got={{.Got}}, want={{.Want}}",
	},
	"ARITY-0002": {
		Class:    ClassArity,
		Template: "wrong number of arguments to `{{.Function}}`. got={{.Got}}, want={{.Min}}-{{.Max}}",
	},
	"ARITY-0003": {
		Class:    ClassArity,
		Template: "function `{{.Function}}` takes {{.Want}} argument(s), got {{.Got}}",
	},

	// ========================================
	// Unimplemented built-ins (IMPL-0xxx)
	// ========================================
	"IMPL-0001": {
		Class:    ClassUnimplemented,
		Template: "built-in `{{.Name}}` is not implemented",
	},

	// ========================================
	// Type errors (TYPE-0xxx)
	// ========================================
	"TYPE-0001": {
		Class:    ClassType,
		Template: "cannot call {{.Type}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "cannot index {{.Type}}",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "argument to `{{.Function}}` must be {{.Expected}}, got {{.Got}}",
	},

	// ========================================
	// Operator errors (OP-0xxx)
	// ========================================
	"OP-0001": {
		Class:    ClassOperator,
		Template: "unsupported operands for {{.Operator}}: {{.Left}} and {{.Right}}",
	},
	"OP-0002": {
		Class:    ClassOperator,
		Template: "unsupported operand for unary {{.Operator}}: {{.Type}}",
	},
	"OP-0003": {
		Class:    ClassOperator,
		Template: "integer division by zero",
	},

	// ========================================
	// Index errors (INDEX-0xxx)
	// ========================================
	"INDEX-0001": {
		Class:    ClassIndex,
		Template: "index {{.Index}} out of range (length {{.Length}})",
	},
	"INDEX-0002": {
		Class:    ClassIndex,
		Template: "index must be an integer, got {{.Type}}",
	},
	"INDEX-0003": {
		Class:    ClassIndex,
		Template: "cannot assign into text",
	},
	"INDEX-0004": {
		Class:    ClassIndex,
		Template: "vector size {{.Size}} exceeds the limit of {{.Max}}",
	},

	// ========================================
	// Entry point errors (ENTRY-0xxx)
	// ========================================
	"ENTRY-0001": {
		Class:    ClassEntry,
		Template: "program has no `main` function",
		Hints:    []string{"function main() { ... }"},
	},
	"ENTRY-0002": {
		Class:    ClassEntry,
		Template: "`main` must take no parameters, it takes {{.Got}}",
	},

	// ========================================
	// Stack errors (STACK-0xxx)
	// ========================================
	"STACK-0001": {
		Class:    ClassStack,
		Template: "maximum call depth {{.Max}} exceeded",
	},

	// ========================================
	// Internal errors (INTERNAL-0xxx)
	// ========================================
	"INTERNAL-0001": {
		Class:    ClassInternal,
		Template: "internal error: cannot evaluate {{.Node}}",
	},
}

// New creates a KvazzError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *KvazzError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &KvazzError{
			Class:   ClassType,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &KvazzError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a KvazzError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *KvazzError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	matrix := make([][]int, len(ra)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(rb)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(ra)][len(rb)]
}

// threshold returns the maximum edit distance worth suggesting for input.
// Short words (1-3) allow 1 edit, medium words (4-6) 2, longer words 3.
func threshold(input string) int {
	n := len([]rune(input))
	switch {
	case n >= 7:
		return 3
	case n >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns the best match if the distance is within the threshold, otherwise empty string.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	// Candidates come from map iteration; sort so ties resolve the same way every run.
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	var bestMatch string
	bestDistance := -1

	for _, candidate := range sorted {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	// Don't suggest if distance is 0 (exact match) or over threshold
	if bestDistance <= 0 || bestDistance > threshold(input) {
		return ""
	}

	return bestMatch
}

// NewUndefinedIdentifier creates an undefined identifier error with optional fuzzy matching.
func NewUndefinedIdentifier(name string, availableIdentifiers []string) *KvazzError {
	err := New("UNDEF-0001", map[string]any{"Name": name})

	if suggestion := FindClosestMatch(name, availableIdentifiers); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}
