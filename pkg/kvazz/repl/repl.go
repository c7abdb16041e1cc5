// Package repl implements the interactive Kvazz session. Each chunk of
// input is a run of top-level declarations added to one persistent global
// frame; a line starting with '=' is evaluated as an expression.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/peterh/liner"

	"github.com/sambeau/kvazz/pkg/kvazz/evaluator"
	"github.com/sambeau/kvazz/pkg/kvazz/help"
	"github.com/sambeau/kvazz/pkg/kvazz/kvazz"
	"github.com/sambeau/kvazz/pkg/kvazz/lexer"
	"github.com/sambeau/kvazz/pkg/kvazz/parser"
)

const PROMPT = "kv> "
const CONTINUATION_PROMPT = "... "

const LOGO = `
█▄▀ █░█ ▄▀█ ▀█ ▀█
█░█ ▀▄▀ █▀█ █▄ █▄`

// Options configures a session
type Options struct {
	Prompt       string
	HistoryFile  string // empty selects a file in the temp directory
	Color        bool
	MaxCallDepth int
}

// Session holds the state that persists between inputs
type Session struct {
	interp *evaluator.Interpreter
	out    io.Writer
	color  bool
}

// NewSession creates a session whose print output and results go to out
func NewSession(out io.Writer, opts Options) *Session {
	return &Session{
		interp: kvazz.NewInterpreter(
			kvazz.WithLogger(kvazz.WriterLogger(out)),
			kvazz.WithMaxCallDepth(opts.MaxCallDepth),
		),
		out:   out,
		color: opts.Color,
	}
}

// Start runs the interactive loop with line editing, history and tab
// completion until the user quits
func Start(out io.Writer, version string, opts Options) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	session := NewSession(out, opts)
	line.SetCompleter(session.complete)

	historyFile := opts.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".kvazz_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	prompt := opts.Prompt
	if prompt == "" {
		prompt = PROMPT
	}

	fmt.Fprintln(out, LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Declare with var and function, evaluate with '= expr'")
	fmt.Fprintln(out, "Type ':help' for commands, Ctrl+D to quit")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder

	for {
		currentPrompt := prompt
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		if inputBuffer.Len() == 0 && strings.TrimSpace(input) == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		chunk := inputBuffer.String()
		if needsMoreInput(chunk) {
			continue
		}
		inputBuffer.Reset()
		line.AppendHistory(chunk)

		if quit := session.Eval(chunk); quit {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
	}
}

// RunReader runs a whole program read from in, as when a script is piped
// to kvazz instead of typed at a terminal
func RunReader(in io.Reader, out io.Writer, opts Options) error {
	source, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	_, err = kvazz.Eval(string(source),
		kvazz.WithLogger(kvazz.WriterLogger(out)),
		kvazz.WithMaxCallDepth(opts.MaxCallDepth),
		kvazz.WithFilename("<stdin>"),
	)
	return err
}

// Eval handles one complete chunk of input. It returns true when the
// chunk asks to end the session.
func (s *Session) Eval(chunk string) bool {
	trimmed := strings.TrimSpace(chunk)

	switch {
	case trimmed == "":
		return false
	case trimmed == "exit" || trimmed == "quit":
		return true
	case strings.HasPrefix(trimmed, ":"):
		return s.command(trimmed)
	case strings.HasPrefix(trimmed, "="):
		s.evalExpression(trimmed[1:])
	default:
		s.declare(trimmed)
	}
	return false
}

func (s *Session) evalExpression(source string) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		s.printError(err)
		return
	}
	expr, err := parser.ParseExpression(tokens)
	if err != nil {
		s.printError(err)
		return
	}
	value, err := s.interp.EvalExpression(expr, nil)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintln(s.out, evaluator.Display(value))
}

func (s *Session) declare(source string) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		s.printError(err)
		return
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		s.printError(err)
		return
	}
	if err := s.interp.Load(program); err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintln(s.out, "OK")
}

// command handles REPL meta-commands that start with ':'
func (s *Session) command(cmd string) bool {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  = expr             Evaluate an expression and print its value")
		fmt.Fprintln(s.out, "  :run               Call main()")
		fmt.Fprintln(s.out, "  :globals           Show the global frame")
		fmt.Fprintln(s.out, "  :reset             Forget every global")
		fmt.Fprintln(s.out, "  :describe <topic>  Help for builtins, operators, types, keywords or a name")
		fmt.Fprintln(s.out, "  :help, :h, :?      Show this help")
		fmt.Fprintln(s.out, "  :quit, exit        Leave the REPL")

	case ":quit", ":q":
		return true

	case ":globals":
		s.printGlobals()

	case ":reset":
		s.interp.Globals = evaluator.NewEnvironment()
		fmt.Fprintln(s.out, "Globals cleared")

	case ":run":
		value, err := s.interp.CallMain()
		if err != nil {
			s.printError(err)
			break
		}
		fmt.Fprintln(s.out, evaluator.Display(value))

	case ":describe", ":d":
		if arg == "" {
			arg = "builtins"
		}
		result, err := help.DescribeTopic(arg)
		if err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		fmt.Fprint(s.out, help.FormatText(result))

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", name)
	}
	return false
}

func (s *Session) printGlobals() {
	names := s.interp.Globals.Names()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "(no globals)")
		return
	}
	for _, name := range names {
		value, _ := s.interp.Globals.Get(name)
		fmt.Fprintf(s.out, "  %s: %s\n", name, evaluator.DescribeValue(value))
	}
}

func (s *Session) printError(err error) {
	fmt.Fprintln(s.out, kvazz.FormatError(err, s.color))
}

// complete offers keywords, built-ins and globals matching the word under
// the cursor
func (s *Session) complete(line string) []string {
	if line == "" || strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
		return nil
	}

	start := len(line)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		start -= size
	}
	head, word := line[:start], line[start:]
	if word == "" {
		return nil
	}
	global := strings.HasPrefix(word, "$")
	word = strings.TrimPrefix(word, "$")

	candidates := s.interp.Globals.Names()
	if !global {
		for name := range lexer.Keywords {
			candidates = append(candidates, name)
		}
		for _, b := range evaluator.Builtins() {
			candidates = append(candidates, b.Name)
		}
	}
	sort.Strings(candidates)

	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			if global {
				c = "$" + c
			}
			matches = append(matches, head+c)
		}
	}
	return matches
}

// needsMoreInput reports whether the input has unclosed braces, brackets
// or parentheses outside strings and comments
func needsMoreInput(input string) bool {
	depth := 0
	var quote rune
	inComment, inBlockComment := false, false
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case inBlockComment:
			if ch == '~' && i+1 < len(runes) && runes[i+1] == '~' {
				inBlockComment = false
				i++
			}
		case inComment:
			if ch == '\n' {
				inComment = false
			}
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '~':
			if i+1 < len(runes) && runes[i+1] == '~' {
				inBlockComment = true
				i++
			} else {
				inComment = true
			}
		case ch == '{' || ch == '[' || ch == '(':
			depth++
		case ch == '}' || ch == ']' || ch == ')':
			depth--
		}
	}

	return depth > 0 || quote != 0 || inBlockComment
}
