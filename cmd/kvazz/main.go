package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sambeau/kvazz/config"
	"github.com/sambeau/kvazz/pkg/kvazz/ast"
	kerrors "github.com/sambeau/kvazz/pkg/kvazz/errors"
	"github.com/sambeau/kvazz/pkg/kvazz/evaluator"
	"github.com/sambeau/kvazz/pkg/kvazz/format"
	"github.com/sambeau/kvazz/pkg/kvazz/help"
	"github.com/sambeau/kvazz/pkg/kvazz/kvazz"
	"github.com/sambeau/kvazz/pkg/kvazz/lexer"
	"github.com/sambeau/kvazz/pkg/kvazz/parser"
	"github.com/sambeau/kvazz/pkg/kvazz/repl"
)

// Version is set at compile time via -ldflags
var Version = "0.3.0"

var (
	// Display flags
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")
	tokensFlag      = flag.Bool("tokens", false, "Print the token listing before running")
	positionsFlag   = flag.Bool("pos", false, "Include line:column in the token listing")
	astFlag         = flag.Bool("ast", false, "Print the syntax tree before running")
	colorFlag       = flag.String("color", "", "Color mode: auto, always or never")
	noColorFlag     = flag.Bool("no-color", false, "Disable colored output")

	// Evaluation flags
	evalFlag     = flag.String("e", "", "Evaluate code string")
	evalLongFlag = flag.String("eval", "", "Evaluate code string")
	checkFlag    = flag.Bool("check", false, "Check syntax without executing")
	watchFlag    = flag.Bool("watch", false, "Rerun the script whenever it changes")
	maxDepthFlag = flag.Int("max-depth", 0, "Maximum call depth (0 = unlimited)")

	// Configuration flags
	configFlag  = flag.String("config", "", "Path to kvazz.yaml")
	profileFlag = flag.String("profile", "", "Apply a named profile from the config")
)

func main() {
	// Check for subcommands first (before flag parsing)
	if len(os.Args) > 1 && os.Args[1] == "describe" {
		os.Exit(describeCommand(os.Args[2:], os.Stdout, os.Stderr))
	}

	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag || *versionLongFlag {
		fmt.Printf("kvazz version %s\n", Version)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	for _, w := range config.Warnings(cfg) {
		fmt.Fprintf(os.Stderr, "[CONFIG] warning: %s\n", w)
	}

	useColor := kvazz.UseColor(cfg.Output.Color, os.Stderr)
	d := &driver{
		cfg:    cfg,
		stdout: os.Stdout,
		stderr: os.Stderr,
		color:  useColor,
	}

	evalCode := *evalFlag
	if evalCode == "" {
		evalCode = *evalLongFlag
	}

	switch {
	case evalCode != "":
		os.Exit(d.evalInline(evalCode))
	case *checkFlag:
		files := flag.Args()
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "Error: -check requires at least one file")
			os.Exit(2)
		}
		os.Exit(d.checkFiles(files))
	case len(flag.Args()) > 0:
		filename := flag.Args()[0]
		if *watchFlag {
			os.Exit(d.watchFile(filename))
		}
		os.Exit(d.executeFile(filename))
	default:
		opts := repl.Options{
			Prompt:       cfg.REPL.Prompt,
			HistoryFile:  cfg.REPL.HistoryFile,
			Color:        kvazz.UseColor(cfg.Output.Color, os.Stdout),
			MaxCallDepth: cfg.Runtime.MaxCallDepth,
		}
		if kvazz.IsTerminal(os.Stdin) {
			repl.Start(os.Stdout, Version, opts)
			return
		}
		if err := repl.RunReader(os.Stdin, os.Stdout, opts); err != nil {
			fmt.Fprintln(os.Stderr, kvazz.FormatError(err, useColor))
			os.Exit(1)
		}
	}
}

// loadConfig reads kvazz.yaml and lets explicitly set flags override it
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFlag, os.Getenv)
	if err != nil {
		return nil, err
	}
	if *profileFlag != "" {
		if err := config.ApplyProfile(cfg, *profileFlag); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-depth":
			cfg.Runtime.MaxCallDepth = *maxDepthFlag
		case "color":
			cfg.Output.Color = *colorFlag
		case "tokens":
			cfg.Output.Tokens = *tokensFlag
		case "ast":
			cfg.Output.AST = *astFlag
		}
	})
	if *noColorFlag {
		cfg.Output.Color = kvazz.ColorNever
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printHelp() {
	fmt.Printf(`kvazz - Kvazz language interpreter version %s

Usage:
  kvazz [options] [file]
  kvazz -e "code"
  kvazz -check <file>...
  kvazz describe [-json] <topic>

Commands:
  describe <topic>      Show help for builtins, operators, types, keywords or a name

Display Options:
  -h, -help             Show this help message
  -V, -version          Show version information
  -tokens               Print the token listing before running
  -pos                  Include line:column in the token listing
  -ast                  Print the syntax tree before running
  -color <mode>         Color mode: auto, always or never
  -no-color             Disable colored output

Evaluation Options:
  -e, -eval <code>      Evaluate an expression, or a program if the code starts
                        with var or function
  -check                Check syntax without executing (can specify multiple files)
  -watch                Rerun the script whenever it or watch.include changes
  -max-depth <n>        Fail with a stack error beyond n nested calls

Configuration:
  -config <path>        Read this file instead of searching for kvazz.yaml
  -profile <name>       Apply a named profile from the config

Examples:
  kvazz                          Start interactive REPL
  kvazz script.kvz               Run a Kvazz script (calls main)
  kvazz -e "1 + 2 * 3"           Evaluate an expression (outputs: 7)
  kvazz -e "lengthof('abc')"     Call a builtin (outputs: 3)
  kvazz -check *.kvz             Check multiple files
  kvazz -ast script.kvz          Show the syntax tree, then run
  kvazz -watch script.kvz        Rerun on every save
  kvazz describe builtins        List all builtin functions
`, Version)
}

// describeCommand implements the 'kvazz describe <topic>' subcommand
func describeCommand(args []string, stdout, stderr io.Writer) int {
	jsonOutput := false
	var topic string

	for _, arg := range args {
		if arg == "-json" || arg == "--json" {
			jsonOutput = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if topic == "" {
		fmt.Fprintln(stderr, `Usage: kvazz describe [-json] <topic>

Topics:
  builtins           List all builtin functions
  operators          List all operators by category
  types              List all value types
  keywords           List all keywords
  <builtin>          Help for a specific builtin (print, lengthof, hevec, ...)
  <type>             Help for a specific type (integer, text, vector, ...)
  <keyword>          Help for a specific keyword (var, while, ...)

Examples:
  kvazz describe builtins
  kvazz describe hevec
  kvazz describe -json vector`)
		return 1
	}

	result, err := help.DescribeTopic(topic)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if jsonOutput {
		data, err := help.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(stderr, "Error formatting JSON: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		fmt.Fprint(stdout, help.FormatText(result))
	}
	return 0
}

// driver carries the resolved configuration through one invocation
type driver struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
	color  bool
}

// evalInline runs -e code. Code starting with a declaration keyword is a
// program; anything else is a single expression whose value is printed.
func (d *driver) evalInline(code string) int {
	const name = "<eval>"

	tokens, err := lexer.Tokenize(code)
	if err != nil {
		d.printError(code, withFile(err, name))
		return 1
	}
	d.dumpTokens(tokens)

	if len(tokens) > 0 && tokens[0].Type == lexer.KEYWORD &&
		(tokens[0].Literal == "var" || tokens[0].Literal == "function") {
		program, err := parser.Parse(tokens)
		if err != nil {
			d.printError(code, withFile(err, name))
			return 1
		}
		return d.runProgram(program, code, name)
	}

	expr, err := parser.ParseExpression(tokens)
	if err != nil {
		d.printError(code, withFile(err, name))
		return 1
	}
	d.dumpTree(expr)

	in := kvazz.NewInterpreter(
		kvazz.WithLogger(kvazz.WriterLogger(d.stdout)),
		kvazz.WithMaxCallDepth(d.cfg.Runtime.MaxCallDepth),
	)
	value, err := in.EvalExpression(expr, nil)
	if err != nil {
		d.printError(code, withFile(err, name))
		return 1
	}
	fmt.Fprintln(d.stdout, evaluator.Display(value))
	return 0
}

// executeFile reads, parses and runs a script. main's value is discarded.
func (d *driver) executeFile(filename string) int {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error reading file '%s': %v\n", filename, err)
		return 2
	}
	source := string(content)

	tokens, err := lexer.Tokenize(source)
	if err != nil {
		d.printError(source, withFile(err, filename))
		return 1
	}
	d.dumpTokens(tokens)

	program, err := parser.Parse(tokens)
	if err != nil {
		d.printError(source, withFile(err, filename))
		return 1
	}
	return d.runProgram(program, source, filename)
}

func (d *driver) runProgram(program *ast.Program, source, filename string) int {
	d.dumpTree(program)

	err := kvazz.Run(program,
		kvazz.WithLogger(kvazz.WriterLogger(d.stdout)),
		kvazz.WithMaxCallDepth(d.cfg.Runtime.MaxCallDepth),
		kvazz.WithFilename(filename),
	)
	if err != nil {
		d.printError(source, err)
		return 1
	}
	return 0
}

// checkFiles checks the syntax of one or more files without executing them
func (d *driver) checkFiles(files []string) int {
	hasErrors := false

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(d.stderr, "Error reading %s: %v\n", filename, err)
			return 2 // File error
		}
		source := string(content)

		tokens, err := lexer.Tokenize(source)
		if err == nil {
			var program *ast.Program
			if program, err = parser.Parse(tokens); err == nil {
				d.dumpTokens(tokens)
				d.dumpTree(program)
				d.reportStats(filename, program)
				continue
			}
		}
		d.printError(source, withFile(err, filename))
		hasErrors = true
	}

	if hasErrors {
		return 1 // Syntax errors
	}
	return 0
}

// reportStats summarizes a program that parsed cleanly
func (d *driver) reportStats(filename string, program *ast.Program) {
	functions, variables := 0, 0
	ast.Inspect(program, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.FunctionDeclare:
			functions++
		case *ast.Declare:
			variables++
		}
		return true
	})

	hasMain := false
	for _, decl := range program.Declarations {
		if fd, ok := decl.(*ast.FunctionDeclare); ok && fd.Name == "main" {
			hasMain = true
		}
	}

	fmt.Fprintf(d.stdout, "%s: ok (%s, %s)\n", filename,
		plural(functions, "function"), plural(variables, "variable"))
	if !hasMain {
		fmt.Fprintf(d.stderr, "%s: warning: no main function\n", filename)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// watchFile runs the script, then reruns it on every change until
// interrupted
func (d *driver) watchFile(filename string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w, err := NewWatcher(filename, d.cfg.Watch, d.stdout, d.stderr, func() {
		d.executeFile(filename)
	})
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 2
	}
	defer w.Close()

	d.executeFile(filename)
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 2
	}
	<-ctx.Done()
	return 0
}

func (d *driver) dumpTokens(tokens []lexer.Token) {
	if !d.cfg.Output.Tokens {
		return
	}
	if *positionsFlag {
		fmt.Fprint(d.stdout, format.TokensWithPositions(tokens))
	} else {
		fmt.Fprint(d.stdout, format.Tokens(tokens))
	}
}

func (d *driver) dumpTree(node ast.Node) {
	if d.cfg.Output.AST {
		fmt.Fprint(d.stdout, format.Tree(node))
	}
}

// printError prints an error and, when it has a position, the offending
// source line with a caret under the column
func (d *driver) printError(source string, err error) {
	fmt.Fprintln(d.stderr, kvazz.FormatError(err, d.color))
	if kerr, ok := kerrors.As(err); ok && kerr.Line > 0 {
		printSourceContext(d.stderr, sourceLines(source), kerr.Line, kerr.Column)
	}
}

// sourceLines splits source the way the lexer sees it, so error columns
// line up with the printed text
func sourceLines(source string) []string {
	return strings.Split(norm.NFC.String(source), "\n")
}

// printSourceContext prints the source line and error pointer
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := []rune(lines[lineNum-1])

	// Calculate how many columns to trim from the left
	trimCount := 0
	for _, r := range sourceLine {
		if r == '\t' {
			trimCount += 8
		} else if r == ' ' {
			trimCount++
		} else {
			break
		}
	}

	fmt.Fprintf(w, "    %s\n", strings.TrimLeft(string(sourceLine), " \t"))

	if colNum > 0 {
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}

		adjustedCol := max(visualCol-trimCount, 0)
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", adjustedCol))
	}
}

func withFile(err error, filename string) error {
	if kerr, ok := kerrors.As(err); ok {
		return kerr.WithFile(filename)
	}
	return err
}
