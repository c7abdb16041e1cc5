// Package kvazz is the public API for embedding the Kvazz interpreter.
//
// The pipeline is three steps, each of which can be driven on its own:
//
//	tokens, err := kvazz.Tokenize(source)
//	program, err := kvazz.Parse(tokens)
//	err = kvazz.Run(program)
//
// Eval and RunFile chain all three and return main's value.
package kvazz

import (
	"fmt"
	"os"

	"github.com/sambeau/kvazz/pkg/kvazz/ast"
	kerrors "github.com/sambeau/kvazz/pkg/kvazz/errors"
	"github.com/sambeau/kvazz/pkg/kvazz/evaluator"
	"github.com/sambeau/kvazz/pkg/kvazz/lexer"
	"github.com/sambeau/kvazz/pkg/kvazz/parser"
)

// Result holds the outcome of a successful run
type Result struct {
	// Value is what main returned (evaluator.EMPTY if it returned nothing)
	Value evaluator.Object

	// Globals is the global frame after the run
	Globals *evaluator.Environment
}

// String returns main's value the way print would write it
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	return evaluator.Display(r.Value)
}

// Option configures a run
type Option func(*options)

type options struct {
	logger       Logger
	maxCallDepth int
	filename     string
}

// WithLogger sends print output to logger instead of stdout
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxCallDepth limits nested function calls; 0 means no limit
func WithMaxCallDepth(depth int) Option {
	return func(o *options) {
		o.maxCallDepth = depth
	}
}

// WithFilename attaches a file name to every error the run reports
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

func buildOptions(opts []Option) *options {
	o := &options{logger: StdoutLogger()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewInterpreter creates an interpreter configured by opts
func NewInterpreter(opts ...Option) *evaluator.Interpreter {
	return newInterpreter(buildOptions(opts))
}

func newInterpreter(o *options) *evaluator.Interpreter {
	in := evaluator.NewInterpreter(o.logger)
	in.MaxCallDepth = o.maxCallDepth
	return in
}

// Tokenize splits source into tokens
func Tokenize(source string) ([]lexer.Token, error) {
	return lexer.Tokenize(source)
}

// Parse builds a program tree from tokens
func Parse(tokens []lexer.Token) (*ast.Program, error) {
	return parser.Parse(tokens)
}

// Run registers the program's declarations and calls main, discarding
// main's return value
func Run(program *ast.Program, opts ...Option) error {
	_, err := run(program, buildOptions(opts))
	return err
}

// Eval tokenizes, parses and runs source
func Eval(source string, opts ...Option) (*Result, error) {
	o := buildOptions(opts)

	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, withFile(err, o.filename)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		return nil, withFile(err, o.filename)
	}
	return run(program, o)
}

// RunFile reads and evaluates a source file. Errors carry the file name.
func RunFile(path string, opts ...Option) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Eval(string(source), append([]Option{WithFilename(path)}, opts...)...)
}

func run(program *ast.Program, o *options) (*Result, error) {
	in := newInterpreter(o)
	value, err := in.Run(program)
	if err != nil {
		return nil, withFile(err, o.filename)
	}
	return &Result{Value: value, Globals: in.Globals}, nil
}

func withFile(err error, filename string) error {
	if filename == "" {
		return err
	}
	if kerr, ok := kerrors.As(err); ok {
		return kerr.WithFile(filename)
	}
	return err
}
