// Package evaluator executes a parsed Kvazz program by walking its AST
// against a chain of environments.
package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sambeau/kvazz/pkg/kvazz/ast"
	kerrors "github.com/sambeau/kvazz/pkg/kvazz/errors"
)

// Logger receives everything print writes
type Logger interface {
	Log(values ...interface{})
	LogLine(values ...interface{})
}

// defaultStdoutLogger is the default logger that writes to stdout
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...interface{}) {
	for i, v := range values {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(v)
	}
}

func (l *defaultStdoutLogger) LogLine(values ...interface{}) {
	l.Log(values...)
	fmt.Println()
}

// DefaultLogger is the default stdout logger
var DefaultLogger Logger = &defaultStdoutLogger{}

// CompletionKind says whether control falls through or is returning
type CompletionKind int

const (
	Normal CompletionKind = iota
	Returning
)

// Completion is the result of executing a statement. Only Return starts a
// Returning completion; blocks, loops and conditionals forward it unchanged.
type Completion struct {
	Kind  CompletionKind
	Value Object
}

var normal = Completion{Kind: Normal, Value: EMPTY}

// Interpreter owns the global frame and everything that lives as long as it
type Interpreter struct {
	Globals *Environment
	Logger  Logger

	// MaxCallDepth bounds nested user function calls; 0 means unbounded.
	MaxCallDepth int

	literals map[*ast.Literal]Object
	depth    int
}

// NewInterpreter creates an interpreter with an empty global frame. A nil
// logger selects DefaultLogger.
func NewInterpreter(logger Logger) *Interpreter {
	if logger == nil {
		logger = DefaultLogger
	}
	return &Interpreter{
		Globals:  NewEnvironment(),
		Logger:   logger,
		literals: make(map[*ast.Literal]Object),
	}
}

// Run registers the program's top-level declarations, then calls main.
// It returns main's return value (EMPTY if main does not return one).
func (in *Interpreter) Run(program *ast.Program) (Object, error) {
	if err := in.Load(program); err != nil {
		return nil, err
	}
	return in.CallMain()
}

// Load executes the program's top-level declarations in the global frame.
func (in *Interpreter) Load(program *ast.Program) error {
	for _, decl := range program.Declarations {
		if _, err := in.execStatement(decl, in.Globals); err != nil {
			return err
		}
	}
	return nil
}

// CallMain invokes the global zero-parameter function main.
func (in *Interpreter) CallMain() (Object, error) {
	obj, ok := in.Globals.store["main"]
	if !ok {
		return nil, kerrors.New("ENTRY-0001", nil)
	}
	fn, ok := obj.(*Function)
	if !ok {
		return nil, kerrors.New("TYPE-0001", map[string]any{"Type": obj.Type()})
	}
	if len(fn.Parameters) != 0 {
		line, col := fn.Body.Position()
		return nil, kerrors.NewWithPosition("ENTRY-0002", line, col, map[string]any{"Got": len(fn.Parameters)})
	}
	return in.callFunction(fn, nil, fn.Body)
}

// EvalExpression evaluates a standalone expression in env (the global frame
// when env is nil).
func (in *Interpreter) EvalExpression(expr ast.Expression, env *Environment) (Object, error) {
	if env == nil {
		env = in.Globals
	}
	return in.evalExpression(expr, env)
}

// execStatement dispatches on the statement's node kind
func (in *Interpreter) execStatement(stmt ast.Statement, env *Environment) (Completion, error) {
	switch s := stmt.(type) {
	case *ast.Declare:
		return normal, in.execDeclare(s, env)

	case *ast.FunctionDeclare:
		if err := in.checkDeclarable(s.Name, env, s); err != nil {
			return normal, err
		}
		env.Set(s.Name, &Function{Name: s.Name, Parameters: s.Parameters, Body: s.Body})
		return normal, nil

	case *ast.AssignOp:
		return normal, in.execAssign(s, env)

	case *ast.FunctionCall:
		_, err := in.evalCall(s, env)
		return normal, err

	case *ast.Return:
		val, err := in.evalExpression(s.Value, env)
		if err != nil {
			return normal, err
		}
		return Completion{Kind: Returning, Value: val}, nil

	case *ast.Block:
		return in.execBlock(s, env)

	case *ast.IfThen:
		cond, err := in.evalExpression(s.Condition, env)
		if err != nil {
			return normal, err
		}
		if isTruthy(cond) {
			return in.execBlock(s.Then, env)
		}
		return normal, nil

	case *ast.IfElse:
		cond, err := in.evalExpression(s.Condition, env)
		if err != nil {
			return normal, err
		}
		if isTruthy(cond) {
			return in.execBlock(s.Then, env)
		}
		return in.execBlock(s.Else, env)

	case *ast.While:
		return in.execWhile(s, env)
	}

	line, col := stmt.Position()
	return normal, kerrors.NewWithPosition("INTERNAL-0001", line, col, map[string]any{
		"Node": fmt.Sprintf("statement %T", stmt),
	})
}

// execBlock runs statements in a fresh child frame, stopping at the first
// Returning completion
func (in *Interpreter) execBlock(block *ast.Block, env *Environment) (Completion, error) {
	local := NewEnclosedEnvironment(env)
	for _, stmt := range block.Statements {
		c, err := in.execStatement(stmt, local)
		if err != nil {
			return normal, err
		}
		if c.Kind == Returning {
			return c, nil
		}
	}
	return normal, nil
}

// execWhile re-tests the condition before every iteration
func (in *Interpreter) execWhile(w *ast.While, env *Environment) (Completion, error) {
	for {
		cond, err := in.evalExpression(w.Condition, env)
		if err != nil {
			return normal, err
		}
		if !isTruthy(cond) {
			return normal, nil
		}
		c, err := in.execBlock(w.Body, env)
		if err != nil {
			return normal, err
		}
		if c.Kind == Returning {
			return c, nil
		}
	}
}

// checkDeclarable rejects binding a built-in name or a name already bound
// in this very frame. Shadowing an outer frame is fine.
func (in *Interpreter) checkDeclarable(name string, env *Environment, node ast.Node) error {
	line, col := node.Position()
	if _, ok := builtins[name]; ok {
		return kerrors.NewWithPosition("DECL-0002", line, col, map[string]any{"Name": name})
	}
	if env.Has(name) {
		return kerrors.NewWithPosition("DECL-0001", line, col, map[string]any{"Name": name})
	}
	return nil
}

func (in *Interpreter) execDeclare(d *ast.Declare, env *Environment) error {
	if err := in.checkDeclarable(d.Name, env, d); err != nil {
		return err
	}
	var val Object = EMPTY
	if d.Value != nil {
		v, err := in.evalExpression(d.Value, env)
		if err != nil {
			return err
		}
		val = v
	}
	env.Set(d.Name, val)
	return nil
}

// execAssign resolves the target first, so a missing name fails before the
// right-hand side runs. Compound operators read the current value at that
// point and combine it with the right-hand side.
func (in *Interpreter) execAssign(a *ast.AssignOp, env *Environment) error {
	target, err := in.resolveLValue(a.Target, env)
	if err != nil {
		return err
	}

	var current Object
	op := a.BinaryOperator()
	if op != "" {
		current = target.get()
	}

	val, err := in.evalExpression(a.Value, env)
	if err != nil {
		return err
	}

	if op != "" {
		val, err = binaryOp(op, current, val)
		if err != nil {
			return at(err, a)
		}
	}
	return at(target.set(val), a)
}

// slot is a resolved assignment target
type slot interface {
	get() Object
	set(Object) error
}

// bindingSlot is a name in the frame that owns it
type bindingSlot struct {
	frame *Environment
	name  string
}

func (s bindingSlot) get() Object { return s.frame.store[s.name] }
func (s bindingSlot) set(val Object) error {
	s.frame.store[s.name] = val
	return nil
}

// vectorSlot is one element of a vector
type vectorSlot struct {
	vec   *Vector
	index int
}

func (s vectorSlot) get() Object { return s.vec.Elements[s.index] }
func (s vectorSlot) set(val Object) error {
	s.vec.Elements[s.index] = val
	return nil
}

func (in *Interpreter) resolveLValue(target ast.LValue, env *Environment) (slot, error) {
	switch t := target.(type) {
	case *ast.VariableLookup:
		line, col := t.Position()
		if _, ok := builtins[t.Name]; ok {
			return nil, kerrors.NewWithPosition("DECL-0002", line, col, map[string]any{"Name": t.Name})
		}
		start := env
		if t.Global {
			start = in.Globals
		}
		frame := start.Owner(t.Name)
		if frame == nil {
			return nil, in.undefined(t, start)
		}
		return bindingSlot{frame: frame, name: t.Name}, nil

	case *ast.Access:
		container, err := in.evalExpression(t.Target, env)
		if err != nil {
			return nil, err
		}
		index, err := in.evalExpression(t.Index, env)
		if err != nil {
			return nil, err
		}
		switch c := container.(type) {
		case *Vector:
			i, err := checkIndex(index, len(c.Elements))
			if err != nil {
				return nil, at(err, t)
			}
			return vectorSlot{vec: c, index: i}, nil
		case *Text:
			return nil, at(kerrors.New("INDEX-0003", nil), t)
		default:
			return nil, at(kerrors.New("TYPE-0002", map[string]any{"Type": container.Type()}), t)
		}
	}

	line, col := target.Position()
	return nil, kerrors.NewWithPosition("PARSE-0004", line, col, nil)
}

// evalExpression dispatches on the expression's node kind
func (in *Interpreter) evalExpression(expr ast.Expression, env *Environment) (Object, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return in.evalLiteral(e)

	case *ast.VariableLookup:
		return in.lookup(e, env)

	case *ast.BinaryOp:
		// Both operands are always evaluated; & and | do not short-circuit.
		left, err := in.evalExpression(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := in.evalExpression(e.Right, env)
		if err != nil {
			return nil, err
		}
		result, err := binaryOp(e.Operator, left, right)
		return result, at(err, e)

	case *ast.UnaryOp:
		operand, err := in.evalExpression(e.Operand, env)
		if err != nil {
			return nil, err
		}
		result, err := unaryOp(e.Operator, operand)
		return result, at(err, e)

	case *ast.FunctionCall:
		return in.evalCall(e, env)

	case *ast.Access:
		container, err := in.evalExpression(e.Target, env)
		if err != nil {
			return nil, err
		}
		index, err := in.evalExpression(e.Index, env)
		if err != nil {
			return nil, err
		}
		result, err := indexValue(container, index)
		return result, at(err, e)

	case *ast.VectorLiteral:
		elems := make([]Object, len(e.Elements))
		for i, el := range e.Elements {
			v, err := in.evalExpression(el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Vector{Elements: elems}, nil
	}

	line, col := expr.Position()
	return nil, kerrors.NewWithPosition("INTERNAL-0001", line, col, map[string]any{
		"Node": fmt.Sprintf("expression %T", expr),
	})
}

// evalLiteral parses the literal's text on first use and memoizes the
// result by node identity
func (in *Interpreter) evalLiteral(lit *ast.Literal) (Object, error) {
	if cached, ok := in.literals[lit]; ok {
		return cached, nil
	}

	var val Object
	switch lit.Kind {
	case ast.BoolLiteral:
		switch strings.ToLower(lit.Text) {
		case "true":
			val = TRUE
		case "false":
			val = FALSE
		}
	case ast.IntLiteral:
		if n, err := strconv.ParseInt(lit.Text, 10, 64); err == nil {
			val = &Integer{Value: n}
		}
	case ast.RealLiteral:
		if f, err := strconv.ParseFloat(lit.Text, 64); err == nil {
			val = &Real{Value: f}
		}
	case ast.StringLiteral:
		val = &Text{Value: lit.Text}
	}

	if val == nil {
		line, col := lit.Position()
		return nil, kerrors.NewWithPosition("FMT-0001", line, col, map[string]any{
			"Kind":    lit.Kind.String(),
			"Literal": lit.Text,
		})
	}

	in.literals[lit] = val
	return val, nil
}

// lookup resolves a name: built-ins first, then the frame chain starting at
// env, or at the global frame for '$' names
func (in *Interpreter) lookup(v *ast.VariableLookup, env *Environment) (Object, error) {
	if b, ok := builtins[v.Name]; ok {
		return b, nil
	}
	start := env
	if v.Global {
		start = in.Globals
	}
	if val, ok := start.Get(v.Name); ok {
		return val, nil
	}
	return nil, in.undefined(v, start)
}

func (in *Interpreter) undefined(v *ast.VariableLookup, env *Environment) error {
	line, col := v.Position()
	return kerrors.NewUndefinedIdentifier(v.Name, env.AllIdentifiers()).WithPosition(line, col)
}

// evalCall evaluates the callee and then every argument, left to right
func (in *Interpreter) evalCall(fc *ast.FunctionCall, env *Environment) (Object, error) {
	callee, err := in.evalExpression(fc.Callee, env)
	if err != nil {
		return nil, err
	}

	args := make([]Object, len(fc.Arguments))
	for i, a := range fc.Arguments {
		v, err := in.evalExpression(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch fn := callee.(type) {
	case *Builtin:
		result, err := in.callBuiltin(fn, args)
		return result, at(err, fc)
	case *Function:
		return in.callFunction(fn, args, fc)
	default:
		return nil, at(kerrors.New("TYPE-0001", map[string]any{"Type": callee.Type()}), fc)
	}
}

func (in *Interpreter) callBuiltin(b *Builtin, args []Object) (Object, error) {
	if b.Fn == nil {
		return nil, kerrors.New("IMPL-0001", map[string]any{"Name": b.Name})
	}
	if err := checkArity(b, len(args)); err != nil {
		return nil, err
	}
	return b.Fn(in, args)
}

// callFunction binds args to parameters in a fresh frame whose parent is
// the global frame, not the frame the function was declared in.
func (in *Interpreter) callFunction(fn *Function, args []Object, node ast.Node) (Object, error) {
	if len(args) != len(fn.Parameters) {
		return nil, at(kerrors.New("ARITY-0003", map[string]any{
			"Function": fn.Name,
			"Want":     len(fn.Parameters),
			"Got":      len(args),
		}), node)
	}

	if in.MaxCallDepth > 0 && in.depth >= in.MaxCallDepth {
		return nil, at(kerrors.New("STACK-0001", map[string]any{"Max": in.MaxCallDepth}), node)
	}
	in.depth++
	defer func() { in.depth-- }()

	frame := NewEnclosedEnvironment(in.Globals)
	for i, param := range fn.Parameters {
		if frame.Has(param) {
			return nil, at(kerrors.New("DECL-0001", map[string]any{"Name": param}), node)
		}
		frame.Set(param, args[i])
	}

	c, err := in.execBlock(fn.Body, frame)
	if err != nil {
		return nil, err
	}
	if c.Kind == Returning {
		return c.Value, nil
	}
	return EMPTY, nil
}

// at attaches node's position to a positionless KvazzError
func at(err error, node ast.Node) error {
	if err == nil {
		return nil
	}
	if kerr, ok := kerrors.As(err); ok && kerr.Line == 0 {
		line, col := node.Position()
		return kerr.WithPosition(line, col)
	}
	return err
}
