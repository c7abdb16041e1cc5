package evaluator

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	kerrors "github.com/sambeau/kvazz/pkg/kvazz/errors"
)

// builtins is the fixed table of built-in functions. Built-in names are
// resolved before any frame and can be neither declared nor assigned.
var builtins = map[string]*Builtin{
	"print": {
		Name:        "print",
		Params:      []string{"values..."},
		MinArgs:     0,
		MaxArgs:     -1,
		Description: "Write the values separated by spaces, followed by a newline",
		Fn:          builtinPrint,
	},
	"lengthof": {
		Name:        "lengthof",
		Params:      []string{"value"},
		MinArgs:     1,
		MaxArgs:     1,
		Description: "Number of characters in text or elements in a vector",
		Fn:          builtinLengthof,
	},
	"hevec": {
		Name:        "hevec",
		Params:      []string{"size", "fill?"},
		MinArgs:     1,
		MaxArgs:     2,
		Description: "Create a vector of size slots, each holding fill (empty by default)",
		Fn:          builtinHevec,
	},
	"printf": {
		Name:        "printf",
		Params:      []string{"format", "values..."},
		MinArgs:     1,
		MaxArgs:     -1,
		Description: "Formatted output (reserved)",
	},
	"println": {
		Name:        "println",
		Params:      []string{"values..."},
		MinArgs:     0,
		MaxArgs:     -1,
		Description: "Line output (reserved)",
	},
	"hovec": {
		Name:        "hovec",
		Params:      []string{"size", "fill"},
		MinArgs:     2,
		MaxArgs:     2,
		Description: "Homogeneous vector (reserved)",
	},
}

// IsBuiltin reports whether name is a built-in function
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func checkArity(b *Builtin, got int) error {
	if b.MinArgs == b.MaxArgs && got != b.MinArgs {
		return kerrors.New("ARITY-0001", map[string]any{
			"Function": b.Name,
			"Got":      got,
			"Want":     b.MinArgs,
		})
	}
	if got < b.MinArgs || (b.MaxArgs >= 0 && got > b.MaxArgs) {
		upper := strconv.Itoa(b.MaxArgs)
		if b.MaxArgs < 0 {
			upper = "any"
		}
		return kerrors.New("ARITY-0002", map[string]any{
			"Function": b.Name,
			"Got":      got,
			"Min":      b.MinArgs,
			"Max":      upper,
		})
	}
	return nil
}

func builtinPrint(in *Interpreter, args []Object) (Object, error) {
	values := make([]interface{}, len(args))
	for i, a := range args {
		values[i] = Display(a)
	}
	in.Logger.LogLine(values...)
	return EMPTY, nil
}

func builtinLengthof(in *Interpreter, args []Object) (Object, error) {
	switch arg := args[0].(type) {
	case *Text:
		return &Integer{Value: int64(utf8.RuneCountInString(arg.Value))}, nil
	case *Vector:
		return &Integer{Value: int64(len(arg.Elements))}, nil
	}
	return nil, kerrors.New("TYPE-0003", map[string]any{
		"Function": "lengthof",
		"Expected": "text or vector",
		"Got":      args[0].Type(),
	})
}

// MaxVectorSize is the largest size hevec will allocate
const MaxVectorSize = 1 << 24

// builtinHevec stores the same fill value in every slot, so a vector fill
// is shared by all of them
func builtinHevec(in *Interpreter, args []Object) (Object, error) {
	size, ok := args[0].(*Integer)
	if !ok || size.Value < 0 {
		got := string(args[0].Type())
		if ok {
			got = size.Inspect()
		}
		return nil, kerrors.New("TYPE-0003", map[string]any{
			"Function": "hevec",
			"Expected": "a non-negative integer size",
			"Got":      got,
		})
	}

	if size.Value > MaxVectorSize {
		return nil, kerrors.New("INDEX-0004", map[string]any{
			"Size": size.Value,
			"Max":  MaxVectorSize,
		})
	}

	var fill Object = EMPTY
	if len(args) == 2 {
		fill = args[1]
	}

	elems := make([]Object, size.Value)
	for i := range elems {
		elems[i] = fill
	}
	return &Vector{Elements: elems}, nil
}

// BuiltinInfo describes a built-in for help output
type BuiltinInfo struct {
	Name        string   `json:"name"`
	Params      []string `json:"params"`
	Arity       string   `json:"arity"`
	Description string   `json:"description"`
	Implemented bool     `json:"implemented"`
}

// Builtins returns metadata for every built-in, sorted by name
func Builtins() []BuiltinInfo {
	infos := make([]BuiltinInfo, 0, len(builtins))
	for _, b := range builtins {
		infos = append(infos, BuiltinInfo{
			Name:        b.Name,
			Params:      b.Params,
			Arity:       arity(b),
			Description: b.Description,
			Implemented: b.Fn != nil,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func arity(b *Builtin) string {
	switch {
	case b.MaxArgs < 0:
		return strconv.Itoa(b.MinArgs) + "+"
	case b.MinArgs == b.MaxArgs:
		return strconv.Itoa(b.MinArgs)
	default:
		return strconv.Itoa(b.MinArgs) + "-" + strconv.Itoa(b.MaxArgs)
	}
}

// OperatorInfo describes an operator for help output
type OperatorInfo struct {
	Symbol      string `json:"symbol"`
	Category    string `json:"category"`
	Precedence  int    `json:"precedence,omitempty"`
	Description string `json:"description"`
}

// OperatorMetadata lists every operator the language accepts
var OperatorMetadata = []OperatorInfo{
	{Symbol: "|", Category: "logical", Precedence: 1, Description: "true if either side is truthy (both sides are evaluated)"},
	{Symbol: "&", Category: "logical", Precedence: 1, Description: "true if both sides are truthy (both sides are evaluated)"},
	{Symbol: "==", Category: "comparison", Precedence: 3, Description: "equal"},
	{Symbol: "!=", Category: "comparison", Precedence: 3, Description: "not equal"},
	{Symbol: "<", Category: "comparison", Precedence: 3, Description: "less than (numbers, text)"},
	{Symbol: ">", Category: "comparison", Precedence: 3, Description: "greater than (numbers, text)"},
	{Symbol: "<=", Category: "comparison", Precedence: 3, Description: "less than or equal"},
	{Symbol: ">=", Category: "comparison", Precedence: 3, Description: "greater than or equal"},
	{Symbol: "+", Category: "arithmetic", Precedence: 4, Description: "add numbers, join text or vectors"},
	{Symbol: "-", Category: "arithmetic", Precedence: 4, Description: "subtract"},
	{Symbol: "*", Category: "arithmetic", Precedence: 5, Description: "multiply"},
	{Symbol: "/", Category: "arithmetic", Precedence: 5, Description: "divide (integer division truncates)"},
	{Symbol: "%", Category: "arithmetic", Precedence: 5, Description: "remainder"},
	{Symbol: "-x", Category: "unary", Description: "negate a number"},
	{Symbol: "!x", Category: "unary", Description: "logical not"},
	{Symbol: "=", Category: "assignment", Description: "assign to a variable or vector element"},
	{Symbol: "+= -= *= /= %=", Category: "assignment", Description: "combine the current value with the right-hand side"},
	{Symbol: "$name", Category: "scope", Description: "resolve name in the global frame"},
}

// TypeDescriptions describes every runtime value kind
var TypeDescriptions = map[ObjectType]string{
	INTEGER_OBJ:  "64-bit signed integer, e.g. 42",
	REAL_OBJ:     "64-bit floating point number, e.g. 3.14",
	BOOLEAN_OBJ:  "true or false",
	TEXT_OBJ:     "immutable text in single or double quotes",
	VECTOR_OBJ:   "mutable sequence shared by reference, e.g. [1, 'a', true]",
	FUNCTION_OBJ: "user-defined function",
	BUILTIN_OBJ:  "built-in function",
	EMPTY_OBJ:    "the absence of a value",
}

// TypeNames returns the names of the runtime value kinds, sorted
func TypeNames() []string {
	names := make([]string, 0, len(TypeDescriptions))
	for t := range TypeDescriptions {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// DescribeValue summarizes a bound value for listings such as the REPL's
// :globals command
func DescribeValue(obj Object) string {
	s := Display(obj)
	if t, ok := obj.(*Text); ok {
		s = `"` + t.Value + `"`
	}
	if runes := []rune(s); len(runes) > 60 {
		s = strings.TrimSpace(string(runes[:57])) + "..."
	}
	return string(obj.Type()) + " " + s
}
