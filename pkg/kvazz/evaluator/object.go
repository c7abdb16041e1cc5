package evaluator

import (
	"math"
	"strconv"
	"strings"

	"github.com/sambeau/kvazz/pkg/kvazz/ast"
)

// ObjectType represents the type of runtime values
type ObjectType string

const (
	INTEGER_OBJ  = "integer"
	REAL_OBJ     = "real"
	BOOLEAN_OBJ  = "bool"
	TEXT_OBJ     = "text"
	VECTOR_OBJ   = "vector"
	FUNCTION_OBJ = "function"
	BUILTIN_OBJ  = "builtin"
	EMPTY_OBJ    = "empty"
)

// Object represents all values in the language
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Integer represents integer values
type Integer struct {
	Value int64
}

func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) Type() ObjectType { return INTEGER_OBJ }

// Real represents floating-point values
type Real struct {
	Value float64
}

func (r *Real) Inspect() string  { return formatReal(r.Value) }
func (r *Real) Type() ObjectType { return REAL_OBJ }

// formatReal prints the shortest representation that round-trips, keeping
// a ".0" on integral values so reals stay distinguishable from integers.
func formatReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Boolean represents boolean values
type Boolean struct {
	Value bool
}

func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }

// Text represents string values. Text is immutable.
type Text struct {
	Value string
}

func (t *Text) Inspect() string  { return t.Value }
func (t *Text) Type() ObjectType { return TEXT_OBJ }

// Vector is an ordered, heterogeneous, mutable sequence. Vectors are shared
// by reference: every binding holding the same *Vector sees its mutations.
type Vector struct {
	Elements []Object
}

func (v *Vector) Type() ObjectType { return VECTOR_OBJ }
func (v *Vector) Inspect() string {
	var out strings.Builder
	v.inspect(&out, map[*Vector]bool{})
	return out.String()
}

func (v *Vector) inspect(out *strings.Builder, seen map[*Vector]bool) {
	if seen[v] {
		out.WriteString("[...]")
		return
	}
	seen[v] = true
	defer delete(seen, v)

	out.WriteString("[")
	for i, e := range v.Elements {
		if i > 0 {
			out.WriteString(", ")
		}
		switch e := e.(type) {
		case *Text:
			out.WriteString(`"` + e.Value + `"`)
		case *Vector:
			e.inspect(out, seen)
		case nil:
			out.WriteString(EMPTY.Inspect())
		default:
			out.WriteString(e.Inspect())
		}
	}
	out.WriteString("]")
}

// Function is a user-defined function. It captures no environment: calls
// always run in a frame whose parent is the global frame.
type Function struct {
	Name       string
	Parameters []string
	Body       *ast.Block
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	return "function " + f.Name + "(" + strings.Join(f.Parameters, ", ") + ")"
}

// BuiltinFunction is the native implementation of a built-in
type BuiltinFunction func(in *Interpreter, args []Object) (Object, error)

// Builtin represents a built-in function. A nil Fn marks a name that is
// reserved but not implemented.
type Builtin struct {
	Name        string
	Params      []string
	MinArgs     int
	MaxArgs     int // -1 for variadic
	Description string
	Fn          BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin " + b.Name }

// Empty is the "no value" marker: the result of statements, of functions
// that fall off their end and of unfilled vector slots.
type Empty struct{}

func (e *Empty) Type() ObjectType { return EMPTY_OBJ }
func (e *Empty) Inspect() string  { return "empty" }

var (
	EMPTY = &Empty{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func nativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// isTruthy defines truthiness for every value kind: zero numbers, false,
// empty text, empty vectors and empty are falsy.
func isTruthy(obj Object) bool {
	switch obj := obj.(type) {
	case *Integer:
		return obj.Value != 0
	case *Real:
		return obj.Value != 0
	case *Boolean:
		return obj.Value
	case *Text:
		return obj.Value != ""
	case *Vector:
		return len(obj.Elements) > 0
	case *Empty, nil:
		return false
	default:
		return true
	}
}

// IsTruthy exposes the truthiness rule to drivers.
func IsTruthy(obj Object) bool {
	return isTruthy(obj)
}

// Display renders a value the way print writes it. Top-level text is
// unquoted; text inside vectors is quoted by Vector.Inspect.
func Display(obj Object) string {
	if obj == nil {
		return EMPTY.Inspect()
	}
	return obj.Inspect()
}
