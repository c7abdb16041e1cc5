package evaluator

import (
	"math"
	"unicode/utf8"

	kerrors "github.com/sambeau/kvazz/pkg/kvazz/errors"
)

// binaryOp applies an infix operator to two already-evaluated operands
func binaryOp(op string, left, right Object) (Object, error) {
	switch op {
	case "&":
		return nativeBoolToBooleanObject(isTruthy(left) && isTruthy(right)), nil
	case "|":
		return nativeBoolToBooleanObject(isTruthy(left) || isTruthy(right)), nil
	case "==":
		return nativeBoolToBooleanObject(objectsEqual(left, right)), nil
	case "!=":
		return nativeBoolToBooleanObject(!objectsEqual(left, right)), nil
	}

	switch {
	case left.Type() == INTEGER_OBJ && right.Type() == INTEGER_OBJ:
		return integerOp(op, left.(*Integer).Value, right.(*Integer).Value)

	case isNumber(left) && isNumber(right):
		return realOp(op, toFloat(left), toFloat(right))

	case left.Type() == TEXT_OBJ && right.Type() == TEXT_OBJ:
		return textOp(op, left.(*Text).Value, right.(*Text).Value)

	case left.Type() == VECTOR_OBJ && right.Type() == VECTOR_OBJ && op == "+":
		l, r := left.(*Vector).Elements, right.(*Vector).Elements
		elems := make([]Object, 0, len(l)+len(r))
		elems = append(elems, l...)
		elems = append(elems, r...)
		return &Vector{Elements: elems}, nil
	}

	return nil, unsupported(op, left, right)
}

func unsupported(op string, left, right Object) error {
	return kerrors.New("OP-0001", map[string]any{
		"Operator": op,
		"Left":     left.Type(),
		"Right":    right.Type(),
	})
}

func isNumber(obj Object) bool {
	t := obj.Type()
	return t == INTEGER_OBJ || t == REAL_OBJ
}

func toFloat(obj Object) float64 {
	switch n := obj.(type) {
	case *Integer:
		return float64(n.Value)
	case *Real:
		return n.Value
	}
	return 0
}

// integerOp keeps integer arithmetic integral; '/' truncates toward zero
func integerOp(op string, l, r int64) (Object, error) {
	switch op {
	case "+":
		return &Integer{Value: l + r}, nil
	case "-":
		return &Integer{Value: l - r}, nil
	case "*":
		return &Integer{Value: l * r}, nil
	case "/":
		if r == 0 {
			return nil, kerrors.New("OP-0003", nil)
		}
		return &Integer{Value: l / r}, nil
	case "%":
		if r == 0 {
			return nil, kerrors.New("OP-0003", nil)
		}
		return &Integer{Value: l % r}, nil
	case "<":
		return nativeBoolToBooleanObject(l < r), nil
	case ">":
		return nativeBoolToBooleanObject(l > r), nil
	case "<=":
		return nativeBoolToBooleanObject(l <= r), nil
	case ">=":
		return nativeBoolToBooleanObject(l >= r), nil
	}
	return nil, unsupported(op, &Integer{}, &Integer{})
}

func realOp(op string, l, r float64) (Object, error) {
	switch op {
	case "+":
		return &Real{Value: l + r}, nil
	case "-":
		return &Real{Value: l - r}, nil
	case "*":
		return &Real{Value: l * r}, nil
	case "/":
		return &Real{Value: l / r}, nil
	case "%":
		return &Real{Value: math.Mod(l, r)}, nil
	case "<":
		return nativeBoolToBooleanObject(l < r), nil
	case ">":
		return nativeBoolToBooleanObject(l > r), nil
	case "<=":
		return nativeBoolToBooleanObject(l <= r), nil
	case ">=":
		return nativeBoolToBooleanObject(l >= r), nil
	}
	return nil, unsupported(op, &Real{}, &Real{})
}

func textOp(op string, l, r string) (Object, error) {
	switch op {
	case "+":
		return &Text{Value: l + r}, nil
	case "<":
		return nativeBoolToBooleanObject(l < r), nil
	case ">":
		return nativeBoolToBooleanObject(l > r), nil
	case "<=":
		return nativeBoolToBooleanObject(l <= r), nil
	case ">=":
		return nativeBoolToBooleanObject(l >= r), nil
	}
	return nil, unsupported(op, &Text{}, &Text{})
}

// objectsEqual compares any two values. Values of different kinds are
// unequal, except that integers and reals compare numerically.
func objectsEqual(left, right Object) bool {
	return equalValues(left, right, nil)
}

// vectorPair is a pair of vectors currently being compared
type vectorPair struct {
	left, right *Vector
}

// equalValues is objectsEqual with the set of vector pairs already under
// comparison. A pair met again is treated as equal, so vectors that contain
// themselves compare without recursing forever.
func equalValues(left, right Object, visiting map[vectorPair]bool) bool {
	if isNumber(left) && isNumber(right) {
		if left.Type() == INTEGER_OBJ && right.Type() == INTEGER_OBJ {
			return left.(*Integer).Value == right.(*Integer).Value
		}
		return toFloat(left) == toFloat(right)
	}
	if left.Type() != right.Type() {
		return false
	}

	switch l := left.(type) {
	case *Boolean:
		return l.Value == right.(*Boolean).Value
	case *Text:
		return l.Value == right.(*Text).Value
	case *Vector:
		r := right.(*Vector)
		if l == r {
			return true
		}
		if len(l.Elements) != len(r.Elements) {
			return false
		}
		pair := vectorPair{l, r}
		if visiting[pair] {
			return true
		}
		if visiting == nil {
			visiting = make(map[vectorPair]bool)
		}
		visiting[pair] = true
		defer delete(visiting, pair)
		for i := range l.Elements {
			if !equalValues(l.Elements[i], r.Elements[i], visiting) {
				return false
			}
		}
		return true
	case *Empty:
		return true
	}

	// functions and built-ins compare by identity
	return left == right
}

func unaryOp(op string, operand Object) (Object, error) {
	switch op {
	case "-":
		switch n := operand.(type) {
		case *Integer:
			return &Integer{Value: -n.Value}, nil
		case *Real:
			return &Real{Value: -n.Value}, nil
		}
	case "!":
		return nativeBoolToBooleanObject(!isTruthy(operand)), nil
	}
	return nil, kerrors.New("OP-0002", map[string]any{
		"Operator": op,
		"Type":     operand.Type(),
	})
}

// checkIndex validates an index value against a container length
func checkIndex(index Object, length int) (int, error) {
	n, ok := index.(*Integer)
	if !ok {
		return 0, kerrors.New("INDEX-0002", map[string]any{"Type": index.Type()})
	}
	if n.Value < 0 || n.Value >= int64(length) {
		return 0, kerrors.New("INDEX-0001", map[string]any{"Index": n.Value, "Length": length})
	}
	return int(n.Value), nil
}

// indexValue reads one element of a vector, or one character of text
func indexValue(container, index Object) (Object, error) {
	switch c := container.(type) {
	case *Vector:
		i, err := checkIndex(index, len(c.Elements))
		if err != nil {
			return nil, err
		}
		if c.Elements[i] == nil {
			return EMPTY, nil
		}
		return c.Elements[i], nil

	case *Text:
		i, err := checkIndex(index, utf8.RuneCountInString(c.Value))
		if err != nil {
			return nil, err
		}
		runes := []rune(c.Value)
		return &Text{Value: string(runes[i])}, nil
	}
	return nil, kerrors.New("TYPE-0002", map[string]any{"Type": container.Type()})
}
