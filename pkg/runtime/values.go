package runtime

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"step/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category. Integer and float are
// distinct sub-variants of the Step number type so integer identity
// survives arithmetic.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindString
	KindList
	KindNone
	KindFunction
	KindNativeFunction
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindNone:
		return "None"
	case KindFunction:
		return "function"
	case KindNativeFunction:
		return "native_function"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

// IsNumber reports whether v is either number sub-variant.
func IsNumber(v Value) bool {
	k := v.Kind()
	return k == KindInteger || k == KindFloat
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type IntegerValue struct {
	Val int64
}

func (v IntegerValue) Kind() Kind { return KindInteger }

type FloatValue struct {
	Val float64
}

func (v FloatValue) Kind() Kind { return KindFloat }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

type NoneValue struct{}

func (v NoneValue) Kind() Kind { return KindNone }

//-----------------------------------------------------------------------------
// Lists
//-----------------------------------------------------------------------------

// ListValue is one mutable list body. A *ListValue pointer is the opaque
// handle into the heap: every alias of a list shares the same body, so
// mutation through any handle is visible through all. Handles are minted
// by list literals, concatenation, and replication; append grows an
// existing body in place.
type ListValue struct {
	Elements []Value
}

func (v *ListValue) Kind() Kind { return KindList }

// NewList mints a fresh list body holding the given elements.
func NewList(elements []Value) *ListValue {
	return &ListValue{Elements: elements}
}

//-----------------------------------------------------------------------------
// Callables
//-----------------------------------------------------------------------------

// FunctionValue is a user-defined function. Closure is the global
// environment; calls extend it with a fresh frame. Two
// FunctionValues are equal iff they are the same pointer.
type FunctionValue struct {
	Name    string
	Params  []string
	Body    []ast.Statement
	Closure *Environment
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

// NativeCallContext carries the hooks a built-in needs: the environment
// of the call and the program's output sink.
type NativeCallContext struct {
	Env    *Environment
	Stdout io.Writer
}

type NativeFunc func(*NativeCallContext, []Value) (Value, error)

// NativeFunctionValue is a built-in. Arity < 0 means variadic; the
// implementation checks its own argument count. Built-ins are registered
// once at startup, so pointer identity is callable identity.
type NativeFunctionValue struct {
	Name  string
	Arity int
	Impl  NativeFunc
}

func (v *NativeFunctionValue) Kind() Kind { return KindNativeFunction }

//-----------------------------------------------------------------------------
// Truthiness, equality, rendering
//-----------------------------------------------------------------------------

// maxDepth caps recursion through nested lists so that cyclic structures
// fail with a reportable error instead of overflowing the stack.
const maxDepth = 64

// ErrTooDeep is returned when equality or rendering exceeds maxDepth,
// which in practice means the list structure is cyclic.
var ErrTooDeep = errors.New("list nesting too deep (cyclic list?)")

// Truthy maps a value to a Step boolean: 0, 0.0, "", [], and None are
// false; everything else is true.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case IntegerValue:
		return val.Val != 0
	case FloatValue:
		return val.Val != 0
	case StringValue:
		return val.Val != ""
	case *ListValue:
		return len(val.Elements) != 0
	case NoneValue:
		return false
	default:
		return true
	}
}

// Bool converts a Go bool to Step's integer booleans 1 and 0.
func Bool(b bool) Value {
	if b {
		return IntegerValue{Val: 1}
	}
	return IntegerValue{Val: 0}
}

// Equals is deep structural equality. Numbers compare by numeric value
// across the int/float boundary, strings and lists structurally,
// callables by identity, and values of different types are unequal.
func Equals(a, b Value) (bool, error) {
	return equalsDepth(a, b, 0)
}

func equalsDepth(a, b Value, depth int) (bool, error) {
	if depth > maxDepth {
		return false, ErrTooDeep
	}
	if IsNumber(a) && IsNumber(b) {
		if av, ok := a.(IntegerValue); ok {
			if bv, ok := b.(IntegerValue); ok {
				return av.Val == bv.Val, nil
			}
		}
		return numericValue(a) == numericValue(b), nil
	}
	switch av := a.(type) {
	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av.Val == bv.Val, nil
	case NoneValue:
		_, ok := b.(NoneValue)
		return ok, nil
	case *ListValue:
		bv, ok := b.(*ListValue)
		if !ok {
			return false, nil
		}
		if av == bv {
			return true, nil
		}
		if len(av.Elements) != len(bv.Elements) {
			return false, nil
		}
		for i := range av.Elements {
			eq, err := equalsDepth(av.Elements[i], bv.Elements[i], depth+1)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	case *FunctionValue:
		bv, ok := b.(*FunctionValue)
		return ok && av == bv, nil
	case *NativeFunctionValue:
		bv, ok := b.(*NativeFunctionValue)
		return ok && av == bv, nil
	default:
		return false, nil
	}
}

func numericValue(v Value) float64 {
	switch val := v.(type) {
	case IntegerValue:
		return float64(val.Val)
	case FloatValue:
		return val.Val
	}
	return 0
}

// Render produces the canonical string for a value: integers in decimal,
// floats with at least one digit on each side of the point, strings
// verbatim, lists recursively in brackets, None as "None".
func Render(v Value) (string, error) {
	return renderDepth(v, 0)
}

func renderDepth(v Value, depth int) (string, error) {
	if depth > maxDepth {
		return "", ErrTooDeep
	}
	switch val := v.(type) {
	case IntegerValue:
		return strconv.FormatInt(val.Val, 10), nil
	case FloatValue:
		return FormatFloat(val.Val), nil
	case StringValue:
		return val.Val, nil
	case NoneValue:
		return "None", nil
	case *ListValue:
		parts := make([]string, 0, len(val.Elements))
		for _, el := range val.Elements {
			s, err := renderDepth(el, depth+1)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case *FunctionValue:
		return fmt.Sprintf("<function %s>", val.Name), nil
	case *NativeFunctionValue:
		return fmt.Sprintf("<native %s>", val.Name), nil
	default:
		return "", fmt.Errorf("cannot render %s value", v.Kind())
	}
}

// FormatFloat renders a float the way Step prints it: shortest decimal
// form, with ".0" appended when the value is integer-valued.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
