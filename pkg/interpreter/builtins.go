package interpreter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"step/interpreter-go/pkg/runtime"
)

// registerBuiltins seeds the global environment. Built-ins with a fixed
// arity have it enforced at the call site; print accepts any number of
// arguments and assert checks its own argument count.
func (i *Interpreter) registerBuiltins() {
	for _, fn := range []*runtime.NativeFunctionValue{
		{Name: "print", Arity: -1, Impl: builtinPrint},
		{Name: "assert", Arity: -1, Impl: builtinAssert},
		{Name: "len", Arity: 1, Impl: builtinLen},
		{Name: "int", Arity: 1, Impl: builtinInt},
		{Name: "str", Arity: 1, Impl: builtinStr},
		{Name: "sqrt", Arity: 1, Impl: builtinSqrt},
		{Name: "append", Arity: 2, Impl: builtinAppend},
	} {
		i.global.Define(fn.Name, fn)
	}
}

func builtinPrint(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		s, err := runtime.Render(arg)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	if _, err := fmt.Fprintln(ctx.Stdout, strings.Join(parts, " ")); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return runtime.NoneValue{}, nil
}

func builtinAssert(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("assert() takes 1 or 2 arguments but %d were provided", len(args))
	}
	if runtime.Truthy(args[0]) {
		return runtime.NoneValue{}, nil
	}
	msg := "assertion failed"
	if len(args) == 2 {
		rendered, err := runtime.Render(args[1])
		if err != nil {
			return nil, err
		}
		msg += ": " + rendered
	}
	return nil, fmt.Errorf("%s", msg)
}

func builtinLen(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch arg := args[0].(type) {
	case runtime.StringValue:
		return runtime.IntegerValue{Val: int64(len(arg.Val))}, nil
	case *runtime.ListValue:
		return runtime.IntegerValue{Val: int64(len(arg.Elements))}, nil
	default:
		return nil, fmt.Errorf("type error: len('%s') cannot be evaluated", args[0].Kind())
	}
}

// builtinInt truncates numbers toward zero and parses decimal strings.
func builtinInt(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch arg := args[0].(type) {
	case runtime.IntegerValue:
		return arg, nil
	case runtime.FloatValue:
		return runtime.IntegerValue{Val: int64(arg.Val)}, nil
	case runtime.StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(arg.Val), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int() cannot convert %q to an integer", arg.Val)
		}
		return runtime.IntegerValue{Val: n}, nil
	default:
		return nil, fmt.Errorf("type error: int('%s') cannot be evaluated", args[0].Kind())
	}
}

func builtinStr(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	s, err := runtime.Render(args[0])
	if err != nil {
		return nil, err
	}
	return runtime.StringValue{Val: s}, nil
}

func builtinSqrt(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if !runtime.IsNumber(args[0]) {
		return nil, fmt.Errorf("type error: sqrt('%s') cannot be evaluated", args[0].Kind())
	}
	operand := asFloat(args[0])
	if operand < 0 {
		return nil, fmt.Errorf("sqrt() of a negative number")
	}
	return runtime.FloatValue{Val: math.Sqrt(operand)}, nil
}

func builtinAppend(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, fmt.Errorf("type error: append('%s', ...) cannot be evaluated", args[0].Kind())
	}
	list.Elements = append(list.Elements, args[1])
	return runtime.NoneValue{}, nil
}
