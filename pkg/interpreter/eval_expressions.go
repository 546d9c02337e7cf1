package interpreter

import (
	"math"
	"strings"

	"step/interpreter-go/pkg/ast"
	"step/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateExpression(node ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return runtime.IntegerValue{Val: n.Value}, nil
	case *ast.FloatLiteral:
		return runtime.FloatValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.NoneLiteral:
		return runtime.NoneValue{}, nil
	case *ast.Identifier:
		val, ok := env.Get(n.Name)
		if !ok {
			return nil, errAt(n, "undefined variable '%s'", n.Name)
		}
		return val, nil
	case *ast.ListLiteral:
		elements := make([]runtime.Value, 0, len(n.Elements))
		for _, el := range n.Elements {
			val, err := i.evaluateExpression(el, env)
			if err != nil {
				return nil, err
			}
			elements = append(elements, val)
		}
		return runtime.NewList(elements), nil
	case *ast.UnaryExpression:
		return i.evaluateUnary(n, env)
	case *ast.BinaryExpression:
		return i.evaluateBinary(n, env)
	case *ast.LogicalExpression:
		return i.evaluateLogical(n, env)
	case *ast.AssignmentExpression:
		return i.evaluateAssignment(n, env)
	case *ast.IndexExpression:
		return i.evaluateIndex(n, env)
	case *ast.CallExpression:
		return i.evaluateCall(n, env)
	default:
		return nil, errAt(node, "unsupported expression type: %s", node.NodeType())
	}
}

func (i *Interpreter) evaluateUnary(node *ast.UnaryExpression, env *runtime.Environment) (runtime.Value, error) {
	val, err := i.evaluateExpression(node.Operand, env)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case runtime.IntegerValue:
		return runtime.IntegerValue{Val: -v.Val}, nil
	case runtime.FloatValue:
		return runtime.FloatValue{Val: -v.Val}, nil
	default:
		return nil, errAt(node, "type error: -'%s' cannot be evaluated", val.Kind())
	}
}

// evaluateLogical short-circuits like the reference evaluator and always
// yields integer 1 or 0 from the operands' truthiness.
func (i *Interpreter) evaluateLogical(node *ast.LogicalExpression, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluateExpression(node.Left, env)
	if err != nil {
		return nil, err
	}
	if node.Operator == "and" {
		if !runtime.Truthy(left) {
			return runtime.Bool(false), nil
		}
	} else {
		if runtime.Truthy(left) {
			return runtime.Bool(true), nil
		}
	}
	right, err := i.evaluateExpression(node.Right, env)
	if err != nil {
		return nil, err
	}
	return runtime.Bool(runtime.Truthy(right)), nil
}

func (i *Interpreter) evaluateBinary(node *ast.BinaryExpression, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluateExpression(node.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluateExpression(node.Right, env)
	if err != nil {
		return nil, err
	}

	switch node.Operator {
	case "+":
		return i.evaluateAdd(node, left, right)
	case "-":
		if bothNumbers(left, right) {
			if a, b, ok := bothIntegers(left, right); ok {
				return runtime.IntegerValue{Val: a - b}, nil
			}
			return runtime.FloatValue{Val: asFloat(left) - asFloat(right)}, nil
		}
	case "*":
		return i.evaluateMultiply(node, left, right)
	case "/":
		return i.evaluateDivide(node, left, right)
	case "%":
		return i.evaluateModulo(node, left, right)
	case "<", ">", "<=", ">=":
		if bothNumbers(left, right) {
			return compareNumbers(node.Operator, left, right), nil
		}
	case "==":
		eq, err := runtime.Equals(left, right)
		if err != nil {
			return nil, errAt(node, "%s", err)
		}
		return runtime.Bool(eq), nil
	case "!=":
		eq, err := runtime.Equals(left, right)
		if err != nil {
			return nil, errAt(node, "%s", err)
		}
		return runtime.Bool(!eq), nil
	}
	return nil, errAt(node, "type error: '%s' %s '%s' cannot be evaluated",
		left.Kind(), node.Operator, right.Kind())
}

func (i *Interpreter) evaluateAdd(node ast.Node, left, right runtime.Value) (runtime.Value, error) {
	if bothNumbers(left, right) {
		if a, b, ok := bothIntegers(left, right); ok {
			return runtime.IntegerValue{Val: a + b}, nil
		}
		return runtime.FloatValue{Val: asFloat(left) + asFloat(right)}, nil
	}
	if a, ok := left.(runtime.StringValue); ok {
		if b, ok := right.(runtime.StringValue); ok {
			return runtime.StringValue{Val: a.Val + b.Val}, nil
		}
	}
	if a, ok := left.(*runtime.ListValue); ok {
		if b, ok := right.(*runtime.ListValue); ok {
			elements := make([]runtime.Value, 0, len(a.Elements)+len(b.Elements))
			elements = append(elements, a.Elements...)
			elements = append(elements, b.Elements...)
			return runtime.NewList(elements), nil
		}
	}
	return nil, errAt(node, "type error: '%s' + '%s' cannot be evaluated", left.Kind(), right.Kind())
}

func (i *Interpreter) evaluateMultiply(node ast.Node, left, right runtime.Value) (runtime.Value, error) {
	if bothNumbers(left, right) {
		if a, b, ok := bothIntegers(left, right); ok {
			return runtime.IntegerValue{Val: a * b}, nil
		}
		return runtime.FloatValue{Val: asFloat(left) * asFloat(right)}, nil
	}
	// String and list replication accept the count on either side.
	if s, n, ok := stringAndCount(left, right); ok {
		if n <= 0 {
			return runtime.StringValue{}, nil
		}
		return runtime.StringValue{Val: strings.Repeat(s, int(n))}, nil
	}
	if l, n, ok := listAndCount(left, right); ok {
		if n <= 0 {
			return runtime.NewList(nil), nil
		}
		elements := make([]runtime.Value, 0, len(l.Elements)*int(n))
		for rep := int64(0); rep < n; rep++ {
			elements = append(elements, l.Elements...)
		}
		return runtime.NewList(elements), nil
	}
	return nil, errAt(node, "type error: '%s' * '%s' cannot be evaluated", left.Kind(), right.Kind())
}

// evaluateDivide yields an integer only for an exact integer quotient of
// two integers; any float operand or inexact quotient widens to float.
func (i *Interpreter) evaluateDivide(node ast.Node, left, right runtime.Value) (runtime.Value, error) {
	if !bothNumbers(left, right) {
		return nil, errAt(node, "type error: '%s' / '%s' cannot be evaluated", left.Kind(), right.Kind())
	}
	if a, b, ok := bothIntegers(left, right); ok {
		if b == 0 {
			return nil, errAt(node, "division by zero")
		}
		if a%b == 0 {
			return runtime.IntegerValue{Val: a / b}, nil
		}
		return runtime.FloatValue{Val: float64(a) / float64(b)}, nil
	}
	divisor := asFloat(right)
	if divisor == 0 {
		return nil, errAt(node, "division by zero")
	}
	return runtime.FloatValue{Val: asFloat(left) / divisor}, nil
}

// evaluateModulo implements floor-mod: the result takes the sign of the
// divisor, so -6 % 4 == 2.
func (i *Interpreter) evaluateModulo(node ast.Node, left, right runtime.Value) (runtime.Value, error) {
	if !bothNumbers(left, right) {
		return nil, errAt(node, "type error: '%s' %% '%s' cannot be evaluated", left.Kind(), right.Kind())
	}
	if a, b, ok := bothIntegers(left, right); ok {
		if b == 0 {
			return nil, errAt(node, "modulo by zero")
		}
		r := a % b
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return runtime.IntegerValue{Val: r}, nil
	}
	divisor := asFloat(right)
	if divisor == 0 {
		return nil, errAt(node, "modulo by zero")
	}
	r := math.Mod(asFloat(left), divisor)
	if r != 0 && (r < 0) != (divisor < 0) {
		r += divisor
	}
	return runtime.FloatValue{Val: r}, nil
}

func (i *Interpreter) evaluateIndex(node *ast.IndexExpression, env *runtime.Environment) (runtime.Value, error) {
	object, err := i.evaluateExpression(node.Object, env)
	if err != nil {
		return nil, err
	}
	indexVal, err := i.evaluateExpression(node.Index, env)
	if err != nil {
		return nil, err
	}
	index, ok := integerIndex(indexVal)
	if !ok {
		return nil, errAt(node, "type error: '%s'['%s'] cannot be evaluated", object.Kind(), indexVal.Kind())
	}
	switch obj := object.(type) {
	case *runtime.ListValue:
		if index < 0 || index >= int64(len(obj.Elements)) {
			return nil, errAt(node, "index %d is out of range", index)
		}
		return obj.Elements[index], nil
	case runtime.StringValue:
		if index < 0 || index >= int64(len(obj.Val)) {
			return nil, errAt(node, "index %d is out of range", index)
		}
		return runtime.StringValue{Val: obj.Val[index : index+1]}, nil
	default:
		return nil, errAt(node, "type error: '%s'['%s'] cannot be evaluated", object.Kind(), indexVal.Kind())
	}
}

func (i *Interpreter) evaluateAssignment(node *ast.AssignmentExpression, env *runtime.Environment) (runtime.Value, error) {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		val, err := i.evaluateExpression(node.Value, env)
		if err != nil {
			return nil, err
		}
		env.Define(target.Name, val)
		return val, nil
	case *ast.IndexExpression:
		object, err := i.evaluateExpression(target.Object, env)
		if err != nil {
			return nil, err
		}
		indexVal, err := i.evaluateExpression(target.Index, env)
		if err != nil {
			return nil, err
		}
		val, err := i.evaluateExpression(node.Value, env)
		if err != nil {
			return nil, err
		}
		list, ok := object.(*runtime.ListValue)
		if !ok {
			return nil, errAt(node, "type error: '%s'['%s'] cannot be assigned", object.Kind(), indexVal.Kind())
		}
		index, ok := integerIndex(indexVal)
		if !ok {
			return nil, errAt(node, "type error: '%s'['%s'] cannot be assigned", object.Kind(), indexVal.Kind())
		}
		if index < 0 || index >= int64(len(list.Elements)) {
			return nil, errAt(node, "index %d is out of range", index)
		}
		list.Elements[index] = val
		return val, nil
	default:
		return nil, errAt(node, "invalid assignment target")
	}
}

// evaluateCall evaluates arguments left to right, then dispatches on the
// callable kind.
func (i *Interpreter) evaluateCall(node *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.evaluateExpression(node.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]runtime.Value, 0, len(node.Arguments))
	for _, argNode := range node.Arguments {
		arg, err := i.evaluateExpression(argNode, env)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	switch fn := callee.(type) {
	case *runtime.NativeFunctionValue:
		if fn.Arity >= 0 && len(args) != fn.Arity {
			return nil, errAt(node, "%s() takes %d arguments but %d were provided", fn.Name, fn.Arity, len(args))
		}
		ctx := &runtime.NativeCallContext{Env: env, Stdout: i.stdout}
		result, err := fn.Impl(ctx, args)
		if err != nil {
			if rt, ok := err.(*RuntimeError); ok {
				if rt.Line == 0 {
					pos := node.Position()
					rt.Line, rt.Column = pos.Line, pos.Column
				}
				return nil, rt
			}
			return nil, errAt(node, "%s", err)
		}
		return result, nil
	case *runtime.FunctionValue:
		return i.callFunction(node, fn, args)
	default:
		return nil, errAt(node, "type error: '%s' is not callable", callee.Kind())
	}
}

//-----------------------------------------------------------------------------
// Numeric helpers
//-----------------------------------------------------------------------------

func bothNumbers(a, b runtime.Value) bool {
	return runtime.IsNumber(a) && runtime.IsNumber(b)
}

func bothIntegers(a, b runtime.Value) (int64, int64, bool) {
	av, ok := a.(runtime.IntegerValue)
	if !ok {
		return 0, 0, false
	}
	bv, ok := b.(runtime.IntegerValue)
	if !ok {
		return 0, 0, false
	}
	return av.Val, bv.Val, true
}

func asFloat(v runtime.Value) float64 {
	switch val := v.(type) {
	case runtime.IntegerValue:
		return float64(val.Val)
	case runtime.FloatValue:
		return val.Val
	}
	return 0
}

func compareNumbers(op string, left, right runtime.Value) runtime.Value {
	if a, b, ok := bothIntegers(left, right); ok {
		switch op {
		case "<":
			return runtime.Bool(a < b)
		case ">":
			return runtime.Bool(a > b)
		case "<=":
			return runtime.Bool(a <= b)
		default:
			return runtime.Bool(a >= b)
		}
	}
	a, b := asFloat(left), asFloat(right)
	switch op {
	case "<":
		return runtime.Bool(a < b)
	case ">":
		return runtime.Bool(a > b)
	case "<=":
		return runtime.Bool(a <= b)
	default:
		return runtime.Bool(a >= b)
	}
}

// integerIndex accepts an integer or an integer-valued float as a
// subscript; non-integral floats are rejected.
func integerIndex(v runtime.Value) (int64, bool) {
	switch val := v.(type) {
	case runtime.IntegerValue:
		return val.Val, true
	case runtime.FloatValue:
		if val.Val == math.Trunc(val.Val) && !math.IsInf(val.Val, 0) {
			return int64(val.Val), true
		}
	}
	return 0, false
}

// stringAndCount matches string*int and int*string; the count must be an
// integer, not a float.
func stringAndCount(a, b runtime.Value) (string, int64, bool) {
	if s, ok := a.(runtime.StringValue); ok {
		if n, ok := b.(runtime.IntegerValue); ok {
			return s.Val, n.Val, true
		}
	}
	if s, ok := b.(runtime.StringValue); ok {
		if n, ok := a.(runtime.IntegerValue); ok {
			return s.Val, n.Val, true
		}
	}
	return "", 0, false
}

func listAndCount(a, b runtime.Value) (*runtime.ListValue, int64, bool) {
	if l, ok := a.(*runtime.ListValue); ok {
		if n, ok := b.(runtime.IntegerValue); ok {
			return l, n.Val, true
		}
	}
	if l, ok := b.(*runtime.ListValue); ok {
		if n, ok := a.(runtime.IntegerValue); ok {
			return l, n.Val, true
		}
	}
	return nil, 0, false
}
