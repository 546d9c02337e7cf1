package interpreter

import (
	"fmt"
	"io"
	"os"

	"step/interpreter-go/pkg/ast"
	"step/interpreter-go/pkg/parser"
	"step/interpreter-go/pkg/runtime"
)

// RuntimeError is an evaluation-time failure: unbound identifiers, type
// errors, arity mismatches, out-of-range subscripts, division by zero,
// assertion failures, and control flow escaping its construct.
type RuntimeError struct {
	Line   int
	Column int
	Msg    string
}

func (e *RuntimeError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("runtime error: %s", e.Msg)
	}
	return fmt.Sprintf("runtime error: line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func errAt(node ast.Node, format string, args ...any) *RuntimeError {
	pos := node.Position()
	return &RuntimeError{Line: pos.Line, Column: pos.Column, Msg: fmt.Sprintf(format, args...)}
}

// Interpreter drives evaluation of Step programs. All program output
// goes through the injected stdout sink so callers (and tests) can
// capture it.
type Interpreter struct {
	global *runtime.Environment
	stdout io.Writer
}

// New returns an interpreter whose global environment is seeded with the
// built-in functions. A nil stdout defaults to os.Stdout.
func New(stdout io.Writer) *Interpreter {
	if stdout == nil {
		stdout = os.Stdout
	}
	i := &Interpreter{
		global: runtime.NewEnvironment(),
		stdout: stdout,
	}
	i.registerBuiltins()
	return i
}

// GlobalEnvironment returns the interpreter's global environment.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.global
}

// Run parses and executes one Step source string. A nil error means the
// program completed cleanly; otherwise the error is a *lexer.Error,
// *parser.Error, or *RuntimeError describing the failure.
func Run(source string, stdout io.Writer) error {
	program, err := parser.Parse(source)
	if err != nil {
		return err
	}
	_, err = New(stdout).Evaluate(program)
	return err
}

// Evaluate executes a parsed program against the interpreter's global
// environment and returns the value of the last expression statement.
func (i *Interpreter) Evaluate(program *ast.Program) (runtime.Value, error) {
	var last runtime.Value = runtime.NoneValue{}
	for _, stmt := range program.Statements {
		val, err := i.evaluateStatement(stmt, i.global)
		if err != nil {
			return nil, i.escapedSignal(err)
		}
		if val != nil {
			last = val
		}
	}
	return last, nil
}

// escapedSignal converts a control signal that reached the top level
// into the runtime error the language defines for it.
func (i *Interpreter) escapedSignal(err error) error {
	switch sig := err.(type) {
	case breakSignal:
		return &RuntimeError{Line: sig.pos.Line, Column: sig.pos.Column, Msg: "'break' outside a loop"}
	case continueSignal:
		return &RuntimeError{Line: sig.pos.Line, Column: sig.pos.Column, Msg: "'continue' outside a loop"}
	case returnSignal:
		return &RuntimeError{Line: sig.pos.Line, Column: sig.pos.Column, Msg: "'return' outside a function"}
	default:
		return err
	}
}

// evaluateStatement executes one statement. Expression statements
// return their value; every other statement returns nil. Break,
// continue, and return surface as signal errors.
func (i *Interpreter) evaluateStatement(node ast.Statement, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.ExpressionStatement:
		return i.evaluateExpression(n.Expression, env)
	case *ast.EmptyStatement:
		return nil, nil
	case *ast.IfStatement:
		return i.evaluateIfStatement(n, env)
	case *ast.WhileStatement:
		return i.evaluateWhileStatement(n, env)
	case *ast.BreakStatement:
		return nil, breakSignal{pos: n.Position()}
	case *ast.ContinueStatement:
		return nil, continueSignal{pos: n.Position()}
	case *ast.ReturnStatement:
		return i.evaluateReturnStatement(n, env)
	case *ast.FunctionDefinition:
		return i.evaluateFunctionDefinition(n, env)
	default:
		return nil, errAt(node, "unsupported statement type: %s", node.NodeType())
	}
}

// evaluateStatements runs a statement list until a signal or error
// interrupts it.
func (i *Interpreter) evaluateStatements(stmts []ast.Statement, env *runtime.Environment) error {
	for _, stmt := range stmts {
		if _, err := i.evaluateStatement(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) evaluateIfStatement(stmt *ast.IfStatement, env *runtime.Environment) (runtime.Value, error) {
	cond, err := i.evaluateExpression(stmt.Condition, env)
	if err != nil {
		return nil, err
	}
	if runtime.Truthy(cond) {
		return nil, i.evaluateStatements(stmt.Consequent, env)
	}
	if stmt.Alternate != nil {
		return nil, i.evaluateStatements(stmt.Alternate, env)
	}
	return nil, nil
}

func (i *Interpreter) evaluateWhileStatement(stmt *ast.WhileStatement, env *runtime.Environment) (runtime.Value, error) {
	for {
		cond, err := i.evaluateExpression(stmt.Condition, env)
		if err != nil {
			return nil, err
		}
		if !runtime.Truthy(cond) {
			return nil, nil
		}
		if err := i.evaluateStatements(stmt.Body, env); err != nil {
			switch err.(type) {
			case breakSignal:
				return nil, nil
			case continueSignal:
				continue
			default:
				return nil, err
			}
		}
	}
}

func (i *Interpreter) evaluateReturnStatement(stmt *ast.ReturnStatement, env *runtime.Environment) (runtime.Value, error) {
	var result runtime.Value = runtime.NoneValue{}
	if stmt.Argument != nil {
		val, err := i.evaluateExpression(stmt.Argument, env)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return nil, returnSignal{pos: stmt.Position(), value: result}
}

// evaluateFunctionDefinition binds the function name in the global
// environment regardless of where the definition appears.
func (i *Interpreter) evaluateFunctionDefinition(stmt *ast.FunctionDefinition, env *runtime.Environment) (runtime.Value, error) {
	params := make([]string, 0, len(stmt.Params))
	for _, p := range stmt.Params {
		params = append(params, p.Name)
	}
	fn := &runtime.FunctionValue{
		Name:    stmt.Name.Name,
		Params:  params,
		Body:    stmt.Body,
		Closure: i.global,
	}
	i.global.Define(stmt.Name.Name, fn)
	return nil, nil
}

// callFunction invokes a user function: a fresh frame over the global
// environment, parameters bound, body executed until a return signal.
func (i *Interpreter) callFunction(node ast.Node, fn *runtime.FunctionValue, args []runtime.Value) (runtime.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, errAt(node, "the function '%s' expects %d arguments but %d were provided",
			fn.Name, len(fn.Params), len(args))
	}
	frame := fn.Closure.NewFrame()
	for idx, param := range fn.Params {
		frame.Define(param, args[idx])
	}
	if err := i.evaluateStatements(fn.Body, frame); err != nil {
		switch sig := err.(type) {
		case returnSignal:
			return sig.value, nil
		case breakSignal:
			return nil, &RuntimeError{Line: sig.pos.Line, Column: sig.pos.Column, Msg: "'break' outside a loop"}
		case continueSignal:
			return nil, &RuntimeError{Line: sig.pos.Line, Column: sig.pos.Column, Msg: "'continue' outside a loop"}
		default:
			return nil, err
		}
	}
	return runtime.NoneValue{}, nil
}

// Control signals travel through the error return so they unwind the
// statement walk without panic/recover.

type breakSignal struct {
	pos ast.Pos
}

func (b breakSignal) Error() string { return "break" }

type continueSignal struct {
	pos ast.Pos
}

func (c continueSignal) Error() string { return "continue" }

type returnSignal struct {
	pos   ast.Pos
	value runtime.Value
}

func (r returnSignal) Error() string { return "return" }
