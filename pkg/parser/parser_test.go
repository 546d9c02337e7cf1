package parser

import (
	"strings"
	"testing"

	"step/interpreter-go/pkg/ast"
	"step/interpreter-go/pkg/lexer"
)

func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	program, err := Parse(source)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return program
}

func parseError(t *testing.T, source string) *Error {
	t.Helper()
	_, err := Parse(source)
	if err == nil {
		t.Fatalf("expected parse error for %q", source)
	}
	parseErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *parser.Error, got %T: %v", err, err)
	}
	return parseErr
}

func onlyExpression(t *testing.T, program *ast.Program) ast.Expression {
	t.Helper()
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement, got %s", program.Statements[0].NodeType())
	}
	return stmt.Expression
}

func TestParseMultiplicationBindsTighterThanAddition(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "1 + 2 * 3;"))
	add, ok := expr.(*ast.BinaryExpression)
	if !ok || add.Operator != "+" {
		t.Fatalf("expected top-level '+', got %#v", expr)
	}
	mul, ok := add.Right.(*ast.BinaryExpression)
	if !ok || mul.Operator != "*" {
		t.Fatalf("expected '*' on the right, got %#v", add.Right)
	}
}

func TestParseAdditionIsLeftAssociative(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "1 - 2 - 3;"))
	outer := expr.(*ast.BinaryExpression)
	if outer.Operator != "-" {
		t.Fatalf("expected '-', got %q", outer.Operator)
	}
	inner, ok := outer.Left.(*ast.BinaryExpression)
	if !ok || inner.Operator != "-" {
		t.Fatalf("expected left-nested '-', got %#v", outer.Left)
	}
}

func TestParseComparisonBelowAndOr(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "a < b and c > d;"))
	logic, ok := expr.(*ast.LogicalExpression)
	if !ok || logic.Operator != "and" {
		t.Fatalf("expected 'and' at the top, got %#v", expr)
	}
	if _, ok := logic.Left.(*ast.BinaryExpression); !ok {
		t.Fatalf("expected comparison on the left, got %#v", logic.Left)
	}
}

func TestParseAndOrSameLevelLeftAssociative(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "a and b or c;"))
	outer := expr.(*ast.LogicalExpression)
	if outer.Operator != "or" {
		t.Fatalf("expected outer 'or', got %q", outer.Operator)
	}
	inner, ok := outer.Left.(*ast.LogicalExpression)
	if !ok || inner.Operator != "and" {
		t.Fatalf("expected inner 'and', got %#v", outer.Left)
	}
}

func TestParseChainedComparisonIsError(t *testing.T) {
	parseErr := parseError(t, "1 < 2 < 3;")
	if !strings.Contains(parseErr.Msg, "chained comparison") {
		t.Fatalf("unexpected message: %q", parseErr.Msg)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "a = b = 1;"))
	outer, ok := expr.(*ast.AssignmentExpression)
	if !ok {
		t.Fatalf("expected assignment, got %#v", expr)
	}
	inner, ok := outer.Value.(*ast.AssignmentExpression)
	if !ok {
		t.Fatalf("expected nested assignment, got %#v", outer.Value)
	}
	if inner.Target.(*ast.Identifier).Name != "b" {
		t.Fatalf("unexpected inner target %#v", inner.Target)
	}
}

func TestParseAssignmentToSubscript(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "a[0] = 9;"))
	assign := expr.(*ast.AssignmentExpression)
	if _, ok := assign.Target.(*ast.IndexExpression); !ok {
		t.Fatalf("expected subscript target, got %#v", assign.Target)
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	parseErr := parseError(t, "1 = 2;")
	if !strings.Contains(parseErr.Msg, "assignment") {
		t.Fatalf("unexpected message: %q", parseErr.Msg)
	}
	parseError(t, "f() = 2;")
}

func TestParseUnaryMinus(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "- -x * 2;"))
	mul := expr.(*ast.BinaryExpression)
	if mul.Operator != "*" {
		t.Fatalf("expected '*', got %q", mul.Operator)
	}
	outer, ok := mul.Left.(*ast.UnaryExpression)
	if !ok {
		t.Fatalf("expected unary on the left, got %#v", mul.Left)
	}
	if _, ok := outer.Operand.(*ast.UnaryExpression); !ok {
		t.Fatalf("expected nested unary, got %#v", outer.Operand)
	}
}

func TestParsePostfixChaining(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "m[0][1](2)(3);"))
	call, ok := expr.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected outer call, got %#v", expr)
	}
	innerCall, ok := call.Callee.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected inner call, got %#v", call.Callee)
	}
	index, ok := innerCall.Callee.(*ast.IndexExpression)
	if !ok {
		t.Fatalf("expected subscript, got %#v", innerCall.Callee)
	}
	if _, ok := index.Object.(*ast.IndexExpression); !ok {
		t.Fatalf("expected nested subscript, got %#v", index.Object)
	}
}

func TestParseListLiterals(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "[1, \"two\", [3], None];"))
	list := expr.(*ast.ListLiteral)
	if len(list.Elements) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(list.Elements))
	}
	if _, ok := list.Elements[2].(*ast.ListLiteral); !ok {
		t.Fatalf("expected nested list, got %#v", list.Elements[2])
	}

	empty := onlyExpression(t, mustParse(t, "[];")).(*ast.ListLiteral)
	if len(empty.Elements) != 0 {
		t.Fatalf("expected empty list, got %d elements", len(empty.Elements))
	}
}

func TestParseNumberLiterals(t *testing.T) {
	intLit := onlyExpression(t, mustParse(t, "42;"))
	if lit, ok := intLit.(*ast.IntegerLiteral); !ok || lit.Value != 42 {
		t.Fatalf("unexpected integer literal %#v", intLit)
	}
	floatLit := onlyExpression(t, mustParse(t, "1.5;"))
	if lit, ok := floatLit.(*ast.FloatLiteral); !ok || lit.Value != 1.5 {
		t.Fatalf("unexpected float literal %#v", floatLit)
	}
	trailing := onlyExpression(t, mustParse(t, "2.;"))
	if lit, ok := trailing.(*ast.FloatLiteral); !ok || lit.Value != 2.0 {
		t.Fatalf("unexpected float literal %#v", trailing)
	}
}

func TestParseIfElse(t *testing.T) {
	program := mustParse(t, "if (x) { y = 1; } else { y = 2; z = 3; }")
	stmt := program.Statements[0].(*ast.IfStatement)
	if len(stmt.Consequent) != 1 || len(stmt.Alternate) != 2 {
		t.Fatalf("unexpected branch sizes: %d/%d", len(stmt.Consequent), len(stmt.Alternate))
	}

	noElse := mustParse(t, "if (x) { }").Statements[0].(*ast.IfStatement)
	if noElse.Alternate != nil {
		t.Fatalf("expected nil alternate")
	}
}

func TestParseWhileWithControlFlow(t *testing.T) {
	program := mustParse(t, "while (i < 10) { if (i == 5) { break; } continue; }")
	loop := program.Statements[0].(*ast.WhileStatement)
	if len(loop.Body) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(loop.Body))
	}
	if _, ok := loop.Body[1].(*ast.ContinueStatement); !ok {
		t.Fatalf("expected continue, got %s", loop.Body[1].NodeType())
	}
}

func TestParseFunctionDefinition(t *testing.T) {
	program := mustParse(t, "def add(a, b) { return a + b; }")
	def := program.Statements[0].(*ast.FunctionDefinition)
	if def.Name.Name != "add" || len(def.Params) != 2 {
		t.Fatalf("unexpected definition %#v", def)
	}
	ret := def.Body[0].(*ast.ReturnStatement)
	if ret.Argument == nil {
		t.Fatalf("expected return argument")
	}

	noParams := mustParse(t, "def f() { return; }").Statements[0].(*ast.FunctionDefinition)
	if len(noParams.Params) != 0 {
		t.Fatalf("expected no params, got %d", len(noParams.Params))
	}
	if noParams.Body[0].(*ast.ReturnStatement).Argument != nil {
		t.Fatalf("expected bare return")
	}
}

func TestParseEmptyStatement(t *testing.T) {
	program := mustParse(t, ";;")
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	for _, stmt := range program.Statements {
		if _, ok := stmt.(*ast.EmptyStatement); !ok {
			t.Fatalf("expected empty statement, got %s", stmt.NodeType())
		}
	}
}

func TestParseMissingSemicolon(t *testing.T) {
	parseErr := parseError(t, "x = 1")
	if !strings.Contains(parseErr.Msg, "';'") {
		t.Fatalf("unexpected message: %q", parseErr.Msg)
	}
}

func TestParseMissingClosingBrace(t *testing.T) {
	parseError(t, "while (1) { x = 1;")
}

func TestParseReportsPosition(t *testing.T) {
	parseErr := parseError(t, "x = 1;\ny = ;\n")
	if parseErr.Line != 2 {
		t.Fatalf("expected error on line 2, got line %d", parseErr.Line)
	}
}

func TestParsePropagatesLexErrors(t *testing.T) {
	_, err := Parse("x = \"unterminated")
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := err.(*lexer.Error); !ok {
		t.Fatalf("expected *lexer.Error, got %T", err)
	}
}

func TestParseParenthesizedAssignment(t *testing.T) {
	expr := onlyExpression(t, mustParse(t, "x = (y = 3) + 1;"))
	assign := expr.(*ast.AssignmentExpression)
	add, ok := assign.Value.(*ast.BinaryExpression)
	if !ok || add.Operator != "+" {
		t.Fatalf("expected '+', got %#v", assign.Value)
	}
	if _, ok := add.Left.(*ast.AssignmentExpression); !ok {
		t.Fatalf("expected parenthesized assignment, got %#v", add.Left)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	source := "def f(a, b) {\n    if (a < b) {\n        return b;\n    }\n    return a;\n}\nprint(f(1, 2));\n"
	program := mustParse(t, source)
	formatted := ast.Format(program)
	reparsed, err := Parse(formatted)
	if err != nil {
		t.Fatalf("formatted output failed to reparse: %v\n%s", err, formatted)
	}
	if got := ast.Format(reparsed); got != formatted {
		t.Fatalf("format not stable:\n%s\nvs\n%s", formatted, got)
	}
}
