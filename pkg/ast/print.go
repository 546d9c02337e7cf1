package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a parsed program back to canonical Step source with
// 4-space indentation. Used by `step parse` and handy in tests.
// Operators are written without grouping parentheses, so an expression
// whose grouping differs from the default precedence (such as
// (1 + 2) * 3) does not reparse to the same tree.
func Format(p *Program) string {
	var b strings.Builder
	for _, stmt := range p.Statements {
		writeStatement(&b, stmt, 0)
	}
	return b.String()
}

func writeStatement(b *strings.Builder, stmt Statement, indent int) {
	pad := strings.Repeat(" ", indent)
	switch s := stmt.(type) {
	case *EmptyStatement:
		fmt.Fprintf(b, "%s;\n", pad)
	case *ExpressionStatement:
		fmt.Fprintf(b, "%s%s;\n", pad, FormatExpression(s.Expression))
	case *IfStatement:
		fmt.Fprintf(b, "%sif (%s) {\n", pad, FormatExpression(s.Condition))
		for _, inner := range s.Consequent {
			writeStatement(b, inner, indent+4)
		}
		if s.Alternate != nil {
			fmt.Fprintf(b, "%s} else {\n", pad)
			for _, inner := range s.Alternate {
				writeStatement(b, inner, indent+4)
			}
		}
		fmt.Fprintf(b, "%s}\n", pad)
	case *WhileStatement:
		fmt.Fprintf(b, "%swhile (%s) {\n", pad, FormatExpression(s.Condition))
		for _, inner := range s.Body {
			writeStatement(b, inner, indent+4)
		}
		fmt.Fprintf(b, "%s}\n", pad)
	case *BreakStatement:
		fmt.Fprintf(b, "%sbreak;\n", pad)
	case *ContinueStatement:
		fmt.Fprintf(b, "%scontinue;\n", pad)
	case *ReturnStatement:
		if s.Argument != nil {
			fmt.Fprintf(b, "%sreturn %s;\n", pad, FormatExpression(s.Argument))
		} else {
			fmt.Fprintf(b, "%sreturn;\n", pad)
		}
	case *FunctionDefinition:
		params := make([]string, 0, len(s.Params))
		for _, p := range s.Params {
			params = append(params, p.Name)
		}
		fmt.Fprintf(b, "%sdef %s(%s) {\n", pad, s.Name.Name, strings.Join(params, ", "))
		for _, inner := range s.Body {
			writeStatement(b, inner, indent+4)
		}
		fmt.Fprintf(b, "%s}\n", pad)
	default:
		fmt.Fprintf(b, "%s<%s>;\n", pad, stmt.NodeType())
	}
}

// FormatExpression renders one expression on a single line.
func FormatExpression(expr Expression) string {
	switch e := expr.(type) {
	case *Identifier:
		return e.Name
	case *IntegerLiteral:
		return strconv.FormatInt(e.Value, 10)
	case *FloatLiteral:
		s := strconv.FormatFloat(e.Value, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case *StringLiteral:
		return "\"" + e.Value + "\""
	case *NoneLiteral:
		return "None"
	case *ListLiteral:
		parts := make([]string, 0, len(e.Elements))
		for _, el := range e.Elements {
			parts = append(parts, FormatExpression(el))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *UnaryExpression:
		return e.Operator + FormatExpression(e.Operand)
	case *BinaryExpression:
		return fmt.Sprintf("%s %s %s", FormatExpression(e.Left), e.Operator, FormatExpression(e.Right))
	case *LogicalExpression:
		return fmt.Sprintf("%s %s %s", FormatExpression(e.Left), e.Operator, FormatExpression(e.Right))
	case *AssignmentExpression:
		return fmt.Sprintf("%s = %s", FormatExpression(e.Target), FormatExpression(e.Value))
	case *IndexExpression:
		return fmt.Sprintf("%s[%s]", FormatExpression(e.Object), FormatExpression(e.Index))
	case *CallExpression:
		args := make([]string, 0, len(e.Arguments))
		for _, a := range e.Arguments {
			args = append(args, FormatExpression(a))
		}
		return fmt.Sprintf("%s(%s)", FormatExpression(e.Callee), strings.Join(args, ", "))
	default:
		return fmt.Sprintf("<%s>", expr.NodeType())
	}
}
